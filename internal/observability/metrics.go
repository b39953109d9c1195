package observability

import (
	"context"
	"io"
	"net/http"
	"strconv"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

// Metrics is the process-wide set of counters exposed on /metrics. A nil
// *Metrics is valid and records nothing.
type Metrics struct {
	apiRequests  *family
	apiLatency   *histogram
	apiInflight  *family
	apiReqError  *family
	backendCalls *histogram
	submissions  *family
	rateLimited  *family
	sseClients   *family
	workspaces   *family
	pgStats      *family
	redisUp      *family
	redisPing    *family
	interval     time.Duration
}

func New() *Metrics {
	return &Metrics{
		apiRequests: counter("dmy_api_requests_total", "Total API requests by method/route/status.", "method", "route", "status"),
		apiLatency: newHistogram(
			"dmy_api_request_duration_seconds",
			"API request latency in seconds by method/route/status.",
			[]float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			"method", "route", "status",
		),
		apiInflight: gauge("dmy_api_inflight_requests", "In-flight API requests."),
		apiReqError: counter("dmy_api_requests_error_total", "API requests answered with a 5xx status."),
		backendCalls: newHistogram(
			"dmy_backend_call_duration_seconds",
			"Processing backend call latency by operation/outcome.",
			[]float64{0.1, 0.5, 1, 5, 15, 30, 60, 120, 300, 600},
			"op", "outcome",
		),
		submissions: counter("dmy_submissions_total", "Finished submissions by outcome.", "outcome"),
		rateLimited: counter("dmy_rate_limited_total", "Requests rejected by the rate limiter.", "route"),
		sseClients:  gauge("dmy_sse_clients", "Connected SSE clients."),
		workspaces:  gauge("dmy_workspaces", "Live per-session workspaces."),
		pgStats:     gauge("dmy_postgres_pool", "Postgres connection pool stats.", "stat"),
		redisUp:     gauge("dmy_redis_up", "1 when the last Redis ping succeeded."),
		redisPing:   gauge("dmy_redis_ping_seconds", "Latency of the last Redis ping."),
		interval:    10 * time.Second,
	}
}

func (m *Metrics) WriteHTTP(w http.ResponseWriter, r *http.Request) {
	if m == nil {
		w.WriteHeader(http.StatusServiceUnavailable)
		return
	}
	w.Header().Set("Content-Type", "text/plain; version=0.0.4")
	_ = m.WritePrometheus(w)
}

func (m *Metrics) WritePrometheus(w io.Writer) error {
	if m == nil {
		return nil
	}
	for _, c := range []interface{ write(io.Writer) error }{
		m.apiRequests, m.apiLatency, m.apiInflight, m.apiReqError,
		m.backendCalls, m.submissions, m.rateLimited,
		m.sseClients, m.workspaces, m.pgStats, m.redisUp, m.redisPing,
	} {
		if err := c.write(w); err != nil {
			return err
		}
	}
	return nil
}

func (m *Metrics) ObserveAPI(method, route string, status int, dur time.Duration) {
	if m == nil {
		return
	}
	if method == "" {
		method = "UNKNOWN"
	}
	if route == "" {
		route = "unknown"
	}
	code := strconv.Itoa(status)
	m.apiRequests.add(1, method, route, code)
	m.apiLatency.observe(dur.Seconds(), method, route, code)
	if status >= 500 {
		m.apiReqError.add(1)
	}
}

func (m *Metrics) ApiInflightInc() {
	if m == nil {
		return
	}
	m.apiInflight.add(1)
}

func (m *Metrics) ApiInflightDec() {
	if m == nil {
		return
	}
	m.apiInflight.add(-1)
}

func (m *Metrics) ObserveBackendCall(op string, err error, dur time.Duration) {
	if m == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	m.backendCalls.observe(dur.Seconds(), op, outcome)
}

// IncSubmission counts a finished submission; outcome is "succeeded" or the
// failure classification.
func (m *Metrics) IncSubmission(outcome string) {
	if m == nil {
		return
	}
	m.submissions.add(1, outcome)
}

func (m *Metrics) IncRateLimited(route string) {
	if m == nil {
		return
	}
	m.rateLimited.add(1, route)
}

func (m *Metrics) SetSSEClients(n int) {
	if m == nil {
		return
	}
	m.sseClients.set(float64(n))
}

func (m *Metrics) SetWorkspaces(n int) {
	if m == nil {
		return
	}
	m.workspaces.set(float64(n))
}

func (m *Metrics) StartPostgresCollector(ctx context.Context, log *logger.Logger, db *gorm.DB) {
	if m == nil || db == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				sqlDB, err := db.DB()
				if err != nil {
					if log != nil {
						log.Warn("metrics: postgres stats unavailable", "error", err)
					}
					continue
				}
				stats := sqlDB.Stats()
				m.pgStats.set(float64(stats.OpenConnections), "open_connections")
				m.pgStats.set(float64(stats.InUse), "in_use")
				m.pgStats.set(float64(stats.Idle), "idle")
				m.pgStats.set(float64(stats.WaitCount), "wait_count")
				m.pgStats.set(stats.WaitDuration.Seconds(), "wait_duration_seconds")
				m.pgStats.set(float64(stats.MaxOpenConnections), "max_open_connections")
			}
		}
	}()
}

func (m *Metrics) StartRedisCollector(ctx context.Context, log *logger.Logger, rdb goredis.UniversalClient) {
	if m == nil || rdb == nil {
		return
	}
	go func() {
		ticker := time.NewTicker(m.interval)
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				start := time.Now()
				if err := rdb.Ping(ctx).Err(); err != nil {
					m.redisUp.set(0)
					if log != nil {
						log.Warn("metrics: redis ping failed", "error", err)
					}
					continue
				}
				m.redisUp.set(1)
				m.redisPing.set(time.Since(start).Seconds())
			}
		}
	}()
}
