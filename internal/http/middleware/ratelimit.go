package middleware

import (
	"context"
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	goredis "github.com/redis/go-redis/v9"
	"golang.org/x/time/rate"

	"github.com/yungbote/dubmyyt/internal/observability"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

type RateLimiterConfig struct {
	Redis     goredis.UniversalClient
	Limit     int
	Window    time.Duration
	KeyPrefix string
	Extractor func(c *gin.Context) string
	Metrics   *observability.Metrics
	Log       *logger.Logger

	counter windowCounter
}

// NewRateLimiter caps requests per caller. With Redis a fixed-window
// counter is shared across instances; without it each process keeps a token
// bucket per caller. A Redis error lets the request through.
func NewRateLimiter(cfg RateLimiterConfig) gin.HandlerFunc {
	if cfg.Limit <= 0 {
		return func(c *gin.Context) { c.Next() }
	}
	if cfg.Window <= 0 {
		cfg.Window = time.Minute
	}
	if cfg.KeyPrefix == "" {
		cfg.KeyPrefix = "dubmyyt:rl:"
	}
	if cfg.Extractor == nil {
		cfg.Extractor = callerKey
	}
	local := newLocalLimiter(cfg.Limit, cfg.Window)
	counter := cfg.counter
	if counter == nil && cfg.Redis != nil {
		counter = redisCounter{rdb: cfg.Redis}
	}

	return func(c *gin.Context) {
		id := cfg.Extractor(c)
		if id == "" {
			id = "anonymous"
		}
		if counter == nil {
			if !local.allow(id) {
				reject(c, cfg, int(cfg.Window.Seconds()))
				return
			}
			c.Next()
			return
		}

		// A client dropping its upload must not cut the counter update short.
		ctx, cancel := context.WithTimeout(context.WithoutCancel(c.Request.Context()), redisTimeout)
		count, ttl, err := counter.Hit(ctx, cfg.KeyPrefix+id, cfg.Window)
		cancel()
		if err != nil {
			if cfg.Log != nil {
				cfg.Log.Warn("rate limiter unavailable (allowing)", "error", err)
			}
			c.Next()
			return
		}
		reset := int((ttl + time.Second - 1) / time.Second)
		if count > int64(cfg.Limit) {
			reject(c, cfg, reset)
			return
		}
		c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
		c.Header("X-RateLimit-Remaining", strconv.Itoa(cfg.Limit-int(count)))
		c.Header("X-RateLimit-Reset", strconv.Itoa(reset))
		c.Next()
	}
}

const redisTimeout = 500 * time.Millisecond

// windowCounter counts hits in a fixed window and reports the time left in
// it.
type windowCounter interface {
	Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error)
}

// hitScript increments and arms the window in one step. A key found without
// an expiry is re-armed, so a counter can never outlive its window.
var hitScript = goredis.NewScript(`
local n = redis.call('INCR', KEYS[1])
local ttl = redis.call('PTTL', KEYS[1])
if ttl < 0 then
  redis.call('PEXPIRE', KEYS[1], ARGV[1])
  ttl = tonumber(ARGV[1])
end
return {n, ttl}
`)

type redisCounter struct {
	rdb goredis.UniversalClient
}

func (r redisCounter) Hit(ctx context.Context, key string, window time.Duration) (int64, time.Duration, error) {
	res, err := hitScript.Run(ctx, r.rdb, []string{key}, window.Milliseconds()).Int64Slice()
	if err != nil {
		return 0, 0, err
	}
	if len(res) != 2 {
		return 0, 0, fmt.Errorf("rate limit script: unexpected reply %v", res)
	}
	return res[0], time.Duration(res[1]) * time.Millisecond, nil
}

func reject(c *gin.Context, cfg RateLimiterConfig, reset int) {
	cfg.Metrics.IncRateLimited(c.FullPath())
	c.Header("X-RateLimit-Limit", strconv.Itoa(cfg.Limit))
	c.Header("X-RateLimit-Remaining", "0")
	c.Header("X-RateLimit-Reset", strconv.Itoa(reset))
	c.Header("Retry-After", strconv.Itoa(reset))
	c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
		"error": gin.H{
			"message": fmt.Sprintf("rate limit exceeded: %d requests per %s", cfg.Limit, cfg.Window),
			"code":    "rate_limited",
		},
	})
}

// callerKey prefers the signed-in user so one account shares a budget
// across browsers.
func callerKey(c *gin.Context) string {
	if sess := CurrentSession(c); sess != nil {
		return "user:" + sess.UserID.String()
	}
	return "ip:" + c.ClientIP()
}

// localLimiter keeps a token bucket per caller. A bucket idle for a whole
// window has refilled, so dropping it loses nothing.
type localLimiter struct {
	limit     rate.Limit
	burst     int
	window    time.Duration
	now       func() time.Time
	mu        sync.Mutex
	perKey    map[string]*localBucket
	lastSweep time.Time
}

type localBucket struct {
	lim  *rate.Limiter
	seen time.Time
}

func newLocalLimiter(n int, window time.Duration) *localLimiter {
	return &localLimiter{
		limit:  rate.Every(window / time.Duration(n)),
		burst:  n,
		window: window,
		now:    time.Now,
		perKey: map[string]*localBucket{},
	}
}

func (l *localLimiter) allow(key string) bool {
	now := l.now()
	l.mu.Lock()
	defer l.mu.Unlock()
	if now.Sub(l.lastSweep) >= l.window {
		for k, b := range l.perKey {
			if now.Sub(b.seen) >= l.window {
				delete(l.perKey, k)
			}
		}
		l.lastSweep = now
	}
	b, ok := l.perKey[key]
	if !ok {
		b = &localBucket{lim: rate.NewLimiter(l.limit, l.burst)}
		l.perKey[key] = b
	}
	b.seen = now
	return b.lim.AllowN(now, 1)
}
