package app

import (
	"time"

	"github.com/gin-gonic/gin"

	"github.com/yungbote/dubmyyt/internal/config"
	httpapi "github.com/yungbote/dubmyyt/internal/http"
	httpH "github.com/yungbote/dubmyyt/internal/http/handlers"
	httpMW "github.com/yungbote/dubmyyt/internal/http/middleware"
	"github.com/yungbote/dubmyyt/internal/observability"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/realtime"
)

type Handlers struct {
	Guard      *httpMW.SessionGuard
	Health     *httpH.HealthHandler
	Pages      *httpH.PageHandler
	Auth       *httpH.AuthHandler
	Submission *httpH.SubmissionHandler
	History    *httpH.HistoryHandler
	Dashboard  *httpH.DashboardHandler
	Notices    *httpH.NoticeHandler
	Realtime   *httpH.RealtimeHandler
}

func wireHandlers(log *logger.Logger, cfg config.Config, services Services, hub *realtime.SSEHub, metrics *observability.Metrics) Handlers {
	log.Info("Wiring handlers...")
	guard := httpMW.NewSessionGuard(log, services.Sessions, cfg.Session.CookieName)
	return Handlers{
		Guard:  guard,
		Health: httpH.NewHealthHandler(),
		Pages:  httpH.NewPageHandler(),
		Auth: httpH.NewAuthHandler(log, services.Sessions, guard, httpH.CookieConfig{
			Name:   cfg.Session.CookieName,
			Secure: cfg.Session.Secure,
			TTL:    cfg.Session.TTL,
		}),
		Submission: httpH.NewSubmissionHandler(log, services.Workspaces, cfg.PreviewDir, cfg.MaxUploadBytes),
		History:    httpH.NewHistoryHandler(log, services.Workspaces),
		Dashboard:  httpH.NewDashboardHandler(services.Dashboard),
		Notices:    httpH.NewNoticeHandler(services.Workspaces),
		Realtime:   httpH.NewRealtimeHandler(log, hub, metrics),
	}
}

func wireRouter(log *logger.Logger, cfg config.Config, clients Clients, handlers Handlers, metrics *observability.Metrics) httpapi.RouterConfig {
	if cfg.LogMode == "production" || cfg.LogMode == "prod" {
		gin.SetMode(gin.ReleaseMode)
	}
	return httpapi.RouterConfig{
		Log:         log,
		ServiceName: cfg.Otel.ServiceName,
		CORSOrigins: cfg.CORSOrigins,
		Metrics:     metrics,
		Guard:       handlers.Guard,
		SubmitLimit: httpMW.NewRateLimiter(httpMW.RateLimiterConfig{
			Redis:   clients.Redis,
			Limit:   cfg.SubmitsPerMinute,
			Window:  time.Minute,
			Metrics: metrics,
			Log:     log,
		}),
		HealthHandler:     handlers.Health,
		PageHandler:       handlers.Pages,
		AuthHandler:       handlers.Auth,
		SubmissionHandler: handlers.Submission,
		HistoryHandler:    handlers.History,
		DashboardHandler:  handlers.Dashboard,
		NoticeHandler:     handlers.Notices,
		RealtimeHandler:   handlers.Realtime,
	}
}
