package http

import (
	"github.com/gin-gonic/gin"
	"go.opentelemetry.io/contrib/instrumentation/github.com/gin-gonic/gin/otelgin"

	httpH "github.com/yungbote/dubmyyt/internal/http/handlers"
	httpMW "github.com/yungbote/dubmyyt/internal/http/middleware"
	"github.com/yungbote/dubmyyt/internal/observability"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
)

type RouterConfig struct {
	Log         *logger.Logger
	ServiceName string
	CORSOrigins []string
	Metrics     *observability.Metrics

	Guard       *httpMW.SessionGuard
	SubmitLimit gin.HandlerFunc

	HealthHandler     *httpH.HealthHandler
	PageHandler       *httpH.PageHandler
	AuthHandler       *httpH.AuthHandler
	SubmissionHandler *httpH.SubmissionHandler
	HistoryHandler    *httpH.HistoryHandler
	DashboardHandler  *httpH.DashboardHandler
	NoticeHandler     *httpH.NoticeHandler
	RealtimeHandler   *httpH.RealtimeHandler
}

func NewRouter(cfg RouterConfig) *gin.Engine {
	r := gin.New()
	r.Use(gin.Recovery())
	if cfg.ServiceName != "" {
		r.Use(otelgin.Middleware(cfg.ServiceName))
	}
	r.Use(httpMW.AttachTraceContext())
	if cfg.Log != nil {
		r.Use(httpMW.RequestLogger(cfg.Log))
	}
	r.Use(httpMW.Metrics(cfg.Metrics))
	r.Use(httpMW.CORS(cfg.CORSOrigins))
	r.SetHTMLTemplate(httpH.PageTemplates())

	// Health
	if cfg.HealthHandler != nil {
		r.GET("/healthcheck", cfg.HealthHandler.HealthCheck)
	}
	if cfg.Metrics != nil {
		r.GET("/metrics", gin.WrapF(cfg.Metrics.WriteHTTP))
	}

	optional := r.Group("/")
	optional.Use(cfg.Guard.Optional())
	if cfg.PageHandler != nil {
		optional.GET("/", cfg.PageHandler.Landing)
		optional.GET("/auth", cfg.PageHandler.Auth)
	}

	pages := r.Group("/")
	pages.Use(cfg.Guard.RequirePage())
	if cfg.PageHandler != nil {
		pages.GET("/app", cfg.PageHandler.App)
		pages.GET("/dashboard", cfg.PageHandler.Dashboard)
	}

	api := r.Group("/api")
	{
		// Auth (public)
		if cfg.AuthHandler != nil {
			api.POST("/auth/login", cfg.AuthHandler.Login)
			api.POST("/auth/signup", cfg.AuthHandler.SignUp)
			api.POST("/auth/logout", cfg.AuthHandler.Logout)
			api.GET("/auth/session", cfg.Guard.Optional(), cfg.AuthHandler.Session)
		}
	}

	protected := api.Group("/")
	protected.Use(cfg.Guard.RequireAPI())
	{
		// Submissions
		if cfg.SubmissionHandler != nil {
			submit := []gin.HandlerFunc{cfg.SubmissionHandler.Create}
			if cfg.SubmitLimit != nil {
				submit = append([]gin.HandlerFunc{cfg.SubmitLimit}, submit...)
			}
			protected.POST("/submissions", submit...)
			protected.GET("/submissions/current", cfg.SubmissionHandler.Current)
			protected.DELETE("/submissions/current", cfg.SubmissionHandler.Reset)
			protected.GET("/submissions/current/download/:artifact/:variant", cfg.SubmissionHandler.Download)
			protected.GET("/preview", cfg.SubmissionHandler.Preview)
		}

		// History
		if cfg.HistoryHandler != nil {
			protected.GET("/history", cfg.HistoryHandler.List)
			protected.GET("/history/:id", cfg.HistoryHandler.Get)
			protected.DELETE("/history/:id", cfg.HistoryHandler.Delete)
			protected.GET("/history/:id/subtitles/:language", cfg.HistoryHandler.DownloadSubtitle)
			protected.GET("/history/:id/summary", cfg.HistoryHandler.DownloadSummary)
		}

		if cfg.DashboardHandler != nil {
			protected.GET("/dashboard", cfg.DashboardHandler.Overview)
		}

		if cfg.NoticeHandler != nil {
			protected.GET("/notices/current", cfg.NoticeHandler.Current)
			protected.DELETE("/notices/current", cfg.NoticeHandler.Dismiss)
		}

		// Realtime (SSE)
		if cfg.RealtimeHandler != nil {
			protected.GET("/sse/stream", cfg.RealtimeHandler.SSEStream)
		}
	}

	return r
}
