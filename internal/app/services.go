package app

import (
	"github.com/yungbote/dubmyyt/internal/backend"
	"github.com/yungbote/dubmyyt/internal/config"
	"github.com/yungbote/dubmyyt/internal/dashboard"
	"github.com/yungbote/dubmyyt/internal/observability"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/realtime"
	"github.com/yungbote/dubmyyt/internal/realtime/bus"
	"github.com/yungbote/dubmyyt/internal/session"
	"github.com/yungbote/dubmyyt/internal/submission"
	"github.com/yungbote/dubmyyt/internal/workspace"
)

type Services struct {
	Sessions   *session.Provider
	Backend    backend.Client
	Workspaces *workspace.Registry
	Dashboard  dashboard.Service
}

func wireServices(log *logger.Logger, cfg config.Config, clients Clients, repos Repos, hub *realtime.SSEHub, metrics *observability.Metrics) Services {
	log.Info("Wiring services...")

	store := session.NewMemoryStore()
	if clients.Redis != nil {
		store = session.NewRedisStore(clients.Redis)
	}
	sessions := session.NewProvider(clients.Auth, clients.Verifier, store, cfg.Session.TTL, log)

	// With Redis every instance forwards bus messages into its local hub, so
	// a stream on one instance sees events raised on another.
	var emitter realtime.Emitter = hub
	if clients.SSEBus != nil {
		emitter = bus.Emitter{
			Bus:   clients.SSEBus,
			Local: hub,
			OnErr: func(err error) { log.Warn("SSE bus publish failed; delivering locally", "error", err) },
		}
	}

	registry := workspace.NewRegistry(workspace.Deps{
		Backend:  clients.Backend,
		Videos:   repos.Videos,
		Activity: repos.Activity,
		Emitter:  emitter,
		Metrics:  metrics,
		Streams:  hub,
	}, workspace.Options{
		NoticeTTL:    cfg.UI.NoticeTTL,
		PreviewDir:   cfg.PreviewDir,
		IdleTTL:      cfg.Session.TTL,
		HistoryLimit: cfg.UI.HistoryLimit,
		Flow: submission.Options{
			Tick:         cfg.UI.ProgressTick,
			SnapHold:     cfg.UI.SnapHold,
			CompleteHold: cfg.UI.CompleteHold,
		},
	}, log)
	registry.Attach(sessions)

	return Services{
		Sessions:   sessions,
		Backend:    clients.Backend,
		Workspaces: registry,
		Dashboard:  dashboard.NewService(repos.Activity, repos.Analytics, repos.Videos, cfg.UI.DashboardDays, log),
	}
}
