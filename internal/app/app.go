package app

import (
	"context"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/yungbote/dubmyyt/internal/config"
	"github.com/yungbote/dubmyyt/internal/data/db"
	httpapi "github.com/yungbote/dubmyyt/internal/http"
	"github.com/yungbote/dubmyyt/internal/observability"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/realtime"
)

type App struct {
	Log      *logger.Logger
	DB       *gorm.DB
	Cfg      config.Config
	Clients  Clients
	Repos    Repos
	Services Services
	SSEHub   *realtime.SSEHub
	Metrics  *observability.Metrics
	Server   *httpapi.Server

	pg           *db.PostgresService
	otelShutdown func(context.Context) error
	cancel       context.CancelFunc
}

const otelFlushTimeout = 5 * time.Second

func New() (*App, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log, err := logger.New(cfg.LogMode)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	otelShutdown, err := observability.InitOTel(context.Background(), log, observability.OtelConfig{
		ServiceName: cfg.Otel.ServiceName,
		Environment: cfg.LogMode,
		Exporter:    cfg.Otel.Exporter,
		SampleRatio: cfg.Otel.SampleRatio,
	})
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init otel: %w", err)
	}

	pg, err := db.NewPostgresService(cfg.Postgres.DSN, log)
	if err != nil {
		log.Sync()
		return nil, fmt.Errorf("init postgres: %w", err)
	}
	if cfg.Postgres.Migrate {
		if err := pg.AutoMigrateAll(); err != nil {
			_ = pg.Close()
			log.Sync()
			return nil, fmt.Errorf("postgres automigrate: %w", err)
		}
	}
	theDB := pg.DB()

	var metrics *observability.Metrics
	if cfg.MetricsEnabled {
		metrics = observability.New()
	}

	clientset, err := wireClients(log, cfg, metrics)
	if err != nil {
		_ = pg.Close()
		log.Sync()
		return nil, err
	}

	ssehub := realtime.NewSSEHub(log)
	reposet := wireRepos(theDB, log)
	serviceset := wireServices(log, cfg, clientset, reposet, ssehub, metrics)
	handlerset := wireHandlers(log, cfg, serviceset, ssehub, metrics)
	server := httpapi.NewServer(":"+cfg.Port, wireRouter(log, cfg, clientset, handlerset, metrics))
	server.OnShutdown(ssehub.CloseAll)

	return &App{
		Log:          log,
		DB:           theDB,
		Cfg:          cfg,
		Clients:      clientset,
		Repos:        reposet,
		Services:     serviceset,
		SSEHub:       ssehub,
		Metrics:      metrics,
		Server:       server,
		pg:           pg,
		otelShutdown: otelShutdown,
	}, nil
}

// Start launches the background loops: the cross-instance SSE forwarder and
// the metrics collectors.
func (a *App) Start() error {
	if a == nil || a.cancel != nil {
		return nil
	}
	ctx, cancel := context.WithCancel(context.Background())
	a.cancel = cancel

	if a.Clients.SSEBus != nil {
		if err := a.Clients.SSEBus.StartForwarder(ctx, a.SSEHub.Broadcast); err != nil {
			return fmt.Errorf("start SSE forwarder: %w", err)
		}
	}
	if a.Metrics != nil {
		a.Metrics.StartPostgresCollector(ctx, a.Log, a.DB)
		if a.Clients.Redis != nil {
			a.Metrics.StartRedisCollector(ctx, a.Log, a.Clients.Redis)
		}
	}
	return nil
}

func (a *App) Run(ctx context.Context) error {
	if a == nil || a.Server == nil {
		return fmt.Errorf("app not initialized")
	}
	a.Log.Info("Server listening", "port", a.Cfg.Port, "backend", a.Services.Backend.BaseURL())
	return a.Server.Run(ctx)
}

func (a *App) Close() {
	if a == nil {
		return
	}
	if a.cancel != nil {
		a.cancel()
		a.cancel = nil
	}
	if a.Services.Workspaces != nil {
		a.Services.Workspaces.Close()
	}
	if a.Clients.SSEBus != nil {
		_ = a.Clients.SSEBus.Close()
	}
	if a.Clients.Redis != nil {
		_ = a.Clients.Redis.Close()
	}
	if a.pg != nil {
		if err := a.pg.Close(); err != nil {
			a.Log.Warn("postgres close failed", "error", err)
		}
	}
	if a.otelShutdown != nil {
		ctx, cancel := context.WithTimeout(context.Background(), otelFlushTimeout)
		if err := a.otelShutdown(ctx); err != nil {
			a.Log.Warn("otel shutdown failed", "error", err)
		}
		cancel()
	}
	if a.Log != nil {
		a.Log.Sync()
	}
}
