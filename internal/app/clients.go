package app

import (
	"context"
	"fmt"
	"time"

	goredis "github.com/redis/go-redis/v9"

	"github.com/yungbote/dubmyyt/internal/backend"
	"github.com/yungbote/dubmyyt/internal/config"
	"github.com/yungbote/dubmyyt/internal/observability"
	"github.com/yungbote/dubmyyt/internal/platform/logger"
	"github.com/yungbote/dubmyyt/internal/realtime/bus"
	"github.com/yungbote/dubmyyt/internal/supabase"
)

type Clients struct {
	Redis    goredis.UniversalClient
	SSEBus   bus.Bus
	Auth     supabase.AuthClient
	Verifier supabase.Verifier
	Backend  backend.Client
}

func wireClients(log *logger.Logger, cfg config.Config, metrics *observability.Metrics) (Clients, error) {
	log.Info("Wiring clients...")

	// Redis
	var rdb goredis.UniversalClient
	var sseBus bus.Bus
	if cfg.Redis.Addr != "" {
		c, err := newRedis(cfg.Redis)
		if err != nil {
			return Clients{}, err
		}
		rdb = c
		b, err := bus.NewRedisBus(rdb, cfg.Redis.Channel, log)
		if err != nil {
			_ = rdb.Close()
			return Clients{}, fmt.Errorf("init redis SSE bus: %w", err)
		}
		sseBus = b
	}

	// Supabase
	auth, err := supabase.NewAuthClient(cfg.Supabase.URL, cfg.Supabase.AnonKey, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init auth client: %w", err)
	}
	var verifier supabase.Verifier
	if cfg.Supabase.JWTSecret != "" {
		verifier = supabase.NewJWTVerifier(cfg.Supabase.JWTSecret)
	} else {
		log.Warn("SUPABASE_JWT_SECRET not set; verifying tokens against the auth server")
		verifier = supabase.NewRemoteVerifier(auth)
	}

	// Processing backend
	base := cfg.ResolveBackendURL()
	be, err := backend.NewClient(base, cfg.BackendTimeout, log)
	if err != nil {
		return Clients{}, fmt.Errorf("init backend client: %w", err)
	}

	return Clients{
		Redis:    rdb,
		SSEBus:   sseBus,
		Auth:     auth,
		Verifier: verifier,
		Backend:  backend.Instrument(be, metrics),
	}, nil
}

func newRedis(cfg config.RedisConfig) (goredis.UniversalClient, error) {
	rdb := goredis.NewClient(&goredis.Options{
		Addr:        cfg.Addr,
		Password:    cfg.Password,
		DB:          cfg.DB,
		DialTimeout: 5 * time.Second,
	})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := rdb.Ping(ctx).Err(); err != nil {
		_ = rdb.Close()
		return nil, fmt.Errorf("redis ping: %w", err)
	}
	return rdb, nil
}
