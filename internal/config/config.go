package config

import (
	"fmt"
	"net"
	"net/url"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/yungbote/dubmyyt/internal/platform/envutil"
)

type Config struct {
	LogMode string `yaml:"log_mode"`
	Port    string `yaml:"port"`

	// PublicURL is where browsers reach this service. The processing backend
	// address is derived from its host unless BackendURL is set.
	PublicURL      string        `yaml:"public_url"`
	BackendURL     string        `yaml:"backend_url"`
	BackendTimeout time.Duration `yaml:"backend_timeout"`

	Postgres PostgresConfig `yaml:"postgres"`
	Supabase SupabaseConfig `yaml:"supabase"`
	Redis    RedisConfig    `yaml:"redis"`
	Session  SessionConfig  `yaml:"session"`
	UI       UIConfig       `yaml:"ui"`
	Otel     OtelConfig     `yaml:"otel"`

	MetricsEnabled bool `yaml:"metrics_enabled"`

	CORSOrigins      []string `yaml:"cors_origins"`
	SubmitsPerMinute int      `yaml:"submits_per_minute"`
	PreviewDir       string   `yaml:"preview_dir"`
	MaxUploadBytes   int64    `yaml:"max_upload_bytes"`
}

type PostgresConfig struct {
	DSN     string `yaml:"dsn"`
	Migrate bool   `yaml:"migrate"`
}

type SupabaseConfig struct {
	URL       string `yaml:"url"`
	AnonKey   string `yaml:"anon_key"`
	JWTSecret string `yaml:"jwt_secret"`
}

type RedisConfig struct {
	Addr     string `yaml:"addr"`
	Password string `yaml:"password"`
	DB       int    `yaml:"db"`
	// Channel prefixes the per-session pub/sub topics used for SSE fan-out.
	Channel string `yaml:"channel"`
}

type SessionConfig struct {
	CookieName string        `yaml:"cookie_name"`
	Secure     bool          `yaml:"secure"`
	TTL        time.Duration `yaml:"ttl"`
}

type UIConfig struct {
	NoticeTTL     time.Duration `yaml:"notice_ttl"`
	ProgressTick  time.Duration `yaml:"progress_tick"`
	SnapHold      time.Duration `yaml:"snap_hold"`
	CompleteHold  time.Duration `yaml:"complete_hold"`
	HistoryLimit  int           `yaml:"history_limit"`
	DashboardDays int           `yaml:"dashboard_days"`
}

// OtelConfig selects the trace exporter: "otlp", "stdout" or "none".
// The OTLP exporter reads its endpoint from OTEL_EXPORTER_OTLP_ENDPOINT.
type OtelConfig struct {
	Exporter    string  `yaml:"exporter"`
	ServiceName string  `yaml:"service_name"`
	SampleRatio float64 `yaml:"sample_ratio"`
}

func Defaults() Config {
	return Config{
		LogMode:        "development",
		Port:           "8080",
		PublicURL:      "http://localhost:8080",
		BackendTimeout: 10 * time.Minute,
		Postgres: PostgresConfig{
			Migrate: true,
		},
		Redis: RedisConfig{
			Channel: "dubmyyt:sse",
		},
		Session: SessionConfig{
			CookieName: "dmy_session",
			TTL:        7 * 24 * time.Hour,
		},
		UI: UIConfig{
			NoticeTTL:     6 * time.Second,
			ProgressTick:  200 * time.Millisecond,
			SnapHold:      500 * time.Millisecond,
			CompleteHold:  300 * time.Millisecond,
			HistoryLimit:  10,
			DashboardDays: 30,
		},
		Otel: OtelConfig{
			Exporter:    "none",
			ServiceName: "dubmyyt",
			SampleRatio: 1,
		},
		CORSOrigins:      []string{"http://localhost:3000", "http://localhost:8080"},
		SubmitsPerMinute: 10,
		MaxUploadBytes:   512 << 20,
	}
}

// Load layers defaults, the optional YAML file named by DUBMYYT_CONFIG, and
// environment variables, in that order.
func Load() (Config, error) {
	cfg := Defaults()
	if path := envutil.String("DUBMYYT_CONFIG", ""); path != "" {
		if err := loadFile(path, &cfg); err != nil {
			return Config{}, err
		}
	}
	applyEnv(&cfg)
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func loadFile(path string, cfg *Config) error {
	raw, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(raw, cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func applyEnv(cfg *Config) {
	cfg.LogMode = envutil.String("LOG_MODE", cfg.LogMode)
	cfg.Port = envutil.String("PORT", cfg.Port)
	cfg.PublicURL = envutil.String("PUBLIC_URL", cfg.PublicURL)
	cfg.BackendURL = envutil.String("DUBMYYT_API_URL", cfg.BackendURL)
	cfg.BackendTimeout = envutil.Duration("DUBMYYT_API_TIMEOUT", cfg.BackendTimeout)

	cfg.Postgres.DSN = envutil.String("POSTGRES_DSN", cfg.Postgres.DSN)
	cfg.Postgres.Migrate = envutil.Bool("POSTGRES_MIGRATE", cfg.Postgres.Migrate)

	cfg.Supabase.URL = strings.TrimRight(envutil.String("SUPABASE_URL", cfg.Supabase.URL), "/")
	cfg.Supabase.AnonKey = envutil.String("SUPABASE_ANON_KEY", cfg.Supabase.AnonKey)
	cfg.Supabase.JWTSecret = envutil.String("SUPABASE_JWT_SECRET", cfg.Supabase.JWTSecret)

	cfg.Redis.Addr = envutil.String("REDIS_ADDR", cfg.Redis.Addr)
	cfg.Redis.Password = envutil.String("REDIS_PASSWORD", cfg.Redis.Password)
	cfg.Redis.DB = envutil.Int("REDIS_DB", cfg.Redis.DB)
	cfg.Redis.Channel = envutil.String("REDIS_CHANNEL", cfg.Redis.Channel)

	cfg.Session.CookieName = envutil.String("SESSION_COOKIE", cfg.Session.CookieName)
	cfg.Session.Secure = envutil.Bool("SESSION_COOKIE_SECURE", cfg.Session.Secure)
	cfg.Session.TTL = envutil.Duration("SESSION_TTL", cfg.Session.TTL)

	cfg.UI.NoticeTTL = envutil.Duration("NOTICE_TTL", cfg.UI.NoticeTTL)

	cfg.Otel.Exporter = envutil.String("OTEL_EXPORTER", cfg.Otel.Exporter)
	cfg.Otel.ServiceName = envutil.String("OTEL_SERVICE_NAME", cfg.Otel.ServiceName)
	cfg.Otel.SampleRatio = envutil.Float("OTEL_SAMPLER_RATIO", cfg.Otel.SampleRatio)
	cfg.MetricsEnabled = envutil.Bool("METRICS_ENABLED", cfg.MetricsEnabled)

	cfg.CORSOrigins = envutil.List("CORS_ALLOWED_ORIGINS", cfg.CORSOrigins)
	cfg.SubmitsPerMinute = envutil.Int("SUBMITS_PER_MINUTE", cfg.SubmitsPerMinute)
	cfg.PreviewDir = envutil.String("PREVIEW_DIR", cfg.PreviewDir)
	cfg.MaxUploadBytes = int64(envutil.Int("MAX_UPLOAD_BYTES", int(cfg.MaxUploadBytes)))
}

func (c Config) validate() error {
	if c.Supabase.URL == "" {
		return fmt.Errorf("SUPABASE_URL is required")
	}
	if c.Supabase.AnonKey == "" {
		return fmt.Errorf("SUPABASE_ANON_KEY is required")
	}
	if c.Postgres.DSN == "" {
		return fmt.Errorf("POSTGRES_DSN is required")
	}
	if _, err := url.Parse(c.PublicURL); err != nil {
		return fmt.Errorf("PUBLIC_URL: %w", err)
	}
	return nil
}

// ResolveBackendURL returns the processing backend base URL. An explicit
// override wins; otherwise the backend is assumed to listen on port 5000 of
// the host browsers use to reach this service.
func (c Config) ResolveBackendURL() string {
	return ResolveBackendURL(c.BackendURL, c.PublicURL)
}

func ResolveBackendURL(override, publicURL string) string {
	if o := strings.TrimRight(strings.TrimSpace(override), "/"); o != "" {
		return o
	}
	u, err := url.Parse(strings.TrimSpace(publicURL))
	if err != nil || u.Hostname() == "" {
		return "http://localhost:5000"
	}
	host := u.Hostname()
	switch {
	case host == "localhost" || host == "127.0.0.1":
		return "http://localhost:5000"
	case isDottedIPv4(host):
		return "http://" + host + ":5000"
	}
	scheme := u.Scheme
	if scheme == "" {
		scheme = "http"
	}
	return scheme + "://" + host + ":5000"
}

func isDottedIPv4(host string) bool {
	ip := net.ParseIP(host)
	return ip != nil && ip.To4() != nil && strings.Count(host, ".") == 3
}
