package config

import (
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"

	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
)

// Upstream data sources.
const (
	DataSourcePostgres = "postgres"
	DataSourceREST     = "rest"
)

// Mode is the process mode selected on the command line.
type Mode string

// Process modes.
const (
	ModeServe   Mode = "serve"
	ModeExport  Mode = "export"
	ModeMigrate Mode = "migrate"
)

const (
	minSessionSecretLen = 32
	appEnvLocal         = "local"
)

type Config struct {
	AppEnv     string `env:"APP_ENV" envDefault:"local"`
	LogLevel   string `env:"LOG_LEVEL" envDefault:"info"`
	DataSource string `env:"DATA_SOURCE" envDefault:"postgres"`
	Timezone   string `env:"TIMEZONE" envDefault:"Europe/Berlin"`

	// Postgres upstream
	PostgresDSN       string        `env:"POSTGRES_DSN"`
	DBMaxConnections  int32         `env:"DB_MAX_CONNECTIONS" envDefault:"8"`
	DBMinConnections  int32         `env:"DB_MIN_CONNECTIONS" envDefault:"1"`
	DBMaxConnIdleTime time.Duration `env:"DB_MAX_CONN_IDLE_TIME" envDefault:"30m"`
	DBMaxConnLifetime time.Duration `env:"DB_MAX_CONN_LIFETIME" envDefault:"1h"`
	DBHealthCheck     time.Duration `env:"DB_HEALTH_CHECK_PERIOD" envDefault:"1m"`
	MigrateOnStart    bool          `env:"MIGRATE_ON_START" envDefault:"false"`
	TrendsTable       string        `env:"TRENDS_TABLE" envDefault:"trends"`
	RealtimeEnabled   bool          `env:"REALTIME_ENABLED" envDefault:"true"`
	NotifyChannel     string        `env:"NOTIFY_CHANNEL" envDefault:"trends_changed"`

	// PostgREST upstream
	SupabaseURL      string        `env:"SUPABASE_URL"`
	SupabaseKey      string        `env:"SUPABASE_KEY"`
	SupabasePageSize int           `env:"SUPABASE_PAGE_SIZE" envDefault:"1000"`
	SupabaseRPS      float64       `env:"SUPABASE_RPS" envDefault:"5"`
	SupabaseTimeout  time.Duration `env:"SUPABASE_TIMEOUT" envDefault:"30s"`

	// Snapshot refresh
	RefreshInterval time.Duration `env:"REFRESH_INTERVAL" envDefault:"5m"`
	RefreshTimeout  time.Duration `env:"REFRESH_TIMEOUT" envDefault:"45s"`
	ViewCacheSize   int           `env:"VIEW_CACHE_SIZE" envDefault:"128"`

	// Dashboard HTTP server
	HTTPPort          int           `env:"HTTP_PORT" envDefault:"8080"`
	DashboardPassword string        `env:"DASHBOARD_PASSWORD"`
	SessionSecret     string        `env:"SESSION_SECRET"`
	SessionTTL        time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	CookieSecure      bool          `env:"COOKIE_SECURE" envDefault:"false"`
	RateLimitRPS      float64       `env:"HTTP_RATE_LIMIT_RPS" envDefault:"10"`
	RateLimitBurst    int           `env:"HTTP_RATE_LIMIT_BURST" envDefault:"20"`
	RateLimitClients  int           `env:"HTTP_RATE_LIMIT_CLIENTS" envDefault:"4096"`
	TrustProxyHeaders bool          `env:"TRUST_PROXY_HEADERS" envDefault:"false"`

	// Export columns
	ExportSourceLabel     string `env:"EXPORT_SOURCE_LABEL" envDefault:"Newsletter"`
	ExportPagePlaceholder string `env:"EXPORT_PAGE_PLACEHOLDER" envDefault:"-"`
}

func Load() (*Config, error) {
	_ = godotenv.Load() //nolint:errcheck // .env file is optional, error is expected when not present

	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parsing environment config: %w", err)
	}

	applySupabaseAliases(cfg)
	applyDashboardAliases(cfg)

	cfg.DataSource = strings.ToLower(strings.TrimSpace(cfg.DataSource))

	return cfg, nil
}

// Validate checks the settings the given mode depends on.
func (c *Config) Validate(mode Mode) error {
	switch c.DataSource {
	case DataSourcePostgres, DataSourceREST:
	default:
		return fmt.Errorf("%w: %q", coreerrors.ErrUnknownDataSource, c.DataSource)
	}

	if _, err := c.Location(); err != nil {
		return err
	}

	if mode == ModeMigrate || c.DataSource == DataSourcePostgres {
		if strings.TrimSpace(c.PostgresDSN) == "" {
			return fmt.Errorf("%w: POSTGRES_DSN", coreerrors.ErrMissingConfig)
		}
	}

	if mode != ModeMigrate && c.DataSource == DataSourceREST {
		if strings.TrimSpace(c.SupabaseURL) == "" || strings.TrimSpace(c.SupabaseKey) == "" {
			return fmt.Errorf("%w: SUPABASE_URL and SUPABASE_KEY", coreerrors.ErrMissingConfig)
		}
	}

	if mode == ModeServe {
		return c.validateServe()
	}

	return nil
}

func (c *Config) validateServe() error {
	if c.RefreshInterval <= 0 {
		return fmt.Errorf("%w: REFRESH_INTERVAL must be positive", coreerrors.ErrInvalidInput)
	}

	if c.DashboardPassword == "" {
		if c.AppEnv != appEnvLocal {
			return fmt.Errorf("%w: DASHBOARD_PASSWORD", coreerrors.ErrMissingConfig)
		}

		return nil
	}

	if len(c.SessionSecret) < minSessionSecretLen {
		return fmt.Errorf("%w: SESSION_SECRET needs at least %d characters", coreerrors.ErrMissingConfig, minSessionSecretLen)
	}

	return nil
}

// Location loads the configured time zone used for day and month buckets.
func (c *Config) Location() (*time.Location, error) {
	if strings.TrimSpace(c.Timezone) == "" {
		return time.Local, nil
	}

	loc, err := time.LoadLocation(c.Timezone)
	if err != nil {
		return nil, fmt.Errorf("%w: TIMEZONE %q: %w", coreerrors.ErrInvalidInput, c.Timezone, err)
	}

	return loc, nil
}

// AuthEnabled reports whether the dashboard asks for a password.
func (c *Config) AuthEnabled() bool {
	return c.DashboardPassword != ""
}

// Supabase projects hand out the key as "anon key" or "service role key"; accept the
// names people copy from the project settings page.
func applySupabaseAliases(cfg *Config) {
	if !hasEnv("SUPABASE_KEY") {
		setStringFromEnv("SUPABASE_ANON_KEY", &cfg.SupabaseKey)
	}

	if cfg.SupabaseKey == "" {
		setStringFromEnv("SUPABASE_SERVICE_ROLE_KEY", &cfg.SupabaseKey)
	}

	if !hasEnv("SUPABASE_PAGE_SIZE") {
		setIntFromEnv("SUPABASE_LIMIT", &cfg.SupabasePageSize)
	}
}

func applyDashboardAliases(cfg *Config) {
	if !hasEnv("DASHBOARD_PASSWORD") {
		setStringFromEnv("APP_PASSWORD", &cfg.DashboardPassword)
	}

	if !hasEnv("REFRESH_INTERVAL") {
		setDurationFromEnv("POLL_INTERVAL", &cfg.RefreshInterval)
	}
}

func hasEnv(key string) bool {
	_, ok := os.LookupEnv(key)
	return ok
}

func setStringFromEnv(key string, target *string) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	val = strings.TrimSpace(val)
	if val == "" {
		return
	}

	*target = val
}

func setIntFromEnv(key string, target *int) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := strconv.Atoi(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}

func setDurationFromEnv(key string, target *time.Duration) {
	val, ok := os.LookupEnv(key)
	if !ok {
		return
	}

	parsed, err := time.ParseDuration(strings.TrimSpace(val))
	if err != nil {
		return
	}

	*target = parsed
}
