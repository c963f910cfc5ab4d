package config

import "time"

// DatabaseConfig holds database connection settings.
type DatabaseConfig struct {
	PostgresDSN       string
	MaxConnections    int32
	MinConnections    int32
	MaxConnIdleTime   time.Duration
	MaxConnLifetime   time.Duration
	HealthCheckPeriod time.Duration
	TrendsTable       string
	NotifyChannel     string
	RealtimeEnabled   bool
	MigrateOnStart    bool
}

// SupabaseConfig holds PostgREST settings.
type SupabaseConfig struct {
	URL               string
	Key               string
	Table             string
	PageSize          int
	RequestsPerSecond float64
	Timeout           time.Duration
}

// DashboardConfig holds HTTP and session settings.
type DashboardConfig struct {
	Port           int
	Password       string
	SessionSecret  string
	SessionTTL     time.Duration
	CookieSecure   bool
	RateLimitRPS   float64
	RateLimitBurst int

	// RateLimitClients bounds the number of tracked client limiters.
	RateLimitClients int

	// TrustProxyHeaders takes the client address from X-Forwarded-For / X-Real-IP.
	// Enable only behind a proxy that overwrites them.
	TrustProxyHeaders bool
}

// RefreshConfig holds snapshot refresh settings.
type RefreshConfig struct {
	Interval      time.Duration
	Timeout       time.Duration
	ViewCacheSize int
}

// ExportConfig holds the fixed export columns.
type ExportConfig struct {
	SourceLabel     string
	PagePlaceholder string
}

func (c *Config) DatabaseCfg() DatabaseConfig {
	return DatabaseConfig{
		PostgresDSN:       c.PostgresDSN,
		MaxConnections:    c.DBMaxConnections,
		MinConnections:    c.DBMinConnections,
		MaxConnIdleTime:   c.DBMaxConnIdleTime,
		MaxConnLifetime:   c.DBMaxConnLifetime,
		HealthCheckPeriod: c.DBHealthCheck,
		TrendsTable:       c.TrendsTable,
		NotifyChannel:     c.NotifyChannel,
		RealtimeEnabled:   c.RealtimeEnabled,
		MigrateOnStart:    c.MigrateOnStart,
	}
}

func (c *Config) SupabaseCfg() SupabaseConfig {
	return SupabaseConfig{
		URL:               c.SupabaseURL,
		Key:               c.SupabaseKey,
		Table:             c.TrendsTable,
		PageSize:          c.SupabasePageSize,
		RequestsPerSecond: c.SupabaseRPS,
		Timeout:           c.SupabaseTimeout,
	}
}

func (c *Config) DashboardCfg() DashboardConfig {
	return DashboardConfig{
		Port:           c.HTTPPort,
		Password:       c.DashboardPassword,
		SessionSecret:  c.SessionSecret,
		SessionTTL:     c.SessionTTL,
		CookieSecure:   c.CookieSecure,
		RateLimitRPS:   c.RateLimitRPS,
		RateLimitBurst: c.RateLimitBurst,

		RateLimitClients:  c.RateLimitClients,
		TrustProxyHeaders: c.TrustProxyHeaders,
	}
}

func (c *Config) RefreshCfg() RefreshConfig {
	return RefreshConfig{
		Interval:      c.RefreshInterval,
		Timeout:       c.RefreshTimeout,
		ViewCacheSize: c.ViewCacheSize,
	}
}

func (c *Config) ExportCfg() ExportConfig {
	return ExportConfig{
		SourceLabel:     c.ExportSourceLabel,
		PagePlaceholder: c.ExportPagePlaceholder,
	}
}
