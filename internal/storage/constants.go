package db

import "time"

// Database connection constants
const (
	// ConnectionRetrySleep is the sleep duration between connection retries
	ConnectionRetrySleep = 2 * time.Second
	// maxConnectionRetries is the number of retries for initial connection
	maxConnectionRetries = 10
)

// Database pool default constants. The dashboard only reads, so the pool stays small.
const (
	defaultMaxConns          int32         = 8
	defaultMinConns          int32         = 1
	defaultMaxConnIdleTime   time.Duration = 30 * time.Minute
	defaultMaxConnLifetime   time.Duration = time.Hour
	defaultHealthCheckPeriod time.Duration = time.Minute
)

// Defaults matching the schema installed by the bundled migrations.
const (
	DefaultTrendsTable   = "trends"
	DefaultNotifyChannel = "trends_changed"
)

const (
	// Error message formats.
	errFmtQueryTrends   = "query trends: %w"
	errFmtScanTrend     = "scan trend: %w"
	errFmtIterateTrends = "iterate trends: %w"
	errFmtListen        = "listen %s: %w"
	errFmtWaitNotify    = "wait for notification: %w"

	logFieldChannel = "channel"
	logFieldPayload = "payload"
)
