// Package ports provides domain-centric interfaces for external dependencies.
// These interfaces follow the ports and adapters (hexagonal) architecture pattern,
// allowing the dashboard to stay independent of where trend records come from.
package ports

import (
	"context"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

// TrendSource loads the full trend table, newest first.
type TrendSource interface {
	FetchTrends(ctx context.Context) ([]domain.Trend, error)
}

// ChangeFeed blocks until the upstream table changes. It returns the notification payload.
type ChangeFeed interface {
	WaitForChange(ctx context.Context) (string, error)
}

// Pinger reports upstream availability for readiness checks.
type Pinger interface {
	Ping(ctx context.Context) error
}
