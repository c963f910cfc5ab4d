package db

import (
	"context"
	"fmt"
	"sync"

	"github.com/jackc/pgx/v5"
	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/platform/observability"
)

// Listener turns NOTIFY messages on one channel into change events. It owns a dedicated
// connection taken out of the pool; the connection is re-established after a failure.
type Listener struct {
	db      *DB
	channel string
	logger  *zerolog.Logger

	mu     sync.Mutex
	conn   *pgx.Conn
	closed bool
}

// NewListener creates a listener for channel. A blank channel means DefaultNotifyChannel.
func (db *DB) NewListener(channel string) *Listener {
	if channel == "" {
		channel = DefaultNotifyChannel
	}

	logger := db.Logger.With().Str(logFieldChannel, channel).Logger()

	return &Listener{db: db, channel: channel, logger: &logger}
}

// WaitForChange blocks until a notification arrives and returns its payload. After Close it
// returns ErrFeedClosed.
func (l *Listener) WaitForChange(ctx context.Context) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.closed {
		return "", coreerrors.ErrFeedClosed
	}

	if err := l.ensureConn(ctx); err != nil {
		return "", err
	}

	n, err := l.conn.WaitForNotification(ctx)
	if err != nil {
		l.dropConn()

		return "", fmt.Errorf(errFmtWaitNotify, err)
	}

	observability.NotificationsReceived.WithLabelValues(l.channel).Inc()
	l.logger.Debug().Str(logFieldPayload, n.Payload).Msg("received notification")

	return n.Payload, nil
}

// Close releases the dedicated connection. It waits for a pending WaitForChange, so cancel
// its context first.
func (l *Listener) Close() {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.closed = true
	l.dropConn()
}

func (l *Listener) ensureConn(ctx context.Context) error {
	if l.conn != nil {
		return nil
	}

	pooled, err := l.db.Pool.Acquire(ctx)
	if err != nil {
		return fmt.Errorf("acquire listen connection: %w", err)
	}

	conn := pooled.Hijack()

	if _, err := conn.Exec(ctx, "LISTEN "+pgx.Identifier{l.channel}.Sanitize()); err != nil {
		_ = conn.Close(context.Background())

		return fmt.Errorf(errFmtListen, l.channel, err)
	}

	l.logger.Info().Msg("listening for trend changes")
	l.conn = conn

	return nil
}

func (l *Listener) dropConn() {
	if l.conn == nil {
		return
	}

	//nolint:contextcheck // the wait context may already be canceled
	_ = l.conn.Close(context.Background())
	l.conn = nil
}
