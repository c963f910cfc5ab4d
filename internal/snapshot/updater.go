package snapshot

import (
	"context"
	"errors"
	"time"

	"github.com/rs/zerolog"

	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/core/ports"
	"github.com/lueurxax/trend-dashboard/internal/platform/worker"
)

const (
	defaultRefreshTimeout = 45 * time.Second
	listenMinBackoff      = time.Second
	listenMaxBackoff      = time.Minute

	workerPoller   = "snapshot-poller"
	workerListener = "snapshot-listener"
)

// Updater drives refreshes of a Store from one upstream source.
type Updater struct {
	store   *Store
	source  ports.TrendSource
	timeout time.Duration
	logger  *zerolog.Logger
}

// NewUpdater creates an updater. A non-positive timeout means 45s per refresh.
func NewUpdater(store *Store, source ports.TrendSource, timeout time.Duration, logger *zerolog.Logger) *Updater {
	if timeout <= 0 {
		timeout = defaultRefreshTimeout
	}

	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	return &Updater{store: store, source: source, timeout: timeout, logger: logger}
}

// Refresh runs one bounded refresh.
func (u *Updater) Refresh(ctx context.Context, trigger string) error {
	return worker.RunWithTimeout(ctx, u.timeout, func(ctx context.Context) error {
		return u.store.Refresh(ctx, u.source, trigger)
	})
}

// RunPoller refreshes every interval until ctx is canceled. Failures are logged and the
// previous snapshot stays in place.
func (u *Updater) RunPoller(ctx context.Context, interval time.Duration) error {
	return worker.SingleTickerLoop(ctx, worker.SingleTickerConfig{
		Name:     workerPoller,
		Interval: interval,
		OnTick: func(ctx context.Context) {
			u.refreshLogged(ctx, TriggerPoll)
		},
		Logger: u.logger,
	})
}

// RunListener refreshes on every change notification from feed. A broken feed is retried
// with backoff; the loop ends when ctx is canceled or the feed is closed.
func (u *Updater) RunListener(ctx context.Context, feed ports.ChangeFeed) error {
	return worker.RetryLoop(ctx, worker.RetryConfig{
		Name:       workerListener,
		MinBackoff: listenMinBackoff,
		MaxBackoff: listenMaxBackoff,
		Run: func(ctx context.Context) error {
			payload, err := feed.WaitForChange(ctx)
			if err != nil {
				return err
			}

			u.logger.Debug().Str("payload", payload).Msg("trends changed upstream")
			u.refreshLogged(ctx, TriggerNotify)

			return nil
		},
		IsPermanent: func(err error) bool {
			return errors.Is(err, coreerrors.ErrFeedClosed)
		},
		Logger: u.logger,
	})
}

func (u *Updater) refreshLogged(ctx context.Context, trigger string) {
	defer worker.RecoverPanic(u.logger, "refresh "+trigger)

	err := u.Refresh(ctx, trigger)

	switch {
	case err == nil, errors.Is(err, coreerrors.ErrStaleRefresh):
	case worker.IsCanceled(err) && ctx.Err() != nil:
	default:
		u.logger.Error().Err(err).Str(logFieldTrigger, trigger).Msg("snapshot refresh failed")
	}
}
