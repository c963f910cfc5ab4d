package snapshot

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/core/ports/mocks"
)

func TestUpdater_RefreshTimeout(t *testing.T) {
	store := newTestStore(t)
	source := mocks.NewTrendSource()
	source.FetchFn = func(ctx context.Context) ([]domain.Trend, error) {
		<-ctx.Done()
		return nil, ctx.Err()
	}

	updater := NewUpdater(store, source, 5*time.Millisecond, nil)

	err := updater.Refresh(context.Background(), TriggerManual)
	require.ErrorIs(t, err, context.DeadlineExceeded)
	assert.Contains(t, store.Status().LastError, "deadline")
}

func TestUpdater_Poller(t *testing.T) {
	store := newTestStore(t)
	source := mocks.NewTrendSource(trend("a", 5))
	updater := NewUpdater(store, source, time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- updater.RunPoller(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return source.Calls() >= 2 }, time.Second, time.Millisecond)
	cancel()

	require.ErrorIs(t, <-done, context.Canceled)
	assert.True(t, store.Status().Ready)
}

func TestUpdater_PollerKeepsSnapshotOnFailure(t *testing.T) {
	store := newTestStore(t)
	source := mocks.NewTrendSource(trend("a", 5))
	updater := NewUpdater(store, source, time.Second, nil)

	require.NoError(t, updater.Refresh(context.Background(), TriggerStartup))
	source.SetError(mocks.ErrSourceUnavailable)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)

	go func() { done <- updater.RunPoller(ctx, time.Millisecond) }()

	require.Eventually(t, func() bool { return store.Status().LastError != "" }, time.Second, time.Millisecond)
	cancel()
	<-done

	snap, err := store.Current()
	require.NoError(t, err)
	assert.Equal(t, uint64(1), snap.Version)
	assert.Len(t, snap.Records, 1)
}

func TestUpdater_Listener(t *testing.T) {
	store := newTestStore(t)
	source := mocks.NewTrendSource(trend("a", 5))
	feed := mocks.NewChangeFeed()
	updater := NewUpdater(store, source, time.Second, nil)

	done := make(chan error, 1)

	go func() { done <- updater.RunListener(context.Background(), feed) }()

	feed.Notify("trends:INSERT")
	require.Eventually(t, func() bool { return store.Status().Version == 1 }, time.Second, time.Millisecond)

	source.Set(trend("a", 5), trend("b", 6))
	feed.Notify("trends:UPDATE")
	require.Eventually(t, func() bool { return store.Status().Records == 2 }, time.Second, time.Millisecond)

	feed.Close()

	err := <-done
	require.ErrorIs(t, err, coreerrors.ErrFeedClosed)
	assert.Equal(t, 2, source.Calls())
}

func TestUpdater_ListenerCanceled(t *testing.T) {
	store := newTestStore(t)
	updater := NewUpdater(store, mocks.NewTrendSource(), time.Second, nil)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := updater.RunListener(ctx, mocks.NewChangeFeed())
	require.True(t, errors.Is(err, context.Canceled))
}
