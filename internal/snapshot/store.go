// Package snapshot keeps the current trend snapshot in memory and derives dashboard views
// from it.
//
// Refreshes may overlap (poll ticker, change notifications, manual refresh). Each refresh
// takes a ticket when it starts; its result is committed only if no refresh with a newer
// ticket has been committed in the meantime, so a slow response can never overwrite
// fresher data.
package snapshot

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/rs/zerolog"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
	"github.com/lueurxax/trend-dashboard/internal/core/ports"
	"github.com/lueurxax/trend-dashboard/internal/trends"
)

const (
	defaultViewCacheSize = 128

	logFieldTicket  = "ticket"
	logFieldVersion = "version"
	logFieldRecords = "records"
	logFieldTrigger = "trigger"

	errFmtFetch = "fetch trends: %w"
)

// Refresh triggers, used as metric and log labels.
const (
	TriggerStartup = "startup"
	TriggerPoll    = "poll"
	TriggerNotify  = "notify"
	TriggerManual  = "manual"
)

// Options configures a Store.
type Options struct {
	// Location is the calendar used for day and month buckets. Nil means time.Local.
	Location *time.Location

	// ViewCacheSize bounds the number of memoized views.
	ViewCacheSize int

	Logger *zerolog.Logger

	// Now is the clock, overridable in tests.
	Now func() time.Time
}

// Snapshot is an immutable committed state.
type Snapshot struct {
	Version  uint64
	Records  []domain.Trend
	LoadedAt time.Time
}

// Status summarizes the store for the dashboard header and readiness checks.
type Status struct {
	Ready       bool      `json:"ready"`
	Version     uint64    `json:"version"`
	Records     int       `json:"records"`
	LoadedAt    time.Time `json:"loaded_at"`
	LastError   string    `json:"last_error,omitempty"`
	LastErrorAt time.Time `json:"last_error_at"`
}

type viewKey struct {
	version uint64
	params  trends.ViewParams
}

// Store holds the committed snapshot.
type Store struct {
	loc    *time.Location
	logger *zerolog.Logger
	now    func() time.Time
	views  *lru.Cache[viewKey, trends.View]

	tickets atomic.Uint64

	mu          sync.RWMutex
	current     *Snapshot
	committed   uint64
	lastErr     error
	lastErrAt   time.Time
	lastErrTick uint64
}

// New creates an empty store.
func New(opts Options) (*Store, error) {
	size := opts.ViewCacheSize
	if size <= 0 {
		size = defaultViewCacheSize
	}

	views, err := lru.New[viewKey, trends.View](size)
	if err != nil {
		return nil, fmt.Errorf("create view cache: %w", err)
	}

	logger := opts.Logger
	if logger == nil {
		nop := zerolog.Nop()
		logger = &nop
	}

	now := opts.Now
	if now == nil {
		now = time.Now
	}

	loc := opts.Location
	if loc == nil {
		loc = time.Local
	}

	return &Store{loc: loc, logger: logger, now: now, views: views}, nil
}

// Location returns the calendar used for day and month keys.
func (s *Store) Location() *time.Location {
	return s.loc
}

// Begin hands out the ticket for a new refresh.
func (s *Store) Begin() uint64 {
	return s.tickets.Add(1)
}

// Commit installs records fetched under ticket. It returns ErrStaleRefresh when a refresh
// with a newer ticket was already committed; the store is left unchanged then.
func (s *Store) Commit(ticket uint64, records []domain.Trend) (Snapshot, error) {
	normalized := trends.SortByRecency(trends.Normalize(records, s.loc))

	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket <= s.committed {
		return Snapshot{}, fmt.Errorf("%w: ticket %d, committed %d", coreerrors.ErrStaleRefresh, ticket, s.committed)
	}

	version := uint64(1)
	if s.current != nil {
		version = s.current.Version + 1
	}

	snap := &Snapshot{Version: version, Records: normalized, LoadedAt: s.now()}
	s.current = snap
	s.committed = ticket

	if s.lastErrTick <= ticket {
		s.lastErr = nil
		s.lastErrAt = time.Time{}
	}

	snapshotRecords.Set(float64(len(normalized)))
	snapshotVersion.Set(float64(version))

	return *snap, nil
}

// Fail records a failed refresh. The committed snapshot stays in place. Failures older
// than the committed data are ignored.
func (s *Store) Fail(ticket uint64, err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if ticket <= s.committed {
		return
	}

	s.lastErr = err
	s.lastErrAt = s.now()
	s.lastErrTick = ticket
}

// Refresh fetches from source and commits the result. A stale result is discarded and
// reported as ErrStaleRefresh.
func (s *Store) Refresh(ctx context.Context, source ports.TrendSource, trigger string) error {
	ticket := s.Begin()
	start := time.Now()

	records, err := source.FetchTrends(ctx)

	refreshDuration.Observe(time.Since(start).Seconds())

	if err != nil {
		s.Fail(ticket, err)
		refreshTotal.WithLabelValues(trigger, resultError).Inc()

		return fmt.Errorf(errFmtFetch, err)
	}

	snap, err := s.Commit(ticket, records)
	if err != nil {
		refreshTotal.WithLabelValues(trigger, resultStale).Inc()
		s.logger.Debug().Uint64(logFieldTicket, ticket).Str(logFieldTrigger, trigger).Msg("discarded stale refresh")

		return err
	}

	refreshTotal.WithLabelValues(trigger, resultOK).Inc()
	s.logger.Info().
		Uint64(logFieldVersion, snap.Version).
		Int(logFieldRecords, len(snap.Records)).
		Str(logFieldTrigger, trigger).
		Msg("snapshot refreshed")

	return nil
}

// Current returns the committed snapshot, or ErrSnapshotNotReady before the first commit.
func (s *Store) Current() (Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.current == nil {
		if s.lastErr != nil {
			return Snapshot{}, fmt.Errorf("%w: %w", coreerrors.ErrSnapshotNotReady, s.lastErr)
		}

		return Snapshot{}, coreerrors.ErrSnapshotNotReady
	}

	return *s.current, nil
}

// Status reports the committed version and the last refresh error.
func (s *Store) Status() Status {
	s.mu.RLock()
	defer s.mu.RUnlock()

	st := Status{LastErrorAt: s.lastErrAt}
	if s.lastErr != nil {
		st.LastError = s.lastErr.Error()
	}

	if s.current != nil {
		st.Ready = true
		st.Version = s.current.Version
		st.Records = len(s.current.Records)
		st.LoadedAt = s.current.LoadedAt
	}

	return st
}

// View derives the dashboard view for params from the committed snapshot. Views are
// memoized per snapshot version and shared between callers, so they must not be modified.
func (s *Store) View(params trends.ViewParams) (trends.View, error) {
	snap, err := s.Current()
	if err != nil {
		return trends.View{}, err
	}

	key := viewKey{version: snap.Version, params: params}
	if view, ok := s.views.Get(key); ok {
		viewCacheTotal.WithLabelValues(outcomeHit).Inc()
		return view, nil
	}

	viewCacheTotal.WithLabelValues(outcomeMiss).Inc()

	view := trends.BuildView(snap.Records, params, s.loc)
	s.views.Add(key, view)

	return view, nil
}

// ExportRecords selects the committed records inside scope.
func (s *Store) ExportRecords(scope trends.ExportScope) ([]domain.Trend, error) {
	snap, err := s.Current()
	if err != nil {
		return nil, err
	}

	return trends.SelectForExport(snap.Records, scope, s.loc), nil
}
