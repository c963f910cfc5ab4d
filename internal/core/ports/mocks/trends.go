package mocks

import (
	"context"
	"sync"

	"github.com/lueurxax/trend-dashboard/internal/core/domain"
)

// TrendSource is a thread-safe in-memory implementation of ports.TrendSource.
type TrendSource struct {
	mu      sync.RWMutex
	records []domain.Trend
	err     error
	calls   int

	// FetchFn overrides FetchTrends when set.
	FetchFn func(ctx context.Context) ([]domain.Trend, error)
}

// NewTrendSource creates a source serving records.
func NewTrendSource(records ...domain.Trend) *TrendSource {
	return &TrendSource{records: records}
}

// FetchTrends returns a copy of the stored records or the configured error.
func (s *TrendSource) FetchTrends(ctx context.Context) ([]domain.Trend, error) {
	s.mu.Lock()
	s.calls++
	fn := s.FetchFn
	s.mu.Unlock()

	if fn != nil {
		return fn(ctx)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, s.err
	}

	out := make([]domain.Trend, len(s.records))
	copy(out, s.records)

	return out, nil
}

// Ping fails with the configured error.
func (s *TrendSource) Ping(_ context.Context) error {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.err
}

// Set replaces the stored records.
func (s *TrendSource) Set(records ...domain.Trend) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.records = records
}

// SetError makes every following fetch fail with err. Pass nil to recover.
func (s *TrendSource) SetError(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.err = err
}

// Calls returns how many times FetchTrends was called.
func (s *TrendSource) Calls() int {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.calls
}

// ChangeFeed delivers payloads pushed with Notify.
type ChangeFeed struct {
	ch        chan string
	closeOnce sync.Once
	done      chan struct{}
}

// NewChangeFeed creates a feed with a small buffer.
func NewChangeFeed() *ChangeFeed {
	return &ChangeFeed{ch: make(chan string, 8), done: make(chan struct{})}
}

// Notify queues a change notification.
func (f *ChangeFeed) Notify(payload string) {
	f.ch <- payload
}

// Close makes WaitForChange return ErrFeedClosed.
func (f *ChangeFeed) Close() {
	f.closeOnce.Do(func() { close(f.done) })
}

// WaitForChange blocks until a notification, Close, or ctx cancellation.
func (f *ChangeFeed) WaitForChange(ctx context.Context) (string, error) {
	select {
	case <-ctx.Done():
		return "", ctx.Err()
	case <-f.done:
		return "", ErrFeedClosed
	case payload := <-f.ch:
		return payload, nil
	}
}
