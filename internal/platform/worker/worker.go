// Package worker provides the background loop helpers used by the snapshot refreshers:
// a ticker loop, a retry loop with exponential backoff and small context helpers.
package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/rs/zerolog"
)

const (
	defaultMinBackoff = time.Second
	defaultMaxBackoff = time.Minute
	backoffFactor     = 2
)

// ProcessFunc is one unit of work.
type ProcessFunc func(ctx context.Context) error

// RetryConfig configures RetryLoop.
type RetryConfig struct {
	// Name identifies the worker for logging.
	Name string

	// Run is called repeatedly. Each call usually blocks until an event arrives.
	Run ProcessFunc

	// MinBackoff is the first delay after a failure. MaxBackoff caps the growth.
	MinBackoff time.Duration
	MaxBackoff time.Duration

	// IsPermanent reports errors that end the loop instead of being retried.
	IsPermanent func(err error) bool

	// Logger for the worker.
	Logger *zerolog.Logger
}

// RetryLoop calls Run until ctx is canceled or Run fails permanently. After a failure it
// waits, doubling the delay up to MaxBackoff; a successful call resets the delay.
// Returns a wrapped context error on cancellation or the permanent error.
func RetryLoop(ctx context.Context, cfg RetryConfig) error {
	logger := getLogger(cfg.Logger)
	logger.Info().Str(logFieldWorker, cfg.Name).Msg("starting retry loop")

	defer func() {
		logger.Info().Str(logFieldWorker, cfg.Name).Msg("retry loop stopped")
	}()

	minBackoff, maxBackoff := cfg.MinBackoff, cfg.MaxBackoff
	if minBackoff <= 0 {
		minBackoff = defaultMinBackoff
	}

	if maxBackoff < minBackoff {
		maxBackoff = max(minBackoff, defaultMaxBackoff)
	}

	backoff := minBackoff

	for {
		if err := checkCanceled(ctx, cfg.Name); err != nil {
			return err
		}

		err := cfg.Run(ctx)
		if err == nil {
			backoff = minBackoff
			continue
		}

		if ctx.Err() != nil {
			return fmt.Errorf("retry loop %s: %w", cfg.Name, ctx.Err())
		}

		if cfg.IsPermanent != nil && cfg.IsPermanent(err) {
			return fmt.Errorf("retry loop %s: %w", cfg.Name, err)
		}

		logger.Warn().Err(err).Str(logFieldWorker, cfg.Name).Dur("backoff", backoff).Msg("run failed, retrying")

		if err := Wait(ctx, backoff); err != nil {
			return err
		}

		backoff = min(backoff*backoffFactor, maxBackoff)
	}
}

func checkCanceled(ctx context.Context, name string) error {
	select {
	case <-ctx.Done():
		return fmt.Errorf("worker loop %s: %w", name, ctx.Err())
	default:
		return nil
	}
}

// Wait blocks until duration elapses or context is canceled.
// Returns a wrapped context error if context is canceled.
func Wait(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}

	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return fmt.Errorf("wait interrupted: %w", ctx.Err())
	case <-timer.C:
		return nil
	}
}

// RunWithTimeout runs fn with a timeout derived from the parent context.
// A non-positive timeout runs fn with ctx unchanged.
func RunWithTimeout(ctx context.Context, timeout time.Duration, fn func(ctx context.Context) error) error {
	if timeout <= 0 {
		return fn(ctx)
	}

	timeoutCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	return fn(timeoutCtx)
}

// RecoverPanic recovers from panics and logs them.
// Use as: defer worker.RecoverPanic(logger, "operation name")
func RecoverPanic(logger *zerolog.Logger, operation string) {
	if r := recover(); r != nil {
		logger.Error().
			Interface("panic", r).
			Str("operation", operation).
			Msg("recovered from panic")
	}
}

// IsCanceled reports whether err stems from context cancellation or deadline.
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
