// Package errors provides centralized error definitions for the application.
// Errors are organized by domain to avoid duplication and provide consistent naming.
//
// Naming conventions:
//   - Exported errors (Err*): Use for errors that callers need to check with errors.Is
//   - Unexported errors (err*): Use for internal package errors
//   - All sentinel errors should be defined as variables, not inline errors.New calls
//   - Use fmt.Errorf with %w to wrap sentinel errors with context
package errors

import "errors"

// Configuration errors.
var (
	// ErrMissingConfig indicates a required setting is absent for the selected mode.
	ErrMissingConfig = errors.New("missing configuration")

	// ErrUnknownDataSource indicates DATA_SOURCE names no known upstream.
	ErrUnknownDataSource = errors.New("unknown data source")
)

// Snapshot errors.
var (
	// ErrSnapshotNotReady indicates no snapshot has been loaded yet.
	ErrSnapshotNotReady = errors.New("snapshot not ready")

	// ErrStaleRefresh indicates a refresh finished after a newer one and was discarded.
	ErrStaleRefresh = errors.New("stale refresh discarded")

	// ErrFeedClosed indicates a change feed was closed and will deliver no more events.
	ErrFeedClosed = errors.New("change feed closed")
)

// Client and connection errors.
var (
	// ErrClientNotInitialized indicates a client has not been initialized.
	ErrClientNotInitialized = errors.New("client not initialized")

	// ErrUnexpectedStatus indicates an upstream HTTP call returned a non-success status.
	ErrUnexpectedStatus = errors.New("unexpected status")
)

// Validation errors.
var (
	// ErrInvalidInput indicates invalid input was provided.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidScope indicates an export scope could not be parsed.
	ErrInvalidScope = errors.New("invalid export scope")

	// ErrInvalidGroupMode indicates an unknown grouping mode.
	ErrInvalidGroupMode = errors.New("invalid group mode")

	// ErrInvalidFormat indicates an unsupported export format.
	ErrInvalidFormat = errors.New("invalid export format")
)

// Authentication errors.
var (
	// ErrSessionInvalid indicates a session token failed verification.
	ErrSessionInvalid = errors.New("invalid session")

	// ErrSessionExpired indicates a session token is past its expiry.
	ErrSessionExpired = errors.New("session expired")
)

// Is is a convenience wrapper around errors.Is.
func Is(err, target error) bool {
	return errors.Is(err, target)
}

// As is a convenience wrapper around errors.As.
func As(err error, target interface{}) bool {
	return errors.As(err, target)
}
