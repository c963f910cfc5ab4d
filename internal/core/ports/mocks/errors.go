package mocks

import (
	"errors"

	coreerrors "github.com/lueurxax/trend-dashboard/internal/core/errors"
)

var (
	// ErrFeedClosed is returned by ChangeFeed once Close was called.
	ErrFeedClosed = coreerrors.ErrFeedClosed

	// ErrSourceUnavailable is a ready-made fetch failure for tests.
	ErrSourceUnavailable = errors.New("trend source unavailable")
)
