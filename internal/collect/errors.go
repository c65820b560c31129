// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package collect

import (
	"errors"
	"fmt"
	"net/http"
)

// Collector error taxonomy. Strategy-level failures wrap one of these
// sentinels so callers can classify with errors.Is. Authentication is the
// only class that aborts a collector's whole search; the rest degrade to
// warnings on that strategy.
var (
	ErrAuthentication = errors.New("authentication failed")
	ErrRateLimited    = errors.New("rate limited")
	ErrTransient      = errors.New("transient network failure")
	ErrMalformed      = errors.New("malformed response")
)

// isAuthentication reports whether err is a fatal authentication failure.
func isAuthentication(err error) bool {
	return errors.Is(err, ErrAuthentication)
}

// statusError maps a non-200 HTTP status to the taxonomy. Rate-limit and
// server errors arrive here only after httputil.DoWithRetry has exhausted
// its backoff attempts.
func statusError(backend string, status int) error {
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		return fmt.Errorf("%s returned HTTP %d: %w", backend, status, ErrAuthentication)
	case status == http.StatusTooManyRequests:
		return fmt.Errorf("%s returned HTTP %d after retries: %w", backend, status, ErrRateLimited)
	case status >= 500:
		return fmt.Errorf("%s returned HTTP %d after retries: %w", backend, status, ErrTransient)
	default:
		return fmt.Errorf("%s returned HTTP %d: %w", backend, status, ErrMalformed)
	}
}
