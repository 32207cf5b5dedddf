package llm

import (
	"context"
	"errors"
	"fmt"
	"net/http"
)

// StatusError is returned by providers when the upstream service answers
// with a non-2xx status. The code decides whether the call may be retried.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("llm service error: status %d: %s", e.Code, e.Body)
}

// IsTransient reports whether err is worth retrying: rate limits, upstream
// unavailability, and request timeouts. Auth failures and malformed
// requests are permanent.
func IsTransient(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var statusErr *StatusError
	if errors.As(err, &statusErr) {
		switch statusErr.Code {
		case http.StatusTooManyRequests,
			http.StatusInternalServerError,
			http.StatusBadGateway,
			http.StatusServiceUnavailable,
			http.StatusGatewayTimeout:
			return true
		}
		return false
	}
	// Network-level failures (connection refused, reset) surface as generic
	// url.Error values; treat them as transient.
	return true
}
