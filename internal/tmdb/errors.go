package tmdb

import (
	"context"
	"errors"
	"net"
	"strings"
	"time"
)

// ErrUnavailable wraps every transport, timeout, status, and decode failure
// so callers can treat the upstream as a single availability signal and
// fall back to local data.
var ErrUnavailable = errors.New("tmdb unavailable")

// statusError carries the HTTP status of a non-2xx response so retry
// decisions do not depend on message text.
type statusError struct {
	status int
	msg    string
}

func (e *statusError) Error() string { return e.msg }

// sleepWithContext blocks for the given duration, returning early if the
// context is cancelled.
func sleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// isRetriable reports whether err represents a transient condition that
// warrants an automatic retry (rate limits, timeouts, connection errors).
func isRetriable(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, context.Canceled) {
		return false
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return true
	}
	var netErr net.Error
	if errors.As(err, &netErr) && netErr.Timeout() {
		return true
	}
	var httpErr *statusError
	if errors.As(err, &httpErr) {
		// Rate limits and server errors are transient (outages, deploys,
		// overload); client errors like 404 are not.
		return httpErr.status == 429 || httpErr.status >= 500
	}
	message := strings.ToLower(err.Error())
	if strings.Contains(message, "rate limit") {
		return true
	}
	timeoutTokens := []string{
		"timeout",
		"deadline exceeded",
		"client.timeout exceeded",
		"connection reset",
		"connection refused",
		"temporary failure",
		"awaiting headers",
	}
	for _, token := range timeoutTokens {
		if strings.Contains(message, token) {
			return true
		}
	}
	return false
}
