package directory

import (
	"errors"
	"fmt"
	"time"
)

// ErrNotFound is returned by the HTTP layer when the provider answers 404.
// Directory methods translate it into a nil result.
var ErrNotFound = errors.New("not found in directory")

// RateLimitedError reports upstream throttling that persisted through every retry.
type RateLimitedError struct {
	Path       string
	Attempts   int
	RetryAfter time.Duration
}

func (e *RateLimitedError) Error() string {
	return fmt.Sprintf("directory rate limited on %s after %d attempts (retry after %s)", e.Path, e.Attempts, e.RetryAfter)
}

// TransientError reports a network failure or 5xx response that persisted through every retry.
type TransientError struct {
	Path       string
	StatusCode int
	Attempts   int
	Cause      error
}

func (e *TransientError) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("directory request %s failed with status %d after %d attempts", e.Path, e.StatusCode, e.Attempts)
	}
	return fmt.Sprintf("directory request %s failed after %d attempts: %v", e.Path, e.Attempts, e.Cause)
}

func (e *TransientError) Unwrap() error {
	return e.Cause
}

// RequestError reports a non-retryable rejection such as 400 or 401.
type RequestError struct {
	Path       string
	StatusCode int
	Body       string
}

func (e *RequestError) Error() string {
	return fmt.Sprintf("directory rejected %s (status %d): %s", e.Path, e.StatusCode, e.Body)
}

// IsRetryable reports whether err is a rate-limit or transient failure.
func IsRetryable(err error) bool {
	var rl *RateLimitedError
	var te *TransientError
	return errors.As(err, &rl) || errors.As(err, &te)
}
