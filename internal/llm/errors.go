package llm

import (
	"errors"
	"fmt"
)

// ErrInvalidKey reports that the provider rejected the configured API key.
var ErrInvalidKey = errors.New("invalid api key")

// RateLimitError is a provider 429. RetryDelay carries the provider's
// retry hint when present (a duration string such as "12s" or "1m").
type RateLimitError struct {
	RetryDelay string
	Err        error
}

func (e *RateLimitError) Error() string {
	if e.RetryDelay != "" {
		return fmt.Sprintf("rate limited (retry after %s): %v", e.RetryDelay, e.Err)
	}
	return fmt.Sprintf("rate limited: %v", e.Err)
}

func (e *RateLimitError) Unwrap() error { return e.Err }

// QuotaExceededError is raised once rate-limit retries are exhausted. It
// tells batch callers to stop submitting work instead of retrying.
type QuotaExceededError struct {
	Message string
}

func (e *QuotaExceededError) Error() string {
	return "quota exceeded: " + e.Message
}

// IsQuotaExceeded reports whether err (anywhere in its chain) signals
// provider quota exhaustion.
func IsQuotaExceeded(err error) bool {
	var qe *QuotaExceededError
	return errors.As(err, &qe)
}

// IsRateLimited reports whether err is a provider 429 and returns the
// retry-delay hint when one was supplied.
func IsRateLimited(err error) (string, bool) {
	var rl *RateLimitError
	if errors.As(err, &rl) {
		return rl.RetryDelay, true
	}
	return "", false
}
