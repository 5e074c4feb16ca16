package pipeline

import (
	"context"
	"regexp"
	"strconv"
	"time"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// SleepFunc suspends for d or until ctx is done. Injected so tests can
// run the executor without real waiting.
type SleepFunc func(ctx context.Context, d time.Duration) error

// ContextSleep is the default SleepFunc.
func ContextSleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}

// Executor wraps single LLM calls with retry. Rate-limit errors honor the
// provider's retry-delay hint; everything else gets exponential backoff.
// Once rate-limit retries are exhausted the error escalates to a
// QuotaExceededError so batch callers stop submitting work.
type Executor struct {
	MaxRetries int
	BaseDelay  time.Duration
	Sleep      SleepFunc
	Logger     *logger.Logger
}

func NewExecutor() *Executor {
	return &Executor{
		MaxRetries: config.MaxRetries,
		BaseDelay:  config.RetryBaseDelay,
		Sleep:      ContextSleep,
		Logger:     logger.New("retry"),
	}
}

// Execute runs call with the executor's retry policy.
func Execute[T any](ctx context.Context, ex *Executor, call func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	sleep := ex.Sleep
	if sleep == nil {
		sleep = ContextSleep
	}

	var lastErr error
	for attempt := 1; attempt <= ex.MaxRetries; attempt++ {
		result, err := call(ctx)
		if err == nil {
			return result, nil
		}
		lastErr = err

		if delay, rateLimited := llm.IsRateLimited(err); rateLimited {
			if attempt < ex.MaxRetries {
				wait := ParseRetryDelay(delay)
				if ex.Logger != nil {
					ex.Logger.Warn("rate limited, honoring retry delay",
						"attempt", attempt, "delay", wait)
				}
				if err := sleep(ctx, wait); err != nil {
					return zero, err
				}
				continue
			}
			if ex.Logger != nil {
				ex.Logger.Error("rate-limit retries exhausted", "attempts", attempt)
			}
			return zero, &llm.QuotaExceededError{Message: err.Error()}
		}

		if attempt < ex.MaxRetries {
			wait := ex.BaseDelay * (1 << (attempt - 1))
			if ex.Logger != nil {
				ex.Logger.Warn("transient failure, backing off",
					"attempt", attempt, "delay", wait, "error", err)
			}
			if err := sleep(ctx, wait); err != nil {
				return zero, err
			}
		}
	}
	return zero, lastErr
}

var retryDelayPattern = regexp.MustCompile(`^(\d+)([sm]?)$`)

// ParseRetryDelay converts a provider retry hint ("12s", "1m") into a
// duration. Unrecognized strings fall back to the configured default.
func ParseRetryDelay(hint string) time.Duration {
	m := retryDelayPattern.FindStringSubmatch(hint)
	if m == nil {
		return config.DefaultRetryDelay
	}
	value, err := strconv.Atoi(m[1])
	if err != nil {
		return config.DefaultRetryDelay
	}
	switch m[2] {
	case "m":
		return time.Duration(value) * time.Minute
	default: // "s" or bare number
		return time.Duration(value) * time.Second
	}
}
