package pipeline

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/ymatsuda/cardforge/internal/llm"
)

// recordingSleep captures requested delays instead of waiting.
func recordingSleep(delays *[]time.Duration) SleepFunc {
	return func(ctx context.Context, d time.Duration) error {
		*delays = append(*delays, d)
		return nil
	}
}

func TestExecute_FirstTrySucceeds(t *testing.T) {
	var delays []time.Duration
	ex := &Executor{MaxRetries: 3, BaseDelay: time.Second, Sleep: recordingSleep(&delays)}

	calls := 0
	got, err := Execute(context.Background(), ex, func(ctx context.Context) (string, error) {
		calls++
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if got != "ok" || calls != 1 {
		t.Errorf("got %q after %d calls, want ok after 1", got, calls)
	}
	if len(delays) != 0 {
		t.Errorf("unexpected sleeps: %v", delays)
	}
}

func TestExecute_TransientBacksOffExponentially(t *testing.T) {
	var delays []time.Duration
	ex := &Executor{MaxRetries: 3, BaseDelay: time.Second, Sleep: recordingSleep(&delays)}

	calls := 0
	_, err := Execute(context.Background(), ex, func(ctx context.Context) (string, error) {
		calls++
		if calls < 3 {
			return "", errors.New("transient")
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	want := []time.Duration{time.Second, 2 * time.Second}
	if len(delays) != len(want) {
		t.Fatalf("delays = %v, want %v", delays, want)
	}
	for i := range want {
		if delays[i] != want[i] {
			t.Errorf("delay %d = %v, want %v", i, delays[i], want[i])
		}
	}
}

func TestExecute_TransientExhaustedReturnsLastError(t *testing.T) {
	var delays []time.Duration
	ex := &Executor{MaxRetries: 3, BaseDelay: time.Second, Sleep: recordingSleep(&delays)}

	lastErr := errors.New("still broken")
	calls := 0
	_, err := Execute(context.Background(), ex, func(ctx context.Context) (int, error) {
		calls++
		return 0, lastErr
	})
	if !errors.Is(err, lastErr) {
		t.Errorf("err = %v, want %v", err, lastErr)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
}

func TestExecute_RateLimitHonorsRetryHint(t *testing.T) {
	var delays []time.Duration
	ex := &Executor{MaxRetries: 3, BaseDelay: time.Second, Sleep: recordingSleep(&delays)}

	calls := 0
	_, err := Execute(context.Background(), ex, func(ctx context.Context) (string, error) {
		calls++
		if calls == 1 {
			return "", &llm.RateLimitError{RetryDelay: "12s", Err: errors.New("429")}
		}
		return "ok", nil
	})
	if err != nil {
		t.Fatalf("Execute failed: %v", err)
	}
	if len(delays) != 1 || delays[0] != 12*time.Second {
		t.Errorf("delays = %v, want [12s]", delays)
	}
}

func TestExecute_RateLimitExhaustedEscalatesToQuota(t *testing.T) {
	var delays []time.Duration
	ex := &Executor{MaxRetries: 3, BaseDelay: time.Second, Sleep: recordingSleep(&delays)}

	calls := 0
	_, err := Execute(context.Background(), ex, func(ctx context.Context) (string, error) {
		calls++
		return "", &llm.RateLimitError{RetryDelay: "1s", Err: errors.New("429")}
	})
	if !llm.IsQuotaExceeded(err) {
		t.Fatalf("err = %v, want QuotaExceededError", err)
	}
	if calls != 3 {
		t.Errorf("calls = %d, want 3", calls)
	}
	// the final attempt escalates instead of sleeping
	if len(delays) != 2 {
		t.Errorf("slept %d times, want 2", len(delays))
	}
}

func TestExecute_ContextCancelledDuringSleep(t *testing.T) {
	ex := &Executor{
		MaxRetries: 3,
		BaseDelay:  time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			return context.Canceled
		},
	}
	_, err := Execute(context.Background(), ex, func(ctx context.Context) (string, error) {
		return "", errors.New("transient")
	})
	if !errors.Is(err, context.Canceled) {
		t.Errorf("err = %v, want context.Canceled", err)
	}
}

func TestParseRetryDelay(t *testing.T) {
	cases := []struct {
		hint string
		want time.Duration
	}{
		{"12s", 12 * time.Second},
		{"1m", time.Minute},
		{"7", 7 * time.Second},
		{"soon", 5 * time.Second},
		{"", 5 * time.Second},
		{"1h", 5 * time.Second},
	}
	for _, tc := range cases {
		if got := ParseRetryDelay(tc.hint); got != tc.want {
			t.Errorf("ParseRetryDelay(%q) = %v, want %v", tc.hint, got, tc.want)
		}
	}
}
