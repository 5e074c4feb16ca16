package pipeline

import (
	"context"
	"sync/atomic"
	"time"
)

type mockClient struct {
	OnGenerate func(ctx context.Context, prompt string) (string, error)
	calls      int32
}

func (m *mockClient) Generate(ctx context.Context, prompt string) (string, error) {
	atomic.AddInt32(&m.calls, 1)
	if m.OnGenerate != nil {
		return m.OnGenerate(ctx, prompt)
	}
	return "", nil
}

func (m *mockClient) ModelName() string { return "mock-model" }

func (m *mockClient) callCount() int {
	return int(atomic.LoadInt32(&m.calls))
}

// instantExecutor retries without real waiting.
func instantExecutor(maxRetries int) *Executor {
	return &Executor{
		MaxRetries: maxRetries,
		BaseDelay:  time.Second,
		Sleep: func(ctx context.Context, d time.Duration) error {
			return nil
		},
	}
}
