package ocr

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"

	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/internal/pipeline"
	"github.com/ymatsuda/cardforge/internal/quota"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

type mockFileClient struct {
	OnUpload            func(ctx context.Context, data []byte, mimeType string) (llm.FileRef, error)
	OnGenerateWithFiles func(ctx context.Context, prompt string, files []llm.FileRef) (string, error)

	uploadCalls   int32
	generateCalls int32
}

func (m *mockFileClient) ModelName() string { return "mock-model" }

func (m *mockFileClient) Generate(ctx context.Context, prompt string) (string, error) {
	return "", fmt.Errorf("text generation not expected in ocr tests")
}

func (m *mockFileClient) UploadFile(ctx context.Context, data []byte, mimeType string) (llm.FileRef, error) {
	n := atomic.AddInt32(&m.uploadCalls, 1)
	if m.OnUpload != nil {
		return m.OnUpload(ctx, data, mimeType)
	}
	return llm.FileRef{URI: fmt.Sprintf("files/%d", n), MimeType: mimeType}, nil
}

func (m *mockFileClient) GenerateWithFiles(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
	atomic.AddInt32(&m.generateCalls, 1)
	if m.OnGenerateWithFiles != nil {
		return m.OnGenerateWithFiles(ctx, prompt, files)
	}
	return "```json\n[]\n```", nil
}

type stubGate struct {
	decision quota.Decision
}

func (g stubGate) Validate(ctx context.Context, itemCount int) quota.Decision {
	return g.decision
}

func allowGate() stubGate {
	return stubGate{decision: quota.Decision{CanProcess: true}}
}

type countingUsage struct {
	consumed int32
}

func (u *countingUsage) Consume(ctx context.Context, n int) {
	atomic.AddInt32(&u.consumed, int32(n))
}

type stubFetcher struct {
	OnFetch func(ctx context.Context, url string) ([]byte, string, error)
}

func (f stubFetcher) Fetch(ctx context.Context, url string) ([]byte, string, error) {
	if f.OnFetch != nil {
		return f.OnFetch(ctx, url)
	}
	return []byte("image-bytes"), "image/png", nil
}

func instantSleep(ctx context.Context, d time.Duration) error { return nil }

func newTestOrchestrator(client *mockFileClient, gate quota.Gate) *Orchestrator {
	return &Orchestrator{
		Client: client,
		Exec: &pipeline.Executor{
			MaxRetries: 1,
			BaseDelay:  time.Millisecond,
			Sleep:      instantSleep,
		},
		Gate:    gate,
		Usage:   &countingUsage{},
		Fetcher: stubFetcher{},
		Sleep:   instantSleep,
		Logger:  logger.New("test"),
	}
}
