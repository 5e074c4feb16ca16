package ocr

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"testing"

	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/internal/quota"
)

func images(n int) []PageImage {
	out := make([]PageImage, n)
	for i := range out {
		out[i] = PageImage{PageNumber: i + 1, ImageURL: fmt.Sprintf("https://img.test/%d.png", i+1)}
	}
	return out
}

func batchResponseFor(files []llm.FileRef, pages []int) string {
	var entries []string
	for _, p := range pages {
		entries = append(entries, fmt.Sprintf(`{"pageNumber": %d, "extractedText": "text of page %d"}`, p, p))
	}
	return "```json\n[" + strings.Join(entries, ",") + "]\n```"
}

func TestRun_Validation(t *testing.T) {
	o := newTestOrchestrator(&mockFileClient{}, allowGate())

	cases := []struct {
		name      string
		images    []PageImage
		batchSize int
		wantIn    string
	}{
		{"no images", nil, 4, "no images"},
		{"too many pages", images(101), 4, "maximum is 100"},
		{"batch size too large", images(2), 11, "between 1 and 10"},
		{"batch size negative", images(2), -1, "between 1 and 10"},
		{"missing url", []PageImage{{PageNumber: 1}}, 4, "imageUrl"},
		{"bad page number", []PageImage{{PageNumber: 0, ImageURL: "https://x/1.png"}}, 4, "pageNumber"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := o.Run(context.Background(), tc.images, tc.batchSize)
			var ve *ValidationError
			if !errors.As(err, &ve) {
				t.Fatalf("err = %v, want ValidationError", err)
			}
			if !strings.Contains(ve.Message, tc.wantIn) {
				t.Errorf("message %q does not mention %q", ve.Message, tc.wantIn)
			}
		})
	}
}

func TestRun_DefaultBatchSize(t *testing.T) {
	client := &mockFileClient{
		OnGenerateWithFiles: func(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
			if len(files) != 4 {
				t.Errorf("batch carried %d files, want default 4", len(files))
			}
			return batchResponseFor(files, []int{1, 2, 3, 4}), nil
		},
	}
	o := newTestOrchestrator(client, allowGate())

	result, err := o.Run(context.Background(), images(4), 0)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ProcessedCount != 4 {
		t.Errorf("processed = %d, want 4", result.ProcessedCount)
	}
}

func TestRun_QuotaGateDenies(t *testing.T) {
	deny := stubGate{decision: quota.Decision{
		CanProcess: false,
		Message:    "daily quota insufficient",
		Suggestion: "retry tomorrow",
	}}
	o := newTestOrchestrator(&mockFileClient{}, deny)

	_, err := o.Run(context.Background(), images(2), 2)
	var qd *QuotaDeniedError
	if !errors.As(err, &qd) {
		t.Fatalf("err = %v, want QuotaDeniedError", err)
	}
	if qd.Decision.Suggestion != "retry tomorrow" {
		t.Errorf("suggestion lost: %+v", qd.Decision)
	}
}

func TestRun_PartialSuccess(t *testing.T) {
	calls := 0
	client := &mockFileClient{
		OnGenerateWithFiles: func(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
			calls++
			if calls == 1 {
				return batchResponseFor(files, []int{1, 2}), nil
			}
			return "", errors.New("provider hiccup")
		},
	}
	o := newTestOrchestrator(client, allowGate())

	result, err := o.Run(context.Background(), images(3), 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ProcessedCount != 2 {
		t.Errorf("processed = %d, want 2", result.ProcessedCount)
	}
	if result.SkippedCount != 1 {
		t.Errorf("skipped = %d, want 1", result.SkippedCount)
	}
	if len(result.Pages) != 2 || result.Pages[0].PageNumber != 1 || result.Pages[1].PageNumber != 2 {
		t.Errorf("pages = %+v", result.Pages)
	}
}

func TestRun_AllBatchesFail(t *testing.T) {
	client := &mockFileClient{
		OnGenerateWithFiles: func(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
			return "", errors.New("provider down")
		},
	}
	o := newTestOrchestrator(client, allowGate())

	result, err := o.Run(context.Background(), images(3), 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ProcessedCount != 0 || result.SkippedCount != 3 {
		t.Errorf("processed=%d skipped=%d, want 0/3", result.ProcessedCount, result.SkippedCount)
	}
}

func TestRun_QuotaErrorAbandonsRemainingBatches(t *testing.T) {
	client := &mockFileClient{
		OnGenerateWithFiles: func(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
			// executor escalates exhausted rate limits to quota errors
			return "", &llm.RateLimitError{RetryDelay: "1s", Err: errors.New("429")}
		},
	}
	o := newTestOrchestrator(client, allowGate())

	result, err := o.Run(context.Background(), images(6), 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.SkippedCount != 6 {
		t.Errorf("skipped = %d, want all 6", result.SkippedCount)
	}
	if got := client.generateCalls; got != 1 {
		t.Errorf("made %d batch calls after quota exhaustion, want 1", got)
	}
}

func TestRun_ParseFailureFallsBackPerImage(t *testing.T) {
	client := &mockFileClient{
		OnGenerateWithFiles: func(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
			if len(files) > 1 {
				return "sorry, I cannot produce JSON today", nil
			}
			// single-file fallback calls return plain text
			return "fallback text for " + files[0].URI, nil
		},
	}
	o := newTestOrchestrator(client, allowGate())

	result, err := o.Run(context.Background(), images(2), 2)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ProcessedCount != 2 {
		t.Fatalf("processed = %d, want 2 via fallback", result.ProcessedCount)
	}
	for _, p := range result.Pages {
		if !strings.HasPrefix(p.Text, "fallback text for ") {
			t.Errorf("page %d text = %q", p.PageNumber, p.Text)
		}
	}
	// one combined call plus one per image
	if got := client.generateCalls; got != 3 {
		t.Errorf("generate calls = %d, want 3", got)
	}
}

func TestRun_UploadFailureDropsOnlyThatImage(t *testing.T) {
	fetchFail := stubFetcher{OnFetch: func(ctx context.Context, url string) ([]byte, string, error) {
		if strings.Contains(url, "/2.png") {
			return nil, "", errors.New("404")
		}
		return []byte("img"), "image/png", nil
	}}
	client := &mockFileClient{
		OnGenerateWithFiles: func(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
			if len(files) != 2 {
				t.Errorf("call carried %d files, want 2 survivors", len(files))
			}
			return batchResponseFor(files, []int{1, 3}), nil
		},
	}
	o := newTestOrchestrator(client, allowGate())
	o.Fetcher = fetchFail

	result, err := o.Run(context.Background(), images(3), 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ProcessedCount != 2 || result.SkippedCount != 1 {
		t.Errorf("processed=%d skipped=%d, want 2/1", result.ProcessedCount, result.SkippedCount)
	}
}

func TestRun_MalformedEntriesDropped(t *testing.T) {
	client := &mockFileClient{
		OnGenerateWithFiles: func(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
			return "```json\n" + `[
				{"pageNumber": 1, "extractedText": "good"},
				{"pageNumber": 0, "extractedText": "bad page number"},
				{"pageNumber": 2, "extractedText": "   "}
			]` + "\n```", nil
		},
	}
	o := newTestOrchestrator(client, allowGate())

	result, err := o.Run(context.Background(), images(3), 3)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.ProcessedCount != 1 {
		t.Errorf("processed = %d, want 1", result.ProcessedCount)
	}
	if result.SkippedCount != 2 {
		t.Errorf("skipped = %d, want 2", result.SkippedCount)
	}
}

func TestRun_RecordsUsage(t *testing.T) {
	usage := &countingUsage{}
	o := newTestOrchestrator(&mockFileClient{
		OnGenerateWithFiles: func(ctx context.Context, prompt string, files []llm.FileRef) (string, error) {
			return batchResponseFor(files, []int{1, 2}), nil
		},
	}, allowGate())
	o.Usage = usage

	if _, err := o.Run(context.Background(), images(4), 2); err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if usage.consumed != 2 {
		t.Errorf("consumed = %d, want 2 (one per batch call)", usage.consumed)
	}
}
