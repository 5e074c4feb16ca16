package ocr

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/internal/metrics"
	"github.com/ymatsuda/cardforge/internal/pipeline"
	"github.com/ymatsuda/cardforge/internal/quota"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// PageImage is one page image submitted for OCR.
type PageImage struct {
	PageNumber int    `json:"pageNumber"`
	ImageURL   string `json:"imageUrl"`
}

// Result is the outcome of a batch OCR run. Partial extraction is a
// normal outcome: skipped pages are counted, not treated as failure.
type Result struct {
	Pages          []cards.ExtractedPage
	ProcessedCount int
	SkippedCount   int
}

// ValidationError marks input the caller must fix before retrying.
type ValidationError struct {
	Message string
}

func (e *ValidationError) Error() string { return e.Message }

// QuotaDeniedError carries the gate's refusal back to the caller.
type QuotaDeniedError struct {
	Decision quota.Decision
}

func (e *QuotaDeniedError) Error() string { return e.Decision.Message }

// UsageRecorder records requests against the daily budget.
type UsageRecorder interface {
	Consume(ctx context.Context, n int)
}

// Orchestrator runs page images through the provider in batches: upload
// the batch in parallel, extract all pages with one multi-image call,
// degrade to per-image calls when the combined response is unparseable.
type Orchestrator struct {
	Client  llm.FileCapable
	Exec    *pipeline.Executor
	Gate    quota.Gate
	Usage   UsageRecorder
	Fetcher Fetcher
	Sleep   pipeline.SleepFunc
	Logger  *logger.Logger
}

func NewOrchestrator(client llm.FileCapable, exec *pipeline.Executor, gate quota.Gate, usage UsageRecorder, fetcher Fetcher) *Orchestrator {
	return &Orchestrator{
		Client:  client,
		Exec:    exec,
		Gate:    gate,
		Usage:   usage,
		Fetcher: fetcher,
		Sleep:   pipeline.ContextSleep,
		Logger:  logger.New("batch-ocr"),
	}
}

// rawPage is the wire shape of one entry in the model's batch response.
type rawPage struct {
	PageNumber    int    `json:"pageNumber"`
	ExtractedText string `json:"extractedText"`
}

// Run validates the request, checks quota, then processes images in
// batches of batchSize. A batchSize of 0 selects the default. One failed
// batch skips only its own pages; a quota failure abandons the rest.
func (o *Orchestrator) Run(ctx context.Context, images []PageImage, batchSize int) (Result, error) {
	if batchSize == 0 {
		batchSize = config.DefaultOCRBatchSize
	}
	if err := validateRequest(images, batchSize); err != nil {
		return Result{}, err
	}

	if decision := o.Gate.Validate(ctx, len(images)); !decision.CanProcess {
		return Result{}, &QuotaDeniedError{Decision: decision}
	}

	var result Result
	for start := 0; start < len(images); start += batchSize {
		end := min(start+batchSize, len(images))
		batch := images[start:end]

		pages, err := o.processBatch(ctx, batch)
		result.Pages = append(result.Pages, pages...)
		result.ProcessedCount += len(pages)
		result.SkippedCount += len(batch) - len(pages)

		if err != nil {
			if llm.IsQuotaExceeded(err) {
				o.Logger.Error("quota exhausted, abandoning remaining batches",
					"completed", end, "remaining", len(images)-end)
				result.SkippedCount += len(images) - end
				break
			}
			o.Logger.Error("batch failed, continuing with next",
				"batchStart", start, "error", err)
		}

		if end < len(images) {
			if err := o.sleep(ctx, config.InterBatchDelay); err != nil {
				result.SkippedCount += len(images) - end
				break
			}
		}
	}

	metrics.AddPagesProcessed(result.ProcessedCount)
	metrics.AddPagesSkipped(result.SkippedCount)
	return result, nil
}

func validateRequest(images []PageImage, batchSize int) error {
	if len(images) == 0 {
		return &ValidationError{Message: "no images submitted"}
	}
	if len(images) > config.MaxOCRPages {
		return &ValidationError{Message: fmt.Sprintf("too many pages: %d submitted, maximum is %d", len(images), config.MaxOCRPages)}
	}
	if batchSize < 1 || batchSize > config.MaxOCRBatchSize {
		return &ValidationError{Message: fmt.Sprintf("batchSize must be between 1 and %d", config.MaxOCRBatchSize)}
	}
	for i, img := range images {
		if img.PageNumber < 1 {
			return &ValidationError{Message: fmt.Sprintf("image %d: pageNumber must be positive", i)}
		}
		if strings.TrimSpace(img.ImageURL) == "" {
			return &ValidationError{Message: fmt.Sprintf("image %d: imageUrl is required", i)}
		}
	}
	return nil
}

// processBatch may return pages alongside an error when the per-image
// fallback got partway through before hitting quota.
func (o *Orchestrator) processBatch(ctx context.Context, batch []PageImage) ([]cards.ExtractedPage, error) {
	uploads := o.uploadAll(ctx, batch)
	if len(uploads) == 0 {
		return nil, fmt.Errorf("all %d image uploads failed", len(batch))
	}

	o.consume(ctx, 1)
	raw, err := pipeline.Execute(ctx, o.Exec, func(ctx context.Context) (string, error) {
		return o.Client.GenerateWithFiles(ctx, batchPrompt(uploads), fileRefs(uploads))
	})
	if err != nil {
		return nil, err
	}

	entries, err := pipeline.DecodeArray[rawPage](raw)
	if err != nil {
		if pipeline.IsParseFailure(err) {
			metrics.IncrementBatchFallbacks()
			o.Logger.Warn("batch response unparseable, extracting per image",
				"pages", len(uploads))
			return o.fallbackPerImage(ctx, uploads)
		}
		return nil, err
	}
	return o.validatePages(entries), nil
}

// uploadAll fetches and uploads every image in the batch concurrently.
// A failed upload drops only that image.
func (o *Orchestrator) uploadAll(ctx context.Context, batch []PageImage) []cards.BatchUploadResult {
	results := make([]*cards.BatchUploadResult, len(batch))
	var wg sync.WaitGroup
	for i, img := range batch {
		wg.Add(1)
		go func() {
			defer wg.Done()
			data, mime, err := o.Fetcher.Fetch(ctx, img.ImageURL)
			if err != nil {
				o.Logger.Error("image fetch failed", "page", img.PageNumber, "error", err)
				return
			}
			ref, err := o.Client.UploadFile(ctx, data, mime)
			if err != nil {
				o.Logger.Error("image upload failed", "page", img.PageNumber, "error", err)
				return
			}
			results[i] = &cards.BatchUploadResult{
				PageNumber: img.PageNumber,
				URI:        ref.URI,
				MimeType:   ref.MimeType,
			}
		}()
	}
	wg.Wait()

	uploads := make([]cards.BatchUploadResult, 0, len(batch))
	for _, r := range results {
		if r != nil {
			uploads = append(uploads, *r)
		}
	}
	return uploads
}

// validatePages keeps only well-formed entries and reports the rest.
func (o *Orchestrator) validatePages(entries []rawPage) []cards.ExtractedPage {
	pages := make([]cards.ExtractedPage, 0, len(entries))
	dropped := 0
	for _, e := range entries {
		if e.PageNumber < 1 || strings.TrimSpace(e.ExtractedText) == "" {
			dropped++
			continue
		}
		pages = append(pages, cards.ExtractedPage{
			PageNumber: e.PageNumber,
			Text:       e.ExtractedText,
		})
	}
	if dropped > 0 {
		o.Logger.Warn("dropped malformed entries from batch response", "dropped", dropped)
	}
	return pages
}

// fallbackPerImage extracts each uploaded image with its own call,
// pacing requests to stay under the per-minute rate limit. A quota error
// returns what was collected so far along with the error.
func (o *Orchestrator) fallbackPerImage(ctx context.Context, uploads []cards.BatchUploadResult) ([]cards.ExtractedPage, error) {
	var pages []cards.ExtractedPage
	for i, up := range uploads {
		if i > 0 {
			if err := o.sleep(ctx, config.PerImageDelay); err != nil {
				return pages, err
			}
		}

		o.consume(ctx, 1)
		raw, err := pipeline.Execute(ctx, o.Exec, func(ctx context.Context) (string, error) {
			return o.Client.GenerateWithFiles(ctx, singleImagePrompt, []llm.FileRef{{URI: up.URI, MimeType: up.MimeType}})
		})
		if err != nil {
			if llm.IsQuotaExceeded(err) {
				return pages, err
			}
			o.Logger.Error("per-image extraction failed", "page", up.PageNumber, "error", err)
			continue
		}

		text := strings.TrimSpace(raw)
		if text == "" {
			continue
		}
		pages = append(pages, cards.ExtractedPage{PageNumber: up.PageNumber, Text: text})
	}
	return pages, nil
}

func (o *Orchestrator) consume(ctx context.Context, n int) {
	if o.Usage != nil {
		o.Usage.Consume(ctx, n)
	}
}

func (o *Orchestrator) sleep(ctx context.Context, d time.Duration) error {
	if o.Sleep != nil {
		return o.Sleep(ctx, d)
	}
	return pipeline.ContextSleep(ctx, d)
}

const singleImagePrompt = `Extract all text from this document page image.
Preserve the reading order and line breaks. Return only the extracted
text, with no commentary and no code fences.`

func batchPrompt(uploads []cards.BatchUploadResult) string {
	var b strings.Builder
	b.WriteString("You are given ")
	fmt.Fprintf(&b, "%d document page images in order. ", len(uploads))
	b.WriteString("Extract the full text of every image.\n\n")
	for i, up := range uploads {
		fmt.Fprintf(&b, "Image %d is page %d.\n", i+1, up.PageNumber)
	}
	b.WriteString(`
Respond with a JSON array, one entry per image:
[{"pageNumber": <page number>, "extractedText": "<full text of that page>"}]

Rules:
- pageNumber must be the page number given above, not the image index.
- Preserve reading order and line breaks inside extractedText.
- Include every image, even if its page is blank (use an empty string).
- Return only the JSON array.`)
	return b.String()
}

func fileRefs(uploads []cards.BatchUploadResult) []llm.FileRef {
	refs := make([]llm.FileRef, len(uploads))
	for i, up := range uploads {
		refs[i] = llm.FileRef{URI: up.URI, MimeType: up.MimeType}
	}
	return refs
}
