package ocr

import (
	"context"
	"fmt"
	"strings"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/internal/pipeline"
	"github.com/ymatsuda/cardforge/internal/quota"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// DualResult is the outcome of aligning a question set against an
// answer set. An empty Entries slice with no error means the model's
// response was unusable; the caller reports that as a failed run.
type DualResult struct {
	Entries          []cards.AlignedEntry
	ProcessingTimeMs int64
}

// Aligner pairs question pages with answer pages in a single combined
// model call. Both page sets are uploaded concurrently; alignment needs
// every page of both sets, so any upload failure fails the run.
type Aligner struct {
	Client llm.FileCapable
	Exec   *pipeline.Executor
	Gate   quota.Gate
	Usage  UsageRecorder
	Logger *logger.Logger
}

func NewAligner(client llm.FileCapable, exec *pipeline.Executor, gate quota.Gate, usage UsageRecorder) *Aligner {
	return &Aligner{
		Client: client,
		Exec:   exec,
		Gate:   gate,
		Usage:  usage,
		Logger: logger.New("dual-ocr"),
	}
}

// PagePayload is one already-fetched page image for dual-source OCR.
type PagePayload struct {
	PageNumber int
	Data       []byte
	MimeType   string
}

// Align uploads both sets, runs the combined extraction call, and
// returns the question/answer/explanation triples the model produced.
func (a *Aligner) Align(ctx context.Context, questions, answers []PagePayload) (DualResult, error) {
	start := time.Now()

	if err := validateDualRequest(questions, answers); err != nil {
		return DualResult{}, err
	}
	if decision := a.Gate.Validate(ctx, len(questions)+len(answers)); !decision.CanProcess {
		return DualResult{}, &QuotaDeniedError{Decision: decision}
	}

	questionRefs, answerRefs, err := a.uploadSets(ctx, questions, answers)
	if err != nil {
		return DualResult{}, err
	}

	a.consume(ctx, 1)
	raw, err := pipeline.Execute(ctx, a.Exec, func(ctx context.Context) (string, error) {
		return a.Client.GenerateWithFiles(ctx,
			dualPrompt(len(questionRefs), len(answerRefs)),
			append(questionRefs, answerRefs...))
	})
	if err != nil {
		return DualResult{}, err
	}

	entries, err := pipeline.DecodeArray[cards.AlignedEntry](raw)
	if err != nil {
		if pipeline.IsParseFailure(err) {
			a.Logger.Warn("alignment response unparseable, returning no entries", "error", err)
			return DualResult{ProcessingTimeMs: time.Since(start).Milliseconds()}, nil
		}
		return DualResult{}, err
	}

	kept := make([]cards.AlignedEntry, 0, len(entries))
	for _, e := range entries {
		if strings.TrimSpace(e.QuestionText) == "" {
			continue
		}
		kept = append(kept, e)
	}
	if dropped := len(entries) - len(kept); dropped > 0 {
		a.Logger.Warn("dropped entries without question text", "dropped", dropped)
	}

	return DualResult{
		Entries:          kept,
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}

func validateDualRequest(questions, answers []PagePayload) error {
	if len(questions) == 0 {
		return &ValidationError{Message: "question pages are required"}
	}
	if len(questions) > config.MaxDualPages {
		return &ValidationError{Message: fmt.Sprintf("too many question pages: %d submitted, maximum is %d", len(questions), config.MaxDualPages)}
	}
	if len(answers) > config.MaxDualPages {
		return &ValidationError{Message: fmt.Sprintf("too many answer pages: %d submitted, maximum is %d", len(answers), config.MaxDualPages)}
	}
	return nil
}

// uploadSets pushes both page sets to the provider concurrently,
// preserving page order within each set.
func (a *Aligner) uploadSets(ctx context.Context, questions, answers []PagePayload) ([]llm.FileRef, []llm.FileRef, error) {
	questionRefs := make([]llm.FileRef, len(questions))
	answerRefs := make([]llm.FileRef, len(answers))

	g, ctx := errgroup.WithContext(ctx)
	for i, page := range questions {
		g.Go(func() error {
			ref, err := a.Client.UploadFile(ctx, page.Data, page.MimeType)
			if err != nil {
				return fmt.Errorf("upload question page %d: %w", page.PageNumber, err)
			}
			questionRefs[i] = ref
			return nil
		})
	}
	for i, page := range answers {
		g.Go(func() error {
			ref, err := a.Client.UploadFile(ctx, page.Data, page.MimeType)
			if err != nil {
				return fmt.Errorf("upload answer page %d: %w", page.PageNumber, err)
			}
			answerRefs[i] = ref
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return questionRefs, answerRefs, nil
}

func (a *Aligner) consume(ctx context.Context, n int) {
	if a.Usage != nil {
		a.Usage.Consume(ctx, n)
	}
}

func dualPrompt(questionCount, answerCount int) string {
	return fmt.Sprintf(`You are given %d images. The first %d are pages of a
question document, in page order. The next %d are pages of the matching
answer document, in page order.

Extract every question from the question pages and pair it with its
answer from the answer pages. Use question numbering, page layout, and
content to match pairs.

Respond with a JSON array:
[{"pageNumber": <question page number starting at 1>, "questionText": "...", "answerText": "...", "explanationText": "..."}]

Rules:
- questionText and answerText must be copied from the images, never invented.
- explanationText is a detailed explanation for the pair: why the answer is correct,
  why the other choices are wrong (when applicable), and related concepts
  worth remembering. Start from the answer document's own working when it
  has one.
- If a question has no matching answer, use an empty answerText.
- Return only the JSON array.`, questionCount+answerCount, questionCount, answerCount)
}
