package pipeline

import (
	"context"
	"strings"
	"sync"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

const (
	answerFallback      = "no answer could be generated"
	explanationFallback = "no explanation could be generated"
)

const enrichPromptHeader = `You are a subject-matter educator. Produce the answer and a detailed
explanation for the problem below.

Problem:
`

const enrichPromptFooter = `

Output format (JSON object):
{
  "answerText": "the answer, concise",
  "explanationText": "detailed explanation",
  "confidence": 0.0-1.0
}

Rules:
1. answerText: for multiple choice the choice label, for calculation the
   value, for descriptive a short answer
2. explanationText: why the answer is correct, why the other choices are
   wrong (when applicable), related concepts worth remembering
3. When uncertain, lower the confidence instead of fabricating an answer.`

// enrichResult is the model's wire shape for one enrichment call.
type enrichResult struct {
	AnswerText      string  `json:"answerText"`
	ExplanationText string  `json:"explanationText"`
	Confidence      float64 `json:"confidence"`
}

// Enricher fills in answers and explanations for candidates that lack
// them. Batches are processed sequentially; items within a batch run in
// parallel, bounded by the batch size.
type Enricher struct {
	Client    llm.Client
	Exec      *Executor
	BatchSize int
	Logger    *logger.Logger
}

func NewEnricher(client llm.Client, exec *Executor) *Enricher {
	return &Enricher{
		Client:    client,
		Exec:      exec,
		BatchSize: config.EnrichBatchSize,
		Logger:    logger.New("enricher"),
	}
}

// Enrich returns the candidate list with missing answers generated.
// Confidence never increases: a merged candidate keeps the minimum of
// its previous and generated confidence. Existing explanations win over
// generated ones.
func (e *Enricher) Enrich(ctx context.Context, problems []cards.CandidateProblem) []cards.CandidateProblem {
	var needing []cards.CandidateProblem
	for _, p := range problems {
		if !p.HasAnswer() {
			needing = append(needing, p)
		}
	}
	e.Logger.Info("answer enrichment", "total", len(problems), "needing", len(needing))
	if len(needing) == 0 {
		return problems
	}

	batchSize := e.BatchSize
	if batchSize <= 0 {
		batchSize = config.EnrichBatchSize
	}

	generated := make(map[string]enrichResult, len(needing))
	for start := 0; start < len(needing); start += batchSize {
		end := min(start+batchSize, len(needing))
		batch := needing[start:end]

		results := make([]enrichResult, len(batch))
		var wg sync.WaitGroup
		for i, p := range batch {
			wg.Add(1)
			go func(i int, p cards.CandidateProblem) {
				defer wg.Done()
				results[i] = e.enrichOne(ctx, p)
			}(i, p)
		}
		wg.Wait()

		for i, p := range batch {
			generated[p.ID] = results[i]
		}
		e.Logger.Debug("enrichment batch complete", "from", start, "to", end)
	}

	out := make([]cards.CandidateProblem, len(problems))
	for i, p := range problems {
		out[i] = p
		g, ok := generated[p.ID]
		if !ok {
			continue
		}
		out[i].AnswerText = g.AnswerText
		if strings.TrimSpace(p.ExplanationText) == "" {
			out[i].ExplanationText = g.ExplanationText
		}
		out[i].Confidence = min(p.Confidence, g.Confidence)
	}
	return out
}

// enrichOne never fails the batch: an unusable response degrades to
// placeholder text with rock-bottom confidence.
func (e *Enricher) enrichOne(ctx context.Context, p cards.CandidateProblem) enrichResult {
	prompt := enrichPromptHeader + p.ProblemText + enrichPromptFooter

	raw, err := Execute(ctx, e.Exec, func(ctx context.Context) (string, error) {
		return e.Client.Generate(ctx, prompt)
	})
	if err != nil {
		e.Logger.Warn("enrichment call failed", "problem", p.ID, "error", err)
		return enrichResult{
			AnswerText:      answerFallback,
			ExplanationText: explanationFallback,
			Confidence:      0.1,
		}
	}

	result, err := DecodeObject[enrichResult](raw)
	if err != nil {
		e.Logger.Warn("enrichment response unparseable", "problem", p.ID, "error", err)
		return enrichResult{
			AnswerText:      answerFallback,
			ExplanationText: explanationFallback,
			Confidence:      0.1,
		}
	}
	if strings.TrimSpace(result.AnswerText) == "" {
		result.AnswerText = answerFallback
	}
	if strings.TrimSpace(result.ExplanationText) == "" {
		result.ExplanationText = explanationFallback
	}
	if result.Confidence <= 0 || result.Confidence > 1 {
		result.Confidence = 0.5
	}
	return result
}
