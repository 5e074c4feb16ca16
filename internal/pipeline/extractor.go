package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

const bulkExtractPrompt = `You are an expert at extracting problems and answers from study material.
Detect every problem statement in the text below. When an answer or
explanation is present in the source, extract it too.

Output format (JSON array):
[
  {
    "problemText": "the problem statement, including any answer choices",
    "answerText": "the answer, if present",
    "explanationText": "the explanation, if present",
    "problemType": "multiple_choice" | "descriptive" | "calculation" | "unknown",
    "confidence": 0.0-1.0,
    "pageNumber": page number (integer)
  }
]

Extraction rules:
1. problemText: strip the problem number, keep the full statement and choices
2. answerText: only when the source states it explicitly, never guess
3. explanationText: only when the source contains a worked explanation
4. confidence: completeness of problem, answer and explanation together
5. pageNumber: the page the problem was found on; for problems spanning
   pages, the first page

Important:
- Use only content present in the source. Never invent problems.
- Leave answerText/explanationText empty when uncertain; a later step
  generates them.
- Extract each problem separately.`

// rawProblem is the model's wire shape before validation.
type rawProblem struct {
	ProblemText     string  `json:"problemText"`
	AnswerText      string  `json:"answerText"`
	ExplanationText string  `json:"explanationText"`
	ProblemType     string  `json:"problemType"`
	Confidence      float64 `json:"confidence"`
	PageNumber      int     `json:"pageNumber"`
}

// Extractor converts page text into candidate problems, one bulk LLM
// call per token-budgeted chunk.
type Extractor struct {
	Client llm.Client
	Exec   *Executor
	Logger *logger.Logger
}

func NewExtractor(client llm.Client, exec *Executor) *Extractor {
	return &Extractor{
		Client: client,
		Exec:   exec,
		Logger: logger.New("extractor"),
	}
}

// ExtractProblems chunks the pages and runs the bulk extraction over
// each chunk. A malformed model response yields zero candidates for
// that chunk, not an error; the caller treats "nothing found" as
// benign.
func (e *Extractor) ExtractProblems(ctx context.Context, pages []cards.PageText) ([]cards.CandidateProblem, error) {
	chunks, err := BuildChunks(pages, config.MaxTokensPerChunk)
	if err != nil {
		return nil, err
	}

	var all []cards.CandidateProblem
	for _, chunk := range chunks {
		problems, err := e.extractChunk(ctx, chunk)
		if err != nil {
			return nil, err
		}
		all = append(all, problems...)
	}
	e.Logger.Info("bulk extraction complete", "chunks", len(chunks), "problems", len(all))
	return all, nil
}

func (e *Extractor) extractChunk(ctx context.Context, chunk cards.Chunk) ([]cards.CandidateProblem, error) {
	prompt := bulkExtractPrompt + "\n\n" + chunk.Text
	e.Logger.Debug("chunk extraction",
		"chunkId", chunk.ChunkID, "pages", len(chunk.PageNumbers), "tokens", chunk.TokenCount)

	raw, err := Execute(ctx, e.Exec, func(ctx context.Context) (string, error) {
		return e.Client.Generate(ctx, prompt)
	})
	if err != nil {
		return nil, fmt.Errorf("extraction call for chunk %s: %w", chunk.ChunkID, err)
	}

	items, err := DecodeArray[rawProblem](raw)
	if err != nil {
		e.Logger.Warn("chunk response unparseable, treating as zero candidates",
			"chunkId", chunk.ChunkID, "error", err)
		return nil, nil
	}

	problems, dropped := validateProblems(items, chunk)
	if dropped > 0 {
		e.Logger.Warn("dropped malformed extraction entries",
			"chunkId", chunk.ChunkID, "dropped", dropped, "kept", len(problems))
	}
	return problems, nil
}

// validateProblems filters malformed entries and reports how many were
// dropped so bad model output stays observable. Candidate confidence is
// capped by the chunk's own confidence, so problems out of an oversized
// chunk never score higher than the chunk that produced them.
func validateProblems(items []rawProblem, chunk cards.Chunk) ([]cards.CandidateProblem, int) {
	problems := make([]cards.CandidateProblem, 0, len(items))
	dropped := 0
	for i, item := range items {
		if strings.TrimSpace(item.ProblemText) == "" {
			dropped++
			continue
		}
		confidence := item.Confidence
		if confidence <= 0 || confidence > 1 {
			confidence = 0.5
		}
		confidence = min(confidence, chunk.Confidence)
		pageNumber := item.PageNumber
		if pageNumber < 1 {
			pageNumber = 1
		}
		problems = append(problems, cards.CandidateProblem{
			ID:              fmt.Sprintf("%s-%d", chunk.ChunkID, i),
			ProblemText:     strings.TrimSpace(item.ProblemText),
			AnswerText:      strings.TrimSpace(item.AnswerText),
			ExplanationText: strings.TrimSpace(item.ExplanationText),
			ProblemType:     cards.ParseProblemType(item.ProblemType),
			Confidence:      confidence,
			PageNumber:      pageNumber,
			ChunkID:         chunk.ChunkID,
		})
	}
	return problems, dropped
}
