package pipeline

import (
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// CardGenerator turns surviving candidates into persistable cards.
type CardGenerator struct {
	Converter cards.Converter
	Model     string
	Threshold float64
	Logger    *logger.Logger
}

func NewCardGenerator(converter cards.Converter, model string) *CardGenerator {
	return &CardGenerator{
		Converter: converter,
		Model:     model,
		Threshold: config.ConfidenceThreshold,
		Logger:    logger.New("cardgen"),
	}
}

// FromProblems filters candidates at the confidence threshold (strictly
// greater than) and emits one card per survivor.
func (g *CardGenerator) FromProblems(problems []cards.CandidateProblem, sourceRef string) []cards.Card {
	out := make([]cards.Card, 0, len(problems))
	for _, p := range problems {
		if p.Confidence <= g.Threshold {
			continue
		}
		answer := p.AnswerText
		if strings.TrimSpace(answer) == "" {
			answer = answerFallback
		}
		explanation := p.ExplanationText
		if strings.TrimSpace(explanation) == "" {
			explanation = explanationFallback
		}

		out = append(out, cards.Card{
			FrontContent: g.Converter.TextToDocument(p.ProblemText),
			BackContent:  g.Converter.TextToDocument(backContent(answer, explanation)),
			SourceRef:    sourceRef,
			SourcePage:   p.PageNumber,
			Metadata: cards.CardMetadata{
				ProblemID:       p.ID,
				ConfidenceScore: p.Confidence,
				AnswerText:      answer,
				ExplanationText: explanation,
				ProcessingModel: g.Model,
				ProcessingType:  cards.ProcessingSinglePDF,
			},
		})
	}
	g.Logger.Info("card generation", "candidates", len(problems), "cards", len(out))
	return out
}

// FromAligned emits cards from dual-source aligned triples. Both sides
// were independently sourced and cross-validated by the model in one
// pass, so confidence is fixed high.
func (g *CardGenerator) FromAligned(entries []cards.AlignedEntry, sourceRef string) []cards.Card {
	out := make([]cards.Card, 0, len(entries))
	for _, entry := range entries {
		explanation := entry.ExplanationText
		if strings.TrimSpace(explanation) == "" {
			explanation = "(no explanation extracted)"
		}
		out = append(out, cards.Card{
			FrontContent: g.Converter.TextToDocument(entry.QuestionText),
			BackContent:  g.Converter.TextToDocument(backContent(entry.AnswerText, explanation)),
			SourceRef:    sourceRef,
			SourcePage:   entry.PageNumber,
			Metadata: cards.CardMetadata{
				ProblemID:       fmt.Sprintf("dual-%d-%s", entry.PageNumber, uuid.New().String()),
				ConfidenceScore: config.DualSourceConfidence,
				AnswerText:      entry.AnswerText,
				ExplanationText: explanation,
				ProcessingModel: g.Model,
				ProcessingType:  cards.ProcessingDualOCR,
			},
		})
	}
	return out
}

func backContent(answer, explanation string) string {
	return "## Answer\n" + answer + "\n\n## Explanation\n" + explanation
}
