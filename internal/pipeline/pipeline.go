package pipeline

import (
	"context"
	"fmt"
	"time"

	"github.com/ymatsuda/cardforge/internal/domain/cards"
	"github.com/ymatsuda/cardforge/internal/llm"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// Service is the full text-source workflow: bulk extraction, dedupe,
// conditional answer enrichment, card generation.
type Service struct {
	Extractor *Extractor
	Enricher  *Enricher
	Generator *CardGenerator
	Logger    *logger.Logger
}

func NewService(client llm.Client, exec *Executor, converter cards.Converter) *Service {
	return &Service{
		Extractor: NewExtractor(client, exec),
		Enricher:  NewEnricher(client, exec),
		Generator: NewCardGenerator(converter, client.ModelName()),
		Logger:    logger.New("pipeline"),
	}
}

// Result is what a completed run hands back to the caller, which owns
// persistence of the cards.
type Result struct {
	Cards            []cards.Card               `json:"cards"`
	DetectedProblems []cards.CandidateProblem   `json:"detected_problems"`
	TotalPages       int                        `json:"total_pages"`
	ProcessingTimeMs int64                      `json:"processing_time_ms"`
}

// ProcessPages runs the whole pipeline over extracted page text. Finding
// zero problems is a valid outcome, not an error.
func (s *Service) ProcessPages(ctx context.Context, pages []cards.PageText, sourceRef string) (Result, error) {
	start := time.Now()

	problems, err := s.Extractor.ExtractProblems(ctx, pages)
	if err != nil {
		return Result{}, fmt.Errorf("extract problems: %w", err)
	}

	unique := Dedupe(problems)
	s.Logger.Info("dedupe", "before", len(problems), "after", len(unique))

	var enriched []cards.CandidateProblem
	if len(unique) > 0 {
		enriched = s.Enricher.Enrich(ctx, unique)
	}

	generated := s.Generator.FromProblems(enriched, sourceRef)

	return Result{
		Cards:            generated,
		DetectedProblems: enriched,
		TotalPages:       len(pages),
		ProcessingTimeMs: time.Since(start).Milliseconds(),
	}, nil
}
