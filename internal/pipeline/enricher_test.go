package pipeline

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/ymatsuda/cardforge/internal/domain/cards"
)

func enrichResponse(answer, explanation string, confidence float64) string {
	var b strings.Builder
	b.WriteString("```json\n{")
	b.WriteString(`"answerText": "` + answer + `",`)
	b.WriteString(`"explanationText": "` + explanation + `",`)
	b.WriteString(`"confidence": `)
	switch confidence {
	case 0.9:
		b.WriteString("0.9")
	case 0.2:
		b.WriteString("0.2")
	default:
		b.WriteString("0.5")
	}
	b.WriteString("}\n```")
	return b.String()
}

func TestEnrich_OnlyCandidatesWithoutAnswers(t *testing.T) {
	client := &mockClient{OnGenerate: func(ctx context.Context, prompt string) (string, error) {
		return enrichResponse("generated", "because", 0.9), nil
	}}
	e := NewEnricher(client, instantExecutor(3))

	in := []cards.CandidateProblem{
		{ID: "has", ProblemText: "q1", AnswerText: "already answered", Confidence: 0.7},
		{ID: "missing", ProblemText: "q2", Confidence: 0.8},
	}
	out := e.Enrich(context.Background(), in)

	if client.callCount() != 1 {
		t.Errorf("expected one call (only the unanswered candidate), got %d", client.callCount())
	}
	if out[0].AnswerText != "already answered" {
		t.Errorf("answered candidate was modified: %+v", out[0])
	}
	if out[1].AnswerText != "generated" {
		t.Errorf("unanswered candidate not enriched: %+v", out[1])
	}
}

func TestEnrich_ConfidenceNeverIncreases(t *testing.T) {
	client := &mockClient{OnGenerate: func(ctx context.Context, prompt string) (string, error) {
		return enrichResponse("a", "e", 0.9), nil
	}}
	e := NewEnricher(client, instantExecutor(3))

	out := e.Enrich(context.Background(), []cards.CandidateProblem{
		{ID: "p", ProblemText: "q", Confidence: 0.6},
	})
	if out[0].Confidence != 0.6 {
		t.Errorf("confidence = %v, want 0.6 (min of 0.6 and 0.9)", out[0].Confidence)
	}

	client = &mockClient{OnGenerate: func(ctx context.Context, prompt string) (string, error) {
		return enrichResponse("a", "e", 0.2), nil
	}}
	e = NewEnricher(client, instantExecutor(3))
	out = e.Enrich(context.Background(), []cards.CandidateProblem{
		{ID: "p", ProblemText: "q", Confidence: 0.6},
	})
	if out[0].Confidence != 0.2 {
		t.Errorf("confidence = %v, want 0.2 (min of 0.6 and 0.2)", out[0].Confidence)
	}
}

func TestEnrich_ExistingExplanationPreferred(t *testing.T) {
	client := &mockClient{OnGenerate: func(ctx context.Context, prompt string) (string, error) {
		return enrichResponse("a", "generated explanation", 0.9), nil
	}}
	e := NewEnricher(client, instantExecutor(3))

	out := e.Enrich(context.Background(), []cards.CandidateProblem{
		{ID: "p", ProblemText: "q", ExplanationText: "source explanation", Confidence: 0.8},
	})
	if out[0].ExplanationText != "source explanation" {
		t.Errorf("existing explanation was overwritten: %q", out[0].ExplanationText)
	}
	if out[0].AnswerText != "a" {
		t.Errorf("answer not merged: %q", out[0].AnswerText)
	}
}

func TestEnrich_FailureDegradesToPlaceholders(t *testing.T) {
	client := &mockClient{OnGenerate: func(ctx context.Context, prompt string) (string, error) {
		return "", errors.New("boom")
	}}
	e := NewEnricher(client, instantExecutor(1))

	out := e.Enrich(context.Background(), []cards.CandidateProblem{
		{ID: "p", ProblemText: "q", Confidence: 0.8},
	})
	if out[0].AnswerText != answerFallback {
		t.Errorf("answer = %q, want fallback", out[0].AnswerText)
	}
	if out[0].ExplanationText != explanationFallback {
		t.Errorf("explanation = %q, want fallback", out[0].ExplanationText)
	}
	if out[0].Confidence != 0.1 {
		t.Errorf("confidence = %v, want 0.1", out[0].Confidence)
	}
}

func TestEnrich_UnparseableResponseDegrades(t *testing.T) {
	client := &mockClient{OnGenerate: func(ctx context.Context, prompt string) (string, error) {
		return "the answer is four", nil
	}}
	e := NewEnricher(client, instantExecutor(3))

	out := e.Enrich(context.Background(), []cards.CandidateProblem{
		{ID: "p", ProblemText: "q", Confidence: 0.8},
	})
	if out[0].AnswerText != answerFallback || out[0].Confidence != 0.1 {
		t.Errorf("got %+v, want placeholder fallbacks", out[0])
	}
}

func TestEnrich_NothingToDo(t *testing.T) {
	client := &mockClient{}
	e := NewEnricher(client, instantExecutor(3))

	in := []cards.CandidateProblem{
		{ID: "p", ProblemText: "q", AnswerText: "done", Confidence: 0.8},
	}
	out := e.Enrich(context.Background(), in)
	if client.callCount() != 0 {
		t.Errorf("made %d calls, want 0", client.callCount())
	}
	if len(out) != 1 || out[0].AnswerText != "done" {
		t.Errorf("output changed: %+v", out)
	}
}
