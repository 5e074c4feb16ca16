package pipeline

import (
	"testing"

	"github.com/ymatsuda/cardforge/internal/domain/cards"
)

func newTestGenerator() *CardGenerator {
	return NewCardGenerator(cards.ParagraphConverter{}, "test-model")
}

func TestFromProblems_ThresholdIsStrictlyGreater(t *testing.T) {
	g := newTestGenerator()

	in := []cards.CandidateProblem{
		{ID: "at", ProblemText: "exactly at threshold", AnswerText: "a", Confidence: 0.3},
		{ID: "above", ProblemText: "just above threshold", AnswerText: "a", Confidence: 0.31},
		{ID: "below", ProblemText: "below threshold", AnswerText: "a", Confidence: 0.1},
	}
	out := g.FromProblems(in, "doc-1")
	if len(out) != 1 {
		t.Fatalf("got %d cards, want 1", len(out))
	}
	if out[0].Metadata.ProblemID != "above" {
		t.Errorf("survivor = %s, want the 0.31 candidate", out[0].Metadata.ProblemID)
	}
}

func TestFromProblems_CardFields(t *testing.T) {
	g := newTestGenerator()

	out := g.FromProblems([]cards.CandidateProblem{{
		ID:              "p1",
		ProblemText:     "What is 2+2?",
		AnswerText:      "4",
		ExplanationText: "basic addition",
		Confidence:      0.9,
		PageNumber:      7,
	}}, "doc-1")
	if len(out) != 1 {
		t.Fatalf("got %d cards, want 1", len(out))
	}

	c := out[0]
	if c.SourceRef != "doc-1" || c.SourcePage != 7 {
		t.Errorf("source fields wrong: %+v", c)
	}
	if c.Metadata.ProcessingType != cards.ProcessingSinglePDF {
		t.Errorf("processing type = %s", c.Metadata.ProcessingType)
	}
	if c.Metadata.ProcessingModel != "test-model" {
		t.Errorf("processing model = %s", c.Metadata.ProcessingModel)
	}
	if c.FrontContent.Type != "doc" || len(c.FrontContent.Content) == 0 {
		t.Errorf("front content not converted: %+v", c.FrontContent)
	}
}

func TestFromProblems_MissingFieldsGetFallbacks(t *testing.T) {
	g := newTestGenerator()

	out := g.FromProblems([]cards.CandidateProblem{{
		ID:          "p1",
		ProblemText: "q",
		Confidence:  0.9,
	}}, "doc-1")
	if len(out) != 1 {
		t.Fatalf("got %d cards, want 1", len(out))
	}
	if out[0].Metadata.AnswerText != answerFallback {
		t.Errorf("answer = %q", out[0].Metadata.AnswerText)
	}
	if out[0].Metadata.ExplanationText != explanationFallback {
		t.Errorf("explanation = %q", out[0].Metadata.ExplanationText)
	}
}

func TestFromAligned(t *testing.T) {
	g := newTestGenerator()

	out := g.FromAligned([]cards.AlignedEntry{
		{PageNumber: 2, QuestionText: "q1", AnswerText: "a1", ExplanationText: "e1"},
		{PageNumber: 3, QuestionText: "q2", AnswerText: "a2"},
	}, "dual-doc")
	if len(out) != 2 {
		t.Fatalf("got %d cards, want 2", len(out))
	}

	for _, c := range out {
		if c.Metadata.ConfidenceScore != 0.95 {
			t.Errorf("confidence = %v, want 0.95", c.Metadata.ConfidenceScore)
		}
		if c.Metadata.ProcessingType != cards.ProcessingDualOCR {
			t.Errorf("processing type = %s", c.Metadata.ProcessingType)
		}
		if c.SourceRef != "dual-doc" {
			t.Errorf("source ref = %s", c.SourceRef)
		}
	}
	if out[1].Metadata.ExplanationText != "(no explanation extracted)" {
		t.Errorf("missing explanation fallback = %q", out[1].Metadata.ExplanationText)
	}
}
