package pipeline

import (
	"strings"
	"testing"

	"github.com/ymatsuda/cardforge/internal/domain/cards"
)

func candidate(id, text string) cards.CandidateProblem {
	return cards.CandidateProblem{ID: id, ProblemText: text, Confidence: 0.9}
}

func TestDedupe_FirstOccurrenceWins(t *testing.T) {
	in := []cards.CandidateProblem{
		candidate("a", "What is the capital of France?"),
		candidate("b", "what   is the capital of FRANCE?"),
		candidate("c", "What is the capital of Spain?"),
	}
	out := Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("got %d candidates, want 2", len(out))
	}
	if out[0].ID != "a" || out[1].ID != "c" {
		t.Errorf("order/survivors wrong: %s, %s", out[0].ID, out[1].ID)
	}
}

func TestDedupe_PrefixKeyLength(t *testing.T) {
	shared := strings.Repeat("x", 50)
	in := []cards.CandidateProblem{
		candidate("a", shared+" tail one"),
		candidate("b", shared+" completely different tail"),
	}
	out := Dedupe(in)
	if len(out) != 1 {
		t.Fatalf("texts sharing a 50-rune prefix should collapse, got %d", len(out))
	}

	in = []cards.CandidateProblem{
		candidate("a", strings.Repeat("x", 49)+"A"),
		candidate("b", strings.Repeat("x", 49)+"B"),
	}
	out = Dedupe(in)
	if len(out) != 2 {
		t.Fatalf("texts differing inside the prefix must both survive, got %d", len(out))
	}
}

func TestDedupe_EmptyInput(t *testing.T) {
	if out := Dedupe(nil); len(out) != 0 {
		t.Errorf("got %d, want 0", len(out))
	}
}
