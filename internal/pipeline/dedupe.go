package pipeline

import (
	"strings"
	"unicode"

	"github.com/ymatsuda/cardforge/internal/domain/cards"
)

const dedupeKeyLength = 50

// Dedupe collapses near-duplicate candidates: first occurrence wins,
// order is preserved, and the result is deterministic for a given input.
// Candidates are considered duplicates when their normalized problem-text
// prefixes match.
func Dedupe(problems []cards.CandidateProblem) []cards.CandidateProblem {
	seen := make(map[string]struct{}, len(problems))
	out := make([]cards.CandidateProblem, 0, len(problems))
	for _, p := range problems {
		key := dedupeKey(p.ProblemText)
		if _, dup := seen[key]; dup {
			continue
		}
		seen[key] = struct{}{}
		out = append(out, p)
	}
	return out
}

// dedupeKey lowercases, collapses whitespace and keeps a fixed-length
// rune prefix. Cheap and stable; no fuzzy matching.
func dedupeKey(text string) string {
	var b strings.Builder
	lastSpace := false
	for _, r := range strings.ToLower(text) {
		if unicode.IsSpace(r) {
			if !lastSpace && b.Len() > 0 {
				b.WriteRune(' ')
			}
			lastSpace = true
			continue
		}
		lastSpace = false
		b.WriteRune(r)
	}
	key := strings.TrimSpace(b.String())
	runes := []rune(key)
	if len(runes) > dedupeKeyLength {
		return string(runes[:dedupeKeyLength])
	}
	return key
}
