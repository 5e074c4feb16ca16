package pipeline

import (
	"encoding/json"
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ParseFailure reports that no usable JSON payload could be recovered
// from a model response. It is a legitimate, detectable outcome, distinct
// from transport or quota failures: callers degrade (per-item fallback,
// empty result) instead of aborting.
type ParseFailure struct {
	Raw string
	Err error
}

func (e *ParseFailure) Error() string {
	return fmt.Sprintf("no usable json payload: %v (raw: %s)", e.Err, truncate(e.Raw, 200))
}

func (e *ParseFailure) Unwrap() error { return e.Err }

var fencePattern = regexp.MustCompile("(?s)```(?:json)?\\s*\\n(.*?)```")

// ExtractJSONPayload recovers the JSON body from free-form model output.
// All fenced code blocks are collected and the longest wins: when the
// model emits several attempts the most complete one is usually the
// longest. Without fences, fall back to the span between the outermost
// brackets (array first, then object).
func ExtractJSONPayload(raw string) string {
	matches := fencePattern.FindAllStringSubmatch(raw, -1)
	if len(matches) > 0 {
		longest := ""
		for _, m := range matches {
			candidate := strings.TrimSpace(m[1])
			if len(candidate) > len(longest) {
				longest = candidate
			}
		}
		if longest != "" {
			return longest
		}
	}

	for _, pair := range [][2]string{{"[", "]"}, {"{", "}"}} {
		start := strings.Index(raw, pair[0])
		end := strings.LastIndex(raw, pair[1])
		if start != -1 && end > start {
			return strings.TrimSpace(raw[start : end+1])
		}
	}
	return strings.TrimSpace(raw)
}

var smartQuotes = strings.NewReplacer(
	"“", `"`,
	"”", `"`,
	"‘", "'",
	"’", "'",
)

// SanitizeJSON strips control characters and normalizes smart quotes.
// Models occasionally leak both into otherwise valid JSON.
func SanitizeJSON(s string) string {
	s = smartQuotes.Replace(s)
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 0x20 || r == 0x7f {
			switch r {
			case '\n', '\t':
				b.WriteRune(r)
			}
			continue
		}
		b.WriteRune(r)
	}
	return strings.TrimSpace(b.String())
}

// DecodeArray extracts and parses a JSON array of T from raw model
// output. A *ParseFailure return means "nothing usable", never a crash.
func DecodeArray[T any](raw string) ([]T, error) {
	payload := ExtractJSONPayload(raw)
	if payload == "" {
		return nil, &ParseFailure{Raw: raw, Err: fmt.Errorf("empty payload")}
	}

	var items []T
	if err := json.Unmarshal([]byte(payload), &items); err == nil {
		return items, nil
	}

	sanitized := SanitizeJSON(payload)
	if err := json.Unmarshal([]byte(sanitized), &items); err != nil {
		return nil, &ParseFailure{Raw: raw, Err: err}
	}
	return items, nil
}

// DecodeObject is DecodeArray's single-object counterpart.
func DecodeObject[T any](raw string) (T, error) {
	var item T
	payload := ExtractJSONPayload(raw)
	if payload == "" {
		return item, &ParseFailure{Raw: raw, Err: fmt.Errorf("empty payload")}
	}
	if err := json.Unmarshal([]byte(payload), &item); err == nil {
		return item, nil
	}
	sanitized := SanitizeJSON(payload)
	if err := json.Unmarshal([]byte(sanitized), &item); err != nil {
		var zero T
		return zero, &ParseFailure{Raw: raw, Err: err}
	}
	return item, nil
}

// IsParseFailure reports whether err represents an unusable payload.
func IsParseFailure(err error) bool {
	var pf *ParseFailure
	return errors.As(err, &pf)
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
