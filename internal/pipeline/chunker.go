package pipeline

import (
	"fmt"

	"github.com/google/uuid"
	"github.com/ymatsuda/cardforge/internal/domain/cards"
)

const (
	normalChunkConfidence    = 1.0
	oversizedChunkConfidence = 0.8
)

// EstimateTokens is the cheap token-count heuristic used for chunk
// budgeting: roughly four characters per token.
func EstimateTokens(text string) int {
	return len(text) / 4
}

// BuildChunks packs consecutive pages into chunks of at most
// maxTokensPerChunk estimated tokens. A single page over the limit
// becomes its own chunk with lowered confidence. Page order is always
// preserved; no page is dropped or duplicated.
func BuildChunks(pages []cards.PageText, maxTokensPerChunk int) ([]cards.Chunk, error) {
	if maxTokensPerChunk <= 0 {
		return nil, fmt.Errorf("maxTokensPerChunk must be positive, got %d", maxTokensPerChunk)
	}

	var chunks []cards.Chunk
	var current struct {
		pageNumbers []int
		text        string
		tokens      int
	}

	flush := func(confidence float64) {
		if len(current.pageNumbers) == 0 {
			return
		}
		chunks = append(chunks, cards.Chunk{
			ChunkID:     uuid.New().String(),
			PageNumbers: current.pageNumbers,
			Text:        current.text,
			TokenCount:  current.tokens,
			Confidence:  confidence,
		})
		current.pageNumbers = nil
		current.text = ""
		current.tokens = 0
	}

	for _, page := range pages {
		pageTokens := EstimateTokens(page.Text)

		// An oversized page cannot be packed; it ships alone.
		if pageTokens > maxTokensPerChunk {
			flush(normalChunkConfidence)
			chunks = append(chunks, cards.Chunk{
				ChunkID:     uuid.New().String(),
				PageNumbers: []int{page.PageNumber},
				Text:        page.Text,
				TokenCount:  pageTokens,
				Confidence:  oversizedChunkConfidence,
			})
			continue
		}

		if current.tokens+pageTokens > maxTokensPerChunk && len(current.pageNumbers) > 0 {
			flush(normalChunkConfidence)
		}

		current.pageNumbers = append(current.pageNumbers, page.PageNumber)
		if current.text != "" {
			current.text += "\n\n"
		}
		current.text += pageMarker(page.PageNumber) + "\n" + page.Text
		current.tokens += pageTokens
	}

	flush(normalChunkConfidence)
	return chunks, nil
}

func pageMarker(pageNumber int) string {
	return fmt.Sprintf("=== page %d ===", pageNumber)
}
