package distill

import (
	"fmt"
	"math"
	"strings"

	"github.com/ghostlib/ghost/internal/textproc"
	"github.com/ghostlib/ghost/pkg/types"
)

// truncateHeadroom is the minimum remaining token budget worth spending on a
// truncated final entry. Below this, the overflowing chunk is dropped whole.
const truncateHeadroom = 50

// pack compresses chunks in order and greedily fills the token budget.
//
// originalTokens accumulates the pre-compression estimate of every chunk
// that was attempted, including the one that bursts the budget; chunks never
// reached do not contribute.
func pack(chunks []types.ScoredChunk, budget int) (context string, originalTokens, distilledTokens int) {
	var entries []string
	accumulated := 0

	for _, chunk := range chunks {
		originalTokens += textproc.EstimateTokens(chunk.Text)

		compressed := textproc.Compress(chunk.Text)
		compTokens := textproc.EstimateTokens(compressed)

		if accumulated+compTokens > budget {
			remaining := budget - accumulated
			if remaining > truncateHeadroom {
				truncated := truncateToTokens(compressed, remaining)
				entries = append(entries, fmt.Sprintf("[%s] %s", chunk.Section, truncated))
			}
			break
		}

		entries = append(entries, fmt.Sprintf("[%s] %s", chunk.Section, compressed))
		accumulated += compTokens
	}

	context = strings.Join(entries, "\n\n")
	distilledTokens = textproc.EstimateTokens(context)
	return context, originalTokens, distilledTokens
}

// truncateToTokens keeps the first floor(maxTokens/1.3) words of text.
func truncateToTokens(text string, maxTokens int) string {
	words := strings.Fields(text)
	maxWords := int(math.Floor(float64(maxTokens) / textproc.TokensPerWord))
	if maxWords > len(words) {
		maxWords = len(words)
	}
	return strings.Join(words[:maxWords], " ")
}
