package distill

import (
	"math"
	"sort"
	"strings"

	"github.com/ghostlib/ghost/internal/textproc"
	"github.com/ghostlib/ghost/pkg/types"
)

// Blend weights for hybrid scoring.
const (
	vectorWeight  = 0.7
	keywordWeight = 0.3
)

// ExtractTerms derives normalized keywords from raw query text: whitespace
// split, lowercased, non-alphanumeric ends trimmed, tokens of length <= 2
// discarded. Duplicates are preserved.
func ExtractTerms(query string) []string {
	fields := strings.Fields(query)
	terms := make([]string, 0, len(fields))
	for _, field := range fields {
		term := textproc.TrimNonAlnum(strings.ToLower(field))
		if len(term) > 2 {
			terms = append(terms, term)
		}
	}
	return terms
}

// keywordScore computes the local keyword relevance of text against query
// terms. For each term, tf = count/total_words and the boost is ln(1+count)+1
// where count is the term's occurrences among the chunk's own words. The
// per-term contributions are averaged and clamped to 1.0.
func keywordScore(text string, terms []string) float64 {
	if len(terms) == 0 {
		return 0.0
	}

	words := strings.Fields(strings.ToLower(text))
	totalWords := float64(len(words))
	if totalWords == 0 {
		return 0.0
	}

	trimmed := make([]string, len(words))
	for i, w := range words {
		trimmed[i] = textproc.TrimNonAlnum(w)
	}

	var score float64
	for _, term := range terms {
		var count float64
		for _, w := range trimmed {
			if w == term {
				count++
			}
		}
		tf := count / totalWords
		boost := math.Log(1.0+count) + 1.0
		score += tf * boost
	}

	return math.Min(score/float64(len(terms)), 1.0)
}

// scoreCandidates converts gateway candidates into scored chunks using the
// hybrid blend. Missing payload fields degrade to their defaults.
func scoreCandidates(candidates []types.Candidate, terms []string) []types.ScoredChunk {
	chunks := make([]types.ScoredChunk, 0, len(candidates))
	for _, cand := range candidates {
		text := cand.Text()
		chunks = append(chunks, types.ScoredChunk{
			Text:     text,
			Section:  cand.Section(),
			Filename: cand.Filename(),
			Score:    vectorWeight*cand.Score + keywordWeight*keywordScore(text, terms),
		})
	}
	return chunks
}

// rank sorts chunks by blended score, descending. The sort is stable so
// ties preserve original retrieval order.
func rank(chunks []types.ScoredChunk) {
	sort.SliceStable(chunks, func(i, j int) bool {
		return chunks[i].Score > chunks[j].Score
	})
}
