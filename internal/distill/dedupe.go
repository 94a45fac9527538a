package distill

import (
	"math"

	"github.com/ghostlib/ghost/pkg/types"
)

// CosineSimilarity computes the cosine similarity of two vectors. Vectors of
// mismatched length, or where either has zero norm, yield 0 rather than an
// error.
func CosineSimilarity(a, b []float32) float64 {
	if len(a) != len(b) {
		return 0
	}

	var dot, normA, normB float64
	for i := range a {
		dot += float64(a[i]) * float64(b[i])
		normA += float64(a[i]) * float64(a[i])
		normB += float64(b[i]) * float64(b[i])
	}

	if normA == 0 || normB == 0 {
		return 0
	}
	return dot / (math.Sqrt(normA) * math.Sqrt(normB))
}

// removeRedundant walks chunks in rank order and drops any chunk whose
// embedding exceeds the similarity threshold against an already-kept chunk.
// Because processing follows score order, the lower-scored member of a
// near-duplicate pair is always the one dropped.
func removeRedundant(chunks []types.ScoredChunk, embeddings [][]float32, threshold float64) []types.ScoredChunk {
	kept := make([]types.ScoredChunk, 0, len(chunks))
	keptIdx := make([]int, 0, len(chunks))

	for i, chunk := range chunks {
		redundant := false
		for _, j := range keptIdx {
			if CosineSimilarity(embeddings[i], embeddings[j]) > threshold {
				redundant = true
				break
			}
		}
		if !redundant {
			kept = append(kept, chunk)
			keptIdx = append(keptIdx, i)
		}
	}
	return kept
}
