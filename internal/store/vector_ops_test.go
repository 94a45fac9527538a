package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSerializeRoundTrip(t *testing.T) {
	vector := []float32{0.1, -0.5, 3.25, 0, 1e-7}
	blob := SerializeVector(vector)
	assert.Len(t, blob, len(vector)*4)

	decoded := DeserializeVector(blob)
	assert.Equal(t, vector, decoded)
}

func TestSerializeEmpty(t *testing.T) {
	assert.Empty(t, SerializeVector(nil))
	assert.Empty(t, DeserializeVector(nil))
}

func TestCosineSimilarity(t *testing.T) {
	a := []float32{1, 0, 0}
	b := []float32{0, 1, 0}

	assert.InDelta(t, 1.0, cosineSimilarity(a, a), 1e-9)
	assert.InDelta(t, 0.0, cosineSimilarity(a, b), 1e-9)
	assert.InDelta(t, -1.0, cosineSimilarity(a, []float32{-1, 0, 0}), 1e-9)
}

func TestCosineSimilarityDegenerate(t *testing.T) {
	// Mismatched dimensions and zero vectors score zero rather than erroring.
	assert.Equal(t, 0.0, cosineSimilarity([]float32{1, 2}, []float32{1, 2, 3}))
	assert.Equal(t, 0.0, cosineSimilarity([]float32{0, 0, 0}, []float32{1, 2, 3}))
}
