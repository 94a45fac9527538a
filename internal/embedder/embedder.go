package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Common errors
var (
	ErrInvalidInput      = errors.New("invalid input")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnknownProvider   = errors.New("unknown embedding provider")
	ErrBatchTooLarge     = errors.New("batch size exceeds limit")
	ErrEmptyBatch        = errors.New("batch contains no texts")
)

// Embedding is a vector with provenance metadata.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string // content hash used for caching
}

// EmbeddingRequest asks for a single embedding. Empty text is allowed; an
// empty query still needs a vector for retrieval.
type EmbeddingRequest struct {
	Text  string
	Model string // optional model override
}

// BatchEmbeddingRequest asks for embeddings of an ordered text sequence.
// The response preserves input order.
type BatchEmbeddingRequest struct {
	Texts []string
	Model string
}

// BatchEmbeddingResponse carries embeddings in input order.
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder generates embeddings. Implementations must return vectors in the
// same order and count as the requested texts.
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)
	Dimension() int
	Provider() string
	Model() string
	Close() error
}

// Cache is an in-memory LRU of embeddings keyed by content hash.
type Cache struct {
	cache *lru.Cache[string, *Embedding]
}

// NewCache creates a cache with LRU eviction.
func NewCache(maxLen int) *Cache {
	if maxLen <= 0 {
		maxLen = 10000
	}
	cache, err := lru.New[string, *Embedding](maxLen)
	if err != nil {
		// Only reachable with a non-positive size, which is corrected above.
		cache, _ = lru.New[string, *Embedding](10000)
	}
	return &Cache{cache: cache}
}

// Get returns a deep copy so caller mutations cannot pollute cached vectors.
func (c *Cache) Get(hash string) (*Embedding, bool) {
	emb, ok := c.cache.Get(hash)
	if !ok {
		return nil, false
	}
	vector := make([]float32, len(emb.Vector))
	copy(vector, emb.Vector)
	return &Embedding{
		Vector:    vector,
		Dimension: emb.Dimension,
		Provider:  emb.Provider,
		Model:     emb.Model,
		Hash:      emb.Hash,
	}, true
}

// Set stores an embedding; eviction is automatic at capacity.
func (c *Cache) Set(hash string, emb *Embedding) {
	c.cache.Add(hash, emb)
}

// Len returns the current number of cached embeddings.
func (c *Cache) Len() int {
	return c.cache.Len()
}

// ComputeHash returns the SHA-256 content hash used as the cache key.
func ComputeHash(text string) string {
	h := sha256.Sum256([]byte(text))
	return hex.EncodeToString(h[:])
}

func validateBatch(req BatchEmbeddingRequest, maxBatch int) error {
	if len(req.Texts) == 0 {
		return ErrEmptyBatch
	}
	if len(req.Texts) > maxBatch {
		return fmt.Errorf("%w: %d texts, max %d", ErrBatchTooLarge, len(req.Texts), maxBatch)
	}
	return nil
}
