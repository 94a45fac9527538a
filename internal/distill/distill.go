package distill

import (
	"context"
	"errors"
	"fmt"

	"github.com/ghostlib/ghost/internal/embedder"
	"github.com/ghostlib/ghost/internal/store"
	"github.com/ghostlib/ghost/pkg/types"
)

// Defaults applied by Options.withDefaults.
const (
	DefaultContextBudget  = 3000
	DefaultTopK           = 20
	DefaultDedupThreshold = 0.85
)

var (
	ErrInvalidBudget    = errors.New("context budget must be positive")
	ErrInvalidTopK      = errors.New("top-k must be positive")
	ErrInvalidThreshold = errors.New("dedup threshold must be in (0, 1]")
	ErrNilDependency    = errors.New("embedder and gateway are required")
)

// Options configures one pipeline. Zero fields take defaults; the pipeline
// never reads configuration from the process environment.
type Options struct {
	// ContextBudget is the soft ceiling, in estimated tokens, on the packed
	// context string.
	ContextBudget int
	// TopK is the number of candidates requested from the gateway.
	TopK int
	// DedupThreshold is the cosine similarity above which a lower-ranked
	// chunk is treated as a duplicate.
	DedupThreshold float64
}

func (o Options) withDefaults() Options {
	if o.ContextBudget == 0 {
		o.ContextBudget = DefaultContextBudget
	}
	if o.TopK == 0 {
		o.TopK = DefaultTopK
	}
	if o.DedupThreshold == 0 {
		o.DedupThreshold = DefaultDedupThreshold
	}
	return o
}

// Validate checks option ranges after defaulting.
func (o Options) Validate() error {
	if o.ContextBudget <= 0 {
		return ErrInvalidBudget
	}
	if o.TopK <= 0 {
		return ErrInvalidTopK
	}
	if o.DedupThreshold <= 0 || o.DedupThreshold > 1 {
		return ErrInvalidThreshold
	}
	return nil
}

// Pipeline runs context distillation against an embedder and a retrieval
// gateway. It holds no mutable state between runs.
type Pipeline struct {
	embedder embedder.Embedder
	gateway  store.Store
	opts     Options
}

// New creates a distillation pipeline with explicit configuration.
func New(emb embedder.Embedder, gateway store.Store, opts Options) (*Pipeline, error) {
	if emb == nil || gateway == nil {
		return nil, ErrNilDependency
	}
	opts = opts.withDefaults()
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	return &Pipeline{embedder: emb, gateway: gateway, opts: opts}, nil
}

// Options returns the effective (defaulted) configuration.
func (p *Pipeline) Options() Options {
	return p.opts
}

// Distill performs one full run: retrieve, score, rank, dedup, compress,
// pack, report. Exactly two embedding calls occur: one for the query and one
// batched call for all retrieved chunk texts.
//
// Gateway or embedding failures abort the run. Zero candidates is a terminal
// success state yielding an all-zero result with empty context.
func (p *Pipeline) Distill(ctx context.Context, query string) (*types.DistillResult, error) {
	queryEmb, err := p.embedder.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: query})
	if err != nil {
		return nil, fmt.Errorf("%w: query: %v", types.ErrEmbeddingFailed, err)
	}

	candidates, err := p.gateway.Search(ctx, queryEmb.Vector, p.opts.TopK)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", types.ErrRetrievalFailed, err)
	}

	if len(candidates) == 0 {
		return &types.DistillResult{}, nil
	}

	terms := ExtractTerms(query)
	chunks := scoreCandidates(candidates, terms)
	rank(chunks)

	// Chunk embeddings must line up index-for-index with the ranked list,
	// so texts are collected after sorting.
	texts := make([]string, len(chunks))
	for i, chunk := range chunks {
		texts[i] = chunk.Text
	}
	batch, err := p.embedder.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{Texts: texts})
	if err != nil {
		return nil, fmt.Errorf("%w: chunk batch: %v", types.ErrEmbeddingFailed, err)
	}
	if len(batch.Embeddings) != len(chunks) {
		return nil, fmt.Errorf("%w: got %d embeddings for %d chunks",
			types.ErrEmbeddingFailed, len(batch.Embeddings), len(chunks))
	}
	vectors := make([][]float32, len(chunks))
	for i, emb := range batch.Embeddings {
		vectors[i] = emb.Vector
	}

	deduped := removeRedundant(chunks, vectors, p.opts.DedupThreshold)

	packed, originalTokens, distilledTokens := pack(deduped, p.opts.ContextBudget)

	ratio := 0.0
	if originalTokens > 0 {
		ratio = 1.0 - float64(distilledTokens)/float64(originalTokens)
	}

	return &types.DistillResult{
		Context:          packed,
		OriginalTokens:   originalTokens,
		DistilledTokens:  distilledTokens,
		CompressionRatio: ratio,
		ChunksRetrieved:  len(chunks),
		ChunksAfterDedup: len(deduped),
	}, nil
}
