package ingest

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"github.com/ghostlib/ghost/internal/embedder"
	"github.com/ghostlib/ghost/internal/store"
	"github.com/ghostlib/ghost/internal/textproc"
	"github.com/ghostlib/ghost/pkg/types"
)

// Defaults for the ingestion pipeline.
const (
	DefaultEmbedBatchSize = 32
	DefaultConcurrency    = 4
)

// Options configures one Ingester.
type Options struct {
	// MaxChunkChars bounds chunk size; zero means DefaultMaxChunkChars.
	MaxChunkChars int
	// BatchSize is how many chunk texts go into one embedding call.
	BatchSize int
	// Concurrency bounds how many embedding batches run at once.
	Concurrency int
}

func (o Options) withDefaults() Options {
	if o.MaxChunkChars == 0 {
		o.MaxChunkChars = DefaultMaxChunkChars
	}
	if o.BatchSize <= 0 {
		o.BatchSize = DefaultEmbedBatchSize
	}
	if o.Concurrency <= 0 {
		o.Concurrency = DefaultConcurrency
	}
	return o
}

// Ingester reads, chunks, embeds and stores documents.
type Ingester struct {
	embedder embedder.Embedder
	gateway  store.Store
	opts     Options
}

// New creates an ingester. Both dependencies are required.
func New(emb embedder.Embedder, gateway store.Store, opts Options) (*Ingester, error) {
	if emb == nil || gateway == nil {
		return nil, fmt.Errorf("embedder and store are required")
	}
	return &Ingester{embedder: emb, gateway: gateway, opts: opts.withDefaults()}, nil
}

// IngestFile processes one document end to end and reports what was stored.
// The document is keyed by its base filename; re-ingesting the same name
// adds fresh points alongside any it stored before.
func (i *Ingester) IngestFile(ctx context.Context, path string) (*types.IngestStats, error) {
	raw, err := ReadDocument(path)
	if err != nil {
		return nil, err
	}
	return i.IngestText(ctx, filepath.Base(path), raw)
}

// IngestText chunks, embeds and stores already-loaded document text under
// the given filename.
func (i *Ingester) IngestText(ctx context.Context, filename, raw string) (*types.IngestStats, error) {
	normalized := textproc.Normalize(raw)
	if normalized == "" {
		return nil, fmt.Errorf("%w: %s", types.ErrEmptyDocument, filename)
	}

	sections := textproc.ExtractMarkdownSections(normalized)
	chunks := SplitSections(sections, i.opts.MaxChunkChars)
	if len(chunks) == 0 {
		return nil, fmt.Errorf("%w: %s", types.ErrEmptyDocument, filename)
	}

	if err := i.gateway.EnsureReady(ctx, i.embedder.Dimension()); err != nil {
		return nil, fmt.Errorf("store not ready: %w", err)
	}

	points, batches, err := i.embedChunks(ctx, filename, chunks)
	if err != nil {
		return nil, err
	}

	if err := i.gateway.Upsert(ctx, points); err != nil {
		return nil, fmt.Errorf("failed to store %s: %w", filename, err)
	}

	tokens := 0
	for _, chunk := range chunks {
		tokens += textproc.EstimateTokens(chunk.Text)
	}

	return &types.IngestStats{
		Filename:     filename,
		Chunks:       len(chunks),
		Sections:     len(sections),
		TokensEst:    tokens,
		EmbedBatches: batches,
	}, nil
}

// embedChunks embeds chunk texts in batches, running up to Concurrency
// batches in parallel. Points come back in chunk order regardless of which
// batch finished first.
func (i *Ingester) embedChunks(ctx context.Context, filename string, chunks []Chunk) ([]types.Point, int, error) {
	points := make([]types.Point, len(chunks))
	batchSize := i.opts.BatchSize

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(i.opts.Concurrency)

	batches := 0
	for start := 0; start < len(chunks); start += batchSize {
		end := start + batchSize
		if end > len(chunks) {
			end = len(chunks)
		}
		batches++

		g.Go(func() error {
			texts := make([]string, end-start)
			for j := start; j < end; j++ {
				texts[j-start] = chunks[j].Text
			}

			resp, err := i.embedder.GenerateBatch(gctx, embedder.BatchEmbeddingRequest{Texts: texts})
			if err != nil {
				return fmt.Errorf("%w: batch %d-%d: %v", types.ErrEmbeddingFailed, start, end, err)
			}
			if len(resp.Embeddings) != end-start {
				return fmt.Errorf("%w: got %d embeddings for %d texts",
					types.ErrEmbeddingFailed, len(resp.Embeddings), end-start)
			}

			for j := start; j < end; j++ {
				points[j] = types.Point{
					ID:     uuid.NewString(),
					Vector: resp.Embeddings[j-start].Vector,
					Payload: map[string]interface{}{
						types.PayloadText:       chunks[j].Text,
						types.PayloadSection:    chunks[j].Section,
						types.PayloadFilename:   filename,
						types.PayloadChunkIndex: chunks[j].Index,
					},
				}
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return nil, 0, err
	}
	return points, batches, nil
}
