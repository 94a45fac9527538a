package integration

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostlib/ghost/internal/distill"
	"github.com/ghostlib/ghost/internal/ingest"
	"github.com/ghostlib/ghost/internal/store"
)

// newEngine wires a mock embedder, a sqlite store and the ingest/distill
// pair the way the CLI does.
func newEngine(t *testing.T, opts distill.Options) (*MockEmbedder, store.Store, *ingest.Ingester, *distill.Pipeline) {
	t.Helper()

	emb := NewMockEmbedder(64)
	gateway, err := store.NewSQLiteStore(filepath.Join(t.TempDir(), "ghost.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = gateway.Close() })

	ingester, err := ingest.New(emb, gateway, ingest.Options{})
	require.NoError(t, err)

	pipeline, err := distill.New(emb, gateway, opts)
	require.NoError(t, err)

	return emb, gateway, ingester, pipeline
}

func TestFullPipeline(t *testing.T) {
	emb, gateway, ingester, pipeline := newEngine(t, distill.Options{})
	ctx := context.Background()

	doc := `# Replication

The primary ships its write-ahead log to every replica. Replicas apply
log records in order and acknowledge the primary once durable.

# Failover

When the primary misses three heartbeats the oldest replica promotes
itself and fences the old primary.

# Backups

Nightly snapshots are uploaded to object storage and retained for thirty
days.
`
	stats, err := ingester.IngestText(ctx, "ops.md", doc)
	require.NoError(t, err)
	assert.Equal(t, 3, stats.Sections)
	assert.Equal(t, 3, stats.Chunks)

	count, err := gateway.Count(ctx)
	require.NoError(t, err)
	assert.Equal(t, 3, count)

	emb.SingleCalls, emb.BatchCalls = 0, 0

	result, err := pipeline.Distill(ctx, "how does replication work")
	require.NoError(t, err)

	assert.Equal(t, 3, result.ChunksRetrieved)
	assert.Equal(t, 3, result.ChunksAfterDedup)

	// All three sections fit the default budget; entries carry their
	// section labels and are separated by blank lines.
	for _, label := range []string{"[Replication]", "[Failover]", "[Backups]"} {
		assert.Contains(t, result.Context, label)
	}
	assert.Len(t, strings.Split(result.Context, "\n\n"), 3)
	assert.Greater(t, result.OriginalTokens, result.DistilledTokens)
	assert.Greater(t, result.CompressionRatio, 0.0)

	// One query embedding plus one batched chunk embedding per run.
	assert.Equal(t, 1, emb.SingleCalls)
	assert.Equal(t, 1, emb.BatchCalls)
}

func TestPipelineDeduplicatesRepeatedContent(t *testing.T) {
	_, _, ingester, pipeline := newEngine(t, distill.Options{})
	ctx := context.Background()

	// The same paragraph under three headings: identical text embeds to
	// identical vectors, so dedup keeps one.
	para := "Incident response starts with paging the on-call engineer."
	doc := "# First\n\n" + para + "\n\n# Second\n\n" + para + "\n\n# Third\n\n" + para + "\n"

	_, err := ingester.IngestText(ctx, "dup.md", doc)
	require.NoError(t, err)

	result, err := pipeline.Distill(ctx, "incident response paging")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksRetrieved)
	assert.Equal(t, 1, result.ChunksAfterDedup)
	assert.Equal(t, 1, strings.Count(result.Context, "Incident response"))
}

func TestPipelineRespectsBudget(t *testing.T) {
	_, _, ingester, pipeline := newEngine(t, distill.Options{ContextBudget: 60})
	ctx := context.Background()

	var sb strings.Builder
	for i, heading := range []string{"Alpha", "Beta", "Gamma", "Delta"} {
		sb.WriteString("# " + heading + "\n\n")
		sb.WriteString(strings.Repeat(heading+strings.Repeat("x", i)+" unique wording ", 15))
		sb.WriteString("\n\n")
	}
	_, err := ingester.IngestText(ctx, "big.md", sb.String())
	require.NoError(t, err)

	result, err := pipeline.Distill(ctx, "alpha unique wording")
	require.NoError(t, err)

	// A 60-token budget holds one ~59-token chunk; the rest are dropped.
	assert.Equal(t, 1, strings.Count(result.Context, "["))
	assert.Less(t, result.DistilledTokens, result.OriginalTokens)
}

func TestPipelineEmptyStore(t *testing.T) {
	_, _, _, pipeline := newEngine(t, distill.Options{})

	result, err := pipeline.Distill(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Equal(t, "", result.Context)
}

func TestDeleteRemovesFromRetrieval(t *testing.T) {
	_, gateway, ingester, pipeline := newEngine(t, distill.Options{})
	ctx := context.Background()

	_, err := ingester.IngestText(ctx, "gone.md", "# Topic\n\nephemeral knowledge lives here\n")
	require.NoError(t, err)

	deleted, err := gateway.DeleteDocument(ctx, "gone.md")
	require.NoError(t, err)
	assert.Equal(t, 1, deleted)

	result, err := pipeline.Distill(ctx, "ephemeral knowledge")
	require.NoError(t, err)
	assert.True(t, result.Empty())
}
