package distill

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ghostlib/ghost/internal/embedder"
	"github.com/ghostlib/ghost/pkg/types"
)

// fakeEmbedder returns canned vectors keyed by text and counts calls.
type fakeEmbedder struct {
	vectors      map[string][]float32
	fallback     []float32
	singleCalls  int
	batchCalls   int
	batchErr     error
	shortBatch   bool
	lastBatchLen int
}

func (f *fakeEmbedder) vectorFor(text string) []float32 {
	if v, ok := f.vectors[text]; ok {
		return v
	}
	if f.fallback != nil {
		return f.fallback
	}
	return []float32{1, 0, 0}
}

func (f *fakeEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	f.singleCalls++
	return &embedder.Embedding{Vector: f.vectorFor(req.Text)}, nil
}

func (f *fakeEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	f.batchCalls++
	f.lastBatchLen = len(req.Texts)
	if f.batchErr != nil {
		return nil, f.batchErr
	}
	n := len(req.Texts)
	if f.shortBatch && n > 0 {
		n--
	}
	embeddings := make([]*embedder.Embedding, n)
	for i := 0; i < n; i++ {
		embeddings[i] = &embedder.Embedding{Vector: f.vectorFor(req.Texts[i])}
	}
	return &embedder.BatchEmbeddingResponse{Embeddings: embeddings}, nil
}

func (f *fakeEmbedder) Dimension() int   { return 3 }
func (f *fakeEmbedder) Provider() string { return "fake" }
func (f *fakeEmbedder) Model() string    { return "fake" }
func (f *fakeEmbedder) Close() error     { return nil }

// fakeGateway serves a fixed candidate list.
type fakeGateway struct {
	candidates []types.Candidate
	searchErr  error
	gotLimit   int
}

func (f *fakeGateway) EnsureReady(ctx context.Context, dimension int) error { return nil }
func (f *fakeGateway) Upsert(ctx context.Context, points []types.Point) error {
	return nil
}
func (f *fakeGateway) Search(ctx context.Context, vector []float32, limit int) ([]types.Candidate, error) {
	f.gotLimit = limit
	if f.searchErr != nil {
		return nil, f.searchErr
	}
	return f.candidates, nil
}
func (f *fakeGateway) ListDocuments(ctx context.Context) ([]types.DocumentInfo, error) {
	return nil, nil
}
func (f *fakeGateway) DeleteDocument(ctx context.Context, filename string) (int, error) {
	return 0, nil
}
func (f *fakeGateway) Count(ctx context.Context) (int, error) { return len(f.candidates), nil }
func (f *fakeGateway) Close() error                           { return nil }

func candidate(score float64, text, section string) types.Candidate {
	return types.Candidate{
		Score: score,
		Payload: map[string]interface{}{
			types.PayloadText:    text,
			types.PayloadSection: section,
		},
	}
}

func TestNewValidation(t *testing.T) {
	emb := &fakeEmbedder{}
	gw := &fakeGateway{}

	_, err := New(nil, gw, Options{})
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = New(emb, nil, Options{})
	assert.ErrorIs(t, err, ErrNilDependency)

	_, err = New(emb, gw, Options{ContextBudget: -1})
	assert.ErrorIs(t, err, ErrInvalidBudget)

	_, err = New(emb, gw, Options{TopK: -5})
	assert.ErrorIs(t, err, ErrInvalidTopK)

	_, err = New(emb, gw, Options{DedupThreshold: 1.5})
	assert.ErrorIs(t, err, ErrInvalidThreshold)

	p, err := New(emb, gw, Options{})
	require.NoError(t, err)
	assert.Equal(t, DefaultContextBudget, p.Options().ContextBudget)
	assert.Equal(t, DefaultTopK, p.Options().TopK)
	assert.Equal(t, DefaultDedupThreshold, p.Options().DedupThreshold)
}

func TestDistillEmptyRetrieval(t *testing.T) {
	emb := &fakeEmbedder{}
	gw := &fakeGateway{}
	p, err := New(emb, gw, Options{TopK: 7})
	require.NoError(t, err)

	result, err := p.Distill(context.Background(), "anything at all")
	require.NoError(t, err)
	assert.True(t, result.Empty())
	assert.Equal(t, "", result.Context)
	assert.Zero(t, result.ChunksRetrieved)
	assert.Zero(t, result.OriginalTokens)

	// The gateway was asked for exactly TopK candidates and the chunk batch
	// was never requested.
	assert.Equal(t, 7, gw.gotLimit)
	assert.Equal(t, 1, emb.singleCalls)
	assert.Equal(t, 0, emb.batchCalls)
}

func TestDistillTwoEmbeddingCalls(t *testing.T) {
	emb := &fakeEmbedder{}
	gw := &fakeGateway{candidates: []types.Candidate{
		candidate(0.9, "kubernetes controllers reconcile desired state", "Controllers"),
		candidate(0.5, "storage classes provision volumes dynamically", "Storage"),
	}}
	p, err := New(emb, gw, Options{})
	require.NoError(t, err)

	result, err := p.Distill(context.Background(), "how do controllers work")
	require.NoError(t, err)

	assert.Equal(t, 1, emb.singleCalls)
	assert.Equal(t, 1, emb.batchCalls)
	assert.Equal(t, 2, emb.lastBatchLen)
	assert.Equal(t, 2, result.ChunksRetrieved)
}

func TestDistillRanking(t *testing.T) {
	// Second candidate has a lower vector score but heavy keyword overlap,
	// enough to outrank the first under the 0.7/0.3 blend.
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			"replication": {1, 0, 0},
		},
		fallback: []float32{0, 1, 0},
	}
	gw := &fakeGateway{candidates: []types.Candidate{
		candidate(0.60, "unrelated prose about weather patterns", "Weather"),
		candidate(0.55, "replication replication replication replication", "Replication"),
	}}
	// Give the two chunks orthogonal vectors so dedup keeps both.
	emb.vectors["unrelated prose about weather patterns"] = []float32{1, 0, 0}
	emb.vectors["replication replication replication replication"] = []float32{0, 1, 0}

	p, err := New(emb, gw, Options{})
	require.NoError(t, err)

	result, err := p.Distill(context.Background(), "replication")
	require.NoError(t, err)
	assert.Equal(t, 2, result.ChunksAfterDedup)

	// keyword score for the second chunk: tf=1, count=4, ln(5)+1 clamps to 1.0
	// so blended = 0.7*0.55 + 0.3*1.0 = 0.685 > 0.7*0.60 = 0.42.
	assert.True(t, strings.HasPrefix(result.Context, "[Replication]"),
		"expected keyword-heavy chunk first, got: %s", result.Context)
}

func TestDistillDedupCollapsesIdenticalEmbeddings(t *testing.T) {
	// All three chunks embed to the same vector; only the top-ranked one
	// survives dedup.
	emb := &fakeEmbedder{fallback: []float32{0.3, 0.4, 0.5}}
	gw := &fakeGateway{candidates: []types.Candidate{
		candidate(0.9, "first copy of the fact", "A"),
		candidate(0.8, "second copy of the fact", "B"),
		candidate(0.7, "third copy of the fact", "C"),
	}}
	p, err := New(emb, gw, Options{})
	require.NoError(t, err)

	result, err := p.Distill(context.Background(), "fact")
	require.NoError(t, err)
	assert.Equal(t, 3, result.ChunksRetrieved)
	assert.Equal(t, 1, result.ChunksAfterDedup)
	assert.True(t, strings.HasPrefix(result.Context, "[A]"))
	assert.NotContains(t, result.Context, "[B]")
}

func TestDistillBudgetDropsOverflow(t *testing.T) {
	// Two 60-word chunks at ~78 tokens each against a budget of 100: the
	// second overflows and the remaining headroom (22) is under the 50-token
	// truncation floor, so it is dropped whole.
	first := strings.TrimSpace(strings.Repeat("zyxwvu ", 60))
	second := strings.TrimSpace(strings.Repeat("qponml ", 60))
	gw := &fakeGateway{candidates: []types.Candidate{
		candidate(0.9, first, "One"),
		candidate(0.8, second, "Two"),
	}}
	emb := &fakeEmbedder{
		vectors: map[string][]float32{
			first:  {1, 0, 0},
			second: {0, 1, 0},
		},
	}
	p, err := New(emb, gw, Options{ContextBudget: 100})
	require.NoError(t, err)

	result, err := p.Distill(context.Background(), "zyxwvu")
	require.NoError(t, err)
	assert.Contains(t, result.Context, "[One]")
	assert.NotContains(t, result.Context, "[Two]")
	assert.Equal(t, 2, result.ChunksAfterDedup)
	assert.LessOrEqual(t, result.DistilledTokens, 100)

	// Both chunks were attempted, so both contribute to originalTokens.
	assert.Equal(t, 78+78, result.OriginalTokens)
	assert.Greater(t, result.CompressionRatio, 0.0)
}

func TestDistillErrorWrapping(t *testing.T) {
	emb := &fakeEmbedder{}
	gw := &fakeGateway{searchErr: errors.New("connection refused")}
	p, err := New(emb, gw, Options{})
	require.NoError(t, err)

	_, err = p.Distill(context.Background(), "query")
	assert.ErrorIs(t, err, types.ErrRetrievalFailed)

	gw2 := &fakeGateway{candidates: []types.Candidate{candidate(0.9, "text here now", "S")}}
	emb2 := &fakeEmbedder{batchErr: errors.New("model unavailable")}
	p2, err := New(emb2, gw2, Options{})
	require.NoError(t, err)

	_, err = p2.Distill(context.Background(), "query")
	assert.ErrorIs(t, err, types.ErrEmbeddingFailed)
}

func TestDistillRejectsShortBatch(t *testing.T) {
	gw := &fakeGateway{candidates: []types.Candidate{
		candidate(0.9, "alpha text body", "A"),
		candidate(0.8, "beta text body", "B"),
	}}
	emb := &fakeEmbedder{shortBatch: true}
	p, err := New(emb, gw, Options{})
	require.NoError(t, err)

	_, err = p.Distill(context.Background(), "query")
	assert.ErrorIs(t, err, types.ErrEmbeddingFailed)
}

func TestExtractTerms(t *testing.T) {
	terms := ExtractTerms("How do I configure TLS, certificates & the CA?")
	assert.Equal(t, []string{"how", "configure", "tls", "certificates", "the"}, terms)

	assert.Empty(t, ExtractTerms(""))
	assert.Empty(t, ExtractTerms("a an it"))
}

func TestKeywordScoreBounds(t *testing.T) {
	assert.Equal(t, 0.0, keywordScore("some text", nil))
	assert.Equal(t, 0.0, keywordScore("", []string{"term"}))
	assert.Equal(t, 0.0, keywordScore("nothing matches here", []string{"zzz"}))

	// Saturated repetition clamps at 1.0.
	repeated := strings.TrimSpace(strings.Repeat("term ", 20))
	assert.Equal(t, 1.0, keywordScore(repeated, []string{"term"}))

	// Single occurrence in a ten-word chunk: (1/10)*(ln 2 + 1).
	score := keywordScore("one two three four five six seven eight nine term", []string{"term"})
	assert.InDelta(t, 0.1*1.6931, score, 1e-3)
}

func TestRankStable(t *testing.T) {
	chunks := []types.ScoredChunk{
		{Text: "a", Score: 0.5},
		{Text: "b", Score: 0.9},
		{Text: "c", Score: 0.5},
	}
	rank(chunks)
	assert.Equal(t, "b", chunks[0].Text)
	assert.Equal(t, "a", chunks[1].Text)
	assert.Equal(t, "c", chunks[2].Text)
}

func TestTruncateToTokens(t *testing.T) {
	text := "one two three four five six seven eight"
	// floor(5/1.3) = 3 words.
	assert.Equal(t, "one two three", truncateToTokens(text, 5))
	// Budget exceeding the text keeps everything.
	assert.Equal(t, text, truncateToTokens(text, 1000))
}

func TestRemoveRedundantStrictThreshold(t *testing.T) {
	chunks := []types.ScoredChunk{
		{Text: "a", Score: 0.9},
		{Text: "b", Score: 0.8},
	}
	same := [][]float32{{1, 0}, {1, 0}}

	// Similarity exactly equal to the threshold is kept; only strictly
	// greater is discarded.
	kept := removeRedundant(chunks, same, 1.0)
	assert.Len(t, kept, 2)

	kept = removeRedundant(chunks, same, 0.85)
	assert.Len(t, kept, 1)
	assert.Equal(t, "a", kept[0].Text)
}
