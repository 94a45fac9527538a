package types

// Payload keys expected on retrieval candidates. Presence is expected but
// not guaranteed; missing values degrade to defaults rather than failing.
const (
	PayloadText       = "text"
	PayloadSection    = "section"
	PayloadFilename   = "filename"
	PayloadChunkIndex = "chunk_index"

	// DefaultSection is substituted when a candidate carries no section.
	DefaultSection = "(unknown)"
)

// Candidate is the raw output of a retrieval gateway: a vector similarity
// score (nominally in [0,1]) and an opaque payload.
type Candidate struct {
	Score   float64
	Payload map[string]interface{}
}

// Text returns the candidate's text payload, or "" when absent.
func (c Candidate) Text() string {
	return c.stringField(PayloadText, "")
}

// Section returns the candidate's section payload, or "(unknown)" when absent.
func (c Candidate) Section() string {
	return c.stringField(PayloadSection, DefaultSection)
}

// Filename returns the candidate's filename payload, or "" when absent.
func (c Candidate) Filename() string {
	return c.stringField(PayloadFilename, "")
}

func (c Candidate) stringField(key, fallback string) string {
	if v, ok := c.Payload[key].(string); ok {
		return v
	}
	return fallback
}

// ScoredChunk is a retrieval candidate after hybrid scoring. Created once
// per candidate and immutable thereafter.
type ScoredChunk struct {
	Text     string
	Section  string
	Filename string
	Score    float64
}

// Point is a stored chunk: an embedding vector plus its payload. Points are
// what ingestion upserts into a retrieval gateway.
type Point struct {
	ID      string
	Vector  []float32
	Payload map[string]interface{}
}

// DocumentInfo describes one indexed document as reported by a gateway.
type DocumentInfo struct {
	Filename string
	Chunks   int
}

// IngestStats summarizes a single document ingestion.
type IngestStats struct {
	Filename     string
	Chunks       int
	Sections     int
	TokensEst    int
	EmbedBatches int
}

// DistillResult is the terminal output of one distillation run.
//
// CompressionRatio is 1 - distilled/original when OriginalTokens > 0, else
// 0. It can be negative when compression increases the token estimate; that
// is a valid result, not an error.
type DistillResult struct {
	Context          string
	OriginalTokens   int
	DistilledTokens  int
	CompressionRatio float64
	ChunksRetrieved  int
	ChunksAfterDedup int
}

// Empty reports whether the run short-circuited on zero candidates.
func (r DistillResult) Empty() bool {
	return r.ChunksRetrieved == 0
}
