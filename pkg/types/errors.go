package types

import "errors"

// Pipeline error kinds. Retrieval and embedding failures abort a run with
// no partial result; callers test with errors.Is.
var (
	ErrRetrievalFailed  = errors.New("retrieval failed")
	ErrEmbeddingFailed  = errors.New("embedding failed")
	ErrGenerationFailed = errors.New("generation failed")

	// Ingestion errors
	ErrUnsupportedFormat = errors.New("unsupported file format")
	ErrEmptyDocument     = errors.New("document is empty")

	// Store errors
	ErrNotFound = errors.New("not found")
)
