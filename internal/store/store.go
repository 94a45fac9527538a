package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/ghostlib/ghost/pkg/types"
)

// Store is the retrieval gateway consumed by ingestion and distillation.
type Store interface {
	// EnsureReady prepares backing storage for vectors of the given
	// dimension. Idempotent.
	EnsureReady(ctx context.Context, dimension int) error

	// Upsert stores points, replacing any with matching IDs.
	Upsert(ctx context.Context, points []types.Point) error

	// Search returns up to limit candidates ordered by vector similarity,
	// best first.
	Search(ctx context.Context, vector []float32, limit int) ([]types.Candidate, error)

	// ListDocuments returns indexed filenames with their chunk counts,
	// sorted by filename.
	ListDocuments(ctx context.Context) ([]types.DocumentInfo, error)

	// DeleteDocument removes all points for a filename and reports how many
	// were removed.
	DeleteDocument(ctx context.Context, filename string) (int, error)

	// Count returns the total number of stored points.
	Count(ctx context.Context) (int, error)

	Close() error
}

// Backend names accepted in configuration.
const (
	BackendSQLite = "sqlite"
	BackendQdrant = "qdrant"
)

// Config selects and configures a backend.
type Config struct {
	Type   string
	Path   string // sqlite database file
	Qdrant QdrantConfig
}

// New builds a store from explicit configuration. An empty type defaults to
// the file-backed sqlite store.
func New(cfg Config) (Store, error) {
	switch strings.ToLower(cfg.Type) {
	case "", BackendSQLite:
		return NewSQLiteStore(cfg.Path)
	case BackendQdrant:
		return NewQdrantStore(cfg.Qdrant)
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Type)
	}
}
