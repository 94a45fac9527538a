package store

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"github.com/ghostlib/ghost/pkg/types"
)

// SQLiteStore persists points in a local SQLite database and ranks search
// candidates with brute-force cosine similarity computed in Go.
type SQLiteStore struct {
	db   *sql.DB
	path string
}

// NewSQLiteStore opens (or creates) the database at path and applies
// pending migrations.
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	if path == "" {
		return nil, fmt.Errorf("database path is required")
	}

	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := openDatabase(path)
	if err != nil {
		return nil, err
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	return &SQLiteStore{db: db, path: path}, nil
}

// openDatabase opens a SQLite connection with the pragmas we rely on.
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	db.SetMaxOpenConns(1) // SQLite benefits from single writer
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// EnsureReady verifies the database is reachable. The dimension is not
// enforced at the schema level; mismatched vectors are skipped at search
// time.
func (s *SQLiteStore) EnsureReady(ctx context.Context, dimension int) error {
	if dimension <= 0 {
		return fmt.Errorf("invalid vector dimension: %d", dimension)
	}
	if err := s.db.PingContext(ctx); err != nil {
		return fmt.Errorf("database not reachable: %w", err)
	}
	return nil
}

// Upsert inserts or replaces points in a single transaction.
func (s *SQLiteStore) Upsert(ctx context.Context, points []types.Point) error {
	if len(points) == 0 {
		return nil
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	stmt, err := tx.PrepareContext(ctx, `
		INSERT OR REPLACE INTO points (id, filename, section, chunk_index, text, vector, dimension)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("failed to prepare upsert: %w", err)
	}
	defer func() { _ = stmt.Close() }()

	for _, point := range points {
		filename, _ := point.Payload[types.PayloadFilename].(string)
		section, _ := point.Payload[types.PayloadSection].(string)
		text, _ := point.Payload[types.PayloadText].(string)
		chunkIndex := 0
		switch v := point.Payload[types.PayloadChunkIndex].(type) {
		case int:
			chunkIndex = v
		case int64:
			chunkIndex = int(v)
		case float64:
			chunkIndex = int(v)
		}

		_, err := stmt.ExecContext(ctx,
			point.ID, filename, section, chunkIndex, text,
			serializeVector(point.Vector), len(point.Vector))
		if err != nil {
			return fmt.Errorf("failed to upsert point %s: %w", point.ID, err)
		}
	}

	return tx.Commit()
}

// Search scans all stored points, ranks them by cosine similarity against
// the query vector, and returns the top limit candidates. Points whose
// dimension does not match the query are skipped.
func (s *SQLiteStore) Search(ctx context.Context, vector []float32, limit int) ([]types.Candidate, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT filename, section, chunk_index, text, vector FROM points")
	if err != nil {
		return nil, fmt.Errorf("failed to query points: %w", err)
	}
	defer func() { _ = rows.Close() }()

	candidates := make([]types.Candidate, 0, 256)
	for rows.Next() {
		var filename, section, text string
		var chunkIndex int
		var blob []byte
		if err := rows.Scan(&filename, &section, &chunkIndex, &text, &blob); err != nil {
			return nil, fmt.Errorf("failed to scan point: %w", err)
		}

		stored := deserializeVector(blob)
		if len(stored) != len(vector) {
			continue // dimension mismatch, skip
		}

		candidates = append(candidates, types.Candidate{
			Score: cosineSimilarity(vector, stored),
			Payload: map[string]interface{}{
				types.PayloadText:       text,
				types.PayloadSection:    section,
				types.PayloadFilename:   filename,
				types.PayloadChunkIndex: chunkIndex,
			},
		})
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	sortCandidates(candidates)
	return topCandidates(candidates, limit), nil
}

// ListDocuments returns per-file chunk counts, sorted by filename.
func (s *SQLiteStore) ListDocuments(ctx context.Context) ([]types.DocumentInfo, error) {
	rows, err := s.db.QueryContext(ctx,
		"SELECT filename, COUNT(*) FROM points GROUP BY filename ORDER BY filename")
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	docs := make([]types.DocumentInfo, 0)
	for rows.Next() {
		var doc types.DocumentInfo
		if err := rows.Scan(&doc.Filename, &doc.Chunks); err != nil {
			return nil, fmt.Errorf("failed to scan document: %w", err)
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

// DeleteDocument removes all points for filename and reports how many
// were deleted. Deleting an unknown filename returns types.ErrNotFound.
func (s *SQLiteStore) DeleteDocument(ctx context.Context, filename string) (int, error) {
	result, err := s.db.ExecContext(ctx, "DELETE FROM points WHERE filename = ?", filename)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, fmt.Errorf("%w: %s", types.ErrNotFound, filename)
	}
	return int(affected), nil
}

// Count returns the total number of stored points.
func (s *SQLiteStore) Count(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM points").Scan(&count); err != nil {
		return 0, fmt.Errorf("failed to count points: %w", err)
	}
	return count, nil
}

// Close closes the underlying database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
