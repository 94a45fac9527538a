// Package ingest turns documents on disk into embedded points in the
// retrieval store. A document is read, normalized, split into sections and
// then into bounded chunks, embedded in batches, and upserted under its
// base filename.
package ingest
