// Package store persists embedded document chunks and serves vector
// similarity search for the distillation pipeline.
//
// Two interchangeable backends implement the Store interface, selected by
// configuration:
//
//   - sqlite: a file-backed store. Vectors are little-endian float32 blobs;
//     search deserializes and ranks by cosine similarity in Go. Brute force,
//     which is fine at library scale (a search touches every stored point
//     once). Two SQLite drivers are available behind build tags: the default
//     pure-Go driver, or mattn/go-sqlite3 with -tags sqlite_cgo.
//
//   - qdrant: a networked ANN-indexed store reached over the Qdrant REST
//     API. The collection is created on first use with cosine distance.
//
// Both return candidates as (similarity, payload) pairs; payload carries
// text, section, filename and chunk_index, all optional by contract.
package store
