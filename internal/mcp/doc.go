// Package mcp exposes the distillation engine over the Model Context
// Protocol on stdio.
//
// Five tools are registered:
//
//   - add_document: ingest a markdown, text, rst or pdf file into the store
//   - distill_context: retrieve, rank, dedup and compress chunks for a query
//   - list_documents: enumerate indexed filenames with chunk counts
//   - delete_document: remove every chunk of one document
//   - get_status: report store, embedder and LLM health
//
// Tool results are indented JSON. Failures surface as JSON-RPC errors with
// the codes defined in tools.go. Nothing in this package writes to stdout
// directly; the protocol owns that stream.
package mcp
