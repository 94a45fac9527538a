// Package embedder generates vector embeddings for document chunks and
// queries.
//
// Three providers are available:
//   - ollama: a local Ollama daemon (default model nomic-embed-text, 768 dims)
//   - openai: the OpenAI embeddings API (text-embedding-3-small, 1536 dims)
//   - local: deterministic offline hash vectors (384 dims), for tests and
//     air-gapped machines
//
// All providers share an interface with single and batched generation.
// Batching matters: the distillation pipeline makes exactly one batched call
// per run for all retrieved chunk texts.
//
//	emb, err := embedder.New(embedder.Config{Provider: "ollama"})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: []string{"first chunk", "second chunk"},
//	})
//
// Remote providers retry transient failures with exponential backoff and
// cache results in an LRU keyed by content hash, so re-embedding the same
// chunk text (a common occurrence between ingestion and deduplication) is
// free.
package embedder
