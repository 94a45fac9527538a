// Package distill turns a query and a ranked bag of retrieved chunks into a
// compact, deduplicated, budget-constrained context string.
//
// The pipeline is a single linear pass per run:
//
//	embed query -> search gateway -> hybrid score -> rank -> embed chunks
//	-> dedup -> compress -> pack -> report
//
// # Basic Usage
//
//	p, err := distill.New(emb, gateway, distill.Options{})
//	if err != nil {
//	    log.Fatal(err)
//	}
//
//	result, err := p.Distill(ctx, "how does checkpointing work?")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	fmt.Println(result.Context)
//	fmt.Printf("compressed %d -> %d tokens (%.1f%%)\n",
//	    result.OriginalTokens, result.DistilledTokens,
//	    result.CompressionRatio*100)
//
// # Scoring
//
// Each candidate is scored as a blend of the gateway's vector similarity and
// a local keyword score:
//
//	blended = 0.7*vector_similarity + 0.3*keyword_score
//
// The keyword score averages, over all query terms, tf * (ln(1+count)+1)
// computed against the chunk's own words, clamped to 1.0. The log factor is
// a per-chunk frequency boost, not a corpus-wide inverse document frequency;
// it is kept as-is for reproducibility of results.
//
// # Deduplication
//
// Chunks are walked in rank order. A chunk is dropped when its embedding's
// cosine similarity with any already-kept chunk exceeds the threshold
// (default 0.85), so within a near-duplicate cluster the highest-scored
// member is always the one retained.
//
// # Packing
//
// Compressed chunks are appended as "[section] text" entries until the token
// budget (default 3000) would be exceeded. When the chunk that bursts the
// budget still has more than 50 tokens of headroom, a word-truncated version
// is appended as the final entry. Entries are joined with blank lines.
//
// Token counts everywhere are the ceil(words*1.3) heuristic from the
// textproc package.
//
// # Failure semantics
//
// Gateway and embedding failures abort the run; no partial result is
// produced. An empty retrieval result is not an error: it short-circuits to
// an all-zero DistillResult so the caller can skip generation cheaply.
package distill
