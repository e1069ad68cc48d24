// Package searcher implements hybrid retrieval over tenant chunks, combining
// exact term matches with embedding similarity.
//
// # Basic Usage
//
//	s := searcher.NewSearcher(store, emb)
//
//	resp, err := s.Search(ctx, searcher.SearchRequest{
//	    TenantID: "acme",
//	    Query:    "O que diz o Art. 77?",
//	    Limit:    10,
//	})
//
//	for _, r := range resp.Results {
//	    fmt.Printf("%s #%d (score: %.2f)\n", r.Name, r.ChunkIndex, r.CombinedScore)
//	}
//
// # Terms
//
// Lexical terms come from SearchRequest.SearchTerms when given. Otherwise
// statute references are extracted from the query: article references such as
// "Art. 77" or "artigo 12" and law numbers such as "Lei Complementar 123".
// A query without references is answered by the semantic phase alone.
//
// # Ranking
//
// Lexical phase: each term is matched case-insensitively against chunk text,
// at most 20 rows per term. Matches score 1.0 + 0.5 × similarity.
//
// Semantic phase: the limit × 3 most recent embedded rows not matched lexically
// are scored 0.5 × similarity and the best limit × 2 are kept.
//
// Both lists are merged by combined score and truncated to the limit, so a
// lexical match always ranks above a semantic-only one.
//
// Rows whose embedding is missing, undecodable or of another dimension are
// skipped. A failure to embed the query fails the search with
// ErrEmbeddingFailed.
package searcher
