// Package embedder generates vector embeddings for document chunks and queries.
//
// Two providers implement the Embedder interface:
//   - openai: the OpenAI embeddings API (or any compatible endpoint) through the
//     official openai-go SDK
//   - hash: deterministic vectors derived from a SHA-256 digest of the canonicalized
//     input, for offline use and tests ("local" is accepted as an alias)
//
// # Basic Usage
//
//	emb, err := embedder.New(embedder.Config{
//	    Provider:  "openai",
//	    APIKey:    os.Getenv("OPENAI_API_KEY"),
//	    CacheSize: 10000,
//	})
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer emb.Close()
//
//	result, err := emb.GenerateEmbedding(ctx, embedder.EmbeddingRequest{
//	    Text: "Art. 77 - O prazo para recurso ...",
//	})
//	fmt.Printf("Vector dimension: %d\n", len(result.Vector))
//
// Build one embedder per process and pass it to both the ingestion pipeline and the
// searcher.
//
// # Batch Processing
//
//	resp, err := emb.GenerateBatch(ctx, embedder.BatchEmbeddingRequest{
//	    Texts: texts,
//	})
//
// Results keep the order of the input texts. The OpenAI provider sends at most
// MaxBatchSize (2048) texts per call and splits larger batches transparently.
//
// # Input Limits
//
// Each text is truncated to MaxInputChars (24,000) characters before it is sent, which
// keeps requests under the model's token budget with a safety margin.
//
// # Errors
//
//   - ErrAuthentication: the provider rejected the API key (401/403)
//   - ErrInputTooLong: the provider rejected an input as too long
//   - ErrProviderFailed: any other upstream failure, after retries
//
// Authentication and length failures are never retried. Other failures are retried
// with exponential backoff (3 attempts, 100ms doubling up to 5s).
//
// # Rate Limiting
//
// OpenAIConfig.RequestsPerSecond enables a token bucket shared by every call the
// provider makes, so concurrent chunk ingestion can't exceed the account's limits.
//
// # Caching
//
// Embeddings are cached in an LRU keyed by SHA-256 of the input:
//
//	cache := embedder.NewCache(10000)
//	provider := embedder.NewHashProvider(1536, cache)
//
// # Deterministic Provider
//
// The hash provider canonicalizes its input before hashing. JSON objects drop the id,
// created_at, updated_at and embedding fields, have string values lower-cased and
// trimmed, and are re-encoded with sorted keys, so the same logical record always
// yields the same vector regardless of key order. Plain text is lower-cased and trimmed.
package embedder
