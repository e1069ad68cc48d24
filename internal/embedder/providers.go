package embedder

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/json"
	"fmt"
	"strings"
)

// Provider configuration
const (
	ProviderOpenAI = "openai"
	ProviderHash   = "hash"
	ProviderLocal  = "local" // alias of ProviderHash

	DefaultOpenAIModel = "text-embedding-3-small"
	DefaultHashModel   = "sha256-derived"

	// DefaultDimension is the vector length used by both providers unless configured otherwise
	DefaultDimension = 1536

	// Batch limits
	MaxBatchSize = 2048

	// MaxInputChars is the per-text ceiling applied before calling the provider
	MaxInputChars = 24000

	DefaultCacheSize = 10000

	// Retry configuration
	MaxRetries        = 3
	InitialBackoffMs  = 100
	MaxBackoffMs      = 5000
	BackoffMultiplier = 2.0
)

// Fields that identify a record rather than describe it
var identityFields = []string{"id", "created_at", "updated_at", "embedding"}

// HashProvider derives deterministic pseudo-embeddings from a SHA-256 digest of the
// canonicalized input. It needs no network and is used offline and in tests.
type HashProvider struct {
	dimension int
	cache     *Cache
}

// NewHashProvider creates a hash-based embedder. A dimension <= 0 selects DefaultDimension.
func NewHashProvider(dimension int, cache *Cache) *HashProvider {
	if dimension <= 0 {
		dimension = DefaultDimension
	}
	return &HashProvider{
		dimension: dimension,
		cache:     cache,
	}
}

func (h *HashProvider) GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error) {
	if err := ValidateRequest(req); err != nil {
		return nil, err
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	canonical := Canonicalize(req.Text)
	hash := ComputeHash(canonical)
	if h.cache != nil {
		if emb, ok := h.cache.Get(hash); ok {
			return emb, nil
		}
	}

	emb := &Embedding{
		Vector:    hashVector(canonical, h.dimension),
		Dimension: h.dimension,
		Provider:  ProviderHash,
		Model:     DefaultHashModel,
		Hash:      hash,
	}

	if h.cache != nil {
		h.cache.Set(hash, emb)
	}

	return emb, nil
}

func (h *HashProvider) GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error) {
	if err := ValidateBatchRequest(req); err != nil {
		return nil, err
	}

	embeddings := make([]*Embedding, len(req.Texts))
	for i, text := range req.Texts {
		emb, err := h.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
		if err != nil {
			return nil, fmt.Errorf("embedding text %d: %w", i, err)
		}
		embeddings[i] = emb
	}

	return &BatchEmbeddingResponse{
		Embeddings: embeddings,
		Provider:   ProviderHash,
		Model:      DefaultHashModel,
	}, nil
}

func (h *HashProvider) Dimension() int {
	return h.dimension
}

func (h *HashProvider) Provider() string {
	return ProviderHash
}

func (h *HashProvider) Model() string {
	return DefaultHashModel
}

// Cache returns the provider's embedding cache, nil when uncached
func (h *HashProvider) Cache() *Cache {
	return h.cache
}

func (h *HashProvider) Close() error {
	return nil
}

// hashVector expands sha256(canonical || counter) blocks into dim values in [0,1)
func hashVector(canonical string, dim int) []float32 {
	vector := make([]float32, 0, dim)
	buf := make([]byte, len(canonical)+4)
	copy(buf, canonical)

	for counter := uint32(0); len(vector) < dim; counter++ {
		binary.BigEndian.PutUint32(buf[len(canonical):], counter)
		sum := sha256.Sum256(buf)
		for _, b := range sum {
			if len(vector) == dim {
				break
			}
			vector = append(vector, float32(b)/256.0)
		}
	}

	return vector
}

// Canonicalize produces the stable form hashed by HashProvider. JSON objects lose their
// identity fields, have strings lower-cased and trimmed, and are re-serialized with
// sorted keys. Any other text is lower-cased and trimmed.
func Canonicalize(text string) string {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, "{") {
		dec := json.NewDecoder(strings.NewReader(trimmed))
		dec.UseNumber()

		var obj map[string]any
		if err := dec.Decode(&obj); err == nil && !dec.More() {
			for _, f := range identityFields {
				delete(obj, f)
			}

			var buf bytes.Buffer
			enc := json.NewEncoder(&buf)
			enc.SetEscapeHTML(false)
			if err := enc.Encode(normalizeValue(obj)); err == nil {
				return strings.TrimSpace(buf.String())
			}
		}
	}

	return strings.ToLower(trimmed)
}

func normalizeValue(v any) any {
	switch val := v.(type) {
	case string:
		return strings.ToLower(strings.TrimSpace(val))
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = normalizeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = normalizeValue(item)
		}
		return out
	default:
		return val
	}
}
