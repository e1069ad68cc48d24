package embedder

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
)

// Sentinel errors. Provider failures are wrapped so callers can match with errors.Is.
var (
	ErrInvalidInput      = errors.New("invalid embedding input")
	ErrEmptyText         = errors.New("empty text")
	ErrProviderFailed    = errors.New("embedding provider failed")
	ErrUnsupportedModel  = errors.New("unsupported embedding provider")
	ErrNoProviderEnabled = errors.New("embedding provider not configured")
	ErrAuthentication    = errors.New("embedding provider rejected credentials")
	ErrInputTooLong      = errors.New("input exceeds provider length limit")
)

// Embedding is one generated vector plus the provider that produced it.
// Hash is the cache key the vector was stored under.
type Embedding struct {
	Vector    []float32
	Dimension int
	Provider  string
	Model     string
	Hash      string
}

// EmbeddingRequest asks for the vector of a single text. Model overrides
// the provider's configured model when set.
type EmbeddingRequest struct {
	Text  string
	Model string
}

// BatchEmbeddingRequest asks for vectors of several texts in one call
type BatchEmbeddingRequest struct {
	Texts []string
	Model string
}

// BatchEmbeddingResponse carries one Embedding per request text, in request order
type BatchEmbeddingResponse struct {
	Embeddings []*Embedding
	Provider   string
	Model      string
}

// Embedder turns document and query text into fixed-length vectors.
// Every vector an Embedder returns has length Dimension().
type Embedder interface {
	GenerateEmbedding(ctx context.Context, req EmbeddingRequest) (*Embedding, error)
	GenerateBatch(ctx context.Context, req BatchEmbeddingRequest) (*BatchEmbeddingResponse, error)
	Dimension() int
	Provider() string
	Model() string
	Close() error
}

// EmbedText returns just the vector for text. Ingestion and search only
// need the numbers, not the metadata.
func EmbedText(ctx context.Context, e Embedder, text string) ([]float32, error) {
	emb, err := e.GenerateEmbedding(ctx, EmbeddingRequest{Text: text})
	if err != nil {
		return nil, err
	}
	return emb.Vector, nil
}

// ComputeHash returns the hex SHA-256 digest of text
func ComputeHash(text string) string {
	sum := sha256.Sum256([]byte(text))
	return hex.EncodeToString(sum[:])
}

// ValidateRequest rejects requests with no text
func ValidateRequest(req EmbeddingRequest) error {
	if req.Text == "" {
		return ErrEmptyText
	}
	return nil
}

// ValidateBatchRequest rejects empty batches and batches holding an empty text
func ValidateBatchRequest(req BatchEmbeddingRequest) error {
	if len(req.Texts) == 0 {
		return fmt.Errorf("%w: empty batch", ErrInvalidInput)
	}
	for i := range req.Texts {
		if req.Texts[i] == "" {
			return fmt.Errorf("%w: empty text at position %d", ErrInvalidInput, i)
		}
	}
	return nil
}
