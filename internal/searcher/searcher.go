package searcher

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"time"

	"github.com/dshills/kbcontext-mcp/internal/embedder"
	"github.com/dshills/kbcontext-mcp/internal/storage"
	"github.com/dshills/kbcontext-mcp/pkg/types"
)

const (
	// DefaultLimit is used when a request has no positive limit
	DefaultLimit = 10
	// MaxLimit caps the number of returned results
	MaxLimit = 100

	// LexicalTermCap bounds the rows fetched per lexical term
	LexicalTermCap = 20
	// SemanticFetchFactor times the limit is the semantic candidate pool
	SemanticFetchFactor = 3
	// SemanticKeepFactor times the limit is kept after semantic ranking
	SemanticKeepFactor = 2
)

var (
	// ErrInvalidRequest is returned for requests missing required fields
	ErrInvalidRequest = errors.New("invalid search request")
	// ErrEmbeddingFailed is returned when the query cannot be embedded
	ErrEmbeddingFailed = errors.New("failed to generate query embedding")
)

// SearchRequest contains parameters for a search operation
type SearchRequest struct {
	TenantID         string
	KnowledgeBaseIDs []string // Optional knowledge base filter
	Query            string
	SearchTerms      []string // Explicit lexical terms; derived from Query when empty
	Limit            int
}

// SearchResponse contains search results and metadata
type SearchResponse struct {
	Results         []types.SearchResult
	TotalResults    int
	Terms           []string // Lexical terms that were searched
	LexicalResults  int
	SemanticResults int
	Duration        time.Duration
}

// Searcher ranks tenant chunks for a query by combining exact term matches
// with embedding similarity
type Searcher struct {
	storage  storage.Storage
	embedder embedder.Embedder
	logger   *slog.Logger
}

// Option configures a Searcher
type Option func(*Searcher)

// WithLogger sets the searcher's logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Searcher) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// NewSearcher creates a new Searcher instance
func NewSearcher(storage storage.Storage, embedder embedder.Embedder, opts ...Option) *Searcher {
	s := &Searcher{
		storage:  storage,
		embedder: embedder,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// Search runs the lexical phase, then the semantic phase, and merges both.
// Every lexical match outranks every semantic-only match.
func (s *Searcher) Search(ctx context.Context, req SearchRequest) (*SearchResponse, error) {
	startTime := time.Now()

	// Validate searcher state
	if s.embedder == nil {
		return nil, fmt.Errorf("embedder not initialized")
	}

	if err := validateRequest(&req); err != nil {
		return nil, err
	}

	terms := ResolveTerms(req.Query, req.SearchTerms)

	queryVector, err := embedder.EmbedText(ctx, s.embedder, req.Query)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", ErrEmbeddingFailed, err)
	}

	scope := storage.Scope{TenantID: req.TenantID, KnowledgeBaseIDs: req.KnowledgeBaseIDs}

	lexical, err := s.lexicalPhase(ctx, scope, terms, queryVector)
	if err != nil {
		return nil, err
	}

	semantic, err := s.semanticPhase(ctx, scope, lexical, queryVector, req.Limit)
	if err != nil {
		return nil, err
	}

	results := Merge(lexical, semantic, req.Limit)

	response := &SearchResponse{
		Results:         results,
		TotalResults:    len(results),
		Terms:           terms,
		LexicalResults:  len(lexical),
		SemanticResults: len(semantic),
		Duration:        time.Since(startTime),
	}

	s.logger.Debug("search completed",
		"tenant", req.TenantID, "terms", len(terms), "lexical", len(lexical),
		"semantic", len(semantic), "results", len(results), "duration", response.Duration)

	return response, nil
}

// lexicalPhase scans chunk text for each term in order. A row matched by an
// earlier term is not added again.
func (s *Searcher) lexicalPhase(ctx context.Context, scope storage.Scope, terms []string, queryVector []float32) ([]types.SearchResult, error) {
	results := make([]types.SearchResult, 0)
	seen := make(map[string]bool)

	for _, term := range terms {
		rows, err := s.storage.SearchText(ctx, scope, term, LexicalTermCap)
		if err != nil {
			return nil, fmt.Errorf("text search for %q: %w", term, err)
		}

		for _, row := range rows {
			if seen[row.ID] || !usableEmbedding(row, queryVector) {
				continue
			}
			seen[row.ID] = true

			result := row.ToSearchResult()
			result.Similarity = storage.CosineSimilarity(queryVector, row.Embedding)
			result.CombinedScore = types.LexicalScore(result.Similarity)
			result.TextMatch = true
			result.MatchedTerm = term
			results = append(results, result)
		}
	}

	return results, nil
}

// semanticPhase ranks recent embedded rows not already matched lexically
func (s *Searcher) semanticPhase(ctx context.Context, scope storage.Scope, lexical []types.SearchResult, queryVector []float32, limit int) ([]types.SearchResult, error) {
	exclude := make([]string, len(lexical))
	for i, r := range lexical {
		exclude[i] = r.ID
	}

	rows, err := s.storage.ListEmbedded(ctx, scope, exclude, limit*SemanticFetchFactor)
	if err != nil {
		return nil, fmt.Errorf("embedding fetch: %w", err)
	}

	results := make([]types.SearchResult, 0, len(rows))
	for _, row := range rows {
		if !usableEmbedding(row, queryVector) {
			continue
		}

		result := row.ToSearchResult()
		result.Similarity = storage.CosineSimilarity(queryVector, row.Embedding)
		result.CombinedScore = types.SemanticScore(result.Similarity)
		results = append(results, result)
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Similarity != results[j].Similarity {
			return results[i].Similarity > results[j].Similarity
		}
		return tieBreak(results[i], results[j])
	})

	if keep := limit * SemanticKeepFactor; len(results) > keep {
		results = results[:keep]
	}
	return results, nil
}

// usableEmbedding reports whether row can be compared with the query vector
func usableEmbedding(row *storage.Document, queryVector []float32) bool {
	return len(row.Embedding) > 0 && len(row.Embedding) == len(queryVector)
}

// Merge concatenates lexical and semantic results, orders them by combined
// score and truncates to limit. Ties fall back to lexical first, then
// similarity, chunk index and id.
func Merge(lexical, semantic []types.SearchResult, limit int) []types.SearchResult {
	merged := make([]types.SearchResult, 0, len(lexical)+len(semantic))
	merged = append(merged, lexical...)
	merged = append(merged, semantic...)

	sort.SliceStable(merged, func(i, j int) bool {
		a, b := merged[i], merged[j]
		if a.CombinedScore != b.CombinedScore {
			return a.CombinedScore > b.CombinedScore
		}
		// A lexical match at similarity -1 ties a semantic one at 1
		if a.TextMatch != b.TextMatch {
			return a.TextMatch
		}
		if a.Similarity != b.Similarity {
			return a.Similarity > b.Similarity
		}
		return tieBreak(a, b)
	})

	if limit >= 0 && len(merged) > limit {
		merged = merged[:limit]
	}
	return merged
}

func tieBreak(a, b types.SearchResult) bool {
	if a.ChunkIndex != b.ChunkIndex {
		return a.ChunkIndex < b.ChunkIndex
	}
	return a.ID < b.ID
}

// validateRequest ensures search request is valid and clamps the limit
func validateRequest(req *SearchRequest) error {
	req.TenantID = strings.TrimSpace(req.TenantID)
	if req.TenantID == "" {
		return fmt.Errorf("%w: tenant_id is required", ErrInvalidRequest)
	}

	if strings.TrimSpace(req.Query) == "" {
		return fmt.Errorf("%w: query cannot be empty", ErrInvalidRequest)
	}

	for i, id := range req.KnowledgeBaseIDs {
		if strings.TrimSpace(id) == "" {
			return fmt.Errorf("%w: knowledge_base_ids[%d] is empty", ErrInvalidRequest, i)
		}
	}

	req.Limit = ClampLimit(req.Limit)
	return nil
}

// ClampLimit maps a requested limit into [1, MaxLimit], defaulting non-positive values
func ClampLimit(limit int) int {
	if limit <= 0 {
		return DefaultLimit
	}
	if limit > MaxLimit {
		return MaxLimit
	}
	return limit
}
