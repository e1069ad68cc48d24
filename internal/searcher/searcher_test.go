package searcher

import (
	"context"
	"errors"
	"strconv"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dshills/kbcontext-mcp/internal/embedder"
	"github.com/dshills/kbcontext-mcp/internal/ingest"
	"github.com/dshills/kbcontext-mcp/internal/storage"
	"github.com/dshills/kbcontext-mcp/pkg/types"
)

// mockEmbedder returns fixed vectors for known texts and hash vectors otherwise
type mockEmbedder struct {
	vectors   map[string][]float32
	fallback  *embedder.HashProvider
	dimension int
	err       error
}

func newMockEmbedder(dimension int) *mockEmbedder {
	return &mockEmbedder{
		vectors:   make(map[string][]float32),
		fallback:  embedder.NewHashProvider(dimension, nil),
		dimension: dimension,
	}
}

func (m *mockEmbedder) GenerateEmbedding(ctx context.Context, req embedder.EmbeddingRequest) (*embedder.Embedding, error) {
	if m.err != nil {
		return nil, m.err
	}
	if v, ok := m.vectors[req.Text]; ok {
		return &embedder.Embedding{Vector: v, Dimension: len(v), Provider: "mock", Model: "mock-model"}, nil
	}
	return m.fallback.GenerateEmbedding(ctx, req)
}

func (m *mockEmbedder) GenerateBatch(ctx context.Context, req embedder.BatchEmbeddingRequest) (*embedder.BatchEmbeddingResponse, error) {
	resp := &embedder.BatchEmbeddingResponse{Provider: "mock", Model: "mock-model"}
	for _, text := range req.Texts {
		emb, err := m.GenerateEmbedding(ctx, embedder.EmbeddingRequest{Text: text})
		if err != nil {
			return nil, err
		}
		resp.Embeddings = append(resp.Embeddings, emb)
	}
	return resp, nil
}

func (m *mockEmbedder) Dimension() int   { return m.dimension }
func (m *mockEmbedder) Provider() string { return "mock" }
func (m *mockEmbedder) Model() string    { return "mock-model" }
func (m *mockEmbedder) Close() error     { return nil }

// setupTestSearcher creates a searcher with in-memory storage and mock embedder
func setupTestSearcher(t *testing.T, dimension int) (*Searcher, *storage.SQLiteStorage, *mockEmbedder) {
	t.Helper()

	store, err := storage.NewSQLiteStorage(":memory:")
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	emb := newMockEmbedder(dimension)
	return NewSearcher(store, emb), store, emb
}

// addRow stores a single-row document with an explicit embedding
func addRow(t *testing.T, store storage.Storage, tenant, name, text string, vector []float32, kbs ...string) *storage.Document {
	t.Helper()
	doc := &storage.Document{
		TenantID:         tenant,
		Name:             name,
		SourceFilename:   name + ".txt",
		KnowledgeBaseIDs: kbs,
		TotalChunks:      1,
		ChunkText:        text,
		Embedding:        vector,
	}
	require.NoError(t, store.CreateDocument(context.Background(), doc))
	return doc
}

func resultIDs(results []types.SearchResult) []string {
	ids := make([]string, len(results))
	for i, r := range results {
		ids[i] = r.ID
	}
	return ids
}

func TestClampLimit(t *testing.T) {
	tests := []struct {
		in, want int
	}{
		{-5, DefaultLimit},
		{0, DefaultLimit},
		{1, 1},
		{50, 50},
		{100, 100},
		{101, 100},
		{1000, 100},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, ClampLimit(tt.in), "limit %d", tt.in)
	}
}

func TestValidateRequest(t *testing.T) {
	tests := []struct {
		name    string
		req     SearchRequest
		wantErr bool
	}{
		{"valid", SearchRequest{TenantID: "acme", Query: "q"}, false},
		{"missing tenant", SearchRequest{Query: "q"}, true},
		{"blank query", SearchRequest{TenantID: "acme", Query: "  "}, true},
		{"blank knowledge base", SearchRequest{TenantID: "acme", Query: "q", KnowledgeBaseIDs: []string{""}}, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := tt.req
			err := validateRequest(&req)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidRequest)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, DefaultLimit, req.Limit)
		})
	}
}

func TestSearch_ArticleInChunk(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 8)
	ctx := context.Background()
	pipeline := ingest.New(store, emb, nil)

	// 5 chunks; the reference sits in chunk 3 and outside every overlap
	body := strings.Repeat("x", 9400) + " Art. 77 trata do tema " + strings.Repeat("y", 3600)
	result, err := pipeline.Ingest(ctx, ingest.IngestRequest{
		TenantID:       "acme",
		Name:           "Codigo",
		SourceFilename: "codigo.txt",
		Content:        body,
	})
	require.NoError(t, err)
	require.Equal(t, 5, result.TotalChunks)
	require.Equal(t, 5, result.PersistedChunks)

	for _, name := range []string{"Outro", "Mais um"} {
		_, err := pipeline.Ingest(ctx, ingest.IngestRequest{
			TenantID: "acme", Name: name, SourceFilename: name + ".txt", Content: "nothing relevant",
		})
		require.NoError(t, err)
	}

	resp, err := s.Search(ctx, SearchRequest{TenantID: "acme", Query: "O que diz o Art. 77?"})
	require.NoError(t, err)

	assert.Equal(t, []string{"Art. 77"}, resp.Terms)
	assert.Equal(t, 1, resp.LexicalResults)
	require.NotEmpty(t, resp.Results)

	top := resp.Results[0]
	assert.Equal(t, result.Root.Chunks[3].ID, top.ID)
	assert.Equal(t, 3, top.ChunkIndex)
	assert.Equal(t, 5, top.TotalChunks)
	require.NotNil(t, top.ParentID)
	assert.Equal(t, result.Root.ID, *top.ParentID)
	assert.True(t, top.TextMatch)
	assert.Equal(t, "Art. 77", top.MatchedTerm)
	assert.InDelta(t, types.LexicalScore(top.Similarity), top.CombinedScore, 1e-12)
	assert.LessOrEqual(t, len([]rune(top.ChunkText)), types.PreviewLength)
	assert.NoError(t, top.Validate())

	for _, r := range resp.Results[1:] {
		assert.False(t, r.TextMatch)
		assert.Empty(t, r.MatchedTerm)
		assert.NoError(t, r.Validate())
	}
}

func TestSearch_LexicalOutranksSemantic(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 2)
	ctx := context.Background()

	query := "what does art. 5 say"
	emb.vectors[query] = []float32{1, 0}

	lexical := addRow(t, store, "acme", "lex", "see Art. 5 for details", []float32{0, 1})
	opposite := addRow(t, store, "acme", "opposite", "art. 5 again", []float32{-1, 0})
	semantic := addRow(t, store, "acme", "sem", "exactly the query topic", []float32{1, 0})

	resp, err := s.Search(ctx, SearchRequest{TenantID: "acme", Query: query})
	require.NoError(t, err)
	require.Len(t, resp.Results, 3)

	assert.Equal(t, []string{lexical.ID, opposite.ID, semantic.ID}, resultIDs(resp.Results))

	assert.InDelta(t, 1.0, resp.Results[0].CombinedScore, 1e-9)
	assert.InDelta(t, 0.5, resp.Results[1].CombinedScore, 1e-9)
	assert.InDelta(t, -1.0, resp.Results[1].Similarity, 1e-9)
	assert.InDelta(t, 0.5, resp.Results[2].CombinedScore, 1e-9)
	assert.InDelta(t, 1.0, resp.Results[2].Similarity, 1e-9)
	assert.False(t, resp.Results[2].TextMatch)
}

func TestSearch_SemanticOnly(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 2)
	ctx := context.Background()

	query := "vacation policy"
	emb.vectors[query] = []float32{1, 0}

	addRow(t, store, "acme", "far", "far", []float32{0, 1})
	addRow(t, store, "acme", "near", "near", []float32{1, 0.1})
	addRow(t, store, "acme", "mid", "mid", []float32{1, 1})

	resp, err := s.Search(ctx, SearchRequest{TenantID: "acme", Query: query, Limit: 2})
	require.NoError(t, err)

	assert.Empty(t, resp.Terms)
	assert.Zero(t, resp.LexicalResults)
	require.Len(t, resp.Results, 2)
	assert.Equal(t, "near", resp.Results[0].Name)
	assert.Equal(t, "mid", resp.Results[1].Name)
	for _, r := range resp.Results {
		assert.False(t, r.TextMatch)
		assert.InDelta(t, types.SemanticScore(r.Similarity), r.CombinedScore, 1e-12)
	}
}

func TestSearch_SemanticPoolBounds(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 2)
	ctx := context.Background()
	emb.vectors["q"] = []float32{1, 0}

	for i := 0; i < 20; i++ {
		addRow(t, store, "acme", "doc-"+string(rune('a'+i)), "text", []float32{1, float32(i)})
	}

	resp, err := s.Search(ctx, SearchRequest{TenantID: "acme", Query: "q", Limit: 3})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 3)
	assert.Equal(t, 3*SemanticKeepFactor, resp.SemanticResults)
}

func TestSearch_LexicalTermCap(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 2)
	ctx := context.Background()
	emb.vectors["art. 5"] = []float32{1, 0}

	for i := 0; i < LexicalTermCap+5; i++ {
		addRow(t, store, "acme", "doc-"+strconv.Itoa(i), "ver Art. 5 aqui", []float32{1, float32(i)})
	}

	resp, err := s.Search(ctx, SearchRequest{TenantID: "acme", Query: "art. 5", Limit: 100})
	require.NoError(t, err)

	assert.Equal(t, LexicalTermCap, resp.LexicalResults)
	assert.Equal(t, 5, resp.SemanticResults)
	require.Len(t, resp.Results, LexicalTermCap+5)
	for i, r := range resp.Results {
		assert.Equal(t, i < LexicalTermCap, r.TextMatch, "result %d", i)
	}
}

func TestSearch_ExplicitTerms(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 2)
	ctx := context.Background()
	emb.vectors["anything"] = []float32{1, 0}

	both := addRow(t, store, "acme", "both", "alpha and beta", []float32{1, 0})
	beta := addRow(t, store, "acme", "beta", "only beta", []float32{1, 0})

	resp, err := s.Search(ctx, SearchRequest{
		TenantID:    "acme",
		Query:       "anything",
		SearchTerms: []string{" alpha ", "", "ALPHA", "beta"},
	})
	require.NoError(t, err)

	assert.Equal(t, []string{"alpha", "beta"}, resp.Terms)
	assert.Equal(t, 2, resp.LexicalResults)

	byID := make(map[string]types.SearchResult)
	for _, r := range resp.Results {
		byID[r.ID] = r
	}
	// A row matched by an earlier term keeps that term
	assert.Equal(t, "alpha", byID[both.ID].MatchedTerm)
	assert.Equal(t, "beta", byID[beta.ID].MatchedTerm)
}

func TestSearch_Scoping(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 2)
	ctx := context.Background()
	emb.vectors["Art. 9"] = []float32{1, 0}

	inKB := addRow(t, store, "acme", "in", "Art. 9 in kb1", []float32{1, 0}, "kb1")
	addRow(t, store, "acme", "out", "Art. 9 in kb2", []float32{1, 0}, "kb2")
	addRow(t, store, "globex", "foreign", "Art. 9 elsewhere", []float32{1, 0}, "kb1")
	gone := addRow(t, store, "acme", "gone", "Art. 9 deleted", []float32{1, 0}, "kb1")

	_, err := store.SoftDeleteDocument(ctx, "acme", gone.ID)
	require.NoError(t, err)

	resp, err := s.Search(ctx, SearchRequest{TenantID: "acme", Query: "Art. 9", KnowledgeBaseIDs: []string{"kb1"}})
	require.NoError(t, err)
	assert.Equal(t, []string{inKB.ID}, resultIDs(resp.Results))

	resp, err = s.Search(ctx, SearchRequest{TenantID: "acme", Query: "Art. 9"})
	require.NoError(t, err)
	assert.Len(t, resp.Results, 2)
	for _, r := range resp.Results {
		assert.NotEqual(t, gone.ID, r.ID)
	}
}

func TestSearch_SkipsUnusableEmbeddings(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 2)
	ctx := context.Background()
	emb.vectors["Art. 3"] = []float32{1, 0}

	good := addRow(t, store, "acme", "good", "Art. 3 good", []float32{1, 0})
	addRow(t, store, "acme", "bare", "Art. 3 bare", nil)
	addRow(t, store, "acme", "wide", "Art. 3 wide", []float32{1, 0, 0})

	resp, err := s.Search(ctx, SearchRequest{TenantID: "acme", Query: "Art. 3"})
	require.NoError(t, err)
	assert.Equal(t, []string{good.ID}, resultIDs(resp.Results))
}

func TestSearch_EmbeddingFailure(t *testing.T) {
	s, store, emb := setupTestSearcher(t, 2)
	addRow(t, store, "acme", "doc", "Art. 1", []float32{1, 0})
	emb.err = embedder.ErrProviderFailed

	_, err := s.Search(context.Background(), SearchRequest{TenantID: "acme", Query: "Art. 1"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrEmbeddingFailed))
	assert.True(t, errors.Is(err, embedder.ErrProviderFailed))
}

func TestSearch_InvalidRequest(t *testing.T) {
	s, _, _ := setupTestSearcher(t, 2)

	_, err := s.Search(context.Background(), SearchRequest{Query: "q"})
	assert.ErrorIs(t, err, ErrInvalidRequest)

	nilEmbedder := NewSearcher(nil, nil)
	_, err = nilEmbedder.Search(context.Background(), SearchRequest{TenantID: "acme", Query: "q"})
	assert.Error(t, err)
}

func TestSearch_EmptyStore(t *testing.T) {
	s, _, _ := setupTestSearcher(t, 2)

	resp, err := s.Search(context.Background(), SearchRequest{TenantID: "acme", Query: "Art. 1"})
	require.NoError(t, err)
	assert.Empty(t, resp.Results)
	assert.Zero(t, resp.TotalResults)
}

func TestMerge(t *testing.T) {
	lexical := []types.SearchResult{
		{ID: "l1", Similarity: 0.2, CombinedScore: types.LexicalScore(0.2), TextMatch: true, MatchedTerm: "t"},
		{ID: "l2", Similarity: 0.9, CombinedScore: types.LexicalScore(0.9), TextMatch: true, MatchedTerm: "t"},
		{ID: "l3", Similarity: -1, CombinedScore: types.LexicalScore(-1), TextMatch: true, MatchedTerm: "t"},
	}
	semantic := []types.SearchResult{
		{ID: "s1", Similarity: 1, CombinedScore: types.SemanticScore(1)},
		{ID: "s2", Similarity: 0.5, CombinedScore: types.SemanticScore(0.5), ChunkIndex: 2},
		{ID: "s3", Similarity: 0.5, CombinedScore: types.SemanticScore(0.5), ChunkIndex: 1},
	}

	merged := Merge(lexical, semantic, 10)
	assert.Equal(t, []string{"l2", "l1", "l3", "s1", "s3", "s2"}, resultIDs(merged))

	assert.Len(t, Merge(lexical, semantic, 2), 2)
	assert.Empty(t, Merge(nil, nil, 5))
}

func TestMerge_TiesByID(t *testing.T) {
	semantic := []types.SearchResult{
		{ID: "b", Similarity: 0.3, CombinedScore: 0.15},
		{ID: "a", Similarity: 0.3, CombinedScore: 0.15},
	}
	assert.Equal(t, []string{"a", "b"}, resultIDs(Merge(nil, semantic, 10)))
}
