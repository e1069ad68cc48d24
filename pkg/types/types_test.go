package types

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestRootDocument(t *testing.T) {
	doc := RootDocument{
		ID:          "root",
		TotalChunks: 4,
		Chunks:      []ChunkRef{{0, "root"}, {1, "c1"}, {3, "c3"}},
	}

	assert.True(t, doc.IsChunked())
	assert.False(t, doc.Complete())
	assert.Equal(t, []int{2}, doc.Missing())
	assert.Equal(t, []string{"root", "c1", "c3"}, doc.ChunkIDs())
	assert.NoError(t, doc.Validate())

	single := RootDocument{ID: "only", TotalChunks: 1, Chunks: []ChunkRef{{0, "only"}}}
	assert.False(t, single.IsChunked())
	assert.True(t, single.Complete())
	assert.Empty(t, single.Missing())
}

func TestRootDocument_Validate(t *testing.T) {
	tests := []struct {
		name    string
		doc     RootDocument
		wantErr error
	}{
		{"missing id", RootDocument{TotalChunks: 1}, ErrInvalidDocumentID},
		{"zero total", RootDocument{ID: "r"}, ErrInvalidTotalChunks},
		{"no chunks", RootDocument{ID: "r", TotalChunks: 2}, ErrRootNotFirstChunk},
		{"root not first", RootDocument{ID: "r", TotalChunks: 2, Chunks: []ChunkRef{{0, "x"}}}, ErrRootNotFirstChunk},
		{"too many", RootDocument{ID: "r", TotalChunks: 1, Chunks: []ChunkRef{{0, "r"}, {1, "a"}}}, ErrInvalidTotalChunks},
		{"out of order", RootDocument{ID: "r", TotalChunks: 3, Chunks: []ChunkRef{{0, "r"}, {2, "b"}, {1, "a"}}}, ErrInvalidChunkIndex},
		{"index out of range", RootDocument{ID: "r", TotalChunks: 2, Chunks: []ChunkRef{{0, "r"}, {2, "b"}}}, ErrInvalidChunkIndex},
		{"blank child id", RootDocument{ID: "r", TotalChunks: 2, Chunks: []ChunkRef{{0, "r"}, {1, ""}}}, ErrInvalidDocumentID},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.ErrorIs(t, tt.doc.Validate(), tt.wantErr)
		})
	}
}

func TestScores(t *testing.T) {
	// Any lexical score is at least any semantic score
	assert.Equal(t, 0.5, LexicalScore(-1))
	assert.Equal(t, 1.5, LexicalScore(1))
	assert.Equal(t, 0.5, SemanticScore(1))
	assert.Equal(t, -0.5, SemanticScore(-1))
	assert.GreaterOrEqual(t, LexicalScore(-1), SemanticScore(1))
}

func TestPreview(t *testing.T) {
	assert.Equal(t, "short", Preview("short"))

	long := strings.Repeat("é", PreviewLength+10)
	p := Preview(long)
	assert.Equal(t, PreviewLength, len([]rune(p)))
	assert.True(t, strings.HasPrefix(long, p))
}

func TestSearchResult_Validate(t *testing.T) {
	valid := SearchResult{ID: "a", TotalChunks: 1, Similarity: 0.3}
	assert.NoError(t, valid.Validate())

	bad := valid
	bad.Similarity = 1.5
	assert.ErrorIs(t, bad.Validate(), ErrInvalidSimilarity)

	bad = valid
	bad.ChunkIndex = 1
	assert.ErrorIs(t, bad.Validate(), ErrInvalidChunkIndex)

	bad = valid
	bad.TextMatch = true
	assert.ErrorIs(t, bad.Validate(), ErrMissingMatchedTerm)

	bad = valid
	bad.ID = ""
	assert.ErrorIs(t, bad.Validate(), ErrInvalidDocumentID)
}

func TestTextChunk(t *testing.T) {
	c := TextChunk{Text: "ação", Index: 0, StartChar: 2, EndChar: 8}
	assert.Equal(t, 4, c.Len())
	assert.Equal(t, 6, c.Span())
	assert.NoError(t, c.Validate())

	assert.ErrorIs(t, (&TextChunk{}).Validate(), ErrEmptyContent)
	assert.Error(t, (&TextChunk{Text: "x", Index: -1, EndChar: 1}).Validate())
	assert.Error(t, (&TextChunk{Text: "x", StartChar: 3, EndChar: 3}).Validate())
}
