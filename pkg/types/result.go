package types

import "time"

const (
	// LexicalBaseScore is the floor of the combined score for lexical matches
	LexicalBaseScore = 1.0

	// SimilarityWeight scales cosine similarity into the combined score
	SimilarityWeight = 0.5

	// PreviewLength is the number of characters of chunk text exposed in results
	PreviewLength = 500
)

// SearchResult represents a single ranked chunk with relevance information
type SearchResult struct {
	// Identification
	ID          string    `json:"id"`
	ParentID    *string   `json:"parent_id"`
	ChunkIndex  int       `json:"chunk_index"`
	TotalChunks int       `json:"total_chunks"`
	CreatedAt   time.Time `json:"created_at"`

	// Metadata
	Name           string `json:"name"`
	Description    string `json:"description"`
	SourceFilename string `json:"source_filename"`
	ChunkText      string `json:"chunk_text"` // First PreviewLength characters

	// Scoring
	Similarity    float64 `json:"similarity"`
	CombinedScore float64 `json:"combined_score"`
	TextMatch     bool    `json:"text_match"`
	MatchedTerm   string  `json:"matched_term,omitempty"`
}

// LexicalScore returns the combined score of a chunk that matched a search term
func LexicalScore(similarity float64) float64 {
	return LexicalBaseScore + similarity*SimilarityWeight
}

// SemanticScore returns the combined score of a semantic-only match
func SemanticScore(similarity float64) float64 {
	return similarity * SimilarityWeight
}

// Preview truncates text to PreviewLength characters
func Preview(text string) string {
	runes := []rune(text)
	if len(runes) <= PreviewLength {
		return text
	}
	return string(runes[:PreviewLength])
}

// Validate checks if the search result is valid
func (sr *SearchResult) Validate() error {
	if sr.ID == "" {
		return ErrInvalidDocumentID
	}

	if sr.ChunkIndex < 0 || sr.TotalChunks < 1 || sr.ChunkIndex >= sr.TotalChunks {
		return ErrInvalidChunkIndex
	}

	if sr.Similarity < -1 || sr.Similarity > 1 {
		return ErrInvalidSimilarity
	}

	if sr.TextMatch && sr.MatchedTerm == "" {
		return ErrMissingMatchedTerm
	}

	return nil
}
