package types

import "fmt"

// ChunkRef points at a persisted row of a document family
type ChunkRef struct {
	Index int
	ID    string
}

// RootDocument is a stored document together with the ordered ids of its chunks.
// The root row doubles as chunk 0, so Chunks[0].ID always equals ID.
type RootDocument struct {
	ID             string
	TenantID       string
	Name           string
	SourceFilename string
	TotalChunks    int
	Chunks         []ChunkRef // Persisted chunks ordered by index
}

// IsChunked reports whether the document was split into child rows
func (r *RootDocument) IsChunked() bool {
	return r.TotalChunks > 1
}

// ChunkIDs returns the persisted chunk ids in index order
func (r *RootDocument) ChunkIDs() []string {
	ids := make([]string, len(r.Chunks))
	for i, c := range r.Chunks {
		ids[i] = c.ID
	}
	return ids
}

// Missing returns the indexes in [0, TotalChunks) with no persisted row
func (r *RootDocument) Missing() []int {
	seen := make(map[int]bool, len(r.Chunks))
	for _, c := range r.Chunks {
		seen[c.Index] = true
	}

	var missing []int
	for i := 0; i < r.TotalChunks; i++ {
		if !seen[i] {
			missing = append(missing, i)
		}
	}
	return missing
}

// Complete reports whether every chunk of the document was persisted
func (r *RootDocument) Complete() bool {
	return len(r.Chunks) == r.TotalChunks
}

// Validate checks the structural invariants of a document family
func (r *RootDocument) Validate() error {
	if r.ID == "" {
		return ErrInvalidDocumentID
	}

	if r.TotalChunks < 1 {
		return ErrInvalidTotalChunks
	}

	if len(r.Chunks) == 0 || r.Chunks[0].Index != 0 || r.Chunks[0].ID != r.ID {
		return ErrRootNotFirstChunk
	}

	if len(r.Chunks) > r.TotalChunks {
		return fmt.Errorf("%w: %d chunks for total %d", ErrInvalidTotalChunks, len(r.Chunks), r.TotalChunks)
	}

	prev := -1
	for _, c := range r.Chunks {
		if c.Index <= prev || c.Index >= r.TotalChunks {
			return fmt.Errorf("%w: index %d", ErrInvalidChunkIndex, c.Index)
		}
		if c.ID == "" {
			return ErrInvalidDocumentID
		}
		prev = c.Index
	}

	return nil
}
