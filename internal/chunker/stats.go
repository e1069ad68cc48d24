package chunker

import (
	"unicode/utf8"

	"github.com/dshills/kbcontext-mcp/pkg/types"
)

// Stats summarizes a chunk set. Sizes are in characters.
type Stats struct {
	Count      int     `json:"count"`
	AvgSize    float64 `json:"avg_size"`
	MinSize    int     `json:"min_size"`
	MaxSize    int     `json:"max_size"`
	TotalChars int     `json:"total_chars"`
}

// ComputeStats aggregates size metrics over chunks. Empty input yields zero Stats.
func ComputeStats(chunks []types.TextChunk) Stats {
	if len(chunks) == 0 {
		return Stats{}
	}

	s := Stats{Count: len(chunks)}
	for i, c := range chunks {
		size := utf8.RuneCountInString(c.Text)
		s.TotalChars += size
		if i == 0 || size < s.MinSize {
			s.MinSize = size
		}
		if size > s.MaxSize {
			s.MaxSize = size
		}
	}
	s.AvgSize = float64(s.TotalChars) / float64(s.Count)

	return s
}
