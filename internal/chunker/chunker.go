package chunker

import (
	"strings"
	"unicode"

	"github.com/dshills/kbcontext-mcp/pkg/types"
)

const (
	// DefaultChunkSize is the target number of characters per chunk
	DefaultChunkSize = 3000

	// DefaultOverlap is the number of characters shared by consecutive chunks
	DefaultOverlap = 300

	// BreakSearchExtension is how far past the naive cutoff a sentence end is looked for
	BreakSearchExtension = 200

	// Accepted breakpoint window, as fractions of the chunk size from the window start
	minBreakRatio = 0.7
	maxBreakRatio = 1.3
)

// Chunker splits text into ordered, overlapping segments that prefer sentence boundaries
type Chunker struct {
	chunkSize int
	overlap   int
}

// Option configures a Chunker
type Option func(*Chunker)

// WithChunkSize sets the target chunk size in characters
func WithChunkSize(size int) Option {
	return func(c *Chunker) {
		c.chunkSize = size
	}
}

// WithOverlap sets the overlap between consecutive chunks in characters
func WithOverlap(overlap int) Option {
	return func(c *Chunker) {
		c.overlap = overlap
	}
}

// New creates a new Chunker instance
func New(opts ...Option) *Chunker {
	c := &Chunker{
		chunkSize: DefaultChunkSize,
		overlap:   DefaultOverlap,
	}

	for _, opt := range opts {
		opt(c)
	}

	c.chunkSize, c.overlap = normalize(c.chunkSize, c.overlap)
	return c
}

// ChunkSize returns the effective chunk size
func (c *Chunker) ChunkSize() int {
	return c.chunkSize
}

// Overlap returns the effective overlap
func (c *Chunker) Overlap() int {
	return c.overlap
}

// Chunk splits text using the chunker's settings
func (c *Chunker) Chunk(text string) []types.TextChunk {
	return split(text, c.chunkSize, c.overlap)
}

// Chunk splits text into segments of roughly chunkSize characters where
// consecutive segments share overlap characters. The result is deterministic.
func Chunk(text string, chunkSize, overlap int) []types.TextChunk {
	chunkSize, overlap = normalize(chunkSize, overlap)
	return split(text, chunkSize, overlap)
}

func normalize(chunkSize, overlap int) (int, int) {
	if chunkSize <= 0 {
		chunkSize = DefaultChunkSize
	}
	if overlap < 0 {
		overlap = 0
	}
	if overlap >= chunkSize {
		overlap = chunkSize / 10
	}
	return chunkSize, overlap
}

func split(text string, chunkSize, overlap int) []types.TextChunk {
	if text == "" {
		return nil
	}

	runes := []rune(text)
	n := len(runes)

	if n <= chunkSize {
		return []types.TextChunk{{
			Text:      text,
			Index:     0,
			StartChar: 0,
			EndChar:   n,
		}}
	}

	chunks := make([]types.TextChunk, 0, n/(chunkSize-overlap)+1)
	start := 0

	for start < n {
		end := start + chunkSize
		if end >= n {
			end = n
		} else {
			end = findBreak(runes, start, end, chunkSize)
		}

		segment := strings.TrimSpace(string(runes[start:end]))
		if segment != "" {
			chunks = append(chunks, types.TextChunk{
				Text:      segment,
				Index:     len(chunks),
				StartChar: start,
				EndChar:   end,
			})
		}

		// Any remaining tail is already contained in this chunk
		if end >= n {
			break
		}

		next := end - overlap
		if next <= start {
			next = end
		}
		start = next
	}

	return chunks
}

// findBreak returns the sentence boundary closest to cutoff that lies within the
// accepted window, or cutoff itself when there is none.
func findBreak(runes []rune, start, cutoff, chunkSize int) int {
	limit := cutoff + BreakSearchExtension
	if limit > len(runes) {
		limit = len(runes)
	}

	lo := start + int(float64(chunkSize)*minBreakRatio)
	hi := start + int(float64(chunkSize)*maxBreakRatio)

	best := -1
	bestDist := 0
	for i := start; i < limit && i+1 < len(runes); i++ {
		if !isTerminator(runes[i]) || !unicode.IsSpace(runes[i+1]) {
			continue
		}

		bp := i + 1
		if bp < lo || bp > hi {
			continue
		}

		dist := bp - cutoff
		if dist < 0 {
			dist = -dist
		}
		if best < 0 || dist < bestDist {
			best = bp
			bestDist = dist
		}
	}

	if best < 0 {
		return cutoff
	}
	return best
}

func isTerminator(r rune) bool {
	return r == '.' || r == '!' || r == '?'
}
