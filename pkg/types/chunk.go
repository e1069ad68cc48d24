package types

import (
	"errors"
	"unicode/utf8"
)

// TextChunk represents one bounded segment of a document's text
type TextChunk struct {
	Text  string
	Index int // 0-based, contiguous within a document

	// Location in the source text, in runes. EndChar is exclusive.
	StartChar int
	EndChar   int
}

// Len returns the number of characters in the chunk text
func (c *TextChunk) Len() int {
	return utf8.RuneCountInString(c.Text)
}

// Span returns the size of the source window the chunk was cut from
func (c *TextChunk) Span() int {
	return c.EndChar - c.StartChar
}

// Validate checks if the chunk is well formed
func (c *TextChunk) Validate() error {
	if c.Text == "" {
		return ErrEmptyContent
	}

	if c.Index < 0 {
		return errors.New("chunk index must be >= 0")
	}

	if c.StartChar < 0 || c.EndChar <= c.StartChar {
		return errors.New("chunk offsets must satisfy 0 <= start < end")
	}

	return nil
}
