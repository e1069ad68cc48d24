package chunker

import (
	"testing"
)

func BenchmarkChunk_Sentences(b *testing.B) {
	text := sentenceText(100000)
	c := New()

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if chunks := c.Chunk(text); len(chunks) == 0 {
			b.Fatal("no chunks")
		}
	}
}

func BenchmarkChunk_HardCuts(b *testing.B) {
	runes := make([]rune, 100000)
	for i := range runes {
		runes[i] = 'a' + rune(i%26)
	}
	text := string(runes)

	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		Chunk(text, DefaultChunkSize, DefaultOverlap)
	}
}
