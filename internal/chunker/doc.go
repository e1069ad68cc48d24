// Package chunker splits document text into bounded, overlapping segments for embedding.
//
// # Basic Usage
//
//	c := chunker.New(chunker.WithChunkSize(3000), chunker.WithOverlap(300))
//	for _, chunk := range c.Chunk(text) {
//	    fmt.Printf("chunk %d: chars %d-%d\n", chunk.Index, chunk.StartChar, chunk.EndChar)
//	}
//
// # Chunking Strategy
//
// Text shorter than the chunk size is returned as a single chunk. Longer text is
// cut with a sliding window:
//   - The naive cutoff is chunkSize characters past the window start
//   - A sentence end ('.', '!' or '?' followed by whitespace) up to 200 characters
//     past the cutoff is preferred, if it lies within 0.7 to 1.3 times the chunk size
//   - Without such a boundary the window is cut hard at the chunk size
//   - The next window starts overlap characters before the previous cut
//
// Segments are trimmed; segments that are empty after trimming are skipped, and
// indices stay contiguous from 0.
//
// Characters are Unicode code points, so offsets are rune offsets into the input.
//
// # Statistics
//
//	stats := chunker.ComputeStats(chunks)
//	fmt.Printf("%d chunks, avg %.0f chars\n", stats.Count, stats.AvgSize)
package chunker
