// Package types provides shared type definitions for the kbcontext MCP server.
//
// This package defines domain types used across multiple components, including
// text chunks produced by the chunker, root documents produced by ingestion and
// search results produced by the hybrid retriever.
//
// # Core Types
//
// TextChunk is one segment of a document's text together with its position in
// the source (rune offsets):
//
//	chunk := types.TextChunk{
//	    Text:      "Art. 77 - O prazo ...",
//	    Index:     3,
//	    StartChar: 8100,
//	    EndChar:   11100,
//	}
//
// RootDocument describes a stored document family. The root row is always
// chunk 0, so Chunks[0] refers to the root itself:
//
//	root := &types.RootDocument{
//	    ID:          rootID,
//	    TotalChunks: 4,
//	    Chunks: []types.ChunkRef{
//	        {Index: 0, ID: rootID},
//	        {Index: 1, ID: child1},
//	        {Index: 2, ID: child2},
//	        {Index: 3, ID: child3},
//	    },
//	}
//
// # Validation
//
//	if err := root.Validate(); err != nil {
//	    log.Fatal(err)
//	}
//
// # Search Results
//
// SearchResult carries a chunk preview with both its cosine similarity and its
// combined score. Lexical matches score in [1.0, 1.5] and semantic-only matches
// in [0, 0.5], so any lexical match outranks any semantic-only match.
package types
