// Package storage provides SQLite-based persistence for tenant documents.
//
// A document family is one root row (parent_id NULL, chunk 0) plus zero or
// more chunk rows pointing at the root. Each row carries its own text and an
// optional embedding. Knowledge base membership lives in a join table.
//
// # Database Schema
//
// Tables:
//   - schema_version: applied migrations
//   - documents: roots and chunk rows, soft deleted via the deleted flag
//   - document_knowledge_bases: knowledge base membership per row
//
// Live root names and source filenames are unique per tenant, enforced by
// partial unique indexes.
//
// # Basic Usage
//
//	store, err := storage.NewSQLiteStorage("kb.db", storage.WithDimension(1536))
//	if err != nil {
//	    log.Fatal(err)
//	}
//	defer store.Close()
//
//	root := &storage.Document{
//	    TenantID:       "acme",
//	    Name:           "Handbook",
//	    SourceFilename: "handbook.md",
//	    TotalChunks:    1,
//	    ChunkText:      text,
//	    Embedding:      vector,
//	}
//	err = store.CreateDocument(ctx, root)
//
// Deleting a root flags every row of the family in one transaction:
//
//	n, err := store.SoftDeleteDocument(ctx, "acme", root.ID)
//
// # Retrieval
//
// SearchText performs a case-insensitive substring match over chunk text.
// ListEmbedded returns the most recent rows that carry an embedding, for
// similarity ranking in Go. Both honour an optional knowledge base filter.
//
// Embeddings are stored as little-endian float32 blobs. JSON arrays written
// by other tools are read as well; undecodable values read back as nil.
//
// # Build Tags
//
// Pure Go Build (default):
//
//   - Uses modernc.org/sqlite driver
//
//   - No C compiler needed
//
//     CGO_ENABLED=0 go build ./...
//
// CGO Build (cgo_sqlite tag):
//
//   - Uses github.com/mattn/go-sqlite3 driver
//
//     CGO_ENABLED=1 go build -tags "cgo_sqlite" ./...
package storage
