// Package ingest stores tenant documents as searchable rows.
//
// A document is prefixed with a metadata header (name, description, filename)
// and split by the chunker. Short documents become a single root row. Longer
// ones become a root holding chunk 0 plus one child row per remaining chunk.
//
// # Embeddings
//
// The root is embedded from the full combined text, so it represents the whole
// document. Children embed only their own text.
//
// # Partial Ingestion
//
// Children are embedded and inserted by a bounded worker group
// (Config.ChunkWorkers). A failed child is logged and reported in
// IngestResult.Failures; siblings and the root are kept:
//
//	result, err := p.Ingest(ctx, ingest.IngestRequest{...})
//	if err != nil {
//	    return err // *ingest.Error with a Code
//	}
//	fmt.Println(result.Summary()) // "3/4 chunks persisted"
//
// # Errors
//
// Every failure is an *Error whose Code is one of VALIDATION_ERROR,
// DUPLICATE_NAME, DUPLICATE_FILENAME, FILE_PROCESSING_ERROR, TIMEOUT_ERROR,
// DATABASE_ERROR, NOT_FOUND or INTERNAL_ERROR.
package ingest
