package types

import "errors"

// Domain errors for type validation
var (
	ErrInvalidDocumentID  = errors.New("invalid document ID")
	ErrInvalidChunkIndex  = errors.New("invalid chunk index")
	ErrInvalidTotalChunks = errors.New("total chunks must be >= 1")
	ErrRootNotFirstChunk  = errors.New("root document must be chunk 0")
	ErrInvalidSimilarity  = errors.New("similarity must be between -1 and 1")
	ErrMissingMatchedTerm = errors.New("text match requires a matched term")
	ErrEmptyContent       = errors.New("content cannot be empty")
)
