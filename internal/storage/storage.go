package storage

import (
	"context"
	"time"

	"github.com/dshills/kbcontext-mcp/pkg/types"
)

// Storage defines the interface for persisting and querying tenant documents.
// Every operation is scoped by tenant ID.
type Storage interface {
	// Document operations
	CreateDocument(ctx context.Context, doc *Document) error
	GetDocument(ctx context.Context, tenantID, id string) (*Document, error)
	FindRootByName(ctx context.Context, tenantID, name string) (*Document, error)
	FindRootByFilename(ctx context.Context, tenantID, filename string) (*Document, error)
	UpdateDocument(ctx context.Context, doc *Document) error
	SoftDeleteDocument(ctx context.Context, tenantID, id string) (int, error)

	// Listing operations
	ListDocuments(ctx context.Context, tenantID string, filter *ListFilter) ([]*Document, error)
	ListChunks(ctx context.Context, tenantID, rootID string) ([]*Document, error)

	// Retrieval operations
	SearchText(ctx context.Context, scope Scope, term string, limit int) ([]*Document, error)
	ListEmbedded(ctx context.Context, scope Scope, excludeIDs []string, limit int) ([]*Document, error)

	// Status operations
	GetStatus(ctx context.Context, tenantID string) (*TenantStatus, error)

	// Database operations
	Close() error
	BeginTx(ctx context.Context) (Tx, error)
}

// Tx represents a database transaction
type Tx interface {
	Commit() error
	Rollback() error
	Storage
}

// Document is a stored row: either a root document or one of its chunks.
// ParentID is nil for roots; the root row always holds chunk 0.
type Document struct {
	ID               string
	TenantID         string
	Name             string
	Description      string
	SourceFilename   string
	KnowledgeBaseIDs []string
	Embedding        []float32 // Nil when absent or undecodable
	ParentID         *string
	ChunkIndex       int
	TotalChunks      int
	ChunkText        string
	Deleted          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// IsRoot reports whether the row is a root document
func (d *Document) IsRoot() bool {
	return d.ParentID == nil
}

// RootID returns the ID of the family the row belongs to
func (d *Document) RootID() string {
	if d.ParentID != nil {
		return *d.ParentID
	}
	return d.ID
}

// ToSearchResult converts the row into a ranked result shell with a truncated preview
func (d *Document) ToSearchResult() types.SearchResult {
	return types.SearchResult{
		ID:             d.ID,
		ParentID:       d.ParentID,
		ChunkIndex:     d.ChunkIndex,
		TotalChunks:    d.TotalChunks,
		CreatedAt:      d.CreatedAt,
		Name:           d.Name,
		Description:    d.Description,
		SourceFilename: d.SourceFilename,
		ChunkText:      types.Preview(d.ChunkText),
	}
}

// Scope narrows retrieval to a tenant and, optionally, a set of knowledge bases
type Scope struct {
	TenantID         string
	KnowledgeBaseIDs []string // Empty means all knowledge bases
}

// ListFilter contains options for listing root documents
type ListFilter struct {
	KnowledgeBaseIDs []string
	Limit            int
	Offset           int
}

// Listing bounds
const (
	DefaultListLimit = 50
	MaxListLimit     = 500
)

// TenantStatus contains statistics about a tenant's knowledge base
type TenantStatus struct {
	TenantID        string
	DocumentsCount  int // Non-deleted roots
	ChunkedCount    int // Roots with more than one chunk
	RowsCount       int // Non-deleted rows (roots and children)
	EmbeddingsCount int
	DeletedCount    int
	KnowledgeBases  int
	LastIngestedAt  time.Time
	IndexSizeMB     float64
	Health          HealthStatus
}

// HealthStatus represents the health of the store
type HealthStatus struct {
	DatabaseAccessible  bool
	EmbeddingsAvailable bool
}
