package ingest

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/dshills/kbcontext-mcp/internal/embedder"
	"github.com/dshills/kbcontext-mcp/internal/storage"
)

// UpdateRequest edits a single row. Nil fields are left unchanged.
type UpdateRequest struct {
	TenantID         string
	DocumentID       string
	Name             *string
	Description      *string
	SourceFilename   *string
	Content          *string
	KnowledgeBaseIDs *[]string
}

func (r *UpdateRequest) empty() bool {
	return r.Name == nil && r.Description == nil && r.SourceFilename == nil &&
		r.Content == nil && r.KnowledgeBaseIDs == nil
}

func validateUpdate(req *UpdateRequest) error {
	if strings.TrimSpace(req.TenantID) == "" {
		return validationError("tenant_id is required")
	}
	if strings.TrimSpace(req.DocumentID) == "" {
		return validationError("document_id is required")
	}
	if req.empty() {
		return validationError("at least one field must be provided")
	}
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return validationError("name cannot be empty")
		}
		if utf8.RuneCountInString(name) > MaxNameLength {
			return validationError("name must be at most %d characters", MaxNameLength)
		}
		req.Name = &name
	}
	if req.SourceFilename != nil {
		filename := strings.TrimSpace(*req.SourceFilename)
		if filename == "" {
			return validationError("source_filename cannot be empty")
		}
		req.SourceFilename = &filename
	}
	if req.Description != nil {
		description := strings.TrimSpace(*req.Description)
		req.Description = &description
	}
	if req.KnowledgeBaseIDs != nil {
		return validateKnowledgeBases(*req.KnowledgeBaseIDs)
	}
	return nil
}

// Update edits the metadata, text or knowledge bases of one row. A change to the
// name, description, filename or content regenerates that row's embedding only;
// siblings are never touched and nothing is re-chunked.
func (p *Pipeline) Update(ctx context.Context, req UpdateRequest) (*storage.Document, error) {
	if err := validateUpdate(&req); err != nil {
		return nil, err
	}

	doc, err := p.store.GetDocument(ctx, req.TenantID, req.DocumentID)
	if err != nil {
		return nil, storeError("document not found", err)
	}

	oldHeader := BuildHeader(doc.Name, doc.Description, doc.SourceFilename)
	renamed := req.Name != nil && *req.Name != doc.Name
	refiled := req.SourceFilename != nil && *req.SourceFilename != doc.SourceFilename
	redescribed := req.Description != nil && *req.Description != doc.Description
	metadataChanged := renamed || refiled || redescribed

	if renamed {
		doc.Name = *req.Name
	}
	if refiled {
		doc.SourceFilename = *req.SourceFilename
	}
	if redescribed {
		doc.Description = *req.Description
	}
	if req.KnowledgeBaseIDs != nil {
		doc.KnowledgeBaseIDs = *req.KnowledgeBaseIDs
	}

	semantic := metadataChanged || req.Content != nil
	if doc.IsRoot() {
		doc.ChunkText = rebuildRootText(doc, oldHeader, req.Content, semantic)
	} else if req.Content != nil {
		doc.ChunkText = *req.Content
	}

	if semantic {
		vector, err := embedder.EmbedText(ctx, p.embedder, doc.ChunkText)
		if err != nil {
			return nil, embedError(err)
		}
		doc.Embedding = vector
	}

	if doc.IsRoot() && (renamed || refiled) {
		release := p.locks.Lock(doc.TenantID)
		defer release()

		name, filename := "", ""
		if renamed {
			name = doc.Name
		}
		if refiled {
			filename = doc.SourceFilename
		}
		if err := p.checkDuplicates(ctx, doc.TenantID, name, filename, doc.ID); err != nil {
			return nil, err
		}
	}

	if err := p.store.UpdateDocument(ctx, doc); err != nil {
		return nil, storeError("failed to update document", err)
	}

	p.logger.Info("document updated",
		"tenant", doc.TenantID, "document_id", doc.ID, "reembedded", semantic)

	return doc, nil
}

// rebuildRootText swaps the metadata header of a root's text and optionally its body.
// Text that does not start with the previous header is only replaced by new content.
func rebuildRootText(doc *storage.Document, oldHeader string, content *string, changed bool) string {
	if !changed {
		return doc.ChunkText
	}

	body, hasHeader := strings.CutPrefix(doc.ChunkText, oldHeader)
	if content != nil {
		body = *content
	} else if !hasHeader {
		return doc.ChunkText
	}

	return BuildHeader(doc.Name, doc.Description, doc.SourceFilename) + body
}

// Delete soft-deletes a row. Deleting a root also deletes all of its chunks.
// It returns the number of rows deleted.
func (p *Pipeline) Delete(ctx context.Context, tenantID, documentID string) (int, error) {
	if strings.TrimSpace(tenantID) == "" {
		return 0, validationError("tenant_id is required")
	}
	if strings.TrimSpace(documentID) == "" {
		return 0, validationError("document_id is required")
	}

	n, err := p.store.SoftDeleteDocument(ctx, tenantID, documentID)
	if err != nil {
		return 0, storeError("document not found or already deleted", err)
	}

	p.logger.Info("document deleted", "tenant", tenantID, "document_id", documentID, "rows", n)
	return n, nil
}

// Get returns a live row
func (p *Pipeline) Get(ctx context.Context, tenantID, documentID string) (*storage.Document, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, validationError("tenant_id is required")
	}

	doc, err := p.store.GetDocument(ctx, tenantID, documentID)
	if err != nil {
		return nil, storeError("document not found", err)
	}
	return doc, nil
}

// List returns the tenant's live root documents
func (p *Pipeline) List(ctx context.Context, tenantID string, filter *storage.ListFilter) ([]*storage.Document, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, validationError("tenant_id is required")
	}
	if filter != nil {
		if err := validateKnowledgeBases(filter.KnowledgeBaseIDs); err != nil {
			return nil, err
		}
	}

	docs, err := p.store.ListDocuments(ctx, tenantID, filter)
	if err != nil {
		return nil, storeError("failed to list documents", err)
	}
	return docs, nil
}

// Chunks returns the live rows of the family containing documentID, in chunk order
func (p *Pipeline) Chunks(ctx context.Context, tenantID, documentID string) ([]*storage.Document, error) {
	doc, err := p.Get(ctx, tenantID, documentID)
	if err != nil {
		return nil, err
	}

	rows, err := p.store.ListChunks(ctx, tenantID, doc.RootID())
	if err != nil {
		return nil, storeError("failed to list chunks", err)
	}
	return rows, nil
}

// Status returns per-tenant counters
func (p *Pipeline) Status(ctx context.Context, tenantID string) (*storage.TenantStatus, error) {
	if strings.TrimSpace(tenantID) == "" {
		return nil, validationError("tenant_id is required")
	}

	status, err := p.store.GetStatus(ctx, tenantID)
	if err != nil {
		return nil, storeError("failed to read status", err)
	}
	return status, nil
}
