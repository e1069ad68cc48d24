package ingest

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"
	"unicode/utf8"

	"golang.org/x/sync/errgroup"

	"github.com/dshills/kbcontext-mcp/internal/chunker"
	"github.com/dshills/kbcontext-mcp/internal/embedder"
	"github.com/dshills/kbcontext-mcp/internal/extract"
	"github.com/dshills/kbcontext-mcp/internal/storage"
	"github.com/dshills/kbcontext-mcp/pkg/types"
)

const (
	// DefaultChunkWorkers bounds concurrent child chunk embedding and inserts
	DefaultChunkWorkers = 4
	// MaxNameLength is the longest accepted document name, in characters
	MaxNameLength = 255
)

// Pipeline coordinates ingestion: extract -> chunk -> embed -> store
type Pipeline struct {
	store    storage.Storage
	embedder embedder.Embedder
	chunker  *chunker.Chunker
	logger   *slog.Logger
	locks    *tenantLocks

	// Worker pool configuration
	workers int
}

// Config contains configuration for the pipeline
type Config struct {
	ChunkSize    int          // Characters per chunk (default: 3000)
	Overlap      int          // Characters shared by consecutive chunks (default: 300, negative for none)
	ChunkWorkers int          // Concurrent child chunk workers (default: 4)
	Logger       *slog.Logger // Defaults to slog.Default()
}

// IngestRequest describes a document to ingest. Content wins over FilePath when both are set.
type IngestRequest struct {
	TenantID         string
	Name             string
	Description      string
	SourceFilename   string
	Content          string
	FilePath         string
	KnowledgeBaseIDs []string
}

// ChunkFailure records a child chunk that could not be persisted
type ChunkFailure struct {
	Index int    `json:"chunk_index"`
	Error string `json:"error"`
}

// IngestResult reports the outcome of an ingestion
type IngestResult struct {
	Root            types.RootDocument
	Document        *storage.Document
	TotalChunks     int
	PersistedChunks int
	ChunkStats      chunker.Stats
	Failures        []ChunkFailure
	Duration        time.Duration
}

// Complete reports whether every chunk was persisted
func (r *IngestResult) Complete() bool {
	return r.PersistedChunks == r.TotalChunks
}

// Summary returns a short human readable outcome, e.g. "3/4 chunks persisted"
func (r *IngestResult) Summary() string {
	return fmt.Sprintf("%d/%d chunks persisted", r.PersistedChunks, r.TotalChunks)
}

// New creates a new Pipeline instance
func New(store storage.Storage, emb embedder.Embedder, cfg *Config) *Pipeline {
	if cfg == nil {
		cfg = &Config{}
	}

	workers := cfg.ChunkWorkers
	if workers <= 0 {
		workers = DefaultChunkWorkers
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	var chunkOpts []chunker.Option
	if cfg.ChunkSize > 0 {
		chunkOpts = append(chunkOpts, chunker.WithChunkSize(cfg.ChunkSize))
	}
	if cfg.Overlap != 0 {
		chunkOpts = append(chunkOpts, chunker.WithOverlap(max(cfg.Overlap, 0)))
	}

	return &Pipeline{
		store:    store,
		embedder: emb,
		chunker:  chunker.New(chunkOpts...),
		logger:   logger,
		locks:    newTenantLocks(),
		workers:  workers,
	}
}

// Chunker returns the chunker used by the pipeline
func (p *Pipeline) Chunker() *chunker.Chunker {
	return p.chunker
}

// BuildHeader returns the metadata header prepended to document content
func BuildHeader(name, description, filename string) string {
	var b strings.Builder
	b.WriteString("Name: ")
	b.WriteString(name)
	b.WriteString("\nDescription: ")
	b.WriteString(description)
	b.WriteString("\nFile: ")
	b.WriteString(filename)
	b.WriteString("\n\n")
	return b.String()
}

func validateIngest(req *IngestRequest) error {
	req.TenantID = strings.TrimSpace(req.TenantID)
	req.Name = strings.TrimSpace(req.Name)
	req.SourceFilename = strings.TrimSpace(req.SourceFilename)
	req.Description = strings.TrimSpace(req.Description)

	if req.TenantID == "" {
		return validationError("tenant_id is required")
	}
	if req.Name == "" {
		return validationError("name is required")
	}
	if utf8.RuneCountInString(req.Name) > MaxNameLength {
		return validationError("name must be at most %d characters", MaxNameLength)
	}
	if req.SourceFilename == "" {
		return validationError("source_filename is required")
	}
	if strings.TrimSpace(req.Content) == "" && strings.TrimSpace(req.FilePath) == "" {
		return validationError("content or file_path is required")
	}
	return validateKnowledgeBases(req.KnowledgeBaseIDs)
}

func validateKnowledgeBases(ids []string) error {
	for i, id := range ids {
		if strings.TrimSpace(id) == "" {
			return validationError("knowledge_base_ids[%d] must be a non-empty string", i)
		}
	}
	return nil
}

// loadContent returns the request content, extracting it from FilePath when needed
func loadContent(req *IngestRequest) (string, error) {
	if strings.TrimSpace(req.Content) != "" || strings.TrimSpace(req.FilePath) == "" {
		return req.Content, nil
	}

	text, err := extract.File(req.FilePath)
	if err != nil {
		return "", newError(CodeFileProcessing, fmt.Sprintf("failed to read %s", req.FilePath), err)
	}
	return text, nil
}

// Ingest stores a document. Texts longer than one chunk become a root row holding
// chunk 0 plus one child row per further chunk. Child failures are reported in the
// result instead of failing the call.
func (p *Pipeline) Ingest(ctx context.Context, req IngestRequest) (*IngestResult, error) {
	startTime := time.Now()

	if err := validateIngest(&req); err != nil {
		return nil, err
	}

	content, err := loadContent(&req)
	if err != nil {
		return nil, err
	}

	combined := BuildHeader(req.Name, req.Description, req.SourceFilename) + content
	chunks := p.chunker.Chunk(combined)
	total := len(chunks)
	if total == 0 {
		total = 1
	}

	root := &storage.Document{
		TenantID:         req.TenantID,
		Name:             req.Name,
		Description:      req.Description,
		SourceFilename:   req.SourceFilename,
		KnowledgeBaseIDs: req.KnowledgeBaseIDs,
		TotalChunks:      total,
		ChunkText:        combined,
	}
	if total > 1 {
		root.ChunkText = chunks[0].Text
	}

	if err := p.createRoot(ctx, root, combined); err != nil {
		return nil, err
	}

	stats := chunker.ComputeStats(chunks)
	p.logger.Info("document root stored",
		"tenant", root.TenantID, "document_id", root.ID, "total_chunks", total,
		"avg_chunk_size", stats.AvgSize)

	result := &IngestResult{
		Document:        root,
		TotalChunks:     total,
		PersistedChunks: 1,
		ChunkStats:      stats,
	}

	refs := []types.ChunkRef{{Index: 0, ID: root.ID}}
	if total > 1 {
		childRefs, failures := p.storeChildren(ctx, root, chunks[1:])
		refs = append(refs, childRefs...)
		result.PersistedChunks += len(childRefs)
		result.Failures = failures
	}

	result.Root = types.RootDocument{
		ID:             root.ID,
		TenantID:       root.TenantID,
		Name:           root.Name,
		SourceFilename: root.SourceFilename,
		TotalChunks:    total,
		Chunks:         refs,
	}
	result.Duration = time.Since(startTime)

	if !result.Complete() {
		p.logger.Warn("document partially ingested",
			"tenant", root.TenantID, "document_id", root.ID, "persisted", result.Summary())
	}

	return result, nil
}

// createRoot runs the duplicate guard, embeds the full text and inserts the root.
// The guard is repeated under the tenant lock since another ingest may claim the
// name while the embedding is generated.
func (p *Pipeline) createRoot(ctx context.Context, root *storage.Document, combined string) error {
	if err := p.checkDuplicates(ctx, root.TenantID, root.Name, root.SourceFilename, ""); err != nil {
		return err
	}

	vector, err := embedder.EmbedText(ctx, p.embedder, combined)
	if err != nil {
		return embedError(err)
	}
	root.Embedding = vector

	release := p.locks.Lock(root.TenantID)
	defer release()

	if err := p.checkDuplicates(ctx, root.TenantID, root.Name, root.SourceFilename, ""); err != nil {
		return err
	}

	if err := p.store.CreateDocument(ctx, root); err != nil {
		return storeError("failed to store document", err)
	}
	return nil
}

// checkDuplicates rejects a live root with the same name or filename, other than excludeID
func (p *Pipeline) checkDuplicates(ctx context.Context, tenantID, name, filename, excludeID string) error {
	if name != "" {
		existing, err := p.store.FindRootByName(ctx, tenantID, name)
		switch {
		case err == nil && existing.ID != excludeID:
			return newError(CodeDuplicateName, fmt.Sprintf("a document named %q already exists", name), nil)
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return storeError("failed to check document name", err)
		}
	}

	if filename != "" {
		existing, err := p.store.FindRootByFilename(ctx, tenantID, filename)
		switch {
		case err == nil && existing.ID != excludeID:
			return newError(CodeDuplicateFilename, fmt.Sprintf("a document with filename %q already exists", filename), nil)
		case err != nil && !errors.Is(err, storage.ErrNotFound):
			return storeError("failed to check document filename", err)
		}
	}

	return nil
}

// storeChildren embeds and inserts child chunks with bounded concurrency.
// It returns the refs of persisted children in chunk order and the failures.
func (p *Pipeline) storeChildren(ctx context.Context, root *storage.Document, chunks []types.TextChunk) ([]types.ChunkRef, []ChunkFailure) {
	slots := make([]*types.ChunkRef, len(chunks))

	var (
		stored   int32
		mu       sync.Mutex // Protects failures
		failures []ChunkFailure
	)

	// Failures never cancel siblings, so the group has no shared context
	var g errgroup.Group
	g.SetLimit(p.workers)

	for i, chunk := range chunks {
		index := i + 1

		g.Go(func() error {
			id, err := p.storeChild(ctx, root, index, chunk.Text)
			if err != nil {
				p.logger.Warn("failed to store chunk",
					"tenant", root.TenantID, "document_id", root.ID, "chunk_index", index, "error", err)
				mu.Lock()
				failures = append(failures, ChunkFailure{Index: index, Error: err.Error()})
				mu.Unlock()
				return nil
			}

			slots[i] = &types.ChunkRef{Index: index, ID: id}
			atomic.AddInt32(&stored, 1)
			return nil
		})
	}

	_ = g.Wait()

	refs := make([]types.ChunkRef, 0, stored)
	for _, ref := range slots {
		if ref != nil {
			refs = append(refs, *ref)
		}
	}

	sortFailures(failures)
	return refs, failures
}

func (p *Pipeline) storeChild(ctx context.Context, root *storage.Document, index int, text string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}

	vector, err := embedder.EmbedText(ctx, p.embedder, text)
	if err != nil {
		return "", fmt.Errorf("embedding: %w", err)
	}

	parentID := root.ID
	child := &storage.Document{
		TenantID:         root.TenantID,
		Name:             root.Name,
		Description:      root.Description,
		SourceFilename:   root.SourceFilename,
		KnowledgeBaseIDs: root.KnowledgeBaseIDs,
		Embedding:        vector,
		ParentID:         &parentID,
		ChunkIndex:       index,
		TotalChunks:      root.TotalChunks,
		ChunkText:        text,
	}

	if err := p.store.CreateDocument(ctx, child); err != nil {
		return "", fmt.Errorf("store: %w", err)
	}
	return child.ID, nil
}

func sortFailures(failures []ChunkFailure) {
	sort.Slice(failures, func(i, j int) bool {
		return failures[i].Index < failures[j].Index
	})
}
