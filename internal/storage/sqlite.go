package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
)

var (
	// ErrNotFound is returned when a requested entity doesn't exist
	ErrNotFound = errors.New("not found")
	// ErrAlreadyExists is returned when trying to create a duplicate entity
	ErrAlreadyExists = errors.New("already exists")
	// ErrDimensionMismatch is returned when an embedding has the wrong length
	ErrDimensionMismatch = errors.New("embedding dimension mismatch")
	// ErrInvalidDocument is returned when a row violates the document invariants
	ErrInvalidDocument = errors.New("invalid document")
)

// kbSeparator joins knowledge base ids in group_concat output (ASCII unit separator)
const kbSeparator = "\x1f"

// SQLiteStorage implements the Storage interface using SQLite
type SQLiteStorage struct {
	db        *sql.DB
	dimension int
}

// Option configures a SQLiteStorage
type Option func(*SQLiteStorage)

// WithDimension makes writes reject embeddings whose length differs from dim
func WithDimension(dim int) Option {
	return func(s *SQLiteStorage) {
		s.dimension = dim
	}
}

// openDatabase opens a SQLite database with appropriate settings
func openDatabase(dbPath string) (*sql.DB, error) {
	db, err := sql.Open(DriverName, dbPath)
	if err != nil {
		return nil, err
	}

	// Enable WAL mode for better concurrency
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable WAL mode: %w", err)
	}

	// Single writer; also keeps a :memory: database alive on one connection
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(0)

	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to enable foreign keys: %w", err)
	}

	return db, nil
}

// NewSQLiteStorage creates a new SQLite storage instance
func NewSQLiteStorage(dbPath string, opts ...Option) (*SQLiteStorage, error) {
	db, err := openDatabase(dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := ApplyMigrations(context.Background(), db); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to apply migrations: %w", err)
	}

	s := &SQLiteStorage{db: db}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection
func (s *SQLiteStorage) Close() error {
	return s.db.Close()
}

// BeginTx starts a new transaction
func (s *SQLiteStorage) BeginTx(ctx context.Context) (Tx, error) {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, err
	}
	return &sqliteTx{tx: tx, storage: s}, nil
}

// querier is an interface that both *sql.DB and *sql.Tx implement
type querier interface {
	ExecContext(ctx context.Context, query string, args ...interface{}) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...interface{}) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...interface{}) *sql.Row
}

// sqliteTx wraps a SQL transaction
type sqliteTx struct {
	tx      *sql.Tx
	storage *SQLiteStorage
}

func (t *sqliteTx) Commit() error {
	return t.tx.Commit()
}

func (t *sqliteTx) Rollback() error {
	return t.tx.Rollback()
}

// querier returns the transaction querier
func (t *sqliteTx) querier() querier {
	return t.tx
}

// querier returns the DB querier
func (s *SQLiteStorage) querier() querier {
	return s.db
}

// inTx runs fn inside a transaction, committing on success
func (s *SQLiteStorage) inTx(ctx context.Context, fn func(q querier) error) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		_ = tx.Rollback()
		return err
	}

	return tx.Commit()
}

// documentColumns selects a full row; the last column carries the knowledge base ids
const documentColumns = `
	d.id, d.tenant_id, d.name, d.description, d.source_filename, d.embedding,
	d.parent_id, d.chunk_index, d.total_chunks, d.chunk_text, d.deleted,
	d.created_at, d.updated_at,
	COALESCE((SELECT group_concat(k.knowledge_base_id, char(31))
	          FROM document_knowledge_bases k WHERE k.document_id = d.id), '')
`

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func scanDocument(row rowScanner) (*Document, error) {
	var doc Document
	var embedding []byte
	var parentID sql.NullString
	var kbs string

	err := row.Scan(
		&doc.ID, &doc.TenantID, &doc.Name, &doc.Description, &doc.SourceFilename, &embedding,
		&parentID, &doc.ChunkIndex, &doc.TotalChunks, &doc.ChunkText, &doc.Deleted,
		&doc.CreatedAt, &doc.UpdatedAt, &kbs,
	)
	if err != nil {
		return nil, err
	}

	if parentID.Valid {
		p := parentID.String
		doc.ParentID = &p
	}

	// A malformed embedding leaves the row without one rather than failing the read
	if vec, err := decodeEmbedding(embedding); err == nil {
		doc.Embedding = vec
	}

	doc.KnowledgeBaseIDs = splitKnowledgeBases(kbs)
	return &doc, nil
}

func scanDocuments(rows *sql.Rows) ([]*Document, error) {
	docs := make([]*Document, 0)
	for rows.Next() {
		doc, err := scanDocument(rows)
		if err != nil {
			return nil, err
		}
		docs = append(docs, doc)
	}
	return docs, rows.Err()
}

func splitKnowledgeBases(joined string) []string {
	if joined == "" {
		return nil
	}
	ids := strings.Split(joined, kbSeparator)
	sort.Strings(ids)
	return ids
}

// normalizeKnowledgeBases trims, drops blanks and dedupes, returning a sorted set
func normalizeKnowledgeBases(ids []string) []string {
	seen := make(map[string]bool, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" || seen[id] {
			continue
		}
		seen[id] = true
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

// isUniqueViolation matches the constraint error text of both SQLite drivers
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// placeholders returns "?,?,?" for n arguments
func placeholders(n int) string {
	if n <= 0 {
		return ""
	}
	return strings.Repeat("?,", n-1) + "?"
}

// appendKnowledgeBaseFilter restricts d to documents in any of the given knowledge bases
func appendKnowledgeBaseFilter(query string, args []interface{}, kbIDs []string) (string, []interface{}) {
	kbIDs = normalizeKnowledgeBases(kbIDs)
	if len(kbIDs) == 0 {
		return query, args
	}

	query += ` AND EXISTS (SELECT 1 FROM document_knowledge_bases k
		WHERE k.document_id = d.id AND k.knowledge_base_id IN (` + placeholders(len(kbIDs)) + `))`
	for _, id := range kbIDs {
		args = append(args, id)
	}
	return query, args
}

func (s *SQLiteStorage) validateDocument(doc *Document) error {
	if doc.TenantID == "" {
		return fmt.Errorf("%w: tenant id is required", ErrInvalidDocument)
	}
	if doc.TotalChunks < 1 {
		return fmt.Errorf("%w: total chunks must be >= 1", ErrInvalidDocument)
	}
	if doc.ChunkIndex < 0 || doc.ChunkIndex >= doc.TotalChunks {
		return fmt.Errorf("%w: chunk index %d out of range", ErrInvalidDocument, doc.ChunkIndex)
	}
	if (doc.ParentID == nil) != (doc.ChunkIndex == 0) {
		return fmt.Errorf("%w: only the root holds chunk 0", ErrInvalidDocument)
	}
	if doc.Embedding != nil && s.dimension > 0 && len(doc.Embedding) != s.dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.dimension, len(doc.Embedding))
	}
	return nil
}

// Document operations

// createDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) createDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	if err := s.validateDocument(doc); err != nil {
		return err
	}

	if doc.ID == "" {
		doc.ID = uuid.NewString()
	}

	now := time.Now().UTC()
	query := `
		INSERT INTO documents (id, tenant_id, name, description, source_filename, embedding,
		                       parent_id, chunk_index, total_chunks, chunk_text, deleted,
		                       created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 0, ?, ?)
	`
	var parentID interface{}
	if doc.ParentID != nil {
		parentID = *doc.ParentID
	}

	_, err := q.ExecContext(ctx, query,
		doc.ID, doc.TenantID, doc.Name, doc.Description, doc.SourceFilename, encodeEmbedding(doc.Embedding),
		parentID, doc.ChunkIndex, doc.TotalChunks, doc.ChunkText, now, now)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	if err != nil {
		return fmt.Errorf("failed to create document: %w", err)
	}

	doc.KnowledgeBaseIDs = normalizeKnowledgeBases(doc.KnowledgeBaseIDs)
	if err := replaceKnowledgeBases(ctx, q, doc.ID, doc.KnowledgeBaseIDs); err != nil {
		return err
	}

	doc.Deleted = false
	doc.CreatedAt = now
	doc.UpdatedAt = now
	return nil
}

// CreateDocument inserts a row and its knowledge base links atomically.
// An empty ID is filled with a new UUID.
func (s *SQLiteStorage) CreateDocument(ctx context.Context, doc *Document) error {
	return s.inTx(ctx, func(q querier) error {
		return s.createDocumentWithQuerier(ctx, q, doc)
	})
}

func replaceKnowledgeBases(ctx context.Context, q querier, docID string, kbIDs []string) error {
	if _, err := q.ExecContext(ctx, "DELETE FROM document_knowledge_bases WHERE document_id = ?", docID); err != nil {
		return fmt.Errorf("failed to clear knowledge bases: %w", err)
	}

	for _, kb := range kbIDs {
		_, err := q.ExecContext(ctx,
			"INSERT INTO document_knowledge_bases (document_id, knowledge_base_id) VALUES (?, ?)", docID, kb)
		if err != nil {
			return fmt.Errorf("failed to link knowledge base %s: %w", kb, err)
		}
	}
	return nil
}

// getDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) getDocumentWithQuerier(ctx context.Context, q querier, tenantID, id string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE d.tenant_id = ? AND d.id = ? AND d.deleted = 0`

	doc, err := scanDocument(q.QueryRowContext(ctx, query, tenantID, id))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// GetDocument returns a live row of the tenant
func (s *SQLiteStorage) GetDocument(ctx context.Context, tenantID, id string) (*Document, error) {
	return s.getDocumentWithQuerier(ctx, s.querier(), tenantID, id)
}

// findRootWithQuerier returns the live root whose column equals value
func (s *SQLiteStorage) findRootWithQuerier(ctx context.Context, q querier, tenantID, column, value string) (*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE d.tenant_id = ? AND d.parent_id IS NULL AND d.deleted = 0 AND d.` + column + ` = ?`

	doc, err := scanDocument(q.QueryRowContext(ctx, query, tenantID, value))
	if err == sql.ErrNoRows {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return doc, nil
}

func (s *SQLiteStorage) FindRootByName(ctx context.Context, tenantID, name string) (*Document, error) {
	return s.findRootWithQuerier(ctx, s.querier(), tenantID, "name", name)
}

func (s *SQLiteStorage) FindRootByFilename(ctx context.Context, tenantID, filename string) (*Document, error) {
	return s.findRootWithQuerier(ctx, s.querier(), tenantID, "source_filename", filename)
}

// updateDocumentWithQuerier is the internal implementation that uses a querier
func (s *SQLiteStorage) updateDocumentWithQuerier(ctx context.Context, q querier, doc *Document) error {
	if doc.Embedding != nil && s.dimension > 0 && len(doc.Embedding) != s.dimension {
		return fmt.Errorf("%w: expected %d, got %d", ErrDimensionMismatch, s.dimension, len(doc.Embedding))
	}

	now := time.Now().UTC()
	query := `
		UPDATE documents
		SET name = ?, description = ?, source_filename = ?, embedding = ?, chunk_text = ?, updated_at = ?
		WHERE tenant_id = ? AND id = ? AND deleted = 0
	`
	result, err := q.ExecContext(ctx, query,
		doc.Name, doc.Description, doc.SourceFilename, encodeEmbedding(doc.Embedding), doc.ChunkText, now,
		doc.TenantID, doc.ID)
	if isUniqueViolation(err) {
		return fmt.Errorf("%w: %v", ErrAlreadyExists, err)
	}
	if err != nil {
		return fmt.Errorf("failed to update document: %w", err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return ErrNotFound
	}

	doc.KnowledgeBaseIDs = normalizeKnowledgeBases(doc.KnowledgeBaseIDs)
	if err := replaceKnowledgeBases(ctx, q, doc.ID, doc.KnowledgeBaseIDs); err != nil {
		return err
	}

	doc.UpdatedAt = now
	return nil
}

// UpdateDocument rewrites the mutable fields of a single live row. It never touches
// other rows of the family.
func (s *SQLiteStorage) UpdateDocument(ctx context.Context, doc *Document) error {
	return s.inTx(ctx, func(q querier) error {
		return s.updateDocumentWithQuerier(ctx, q, doc)
	})
}

// softDeleteWithQuerier flags the row and every row whose parent it is
func (s *SQLiteStorage) softDeleteWithQuerier(ctx context.Context, q querier, tenantID, id string) (int, error) {
	now := time.Now().UTC()

	result, err := q.ExecContext(ctx,
		"UPDATE documents SET deleted = 1, updated_at = ? WHERE tenant_id = ? AND id = ? AND deleted = 0",
		now, tenantID, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete document: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}
	if affected == 0 {
		return 0, ErrNotFound
	}

	result, err = q.ExecContext(ctx,
		"UPDATE documents SET deleted = 1, updated_at = ? WHERE tenant_id = ? AND parent_id = ? AND deleted = 0",
		now, tenantID, id)
	if err != nil {
		return 0, fmt.Errorf("failed to delete chunks: %w", err)
	}
	children, err := result.RowsAffected()
	if err != nil {
		return 0, err
	}

	return int(affected + children), nil
}

// SoftDeleteDocument marks a row deleted and cascades to its chunks in one transaction.
// It returns the number of rows flagged.
func (s *SQLiteStorage) SoftDeleteDocument(ctx context.Context, tenantID, id string) (int, error) {
	var count int
	err := s.inTx(ctx, func(q querier) error {
		n, err := s.softDeleteWithQuerier(ctx, q, tenantID, id)
		count = n
		return err
	})
	return count, err
}

// Listing operations

func (s *SQLiteStorage) listDocumentsWithQuerier(ctx context.Context, q querier, tenantID string, filter *ListFilter) ([]*Document, error) {
	limit, offset := DefaultListLimit, 0
	var kbIDs []string
	if filter != nil {
		if filter.Limit > 0 {
			limit = filter.Limit
		}
		if limit > MaxListLimit {
			limit = MaxListLimit
		}
		if filter.Offset > 0 {
			offset = filter.Offset
		}
		kbIDs = filter.KnowledgeBaseIDs
	}

	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE d.tenant_id = ? AND d.parent_id IS NULL AND d.deleted = 0`
	args := []interface{}{tenantID}
	query, args = appendKnowledgeBaseFilter(query, args, kbIDs)
	query += " ORDER BY d.created_at DESC, d.id LIMIT ? OFFSET ?"
	args = append(args, limit, offset)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to list documents: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDocuments(rows)
}

// ListDocuments returns the tenant's live root documents, newest first
func (s *SQLiteStorage) ListDocuments(ctx context.Context, tenantID string, filter *ListFilter) ([]*Document, error) {
	return s.listDocumentsWithQuerier(ctx, s.querier(), tenantID, filter)
}

func (s *SQLiteStorage) listChunksWithQuerier(ctx context.Context, q querier, tenantID, rootID string) ([]*Document, error) {
	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE d.tenant_id = ? AND d.deleted = 0 AND (d.id = ? OR d.parent_id = ?)
		ORDER BY d.chunk_index`

	rows, err := q.QueryContext(ctx, query, tenantID, rootID, rootID)
	if err != nil {
		return nil, fmt.Errorf("failed to list chunks: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDocuments(rows)
}

// ListChunks returns the live rows of a document family ordered by chunk index.
// The root comes first as chunk 0.
func (s *SQLiteStorage) ListChunks(ctx context.Context, tenantID, rootID string) ([]*Document, error) {
	return s.listChunksWithQuerier(ctx, s.querier(), tenantID, rootID)
}

// Retrieval operations

func (s *SQLiteStorage) searchTextWithQuerier(ctx context.Context, q querier, scope Scope, term string, limit int) ([]*Document, error) {
	term = strings.TrimSpace(term)
	if term == "" || limit <= 0 {
		return []*Document{}, nil
	}

	// lower() folds ASCII only, which covers article and law references
	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE d.tenant_id = ? AND d.deleted = 0 AND instr(lower(d.chunk_text), lower(?)) > 0`
	args := []interface{}{scope.TenantID, term}
	query, args = appendKnowledgeBaseFilter(query, args, scope.KnowledgeBaseIDs)
	query += " ORDER BY d.created_at DESC, d.chunk_index, d.id LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to execute text search: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDocuments(rows)
}

// SearchText returns up to limit live rows whose chunk text contains term, case-insensitively
func (s *SQLiteStorage) SearchText(ctx context.Context, scope Scope, term string, limit int) ([]*Document, error) {
	return s.searchTextWithQuerier(ctx, s.querier(), scope, term, limit)
}

func (s *SQLiteStorage) listEmbeddedWithQuerier(ctx context.Context, q querier, scope Scope, excludeIDs []string, limit int) ([]*Document, error) {
	if limit <= 0 {
		return []*Document{}, nil
	}

	query := `SELECT ` + documentColumns + ` FROM documents d
		WHERE d.tenant_id = ? AND d.deleted = 0 AND d.embedding IS NOT NULL`
	args := []interface{}{scope.TenantID}
	if len(excludeIDs) > 0 {
		query += " AND d.id NOT IN (" + placeholders(len(excludeIDs)) + ")"
		for _, id := range excludeIDs {
			args = append(args, id)
		}
	}
	query, args = appendKnowledgeBaseFilter(query, args, scope.KnowledgeBaseIDs)
	query += " ORDER BY d.created_at DESC, d.chunk_index, d.id LIMIT ?"
	args = append(args, limit)

	rows, err := q.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query embeddings: %w", err)
	}
	defer func() { _ = rows.Close() }()

	return scanDocuments(rows)
}

// ListEmbedded returns up to limit live rows that carry an embedding, skipping excludeIDs
func (s *SQLiteStorage) ListEmbedded(ctx context.Context, scope Scope, excludeIDs []string, limit int) ([]*Document, error) {
	return s.listEmbeddedWithQuerier(ctx, s.querier(), scope, excludeIDs, limit)
}

// Status operations

func (s *SQLiteStorage) getStatusWithQuerier(ctx context.Context, q querier, tenantID string) (*TenantStatus, error) {
	status := &TenantStatus{TenantID: tenantID}

	err := q.QueryRowContext(ctx, `
		SELECT
			COALESCE(SUM(CASE WHEN deleted = 0 AND parent_id IS NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN deleted = 0 AND parent_id IS NULL AND total_chunks > 1 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN deleted = 0 THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN deleted = 0 AND embedding IS NOT NULL THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN deleted = 1 THEN 1 ELSE 0 END), 0)
		FROM documents WHERE tenant_id = ?
	`, tenantID).Scan(
		&status.DocumentsCount, &status.ChunkedCount, &status.RowsCount,
		&status.EmbeddingsCount, &status.DeletedCount,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to count documents: %w", err)
	}

	var last time.Time
	err = q.QueryRowContext(ctx,
		"SELECT created_at FROM documents WHERE tenant_id = ? AND deleted = 0 ORDER BY created_at DESC LIMIT 1",
		tenantID).Scan(&last)
	switch {
	case err == nil:
		status.LastIngestedAt = last.UTC()
	case err != sql.ErrNoRows:
		return nil, fmt.Errorf("failed to read last ingestion time: %w", err)
	}

	err = q.QueryRowContext(ctx, `
		SELECT COUNT(DISTINCT k.knowledge_base_id)
		FROM document_knowledge_bases k
		JOIN documents d ON d.id = k.document_id
		WHERE d.tenant_id = ? AND d.deleted = 0
	`, tenantID).Scan(&status.KnowledgeBases)
	if err != nil {
		return nil, fmt.Errorf("failed to count knowledge bases: %w", err)
	}

	var pageCount, pageSize int
	if err := q.QueryRowContext(ctx, "PRAGMA page_count").Scan(&pageCount); err == nil {
		_ = q.QueryRowContext(ctx, "PRAGMA page_size").Scan(&pageSize)
		status.IndexSizeMB = float64(pageCount*pageSize) / (1024 * 1024)
	}

	status.Health = HealthStatus{
		DatabaseAccessible:  true,
		EmbeddingsAvailable: status.EmbeddingsCount > 0,
	}

	return status, nil
}

// GetStatus returns per-tenant counters
func (s *SQLiteStorage) GetStatus(ctx context.Context, tenantID string) (*TenantStatus, error) {
	return s.getStatusWithQuerier(ctx, s.querier(), tenantID)
}

// Transaction implementations

func (t *sqliteTx) CreateDocument(ctx context.Context, doc *Document) error {
	return t.storage.createDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) GetDocument(ctx context.Context, tenantID, id string) (*Document, error) {
	return t.storage.getDocumentWithQuerier(ctx, t.querier(), tenantID, id)
}

func (t *sqliteTx) FindRootByName(ctx context.Context, tenantID, name string) (*Document, error) {
	return t.storage.findRootWithQuerier(ctx, t.querier(), tenantID, "name", name)
}

func (t *sqliteTx) FindRootByFilename(ctx context.Context, tenantID, filename string) (*Document, error) {
	return t.storage.findRootWithQuerier(ctx, t.querier(), tenantID, "source_filename", filename)
}

func (t *sqliteTx) UpdateDocument(ctx context.Context, doc *Document) error {
	return t.storage.updateDocumentWithQuerier(ctx, t.querier(), doc)
}

func (t *sqliteTx) SoftDeleteDocument(ctx context.Context, tenantID, id string) (int, error) {
	return t.storage.softDeleteWithQuerier(ctx, t.querier(), tenantID, id)
}

func (t *sqliteTx) ListDocuments(ctx context.Context, tenantID string, filter *ListFilter) ([]*Document, error) {
	return t.storage.listDocumentsWithQuerier(ctx, t.querier(), tenantID, filter)
}

func (t *sqliteTx) ListChunks(ctx context.Context, tenantID, rootID string) ([]*Document, error) {
	return t.storage.listChunksWithQuerier(ctx, t.querier(), tenantID, rootID)
}

func (t *sqliteTx) SearchText(ctx context.Context, scope Scope, term string, limit int) ([]*Document, error) {
	return t.storage.searchTextWithQuerier(ctx, t.querier(), scope, term, limit)
}

func (t *sqliteTx) ListEmbedded(ctx context.Context, scope Scope, excludeIDs []string, limit int) ([]*Document, error) {
	return t.storage.listEmbeddedWithQuerier(ctx, t.querier(), scope, excludeIDs, limit)
}

func (t *sqliteTx) GetStatus(ctx context.Context, tenantID string) (*TenantStatus, error) {
	return t.storage.getStatusWithQuerier(ctx, t.querier(), tenantID)
}

func (t *sqliteTx) Close() error {
	// Transactions don't close the underlying connection
	return nil
}

func (t *sqliteTx) BeginTx(ctx context.Context) (Tx, error) {
	return nil, errors.New("nested transactions not supported")
}
