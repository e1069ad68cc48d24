package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/dshills/kbcontext-mcp/internal/ingest"
	"github.com/dshills/kbcontext-mcp/internal/searcher"
	"github.com/dshills/kbcontext-mcp/internal/storage"
)

// MCP error codes
const (
	ErrorCodeInvalidParams = -32602 // Invalid method parameters
	ErrorCodeInternalError = -32603 // Internal JSON-RPC error
	ErrorCodeMissingTenant = -32001 // tenant_id parameter is missing
	ErrorCodeEmptyQuery    = -32004 // Query parameter is empty
)

// handleIngestDocument handles the ingest_document tool invocation
func (s *Server) handleIngestDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	tenantID, err := requireTenant(args)
	if err != nil {
		return nil, err
	}

	name, err := requireString(args, "name")
	if err != nil {
		return nil, err
	}

	filename, err := requireString(args, "source_filename")
	if err != nil {
		return nil, err
	}

	req := ingest.IngestRequest{
		TenantID:       tenantID,
		Name:           name,
		SourceFilename: filename,
	}

	for key, dst := range map[string]*string{
		"description": &req.Description,
		"content":     &req.Content,
		"file_path":   &req.FilePath,
	} {
		v, err := optionalString(args, key)
		if err != nil {
			return nil, err
		}
		if v != nil {
			*dst = *v
		}
	}

	if strings.TrimSpace(req.Content) == "" && strings.TrimSpace(req.FilePath) == "" {
		return nil, newMCPError(ErrorCodeInvalidParams, "content or file_path is required", map[string]interface{}{
			"param":  "content",
			"reason": "missing or empty",
		})
	}

	kbs, _, err := stringSlice(args, "knowledge_base_ids")
	if err != nil {
		return nil, err
	}
	req.KnowledgeBaseIDs = kbs

	result, err := s.pipeline.Ingest(ctx, req)
	if err != nil {
		return s.ingestFailure(ToolIngestDocument, err), nil
	}

	failures := make([]ingest.ChunkFailure, 0, len(result.Failures))
	failures = append(failures, result.Failures...)

	response := map[string]interface{}{
		"success":          true,
		"message":          result.Summary(),
		"complete":         result.Complete(),
		"document":         documentJSON(result.Document, false),
		"chunk_ids":        result.Root.ChunkIDs(),
		"total_chunks":     result.TotalChunks,
		"persisted_chunks": result.PersistedChunks,
		"chunk_stats":      result.ChunkStats,
		"failures":         failures,
		"duration_ms":      result.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleQueryKnowledgeBase handles the query_knowledge_base tool invocation
func (s *Server) handleQueryKnowledgeBase(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	tenantID, err := requireTenant(args)
	if err != nil {
		return nil, err
	}

	query, ok := args["query"].(string)
	if !ok || strings.TrimSpace(query) == "" {
		return nil, newMCPError(ErrorCodeEmptyQuery, "query parameter is required and cannot be empty", map[string]interface{}{
			"param":  "query",
			"reason": "missing or empty",
		})
	}

	kbs, _, err := stringSlice(args, "knowledge_base_ids")
	if err != nil {
		return nil, err
	}

	// search_term and search_terms are merged, single term first
	var terms []string
	term, err := optionalString(args, "search_term")
	if err != nil {
		return nil, err
	}
	if term != nil {
		terms = append(terms, *term)
	}
	more, _, err := stringSlice(args, "search_terms")
	if err != nil {
		return nil, err
	}
	terms = append(terms, more...)

	resp, err := s.searcher.Search(ctx, searcher.SearchRequest{
		TenantID:         tenantID,
		KnowledgeBaseIDs: kbs,
		Query:            query,
		SearchTerms:      terms,
		Limit:            searcher.ClampLimit(getIntDefault(args, "limit", searcher.DefaultLimit)),
	})
	if err != nil {
		code := searchErrorCode(err)
		s.logger.Error("query failed", "tenant", tenantID, "code", code, "error", err)
		return failureResult(code, err.Error()), nil
	}

	response := map[string]interface{}{
		"success":          true,
		"results":          resp.Results,
		"total_results":    resp.TotalResults,
		"search_terms":     resp.Terms,
		"lexical_matches":  resp.LexicalResults,
		"semantic_matches": resp.SemanticResults,
		"duration_ms":      resp.Duration.Milliseconds(),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleUpdateDocument handles the update_document tool invocation
func (s *Server) handleUpdateDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	tenantID, err := requireTenant(args)
	if err != nil {
		return nil, err
	}

	documentID, err := requireString(args, "document_id")
	if err != nil {
		return nil, err
	}

	req := ingest.UpdateRequest{TenantID: tenantID, DocumentID: documentID}
	for key, dst := range map[string]**string{
		"name":            &req.Name,
		"description":     &req.Description,
		"source_filename": &req.SourceFilename,
		"content":         &req.Content,
	} {
		v, err := optionalString(args, key)
		if err != nil {
			return nil, err
		}
		*dst = v
	}

	kbs, present, err := stringSlice(args, "knowledge_base_ids")
	if err != nil {
		return nil, err
	}
	if present {
		req.KnowledgeBaseIDs = &kbs
	}

	doc, err := s.pipeline.Update(ctx, req)
	if err != nil {
		return s.ingestFailure(ToolUpdateDocument, err), nil
	}

	response := map[string]interface{}{
		"success":  true,
		"message":  "document updated",
		"document": documentJSON(doc, true),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleDeleteDocument handles the delete_document tool invocation
func (s *Server) handleDeleteDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	tenantID, err := requireTenant(args)
	if err != nil {
		return nil, err
	}

	documentID, err := requireString(args, "document_id")
	if err != nil {
		return nil, err
	}

	deleted, err := s.pipeline.Delete(ctx, tenantID, documentID)
	if err != nil {
		return s.ingestFailure(ToolDeleteDocument, err), nil
	}

	response := map[string]interface{}{
		"success":      true,
		"message":      fmt.Sprintf("%d rows deleted", deleted),
		"deleted_rows": deleted,
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetDocument handles the get_document tool invocation
func (s *Server) handleGetDocument(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	tenantID, err := requireTenant(args)
	if err != nil {
		return nil, err
	}

	documentID, err := requireString(args, "document_id")
	if err != nil {
		return nil, err
	}

	doc, err := s.pipeline.Get(ctx, tenantID, documentID)
	if err != nil {
		return s.ingestFailure(ToolGetDocument, err), nil
	}

	response := map[string]interface{}{
		"success":  true,
		"document": documentJSON(doc, true),
	}

	if getBoolDefault(args, "include_chunks", false) {
		rows, err := s.pipeline.Chunks(ctx, tenantID, documentID)
		if err != nil {
			return s.ingestFailure(ToolGetDocument, err), nil
		}
		chunks := make([]map[string]interface{}, len(rows))
		for i, row := range rows {
			chunks[i] = documentJSON(row, true)
		}
		response["chunks"] = chunks
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleListDocuments handles the list_documents tool invocation
func (s *Server) handleListDocuments(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	tenantID, err := requireTenant(args)
	if err != nil {
		return nil, err
	}

	kbs, _, err := stringSlice(args, "knowledge_base_ids")
	if err != nil {
		return nil, err
	}

	limit := getIntDefault(args, "limit", storage.DefaultListLimit)
	if limit < 1 || limit > storage.MaxListLimit {
		return nil, newMCPError(ErrorCodeInvalidParams, fmt.Sprintf("limit must be between 1 and %d", storage.MaxListLimit), map[string]interface{}{
			"param": "limit",
			"value": limit,
		})
	}

	offset := getIntDefault(args, "offset", 0)
	if offset < 0 {
		return nil, newMCPError(ErrorCodeInvalidParams, "offset cannot be negative", map[string]interface{}{
			"param": "offset",
			"value": offset,
		})
	}

	docs, err := s.pipeline.List(ctx, tenantID, &storage.ListFilter{
		KnowledgeBaseIDs: kbs,
		Limit:            limit,
		Offset:           offset,
	})
	if err != nil {
		return s.ingestFailure(ToolListDocuments, err), nil
	}

	documents := make([]map[string]interface{}, len(docs))
	for i, doc := range docs {
		documents[i] = documentJSON(doc, false)
	}

	response := map[string]interface{}{
		"success":   true,
		"documents": documents,
		"count":     len(documents),
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// handleGetStatus handles the get_status tool invocation
func (s *Server) handleGetStatus(ctx context.Context, request mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args, err := arguments(request)
	if err != nil {
		return nil, err
	}

	tenantID, err := requireTenant(args)
	if err != nil {
		return nil, err
	}

	status, err := s.pipeline.Status(ctx, tenantID)
	if err != nil {
		return s.ingestFailure(ToolGetStatus, err), nil
	}

	lastIngested := ""
	if !status.LastIngestedAt.IsZero() {
		lastIngested = status.LastIngestedAt.Format(time.RFC3339)
	}

	response := map[string]interface{}{
		"success":   true,
		"tenant_id": status.TenantID,
		"statistics": map[string]interface{}{
			"documents_count":  status.DocumentsCount,
			"chunked_count":    status.ChunkedCount,
			"rows_count":       status.RowsCount,
			"embeddings_count": status.EmbeddingsCount,
			"deleted_count":    status.DeletedCount,
			"knowledge_bases":  status.KnowledgeBases,
			"last_ingested_at": lastIngested,
			"index_size_mb":    fmt.Sprintf("%.2f", status.IndexSizeMB),
		},
		"health": map[string]interface{}{
			"database_accessible":  status.Health.DatabaseAccessible,
			"embeddings_available": status.Health.EmbeddingsAvailable,
		},
		"chunking": map[string]interface{}{
			"chunk_size": s.pipeline.Chunker().ChunkSize(),
			"overlap":    s.pipeline.Chunker().Overlap(),
		},
	}

	return mcp.NewToolResultText(formatJSON(response)), nil
}

// Helper functions

// ingestFailure converts a pipeline error into a failed tool result
func (s *Server) ingestFailure(tool string, err error) *mcp.CallToolResult {
	code := ingest.CodeOf(err)
	message := err.Error()

	var ie *ingest.Error
	if errors.As(err, &ie) {
		message = ie.Message
		if ie.Err != nil {
			message += ": " + ie.Err.Error()
		}
	}

	s.logger.Warn("tool call failed", "tool", tool, "code", code, "error", err)
	return failureResult(string(code), message)
}

// searchErrorCode classifies retrieval errors into the external error codes
func searchErrorCode(err error) string {
	switch {
	case errors.Is(err, searcher.ErrInvalidRequest):
		return string(ingest.CodeValidation)
	case errors.Is(err, context.DeadlineExceeded):
		return string(ingest.CodeTimeout)
	case errors.Is(err, searcher.ErrEmbeddingFailed):
		return string(ingest.CodeInternal)
	default:
		return string(ingest.CodeDatabase)
	}
}

// failureResult builds the {success:false, message, error} tool result
func failureResult(code, message string) *mcp.CallToolResult {
	result := mcp.NewToolResultText(formatJSON(map[string]interface{}{
		"success": false,
		"message": message,
		"error":   code,
	}))
	result.IsError = true
	return result
}

// documentJSON renders a stored row; chunk text is only included on request
func documentJSON(doc *storage.Document, includeText bool) map[string]interface{} {
	kbs := doc.KnowledgeBaseIDs
	if kbs == nil {
		kbs = []string{}
	}

	out := map[string]interface{}{
		"id":                 doc.ID,
		"name":               doc.Name,
		"description":        doc.Description,
		"source_filename":    doc.SourceFilename,
		"knowledge_base_ids": kbs,
		"parent_id":          doc.ParentID,
		"chunk_index":        doc.ChunkIndex,
		"total_chunks":       doc.TotalChunks,
		"has_embedding":      len(doc.Embedding) > 0,
		"created_at":         doc.CreatedAt.Format(time.RFC3339),
		"updated_at":         doc.UpdatedAt.Format(time.RFC3339),
	}
	if includeText {
		out["chunk_text"] = doc.ChunkText
	}
	return out
}

// newMCPError creates a properly formatted MCP error
func newMCPError(code int, message string, data interface{}) error {
	// MCP errors are returned as regular errors, the framework handles encoding
	return &MCPError{
		Code:    code,
		Message: message,
		Data:    data,
	}
}

// MCPError represents an MCP protocol error
type MCPError struct {
	Code    int
	Message string
	Data    interface{}
}

func (e *MCPError) Error() string {
	return fmt.Sprintf("MCP error %d: %s", e.Code, e.Message)
}

// arguments returns the call arguments as a map
func arguments(request mcp.CallToolRequest) (map[string]interface{}, error) {
	args, ok := request.Params.Arguments.(map[string]interface{})
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, "invalid arguments", nil)
	}
	return args, nil
}

func requireTenant(args map[string]interface{}) (string, error) {
	tenantID, ok := args["tenant_id"].(string)
	if !ok || strings.TrimSpace(tenantID) == "" {
		return "", newMCPError(ErrorCodeMissingTenant, "tenant_id parameter is required", map[string]interface{}{
			"param":  "tenant_id",
			"reason": "missing or empty",
		})
	}
	return tenantID, nil
}

func requireString(args map[string]interface{}, key string) (string, error) {
	v, ok := args[key].(string)
	if !ok || strings.TrimSpace(v) == "" {
		return "", newMCPError(ErrorCodeInvalidParams, key+" parameter is required", map[string]interface{}{
			"param":  key,
			"reason": "missing or empty",
		})
	}
	return v, nil
}

// optionalString returns nil when key is absent or null
func optionalString(args map[string]interface{}, key string) (*string, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, nil
	}
	v, ok := raw.(string)
	if !ok {
		return nil, newMCPError(ErrorCodeInvalidParams, key+" must be a string", map[string]interface{}{
			"param": key,
		})
	}
	return &v, nil
}

// stringSlice extracts an array of strings and reports whether key was present
func stringSlice(args map[string]interface{}, key string) ([]string, bool, error) {
	raw, ok := args[key]
	if !ok || raw == nil {
		return nil, false, nil
	}

	invalid := newMCPError(ErrorCodeInvalidParams, key+" must be an array of strings", map[string]interface{}{
		"param": key,
	})

	switch v := raw.(type) {
	case []string:
		return v, true, nil
	case []interface{}:
		out := make([]string, 0, len(v))
		for _, item := range v {
			str, ok := item.(string)
			if !ok {
				return nil, true, invalid
			}
			out = append(out, str)
		}
		return out, true, nil
	default:
		return nil, true, invalid
	}
}

// formatJSON formats a map as indented JSON
func formatJSON(data map[string]interface{}) string {
	bytes, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return fmt.Sprintf("%v", data)
	}
	return string(bytes)
}

// getBoolDefault extracts a boolean parameter with a default value
func getBoolDefault(args map[string]interface{}, key string, defaultValue bool) bool {
	if val, ok := args[key].(bool); ok {
		return val
	}
	return defaultValue
}

// getIntDefault extracts an integer parameter with a default value
func getIntDefault(args map[string]interface{}, key string, defaultValue int) int {
	if val, ok := args[key].(float64); ok {
		return int(val)
	}
	if val, ok := args[key].(int); ok {
		return val
	}
	return defaultValue
}
