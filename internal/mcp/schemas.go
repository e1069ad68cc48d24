package mcp

import (
	"github.com/mark3labs/mcp-go/mcp"
)

// Tool names
const (
	ToolIngestDocument     = "ingest_document"
	ToolQueryKnowledgeBase = "query_knowledge_base"
	ToolUpdateDocument     = "update_document"
	ToolDeleteDocument     = "delete_document"
	ToolGetDocument        = "get_document"
	ToolListDocuments      = "list_documents"
	ToolGetStatus          = "get_status"
)

func tenantProperty() map[string]interface{} {
	return map[string]interface{}{
		"type":        "string",
		"description": "Tenant that owns the documents; every operation is scoped to it",
	}
}

func knowledgeBasesProperty(description string) map[string]interface{} {
	return map[string]interface{}{
		"type":        "array",
		"description": description,
		"items": map[string]interface{}{
			"type": "string",
		},
	}
}

// ingestDocumentTool returns the tool definition for ingest_document
func ingestDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolIngestDocument,
		Description: "Store a document in the knowledge base. Long documents are split into overlapping chunks, each embedded for retrieval",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tenant_id": tenantProperty(),
				"name": map[string]interface{}{
					"type":        "string",
					"description": "Document name, unique per tenant (max 255 characters)",
				},
				"source_filename": map[string]interface{}{
					"type":        "string",
					"description": "Original filename, unique per tenant",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "Optional description, included in the indexed text",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Document text. Takes precedence over file_path",
				},
				"file_path": map[string]interface{}{
					"type":        "string",
					"description": "Path of a .txt, .md, .pdf or .docx file to extract text from",
				},
				"knowledge_base_ids": knowledgeBasesProperty("Knowledge bases the document belongs to"),
			},
			Required: []string{"tenant_id", "name", "source_filename"},
		},
	}
}

// queryKnowledgeBaseTool returns the tool definition for query_knowledge_base
func queryKnowledgeBaseTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolQueryKnowledgeBase,
		Description: "Search the knowledge base. Chunks containing statute references or explicit search terms rank above purely semantic matches",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tenant_id": tenantProperty(),
				"query": map[string]interface{}{
					"type":        "string",
					"description": "Natural language question",
				},
				"knowledge_base_ids": knowledgeBasesProperty("Restrict results to these knowledge bases"),
				"search_term": map[string]interface{}{
					"type":        "string",
					"description": "Exact text to match, e.g. 'Art. 77'. Extracted from the query when omitted",
				},
				"search_terms": map[string]interface{}{
					"type":        "array",
					"description": "Several exact texts to match, searched in order",
					"items": map[string]interface{}{
						"type": "string",
					},
				},
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of results to return (1-100)",
					"default":     10,
					"minimum":     1,
					"maximum":     100,
				},
			},
			Required: []string{"tenant_id", "query"},
		},
	}
}

// updateDocumentTool returns the tool definition for update_document
func updateDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolUpdateDocument,
		Description: "Edit a single stored row. Text changes regenerate that row's embedding only; documents are never re-chunked",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tenant_id": tenantProperty(),
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the root document or chunk to edit",
				},
				"name": map[string]interface{}{
					"type":        "string",
					"description": "New name",
				},
				"description": map[string]interface{}{
					"type":        "string",
					"description": "New description",
				},
				"source_filename": map[string]interface{}{
					"type":        "string",
					"description": "New source filename",
				},
				"content": map[string]interface{}{
					"type":        "string",
					"description": "Replacement text for this row",
				},
				"knowledge_base_ids": knowledgeBasesProperty("Replacement set of knowledge bases"),
			},
			Required: []string{"tenant_id", "document_id"},
		},
	}
}

// deleteDocumentTool returns the tool definition for delete_document
func deleteDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolDeleteDocument,
		Description: "Soft-delete a document. Deleting a root also deletes all of its chunks",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tenant_id": tenantProperty(),
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the root document or chunk to delete",
				},
			},
			Required: []string{"tenant_id", "document_id"},
		},
	}
}

// getDocumentTool returns the tool definition for get_document
func getDocumentTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetDocument,
		Description: "Fetch a stored row, optionally with every chunk of its document",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tenant_id": tenantProperty(),
				"document_id": map[string]interface{}{
					"type":        "string",
					"description": "ID of the root document or chunk",
				},
				"include_chunks": map[string]interface{}{
					"type":        "boolean",
					"description": "If true, include all chunks of the document in order",
					"default":     false,
				},
			},
			Required: []string{"tenant_id", "document_id"},
		},
	}
}

// listDocumentsTool returns the tool definition for list_documents
func listDocumentsTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolListDocuments,
		Description: "List root documents, newest first",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tenant_id":          tenantProperty(),
				"knowledge_base_ids": knowledgeBasesProperty("Only list documents in these knowledge bases"),
				"limit": map[string]interface{}{
					"type":        "integer",
					"description": "Maximum number of documents (1-500)",
					"default":     50,
					"minimum":     1,
					"maximum":     500,
				},
				"offset": map[string]interface{}{
					"type":        "integer",
					"description": "Number of documents to skip",
					"default":     0,
					"minimum":     0,
				},
			},
			Required: []string{"tenant_id"},
		},
	}
}

// getStatusTool returns the tool definition for get_status
func getStatusTool() mcp.Tool {
	return mcp.Tool{
		Name:        ToolGetStatus,
		Description: "Report document counts and store health for a tenant",
		InputSchema: mcp.ToolInputSchema{
			Type: "object",
			Properties: map[string]interface{}{
				"tenant_id": tenantProperty(),
			},
			Required: []string{"tenant_id"},
		},
	}
}
