// Package mcp implements the Model Context Protocol (MCP) server for kbcontext.
//
// The server exposes a multi-tenant document knowledge base to AI assistants:
//   - ingest_document: Store a document, chunking and embedding long texts
//   - query_knowledge_base: Hybrid search (exact term matches first, then semantic)
//   - update_document: Edit one row and regenerate its embedding
//   - delete_document: Soft-delete a document and its chunks
//   - get_document: Fetch a row, optionally with its whole chunk family
//   - list_documents: List root documents
//   - get_status: Per-tenant counts and store health
//
// # Protocol Overview
//
// MCP is a JSON-RPC 2.0 protocol over stdio transport:
//
//	Client → Server: {"method": "tools/call", "params": {...}}
//	Server → Client: {"result": {...}}
//
// The server is started by the serve command and reads requests on stdin:
//
//	kbcontext serve
//
// # Tool: query_knowledge_base
//
//	Request:
//	{
//	  "name": "query_knowledge_base",
//	  "arguments": {
//	    "tenant_id": "acme",
//	    "query": "O que diz o Art. 77?",
//	    "knowledge_base_ids": ["contracts"],
//	    "limit": 5
//	  }
//	}
//
//	Response:
//	{
//	  "success": true,
//	  "search_terms": ["Art. 77"],
//	  "results": [
//	    {
//	      "id": "6f1c...",
//	      "parent_id": "0b9e...",
//	      "chunk_index": 3,
//	      "total_chunks": 5,
//	      "name": "Codigo Civil",
//	      "chunk_text": "... Art. 77 ...",
//	      "similarity": 0.41,
//	      "combined_score": 1.205,
//	      "text_match": true,
//	      "matched_term": "Art. 77"
//	    }
//	  ]
//	}
//
// # Error Handling
//
// Malformed arguments are protocol errors, returned as *MCPError:
//   - -32602: Invalid params (missing/invalid arguments)
//   - -32603: Internal error
//   - -32001: tenant_id missing
//   - -32004: Empty query
//
// Failures of a well-formed request are tool results with IsError set and a
// body naming the cause:
//
//	{"success": false, "message": "document name already exists", "error": "DUPLICATE_NAME"}
//
// Codes: VALIDATION_ERROR, DUPLICATE_NAME, DUPLICATE_FILENAME,
// FILE_PROCESSING_ERROR, TIMEOUT_ERROR, DATABASE_ERROR, NOT_FOUND, INTERNAL_ERROR.
//
// # MCP Client Configuration
//
//	{
//	  "mcpServers": {
//	    "kbcontext": {
//	      "command": "/usr/local/bin/kbcontext",
//	      "args": ["serve"],
//	      "env": {
//	        "OPENAI_API_KEY": "your-api-key"
//	      }
//	    }
//	  }
//	}
//
// Logs go to stderr since stdout carries the protocol.
package mcp
