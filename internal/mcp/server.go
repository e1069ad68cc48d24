package mcp

import (
	"context"
	"errors"
	"log/slog"
	"os"

	"github.com/mark3labs/mcp-go/server"

	"github.com/dshills/kbcontext-mcp/internal/ingest"
	"github.com/dshills/kbcontext-mcp/internal/searcher"
)

const (
	// ServerName is the MCP server name
	ServerName = "kbcontext-mcp"
	// ServerVersion is the default reported server version
	ServerVersion = "1.0.0"
)

// Server wraps the MCP server with application dependencies
type Server struct {
	mcp      *server.MCPServer
	pipeline *ingest.Pipeline
	searcher *searcher.Searcher
	logger   *slog.Logger
	version  string
}

// Option configures a Server
type Option func(*Server)

// WithLogger sets the server's logger
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithVersion overrides the version reported to clients
func WithVersion(version string) Option {
	return func(s *Server) {
		if version != "" {
			s.version = version
		}
	}
}

// NewServer creates a new MCP server instance. The pipeline and searcher should
// share one embedder so cached query and document embeddings are reused.
func NewServer(pipeline *ingest.Pipeline, srch *searcher.Searcher, opts ...Option) (*Server, error) {
	if pipeline == nil || srch == nil {
		return nil, errors.New("pipeline and searcher are required")
	}

	s := &Server{
		pipeline: pipeline,
		searcher: srch,
		logger:   slog.Default(),
		version:  ServerVersion,
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mcp = server.NewMCPServer(
		ServerName,
		s.version,
		server.WithToolCapabilities(false),
		server.WithRecovery(),
	)

	s.registerTools()

	return s, nil
}

// Serve runs the MCP protocol on stdio until ctx is cancelled or stdin closes
func (s *Server) Serve(ctx context.Context) error {
	stdio := server.NewStdioServer(s.mcp)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))

	err := stdio.Listen(ctx, os.Stdin, os.Stdout)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// registerTools registers all MCP tools
func (s *Server) registerTools() {
	s.mcp.AddTool(ingestDocumentTool(), s.handleIngestDocument)
	s.mcp.AddTool(queryKnowledgeBaseTool(), s.handleQueryKnowledgeBase)
	s.mcp.AddTool(updateDocumentTool(), s.handleUpdateDocument)
	s.mcp.AddTool(deleteDocumentTool(), s.handleDeleteDocument)
	s.mcp.AddTool(getDocumentTool(), s.handleGetDocument)
	s.mcp.AddTool(listDocumentsTool(), s.handleListDocuments)
	s.mcp.AddTool(getStatusTool(), s.handleGetStatus)
}
