package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/dshills/kbcontext-mcp/internal/mcp"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the MCP server on stdio",
	Long: `Start the Model Context Protocol server. Requests are read from stdin and
responses written to stdout; logs go to stderr.

Client configuration:
  {
    "mcpServers": {
      "kbcontext": {
        "command": "/path/to/kbcontext",
        "args": ["serve"]
      }
    }
  }`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	server, err := mcp.NewServer(a.pipeline, a.searcher, mcp.WithLogger(logger), mcp.WithVersion(version))
	if err != nil {
		return err
	}

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	logger.Info("MCP server ready, listening on stdio",
		"version", version, "db", cfg.DBPath, "provider", a.embedder.Provider())

	if err := server.Serve(ctx); err != nil {
		return err
	}

	logger.Info("server stopped")
	return nil
}
