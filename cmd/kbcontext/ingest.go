package main

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/kbcontext-mcp/internal/ingest"
)

var (
	ingestTenant      string
	ingestName        string
	ingestDescription string
	ingestFilename    string
	ingestKBs         []string
	ingestJSON        bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [file]",
	Short: "Ingest a document",
	Long: `Ingest a .txt, .md, .pdf or .docx file. Use "-" to read plain text from stdin,
in which case --name and --filename are required.

Examples:
  kbcontext ingest --tenant acme contrato.pdf
  cat memo.txt | kbcontext ingest --tenant acme --name Memo --filename memo.txt -`,
	Args: cobra.ExactArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().StringVarP(&ingestTenant, "tenant", "t", "", "tenant ID (required)")
	ingestCmd.Flags().StringVar(&ingestName, "name", "", "document name (default: file name without extension)")
	ingestCmd.Flags().StringVar(&ingestDescription, "description", "", "document description")
	ingestCmd.Flags().StringVar(&ingestFilename, "filename", "", "source filename (default: base name of the file)")
	ingestCmd.Flags().StringSliceVar(&ingestKBs, "kb", nil, "knowledge base IDs")
	ingestCmd.Flags().BoolVar(&ingestJSON, "json", false, "output result as JSON")
	_ = ingestCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	req := ingest.IngestRequest{
		TenantID:         ingestTenant,
		Name:             ingestName,
		Description:      ingestDescription,
		SourceFilename:   ingestFilename,
		KnowledgeBaseIDs: ingestKBs,
	}

	if args[0] == "-" {
		if req.Name == "" || req.SourceFilename == "" {
			return fmt.Errorf("--name and --filename are required when reading stdin")
		}
		data, err := io.ReadAll(cmd.InOrStdin())
		if err != nil {
			return fmt.Errorf("reading stdin: %w", err)
		}
		req.Content = string(data)
	} else {
		req.FilePath = args[0]
		base := filepath.Base(args[0])
		if req.SourceFilename == "" {
			req.SourceFilename = base
		}
		if req.Name == "" {
			req.Name = strings.TrimSuffix(base, filepath.Ext(base))
		}
		if _, err := os.Stat(req.FilePath); err != nil {
			return fmt.Errorf("cannot read %s: %w", req.FilePath, err)
		}
	}

	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	result, err := a.pipeline.Ingest(ctx, req)
	if err != nil {
		return fmt.Errorf("ingest failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if ingestJSON {
		return printJSON(out, map[string]interface{}{
			"document_id":      result.Root.ID,
			"chunk_ids":        result.Root.ChunkIDs(),
			"total_chunks":     result.TotalChunks,
			"persisted_chunks": result.PersistedChunks,
			"failures":         result.Failures,
		})
	}

	fprintf(out, "Ingested %q (%s)\n", result.Root.Name, result.Root.ID)
	fprintf(out, "  %s in %s\n", result.Summary(), result.Duration.Round(time.Millisecond))
	for _, f := range result.Failures {
		fprintf(out, "  chunk %d failed: %s\n", f.Index, f.Error)
	}
	return nil
}
