package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/dshills/kbcontext-mcp/internal/storage"
)

var (
	manageTenant string
	listKBs      []string
	listLimit    int
	listOffset   int
	manageJSON   bool
)

var deleteCmd = &cobra.Command{
	Use:   "delete [document-id]",
	Short: "Soft-delete a document and its chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDelete,
}

var listCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runList,
}

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show knowledge base statistics for a tenant",
	Args:  cobra.NoArgs,
	RunE:  runStatus,
}

func init() {
	for _, c := range []*cobra.Command{deleteCmd, listCmd, statusCmd} {
		c.Flags().StringVarP(&manageTenant, "tenant", "t", "", "tenant ID (required)")
		_ = c.MarkFlagRequired("tenant")
		rootCmd.AddCommand(c)
	}
	for _, c := range []*cobra.Command{listCmd, statusCmd} {
		c.Flags().BoolVar(&manageJSON, "json", false, "output as JSON")
	}

	listCmd.Flags().StringSliceVar(&listKBs, "kb", nil, "only documents in these knowledge bases")
	listCmd.Flags().IntVarP(&listLimit, "limit", "n", storage.DefaultListLimit, "maximum number of documents")
	listCmd.Flags().IntVar(&listOffset, "offset", 0, "number of documents to skip")
}

func runDelete(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	deleted, err := a.pipeline.Delete(ctx, manageTenant, args[0])
	if err != nil {
		return fmt.Errorf("delete failed: %w", err)
	}

	fprintf(cmd.OutOrStdout(), "Deleted %d rows\n", deleted)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	docs, err := a.pipeline.List(ctx, manageTenant, &storage.ListFilter{
		KnowledgeBaseIDs: listKBs,
		Limit:            listLimit,
		Offset:           listOffset,
	})
	if err != nil {
		return fmt.Errorf("list failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if manageJSON {
		rows := make([]map[string]interface{}, len(docs))
		for i, d := range docs {
			rows[i] = map[string]interface{}{
				"id":                 d.ID,
				"name":               d.Name,
				"source_filename":    d.SourceFilename,
				"knowledge_base_ids": d.KnowledgeBaseIDs,
				"total_chunks":       d.TotalChunks,
				"created_at":         d.CreatedAt.Format(time.RFC3339),
			}
		}
		return printJSON(out, rows)
	}

	if len(docs) == 0 {
		fprintf(out, "No documents.\n")
		return nil
	}
	for _, d := range docs {
		fprintf(out, "%s  %-30s %-24s %d chunks  %s\n",
			d.ID, d.Name, d.SourceFilename, d.TotalChunks, d.CreatedAt.Format(time.RFC3339))
	}
	return nil
}

func runStatus(cmd *cobra.Command, _ []string) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	status, err := a.pipeline.Status(ctx, manageTenant)
	if err != nil {
		return fmt.Errorf("status failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if manageJSON {
		return printJSON(out, map[string]interface{}{
			"tenant_id":        status.TenantID,
			"documents_count":  status.DocumentsCount,
			"chunked_count":    status.ChunkedCount,
			"rows_count":       status.RowsCount,
			"embeddings_count": status.EmbeddingsCount,
			"deleted_count":    status.DeletedCount,
			"knowledge_bases":  status.KnowledgeBases,
			"index_size_mb":    status.IndexSizeMB,
			"provider":         a.embedder.Provider(),
			"model":            a.embedder.Model(),
		})
	}

	fprintf(out, "Tenant:          %s\n", status.TenantID)
	fprintf(out, "Documents:       %d (%d chunked)\n", status.DocumentsCount, status.ChunkedCount)
	fprintf(out, "Rows:            %d (%d with embeddings)\n", status.RowsCount, status.EmbeddingsCount)
	fprintf(out, "Deleted rows:    %d\n", status.DeletedCount)
	fprintf(out, "Knowledge bases: %d\n", status.KnowledgeBases)
	if !status.LastIngestedAt.IsZero() {
		fprintf(out, "Last ingest:     %s\n", status.LastIngestedAt.Format(time.RFC3339))
	}
	fprintf(out, "Index size:      %.2f MB\n", status.IndexSizeMB)
	fprintf(out, "Embeddings:      %s/%s\n", a.embedder.Provider(), a.embedder.Model())
	return nil
}
