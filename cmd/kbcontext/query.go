package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dshills/kbcontext-mcp/internal/searcher"
)

var (
	queryTenant string
	queryKBs    []string
	queryTerms  []string
	queryLimit  int
	queryJSON   bool
)

var queryCmd = &cobra.Command{
	Use:   "query [question]",
	Short: "Search the knowledge base",
	Long: `Hybrid search: chunks containing the statute references found in the
question (or the --term values) are listed first, followed by the most
semantically similar chunks.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runQuery,
}

func init() {
	queryCmd.Flags().StringVarP(&queryTenant, "tenant", "t", "", "tenant ID (required)")
	queryCmd.Flags().StringSliceVar(&queryKBs, "kb", nil, "restrict to knowledge base IDs")
	queryCmd.Flags().StringArrayVar(&queryTerms, "term", nil, "exact text to match (repeatable)")
	queryCmd.Flags().IntVarP(&queryLimit, "limit", "n", searcher.DefaultLimit, "maximum number of results")
	queryCmd.Flags().BoolVar(&queryJSON, "json", false, "output results as JSON")
	_ = queryCmd.MarkFlagRequired("tenant")
	rootCmd.AddCommand(queryCmd)
}

func runQuery(cmd *cobra.Command, args []string) error {
	a, err := openApp(cfg, logger)
	if err != nil {
		return err
	}
	defer func() { _ = a.Close() }()

	ctx, cancel := commandContext(cmd)
	defer cancel()

	resp, err := a.searcher.Search(ctx, searcher.SearchRequest{
		TenantID:         queryTenant,
		KnowledgeBaseIDs: queryKBs,
		Query:            strings.Join(args, " "),
		SearchTerms:      queryTerms,
		Limit:            queryLimit,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	out := cmd.OutOrStdout()
	if queryJSON {
		return printJSON(out, resp.Results)
	}

	if len(resp.Results) == 0 {
		fprintf(out, "No results found.\n")
		return nil
	}

	if len(resp.Terms) > 0 {
		fprintf(out, "Terms: %s\n\n", strings.Join(resp.Terms, ", "))
	}
	for i, r := range resp.Results {
		match := ""
		if r.TextMatch {
			match = fmt.Sprintf(" [%s]", r.MatchedTerm)
		}
		fprintf(out, "  [%d] %s (chunk %d/%d) %.3f%s\n", i+1, r.Name, r.ChunkIndex+1, r.TotalChunks, r.CombinedScore, match)
		fprintf(out, "      %s\n", snippet(r.ChunkText, 160))
	}
	return nil
}

// snippet flattens whitespace and shortens text to n runes
func snippet(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	runes := []rune(flat)
	if len(runes) <= n {
		return flat
	}
	return string(runes[:n]) + "..."
}
