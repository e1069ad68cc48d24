package main

import (
	"github.com/spf13/cobra"

	"github.com/dshills/kbcontext-mcp/internal/storage"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	// No configuration needed
	PersistentPreRunE: func(*cobra.Command, []string) error { return nil },
	Run: func(cmd *cobra.Command, _ []string) {
		out := cmd.OutOrStdout()
		fprintf(out, "kbcontext version %s\n", version)
		fprintf(out, "Build Time: %s\n", buildTime)
		fprintf(out, "Build Mode: %s\n", storage.BuildMode)
		fprintf(out, "SQLite Driver: %s\n", storage.DriverName)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
}
