package main

import (
	"fmt"
	"os"

	"github.com/cloo-solutions/gleaner/internal/cli"
	"github.com/cloo-solutions/gleaner/internal/cli/admin"
	"github.com/spf13/cobra"
)

var version = "dev"

func main() {
	rootCmd := &cobra.Command{
		Use:   "gleaner",
		Short: "Content acquisition and chunk retrieval pipeline",
		Long: `gleaner discovers documents for a topic, extracts their text, indexes
overlapping chunks as embeddings and retrieves the chunks most relevant to a query.

Configuration is read from GLEANER_* environment variables (and a .env file):
  GLEANER_DATABASE_URL     Postgres connection string with pgvector (required)
  GLEANER_OPENAI_API_KEY   OpenAI key for embeddings (required for run, search, ingestion)
  GLEANER_S3_ENDPOINT      S3-compatible endpoint for the raw document archive (optional)
  GLEANER_API_TOKEN        Bearer token required by the HTTP API (optional)`,
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	rootCmd.PersistentFlags().Bool("debug", false, "Enable debug logging")
	cli.AddHelpJSONFlag(rootCmd)

	rootCmd.AddCommand(admin.ServeCmd())
	rootCmd.AddCommand(admin.MigrateCmd())
	rootCmd.AddCommand(admin.RunCmd())
	rootCmd.AddCommand(admin.SearchCmd())
	rootCmd.AddCommand(admin.SourcesCmd())

	cli.CheckHelpJSON(rootCmd)
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}
