package admin

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"

	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/spf13/cobra"
)

// RunCmd returns the run command, which executes one pipeline pass in-process
func RunCmd() *cobra.Command {
	var (
		shortQuery string
		fullQuery  string
		topK       int
		showRanks  bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Run one ingestion pass for a topic",
		Long: `Discover candidates for a topic, extract and index them, then print the
context block built from the top-K chunks most similar to the full query.`,
		Example: `  gleaner run --short "pgvector" --full "how does pgvector index embeddings"`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireIndex(); err != nil {
				return err
			}

			result, err := a.pipeline.Run(ctx, service.TopicQuery{Short: shortQuery, Full: fullQuery, TopK: topK})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if format == outputJSON {
				sources := make([]sourceJSON, len(result.Sources))
				for i := range result.Sources {
					sources[i] = sourceToJSON(&result.Sources[i])
				}
				return writeJSON(out, map[string]interface{}{
					"candidates":     result.Candidates,
					"sources":        sources,
					"chunks_indexed": result.ChunksIndexed,
					"results":        resultsToJSON(result.Results),
					"context":        service.BuildContext(result.Results),
				})
			}

			fmt.Fprintf(cmd.ErrOrStderr(), "candidates: %d, sources: %d, chunks indexed: %d\n",
				result.Candidates, len(result.Sources), result.ChunksIndexed)
			if showRanks {
				printResults(cmd.ErrOrStderr(), result.Results)
			}
			fmt.Fprintln(out, service.BuildContext(result.Results))
			return nil
		},
	}

	cmd.Flags().StringVar(&shortQuery, "short", "", "Keyword query for the keyword feed (defaults to --full)")
	cmd.Flags().StringVar(&fullQuery, "full", "", "Full topic query, used for the academic feed and retrieval")
	cmd.Flags().IntVarP(&topK, "top-k", "k", 0, "Number of chunks to retrieve (defaults to GLEANER_TOP_K)")
	cmd.Flags().BoolVar(&showRanks, "ranks", false, "Also print the ranked results to stderr")
	_ = cmd.MarkFlagRequired("full")
	addOutputFlag(cmd)

	return cmd
}
