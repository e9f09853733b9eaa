package admin

import (
	"context"
	"strings"

	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/spf13/cobra"
)

// SearchCmd returns the search command
func SearchCmd() *cobra.Command {
	var (
		k           int
		showContext bool
	)

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search indexed chunks",
		Long:  "Rank every indexed chunk by similarity to the query and print the top K",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			format, err := outputFormat(cmd)
			if err != nil {
				return err
			}

			ctx := context.Background()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()
			if err := a.requireIndex(); err != nil {
				return err
			}

			results, err := a.index.Search(ctx, strings.Join(args, " "), k)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			switch {
			case format == outputJSON:
				return writeJSON(out, map[string]interface{}{
					"results": resultsToJSON(results),
					"context": service.BuildContext(results),
				})
			case showContext:
				_, err := out.Write([]byte(service.BuildContext(results) + "\n"))
				return err
			default:
				printResults(out, results)
				return nil
			}
		},
	}

	cmd.Flags().IntVarP(&k, "top-k", "k", service.DefaultTopK, "Number of results")
	cmd.Flags().BoolVar(&showContext, "context", false, "Print the context block instead of a ranked list")
	addOutputFlag(cmd)

	return cmd
}
