package admin

import (
	"context"
	"fmt"

	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/spf13/cobra"
)

func SourcesCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage extracted sources",
		Long:  "List, inspect and delete persisted sources",
	}

	cmd.AddCommand(SourcesListCmd())
	cmd.AddCommand(SourcesGetCmd())
	cmd.AddCommand(SourcesDeleteCmd())

	return cmd
}

func SourcesListCmd() *cobra.Command {
	var (
		limit  int
		cursor string
	)

	cmd := &cobra.Command{
		Use:   "list",
		Short: "List sources, newest first",
		Args:  cobra.NoArgs,
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

			result, err := a.sources.List(ctx, service.ListSourcesInput{Cursor: cursor, Limit: limit})
			if err != nil {
				return fmt.Errorf("failed to list sources: %w", err)
			}

			out := cmd.OutOrStdout()
			if format == outputJSON {
				items := make([]sourceJSON, len(result.Items))
				for i, s := range result.Items {
					items[i] = sourceToJSON(s)
				}
				return writeJSON(out, map[string]interface{}{
					"items":    items,
					"cursor":   result.Cursor,
					"has_more": result.HasMore,
				})
			}

			if len(result.Items) == 0 {
				fmt.Fprintln(out, "No sources found")
				return nil
			}
			fmt.Fprintln(out, "Sources:")
			for _, s := range result.Items {
				fmt.Fprintf(out, "  %s: [%s] %s\n      %s (fetched: %s)\n",
					s.ID, s.Type, s.Title, s.URL, s.FetchedAt.Format("2006-01-02 15:04:05"))
			}
			if result.HasMore && result.Cursor != "" {
				fmt.Fprintf(out, "\nMore results available. Use --cursor %s\n", result.Cursor)
			}
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Maximum number of results")
	cmd.Flags().StringVar(&cursor, "cursor", "", "Pagination cursor from previous response")
	addOutputFlag(cmd)

	return cmd
}

func SourcesGetCmd() *cobra.Command {
	var showText bool

	cmd := &cobra.Command{
		Use:   "get <id>",
		Short: "Show a source",
		Args:  cobra.ExactArgs(1),
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

			detail, err := a.sources.Get(ctx, args[0])
			if err != nil {
				return err
			}
			s := detail.Source

			out := cmd.OutOrStdout()
			if format == outputJSON {
				j := sourceToJSON(s)
				j.ChunkCount = &detail.ChunkCount
				return writeJSON(out, j)
			}

			fmt.Fprintf(out, "ID:      %s\nURL:     %s\nTitle:   %s\nType:    %s\nFetched: %s\nChunks:  %d\n",
				s.ID, s.URL, s.Title, s.Type, s.FetchedAt.Format("2006-01-02 15:04:05"), detail.ChunkCount)
			if s.RawObjectKey != "" {
				fmt.Fprintf(out, "Raw:     %s\n", s.RawObjectKey)
			}
			if showText {
				fmt.Fprintf(out, "\n%s\n", s.RawText)
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showText, "text", false, "Print the extracted text")
	addOutputFlag(cmd)

	return cmd
}

func SourcesDeleteCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "delete <id>",
		Short: "Delete a source, its chunks and its archived raw document",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := context.Background()
			a, err := newApp(ctx, cmd)
			if err != nil {
				return err
			}
			defer a.Close()

			if err := a.sources.Delete(ctx, args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Source deleted: %s\n", args[0])
			return nil
		},
	}
}
