package admin

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/spf13/cobra"
)

const (
	outputText = "text"
	outputJSON = "json"
)

func addOutputFlag(cmd *cobra.Command) {
	cmd.Flags().StringP("output", "o", outputText, "Output format (text or json)")
}

func outputFormat(cmd *cobra.Command) (string, error) {
	format, _ := cmd.Flags().GetString("output")
	switch format {
	case outputText, outputJSON:
		return format, nil
	}
	return "", fmt.Errorf("invalid output format %q (expected text or json)", format)
}

func writeJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

type sourceJSON struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	FetchedAt    string `json:"fetched_at"`
	RawObjectKey string `json:"raw_object_key,omitempty"`
	ChunkCount   *int   `json:"chunk_count,omitempty"`
}

func sourceToJSON(s *domain.Source) sourceJSON {
	return sourceJSON{
		ID:           s.ID,
		URL:          s.URL,
		Title:        s.Title,
		Type:         string(s.Type),
		FetchedAt:    s.FetchedAt.UTC().Format("2006-01-02T15:04:05Z"),
		RawObjectKey: s.RawObjectKey,
	}
}

type resultJSON struct {
	Score       float32 `json:"score"`
	SourceID    string  `json:"source_id,omitempty"`
	SourceURL   string  `json:"source_url"`
	SourceTitle string  `json:"source_title"`
	ChunkIndex  int     `json:"chunk_index"`
	Text        string  `json:"text"`
}

func resultsToJSON(results []domain.RetrievalResult) []resultJSON {
	out := make([]resultJSON, len(results))
	for i, r := range results {
		out[i] = resultJSON{
			Score:       r.Score,
			SourceID:    r.Chunk.SourceID,
			SourceURL:   r.Chunk.SourceURL,
			SourceTitle: r.Chunk.SourceTitle,
			ChunkIndex:  r.Chunk.Index,
			Text:        r.Chunk.Text,
		}
	}
	return out
}

// printResults writes one ranked line per result
func printResults(w io.Writer, results []domain.RetrievalResult) {
	if len(results) == 0 {
		fmt.Fprintln(w, "No results")
		return
	}
	for i, r := range results {
		title := r.Chunk.SourceTitle
		if title == "" {
			title = r.Chunk.SourceURL
		}
		fmt.Fprintf(w, "%2d. [%.3f] %s\n    %s\n", i+1, r.Score, title, r.Chunk.SourceURL)
	}
}
