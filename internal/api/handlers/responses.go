package handlers

import (
	"time"

	"github.com/cloo-solutions/gleaner/internal/domain"
)

const timeFormat = "2006-01-02T15:04:05Z"

type SourceResponse struct {
	ID           string `json:"id"`
	URL          string `json:"url"`
	Title        string `json:"title"`
	Type         string `json:"type"`
	FetchedAt    string `json:"fetched_at"`
	RawArchived  bool   `json:"raw_archived"`
	ChunkCount   *int   `json:"chunk_count,omitempty"`
	RawText      string `json:"raw_text,omitempty"`
	RawObjectKey string `json:"raw_object_key,omitempty"`
}

func sourceToResponse(s *domain.Source) *SourceResponse {
	return &SourceResponse{
		ID:           s.ID,
		URL:          s.URL,
		Title:        s.Title,
		Type:         string(s.Type),
		FetchedAt:    s.FetchedAt.UTC().Format(timeFormat),
		RawArchived:  s.RawObjectKey != "",
		RawObjectKey: s.RawObjectKey,
	}
}

type ResultResponse struct {
	Score       float32 `json:"score"`
	SourceID    string  `json:"source_id,omitempty"`
	SourceURL   string  `json:"source_url"`
	SourceTitle string  `json:"source_title"`
	ChunkIndex  int     `json:"chunk_index"`
	Text        string  `json:"text"`
}

func resultsToResponse(results []domain.RetrievalResult) []ResultResponse {
	out := make([]ResultResponse, len(results))
	for i, r := range results {
		out[i] = ResultResponse{
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

type JobResponse struct {
	ID            string  `json:"id"`
	ShortQuery    string  `json:"short_query"`
	FullQuery     string  `json:"full_query"`
	TopK          int     `json:"top_k"`
	Status        string  `json:"status"`
	Retries       int32   `json:"retries"`
	Error         string  `json:"error,omitempty"`
	SourceCount   int     `json:"source_count"`
	ChunksIndexed int     `json:"chunks_indexed"`
	CreatedAt     string  `json:"created_at"`
	ProcessedAt   *string `json:"processed_at,omitempty"`
}

func jobToResponse(j *domain.IngestJob) *JobResponse {
	resp := &JobResponse{
		ID:            j.ID,
		ShortQuery:    j.ShortQuery,
		FullQuery:     j.FullQuery,
		TopK:          j.TopK,
		Status:        string(j.Status),
		Retries:       j.Retries,
		Error:         j.Error,
		SourceCount:   j.SourceCount,
		ChunksIndexed: j.ChunksIndexed,
		CreatedAt:     j.CreatedAt.UTC().Format(timeFormat),
	}
	if j.ProcessedAt != nil {
		processed := j.ProcessedAt.UTC().Format(time.RFC3339)
		resp.ProcessedAt = &processed
	}
	return resp
}
