package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/gleaner/internal/api"
	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/go-chi/chi/v5"
)

type PassRunner interface {
	Run(ctx context.Context, q service.TopicQuery) (*service.PassResult, error)
}

type IngestService interface {
	Enqueue(ctx context.Context, q service.TopicQuery) (*domain.IngestJob, error)
	GetJob(ctx context.Context, id string) (*domain.IngestJob, error)
}

type IngestHandler struct {
	pipeline PassRunner
	jobs     IngestService
}

func NewIngestHandler(pipeline PassRunner, jobs IngestService) *IngestHandler {
	return &IngestHandler{pipeline: pipeline, jobs: jobs}
}

type IngestRequest struct {
	ShortQuery string `json:"short_query"`
	FullQuery  string `json:"full_query"`
	TopK       int    `json:"top_k"`
	Async      bool   `json:"async"`
}

type PassResponse struct {
	Candidates    int               `json:"candidates"`
	Sources       []*SourceResponse `json:"sources"`
	ChunksIndexed int               `json:"chunks_indexed"`
	Results       []ResultResponse  `json:"results"`
	Context       string            `json:"context"`
}

// Ingest runs a pipeline pass, or queues one when async is set
func (h *IngestHandler) Ingest(w http.ResponseWriter, r *http.Request) {
	var req IngestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.FullQuery) == "" {
		api.Error(w, http.StatusBadRequest, "full_query is required")
		return
	}
	if req.TopK < 0 {
		api.Error(w, http.StatusBadRequest, "top_k must be positive")
		return
	}

	q := service.TopicQuery{Short: req.ShortQuery, Full: req.FullQuery, TopK: req.TopK}

	if req.Async {
		if h.jobs == nil {
			api.Error(w, http.StatusServiceUnavailable, "async ingestion not configured")
			return
		}
		job, err := h.jobs.Enqueue(r.Context(), q)
		if err != nil {
			api.HandleError(w, err)
			return
		}
		api.Success(w, http.StatusAccepted, jobToResponse(job))
		return
	}

	result, err := h.pipeline.Run(r.Context(), q)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	sources := make([]*SourceResponse, len(result.Sources))
	for i := range result.Sources {
		sources[i] = sourceToResponse(&result.Sources[i])
	}

	api.Success(w, http.StatusOK, PassResponse{
		Candidates:    result.Candidates,
		Sources:       sources,
		ChunksIndexed: result.ChunksIndexed,
		Results:       resultsToResponse(result.Results),
		Context:       service.BuildContext(result.Results),
	})
}

func (h *IngestHandler) GetJob(w http.ResponseWriter, r *http.Request) {
	if h.jobs == nil {
		api.Error(w, http.StatusServiceUnavailable, "async ingestion not configured")
		return
	}

	job, err := h.jobs.GetJob(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, jobToResponse(job))
}
