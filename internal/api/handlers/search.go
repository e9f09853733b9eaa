package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"

	"github.com/cloo-solutions/gleaner/internal/api"
	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/service"
)

const maxSearchK = 100

type Searcher interface {
	Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error)
}

type SearchHandler struct {
	index Searcher
}

func NewSearchHandler(index Searcher) *SearchHandler {
	return &SearchHandler{index: index}
}

type SearchRequest struct {
	Query string `json:"query"`
	K     int    `json:"k"`
}

type SearchResponse struct {
	Results []ResultResponse `json:"results"`
	Context string           `json:"context"`
}

// Search answers a nearest-neighbor query over everything indexed so far
func (h *SearchHandler) Search(w http.ResponseWriter, r *http.Request) {
	var req SearchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		api.Error(w, http.StatusBadRequest, "invalid request body")
		return
	}

	if strings.TrimSpace(req.Query) == "" {
		api.Error(w, http.StatusBadRequest, "query is required")
		return
	}
	if req.K > maxSearchK {
		req.K = maxSearchK
	}

	results, err := h.index.Search(r.Context(), req.Query, req.K)
	if err != nil {
		api.HandleError(w, err)
		return
	}

	api.Success(w, http.StatusOK, SearchResponse{
		Results: resultsToResponse(results),
		Context: service.BuildContext(results),
	})
}
