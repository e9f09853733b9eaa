package handlers

import (
	"context"
	"net/http"
	"strconv"

	"github.com/cloo-solutions/gleaner/internal/api"
	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/pagination"
	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/go-chi/chi/v5"
)

const maxListLimit = 100

type SourceService interface {
	Get(ctx context.Context, id string) (*service.SourceDetail, error)
	List(ctx context.Context, input service.ListSourcesInput) (*pagination.PageResult[*domain.Source], error)
	Delete(ctx context.Context, id string) error
	RawURL(ctx context.Context, id string) (string, error)
}

type SourceHandler struct {
	svc SourceService
}

func NewSourceHandler(svc SourceService) *SourceHandler {
	return &SourceHandler{svc: svc}
}

type ListSourcesResponse struct {
	Items   []*SourceResponse `json:"items"`
	Cursor  string            `json:"cursor,omitempty"`
	HasMore bool              `json:"has_more"`
}

type RawURLResponse struct {
	URL string `json:"url"`
}

func (h *SourceHandler) List(w http.ResponseWriter, r *http.Request) {
	limit := 0
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			api.Error(w, http.StatusBadRequest, "invalid limit")
			return
		}
		limit = min(parsed, maxListLimit)
	}

	page, err := h.svc.List(r.Context(), service.ListSourcesInput{
		Cursor: r.URL.Query().Get("cursor"),
		Limit:  limit,
	})
	if err != nil {
		api.HandleError(w, err)
		return
	}

	items := make([]*SourceResponse, len(page.Items))
	for i, s := range page.Items {
		items[i] = sourceToResponse(s)
	}
	api.Success(w, http.StatusOK, ListSourcesResponse{Items: items, Cursor: page.Cursor, HasMore: page.HasMore})
}

func (h *SourceHandler) Get(w http.ResponseWriter, r *http.Request) {
	detail, err := h.svc.Get(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}

	resp := sourceToResponse(detail.Source)
	resp.RawText = detail.Source.RawText
	resp.ChunkCount = &detail.ChunkCount
	api.Success(w, http.StatusOK, resp)
}

func (h *SourceHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.Delete(r.Context(), chi.URLParam(r, "id")); err != nil {
		api.HandleError(w, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// Raw returns a presigned URL for the archived raw document
func (h *SourceHandler) Raw(w http.ResponseWriter, r *http.Request) {
	url, err := h.svc.RawURL(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		api.HandleError(w, err)
		return
	}
	api.Success(w, http.StatusOK, RawURLResponse{URL: url})
}
