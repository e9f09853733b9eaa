package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/cloo-solutions/gleaner/internal/api/handlers"
	"github.com/cloo-solutions/gleaner/internal/domain"
	"github.com/cloo-solutions/gleaner/internal/pagination"
	"github.com/cloo-solutions/gleaner/internal/service"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testToken = "glr_0123456789abcdef"

type MockPassRunner struct {
	mock.Mock
}

func (m *MockPassRunner) Run(ctx context.Context, q service.TopicQuery) (*service.PassResult, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.PassResult), args.Error(1)
}

type MockIngestService struct {
	mock.Mock
}

func (m *MockIngestService) Enqueue(ctx context.Context, q service.TopicQuery) (*domain.IngestJob, error) {
	args := m.Called(ctx, q)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestJob), args.Error(1)
}

func (m *MockIngestService) GetJob(ctx context.Context, id string) (*domain.IngestJob, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.IngestJob), args.Error(1)
}

type MockSearcher struct {
	mock.Mock
}

func (m *MockSearcher) Search(ctx context.Context, query string, k int) ([]domain.RetrievalResult, error) {
	args := m.Called(ctx, query, k)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]domain.RetrievalResult), args.Error(1)
}

type MockSourceService struct {
	mock.Mock
}

func (m *MockSourceService) Get(ctx context.Context, id string) (*service.SourceDetail, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*service.SourceDetail), args.Error(1)
}

func (m *MockSourceService) List(ctx context.Context, input service.ListSourcesInput) (*pagination.PageResult[*domain.Source], error) {
	args := m.Called(ctx, input)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*pagination.PageResult[*domain.Source]), args.Error(1)
}

func (m *MockSourceService) Delete(ctx context.Context, id string) error {
	args := m.Called(ctx, id)
	return args.Error(0)
}

func (m *MockSourceService) RawURL(ctx context.Context, id string) (string, error) {
	args := m.Called(ctx, id)
	return args.String(0), args.Error(1)
}

type mocks struct {
	runner   *MockPassRunner
	jobs     *MockIngestService
	searcher *MockSearcher
	sources  *MockSourceService
}

func setupRouter(token string) (http.Handler, *mocks) {
	m := &mocks{
		runner:   new(MockPassRunner),
		jobs:     new(MockIngestService),
		searcher: new(MockSearcher),
		sources:  new(MockSourceService),
	}

	cfg := RouterConfig{
		APIToken:      token,
		HealthHandler: handlers.NewHealthHandler(nil),
		IngestHandler: handlers.NewIngestHandler(m.runner, m.jobs),
		SearchHandler: handlers.NewSearchHandler(m.searcher),
		SourceHandler: handlers.NewSourceHandler(m.sources),
	}

	return NewRouter(cfg), m
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router, _ := setupRouter(testToken)

	req := httptest.NewRequest(http.MethodGet, "/health", nil)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	var resp map[string]interface{}
	err := json.Unmarshal(w.Body.Bytes(), &resp)
	require.NoError(t, err)
	data := resp["data"].(map[string]interface{})
	assert.Equal(t, "ok", data["status"])
	assert.NotEmpty(t, w.Header().Get("X-Request-ID"))
}

func TestRouter_AuthenticatedRoutes_RequireAuth(t *testing.T) {
	router, m := setupRouter(testToken)

	routes := []struct {
		method string
		path   string
	}{
		{http.MethodPost, "/ingest"},
		{http.MethodGet, "/ingest/123"},
		{http.MethodPost, "/search"},
		{http.MethodGet, "/sources"},
		{http.MethodGet, "/sources/123"},
		{http.MethodDelete, "/sources/123"},
		{http.MethodGet, "/sources/123/raw"},
	}

	for _, route := range routes {
		t.Run(route.method+" "+route.path, func(t *testing.T) {
			req := httptest.NewRequest(route.method, route.path, nil)
			w := httptest.NewRecorder()

			router.ServeHTTP(w, req)

			assert.Equal(t, http.StatusUnauthorized, w.Code)
		})
	}

	m.sources.AssertNotCalled(t, "Get", mock.Anything, mock.Anything)
}

func TestRouter_AuthenticatedRoutes_WithValidAuth(t *testing.T) {
	router, m := setupRouter(testToken)

	src := &domain.Source{
		ID:        "src-123",
		URL:       "https://example.com/post",
		Title:     "Post",
		Type:      domain.SourceTypeWebPage,
		FetchedAt: time.Now().UTC(),
	}
	m.sources.On("Get", mock.Anything, "src-123").Return(&service.SourceDetail{Source: src, ChunkCount: 2}, nil)

	req := httptest.NewRequest(http.MethodGet, "/sources/src-123", nil)
	req.Header.Set("Authorization", "Bearer "+testToken)
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	m.sources.AssertExpectations(t)
}

func TestRouter_NoTokenConfigured(t *testing.T) {
	router, m := setupRouter("")

	m.searcher.On("Search", mock.Anything, "pgvector", 0).Return([]domain.RetrievalResult{}, nil)

	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(`{"query":"pgvector"}`))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	m.searcher.AssertExpectations(t)
}

func TestRouter_BodyTooLarge(t *testing.T) {
	router, _ := setupRouter("")

	body := `{"query":"` + strings.Repeat("x", 2<<20) + `"}`
	req := httptest.NewRequest(http.MethodPost, "/search", strings.NewReader(body))
	w := httptest.NewRecorder()

	router.ServeHTTP(w, req)

	assert.Equal(t, http.StatusRequestEntityTooLarge, w.Code)
}
