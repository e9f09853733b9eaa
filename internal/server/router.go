package server

import (
	"net/http"

	"github.com/cloo-solutions/gleaner/internal/api/handlers"
	"github.com/cloo-solutions/gleaner/internal/api/middleware"
	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"
)

type RouterConfig struct {
	APIToken      string
	Logger        *zap.Logger
	HealthHandler *handlers.HealthHandler
	IngestHandler *handlers.IngestHandler
	SearchHandler *handlers.SearchHandler
	SourceHandler *handlers.SourceHandler
	MaxBodyBytes  int64
}

func NewRouter(cfg RouterConfig) http.Handler {
	r := chi.NewRouter()

	maxBodyBytes := cfg.MaxBodyBytes
	if maxBodyBytes <= 0 {
		maxBodyBytes = 1 << 20
	}

	r.Use(middleware.RequestID)
	r.Use(middleware.SentryMiddleware)
	r.Use(middleware.AccessLog(cfg.Logger))
	r.Use(middleware.MaxBodyBytes(maxBodyBytes))

	r.Get("/health", cfg.HealthHandler.Health)

	r.Group(func(r chi.Router) {
		r.Use(middleware.BearerAuth(cfg.APIToken))

		r.Route("/ingest", func(r chi.Router) {
			r.Post("/", cfg.IngestHandler.Ingest)
			r.Get("/{id}", cfg.IngestHandler.GetJob)
		})

		r.Post("/search", cfg.SearchHandler.Search)

		r.Route("/sources", func(r chi.Router) {
			r.Get("/", cfg.SourceHandler.List)
			r.Get("/{id}", cfg.SourceHandler.Get)
			r.Delete("/{id}", cfg.SourceHandler.Delete)
			r.Get("/{id}/raw", cfg.SourceHandler.Raw)
		})
	})

	return r
}
