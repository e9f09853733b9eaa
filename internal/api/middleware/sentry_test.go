package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/getsentry/sentry-go"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/assert"
)

func TestHTTPStatusToSpanStatus(t *testing.T) {
	tests := []struct {
		status int
		want   sentry.SpanStatus
	}{
		{http.StatusOK, sentry.SpanStatusOK},
		{http.StatusNoContent, sentry.SpanStatusOK},
		{http.StatusAccepted, sentry.SpanStatusOK},
		{http.StatusBadRequest, sentry.SpanStatusInvalidArgument},
		{http.StatusRequestEntityTooLarge, sentry.SpanStatusInvalidArgument},
		{http.StatusUnprocessableEntity, sentry.SpanStatusInvalidArgument},
		{http.StatusUnauthorized, sentry.SpanStatusUnauthenticated},
		{http.StatusNotFound, sentry.SpanStatusNotFound},
		{http.StatusConflict, sentry.SpanStatusFailedPrecondition},
		{http.StatusTooManyRequests, sentry.SpanStatusResourceExhausted},
		{http.StatusInternalServerError, sentry.SpanStatusInternalError},
		{http.StatusBadGateway, sentry.SpanStatusUnavailable},
		{http.StatusServiceUnavailable, sentry.SpanStatusUnavailable},
		{http.StatusGatewayTimeout, sentry.SpanStatusDeadlineExceeded},
		{100, sentry.SpanStatusUnknown},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, httpStatusToSpanStatus(tt.status), "status %d", tt.status)
	}
}

func TestSentryMiddleware_PassesThrough(t *testing.T) {
	var sawHub bool
	r := chi.NewRouter()
	r.Use(SentryMiddleware)
	r.Get("/sources/{id}", func(w http.ResponseWriter, req *http.Request) {
		sawHub = sentry.GetHubFromContext(req.Context()) != nil
		w.WriteHeader(http.StatusTeapot)
	})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/sources/abc", nil))

	assert.Equal(t, http.StatusTeapot, w.Code)
	assert.True(t, sawHub)
}

func TestSentryMiddleware_Repanics(t *testing.T) {
	handler := SentryMiddleware(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		panic("boom")
	}))

	assert.PanicsWithValue(t, "boom", func() {
		handler.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/", nil))
	})
}

func TestRoutePattern(t *testing.T) {
	var pattern string
	r := chi.NewRouter()
	r.Get("/sources/{id}/raw", func(w http.ResponseWriter, req *http.Request) {
		pattern = routePattern(req)
	})

	r.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodGet, "/sources/42/raw", nil))
	assert.Equal(t, "/sources/{id}/raw", pattern)

	assert.Empty(t, routePattern(httptest.NewRequest(http.MethodGet, "/", nil)))
}
