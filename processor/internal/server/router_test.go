package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/crownpoint-data/pos-sync/processor/internal/dedup"
	"github.com/crownpoint-data/pos-sync/processor/internal/handlers"
	"github.com/crownpoint-data/pos-sync/processor/internal/normalize"
	"github.com/crownpoint-data/pos-sync/processor/internal/schema"
	"github.com/crownpoint-data/pos-sync/processor/internal/service"
	"github.com/crownpoint-data/pos-sync/processor/internal/warehouse"
)

type nullSink struct{}

func (nullSink) InsertRows(context.Context, string, []map[string]any) ([]warehouse.InsertError, error) {
	return nil, nil
}

func (nullSink) Close() {}

func newRouter(t *testing.T) http.Handler {
	t.Helper()
	registry, err := schema.NewRegistry()
	if err != nil {
		t.Fatalf("NewRegistry() error: %v", err)
	}
	processor := service.NewProcessor(registry, normalize.NewNormalizer(nil), nullSink{}, dedup.Noop{}, nil, nil)
	return NewRouter(handlers.NewPushHandler(processor, nil, nil))
}

func TestRouter_PushEndpoint(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodPost, "/", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	// Empty body is rejected by the handler, not the router.
	if rr.Code == http.StatusNotFound {
		t.Error("push endpoint not registered")
	}
}

func TestRouter_DLQEndpoint(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/dlq", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	// No store is configured, so the ops handler answers 501.
	if rr.Code != http.StatusNotImplemented {
		t.Errorf("/dlq returned %d, want 501", rr.Code)
	}
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/healthz returned %d, want 200", rr.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/metrics returned %d, want 200", rr.Code)
	}
}

func TestRouter_RequestIDMiddleware(t *testing.T) {
	router := newRouter(t)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set by middleware")
	}
}
