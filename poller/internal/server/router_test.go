package server

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/crownpoint-data/pos-sync/poller/internal/handlers"
	"github.com/crownpoint-data/pos-sync/poller/internal/odata"
	possync "github.com/crownpoint-data/pos-sync/poller/internal/sync"
)

type emptyFetcher struct{}

func (emptyFetcher) FetchPage(context.Context, odata.Endpoint, *time.Time, int) ([]odata.Record, error) {
	return nil, nil
}

func (emptyFetcher) PageSize() int { return 1000 }

type discardPublisher struct{}

func (discardPublisher) PublishRecords(context.Context, []odata.Record, odata.Endpoint, string) error {
	return nil
}

func newRouter() http.Handler {
	endpoints := odata.Endpoints{"Checks": {Name: "Checks", TableName: "pos_checks"}}
	syncer := possync.NewSyncer(endpoints, emptyFetcher{}, discardPublisher{}, time.UTC, nil)
	return NewRouter(handlers.NewSyncHandler(syncer, 7, nil))
}

func TestRouter_SyncEndpoint(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodPost, "/sync", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code == http.StatusNotFound {
		t.Error("/sync endpoint not registered")
	}
}

func TestRouter_HealthEndpoint(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/healthz returned %d, want 200", rr.Code)
	}
}

func TestRouter_MetricsEndpoint(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/metrics", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Code != http.StatusOK {
		t.Errorf("/metrics returned %d, want 200", rr.Code)
	}
	if rr.Body.Len() == 0 {
		t.Error("/metrics returned empty body")
	}
}

func TestRouter_RequestIDMiddleware(t *testing.T) {
	router := newRouter()

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()

	router.ServeHTTP(rr, req)

	if rr.Header().Get("X-Request-ID") == "" {
		t.Error("X-Request-ID header not set by middleware")
	}
}
