package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crownpoint-data/pos-sync/common/middleware"
	"github.com/crownpoint-data/pos-sync/poller/internal/handlers"
)

// NewRouter constructs a ServeMux with poller API routes registered.
func NewRouter(h *handlers.SyncHandler) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc("/sync", h.HandleSync)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)
	mux.HandleFunc("/", h.Health)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
