package server

import (
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/crownpoint-data/pos-sync/common/middleware"
	"github.com/crownpoint-data/pos-sync/processor/internal/handlers"
)

// NewRouter constructs a ServeMux with processor API routes registered.
func NewRouter(h *handlers.PushHandler) http.Handler {
	mux := http.NewServeMux()

	// Push delivery endpoint
	mux.HandleFunc("/", h.HandlePush)

	// Dead letter queue ops surface
	mux.HandleFunc("/dlq", h.HandleDLQ)

	// Health endpoints
	mux.HandleFunc("/healthz", h.Health)

	// Prometheus metrics
	mux.Handle("/metrics", promhttp.Handler())

	return middleware.RequestID(mux)
}
