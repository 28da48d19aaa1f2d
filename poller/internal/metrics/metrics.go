// Package metrics exposes prometheus instrumentation for the poller service.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// PagesFetched counts successful page fetches per endpoint.
	PagesFetched = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_poller_pages_fetched_total",
		Help: "Number of OData pages fetched successfully.",
	}, []string{"endpoint"})

	// PageFailures counts page fetches that failed after retries.
	PageFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_poller_page_failures_total",
		Help: "Number of page fetches that failed after exhausting retries.",
	}, []string{"endpoint"})

	// PublishFailures counts pages whose publish was not fully acknowledged.
	PublishFailures = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_poller_publish_failures_total",
		Help: "Number of page publishes that failed broker acknowledgement.",
	}, []string{"endpoint"})

	// RecordsPublished counts records durably handed to the message channel.
	RecordsPublished = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_poller_records_published_total",
		Help: "Number of normalized records acknowledged by the broker.",
	}, []string{"endpoint"})

	// SyncRuns counts completed endpoint sync runs by outcome.
	SyncRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_poller_sync_runs_total",
		Help: "Number of endpoint sync runs by status.",
	}, []string{"endpoint", "status"})
)
