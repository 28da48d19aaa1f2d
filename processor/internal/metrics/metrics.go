// Package metrics exposes the processor's Prometheus counters.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// MessagesProcessed counts messages by table and outcome
	// (inserted, duplicate, validation_failed, malformed, insert_failed).
	MessagesProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_processor_messages_total",
		Help: "Sync messages processed by table and outcome.",
	}, []string{"table", "outcome"})

	// RowsInserted counts warehouse rows successfully inserted per table.
	RowsInserted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_processor_rows_inserted_total",
		Help: "Warehouse rows inserted per table.",
	}, []string{"table"})

	// DLQWrites counts messages parked in the dead letter queue by reason.
	DLQWrites = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "pos_processor_dlq_writes_total",
		Help: "Messages written to the dead letter queue by reason.",
	}, []string{"reason"})
)
