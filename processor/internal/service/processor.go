// Package service implements the processor pipeline: validate, dedup,
// normalize, insert. Both message sources (the channel consumer and the HTTP
// push endpoint) funnel into Process.
package service

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/crownpoint-data/pos-sync/common/logging"
	"github.com/crownpoint-data/pos-sync/common/models"
	"github.com/crownpoint-data/pos-sync/processor/internal/dedup"
	"github.com/crownpoint-data/pos-sync/processor/internal/dlq"
	"github.com/crownpoint-data/pos-sync/processor/internal/metrics"
	"github.com/crownpoint-data/pos-sync/processor/internal/normalize"
	"github.com/crownpoint-data/pos-sync/processor/internal/schema"
	"github.com/crownpoint-data/pos-sync/processor/internal/warehouse"
)

// Outcomes of processing one message.
const (
	OutcomeInserted         = "inserted"
	OutcomeDuplicate        = "duplicate"
	OutcomeValidationFailed = "validation_failed"
	OutcomeMalformed        = "malformed"
	OutcomeInsertFailed     = "insert_failed"
)

// Result reports what happened to a message. Retryable means the source
// should redeliver; everything else is handled and must be acknowledged.
type Result struct {
	Outcome   string
	Retryable bool
	Err       error
}

// Processor validates and lands sync messages in the warehouse.
type Processor struct {
	registry   *schema.Registry
	normalizer *normalize.Normalizer
	sink       warehouse.Sink
	filter     dedup.Filter
	deadLetter dlq.Writer
	log        *logging.Logger
}

func NewProcessor(registry *schema.Registry, normalizer *normalize.Normalizer, sink warehouse.Sink, filter dedup.Filter, deadLetter dlq.Writer, log *logging.Logger) *Processor {
	if log == nil {
		log = logging.Default()
	}
	if filter == nil {
		filter = dedup.Noop{}
	}
	if deadLetter == nil {
		deadLetter = dlq.Disabled{}
	}
	return &Processor{
		registry:   registry,
		normalizer: normalizer,
		sink:       sink,
		filter:     filter,
		deadLetter: deadLetter,
		log:        log,
	}
}

// Process handles one serialized sync message.
//
// Malformed payloads and schema failures are acknowledged and parked in the
// DLQ; redelivery cannot fix them. Warehouse failures are retryable.
func (p *Processor) Process(ctx context.Context, payload []byte) Result {
	var message map[string]any
	if err := json.Unmarshal(payload, &message); err != nil {
		p.log.ErrorContext(ctx, "failed to decode sync message", "error", err)
		p.park(ctx, dlq.FailedMessage{
			Raw:    string(payload),
			Error:  err.Error(),
			Reason: dlq.ReasonMalformedPayload,
		})
		metrics.MessagesProcessed.WithLabelValues("unknown", OutcomeMalformed).Inc()
		return Result{Outcome: OutcomeMalformed, Err: err}
	}

	var envelope models.SyncEnvelope
	if err := json.Unmarshal(payload, &envelope); err != nil {
		p.log.ErrorContext(ctx, "failed to decode sync envelope", "error", err)
		p.park(ctx, dlq.FailedMessage{
			Raw:    string(payload),
			Error:  err.Error(),
			Reason: dlq.ReasonMalformedPayload,
		})
		metrics.MessagesProcessed.WithLabelValues("unknown", OutcomeMalformed).Inc()
		return Result{Outcome: OutcomeMalformed, Err: err}
	}
	table := envelope.TableName
	if table == "" {
		table = "unknown"
	}

	if err := p.registry.Validate(message); err != nil {
		p.log.ErrorContext(ctx, "schema validation failed",
			"record_id", envelope.RecordID, "table", table, "error", err)
		p.park(ctx, dlq.FailedMessage{
			Envelope: &envelope,
			Error:    err.Error(),
			Reason:   dlq.ReasonValidationFailed,
		})
		metrics.MessagesProcessed.WithLabelValues(table, OutcomeValidationFailed).Inc()
		return Result{Outcome: OutcomeValidationFailed, Err: err}
	}

	seen, err := p.filter.Seen(ctx, envelope.RecordID)
	if err != nil {
		// Dedup is an optimization. If the filter is down, insert anyway.
		p.log.WarnContext(ctx, "dedup filter unavailable, proceeding",
			"record_id", envelope.RecordID, "error", err)
	} else if seen {
		p.log.InfoContext(ctx, "skipping duplicate record",
			"record_id", envelope.RecordID, "table", table)
		metrics.MessagesProcessed.WithLabelValues(table, OutcomeDuplicate).Inc()
		return Result{Outcome: OutcomeDuplicate}
	}

	row := p.normalizer.Apply(envelope.Data, envelope.TableName)

	insertErrs, err := p.sink.InsertRows(ctx, envelope.TableName, []map[string]any{row})
	if err != nil {
		p.log.ErrorContext(ctx, "warehouse insert failed",
			"record_id", envelope.RecordID, "table", table, "error", err)
		metrics.MessagesProcessed.WithLabelValues(table, OutcomeInsertFailed).Inc()
		return Result{Outcome: OutcomeInsertFailed, Retryable: true, Err: err}
	}
	if len(insertErrs) > 0 {
		err := fmt.Errorf("warehouse rejected row: %s", insertErrs[0].Message)
		p.log.ErrorContext(ctx, "warehouse rejected row",
			"record_id", envelope.RecordID, "table", table, "error", err)
		metrics.MessagesProcessed.WithLabelValues(table, OutcomeInsertFailed).Inc()
		return Result{Outcome: OutcomeInsertFailed, Retryable: true, Err: err}
	}

	// Mark only after the insert lands. A record marked before a failed
	// insert would be acknowledged as a duplicate on redelivery and lost.
	if err := p.filter.Mark(ctx, envelope.RecordID); err != nil {
		p.log.WarnContext(ctx, "failed to mark record as processed",
			"record_id", envelope.RecordID, "error", err)
	}

	p.log.InfoContext(ctx, "inserted record",
		"record_id", envelope.RecordID, "table", table, "sync_id", envelope.SyncID)
	metrics.MessagesProcessed.WithLabelValues(table, OutcomeInserted).Inc()
	metrics.RowsInserted.WithLabelValues(table).Inc()
	return Result{Outcome: OutcomeInserted}
}

// HandleMessage adapts Process to the channel consumer contract: a non-nil
// error requests redelivery, nil acknowledges.
func (p *Processor) HandleMessage(ctx context.Context, payload []byte) error {
	result := p.Process(ctx, payload)
	if result.Retryable {
		return result.Err
	}
	return nil
}

func (p *Processor) park(ctx context.Context, failed dlq.FailedMessage) {
	if err := p.deadLetter.Write(ctx, failed); err != nil {
		p.log.ErrorContext(ctx, "failed to write dead letter entry", "error", err)
		return
	}
	metrics.DLQWrites.WithLabelValues(failed.Reason).Inc()
}
