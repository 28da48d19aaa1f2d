// Package sync drives the endpoint synchronization pipeline: the date-range
// and pagination state machine, record transformation, and durable hand-off
// of envelopes to the message channel.
package sync

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"time"

	"github.com/crownpoint-data/pos-sync/common/logging"
	"github.com/crownpoint-data/pos-sync/common/messaging"
	"github.com/crownpoint-data/pos-sync/common/models"
	"github.com/crownpoint-data/pos-sync/poller/internal/metrics"
	"github.com/crownpoint-data/pos-sync/poller/internal/odata"
)

// Publisher transforms raw records and publishes the resulting envelopes.
// Transformation happens exactly once, here, so callers hand over raw pages.
type Publisher struct {
	channel     messaging.Publisher
	transformer *odata.Transformer
	subject     string
	log         *logging.Logger
	now         func() time.Time
}

// NewPublisher creates a Publisher emitting to subject on channel.
func NewPublisher(channel messaging.Publisher, transformer *odata.Transformer, subject string, log *logging.Logger) *Publisher {
	if log == nil {
		log = logging.Default()
	}
	return &Publisher{
		channel:     channel,
		transformer: transformer,
		subject:     subject,
		log:         log,
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// PublishRecords transforms every record in the page, wraps each in a sync
// envelope, and submits the batch. It returns only after the broker has
// acknowledged every message, so a nil error means the whole page is durably
// enqueued.
func (p *Publisher) PublishRecords(ctx context.Context, records []odata.Record, endpoint odata.Endpoint, syncID string) error {
	payloads := make([][]byte, 0, len(records))
	for _, raw := range records {
		normalized := p.transformer.TransformRecord(raw)
		envelope := models.SyncEnvelope{
			RecordID:    recordID(normalized),
			SyncID:      syncID,
			EventType:   endpoint.EventType(),
			TableName:   endpoint.TableName,
			Data:        normalized,
			ProcessedAt: p.now(),
		}
		data, err := json.Marshal(envelope)
		if err != nil {
			return fmt.Errorf("marshal envelope: %w", err)
		}
		payloads = append(payloads, data)
	}

	if err := p.channel.PublishBatch(ctx, p.subject, payloads); err != nil {
		return fmt.Errorf("publish batch for %s: %w", endpoint.Name, err)
	}

	metrics.RecordsPublished.WithLabelValues(endpoint.Name).Add(float64(len(records)))
	return nil
}

// recordID derives the idempotency hint: the first 12 hex characters of the
// md5 of the record's primary identifier, preferring object_id over id.
// md5 is fine here; the id only needs to be short and stable, not secure.
func recordID(record odata.Record) string {
	key := record["object_id"]
	if key == nil {
		key = record["id"]
	}
	sum := md5.Sum([]byte(fmt.Sprint(key)))
	return hex.EncodeToString(sum[:])[:12]
}
