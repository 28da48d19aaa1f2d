// Package models holds the wire types shared by the poller and processor.
package models

import "time"

// SyncEnvelope is the unit placed on the message channel: one normalized
// record wrapped with addressing and idempotency metadata. It is never
// mutated after construction.
type SyncEnvelope struct {
	// RecordID is a short content-addressed hash of the record's primary
	// identifier. It is a dedup hint for consumers, not an integrity check.
	RecordID string `json:"record_id"`

	// SyncID identifies the orchestration run that produced this envelope,
	// formatted {endpoint_name}_{run_timestamp}.
	SyncID string `json:"sync_id"`

	// EventType selects the validation schema downstream, e.g. "pos.checks".
	EventType string `json:"event_type"`

	// TableName is the destination warehouse table.
	TableName string `json:"table_name"`

	// Data is the normalized record.
	Data map[string]any `json:"data"`

	// ProcessedAt is when the envelope was constructed.
	ProcessedAt time.Time `json:"processed_at"`
}

// PushEnvelope is the outer wrapper used by HTTP push delivery: the published
// bytes arrive base64-encoded under message.data.
type PushEnvelope struct {
	Message PushMessage `json:"message"`
}

// PushMessage carries the base64-encoded SyncEnvelope payload.
type PushMessage struct {
	Data      string `json:"data"`
	MessageID string `json:"messageId,omitempty"`
}
