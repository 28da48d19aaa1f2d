// Package dlq parks sync messages the processor acknowledged but could not
// land in the warehouse, so nothing is silently dropped.
package dlq

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/crownpoint-data/pos-sync/common/logging"
	"github.com/crownpoint-data/pos-sync/common/models"
)

// Reasons recorded with failed messages.
const (
	ReasonValidationFailed = "validation_failed"
	ReasonMalformedPayload = "malformed_payload"
)

// FailedMessage captures a rejected sync message for later analysis/replay.
type FailedMessage struct {
	Timestamp time.Time            `json:"timestamp"`
	Envelope  *models.SyncEnvelope `json:"envelope,omitempty"`
	Raw       string               `json:"raw,omitempty"`
	Error     string               `json:"error"`
	Reason    string               `json:"reason"`
}

// Writer is what the processing pipeline needs from a DLQ.
type Writer interface {
	Write(ctx context.Context, failed FailedMessage) error
}

// Queue writes failed messages to disk, one JSON file each.
type Queue struct {
	basePath string
	log      *logging.Logger

	mu      sync.Mutex
	written uint64
}

// NewQueue creates a DLQ rooted at basePath.
func NewQueue(basePath string, log *logging.Logger) (*Queue, error) {
	if basePath == "" {
		basePath = "/var/lib/pos-sync/dlq"
	}
	if log == nil {
		log = logging.Default()
	}
	if err := os.MkdirAll(basePath, 0o755); err != nil {
		return nil, fmt.Errorf("create dlq directory: %w", err)
	}
	return &Queue{basePath: basePath, log: log}, nil
}

// Write persists one failed message.
func (q *Queue) Write(ctx context.Context, failed FailedMessage) error {
	q.mu.Lock()
	defer q.mu.Unlock()

	if failed.Timestamp.IsZero() {
		failed.Timestamp = time.Now().UTC()
	}

	filename := fmt.Sprintf("failed_%d_%d.json", failed.Timestamp.Unix(), q.written)
	data, err := json.MarshalIndent(failed, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal dlq entry: %w", err)
	}
	if err := os.WriteFile(filepath.Join(q.basePath, filename), data, 0o644); err != nil {
		return fmt.Errorf("write dlq entry: %w", err)
	}

	q.written++
	q.log.WarnContext(ctx, "wrote message to dead letter queue",
		"file", filename, "reason", failed.Reason)
	return nil
}

// List returns up to limit failed messages; limit <= 0 means all.
func (q *Queue) List(limit int) ([]FailedMessage, error) {
	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := os.ReadDir(q.basePath)
	if err != nil {
		return nil, fmt.Errorf("read dlq directory: %w", err)
	}

	var messages []FailedMessage
	for _, file := range files {
		if file.IsDir() {
			continue
		}
		if limit > 0 && len(messages) >= limit {
			break
		}
		data, err := os.ReadFile(filepath.Join(q.basePath, file.Name()))
		if err != nil {
			q.log.Error("failed to read dlq file", "file", file.Name(), "error", err)
			continue
		}
		var failed FailedMessage
		if err := json.Unmarshal(data, &failed); err != nil {
			q.log.Error("failed to parse dlq file", "file", file.Name(), "error", err)
			continue
		}
		messages = append(messages, failed)
	}
	return messages, nil
}

// Stats reports queue counters for health and ops endpoints.
func (q *Queue) Stats() map[string]any {
	q.mu.Lock()
	defer q.mu.Unlock()

	files, err := os.ReadDir(q.basePath)
	if err != nil {
		return map[string]any{
			"written": q.written,
			"error":   err.Error(),
		}
	}
	return map[string]any{
		"written":       q.written,
		"pending_files": len(files),
		"base_path":     q.basePath,
	}
}

// Purge removes every parked message.
func (q *Queue) Purge() error {
	q.mu.Lock()
	defer q.mu.Unlock()

	matches, err := filepath.Glob(filepath.Join(q.basePath, "failed_*.json"))
	if err != nil {
		return fmt.Errorf("search dlq files: %w", err)
	}
	for _, match := range matches {
		if err := os.Remove(match); err != nil {
			return fmt.Errorf("delete dlq file: %w", err)
		}
	}
	q.log.Info("purged dead letter queue", "removed", len(matches))
	return nil
}

// Disabled is a Writer that drops entries. Used when the DLQ is turned off.
type Disabled struct{}

func (Disabled) Write(context.Context, FailedMessage) error { return nil }
