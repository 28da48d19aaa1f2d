package sync

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownpoint-data/pos-sync/common/models"
	"github.com/crownpoint-data/pos-sync/poller/internal/odata"
)

type captureChannel struct {
	subject  string
	payloads [][]byte
	err      error
}

func (c *captureChannel) Publish(_ context.Context, subject string, data []byte) error {
	c.subject = subject
	c.payloads = append(c.payloads, data)
	return c.err
}

func (c *captureChannel) PublishBatch(_ context.Context, subject string, payloads [][]byte) error {
	if c.err != nil {
		return c.err
	}
	c.subject = subject
	c.payloads = append(c.payloads, payloads...)
	return nil
}

func (c *captureChannel) Close() error { return nil }

func TestPublishRecordsBuildsEnvelopes(t *testing.T) {
	channel := &captureChannel{}
	p := NewPublisher(channel, odata.NewTransformer(nil), "pos.sync.records", nil)
	fixed := time.Date(2024, 6, 1, 18, 0, 0, 0, time.UTC)
	p.now = func() time.Time { return fixed }

	endpoint := odata.Endpoint{Name: "Checks", TableName: "pos_checks", DateField: "BusinessDate"}
	records := []odata.Record{
		{"Id": float64(42), "TotalAmount": "10.50", "__metadata": map[string]any{"uri": "x"}},
	}

	err := p.PublishRecords(context.Background(), records, endpoint, "Checks_20240601_180000")
	require.NoError(t, err)
	require.Len(t, channel.payloads, 1)
	assert.Equal(t, "pos.sync.records", channel.subject)

	var envelope models.SyncEnvelope
	require.NoError(t, json.Unmarshal(channel.payloads[0], &envelope))
	assert.Equal(t, "pos.checks", envelope.EventType)
	assert.Equal(t, "pos_checks", envelope.TableName)
	assert.Equal(t, "Checks_20240601_180000", envelope.SyncID)
	assert.True(t, envelope.ProcessedAt.Equal(fixed))

	// The channel carries transformed records, not vendor-shaped ones.
	assert.Equal(t, 10.5, envelope.Data["total_amount"])
	assert.NotContains(t, envelope.Data, "__metadata")
	assert.NotContains(t, envelope.Data, "TotalAmount")
}

func TestPublishRecordsRecordID(t *testing.T) {
	channel := &captureChannel{}
	p := NewPublisher(channel, odata.NewTransformer(nil), "pos.sync.records", nil)

	endpoint := odata.Endpoint{Name: "Payments", TableName: "pos_payments"}
	records := []odata.Record{
		{"ObjectId": "abc-123", "Id": float64(7)},
	}

	err := p.PublishRecords(context.Background(), records, endpoint, "s1")
	require.NoError(t, err)
	require.Len(t, channel.payloads, 1)

	var envelope models.SyncEnvelope
	require.NoError(t, json.Unmarshal(channel.payloads[0], &envelope))

	// ObjectId wins over Id when both are present.
	sum := md5.Sum([]byte("abc-123"))
	assert.Equal(t, hex.EncodeToString(sum[:])[:12], envelope.RecordID)
	assert.Len(t, envelope.RecordID, 12)
}

func TestPublishRecordsBatchError(t *testing.T) {
	channel := &captureChannel{err: errors.New("broker down")}
	p := NewPublisher(channel, odata.NewTransformer(nil), "pos.sync.records", nil)

	endpoint := odata.Endpoint{Name: "Payments", TableName: "pos_payments"}
	err := p.PublishRecords(context.Background(), []odata.Record{{"Id": float64(1)}}, endpoint, "s1")
	assert.ErrorContains(t, err, "broker down")
}
