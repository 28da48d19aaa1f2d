package dlq

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/crownpoint-data/pos-sync/common/models"
)

func newTestQueue(t *testing.T) *Queue {
	t.Helper()
	q, err := NewQueue(t.TempDir(), nil)
	require.NoError(t, err)
	return q
}

func failedMessage(recordID, reason string) FailedMessage {
	return FailedMessage{
		Envelope: &models.SyncEnvelope{
			RecordID:  recordID,
			EventType: "pos.checks",
			TableName: "pos_checks",
		},
		Error:  errors.New("net_sales is not a number").Error(),
		Reason: reason,
	}
}

func TestWriteAndList(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Write(ctx, failedMessage("a1b2c3d4e5f6", ReasonValidationFailed)))
	require.NoError(t, q.Write(ctx, failedMessage("f6e5d4c3b2a1", ReasonMalformedPayload)))

	messages, err := q.List(0)
	require.NoError(t, err)
	require.Len(t, messages, 2)
	for _, m := range messages {
		assert.NotNil(t, m.Envelope)
		assert.False(t, m.Timestamp.IsZero())
	}
}

func TestListLimit(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	for i := 0; i < 5; i++ {
		require.NoError(t, q.Write(ctx, failedMessage("a1b2c3d4e5f6", ReasonMalformedPayload)))
	}

	messages, err := q.List(3)
	require.NoError(t, err)
	assert.Len(t, messages, 3)
}

func TestStats(t *testing.T) {
	q := newTestQueue(t)
	require.NoError(t, q.Write(context.Background(), failedMessage("a1b2c3d4e5f6", ReasonValidationFailed)))

	stats := q.Stats()
	assert.Equal(t, uint64(1), stats["written"])
	assert.Equal(t, 1, stats["pending_files"])
}

func TestPurge(t *testing.T) {
	q := newTestQueue(t)
	ctx := context.Background()

	require.NoError(t, q.Write(ctx, failedMessage("a1b2c3d4e5f6", ReasonValidationFailed)))
	require.NoError(t, q.Purge())

	messages, err := q.List(0)
	require.NoError(t, err)
	assert.Empty(t, messages)
}

func TestRawOnlyEntry(t *testing.T) {
	q := newTestQueue(t)
	require.NoError(t, q.Write(context.Background(), FailedMessage{
		Raw:    "{not json",
		Error:  "invalid character 'n'",
		Reason: ReasonMalformedPayload,
	}))

	messages, err := q.List(0)
	require.NoError(t, err)
	require.Len(t, messages, 1)
	assert.Nil(t, messages[0].Envelope)
	assert.Equal(t, "{not json", messages[0].Raw)
}
