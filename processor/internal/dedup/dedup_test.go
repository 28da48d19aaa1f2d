package dedup

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisFilter(t *testing.T, ttl time.Duration) (*miniredis.Miniredis, *Redis) {
	t.Helper()
	mr := miniredis.RunT(t)
	filter, err := NewRedis(context.Background(), mr.Addr(), "", 0, ttl)
	require.NoError(t, err)
	t.Cleanup(func() { _ = filter.Close() })
	return mr, filter
}

func TestSeenAfterMark(t *testing.T) {
	_, filter := newRedisFilter(t, time.Hour)
	ctx := context.Background()

	seen, err := filter.Seen(ctx, "a1b2c3d4e5f6")
	require.NoError(t, err)
	assert.False(t, seen)

	require.NoError(t, filter.Mark(ctx, "a1b2c3d4e5f6"))

	seen, err = filter.Seen(ctx, "a1b2c3d4e5f6")
	require.NoError(t, err)
	assert.True(t, seen)
}

func TestSeenIsReadOnly(t *testing.T) {
	_, filter := newRedisFilter(t, time.Hour)
	ctx := context.Background()

	// Checking must not mark: an insert can still fail after the check.
	for i := 0; i < 3; i++ {
		seen, err := filter.Seen(ctx, "a1b2c3d4e5f6")
		require.NoError(t, err)
		assert.False(t, seen)
	}
}

func TestMarkDistinctRecords(t *testing.T) {
	_, filter := newRedisFilter(t, time.Hour)
	ctx := context.Background()

	require.NoError(t, filter.Mark(ctx, "a1b2c3d4e5f6"))

	seen, err := filter.Seen(ctx, "f6e5d4c3b2a1")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestMarkExpires(t *testing.T) {
	mr, filter := newRedisFilter(t, time.Minute)
	ctx := context.Background()

	require.NoError(t, filter.Mark(ctx, "a1b2c3d4e5f6"))

	mr.FastForward(2 * time.Minute)

	seen, err := filter.Seen(ctx, "a1b2c3d4e5f6")
	require.NoError(t, err)
	assert.False(t, seen)
}

func TestNoopNeverSeen(t *testing.T) {
	var filter Noop
	ctx := context.Background()

	require.NoError(t, filter.Mark(ctx, "a1b2c3d4e5f6"))

	seen, err := filter.Seen(ctx, "a1b2c3d4e5f6")
	require.NoError(t, err)
	assert.False(t, seen)
}
