// Package dedup filters already-processed records. Delivery from the channel
// is at-least-once; record_id plus a redis key window turns that into
// effectively-once insertion for redeliveries inside the TTL. A record is
// marked only after its warehouse insert succeeds, so a failed insert leaves
// the record eligible for redelivery.
package dedup

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Filter reports whether a record has been processed before.
type Filter interface {
	// Seen reports whether record_id was previously marked. Read-only.
	Seen(ctx context.Context, recordID string) (bool, error)
	// Mark records record_id as processed. Called after a successful insert.
	Mark(ctx context.Context, recordID string) error
	Close() error
}

// Noop never reports a duplicate. Used when dedup is disabled.
type Noop struct{}

func (Noop) Seen(context.Context, string) (bool, error) { return false, nil }
func (Noop) Mark(context.Context, string) error         { return nil }
func (Noop) Close() error                               { return nil }

// Redis is a Filter backed by expiring keys.
type Redis struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedis connects and verifies the connection.
func NewRedis(ctx context.Context, addr, password string, db int, ttl time.Duration) (*Redis, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       db,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("ping redis: %w", err)
	}
	return &Redis{client: client, ttl: ttl}, nil
}

func (r *Redis) Seen(ctx context.Context, recordID string) (bool, error) {
	n, err := r.client.Exists(ctx, seenKey(recordID)).Result()
	if err != nil {
		return false, fmt.Errorf("dedup check for %s: %w", recordID, err)
	}
	return n > 0, nil
}

func (r *Redis) Mark(ctx context.Context, recordID string) error {
	if err := r.client.Set(ctx, seenKey(recordID), 1, r.ttl).Err(); err != nil {
		return fmt.Errorf("dedup mark for %s: %w", recordID, err)
	}
	return nil
}

func (r *Redis) Close() error {
	return r.client.Close()
}

func seenKey(recordID string) string {
	return "possync:seen:" + recordID
}
