// Package nats provides the NATS JetStream implementation of the messaging interfaces.
package nats

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/nats-io/nats.go"
	"github.com/nats-io/nats.go/jetstream"

	"github.com/crownpoint-data/pos-sync/common/messaging"
)

// Config holds NATS client configuration.
type Config struct {
	// URL is the NATS server URL (e.g., "nats://localhost:4222").
	URL string

	// Name is the client name for connection identification.
	Name string

	// MaxReconnects is the maximum number of reconnection attempts.
	// Use -1 for infinite reconnects.
	MaxReconnects int

	// ReconnectWait is the time to wait between reconnection attempts.
	ReconnectWait time.Duration

	// Timeout is the connection timeout.
	Timeout time.Duration

	// AckTimeout bounds the wait for a single JetStream publish acknowledgment.
	AckTimeout time.Duration
}

// DefaultConfig returns a Config with sensible defaults.
func DefaultConfig() Config {
	return Config{
		URL:           nats.DefaultURL,
		Name:          "pos-sync",
		MaxReconnects: -1,
		ReconnectWait: 2 * time.Second,
		Timeout:       5 * time.Second,
		AckTimeout:    30 * time.Second,
	}
}

// Client implements messaging.Client using NATS with JetStream persistence.
type Client struct {
	conn       *nats.Conn
	js         jetstream.JetStream
	ackTimeout time.Duration
	mu         sync.RWMutex
	subs       []*subscription
}

// NewClient connects to NATS and initializes the JetStream context.
func NewClient(cfg Config) (*Client, error) {
	if cfg.AckTimeout <= 0 {
		cfg.AckTimeout = 30 * time.Second
	}

	opts := []nats.Option{
		nats.Name(cfg.Name),
		nats.MaxReconnects(cfg.MaxReconnects),
		nats.ReconnectWait(cfg.ReconnectWait),
		nats.Timeout(cfg.Timeout),
		nats.DisconnectErrHandler(func(_ *nats.Conn, err error) {
			if err != nil {
				fmt.Printf("NATS disconnected: %v\n", err)
			}
		}),
		nats.ReconnectHandler(func(_ *nats.Conn) {
			fmt.Println("NATS reconnected")
		}),
	}

	conn, err := nats.Connect(cfg.URL, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to NATS: %w", err)
	}

	js, err := jetstream.New(conn)
	if err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to create JetStream context: %w", err)
	}

	return &Client{
		conn:       conn,
		js:         js,
		ackTimeout: cfg.AckTimeout,
		subs:       make([]*subscription, 0),
	}, nil
}

// EnsureStream creates or updates the stream capturing the given subjects.
// Both services call this at startup so either can be deployed first.
func (c *Client) EnsureStream(ctx context.Context, name string, subjects []string) error {
	_, err := c.js.CreateOrUpdateStream(ctx, jetstream.StreamConfig{
		Name:      name,
		Subjects:  subjects,
		MaxAge:    7 * 24 * time.Hour,
		Retention: jetstream.LimitsPolicy,
		Storage:   jetstream.FileStorage,
	})
	if err != nil {
		return fmt.Errorf("failed to create/update stream %s: %w", name, err)
	}
	return nil
}

// Publish sends one message and waits for the JetStream acknowledgment.
func (c *Client) Publish(ctx context.Context, subject string, data []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	if _, err := c.js.Publish(ctx, subject, data); err != nil {
		return fmt.Errorf("publish %s: %w", subject, err)
	}
	return nil
}

// PublishBatch submits every payload asynchronously and waits for all broker
// acknowledgments before returning. This bounds in-flight messages to one batch
// while keeping publishes pipelined within it.
func (c *Client) PublishBatch(ctx context.Context, subject string, payloads [][]byte) error {
	futures := make([]jetstream.PubAckFuture, 0, len(payloads))
	for _, payload := range payloads {
		future, err := c.js.PublishAsync(subject, payload)
		if err != nil {
			return fmt.Errorf("publish async %s: %w", subject, err)
		}
		futures = append(futures, future)
	}

	timer := time.NewTimer(c.ackTimeout)
	defer timer.Stop()

	for _, future := range futures {
		select {
		case <-future.Ok():
		case err := <-future.Err():
			return fmt.Errorf("broker ack %s: %w", subject, err)
		case <-ctx.Done():
			return ctx.Err()
		case <-timer.C:
			return fmt.Errorf("broker ack %s: timed out after %s", subject, c.ackTimeout)
		}
	}
	return nil
}

// Consume attaches a durable consumer to the stream and feeds each message to
// handler. A handler error triggers a negative acknowledgment so the broker
// redelivers the message; a nil return acknowledges it.
func (c *Client) Consume(ctx context.Context, stream, consumer string, handler messaging.MessageHandler) (messaging.Subscription, error) {
	str, err := c.js.Stream(ctx, stream)
	if err != nil {
		return nil, fmt.Errorf("get stream %s: %w", stream, err)
	}

	cons, err := str.CreateOrUpdateConsumer(ctx, jetstream.ConsumerConfig{
		Name:          consumer,
		Durable:       consumer,
		AckWait:       30 * time.Second,
		MaxDeliver:    5,
		MaxAckPending: 100,
		AckPolicy:     jetstream.AckExplicitPolicy,
	})
	if err != nil {
		return nil, fmt.Errorf("create/update consumer %s: %w", consumer, err)
	}

	cctx, err := cons.Consume(func(m jetstream.Msg) {
		msg := &messaging.Message{
			Subject:   m.Subject(),
			Data:      m.Data(),
			Timestamp: time.Now().UTC(),
		}
		if handlerErr := handler(context.Background(), msg); handlerErr != nil {
			_ = m.Nak()
			return
		}
		_ = m.Ack()
	})
	if err != nil {
		return nil, fmt.Errorf("consume %s: %w", consumer, err)
	}

	sub := &subscription{consume: cctx, subject: stream + "/" + consumer}
	c.mu.Lock()
	c.subs = append(c.subs, sub)
	c.mu.Unlock()
	return sub, nil
}

// Drain gracefully closes the connection, letting in-flight messages complete.
func (c *Client) Drain() error {
	return c.conn.Drain()
}

// IsConnected reports whether the client is connected to the broker.
func (c *Client) IsConnected() bool {
	return c.conn != nil && c.conn.IsConnected()
}

// Close unsubscribes all active subscriptions and closes the connection.
func (c *Client) Close() error {
	c.mu.Lock()
	for _, sub := range c.subs {
		_ = sub.Unsubscribe()
	}
	c.subs = nil
	c.mu.Unlock()

	c.conn.Close()
	return nil
}

type subscription struct {
	consume jetstream.ConsumeContext
	subject string
	stopped bool
}

func (s *subscription) Unsubscribe() error {
	if s.consume != nil && !s.stopped {
		s.consume.Stop()
		s.stopped = true
	}
	return nil
}

func (s *subscription) Subject() string {
	return s.subject
}

func (s *subscription) IsValid() bool {
	return s.consume != nil && !s.stopped
}
