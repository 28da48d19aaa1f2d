// Package messaging provides abstractions for message broker communication.
// It defines the interfaces the poller and processor use to publish and consume
// sync envelopes without being coupled to a specific broker implementation.
package messaging

import (
	"context"
	"time"
)

// Message represents a message received from or sent to the message broker.
type Message struct {
	// Subject is the topic the message was published to.
	Subject string

	// Data is the raw message payload.
	Data []byte

	// Metadata contains optional key-value pairs for message headers.
	Metadata map[string]string

	// Timestamp is when the message was published.
	Timestamp time.Time
}

// MessageHandler processes a received message. Returning an error indicates a
// retryable processing failure; the broker redelivers the message later.
type MessageHandler func(ctx context.Context, msg *Message) error

// Subscription represents an active subscription to a subject.
type Subscription interface {
	// Unsubscribe stops receiving messages on this subscription.
	Unsubscribe() error

	// Subject returns the subject this subscription is listening to.
	Subject() string

	// IsValid returns true if the subscription is still active.
	IsValid() bool
}

// Publisher publishes messages to subjects.
type Publisher interface {
	// Publish sends one message to the specified subject and waits for the
	// broker's acknowledgment.
	Publish(ctx context.Context, subject string, data []byte) error

	// PublishBatch submits every payload asynchronously and waits for all
	// broker acknowledgments before returning. A nil error means the whole
	// batch is durably enqueued.
	PublishBatch(ctx context.Context, subject string, payloads [][]byte) error

	// Close releases any resources held by the publisher.
	Close() error
}

// Subscriber consumes messages from a durable stream.
type Subscriber interface {
	// Consume attaches a durable consumer to the stream and feeds each message
	// to handler. Messages are load-balanced across workers sharing the same
	// consumer name. A handler error withholds acknowledgment so the broker
	// redelivers the message; a nil return acknowledges it.
	Consume(ctx context.Context, stream, consumer string, handler MessageHandler) (Subscription, error)

	// Close releases any resources and stops all active consumers.
	Close() error
}

// Client combines Publisher and Subscriber. Both services hold one Client for
// the life of the process.
type Client interface {
	Publisher
	Subscriber

	// Drain gracefully closes the connection, allowing in-flight messages to complete.
	Drain() error

	// IsConnected returns true if the client is connected to the broker.
	IsConnected() bool
}
