package messaging

// Subject and stream names for the pos-sync message bus.
const (
	// SubjectSyncRecords carries one JSON-encoded sync envelope per message,
	// published by the poller and consumed by the processor.
	SubjectSyncRecords = "pos.sync.records"

	// StreamPosSync is the JetStream stream capturing sync record subjects.
	StreamPosSync = "POS_SYNC"
)

// Durable consumer names. Workers sharing a consumer name split the stream
// between them, so each envelope is processed once per group.
const (
	// ConsumerProcessorWorkers is the processor's durable consumer.
	ConsumerProcessorWorkers = "processor-workers"
)
