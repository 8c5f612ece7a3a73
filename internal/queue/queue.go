package queue

import (
	"context"
	"fmt"
	"time"
)

// Queue topology. Delayed retries are parked on consumer-less delay queues,
// one per backoff step: messages carry a per-message TTL and dead-letter back
// into the work queue once it expires. RabbitMQ only expires the message at
// the queue head, so steps must not share a queue: a 60s retry parked ahead
// of a 1s retry would hold it invisible long past its computed delay. Poison
// messages rejected by the consumer dead-letter into the DLQ.
const (
	// WorkQueue carries delivery tasks to the dispatch workers.
	WorkQueue = "notifications.deliver"

	// delayQueuePrefix names the per-step delay queues.
	delayQueuePrefix = "notifications.deliver.delay"

	// DeadLetterQueue collects malformed or rejected tasks.
	DeadLetterQueue = "notifications.dlq"
)

// DelayQueueName returns the delay queue for a retry's backoff step, keyed by
// the attempt the task will run as. TTLs within one queue differ only by
// jitter, so head-of-line expiry skew is bounded by the jitter spread.
func DelayQueueName(attempt int) string {
	if attempt < 1 {
		attempt = 1
	}
	return fmt.Sprintf("%s.%d", delayQueuePrefix, attempt)
}

// Publisher publishes delivery tasks, optionally visible only after delay.
type Publisher interface {
	Publish(ctx context.Context, task DeliveryTask, delay time.Duration) error
	Close() error
}

// TaskHandler processes a consumed delivery task. A nil return acknowledges
// the task; an error makes it immediately visible again.
type TaskHandler func(ctx context.Context, task DeliveryTask) error

// Consumer delivers tasks from the work queue to a handler with
// competing-consumers, at-least-once semantics.
type Consumer interface {
	Consume(ctx context.Context, handler TaskHandler) error
	Close() error
}
