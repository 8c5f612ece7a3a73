package queue

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"time"

	"github.com/kushabhinav13/notification-service/internal/domain"
	amqp "github.com/rabbitmq/amqp091-go"
)

type RabbitMQPublisher struct {
	client *RabbitMQ
}

func NewRabbitMQPublisher(client *RabbitMQ) *RabbitMQPublisher {
	return &RabbitMQPublisher{client: client}
}

// Publish enqueues a delivery task. With delay > 0 the task is parked on the
// delay queue for its backoff step and becomes visible once its per-message
// TTL expires. Steps get separate queues because RabbitMQ expires messages
// only at the queue head; within a step TTLs differ only by jitter.
func (p *RabbitMQPublisher) Publish(ctx context.Context, task DeliveryTask, delay time.Duration) error {
	if p == nil || p.client == nil {
		return fmt.Errorf("%w: publisher is not initialized", domain.ErrQueueUnavailable)
	}
	if err := task.Validate(); err != nil {
		return fmt.Errorf("invalid delivery task: %w", err)
	}

	payload, err := json.Marshal(task)
	if err != nil {
		return fmt.Errorf("failed to marshal delivery task: %w", err)
	}

	ch, err := p.client.channel(ctx)
	if err != nil {
		return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
	}
	defer ch.Close()

	publishing := amqp.Publishing{
		ContentType:  "application/json",
		DeliveryMode: amqp.Persistent,
		Timestamp:    time.Now().UTC(),
		MessageId:    task.NotificationID,
		Body:         payload,
	}

	targetQueue := WorkQueue
	if delay > 0 {
		targetQueue = DelayQueueName(task.Attempt)
		if err := declareDelayQueue(ch, targetQueue); err != nil {
			return fmt.Errorf("%w: %v", domain.ErrQueueUnavailable, err)
		}
		publishing.Expiration = strconv.FormatInt(delay.Milliseconds(), 10)
	}

	if err := ch.PublishWithContext(ctx, "", targetQueue, false, false, publishing); err != nil {
		return fmt.Errorf("%w: failed to publish to queue %q: %v", domain.ErrQueueUnavailable, targetQueue, err)
	}

	return nil
}

func (p *RabbitMQPublisher) Close() error {
	if p == nil || p.client == nil {
		return nil
	}
	return p.client.Close()
}
