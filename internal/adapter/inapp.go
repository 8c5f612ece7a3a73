package adapter

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/kushabhinav13/notification-service/internal/domain"
	goredis "github.com/redis/go-redis/v9"
)

const (
	inboxKeyPrefix = "inbox"

	// inboxMaxLength caps per-user inbox size; older entries are trimmed.
	inboxMaxLength = 1000
)

type inboxEntry struct {
	NotificationID string    `json:"notificationId"`
	Content        string    `json:"content"`
	DeliveredAt    time.Time `json:"deliveredAt"`
}

// InAppAdapter delivers IN_APP notifications into a per-user Redis inbox list.
// Redis errors are transient; the record store stays the source of truth, so a
// retried push of the same notification id overwrites nothing.
type InAppAdapter struct {
	client *goredis.Client
	now    func() time.Time
}

func NewInAppAdapter(client *goredis.Client) (*InAppAdapter, error) {
	if client == nil {
		return nil, fmt.Errorf("in-app adapter: redis client is required")
	}

	return &InAppAdapter{
		client: client,
		now:    time.Now,
	}, nil
}

func (a *InAppAdapter) Send(ctx context.Context, notification domain.Notification) (*SendResult, error) {
	if a == nil || a.client == nil {
		return nil, fmt.Errorf("in-app adapter is not initialized")
	}

	payload, err := json.Marshal(inboxEntry{
		NotificationID: notification.ID,
		Content:        notification.Content,
		DeliveredAt:    a.now().UTC(),
	})
	if err != nil {
		return nil, &AdapterError{
			Message:   "failed to encode inbox entry",
			Transient: false,
			Cause:     err,
		}
	}

	key := InboxKey(notification.UserID)
	pipe := a.client.TxPipeline()
	pipe.LPush(ctx, key, payload)
	pipe.LTrim(ctx, key, 0, inboxMaxLength-1)
	if _, err := pipe.Exec(ctx); err != nil {
		return nil, &AdapterError{
			Message:   "failed to push inbox entry",
			Transient: true,
			Cause:     err,
		}
	}

	return &SendResult{MessageID: notification.ID}, nil
}

// InboxKey returns the Redis list key holding a user's in-app inbox.
func InboxKey(userID string) string {
	return fmt.Sprintf("%s:%s", inboxKeyPrefix, userID)
}
