package queue

import (
	"fmt"
	"strings"
)

// DeliveryTask is the broker payload for a single delivery attempt. It is the
// minimal tuple the worker needs; the record store remains the source of truth
// for attempt history, so a task is reconstructible from the notification id.
type DeliveryTask struct {
	NotificationID string `json:"notificationId"`
	Attempt        int    `json:"attempt"`
}

func (t DeliveryTask) Validate() error {
	if strings.TrimSpace(t.NotificationID) == "" {
		return fmt.Errorf("notificationId is required")
	}
	if t.Attempt < 1 {
		return fmt.Errorf("attempt must be >= 1 (got %d)", t.Attempt)
	}
	return nil
}
