package domain

import "time"

// DeliveryAttempt records a single delivery attempt for a notification.
type DeliveryAttempt struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	NotificationID string  `gorm:"type:uuid;not null"`
	AttemptNumber  int     `gorm:"not null"`
	StatusCode     *int    `gorm:"type:int"`
	Error          *string `gorm:"type:text"`
	CreatedAt      time.Time
}
