package repository

import (
	"time"

	"github.com/kushabhinav13/notification-service/internal/domain"
)

// NotificationModel is the persistence model for the notifications table.
type NotificationModel struct {
	ID           string         `gorm:"type:uuid;primaryKey"`
	UserID       string         `gorm:"type:varchar(255);not null"`
	Channel      domain.Channel `gorm:"type:varchar(10);not null"`
	Content      string         `gorm:"type:text;not null"`
	Status       domain.Status  `gorm:"type:varchar(10);not null"`
	AttemptCount int            `gorm:"not null;default:0"`
	LastError    *string        `gorm:"type:text"`
	CreatedAt    time.Time
	UpdatedAt    time.Time
}

func (NotificationModel) TableName() string {
	return "notifications"
}

// DeliveryAttemptModel is the persistence model for delivery_attempts.
type DeliveryAttemptModel struct {
	ID             string  `gorm:"type:uuid;primaryKey"`
	NotificationID string  `gorm:"type:uuid;not null"`
	AttemptNumber  int     `gorm:"not null"`
	StatusCode     *int    `gorm:"type:int"`
	Error          *string `gorm:"type:text"`
	CreatedAt      time.Time
}

func (DeliveryAttemptModel) TableName() string {
	return "delivery_attempts"
}

func notificationModelFromDomain(n *domain.Notification) *NotificationModel {
	if n == nil {
		return nil
	}

	return &NotificationModel{
		ID:           n.ID,
		UserID:       n.UserID,
		Channel:      n.Channel,
		Content:      n.Content,
		Status:       n.Status,
		AttemptCount: n.AttemptCount,
		LastError:    n.LastError,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func notificationModelToDomain(m *NotificationModel) *domain.Notification {
	if m == nil {
		return nil
	}

	return &domain.Notification{
		ID:           m.ID,
		UserID:       m.UserID,
		Channel:      m.Channel,
		Content:      m.Content,
		Status:       m.Status,
		AttemptCount: m.AttemptCount,
		LastError:    m.LastError,
		CreatedAt:    m.CreatedAt,
		UpdatedAt:    m.UpdatedAt,
	}
}

func attemptModelFromDomain(a *domain.DeliveryAttempt) *DeliveryAttemptModel {
	if a == nil {
		return nil
	}

	return &DeliveryAttemptModel{
		ID:             a.ID,
		NotificationID: a.NotificationID,
		AttemptNumber:  a.AttemptNumber,
		StatusCode:     a.StatusCode,
		Error:          a.Error,
		CreatedAt:      a.CreatedAt,
	}
}

func attemptModelToDomain(m *DeliveryAttemptModel) *domain.DeliveryAttempt {
	if m == nil {
		return nil
	}

	return &domain.DeliveryAttempt{
		ID:             m.ID,
		NotificationID: m.NotificationID,
		AttemptNumber:  m.AttemptNumber,
		StatusCode:     m.StatusCode,
		Error:          m.Error,
		CreatedAt:      m.CreatedAt,
	}
}
