package service

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/kushabhinav13/notification-service/internal/domain"
	"github.com/kushabhinav13/notification-service/internal/queue"
	"github.com/kushabhinav13/notification-service/internal/repository"
)

// CreateNotificationInput carries the raw accept-operation payload before
// validation.
type CreateNotificationInput struct {
	UserID  string
	Channel string
	Content string
}

// NotificationService implements the synchronous API operations: accepting
// notifications into the pipeline and reading back their state.
type NotificationService struct {
	repo      repository.NotificationRepository
	attempts  repository.AttemptRepository
	publisher queue.Publisher
	logger    *zap.Logger
	newID     func() string
}

func NewNotificationService(
	repo repository.NotificationRepository,
	attempts repository.AttemptRepository,
	publisher queue.Publisher,
	logger *zap.Logger,
) (*NotificationService, error) {
	if repo == nil {
		return nil, fmt.Errorf("notification repository is required")
	}
	if attempts == nil {
		return nil, fmt.Errorf("attempt repository is required")
	}
	if publisher == nil {
		return nil, fmt.Errorf("queue publisher is required")
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	return &NotificationService{
		repo:      repo,
		attempts:  attempts,
		publisher: publisher,
		logger:    logger,
		newID:     func() string { return uuid.NewString() },
	}, nil
}

// Create validates and persists a notification, then enqueues its first
// delivery task. The record is durable before the task is visible to any
// worker; if enqueueing fails the record is settled as FAILED so it cannot
// linger PENDING with no task behind it.
func (s *NotificationService) Create(ctx context.Context, input CreateNotificationInput) (*domain.Notification, error) {
	channel, err := domain.ParseChannelFromString(input.Channel)
	if err != nil {
		return nil, err
	}

	n := &domain.Notification{
		ID:      s.newID(),
		UserID:  strings.TrimSpace(input.UserID),
		Channel: channel,
		Content: input.Content,
		Status:  domain.StatusPending,
	}
	if err := n.Validate(); err != nil {
		return nil, err
	}

	if err := s.repo.Create(ctx, n); err != nil {
		return nil, fmt.Errorf("create notification: %w", err)
	}

	task := queue.DeliveryTask{NotificationID: n.ID, Attempt: 1}
	if err := s.publisher.Publish(ctx, task, 0); err != nil {
		s.logger.Error("failed to enqueue delivery task",
			zap.String("notification_id", n.ID),
			zap.Error(err),
		)
		if markErr := s.repo.MarkFailed(ctx, n.ID, "failed to enqueue delivery task"); markErr != nil {
			s.logger.Error("failed to settle unenqueued notification",
				zap.String("notification_id", n.ID),
				zap.Error(markErr),
			)
		}
		return nil, fmt.Errorf("enqueue delivery task: %w", err)
	}

	s.logger.Info("notification accepted",
		zap.String("notification_id", n.ID),
		zap.String("channel", channel.String()),
	)
	return n, nil
}

func (s *NotificationService) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if strings.TrimSpace(id) == "" {
		return nil, fmt.Errorf("%w: notification id is required", domain.ErrValidation)
	}
	return s.repo.GetByID(ctx, id)
}

func (s *NotificationService) ListByUser(ctx context.Context, params repository.ListByUserParams) ([]domain.Notification, int64, error) {
	if strings.TrimSpace(params.UserID) == "" {
		return nil, 0, fmt.Errorf("%w: user id is required", domain.ErrValidation)
	}
	return s.repo.ListByUser(ctx, params)
}

// ListAttempts returns the audit trail for a notification, oldest first.
func (s *NotificationService) ListAttempts(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error) {
	if _, err := s.repo.GetByID(ctx, notificationID); err != nil {
		return nil, err
	}
	return s.attempts.ListByNotification(ctx, notificationID)
}
