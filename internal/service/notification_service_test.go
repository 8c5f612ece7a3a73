package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/kushabhinav13/notification-service/internal/domain"
	"github.com/kushabhinav13/notification-service/internal/queue"
	"github.com/kushabhinav13/notification-service/internal/repository"
)

func newNotificationService(t *testing.T, repo *fakeNotificationRepo, attempts *fakeAttemptRepo, publisher *fakePublisher) *NotificationService {
	t.Helper()

	svc, err := NewNotificationService(repo, attempts, publisher, nil)
	if err != nil {
		t.Fatalf("NewNotificationService() error = %v", err)
	}
	return svc
}

func TestNotificationServiceCreate(t *testing.T) {
	t.Parallel()

	var created *domain.Notification
	repo := &fakeNotificationRepo{
		createFn: func(ctx context.Context, n *domain.Notification) error {
			created = n
			return nil
		},
	}
	publisher := &fakePublisher{}
	svc := newNotificationService(t, repo, &fakeAttemptRepo{}, publisher)

	n, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID:  " user-1 ",
		Channel: "email",
		Content: "hello",
	})
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}

	if n.ID == "" {
		t.Fatal("expected generated id")
	}
	if n.UserID != "user-1" {
		t.Fatalf("user id = %q, want trimmed user-1", n.UserID)
	}
	if n.Channel != domain.ChannelEmail {
		t.Fatalf("channel = %q, want EMAIL", n.Channel)
	}
	if n.Status != domain.StatusPending {
		t.Fatalf("status = %q, want PENDING", n.Status)
	}
	if created == nil || created.ID != n.ID {
		t.Fatal("repository Create not called with the notification")
	}

	if len(publisher.published) != 1 {
		t.Fatalf("expected 1 publish, got %d", len(publisher.published))
	}
	published := publisher.published[0]
	if published.task.NotificationID != n.ID || published.task.Attempt != 1 {
		t.Fatalf("published task = %+v, want id=%s attempt=1", published.task, n.ID)
	}
	if published.delay != 0 {
		t.Fatalf("publish delay = %v, want 0", published.delay)
	}
}

func TestNotificationServiceCreateValidation(t *testing.T) {
	t.Parallel()

	testCases := []struct {
		name  string
		input CreateNotificationInput
	}{
		{
			name:  "invalid channel",
			input: CreateNotificationInput{UserID: "u", Channel: "PIGEON", Content: "hi"},
		},
		{
			name:  "missing user id",
			input: CreateNotificationInput{UserID: "  ", Channel: "SMS", Content: "hi"},
		},
		{
			name:  "empty content",
			input: CreateNotificationInput{UserID: "u", Channel: "SMS", Content: ""},
		},
		{
			name:  "content too long",
			input: CreateNotificationInput{UserID: "u", Channel: "SMS", Content: strings.Repeat("x", domain.MaxContentLength+1)},
		},
	}

	for _, tc := range testCases {
		tc := tc
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			repo := &fakeNotificationRepo{
				createFn: func(ctx context.Context, n *domain.Notification) error {
					t.Fatal("repository Create must not be called for invalid input")
					return nil
				},
			}
			svc := newNotificationService(t, repo, &fakeAttemptRepo{}, &fakePublisher{})

			_, err := svc.Create(context.Background(), tc.input)
			if !errors.Is(err, domain.ErrValidation) {
				t.Fatalf("Create() error = %v, want validation error", err)
			}
		})
	}
}

func TestNotificationServiceCreatePublishFailure(t *testing.T) {
	t.Parallel()

	var failedID, failedReason string
	repo := &fakeNotificationRepo{
		markFailedFn: func(ctx context.Context, id string, reason string) error {
			failedID = id
			failedReason = reason
			return nil
		},
	}
	publisher := &fakePublisher{
		publishFn: func(ctx context.Context, task queue.DeliveryTask, delay time.Duration) error {
			return domain.ErrQueueUnavailable
		},
	}
	svc := newNotificationService(t, repo, &fakeAttemptRepo{}, publisher)

	_, err := svc.Create(context.Background(), CreateNotificationInput{
		UserID:  "user-1",
		Channel: "SMS",
		Content: "hello",
	})
	if !errors.Is(err, domain.ErrQueueUnavailable) {
		t.Fatalf("Create() error = %v, want queue unavailable", err)
	}
	if failedID == "" {
		t.Fatal("expected notification marked FAILED after publish failure")
	}
	if !strings.Contains(failedReason, "enqueue") {
		t.Fatalf("failure reason = %q, want enqueue failure", failedReason)
	}
}

func TestNotificationServiceGetByID(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Notification, error) {
			if id != "n-1" {
				return nil, domain.ErrNotFound
			}
			return pendingNotification(id), nil
		},
	}
	svc := newNotificationService(t, repo, &fakeAttemptRepo{}, &fakePublisher{})

	n, err := svc.GetByID(context.Background(), "n-1")
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if n.ID != "n-1" {
		t.Fatalf("id = %q, want n-1", n.ID)
	}

	if _, err := svc.GetByID(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("GetByID(missing) error = %v, want not found", err)
	}
	if _, err := svc.GetByID(context.Background(), "  "); !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("GetByID(blank) error = %v, want validation error", err)
	}
}

func TestNotificationServiceListByUser(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{
		listByUserFn: func(ctx context.Context, params repository.ListByUserParams) ([]domain.Notification, int64, error) {
			return []domain.Notification{*pendingNotification("n-1")}, 1, nil
		},
	}
	svc := newNotificationService(t, repo, &fakeAttemptRepo{}, &fakePublisher{})

	notifications, total, err := svc.ListByUser(context.Background(), repository.ListByUserParams{UserID: "user-1"})
	if err != nil {
		t.Fatalf("ListByUser() error = %v", err)
	}
	if total != 1 || len(notifications) != 1 {
		t.Fatalf("got %d/%d, want 1/1", len(notifications), total)
	}

	_, _, err = svc.ListByUser(context.Background(), repository.ListByUserParams{UserID: " "})
	if !errors.Is(err, domain.ErrValidation) {
		t.Fatalf("ListByUser(blank) error = %v, want validation error", err)
	}
}

func TestNotificationServiceListAttempts(t *testing.T) {
	t.Parallel()

	repo := &fakeNotificationRepo{
		getByIDFn: func(ctx context.Context, id string) (*domain.Notification, error) {
			if id != "n-1" {
				return nil, domain.ErrNotFound
			}
			return pendingNotification(id), nil
		},
	}
	attempts := &fakeAttemptRepo{
		listFn: func(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error) {
			return []domain.DeliveryAttempt{{NotificationID: notificationID, AttemptNumber: 1}}, nil
		},
	}
	svc := newNotificationService(t, repo, attempts, &fakePublisher{})

	list, err := svc.ListAttempts(context.Background(), "n-1")
	if err != nil {
		t.Fatalf("ListAttempts() error = %v", err)
	}
	if len(list) != 1 {
		t.Fatalf("got %d attempts, want 1", len(list))
	}

	if _, err := svc.ListAttempts(context.Background(), "missing"); !errors.Is(err, domain.ErrNotFound) {
		t.Fatalf("ListAttempts(missing) error = %v, want not found", err)
	}
}
