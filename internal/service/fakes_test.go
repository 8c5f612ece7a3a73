package service

import (
	"context"
	"time"

	"github.com/kushabhinav13/notification-service/internal/adapter"
	"github.com/kushabhinav13/notification-service/internal/domain"
	"github.com/kushabhinav13/notification-service/internal/queue"
	"github.com/kushabhinav13/notification-service/internal/repository"
)

type fakeNotificationRepo struct {
	createFn        func(ctx context.Context, n *domain.Notification) error
	getByIDFn       func(ctx context.Context, id string) (*domain.Notification, error)
	listByUserFn    func(ctx context.Context, params repository.ListByUserParams) ([]domain.Notification, int64, error)
	claimFn         func(ctx context.Context, id string) (*domain.Notification, error)
	recordAttemptFn func(ctx context.Context, id string) (int, error)
	markSentFn      func(ctx context.Context, id string) error
	markFailedFn    func(ctx context.Context, id string, reason string) error
}

func (f *fakeNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	if f.createFn == nil {
		return nil
	}
	return f.createFn(ctx, n)
}

func (f *fakeNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	if f.getByIDFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.getByIDFn(ctx, id)
}

func (f *fakeNotificationRepo) ListByUser(ctx context.Context, params repository.ListByUserParams) ([]domain.Notification, int64, error) {
	if f.listByUserFn == nil {
		return nil, 0, nil
	}
	return f.listByUserFn(ctx, params)
}

func (f *fakeNotificationRepo) ClaimForDelivery(ctx context.Context, id string) (*domain.Notification, error) {
	if f.claimFn == nil {
		return nil, domain.ErrNotFound
	}
	return f.claimFn(ctx, id)
}

func (f *fakeNotificationRepo) RecordAttempt(ctx context.Context, id string) (int, error) {
	if f.recordAttemptFn == nil {
		return 1, nil
	}
	return f.recordAttemptFn(ctx, id)
}

func (f *fakeNotificationRepo) MarkSent(ctx context.Context, id string) error {
	if f.markSentFn == nil {
		return nil
	}
	return f.markSentFn(ctx, id)
}

func (f *fakeNotificationRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	if f.markFailedFn == nil {
		return nil
	}
	return f.markFailedFn(ctx, id, reason)
}

type fakeAttemptRepo struct {
	createFn func(ctx context.Context, a *domain.DeliveryAttempt) error
	listFn   func(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error)

	created []domain.DeliveryAttempt
}

func (f *fakeAttemptRepo) Create(ctx context.Context, a *domain.DeliveryAttempt) error {
	if f.createFn != nil {
		return f.createFn(ctx, a)
	}
	f.created = append(f.created, *a)
	return nil
}

func (f *fakeAttemptRepo) ListByNotification(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error) {
	if f.listFn == nil {
		return nil, nil
	}
	return f.listFn(ctx, notificationID)
}

type publishedTask struct {
	task  queue.DeliveryTask
	delay time.Duration
}

type fakePublisher struct {
	publishFn func(ctx context.Context, task queue.DeliveryTask, delay time.Duration) error

	published []publishedTask
}

func (f *fakePublisher) Publish(ctx context.Context, task queue.DeliveryTask, delay time.Duration) error {
	if f.publishFn != nil {
		return f.publishFn(ctx, task, delay)
	}
	f.published = append(f.published, publishedTask{task: task, delay: delay})
	return nil
}

func (f *fakePublisher) Close() error { return nil }

type fakeConsumer struct {
	consumeFn func(ctx context.Context, handler queue.TaskHandler) error
}

func (f *fakeConsumer) Consume(ctx context.Context, handler queue.TaskHandler) error {
	if f.consumeFn == nil {
		<-ctx.Done()
		return ctx.Err()
	}
	return f.consumeFn(ctx, handler)
}

func (f *fakeConsumer) Close() error { return nil }

type fakeAdapter struct {
	sendFn func(ctx context.Context, n domain.Notification) (*adapter.SendResult, error)
}

func (f *fakeAdapter) Send(ctx context.Context, n domain.Notification) (*adapter.SendResult, error) {
	if f.sendFn == nil {
		return &adapter.SendResult{StatusCode: 200}, nil
	}
	return f.sendFn(ctx, n)
}

type fakeRateLimiter struct {
	waitFn func(ctx context.Context, channel string) error

	waitedChannels []string
}

func (f *fakeRateLimiter) Allow(ctx context.Context, channel string) (bool, error) {
	return true, nil
}

func (f *fakeRateLimiter) Wait(ctx context.Context, channel string) error {
	f.waitedChannels = append(f.waitedChannels, channel)
	if f.waitFn != nil {
		return f.waitFn(ctx, channel)
	}
	return nil
}
