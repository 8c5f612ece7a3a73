package repository

import (
	"context"
	"errors"
	"fmt"

	"github.com/kushabhinav13/notification-service/internal/domain"
	"gorm.io/gorm"
)

// ListByUserParams pages through a user's notifications in insertion order.
type ListByUserParams struct {
	UserID   string
	Page     int
	PageSize int
}

// NotificationRepository owns the notification lifecycle. It is the only
// component permitted to mutate status and attempt_count; every mutating
// operation is atomic per id.
type NotificationRepository interface {
	Create(ctx context.Context, n *domain.Notification) error
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByUser(ctx context.Context, params ListByUserParams) ([]domain.Notification, int64, error)
	// ClaimForDelivery loads a notification for processing. It returns
	// (nil, nil) when the status is already terminal, which is the
	// redelivery idempotency guard. The claim is only a status read;
	// concurrent settlement is serialized by the guarded terminal UPDATE
	// in MarkSent/MarkFailed, not by this call.
	ClaimForDelivery(ctx context.Context, id string) (*domain.Notification, error)
	// RecordAttempt atomically increments attempt_count and returns the
	// post-increment value.
	RecordAttempt(ctx context.Context, id string) (int, error)
	MarkSent(ctx context.Context, id string) error
	MarkFailed(ctx context.Context, id string, reason string) error
}

type GormNotificationRepo struct {
	db *gorm.DB
}

func NewGormNotificationRepo(db *gorm.DB) *GormNotificationRepo {
	return &GormNotificationRepo{db: db}
}

func (r *GormNotificationRepo) Create(ctx context.Context, n *domain.Notification) error {
	model := notificationModelFromDomain(n)
	if err := r.db.WithContext(ctx).Create(model).Error; err != nil {
		return err
	}
	if n != nil {
		*n = *notificationModelToDomain(model)
	}
	return nil
}

func (r *GormNotificationRepo) GetByID(ctx context.Context, id string) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) ListByUser(ctx context.Context, params ListByUserParams) ([]domain.Notification, int64, error) {
	query := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("user_id = ?", params.UserID)

	var total int64
	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	page := max(params.Page, 1)
	pageSize := params.PageSize
	if pageSize < 1 {
		pageSize = 50
	}
	pageSize = min(pageSize, 100)

	var models []NotificationModel
	err := query.
		Order("created_at ASC, id ASC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&models).Error
	if err != nil {
		return nil, 0, err
	}

	notifications := make([]domain.Notification, 0, len(models))
	for i := range models {
		notifications = append(notifications, *notificationModelToDomain(&models[i]))
	}

	return notifications, total, nil
}

func (r *GormNotificationRepo) ClaimForDelivery(ctx context.Context, id string) (*domain.Notification, error) {
	var model NotificationModel
	err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, domain.ErrNotFound
	}
	if err != nil {
		return nil, err
	}

	// Redelivered task for an already-settled notification: no-op.
	if model.Status.IsTerminal() {
		return nil, nil
	}

	return notificationModelToDomain(&model), nil
}

func (r *GormNotificationRepo) RecordAttempt(ctx context.Context, id string) (int, error) {
	var count int
	result := r.db.WithContext(ctx).
		Raw(`UPDATE notifications SET attempt_count = attempt_count + 1, updated_at = NOW() WHERE id = ? RETURNING attempt_count`, id).
		Scan(&count)
	if result.Error != nil {
		return 0, result.Error
	}
	if result.RowsAffected == 0 {
		return 0, domain.ErrNotFound
	}
	return count, nil
}

func (r *GormNotificationRepo) MarkSent(ctx context.Context, id string) error {
	return r.markTerminal(ctx, id, domain.StatusSent, nil)
}

func (r *GormNotificationRepo) MarkFailed(ctx context.Context, id string, reason string) error {
	return r.markTerminal(ctx, id, domain.StatusFailed, &reason)
}

// markTerminal moves a PENDING notification to a terminal status. The status
// predicate in the WHERE clause makes the transition atomic; zero affected
// rows means the row is missing or already terminal.
func (r *GormNotificationRepo) markTerminal(ctx context.Context, id string, status domain.Status, lastError *string) error {
	updates := map[string]any{"status": status}
	if lastError != nil {
		updates["last_error"] = *lastError
	}

	result := r.db.WithContext(ctx).
		Model(&NotificationModel{}).
		Where("id = ? AND status = ?", id, domain.StatusPending).
		Updates(updates)
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected > 0 {
		return nil
	}

	current, err := r.GetByID(ctx, id)
	if err != nil {
		return err
	}
	return fmt.Errorf("%w: notification %s is %s, cannot transition to %s",
		domain.ErrInvalidTransition, id, current.Status, status)
}
