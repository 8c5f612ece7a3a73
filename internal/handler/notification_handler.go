package handler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"

	"github.com/kushabhinav13/notification-service/internal/domain"
	"github.com/kushabhinav13/notification-service/internal/repository"
	"github.com/kushabhinav13/notification-service/internal/service"
)

const (
	defaultPage     = 1
	defaultPageSize = 50
	maxPageSize     = 100
)

type NotificationService interface {
	Create(ctx context.Context, input service.CreateNotificationInput) (*domain.Notification, error)
	GetByID(ctx context.Context, id string) (*domain.Notification, error)
	ListByUser(ctx context.Context, params repository.ListByUserParams) ([]domain.Notification, int64, error)
	ListAttempts(ctx context.Context, notificationID string) ([]domain.DeliveryAttempt, error)
}

type NotificationHandler struct {
	service NotificationService
}

func NewNotificationHandler(service NotificationService) (*NotificationHandler, error) {
	if service == nil {
		return nil, fmt.Errorf("notification service is required")
	}
	return &NotificationHandler{service: service}, nil
}

func RegisterNotificationRoutes(router fiber.Router, service NotificationService) error {
	h, err := NewNotificationHandler(service)
	if err != nil {
		return err
	}

	v1 := router.Group("/v1")
	v1.Post("/notifications", h.CreateNotification)
	v1.Get("/notifications/:id", h.GetNotification)
	v1.Get("/notifications/:id/attempts", h.ListAttempts)
	v1.Get("/users/:userId/notifications", h.ListUserNotifications)

	return nil
}

type createNotificationRequest struct {
	UserID  string `json:"userId"`
	Channel string `json:"channel"`
	Content string `json:"content"`
}

type notificationResponse struct {
	ID           string    `json:"id"`
	UserID       string    `json:"userId"`
	Channel      string    `json:"channel"`
	Content      string    `json:"content"`
	Status       string    `json:"status"`
	AttemptCount int       `json:"attemptCount"`
	LastError    *string   `json:"lastError,omitempty"`
	CreatedAt    time.Time `json:"createdAt"`
	UpdatedAt    time.Time `json:"updatedAt"`
}

type listNotificationsResponse struct {
	Data []notificationResponse `json:"data"`
	Meta listMeta               `json:"meta"`
}

type listMeta struct {
	Page     int   `json:"page"`
	PageSize int   `json:"pageSize"`
	Total    int64 `json:"total"`
}

type attemptResponse struct {
	AttemptNumber int       `json:"attemptNumber"`
	StatusCode    *int      `json:"statusCode,omitempty"`
	Error         *string   `json:"error,omitempty"`
	CreatedAt     time.Time `json:"createdAt"`
}

func (h *NotificationHandler) CreateNotification(c *fiber.Ctx) error {
	var req createNotificationRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}

	created, err := h.service.Create(c.Context(), service.CreateNotificationInput{
		UserID:  req.UserID,
		Channel: req.Channel,
		Content: req.Content,
	})
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusAccepted).JSON(toNotificationResponse(created))
}

func (h *NotificationHandler) GetNotification(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	notification, err := h.service.GetByID(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(toNotificationResponse(notification))
}

func (h *NotificationHandler) ListAttempts(c *fiber.Ctx) error {
	id := strings.TrimSpace(c.Params("id"))
	attempts, err := h.service.ListAttempts(c.Context(), id)
	if err != nil {
		return toHTTPError(err)
	}

	items := make([]attemptResponse, 0, len(attempts))
	for _, attempt := range attempts {
		items = append(items, attemptResponse{
			AttemptNumber: attempt.AttemptNumber,
			StatusCode:    attempt.StatusCode,
			Error:         attempt.Error,
			CreatedAt:     attempt.CreatedAt,
		})
	}

	return c.Status(fiber.StatusOK).JSON(fiber.Map{"data": items})
}

func (h *NotificationHandler) ListUserNotifications(c *fiber.Ctx) error {
	params, err := parseListParams(c)
	if err != nil {
		return toHTTPError(err)
	}

	notifications, total, err := h.service.ListByUser(c.Context(), params)
	if err != nil {
		return toHTTPError(err)
	}

	return c.Status(fiber.StatusOK).JSON(listNotificationsResponse{
		Data: toNotificationResponses(notifications),
		Meta: listMeta{
			Page:     params.Page,
			PageSize: params.PageSize,
			Total:    total,
		},
	})
}

func parseListParams(c *fiber.Ctx) (repository.ListByUserParams, error) {
	params := repository.ListByUserParams{
		UserID:   strings.TrimSpace(c.Params("userId")),
		Page:     c.QueryInt("page", defaultPage),
		PageSize: c.QueryInt("pageSize", defaultPageSize),
	}

	if params.Page < 1 {
		return repository.ListByUserParams{}, fmt.Errorf("%w: page must be >= 1", domain.ErrValidation)
	}
	if params.PageSize < 1 || params.PageSize > maxPageSize {
		return repository.ListByUserParams{}, fmt.Errorf("%w: pageSize must be between 1 and %d", domain.ErrValidation, maxPageSize)
	}

	return params, nil
}

func toNotificationResponse(n *domain.Notification) notificationResponse {
	return notificationResponse{
		ID:           n.ID,
		UserID:       n.UserID,
		Channel:      n.Channel.String(),
		Content:      n.Content,
		Status:       n.Status.String(),
		AttemptCount: n.AttemptCount,
		LastError:    n.LastError,
		CreatedAt:    n.CreatedAt,
		UpdatedAt:    n.UpdatedAt,
	}
}

func toNotificationResponses(notifications []domain.Notification) []notificationResponse {
	responses := make([]notificationResponse, 0, len(notifications))
	for i := range notifications {
		responses = append(responses, toNotificationResponse(&notifications[i]))
	}
	return responses
}

func toHTTPError(err error) error {
	switch {
	case errors.Is(err, domain.ErrValidation):
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	case errors.Is(err, domain.ErrNotFound):
		return fiber.NewError(fiber.StatusNotFound, err.Error())
	case errors.Is(err, domain.ErrQueueUnavailable):
		return fiber.NewError(fiber.StatusServiceUnavailable, err.Error())
	default:
		return err
	}
}
