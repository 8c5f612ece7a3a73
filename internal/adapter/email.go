package adapter

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/kushabhinav13/notification-service/internal/domain"
)

type emailRequest struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// EmailAdapter delivers EMAIL notifications through an HTTP email gateway.
type EmailAdapter struct {
	gateway *gatewayClient
}

func NewEmailAdapter(endpoint string) (*EmailAdapter, error) {
	return NewEmailAdapterWithClient(endpoint, resty.New())
}

func NewEmailAdapterWithClient(endpoint string, client *resty.Client) (*EmailAdapter, error) {
	gateway, err := newGatewayClient(endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("email adapter: %w", err)
	}
	return &EmailAdapter{gateway: gateway}, nil
}

func (a *EmailAdapter) Send(ctx context.Context, notification domain.Notification) (*SendResult, error) {
	if a == nil || a.gateway == nil {
		return nil, fmt.Errorf("email adapter is not initialized")
	}

	return a.gateway.post(ctx, emailRequest{
		To:   notification.UserID,
		Body: notification.Content,
	})
}
