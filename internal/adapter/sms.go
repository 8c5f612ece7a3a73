package adapter

import (
	"context"
	"fmt"

	"github.com/go-resty/resty/v2"
	"github.com/kushabhinav13/notification-service/internal/domain"
)

type smsRequest struct {
	To      string `json:"to"`
	Message string `json:"message"`
}

// SMSAdapter delivers SMS notifications through an HTTP SMS gateway.
type SMSAdapter struct {
	gateway *gatewayClient
}

func NewSMSAdapter(endpoint string) (*SMSAdapter, error) {
	return NewSMSAdapterWithClient(endpoint, resty.New())
}

func NewSMSAdapterWithClient(endpoint string, client *resty.Client) (*SMSAdapter, error) {
	gateway, err := newGatewayClient(endpoint, client)
	if err != nil {
		return nil, fmt.Errorf("sms adapter: %w", err)
	}
	return &SMSAdapter{gateway: gateway}, nil
}

func (a *SMSAdapter) Send(ctx context.Context, notification domain.Notification) (*SendResult, error) {
	if a == nil || a.gateway == nil {
		return nil, fmt.Errorf("sms adapter is not initialized")
	}

	return a.gateway.post(ctx, smsRequest{
		To:      notification.UserID,
		Message: notification.Content,
	})
}
