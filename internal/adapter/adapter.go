package adapter

import (
	"context"
	"fmt"

	"github.com/kushabhinav13/notification-service/internal/domain"
)

// Adapter is the outbound delivery port for a single channel.
type Adapter interface {
	Send(ctx context.Context, notification domain.Notification) (*SendResult, error)
}

// SendResult stores delivery call metadata for audit and persistence.
type SendResult struct {
	StatusCode int
	MessageID  string
}

// Registry resolves the adapter for a notification's channel.
type Registry struct {
	adapters map[domain.Channel]Adapter
}

func NewRegistry() *Registry {
	return &Registry{adapters: make(map[domain.Channel]Adapter)}
}

func (r *Registry) Register(channel domain.Channel, a Adapter) error {
	if r == nil {
		return fmt.Errorf("registry is not initialized")
	}
	if !channel.IsValid() {
		return fmt.Errorf("invalid channel %q", channel)
	}
	if a == nil {
		return fmt.Errorf("adapter for channel %q is required", channel)
	}

	r.adapters[channel] = a
	return nil
}

// For returns the adapter registered for channel, or nil when none exists.
func (r *Registry) For(channel domain.Channel) Adapter {
	if r == nil {
		return nil
	}
	return r.adapters[channel]
}
