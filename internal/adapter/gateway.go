package adapter

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
)

const defaultGatewayTimeout = 10 * time.Second

// gatewayClient posts JSON payloads to an HTTP delivery gateway and maps the
// response onto the transient/permanent error taxonomy. EmailAdapter and
// SMSAdapter share it; they differ only in endpoint and payload shape.
type gatewayClient struct {
	client   *resty.Client
	endpoint string
}

func newGatewayClient(endpoint string, client *resty.Client) (*gatewayClient, error) {
	trimmedEndpoint := strings.TrimSpace(endpoint)
	if trimmedEndpoint == "" {
		return nil, fmt.Errorf("gateway endpoint is required")
	}
	if _, err := url.ParseRequestURI(trimmedEndpoint); err != nil {
		return nil, fmt.Errorf("invalid gateway endpoint: %w", err)
	}
	if client == nil {
		client = resty.New()
	}

	if client.GetClient().Timeout == 0 {
		client.SetTimeout(defaultGatewayTimeout)
	}
	// Retries belong to the delivery pipeline, not the HTTP client.
	client.SetRetryCount(0)

	return &gatewayClient{
		client:   client,
		endpoint: trimmedEndpoint,
	}, nil
}

func (g *gatewayClient) post(ctx context.Context, body any) (*SendResult, error) {
	if g == nil || g.client == nil {
		return nil, fmt.Errorf("gateway client is not initialized")
	}

	response, err := g.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(body).
		Post(g.endpoint)
	if err != nil {
		return nil, &AdapterError{
			Message:   "gateway request failed",
			Transient: !errors.Is(err, context.Canceled),
			Cause:     err,
		}
	}
	if response == nil {
		return nil, &AdapterError{
			Message:   "gateway returned empty response",
			Transient: true,
		}
	}

	statusCode := response.StatusCode()
	if statusCode >= http.StatusOK && statusCode < http.StatusMultipleChoices {
		return &SendResult{
			StatusCode: statusCode,
			MessageID:  gatewayMessageID(response),
		}, nil
	}

	return nil, &AdapterError{
		StatusCode: statusCode,
		Message:    gatewayErrorMessage(statusCode, strings.TrimSpace(response.String())),
		Transient:  isTransientHTTPStatus(statusCode),
	}
}

func gatewayMessageID(response *resty.Response) string {
	if response == nil {
		return ""
	}

	for _, key := range []string{"X-Message-ID", "X-Message-Id", "X-Request-ID", "X-Request-Id"} {
		if value := strings.TrimSpace(response.Header().Get(key)); value != "" {
			return value
		}
	}

	return ""
}
