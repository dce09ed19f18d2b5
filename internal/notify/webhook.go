package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	domain "github.com/oshokin/thermal-monitor/internal/domain/alarm"
	"github.com/oshokin/thermal-monitor/internal/version"
)

// eventPayload is the JSON document sent by the webhook and MQTT channels.
type eventPayload struct {
	domain.Event

	// Message is the human readable summary.
	Message string `json:"message"`
}

// Webhook posts events as JSON to a URL.
type Webhook struct {
	// url receives the POST requests.
	url string
	// client is the shared HTTP client with retries.
	client *resty.Client
}

// NewWebhook creates a webhook channel.
func NewWebhook(url string, timeout time.Duration) *Webhook {
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(2).
		SetRetryWaitTime(500*time.Millisecond).
		SetRetryMaxWaitTime(2*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("User-Agent", version.UserAgent())

	return &Webhook{
		url:    url,
		client: client,
	}
}

// Name implements Channel.
func (w *Webhook) Name() string {
	return "webhook"
}

// Send implements Channel.
func (w *Webhook) Send(ctx context.Context, event domain.Event) error {
	resp, err := w.client.R().
		SetContext(ctx).
		SetBody(eventPayload{Event: event, Message: Summary(event)}).
		Post(w.url)
	if err != nil {
		return fmt.Errorf("post webhook: %w", err)
	}

	if resp.IsError() {
		return fmt.Errorf("%w: webhook responded %d", ErrDelivery, resp.StatusCode())
	}

	return nil
}
