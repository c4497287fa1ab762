package notify

import (
	"context"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// Event is the payload pushed to the operations dashboard webhook.
type Event struct {
	Kind       string                 `json:"kind"`
	ReportID   string                 `json:"report_id,omitempty"`
	Status     string                 `json:"status,omitempty"`
	OccurredAt time.Time              `json:"occurred_at"`
	Data       map[string]interface{} `json:"data,omitempty"`
}

// Notifier delivers events to interested collaborators.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// WebhookNotifier posts events to a configured URL. Delivery is best-effort:
// failures are logged and never propagate to the caller.
type WebhookNotifier struct {
	client *resty.Client
	url    string
	logger *zap.Logger
}

// NewWebhookNotifier constructs a notifier. An empty URL disables delivery.
func NewWebhookNotifier(url string, timeout time.Duration, logger *zap.Logger) *WebhookNotifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetRetryCount(1)
	return &WebhookNotifier{client: client, url: url, logger: logger}
}

// Notify posts the event. It never blocks the calling flow beyond the HTTP
// timeout and swallows all delivery errors.
func (n *WebhookNotifier) Notify(ctx context.Context, event Event) {
	if n == nil || n.url == "" {
		return
	}
	if event.OccurredAt.IsZero() {
		event.OccurredAt = time.Now().UTC()
	}
	resp, err := n.client.R().
		SetContext(ctx).
		SetHeader("Content-Type", "application/json").
		SetBody(event).
		Post(n.url)
	if err != nil {
		n.logger.Warn("webhook delivery failed", zap.String("kind", event.Kind), zap.Error(err))
		return
	}
	if resp.IsError() {
		n.logger.Warn("webhook rejected", zap.String("kind", event.Kind), zap.Int("status", resp.StatusCode()))
	}
}

// NopNotifier discards all events.
type NopNotifier struct{}

// Notify implements Notifier.
func (NopNotifier) Notify(context.Context, Event) {}
