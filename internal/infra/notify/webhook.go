package notify

import (
	"context"
	"fmt"
	"time"

	"github.com/go-resty/resty/v2"

	"chvcore/pkg/domain"
)

var _ domain.Notifier = (*WebhookNotifier)(nil)

// WebhookConfig maps each tier to the URL receiving its notifications.
type WebhookConfig struct {
	Facility string
	District string
	National string
	Timeout  time.Duration
}

func (c WebhookConfig) urlFor(tier domain.Tier) string {
	switch tier {
	case domain.TierFacility:
		return c.Facility
	case domain.TierDistrict:
		return c.District
	case domain.TierNational:
		return c.National
	default:
		return ""
	}
}

// WebhookNotifier POSTs the JSON envelope to the tier's URL. Retries are left
// to the receiving side; a failed POST is returned to the caller.
type WebhookNotifier struct {
	client *resty.Client
	cfg    WebhookConfig
}

// NewWebhookNotifier constructs a notifier with its own HTTP client.
func NewWebhookNotifier(cfg WebhookConfig) *WebhookNotifier {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	client := resty.New().
		SetTimeout(timeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json")
	return &WebhookNotifier{client: client, cfg: cfg}
}

// Notify posts the notification. Any non-2xx response is an error.
func (w *WebhookNotifier) Notify(ctx context.Context, tier domain.Tier, n domain.Notification) error {
	url := w.cfg.urlFor(tier)
	if url == "" {
		return fmt.Errorf("no webhook configured for tier %s", tier)
	}
	payload, err := encode(tier, n, utcNow())
	if err != nil {
		return err
	}
	resp, err := w.client.R().
		SetContext(ctx).
		SetHeader("X-CHV-Tier", string(tier)).
		SetBody(payload).
		Post(url)
	if err != nil {
		return fmt.Errorf("post %s webhook: %w", tier, err)
	}
	if resp.IsError() {
		return fmt.Errorf("post %s webhook: unexpected status %d", tier, resp.StatusCode())
	}
	return nil
}
