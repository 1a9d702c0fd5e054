// Package notify delivers escalation notifications to facility, district and
// national tiers over log, MQTT, Kafka or HTTP webhooks.
package notify

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"chvcore/pkg/domain"
)

// Envelope is the wire payload published for every notification.
type Envelope struct {
	Tier         domain.Tier         `json:"tier"`
	SentAt       time.Time           `json:"sentAt"`
	Notification domain.Notification `json:"notification"`
}

func encode(tier domain.Tier, n domain.Notification, now time.Time) ([]byte, error) {
	b, err := json.Marshal(Envelope{Tier: tier, SentAt: now, Notification: n})
	if err != nil {
		return nil, fmt.Errorf("encode notification %s: %w", n.ReportID, err)
	}
	return b, nil
}

// topicFor joins prefix, tier and report kind, e.g. "chv/alerts/district/disease_case".
func topicFor(prefix, sep string, tier domain.Tier, kind domain.ReportKind) string {
	parts := make([]string, 0, 3)
	if p := strings.TrimSuffix(prefix, sep); p != "" {
		parts = append(parts, p)
	}
	parts = append(parts, string(tier), string(kind))
	return strings.Join(parts, sep)
}

func utcNow() time.Time { return time.Now().UTC() }
