package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/twmb/franz-go/pkg/kgo"

	"chvcore/pkg/domain"
)

var _ domain.Notifier = (*KafkaNotifier)(nil)

const (
	defaultKafkaPrefix  = "chv.alerts"
	defaultKafkaTimeout = 10 * time.Second
)

// producer is the subset of *kgo.Client used to publish.
type producer interface {
	ProduceSync(ctx context.Context, rs ...*kgo.Record) kgo.ProduceResults
}

// KafkaConfig configures the producer.
type KafkaConfig struct {
	Brokers     []string
	TopicPrefix string
}

// KafkaNotifier produces each notification to <prefix>.<tier>.<kind>, keyed
// by report id so every tier's copy of a report lands in order.
type KafkaNotifier struct {
	client  producer
	prefix  string
	timeout time.Duration
	close   func()
}

// DialKafka creates a franz-go client for the seed brokers.
func DialKafka(cfg KafkaConfig) (*KafkaNotifier, error) {
	if len(cfg.Brokers) == 0 {
		return nil, errors.New("kafka brokers are required")
	}
	client, err := kgo.NewClient(
		kgo.SeedBrokers(cfg.Brokers...),
		kgo.AllowAutoTopicCreation(),
		kgo.RecordDeliveryTimeout(defaultKafkaTimeout),
	)
	if err != nil {
		return nil, fmt.Errorf("create kafka client: %w", err)
	}
	n := NewKafkaNotifier(client, cfg.TopicPrefix)
	n.close = client.Close
	return n, nil
}

// NewKafkaNotifier wraps an existing producer.
func NewKafkaNotifier(client producer, topicPrefix string) *KafkaNotifier {
	if topicPrefix == "" {
		topicPrefix = defaultKafkaPrefix
	}
	return &KafkaNotifier{client: client, prefix: topicPrefix, timeout: defaultKafkaTimeout}
}

// Notify produces the notification synchronously. An unreachable broker
// fails the call once the produce timeout elapses.
func (k *KafkaNotifier) Notify(ctx context.Context, tier domain.Tier, n domain.Notification) error {
	ctx, cancel := context.WithTimeout(ctx, k.timeout)
	defer cancel()
	payload, err := encode(tier, n, utcNow())
	if err != nil {
		return err
	}
	rec := &kgo.Record{
		Topic: topicFor(k.prefix, ".", tier, n.Kind),
		Key:   []byte(n.ReportID),
		Value: payload,
		Headers: []kgo.RecordHeader{
			{Key: "tier", Value: []byte(tier)},
			{Key: "severity", Value: []byte(n.Severity)},
		},
	}
	if err := k.client.ProduceSync(ctx, rec).FirstErr(); err != nil {
		return fmt.Errorf("produce to %s: %w", rec.Topic, err)
	}
	return nil
}

// Close flushes and closes the client when the notifier owns it.
func (k *KafkaNotifier) Close() error {
	if k.close != nil {
		k.close()
	}
	return nil
}
