package notify

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.uber.org/zap"

	"chvcore/pkg/domain"
)

// Driver names a notification transport.
type Driver string

const (
	DriverLog     Driver = "log"
	DriverMQTT    Driver = "mqtt"
	DriverKafka   Driver = "kafka"
	DriverWebhook Driver = "webhook"
)

// Options selects and configures a transport.
type Options struct {
	Driver       Driver
	MQTT         MQTTConfig
	KafkaBrokers string // comma separated
	KafkaPrefix  string
	Webhook      WebhookConfig
}

// Open builds the configured notifier. Every transport except log is paired
// with the log notifier so deliveries remain visible in the service log. The
// returned close function releases broker connections.
func Open(opts Options, logger *zap.Logger) (domain.Notifier, func() error, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logN := NewLogNotifier(logger)
	noop := func() error { return nil }

	driver := Driver(strings.ToLower(string(opts.Driver)))
	switch driver {
	case "", DriverLog:
		return logN, noop, nil
	case DriverMQTT:
		m, err := DialMQTT(opts.MQTT)
		if err != nil {
			return nil, nil, err
		}
		return Fanout(m, logN), m.Close, nil
	case DriverKafka:
		k, err := DialKafka(KafkaConfig{Brokers: splitList(opts.KafkaBrokers), TopicPrefix: opts.KafkaPrefix})
		if err != nil {
			return nil, nil, err
		}
		return Fanout(k, logN), k.Close, nil
	case DriverWebhook:
		cfg := opts.Webhook
		if cfg.Facility == "" && cfg.District == "" && cfg.National == "" {
			return nil, nil, errors.New("webhook notifier requires at least one tier url")
		}
		return Fanout(NewWebhookNotifier(cfg), logN), noop, nil
	default:
		return nil, nil, fmt.Errorf("unknown notify driver %s", opts.Driver)
	}
}

// Fanout delivers to every notifier in order and joins their errors. The
// first notifier is the primary transport; the rest always receive the
// notification even when an earlier one fails.
func Fanout(notifiers ...domain.Notifier) domain.Notifier {
	return domain.NotifierFunc(func(ctx context.Context, tier domain.Tier, n domain.Notification) error {
		var errs []error
		for _, nt := range notifiers {
			if err := nt.Notify(ctx, tier, n); err != nil {
				errs = append(errs, err)
			}
		}
		return errors.Join(errs...)
	})
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
