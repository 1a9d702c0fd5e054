package notify

import (
	"context"
	"errors"
	"fmt"
	"time"

	mqtt "github.com/eclipse/paho.mqtt.golang"

	"chvcore/pkg/domain"
)

var _ domain.Notifier = (*MQTTNotifier)(nil)

const (
	defaultMQTTPrefix  = "chv/alerts"
	defaultMQTTTimeout = 10 * time.Second
	mqttQoS            = byte(1)
)

// publisher is the subset of mqtt.Client used to publish.
type publisher interface {
	Publish(topic string, qos byte, retained bool, payload interface{}) mqtt.Token
}

// MQTTConfig configures the broker connection.
type MQTTConfig struct {
	Broker      string
	ClientID    string
	Username    string
	Password    string
	TopicPrefix string
}

// MQTTNotifier publishes each notification with QoS 1 to
// <prefix>/<tier>/<kind>.
type MQTTNotifier struct {
	client  publisher
	prefix  string
	timeout time.Duration
	close   func()
}

// DialMQTT connects to the broker and returns a notifier bound to it.
func DialMQTT(cfg MQTTConfig) (*MQTTNotifier, error) {
	if cfg.Broker == "" {
		return nil, errors.New("mqtt broker is required")
	}
	opts := mqtt.NewClientOptions()
	opts.AddBroker(cfg.Broker)
	clientID := cfg.ClientID
	if clientID == "" {
		clientID = "chvcore"
	}
	opts.SetClientID(clientID)
	if cfg.Username != "" {
		opts.SetUsername(cfg.Username)
	}
	if cfg.Password != "" {
		opts.SetPassword(cfg.Password)
	}
	opts.SetAutoReconnect(true)
	opts.SetCleanSession(true)

	client := mqtt.NewClient(opts)
	if token := client.Connect(); token.Wait() && token.Error() != nil {
		return nil, fmt.Errorf("failed to connect to MQTT broker: %w", token.Error())
	}
	n := NewMQTTNotifier(client, cfg.TopicPrefix)
	n.close = func() { client.Disconnect(250) }
	return n, nil
}

// NewMQTTNotifier wraps an already connected client.
func NewMQTTNotifier(client publisher, topicPrefix string) *MQTTNotifier {
	if topicPrefix == "" {
		topicPrefix = defaultMQTTPrefix
	}
	return &MQTTNotifier{client: client, prefix: topicPrefix, timeout: defaultMQTTTimeout}
}

// Notify publishes the notification and waits for the broker acknowledgement
// or the context deadline, whichever comes first.
func (m *MQTTNotifier) Notify(ctx context.Context, tier domain.Tier, n domain.Notification) error {
	payload, err := encode(tier, n, utcNow())
	if err != nil {
		return err
	}
	topic := topicFor(m.prefix, "/", tier, n.Kind)
	token := m.client.Publish(topic, mqttQoS, false, payload)
	timer := time.NewTimer(m.timeout)
	defer timer.Stop()
	select {
	case <-token.Done():
	case <-ctx.Done():
		return fmt.Errorf("publish to topic %s: %w", topic, ctx.Err())
	case <-timer.C:
		return fmt.Errorf("publish to topic %s: timed out after %s", topic, m.timeout)
	}
	if err := token.Error(); err != nil {
		return fmt.Errorf("failed to publish to topic %s: %w", topic, err)
	}
	return nil
}

// Close disconnects from the broker when the notifier owns the connection.
func (m *MQTTNotifier) Close() error {
	if m.close != nil {
		m.close()
	}
	return nil
}
