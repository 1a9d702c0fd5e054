// Package config loads chvcore settings from defaults, an optional config
// file and CHVCORE_* environment variables, in increasing precedence.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// EnvPrefix is prepended to every environment variable, e.g.
// CHVCORE_SLOT_DRIVER for slot.driver.
const EnvPrefix = "CHVCORE"

type Config struct {
	HTTP     HTTPConfig     `mapstructure:"http"`
	Log      LogConfig      `mapstructure:"log"`
	Slot     SlotConfig     `mapstructure:"slot"`
	SQLite   SQLiteConfig   `mapstructure:"sqlite"`
	Postgres PostgresConfig `mapstructure:"postgres"`
	Redis    RedisConfig    `mapstructure:"redis"`
	Blob     BlobConfig     `mapstructure:"blob"`
	Notify   NotifyConfig   `mapstructure:"notify"`
	Export   ExportConfig   `mapstructure:"export"`
	Autosave AutosaveConfig `mapstructure:"autosave"`
}

type HTTPConfig struct {
	Addr            string        `mapstructure:"addr"`
	ShutdownTimeout time.Duration `mapstructure:"shutdown_timeout"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}

type SlotConfig struct {
	Driver string `mapstructure:"driver"`
	Key    string `mapstructure:"key"`
}

type SQLiteConfig struct {
	Path string `mapstructure:"path"`
}

type PostgresConfig struct {
	DSN string `mapstructure:"dsn"`
}

type RedisConfig struct {
	URL string `mapstructure:"url"`
}

type BlobConfig struct {
	Driver string   `mapstructure:"driver"`
	FSRoot string   `mapstructure:"fs_root"`
	S3     S3Config `mapstructure:"s3"`
}

type S3Config struct {
	Bucket          string `mapstructure:"bucket"`
	Region          string `mapstructure:"region"`
	Endpoint        string `mapstructure:"endpoint"`
	PathStyle       bool   `mapstructure:"path_style"`
	AccessKeyID     string `mapstructure:"access_key_id"`
	SecretAccessKey string `mapstructure:"secret_access_key"`
}

type NotifyConfig struct {
	Driver          string        `mapstructure:"driver"`
	DeliveryTimeout time.Duration `mapstructure:"delivery_timeout"`
	MQTT            MQTTConfig    `mapstructure:"mqtt"`
	Kafka           KafkaConfig   `mapstructure:"kafka"`
	Webhook         WebhookConfig `mapstructure:"webhook"`
}

type MQTTConfig struct {
	Broker      string `mapstructure:"broker"`
	ClientID    string `mapstructure:"client_id"`
	Username    string `mapstructure:"username"`
	Password    string `mapstructure:"password"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type KafkaConfig struct {
	// Brokers is a comma separated seed list.
	Brokers     string `mapstructure:"brokers"`
	TopicPrefix string `mapstructure:"topic_prefix"`
}

type WebhookConfig struct {
	Facility string        `mapstructure:"facility"`
	District string        `mapstructure:"district"`
	National string        `mapstructure:"national"`
	Timeout  time.Duration `mapstructure:"timeout"`
}

type ExportConfig struct {
	QueueSize     int           `mapstructure:"queue_size"`
	PresignExpiry time.Duration `mapstructure:"presign_expiry"`
}

type AutosaveConfig struct {
	// Schedule is a cron expression or descriptor. Empty disables autosave.
	Schedule string `mapstructure:"schedule"`
}

var defaults = map[string]any{
	"http.addr":                 ":8080",
	"http.shutdown_timeout":     "15s",
	"log.level":                 "info",
	"log.format":                "json",
	"slot.driver":               "sqlite",
	"slot.key":                  "chv_offline_data",
	"sqlite.path":               "chvcore.db",
	"postgres.dsn":              "",
	"redis.url":                 "",
	"blob.driver":               "fs",
	"blob.fs_root":              "./data/blobs",
	"blob.s3.bucket":            "",
	"blob.s3.region":            "",
	"blob.s3.endpoint":          "",
	"blob.s3.path_style":        false,
	"blob.s3.access_key_id":     "",
	"blob.s3.secret_access_key": "",
	"notify.driver":             "log",
	"notify.delivery_timeout":   "15s",
	"notify.mqtt.broker":        "",
	"notify.mqtt.client_id":     "chvcore",
	"notify.mqtt.username":      "",
	"notify.mqtt.password":      "",
	"notify.mqtt.topic_prefix":  "chv/alerts",
	"notify.kafka.brokers":      "",
	"notify.kafka.topic_prefix": "chv.alerts",
	"notify.webhook.facility":   "",
	"notify.webhook.district":   "",
	"notify.webhook.national":   "",
	"notify.webhook.timeout":    "10s",
	"export.queue_size":         32,
	"export.presign_expiry":     "15m",
	"autosave.schedule":         "@every 5m",
}

// Load reads configuration. A non-empty path must name a readable config
// file; otherwise chvcore.{yaml,json,toml} is looked up in the working
// directory and skipped when absent.
func Load(path string) (*Config, error) {
	v := viper.New()
	for key, value := range defaults {
		v.SetDefault(key, value)
	}
	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AllowEmptyEnv(true)
	v.AutomaticEnv()

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("read config %s: %w", path, err)
		}
	} else {
		v.SetConfigName("chvcore")
		v.AddConfigPath(".")
		if err := v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("read config: %w", err)
			}
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Validate checks that every selected driver has the settings it needs.
func (c *Config) Validate() error {
	var errs []error
	switch c.Slot.Driver {
	case "memory", "blob":
	case "sqlite":
		if c.SQLite.Path == "" {
			errs = append(errs, errors.New("sqlite.path is required for the sqlite slot"))
		}
	case "postgres":
		if c.Postgres.DSN == "" {
			errs = append(errs, errors.New("postgres.dsn is required for the postgres slot"))
		}
	case "redis":
		if c.Redis.URL == "" {
			errs = append(errs, errors.New("redis.url is required for the redis slot"))
		}
	default:
		errs = append(errs, fmt.Errorf("slot.driver must be memory, sqlite, postgres, redis or blob, got %q", c.Slot.Driver))
	}

	switch c.Blob.Driver {
	case "fs", "memory":
	case "s3":
		if c.Blob.S3.Bucket == "" {
			errs = append(errs, errors.New("blob.s3.bucket is required for the s3 blob driver"))
		}
	default:
		errs = append(errs, fmt.Errorf("blob.driver must be fs, s3 or memory, got %q", c.Blob.Driver))
	}

	switch c.Notify.Driver {
	case "log":
	case "mqtt":
		if c.Notify.MQTT.Broker == "" {
			errs = append(errs, errors.New("notify.mqtt.broker is required for the mqtt notifier"))
		}
	case "kafka":
		if strings.TrimSpace(c.Notify.Kafka.Brokers) == "" {
			errs = append(errs, errors.New("notify.kafka.brokers is required for the kafka notifier"))
		}
	case "webhook":
		w := c.Notify.Webhook
		if w.Facility == "" && w.District == "" && w.National == "" {
			errs = append(errs, errors.New("notify.webhook needs at least one tier url"))
		}
	default:
		errs = append(errs, fmt.Errorf("notify.driver must be log, mqtt, kafka or webhook, got %q", c.Notify.Driver))
	}

	if c.Export.QueueSize <= 0 {
		errs = append(errs, fmt.Errorf("export.queue_size must be positive, got %d", c.Export.QueueSize))
	}
	return errors.Join(errs...)
}
