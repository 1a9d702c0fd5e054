package main

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"go.uber.org/zap"

	"chvcore/internal/blob"
	"chvcore/internal/config"
	"chvcore/internal/core"
	"chvcore/internal/infra/notify"
	"chvcore/pkg/domain"
)

// app holds the collaborators shared by every command.
type app struct {
	svc      *core.Service
	blobs    blob.Store
	registry *prometheus.Registry
	closers  []func() error
}

type buildOptions struct {
	// notifications opens the configured transport; one-shot commands never
	// raise escalations and skip broker connections.
	notifications bool
	// blobs opens the blob store even when the slot does not need it.
	blobs bool
}

func buildApp(ctx context.Context, cfg *config.Config, logger *zap.Logger, opts buildOptions) (*app, error) {
	a := &app{registry: prometheus.NewRegistry()}
	a.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	if opts.blobs || cfg.Slot.Driver == string(core.StorageBlob) {
		store, err := blob.Open(ctx, blobOptions(cfg))
		if err != nil {
			return nil, fmt.Errorf("open blob store: %w", err)
		}
		a.blobs = store
	}

	slot, err := core.OpenPersistenceSlot(ctx, storageOptions(cfg, a.blobs))
	if err != nil {
		return nil, fmt.Errorf("open persistence slot: %w", err)
	}
	if c, ok := slot.(io.Closer); ok {
		a.closers = append(a.closers, c.Close)
	}

	var notifier domain.Notifier
	if opts.notifications {
		n, closeNotifier, err := notify.Open(notifyOptions(cfg), logger)
		if err != nil {
			_ = a.Close()
			return nil, fmt.Errorf("open notifier: %w", err)
		}
		notifier = n
		a.closers = append(a.closers, closeNotifier)
	}

	svc, err := core.Open(ctx,
		core.WithLogger(logger.Named("core")),
		core.WithMetrics(core.NewMetrics(a.registry)),
		core.WithNotifier(notifier),
		core.WithSlot(slot, cfg.Slot.Key),
		core.WithDeliveryTimeout(cfg.Notify.DeliveryTimeout),
	)
	if err != nil {
		_ = a.Close()
		return nil, fmt.Errorf("load snapshot: %w", err)
	}
	a.svc = svc
	return a, nil
}

// Close releases connections in reverse order of opening.
func (a *app) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	a.closers = nil
	return errors.Join(errs...)
}

func storageOptions(cfg *config.Config, store blob.Store) core.StorageOptions {
	return core.StorageOptions{
		Driver:      core.StorageDriver(cfg.Slot.Driver),
		SQLitePath:  cfg.SQLite.Path,
		PostgresDSN: cfg.Postgres.DSN,
		RedisURL:    cfg.Redis.URL,
		Blob:        store,
	}
}

func blobOptions(cfg *config.Config) blob.Options {
	s3 := cfg.Blob.S3
	return blob.Options{
		Driver: blob.Driver(cfg.Blob.Driver),
		FSRoot: cfg.Blob.FSRoot,
		S3: blob.S3Config{
			Region:          s3.Region,
			Bucket:          s3.Bucket,
			Endpoint:        s3.Endpoint,
			AccessKeyID:     s3.AccessKeyID,
			SecretAccessKey: s3.SecretAccessKey,
			PathStyle:       s3.PathStyle,
		},
	}
}

func notifyOptions(cfg *config.Config) notify.Options {
	n := cfg.Notify
	return notify.Options{
		Driver: notify.Driver(n.Driver),
		MQTT: notify.MQTTConfig{
			Broker:      n.MQTT.Broker,
			ClientID:    n.MQTT.ClientID,
			Username:    n.MQTT.Username,
			Password:    n.MQTT.Password,
			TopicPrefix: n.MQTT.TopicPrefix,
		},
		KafkaBrokers: n.Kafka.Brokers,
		KafkaPrefix:  n.Kafka.TopicPrefix,
		Webhook: notify.WebhookConfig{
			Facility: n.Webhook.Facility,
			District: n.Webhook.District,
			National: n.Webhook.National,
			Timeout:  n.Webhook.Timeout,
		},
	}
}
