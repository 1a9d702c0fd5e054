// Package redis provides a persistence slot backed by Redis string keys.
package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"chvcore/pkg/domain"
)

// Compile-time contract assertion ensuring Slot satisfies the domain port.
var _ domain.PersistenceSlot = (*Slot)(nil)

const defaultPrefix = "chvcore:slot:"

// kv is the subset of the go-redis API the slot relies on.
type kv interface {
	Get(ctx context.Context, key string) *redis.StringCmd
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
}

// Slot stores each snapshot under a prefixed Redis key without expiry.
type Slot struct {
	client kv
	closer func() error
	prefix string
}

// Option configures a Slot.
type Option func(*Slot)

// WithPrefix overrides the key prefix.
func WithPrefix(prefix string) Option {
	return func(s *Slot) { s.prefix = prefix }
}

// Open parses url, connects and verifies the server with PING.
func Open(ctx context.Context, url string, opts ...Option) (*Slot, error) {
	if url == "" {
		return nil, errors.New("redis url is required")
	}
	options, err := redis.ParseURL(url)
	if err != nil {
		return nil, fmt.Errorf("parse redis URL: %w", err)
	}
	client := redis.NewClient(options)
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("redis ping failed: %w", err)
	}
	s := New(client, opts...)
	s.closer = client.Close
	return s, nil
}

// New wraps an existing client.
func New(client kv, opts ...Option) *Slot {
	s := &Slot{client: client, prefix: defaultPrefix}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Save writes blob under key.
func (s *Slot) Save(ctx context.Context, key string, blob []byte) error {
	if err := s.client.Set(ctx, s.prefix+key, blob, 0).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// Load returns the blob under key, or nil when absent.
func (s *Slot) Load(ctx context.Context, key string) ([]byte, error) {
	blob, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	return blob, nil
}

// Close closes the underlying connection when the slot owns it.
func (s *Slot) Close() error {
	if s.closer == nil {
		return nil
	}
	return s.closer()
}
