// Package memory provides an in-memory persistence slot used for tests and
// ephemeral environments.
package memory

import (
	"context"
	"sync"

	"chvcore/pkg/domain"
)

// Compile-time contract assertion ensuring Slot satisfies the domain port.
var _ domain.PersistenceSlot = (*Slot)(nil)

// Slot keeps one blob per key in process memory.
type Slot struct {
	mu    sync.RWMutex
	blobs map[string][]byte
}

// NewSlot constructs an empty in-memory slot.
func NewSlot() *Slot {
	return &Slot{blobs: make(map[string][]byte)}
}

// Save stores a copy of blob under key.
func (s *Slot) Save(ctx context.Context, key string, blob []byte) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.blobs[key] = append([]byte(nil), blob...)
	return nil
}

// Load returns a copy of the blob under key, or nil when absent.
func (s *Slot) Load(ctx context.Context, key string) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	blob, ok := s.blobs[key]
	if !ok {
		return nil, nil
	}
	return append([]byte(nil), blob...), nil
}
