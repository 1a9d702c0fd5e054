package blob

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"

	"chvcore/pkg/domain"
)

var _ domain.PersistenceSlot = (*Slot)(nil)

const snapshotPrefix = "snapshots"

// Slot stores snapshot blobs as objects under snapshots/<key>.json.
type Slot struct {
	store Store
}

// NewSlot adapts a blob store to the persistence slot port.
func NewSlot(store Store) *Slot {
	return &Slot{store: store}
}

func objectKey(key string) string {
	return path.Join(snapshotPrefix, key+".json")
}

// Save writes blob, replacing the previous snapshot.
func (s *Slot) Save(ctx context.Context, key string, blob []byte) error {
	if _, err := s.store.Put(ctx, objectKey(key), bytes.NewReader(blob), PutOptions{ContentType: "application/json"}); err != nil {
		return fmt.Errorf("store snapshot %s: %w", key, err)
	}
	return nil
}

// Load reads the snapshot, returning nil when none was saved.
func (s *Slot) Load(ctx context.Context, key string) ([]byte, error) {
	_, rc, err := s.store.Get(ctx, objectKey(key))
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("fetch snapshot %s: %w", key, err)
	}
	defer func() { _ = rc.Close() }()
	b, err := io.ReadAll(rc)
	if err != nil {
		return nil, fmt.Errorf("read snapshot %s: %w", key, err)
	}
	return b, nil
}
