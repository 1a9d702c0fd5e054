package core

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"go.uber.org/zap"

	"chvcore/pkg/domain"
)

// SlotKey returns the persistence slot key snapshots are written under.
func (s *Service) SlotKey() string { return s.slotKey }

// ExportState returns a point-in-time copy of the repository including the
// sequence counters.
func (s *Service) ExportState() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	snap := snapshotFromMemoryState(s.state)
	snap.Sequences = s.seq.Counters()
	return snap
}

// ImportState replaces every collection with the snapshot contents. Sequence
// counters are restored from the snapshot or, when it carries none, rebuilt
// from the highest display id per scope.
func (s *Service) ImportState(snap Snapshot) {
	state := memoryStateFromSnapshot(snap)
	seq := NewSequenceAllocator()
	if len(snap.Sequences) > 0 {
		seq.Restore(snap.Sequences)
	}
	for _, h := range state.households {
		seq.Observe(domain.EntityHousehold, h.HouseholdID)
	}
	for _, m := range state.mothers {
		seq.Observe(domain.EntityMother, m.MotherID)
	}
	for _, c := range state.children {
		seq.Observe(domain.EntityChild, c.ChildID)
	}
	for _, c := range state.cases {
		seq.Observe(domain.EntityDiseaseCase, c.CaseID)
	}
	s.mu.Lock()
	s.state = state
	s.seq = seq
	s.loadErr = nil
	s.mu.Unlock()
}

// LastSync returns the time of the last successful save or loaded snapshot.
func (s *Service) LastSync() (time.Time, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.state.lastSync == nil {
		return time.Time{}, false
	}
	return *s.state.lastSync, true
}

// SaveSnapshot serialises the repository into the persistence slot. Failures
// are logged and returned; the in-memory state stays authoritative.
func (s *Service) SaveSnapshot(ctx context.Context) error {
	if s.slot == nil {
		s.logger.Debug("no persistence slot configured, skipping snapshot save")
		return nil
	}
	s.mu.RLock()
	loadErr := s.loadErr
	s.mu.RUnlock()
	if loadErr != nil {
		err := fmt.Errorf("refusing to overwrite unreadable snapshot %s: %w", s.slotKey, loadErr)
		s.metrics.IncrementSnapshot("save", err)
		s.logger.Error("snapshot save refused", zap.String("key", s.slotKey), zap.Error(loadErr))
		return err
	}
	start := time.Now()
	snap := s.ExportState()
	syncedAt := s.now()
	snap.LastSync = syncedAt
	err := s.writeSnapshot(ctx, snap)
	s.metrics.IncrementSnapshot("save", err)
	s.metrics.ObserveSnapshotLatency(time.Since(start))
	if err != nil {
		s.logger.Error("snapshot save failed", zap.String("key", s.slotKey), zap.Error(err))
		return err
	}
	s.mu.Lock()
	s.state.lastSync = &syncedAt
	s.mu.Unlock()
	s.logger.Info("snapshot saved",
		zap.String("key", s.slotKey),
		zap.Int("households", len(snap.Households)),
		zap.Int("disease_cases", len(snap.DiseaseCases)))
	return nil
}

func (s *Service) writeSnapshot(ctx context.Context, snap Snapshot) error {
	payload, err := json.Marshal(snap)
	if err != nil {
		return fmt.Errorf("encode snapshot: %w", err)
	}
	if err := s.slot.Save(ctx, s.slotKey, payload); err != nil {
		return fmt.Errorf("save snapshot %s: %w", s.slotKey, err)
	}
	return nil
}

// LoadSnapshot replaces the repository contents with the stored snapshot.
// An absent snapshot leaves the repository untouched. Failures are logged and
// returned.
func (s *Service) LoadSnapshot(ctx context.Context) error {
	if s.slot == nil {
		return nil
	}
	snap, found, err := s.readSnapshot(ctx)
	s.metrics.IncrementSnapshot("load", err)
	if err != nil {
		s.mu.Lock()
		s.loadErr = err
		s.mu.Unlock()
		s.logger.Error("snapshot load failed", zap.String("key", s.slotKey), zap.Error(err))
		return err
	}
	if !found {
		s.mu.Lock()
		s.loadErr = nil
		s.mu.Unlock()
		s.logger.Info("no snapshot found", zap.String("key", s.slotKey))
		return nil
	}
	s.ImportState(snap)
	s.logger.Info("snapshot loaded",
		zap.String("key", s.slotKey),
		zap.Int("households", len(snap.Households)),
		zap.Int("mothers", len(snap.Mothers)),
		zap.Int("children", len(snap.Children)),
		zap.Int("hazards", len(snap.Hazards)),
		zap.Int("disease_cases", len(snap.DiseaseCases)))
	return nil
}

func (s *Service) readSnapshot(ctx context.Context) (Snapshot, bool, error) {
	payload, err := s.slot.Load(ctx, s.slotKey)
	if err != nil {
		return Snapshot{}, false, fmt.Errorf("load snapshot %s: %w", s.slotKey, err)
	}
	if len(payload) == 0 {
		return Snapshot{}, false, nil
	}
	var snap Snapshot
	if err := json.Unmarshal(payload, &snap); err != nil {
		return Snapshot{}, false, fmt.Errorf("decode snapshot %s: %w", s.slotKey, err)
	}
	return snap, true, nil
}

// OnConnectivityRestored performs an opportunistic save when the device comes
// back online.
func (s *Service) OnConnectivityRestored(ctx context.Context) error {
	s.logger.Info("connectivity restored, saving snapshot")
	return s.SaveSnapshot(ctx)
}
