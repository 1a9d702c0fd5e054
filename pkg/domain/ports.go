package domain

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// PersistenceSlot stores a single opaque blob per key. Load returns nil, nil
// when nothing has been saved under key.
type PersistenceSlot interface {
	Save(ctx context.Context, key string, blob []byte) error
	Load(ctx context.Context, key string) ([]byte, error)
}

// Tier is a notification recipient level.
type Tier string

// Notification tiers.
const (
	TierFacility Tier = "facility"
	TierDistrict Tier = "district"
	TierNational Tier = "national"
)

// ReportKind distinguishes the report types that escalate.
type ReportKind string

// Escalating report kinds.
const (
	ReportDiseaseCase ReportKind = "disease_case"
	ReportHazard      ReportKind = "hazard"
)

// Notification is the payload delivered to a tier.
type Notification struct {
	Kind       ReportKind      `json:"kind"`
	ReportID   string          `json:"reportId"`
	DisplayID  string          `json:"displayId,omitempty"`
	Level      EscalationLevel `json:"level"`
	Severity   string          `json:"severity"`
	Status     string          `json:"status"`
	Summary    string          `json:"summary"`
	ReportedBy string          `json:"reportedBy"`
	ReportedAt time.Time       `json:"reportedAt"`
	Report     any             `json:"report"`
}

// Notifier delivers a notification to one tier.
type Notifier interface {
	Notify(ctx context.Context, tier Tier, n Notification) error
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(ctx context.Context, tier Tier, n Notification) error

// Notify implements Notifier.
func (f NotifierFunc) Notify(ctx context.Context, tier Tier, n Notification) error {
	return f(ctx, tier, n)
}

// ErrNotFound is returned when a referenced record does not resolve.
type ErrNotFound struct {
	Entity EntityType
	ID     string
}

func (e ErrNotFound) Error() string {
	return fmt.Sprintf("%s %s not found", e.Entity, e.ID)
}

// IsNotFound reports whether err wraps an ErrNotFound.
func IsNotFound(err error) bool {
	var nf ErrNotFound
	return errors.As(err, &nf)
}
