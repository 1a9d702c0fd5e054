package core_test

import (
	"context"
	"sync"
	"testing"
	"time"

	"chvcore/internal/core"
	"chvcore/pkg/domain"
)

var baseTime = time.Date(2024, time.June, 1, 8, 0, 0, 0, time.UTC)

// stepClock returns baseTime and advances one minute per call so records
// created in sequence have distinct timestamps.
type stepClock struct {
	mu  sync.Mutex
	now time.Time
}

func newStepClock() *stepClock { return &stepClock{now: baseTime} }

func (c *stepClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	t := c.now
	c.now = c.now.Add(time.Minute)
	return t
}

type recordedNotification struct {
	Tier domain.Tier
	N    domain.Notification
}

type recordingNotifier struct {
	mu    sync.Mutex
	sent  []recordedNotification
	fails map[domain.Tier]error
}

func (r *recordingNotifier) Notify(_ context.Context, tier domain.Tier, n domain.Notification) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.sent = append(r.sent, recordedNotification{Tier: tier, N: n})
	return r.fails[tier]
}

func (r *recordingNotifier) tiers() []domain.Tier {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]domain.Tier, 0, len(r.sent))
	for _, s := range r.sent {
		out = append(out, s.Tier)
	}
	return out
}

var nairobiUnits = []string{"KE-13", "KE-13-09"}

func householdInput(name string) core.HouseholdInput {
	return core.HouseholdInput{
		HeadOfHousehold: domain.Contact{Name: name, Phone: "+254700000000"},
		Location: domain.Location{
			Country:             "KE",
			AdministrativeUnits: append([]string(nil), nairobiUnits...),
			Village:             "Kibera",
			GPSCoords:           &domain.GPS{Lat: -1.31, Lng: 36.78},
		},
		TotalMembers:    5,
		Adults:          2,
		Children:        3,
		PregnantWomen:   1,
		ChildrenUnder5:  2,
		InsuranceStatus: domain.InsuranceSHA,
		Status:          domain.HouseholdActive,
	}
}

func newTestService(t *testing.T, opts ...core.Option) *core.Service {
	t.Helper()
	clock := newStepClock()
	base := []core.Option{
		core.WithClock(clock.Now),
	}
	return core.NewService(append(base, opts...)...)
}

func mustHousehold(t *testing.T, svc *core.Service, worker string) core.Household {
	t.Helper()
	h, err := svc.AddHousehold(context.Background(), householdInput("Achieng Otieno"), worker)
	if err != nil {
		t.Fatalf("add household: %v", err)
	}
	return h
}
