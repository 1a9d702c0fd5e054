package core

import (
	"sort"
	"time"

	"chvcore/pkg/domain"
)

type (
	// Household aliases domain.Household.
	Household = domain.Household
	// Mother aliases domain.Mother.
	Mother = domain.Mother
	// Child aliases domain.Child.
	Child = domain.Child
	// Hazard aliases domain.Hazard.
	Hazard = domain.Hazard
	// DiseaseCase aliases domain.DiseaseCase.
	DiseaseCase = domain.DiseaseCase
)

// memoryState holds every collection most-recent-first.
type memoryState struct {
	households []Household
	mothers    []Mother
	children   []Child
	hazards    []Hazard
	cases      []DiseaseCase
	lastSync   *time.Time
}

// Snapshot is the serialised form of the repository written to the
// persistence slot.
type Snapshot struct {
	Households   []Household    `json:"households"`
	Mothers      []Mother       `json:"mothers"`
	Children     []Child        `json:"children"`
	Hazards      []Hazard       `json:"hazards"`
	DiseaseCases []DiseaseCase  `json:"diseaseCases"`
	Sequences    map[string]int `json:"sequences,omitempty"`
	LastSync     time.Time      `json:"lastSync"`
}

func snapshotFromMemoryState(state memoryState) Snapshot {
	s := Snapshot{
		Households:   make([]Household, 0, len(state.households)),
		Mothers:      make([]Mother, 0, len(state.mothers)),
		Children:     make([]Child, 0, len(state.children)),
		Hazards:      make([]Hazard, 0, len(state.hazards)),
		DiseaseCases: make([]DiseaseCase, 0, len(state.cases)),
	}
	for _, h := range state.households {
		s.Households = append(s.Households, cloneHousehold(h))
	}
	for _, m := range state.mothers {
		s.Mothers = append(s.Mothers, cloneMother(m))
	}
	for _, c := range state.children {
		s.Children = append(s.Children, cloneChild(c))
	}
	for _, h := range state.hazards {
		s.Hazards = append(s.Hazards, cloneHazard(h))
	}
	for _, c := range state.cases {
		s.DiseaseCases = append(s.DiseaseCases, cloneDiseaseCase(c))
	}
	if state.lastSync != nil {
		s.LastSync = *state.lastSync
	}
	return s
}

// memoryStateFromSnapshot rebuilds state from a snapshot, restoring the
// most-recent-first order in case the writer did not preserve it.
func memoryStateFromSnapshot(s Snapshot) memoryState {
	state := memoryState{
		households: make([]Household, 0, len(s.Households)),
		mothers:    make([]Mother, 0, len(s.Mothers)),
		children:   make([]Child, 0, len(s.Children)),
		hazards:    make([]Hazard, 0, len(s.Hazards)),
		cases:      make([]DiseaseCase, 0, len(s.DiseaseCases)),
	}
	for _, h := range s.Households {
		state.households = append(state.households, cloneHousehold(h))
	}
	for _, m := range s.Mothers {
		state.mothers = append(state.mothers, cloneMother(m))
	}
	for _, c := range s.Children {
		state.children = append(state.children, cloneChild(c))
	}
	for _, h := range s.Hazards {
		state.hazards = append(state.hazards, cloneHazard(h))
	}
	for _, c := range s.DiseaseCases {
		state.cases = append(state.cases, cloneDiseaseCase(c))
	}
	sort.SliceStable(state.households, func(i, j int) bool {
		return state.households[i].RegisteredAt.After(state.households[j].RegisteredAt)
	})
	sort.SliceStable(state.mothers, func(i, j int) bool {
		return state.mothers[i].RegisteredAt.After(state.mothers[j].RegisteredAt)
	})
	sort.SliceStable(state.children, func(i, j int) bool {
		return state.children[i].RegisteredAt.After(state.children[j].RegisteredAt)
	})
	sort.SliceStable(state.hazards, func(i, j int) bool {
		return state.hazards[i].ReportedAt.After(state.hazards[j].ReportedAt)
	})
	sort.SliceStable(state.cases, func(i, j int) bool {
		return state.cases[i].ReportedAt.After(state.cases[j].ReportedAt)
	})
	if !s.LastSync.IsZero() {
		ts := s.LastSync
		state.lastSync = &ts
	}
	return state
}

func (s *memoryState) findHousehold(id string) int {
	for i := range s.households {
		if s.households[i].ID == id {
			return i
		}
	}
	return -1
}

func prepend[T any](values []T, v T) []T {
	values = append(values, v)
	copy(values[1:], values[:len(values)-1])
	values[0] = v
	return values
}

func cloneStrings(values []string) []string {
	if values == nil {
		return nil
	}
	out := make([]string, len(values))
	copy(out, values)
	return out
}

func cloneTime(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	v := *t
	return &v
}

func cloneFloat(f *float64) *float64 {
	if f == nil {
		return nil
	}
	v := *f
	return &v
}

func cloneGPS(g *domain.GPS) *domain.GPS {
	if g == nil {
		return nil
	}
	v := *g
	return &v
}

func cloneHousehold(h Household) Household {
	h.Location.AdministrativeUnits = cloneStrings(h.Location.AdministrativeUnits)
	h.Location.GPSCoords = cloneGPS(h.Location.GPSCoords)
	h.VulnerableGroups = cloneStrings(h.VulnerableGroups)
	h.LastVisit = cloneTime(h.LastVisit)
	h.NextVisit = cloneTime(h.NextVisit)
	if h.EmergencyContact != nil {
		c := *h.EmergencyContact
		h.EmergencyContact = &c
	}
	return h
}

func cloneMother(m Mother) Mother {
	m.RiskFactors = cloneStrings(m.RiskFactors)
	m.NextANCDate = cloneTime(m.NextANCDate)
	return m
}

func cloneChild(c Child) Child {
	c.BirthWeight = cloneFloat(c.BirthWeight)
	c.CurrentWeight = cloneFloat(c.CurrentWeight)
	c.Height = cloneFloat(c.Height)
	c.NextVaccinationDue = cloneTime(c.NextVaccinationDue)
	if c.BirthDetails != nil {
		d := *c.BirthDetails
		d.Complications = cloneStrings(d.Complications)
		c.BirthDetails = &d
	}
	return c
}

func cloneHazard(h Hazard) Hazard {
	h.Location.AdministrativeUnits = cloneStrings(h.Location.AdministrativeUnits)
	h.ImmediateNeeds = cloneStrings(h.ImmediateNeeds)
	return h
}

func cloneDiseaseCase(c DiseaseCase) DiseaseCase {
	c.Symptoms = cloneStrings(c.Symptoms)
	c.Contacts = cloneStrings(c.Contacts)
	c.Location.AdministrativeUnits = cloneStrings(c.Location.AdministrativeUnits)
	c.Location.GPSCoords = cloneGPS(c.Location.GPSCoords)
	if c.PatientAge != nil {
		v := *c.PatientAge
		c.PatientAge = &v
	}
	return c
}
