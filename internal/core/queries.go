package core

import (
	"sort"
	"strings"

	"chvcore/pkg/domain"
)

// Household returns the household with the given internal id.
func (s *Service) Household(id string) (Household, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	idx := s.state.findHousehold(id)
	if idx < 0 {
		return Household{}, domain.ErrNotFound{Entity: domain.EntityHousehold, ID: id}
	}
	return cloneHousehold(s.state.households[idx]), nil
}

// HouseholdsByWorker lists households registered by workerID, newest first.
func (s *Service) HouseholdsByWorker(workerID string) []Household {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Household, 0)
	for _, h := range s.state.households {
		if h.RegisteredBy == workerID {
			out = append(out, cloneHousehold(h))
		}
	}
	sortHouseholds(out)
	return out
}

// Mothers lists every mother, newest first.
func (s *Service) Mothers() []Mother {
	return s.mothersWhere(func(Mother) bool { return true })
}

// MothersByHousehold lists the mothers attached to a household, newest first.
func (s *Service) MothersByHousehold(householdID string) []Mother {
	return s.mothersWhere(func(m Mother) bool { return m.HouseholdID == householdID })
}

func (s *Service) mothersWhere(keep func(Mother) bool) []Mother {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Mother, 0)
	for _, m := range s.state.mothers {
		if keep(m) {
			out = append(out, cloneMother(m))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	return out
}

// Children lists every child, newest first.
func (s *Service) Children() []Child {
	return s.childrenWhere(func(Child) bool { return true })
}

// ChildrenByHousehold lists the children attached to a household, newest first.
func (s *Service) ChildrenByHousehold(householdID string) []Child {
	return s.childrenWhere(func(c Child) bool { return c.HouseholdID == householdID })
}

func (s *Service) childrenWhere(keep func(Child) bool) []Child {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Child, 0)
	for _, c := range s.state.children {
		if keep(c) {
			out = append(out, cloneChild(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].RegisteredAt.After(out[j].RegisteredAt) })
	return out
}

// HazardsByLocation lists hazards whose address contains substr, newest first.
// An empty substr matches every hazard.
func (s *Service) HazardsByLocation(substr string) []Hazard {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]Hazard, 0)
	for _, h := range s.state.hazards {
		if strings.Contains(h.Location.Address, substr) {
			out = append(out, cloneHazard(h))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	return out
}

// DiseaseCasesByLocation lists disease cases whose address contains substr,
// newest first. An empty substr matches every case.
func (s *Service) DiseaseCasesByLocation(substr string) []DiseaseCase {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]DiseaseCase, 0)
	for _, c := range s.state.cases {
		if strings.Contains(c.Location.Address, substr) {
			out = append(out, cloneDiseaseCase(c))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].ReportedAt.After(out[j].ReportedAt) })
	return out
}

// HouseholdSummary groups a household with its mothers and children.
type HouseholdSummary struct {
	Household Household `json:"household"`
	Mothers   []Mother  `json:"mothers"`
	Children  []Child   `json:"children"`
}

// Summary returns the household together with its dependants.
func (s *Service) Summary(householdID string) (HouseholdSummary, error) {
	h, err := s.Household(householdID)
	if err != nil {
		return HouseholdSummary{}, err
	}
	return HouseholdSummary{
		Household: h,
		Mothers:   s.MothersByHousehold(householdID),
		Children:  s.ChildrenByHousehold(householdID),
	}, nil
}

func sortHouseholds(hs []Household) {
	sort.SliceStable(hs, func(i, j int) bool { return hs[i].RegisteredAt.After(hs[j].RegisteredAt) })
}
