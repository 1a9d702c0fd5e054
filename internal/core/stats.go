package core

import (
	"time"

	"chvcore/pkg/domain"
)

// ancLookahead is the window in which a scheduled ANC visit counts as upcoming.
const ancLookahead = 7 * 24 * time.Hour

// WorkerStats aggregates a worker's caseload.
type WorkerStats struct {
	TotalHouseholds     int `json:"totalHouseholds"`
	PregnantWomen       int `json:"pregnantWomen"`
	ChildrenUnder5      int `json:"childrenUnder5"`
	OverdueVaccinations int `json:"overdueVaccinations"`
	UpcomingANC         int `json:"upcomingANC"`
	HazardReports       int `json:"hazardReports"`
	DiseaseReports      int `json:"diseaseReports"`
}

// Stats computes caseload counters for workerID. Mothers and children count
// through their household's owner. Child ages are recomputed from the date of
// birth at query time.
func (s *Service) Stats(workerID string) WorkerStats {
	s.mu.RLock()
	defer s.mu.RUnlock()
	now := s.now()
	owned := s.state.householdsOwnedBy(workerID)

	st := WorkerStats{TotalHouseholds: len(owned)}
	for _, m := range s.state.mothers {
		if _, ok := owned[m.HouseholdID]; !ok {
			continue
		}
		if m.Status == domain.MotherActive {
			st.PregnantWomen++
		}
		if m.NextANCDate != nil && !m.NextANCDate.After(now.Add(ancLookahead)) {
			st.UpcomingANC++
		}
	}
	for _, c := range s.state.children {
		if _, ok := owned[c.HouseholdID]; !ok {
			continue
		}
		if domain.IsUnder5(c.DateOfBirth, now) {
			st.ChildrenUnder5++
		}
		if c.VaccinationStatus == domain.VaccinationOverdue {
			st.OverdueVaccinations++
		}
	}
	for _, h := range s.state.hazards {
		if h.ReportedBy == workerID {
			st.HazardReports++
		}
	}
	for _, c := range s.state.cases {
		if c.ReportedBy == workerID {
			st.DiseaseReports++
		}
	}
	return st
}

func (s *memoryState) householdsOwnedBy(workerID string) map[string]struct{} {
	owned := make(map[string]struct{})
	for _, h := range s.households {
		if h.RegisteredBy == workerID {
			owned[h.ID] = struct{}{}
		}
	}
	return owned
}
