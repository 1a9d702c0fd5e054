package core

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"chvcore/pkg/domain"
)

// DefaultSlotKey is the persistence slot key used when none is configured.
const DefaultSlotKey = "chv_offline_data"

// defaultCaseAddress is recorded when a disease case arrives without an address.
const defaultCaseAddress = "Unknown location"

// Service is the CHV entity repository. It owns the in-memory collections,
// allocates display ids, derives computed fields and routes escalations.
type Service struct {
	mu      sync.RWMutex
	state   memoryState
	seq     *SequenceAllocator
	router  *Router
	slot    domain.PersistenceSlot
	slotKey string
	now     domain.Clock
	newID   func(domain.EntityType) string
	logger  *zap.Logger
	metrics *Metrics

	notifier        domain.Notifier
	deliveryTimeout time.Duration

	// loadErr is set while the stored snapshot is unreadable. Saves are
	// refused so the stored copy is not replaced by an empty repository.
	loadErr error
}

// Option configures a Service.
type Option func(*Service)

// WithClock overrides the time source used for timestamps and derivations.
func WithClock(clock domain.Clock) Option {
	return func(s *Service) {
		if clock != nil {
			s.now = clock
		}
	}
}

// WithLogger sets the structured logger.
func WithLogger(logger *zap.Logger) Option {
	return func(s *Service) {
		if logger != nil {
			s.logger = logger
		}
	}
}

// WithNotifier sets the escalation notification collaborator.
func WithNotifier(n domain.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithMetrics enables Prometheus instrumentation.
func WithMetrics(m *Metrics) Option {
	return func(s *Service) { s.metrics = m }
}

// WithSlot sets the persistence slot and key used by snapshots. An empty key
// selects DefaultSlotKey.
func WithSlot(slot domain.PersistenceSlot, key string) Option {
	return func(s *Service) {
		s.slot = slot
		if key != "" {
			s.slotKey = key
		}
	}
}

// WithDeliveryTimeout bounds each escalation tier's delivery attempt.
func WithDeliveryTimeout(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.deliveryTimeout = d
		}
	}
}

// WithIDGenerator overrides internal id generation.
func WithIDGenerator(fn func(domain.EntityType) string) Option {
	return func(s *Service) {
		if fn != nil {
			s.newID = fn
		}
	}
}

// NewService constructs an empty repository. It does not read the
// persistence slot; use Open for that.
func NewService(opts ...Option) *Service {
	s := &Service{
		seq:             NewSequenceAllocator(),
		slotKey:         DefaultSlotKey,
		now:             domain.SystemClock,
		newID:           newUUID,
		logger:          zap.NewNop(),
		deliveryTimeout: DefaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(s)
	}
	s.router = NewRouter(s.notifier, s.logger, s.metrics, WithTierTimeout(s.deliveryTimeout))
	return s
}

// Open constructs a repository and loads the last snapshot from the
// configured slot before returning, so no operation can race the load. When
// the load fails the error is returned together with an empty repository
// that refuses to save until a later LoadSnapshot succeeds.
func Open(ctx context.Context, opts ...Option) (*Service, error) {
	s := NewService(opts...)
	if err := s.LoadSnapshot(ctx); err != nil {
		return s, err
	}
	return s, nil
}

func newUUID(kind domain.EntityType) string {
	return string(kind) + "_" + uuid.NewString()
}

// AddHousehold registers a household owned by workerID. The display id is
// allocated under the household's administrative units.
func (s *Service) AddHousehold(ctx context.Context, in HouseholdInput, workerID string) (Household, error) {
	if err := ctx.Err(); err != nil {
		return Household{}, err
	}
	h := Household{
		ID:               s.newID(domain.EntityHousehold),
		HeadOfHousehold:  in.HeadOfHousehold,
		Location:         in.Location,
		TotalMembers:     in.TotalMembers,
		Adults:           in.Adults,
		Children:         in.Children,
		PregnantWomen:    in.PregnantWomen,
		ChildrenUnder5:   in.ChildrenUnder5,
		Elderly:          in.Elderly,
		Disabled:         in.Disabled,
		ChronicIllness:   in.ChronicIllness,
		InsuranceStatus:  in.InsuranceStatus,
		OtherInsurance:   in.OtherInsurance,
		VulnerableGroups: in.VulnerableGroups,
		Status:           in.Status,
		RegisteredBy:     workerID,
		LastVisit:        in.LastVisit,
		NextVisit:        in.NextVisit,
		EmergencyContact: in.EmergencyContact,
		Notes:            in.Notes,
	}
	h = cloneHousehold(h)
	if h.VulnerableGroups == nil {
		h.VulnerableGroups = []string{}
	}

	s.mu.Lock()
	h.RegisteredAt = s.now()
	scope := NewScope(domain.EntityHousehold, h.Location.AdministrativeUnits)
	h.HouseholdID = scope.DisplayID(s.seq.Next(scope))
	s.state.households = prepend(s.state.households, h)
	s.mu.Unlock()

	s.metrics.IncrementCreated(string(domain.EntityHousehold))
	s.logger.Info("household registered",
		zap.String("id", h.ID),
		zap.String("household_id", h.HouseholdID),
		zap.String("worker_id", workerID))
	return cloneHousehold(h), nil
}

// UpdateHousehold merges the non-nil patch fields into the household. The
// display id and registration metadata never change.
func (s *Service) UpdateHousehold(ctx context.Context, id string, patch HouseholdPatch) (Household, error) {
	if err := ctx.Err(); err != nil {
		return Household{}, err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	idx := s.state.findHousehold(id)
	if idx < 0 {
		return Household{}, domain.ErrNotFound{Entity: domain.EntityHousehold, ID: id}
	}
	updated := cloneHousehold(s.state.households[idx])
	patch.apply(&updated)
	s.state.households[idx] = updated
	s.logger.Debug("household updated", zap.String("id", id))
	return cloneHousehold(updated), nil
}

// AddMother registers a pregnancy under an existing household. Expected
// delivery date, gestational age and risk level are derived.
func (s *Service) AddMother(ctx context.Context, in MotherInput, workerID string) (Mother, error) {
	if err := ctx.Err(); err != nil {
		return Mother{}, err
	}
	m := Mother{
		ID:                  s.newID(domain.EntityMother),
		HouseholdID:         in.HouseholdID,
		Name:                in.Name,
		DateOfBirth:         in.DateOfBirth,
		Phone:               in.Phone,
		Gravida:             in.Gravida,
		Para:                in.Para,
		LastMenstrualPeriod: in.LastMenstrualPeriod,
		ANCVisitsCompleted:  in.ANCVisitsCompleted,
		ANCVisitsRequired:   in.ANCVisitsRequired,
		Supplements:         in.Supplements,
		BirthPlan:           in.BirthPlan,
		RiskFactors:         in.RiskFactors,
		Status:              in.Status,
		RegisteredBy:        workerID,
		NextANCDate:         in.NextANCDate,
		MedicalHistory:      in.MedicalHistory,
		Allergies:           in.Allergies,
		Notes:               in.Notes,
	}
	m = cloneMother(m)
	if m.RiskFactors == nil {
		m.RiskFactors = []string{}
	}
	if m.ANCVisitsRequired <= 0 {
		m.ANCVisitsRequired = domain.DefaultANCVisitsRequired
	}
	m.ExpectedDeliveryDate = domain.ExpectedDeliveryDate(m.LastMenstrualPeriod)
	m.RiskLevel = domain.MotherRiskLevel(m.RiskFactors)

	s.mu.Lock()
	idx := s.state.findHousehold(in.HouseholdID)
	if idx < 0 {
		s.mu.Unlock()
		return Mother{}, domain.ErrNotFound{Entity: domain.EntityHousehold, ID: in.HouseholdID}
	}
	m.RegisteredAt = s.now()
	m.GestationalAge = domain.GestationalAgeWeeks(m.LastMenstrualPeriod, m.RegisteredAt)
	scope := NewScope(domain.EntityMother, s.state.households[idx].Location.AdministrativeUnits)
	m.MotherID = scope.DisplayID(s.seq.Next(scope))
	s.state.mothers = prepend(s.state.mothers, m)
	s.mu.Unlock()

	s.metrics.IncrementCreated(string(domain.EntityMother))
	s.logger.Info("mother registered",
		zap.String("id", m.ID),
		zap.String("mother_id", m.MotherID),
		zap.String("household", m.HouseholdID),
		zap.String("risk_level", string(m.RiskLevel)),
		zap.String("worker_id", workerID))
	return cloneMother(m), nil
}

// AddChild registers a child under an existing household. Age in months and
// nutrition status are derived.
func (s *Service) AddChild(ctx context.Context, in ChildInput, workerID string) (Child, error) {
	if err := ctx.Err(); err != nil {
		return Child{}, err
	}
	c := Child{
		ID:                     s.newID(domain.EntityChild),
		HouseholdID:            in.HouseholdID,
		Name:                   in.Name,
		DateOfBirth:            in.DateOfBirth,
		Sex:                    in.Sex,
		BirthWeight:            in.BirthWeight,
		CurrentWeight:          in.CurrentWeight,
		Height:                 in.Height,
		MUACColor:              in.MUACColor,
		NutritionStatus:        domain.NutritionStatusFor(in.MUACColor),
		MotherName:             in.MotherName,
		FatherName:             in.FatherName,
		BirthCertificateNumber: in.BirthCertificateNumber,
		BirthDetails:           in.BirthDetails,
		VaccinationStatus:      in.VaccinationStatus,
		NextVaccinationDue:     in.NextVaccinationDue,
		RegisteredBy:           workerID,
		MedicalHistory:         in.MedicalHistory,
		Allergies:              in.Allergies,
		Notes:                  in.Notes,
		Status:                 in.Status,
	}
	c = cloneChild(c)

	s.mu.Lock()
	idx := s.state.findHousehold(in.HouseholdID)
	if idx < 0 {
		s.mu.Unlock()
		return Child{}, domain.ErrNotFound{Entity: domain.EntityHousehold, ID: in.HouseholdID}
	}
	c.RegisteredAt = s.now()
	c.AgeInMonths = domain.AgeInMonths(c.DateOfBirth, c.RegisteredAt)
	scope := NewScope(domain.EntityChild, s.state.households[idx].Location.AdministrativeUnits)
	c.ChildID = scope.DisplayID(s.seq.Next(scope))
	s.state.children = prepend(s.state.children, c)
	s.mu.Unlock()

	s.metrics.IncrementCreated(string(domain.EntityChild))
	s.logger.Info("child registered",
		zap.String("id", c.ID),
		zap.String("child_id", c.ChildID),
		zap.String("household", c.HouseholdID),
		zap.String("nutrition_status", string(c.NutritionStatus)),
		zap.String("worker_id", workerID))
	return cloneChild(c), nil
}

// ReportHazard records a hazard report and escalates it when severity is high.
// Notification failures are reported in the Escalation and never reject the
// report.
func (s *Service) ReportHazard(ctx context.Context, in HazardInput, workerID string) (Hazard, Escalation, error) {
	if err := ctx.Err(); err != nil {
		return Hazard{}, Escalation{}, err
	}
	h := Hazard{
		ID:                 s.newID(domain.EntityHazard),
		Type:               in.Type,
		Severity:           in.Severity,
		Location:           in.Location,
		Description:        in.Description,
		Impact:             in.Impact,
		AffectedHouseholds: in.AffectedHouseholds,
		AffectedPeople:     in.AffectedPeople,
		Casualties:         in.Casualties,
		ImmediateNeeds:     in.ImmediateNeeds,
		ResponseActions:    in.ResponseActions,
		PhotoURL:           in.PhotoURL,
		Status:             in.Status,
		HealthRisks:        domain.HealthRisksFor(in.Type),
		ReportedBy:         workerID,
		Notes:              in.Notes,
	}
	h = cloneHazard(h)
	if h.ImmediateNeeds == nil {
		h.ImmediateNeeds = []string{}
	}
	if h.Status == "" {
		h.Status = domain.HazardReported
	}

	s.mu.Lock()
	h.ReportedAt = s.now()
	s.state.hazards = prepend(s.state.hazards, h)
	s.mu.Unlock()

	s.metrics.IncrementCreated(string(domain.EntityHazard))
	s.logger.Info("hazard reported",
		zap.String("id", h.ID),
		zap.String("type", string(h.Type)),
		zap.String("severity", string(h.Severity)),
		zap.String("worker_id", workerID))
	esc := s.router.RouteHazard(ctx, cloneHazard(h))
	return cloneHazard(h), esc, nil
}

// ReportDiseaseCase records a disease case under an existing household,
// derives its severity and escalation level from the disease catalog and
// routes it through the notification cascade.
func (s *Service) ReportDiseaseCase(ctx context.Context, in DiseaseCaseInput, workerID string) (DiseaseCase, Escalation, error) {
	if err := ctx.Err(); err != nil {
		return DiseaseCase{}, Escalation{}, err
	}
	class := domain.ClassifyDisease(in.Disease)
	if !class.Catalogued {
		s.logger.Warn("disease not in catalog, using routine tier", zap.String("disease", string(in.Disease)))
	}
	c := DiseaseCase{
		ID:               s.newID(domain.EntityDiseaseCase),
		HouseholdID:      in.HouseholdID,
		PatientName:      in.PatientName,
		PatientAge:       in.PatientAge,
		PatientSex:       in.PatientSex,
		Disease:          in.Disease,
		Symptoms:         in.Symptoms,
		OnsetDate:        in.OnsetDate,
		Severity:         class.Severity,
		Status:           in.Status,
		LabTestRequested: in.LabTestRequested,
		LabResults:       in.LabResults,
		Treatment:        in.Treatment,
		Isolation:        in.Isolation,
		ContactTracing:   in.ContactTracing,
		Contacts:         in.Contacts,
		Outcome:          in.Outcome,
		Location:         in.Location,
		EscalationLevel:  class.Escalation,
		ReportedBy:       workerID,
		Notes:            in.Notes,
	}
	c = cloneDiseaseCase(c)
	if c.Symptoms == nil {
		c.Symptoms = domain.CanonicalSymptoms(in.Disease)
	}
	if c.Contacts == nil {
		c.Contacts = []string{}
	}
	if c.Status == "" {
		c.Status = domain.CaseSuspected
	}
	if strings.TrimSpace(c.Location.Address) == "" {
		c.Location.Address = defaultCaseAddress
	}

	s.mu.Lock()
	idx := s.state.findHousehold(in.HouseholdID)
	if idx < 0 {
		s.mu.Unlock()
		return DiseaseCase{}, Escalation{}, domain.ErrNotFound{Entity: domain.EntityHousehold, ID: in.HouseholdID}
	}
	household := s.state.households[idx]
	c.Location.GPSCoords = cloneGPS(household.Location.GPSCoords)
	if c.Location.AdministrativeUnits == nil {
		c.Location.AdministrativeUnits = cloneStrings(household.Location.AdministrativeUnits)
	}
	c.ReportedAt = s.now()
	scope := NewScope(domain.EntityDiseaseCase, household.Location.AdministrativeUnits)
	c.CaseID = scope.DisplayID(s.seq.Next(scope))
	s.state.cases = prepend(s.state.cases, c)
	s.mu.Unlock()

	s.metrics.IncrementCreated(string(domain.EntityDiseaseCase))
	s.logger.Info("disease case reported",
		zap.String("id", c.ID),
		zap.String("case_id", c.CaseID),
		zap.String("disease", string(c.Disease)),
		zap.String("severity", string(c.Severity)),
		zap.String("escalation", string(c.EscalationLevel)),
		zap.String("worker_id", workerID))
	esc := s.router.RouteDiseaseCase(ctx, cloneDiseaseCase(c))
	return cloneDiseaseCase(c), esc, nil
}
