package core

import (
	"time"

	"chvcore/pkg/domain"
)

// HouseholdInput is the caller-supplied part of a household registration.
// Identity, display id and registration metadata are assigned by the service.
type HouseholdInput struct {
	HeadOfHousehold  domain.Contact         `json:"headOfHousehold"`
	Location         domain.Location        `json:"location"`
	TotalMembers     int                    `json:"totalMembers"`
	Adults           int                    `json:"adults"`
	Children         int                    `json:"children"`
	PregnantWomen    int                    `json:"pregnantWomen"`
	ChildrenUnder5   int                    `json:"childrenUnder5"`
	Elderly          int                    `json:"elderly,omitempty"`
	Disabled         int                    `json:"disabled,omitempty"`
	ChronicIllness   int                    `json:"chronicIllness,omitempty"`
	InsuranceStatus  domain.InsuranceStatus `json:"insuranceStatus"`
	OtherInsurance   string                 `json:"otherInsurance,omitempty"`
	VulnerableGroups []string               `json:"vulnerableGroups"`
	Status           domain.HouseholdStatus `json:"status"`
	LastVisit        *time.Time             `json:"lastVisit,omitempty"`
	NextVisit        *time.Time             `json:"nextVisit,omitempty"`
	EmergencyContact *domain.Contact        `json:"emergencyContact,omitempty"`
	Notes            string                 `json:"notes,omitempty"`
}

// HouseholdPatch carries the household fields to overwrite. Nil fields are
// left untouched.
type HouseholdPatch struct {
	HeadOfHousehold  *domain.Contact         `json:"headOfHousehold,omitempty"`
	Location         *domain.Location        `json:"location,omitempty"`
	TotalMembers     *int                    `json:"totalMembers,omitempty"`
	Adults           *int                    `json:"adults,omitempty"`
	Children         *int                    `json:"children,omitempty"`
	PregnantWomen    *int                    `json:"pregnantWomen,omitempty"`
	ChildrenUnder5   *int                    `json:"childrenUnder5,omitempty"`
	Elderly          *int                    `json:"elderly,omitempty"`
	Disabled         *int                    `json:"disabled,omitempty"`
	ChronicIllness   *int                    `json:"chronicIllness,omitempty"`
	InsuranceStatus  *domain.InsuranceStatus `json:"insuranceStatus,omitempty"`
	OtherInsurance   *string                 `json:"otherInsurance,omitempty"`
	VulnerableGroups []string                `json:"vulnerableGroups,omitempty"`
	Status           *domain.HouseholdStatus `json:"status,omitempty"`
	LastVisit        *time.Time              `json:"lastVisit,omitempty"`
	NextVisit        *time.Time              `json:"nextVisit,omitempty"`
	EmergencyContact *domain.Contact         `json:"emergencyContact,omitempty"`
	Notes            *string                 `json:"notes,omitempty"`
}

func (p HouseholdPatch) apply(h *Household) {
	if p.HeadOfHousehold != nil {
		h.HeadOfHousehold = *p.HeadOfHousehold
	}
	if p.Location != nil {
		h.Location = *p.Location
		h.Location.AdministrativeUnits = cloneStrings(p.Location.AdministrativeUnits)
		h.Location.GPSCoords = cloneGPS(p.Location.GPSCoords)
	}
	setInt(&h.TotalMembers, p.TotalMembers)
	setInt(&h.Adults, p.Adults)
	setInt(&h.Children, p.Children)
	setInt(&h.PregnantWomen, p.PregnantWomen)
	setInt(&h.ChildrenUnder5, p.ChildrenUnder5)
	setInt(&h.Elderly, p.Elderly)
	setInt(&h.Disabled, p.Disabled)
	setInt(&h.ChronicIllness, p.ChronicIllness)
	if p.InsuranceStatus != nil {
		h.InsuranceStatus = *p.InsuranceStatus
	}
	if p.OtherInsurance != nil {
		h.OtherInsurance = *p.OtherInsurance
	}
	if p.VulnerableGroups != nil {
		h.VulnerableGroups = cloneStrings(p.VulnerableGroups)
	}
	if p.Status != nil {
		h.Status = *p.Status
	}
	if p.LastVisit != nil {
		h.LastVisit = cloneTime(p.LastVisit)
	}
	if p.NextVisit != nil {
		h.NextVisit = cloneTime(p.NextVisit)
	}
	if p.EmergencyContact != nil {
		c := *p.EmergencyContact
		h.EmergencyContact = &c
	}
	if p.Notes != nil {
		h.Notes = *p.Notes
	}
}

func setInt(dst *int, v *int) {
	if v != nil {
		*dst = *v
	}
}

// MotherInput is the caller-supplied part of a pregnancy registration.
// Expected delivery date, gestational age and risk level are derived.
type MotherInput struct {
	HouseholdID         string              `json:"householdId"`
	Name                string              `json:"name"`
	DateOfBirth         time.Time           `json:"dateOfBirth"`
	Phone               string              `json:"phone,omitempty"`
	Gravida             int                 `json:"gravida"`
	Para                int                 `json:"para"`
	LastMenstrualPeriod time.Time           `json:"lastMenstrualPeriod"`
	ANCVisitsCompleted  int                 `json:"ancVisitsCompleted"`
	ANCVisitsRequired   int                 `json:"ancVisitsRequired"`
	Supplements         domain.Supplements  `json:"supplements"`
	BirthPlan           domain.BirthPlan    `json:"birthPlan"`
	RiskFactors         []string            `json:"riskFactors"`
	Status              domain.MotherStatus `json:"status"`
	NextANCDate         *time.Time          `json:"nextANCDate,omitempty"`
	MedicalHistory      string              `json:"medicalHistory,omitempty"`
	Allergies           string              `json:"allergies,omitempty"`
	Notes               string              `json:"notes,omitempty"`
}

// ChildInput is the caller-supplied part of a child registration. Age in
// months and nutrition status are derived.
type ChildInput struct {
	HouseholdID            string                   `json:"householdId"`
	Name                   string                   `json:"name"`
	DateOfBirth            time.Time                `json:"dateOfBirth"`
	Sex                    domain.Sex               `json:"sex"`
	BirthWeight            *float64                 `json:"birthWeight,omitempty"`
	CurrentWeight          *float64                 `json:"currentWeight,omitempty"`
	Height                 *float64                 `json:"height,omitempty"`
	MUACColor              domain.MUACColor         `json:"muacColor,omitempty"`
	MotherName             string                   `json:"motherName"`
	FatherName             string                   `json:"fatherName,omitempty"`
	BirthCertificateNumber string                   `json:"birthCertificateNumber,omitempty"`
	BirthDetails           *domain.BirthDetails     `json:"birthDetails,omitempty"`
	VaccinationStatus      domain.VaccinationStatus `json:"vaccinationStatus"`
	NextVaccinationDue     *time.Time               `json:"nextVaccinationDue,omitempty"`
	MedicalHistory         string                   `json:"medicalHistory,omitempty"`
	Allergies              string                   `json:"allergies,omitempty"`
	Notes                  string                   `json:"notes,omitempty"`
	Status                 domain.ChildStatus       `json:"status"`
}

// HazardInput is the caller-supplied part of a hazard report. The health-risk
// summary is taken from the hazard catalog.
type HazardInput struct {
	Type               domain.HazardType     `json:"type"`
	Severity           domain.HazardSeverity `json:"severity"`
	Location           domain.HazardLocation `json:"location"`
	Description        string                `json:"description"`
	Impact             domain.HazardImpact   `json:"impact"`
	AffectedHouseholds int                   `json:"affectedHouseholds"`
	AffectedPeople     int                   `json:"affectedPeople"`
	Casualties         int                   `json:"casualties"`
	ImmediateNeeds     []string              `json:"immediateNeeds"`
	ResponseActions    string                `json:"responseActions,omitempty"`
	PhotoURL           string                `json:"photoUrl,omitempty"`
	Status             domain.HazardStatus   `json:"status"`
	Notes              string                `json:"notes,omitempty"`
}

// DiseaseCaseInput is the caller-supplied part of a disease case report.
// Severity, escalation level and GPS are derived. A nil Symptoms slice is
// seeded with the disease's canonical symptoms. Location.GPSCoords is always
// replaced by the household's coordinates.
type DiseaseCaseInput struct {
	HouseholdID      string              `json:"householdId"`
	PatientName      string              `json:"patientName"`
	PatientAge       *int                `json:"patientAge,omitempty"`
	PatientSex       domain.Sex          `json:"patientSex,omitempty"`
	Disease          domain.DiseaseID    `json:"disease"`
	Symptoms         []string            `json:"symptoms"`
	OnsetDate        time.Time           `json:"onsetDate"`
	Status           domain.CaseStatus   `json:"status"`
	LabTestRequested bool                `json:"labTestRequested"`
	LabResults       string              `json:"labResults,omitempty"`
	Treatment        string              `json:"treatment,omitempty"`
	Isolation        bool                `json:"isolation"`
	ContactTracing   bool                `json:"contactTracing"`
	Contacts         []string            `json:"contacts"`
	Outcome          domain.CaseOutcome  `json:"outcome,omitempty"`
	Location         domain.CaseLocation `json:"location"`
	Notes            string              `json:"notes,omitempty"`
}
