// Package domain defines the CHV record types, closed catalogs, derivation
// functions and collaborator ports used by chvcore.
package domain

import "time"

// EntityType identifies the kind of record held by the repository.
type EntityType string

// Supported entity type identifiers used in errors, metrics and sequence scopes.
const (
	// EntityHousehold identifies a registered household.
	EntityHousehold EntityType = "household"
	// EntityMother identifies a registered mother (pregnancy record).
	EntityMother EntityType = "mother"
	// EntityChild identifies a registered child.
	EntityChild EntityType = "child"
	// EntityHazard identifies a hazard report.
	EntityHazard EntityType = "hazard"
	// EntityDiseaseCase identifies a disease case report.
	EntityDiseaseCase EntityType = "case"
)

// InsuranceStatus enumerates the health insurance schemes recorded per household.
type InsuranceStatus string

// Insurance schemes; InsuranceOther requires OtherInsurance text.
const (
	InsuranceSHA      InsuranceStatus = "SHA"
	InsuranceNHIF     InsuranceStatus = "NHIF"
	InsuranceMutuelle InsuranceStatus = "Mutuelle"
	InsuranceNone     InsuranceStatus = "None"
	InsuranceOther    InsuranceStatus = "Other"
)

// HouseholdStatus captures the follow-up state of a household.
type HouseholdStatus string

// Household follow-up states.
const (
	HouseholdActive         HouseholdStatus = "active"
	HouseholdPriority       HouseholdStatus = "priority"
	HouseholdANCDue         HouseholdStatus = "anc_due"
	HouseholdVaccinationDue HouseholdStatus = "vaccination_due"
	HouseholdOverdue        HouseholdStatus = "overdue"
)

// MotherStatus captures the pregnancy follow-up state.
type MotherStatus string

// Pregnancy follow-up states.
const (
	MotherActive         MotherStatus = "active"
	MotherDelivered      MotherStatus = "delivered"
	MotherReferred       MotherStatus = "referred"
	MotherLostToFollowUp MotherStatus = "lost_to_followup"
)

// RiskLevel is the derived obstetric risk of a mother.
type RiskLevel string

// Obstetric risk levels.
const (
	RiskLow    RiskLevel = "low"
	RiskMedium RiskLevel = "medium"
	RiskHigh   RiskLevel = "high"
)

// Sex of a child or patient.
type Sex string

// Recorded sexes.
const (
	SexMale   Sex = "male"
	SexFemale Sex = "female"
)

// MUACColor is the mid-upper arm circumference tape reading.
type MUACColor string

// MUAC tape colours. An empty value means no measurement was taken.
const (
	MUACGreen  MUACColor = "green"
	MUACYellow MUACColor = "yellow"
	MUACRed    MUACColor = "red"
)

// NutritionStatus is derived from the MUAC colour.
type NutritionStatus string

// Nutrition states.
const (
	NutritionWellNourished NutritionStatus = "well_nourished"
	NutritionModerate      NutritionStatus = "moderate_malnutrition"
	NutritionSevere        NutritionStatus = "severe_malnutrition"
	NutritionNotAssessed   NutritionStatus = "not_assessed"
)

// VaccinationStatus tracks a child's immunisation schedule.
type VaccinationStatus string

// Immunisation schedule states.
const (
	VaccinationUpToDate   VaccinationStatus = "up_to_date"
	VaccinationBehind     VaccinationStatus = "behind"
	VaccinationOverdue    VaccinationStatus = "overdue"
	VaccinationNotStarted VaccinationStatus = "not_started"
)

// DeliveryType describes how a child was delivered.
type DeliveryType string

// Delivery types.
const (
	DeliveryNormal    DeliveryType = "normal"
	DeliveryCaesarean DeliveryType = "caesarean"
	DeliveryAssisted  DeliveryType = "assisted"
)

// BirthAttendant identifies who attended a birth.
type BirthAttendant string

// Birth attendants.
const (
	AttendantDoctor      BirthAttendant = "doctor"
	AttendantNurse       BirthAttendant = "nurse"
	AttendantMidwife     BirthAttendant = "midwife"
	AttendantTraditional BirthAttendant = "traditional"
	AttendantUnattended  BirthAttendant = "unattended"
)

// ChildStatus captures the follow-up state of a child.
type ChildStatus string

// Child follow-up states.
const (
	ChildActive         ChildStatus = "active"
	ChildReferred       ChildStatus = "referred"
	ChildLostToFollowUp ChildStatus = "lost_to_followup"
)

// HazardSeverity is the severity a CHV assigns to a hazard.
type HazardSeverity string

// Hazard severities. Only HazardHigh escalates.
const (
	HazardLow    HazardSeverity = "low"
	HazardMedium HazardSeverity = "medium"
	HazardHigh   HazardSeverity = "high"
)

// HazardStatus tracks the response to a hazard.
type HazardStatus string

// Hazard response states.
const (
	HazardReported      HazardStatus = "reported"
	HazardInvestigating HazardStatus = "investigating"
	HazardResponding    HazardStatus = "responding"
	HazardResolved      HazardStatus = "resolved"
)

// CaseSeverity is the derived severity of a disease case.
type CaseSeverity string

// Disease case severities.
const (
	CaseLow      CaseSeverity = "low"
	CaseMedium   CaseSeverity = "medium"
	CaseHigh     CaseSeverity = "high"
	CaseCritical CaseSeverity = "critical"
)

// CaseStatus is the diagnostic confidence of a disease case.
type CaseStatus string

// Diagnostic confidence states.
const (
	CaseSuspected CaseStatus = "suspected"
	CaseProbable  CaseStatus = "probable"
	CaseConfirmed CaseStatus = "confirmed"
)

// CaseOutcome records what happened to the patient.
type CaseOutcome string

// Patient outcomes.
const (
	OutcomeRecovering   CaseOutcome = "recovering"
	OutcomeRecovered    CaseOutcome = "recovered"
	OutcomeReferred     CaseOutcome = "referred"
	OutcomeHospitalized CaseOutcome = "hospitalized"
	OutcomeDied         CaseOutcome = "died"
)

// GPS is a latitude/longitude pair.
type GPS struct {
	Lat float64 `json:"lat"`
	Lng float64 `json:"lng"`
}

// Location places a household within the administrative hierarchy.
// AdministrativeUnits is ordered from coarsest to finest.
type Location struct {
	Country             string   `json:"country"`
	AdministrativeUnits []string `json:"administrativeUnits"`
	Village             string   `json:"village"`
	ManualAddress       string   `json:"manualAddress,omitempty"`
	GPSCoords           *GPS     `json:"gpsCoords,omitempty"`
}

// Contact is a named phone contact.
type Contact struct {
	Name  string `json:"name"`
	Phone string `json:"phone,omitempty"`
}

// Household is the root registration record owned by a CHV.
type Household struct {
	ID               string          `json:"id"`
	HouseholdID      string          `json:"householdId"`
	HeadOfHousehold  Contact         `json:"headOfHousehold"`
	Location         Location        `json:"location"`
	TotalMembers     int             `json:"totalMembers"`
	Adults           int             `json:"adults"`
	Children         int             `json:"children"`
	PregnantWomen    int             `json:"pregnantWomen"`
	ChildrenUnder5   int             `json:"childrenUnder5"`
	Elderly          int             `json:"elderly,omitempty"`
	Disabled         int             `json:"disabled,omitempty"`
	ChronicIllness   int             `json:"chronicIllness,omitempty"`
	InsuranceStatus  InsuranceStatus `json:"insuranceStatus"`
	OtherInsurance   string          `json:"otherInsurance,omitempty"`
	VulnerableGroups []string        `json:"vulnerableGroups"`
	Status           HouseholdStatus `json:"status"`
	RegisteredAt     time.Time       `json:"registeredAt"`
	RegisteredBy     string          `json:"registeredBy"`
	LastVisit        *time.Time      `json:"lastVisit,omitempty"`
	NextVisit        *time.Time      `json:"nextVisit,omitempty"`
	EmergencyContact *Contact        `json:"emergencyContact,omitempty"`
	Notes            string          `json:"notes,omitempty"`
}

// Supplements records which pregnancy supplements a mother receives.
type Supplements struct {
	Iron     bool `json:"iron"`
	Folate   bool `json:"folate"`
	Calcium  bool `json:"calcium"`
	VitaminD bool `json:"vitaminD"`
}

// BirthPlan captures the delivery arrangements. PreferredFacility is mandatory.
type BirthPlan struct {
	PreferredFacility string `json:"preferredFacility"`
	EmergencyContact  string `json:"emergencyContact"`
	EmergencyPhone    string `json:"emergencyPhone"`
	TransportPlan     string `json:"transportPlan"`
}

// Mother is a pregnancy record attached to a household.
type Mother struct {
	ID                   string       `json:"id"`
	MotherID             string       `json:"motherId"`
	HouseholdID          string       `json:"householdId"`
	Name                 string       `json:"name"`
	DateOfBirth          time.Time    `json:"dateOfBirth"`
	Phone                string       `json:"phone,omitempty"`
	Gravida              int          `json:"gravida"`
	Para                 int          `json:"para"`
	LastMenstrualPeriod  time.Time    `json:"lastMenstrualPeriod"`
	ExpectedDeliveryDate time.Time    `json:"expectedDeliveryDate"`
	GestationalAge       int          `json:"gestationalAge"`
	ANCVisitsCompleted   int          `json:"ancVisitsCompleted"`
	ANCVisitsRequired    int          `json:"ancVisitsRequired"`
	Supplements          Supplements  `json:"supplements"`
	BirthPlan            BirthPlan    `json:"birthPlan"`
	RiskFactors          []string     `json:"riskFactors"`
	RiskLevel            RiskLevel    `json:"riskLevel"`
	Status               MotherStatus `json:"status"`
	RegisteredAt         time.Time    `json:"registeredAt"`
	RegisteredBy         string       `json:"registeredBy"`
	NextANCDate          *time.Time   `json:"nextANCDate,omitempty"`
	MedicalHistory       string       `json:"medicalHistory,omitempty"`
	Allergies            string       `json:"allergies,omitempty"`
	Notes                string       `json:"notes,omitempty"`
}

// BirthDetails records the circumstances of a child's birth.
type BirthDetails struct {
	PlaceOfBirth   string         `json:"placeOfBirth,omitempty"`
	DeliveryType   DeliveryType   `json:"deliveryType,omitempty"`
	BirthAttendant BirthAttendant `json:"birthAttendant,omitempty"`
	Complications  []string       `json:"complications"`
}

// Child is a child record attached to a household.
type Child struct {
	ID                     string            `json:"id"`
	ChildID                string            `json:"childId"`
	HouseholdID            string            `json:"householdId"`
	Name                   string            `json:"name"`
	DateOfBirth            time.Time         `json:"dateOfBirth"`
	Sex                    Sex               `json:"sex"`
	AgeInMonths            int               `json:"ageInMonths"`
	BirthWeight            *float64          `json:"birthWeight,omitempty"`
	CurrentWeight          *float64          `json:"currentWeight,omitempty"`
	Height                 *float64          `json:"height,omitempty"`
	MUACColor              MUACColor         `json:"muacColor,omitempty"`
	NutritionStatus        NutritionStatus   `json:"nutritionStatus"`
	MotherName             string            `json:"motherName"`
	FatherName             string            `json:"fatherName,omitempty"`
	BirthCertificateNumber string            `json:"birthCertificateNumber,omitempty"`
	BirthDetails           *BirthDetails     `json:"birthDetails,omitempty"`
	VaccinationStatus      VaccinationStatus `json:"vaccinationStatus"`
	NextVaccinationDue     *time.Time        `json:"nextVaccinationDue,omitempty"`
	RegisteredAt           time.Time         `json:"registeredAt"`
	RegisteredBy           string            `json:"registeredBy"`
	MedicalHistory         string            `json:"medicalHistory,omitempty"`
	Allergies              string            `json:"allergies,omitempty"`
	Notes                  string            `json:"notes,omitempty"`
	Status                 ChildStatus       `json:"status"`
}

// HazardLocation places a hazard report. GPSCoords is mandatory.
type HazardLocation struct {
	GPSCoords           GPS      `json:"gpsCoords"`
	Address             string   `json:"address"`
	AdministrativeUnits []string `json:"administrativeUnits"`
}

// HazardImpact flags the observed consequences of a hazard.
type HazardImpact struct {
	Displacement         bool `json:"displacement"`
	RoadCutOff           bool `json:"roadCutOff"`
	CropLoss             bool `json:"cropLoss"`
	InfrastructureDamage bool `json:"infrastructureDamage"`
	WaterContamination   bool `json:"waterContamination"`
	PowerOutage          bool `json:"powerOutage"`
	CommunicationDown    bool `json:"communicationDown"`
}

// Hazard is an environmental hazard report.
type Hazard struct {
	ID                 string         `json:"id"`
	Type               HazardType     `json:"type"`
	Severity           HazardSeverity `json:"severity"`
	Location           HazardLocation `json:"location"`
	Description        string         `json:"description"`
	Impact             HazardImpact   `json:"impact"`
	AffectedHouseholds int            `json:"affectedHouseholds"`
	AffectedPeople     int            `json:"affectedPeople"`
	Casualties         int            `json:"casualties"`
	ImmediateNeeds     []string       `json:"immediateNeeds"`
	ResponseActions    string         `json:"responseActions,omitempty"`
	PhotoURL           string         `json:"photoUrl,omitempty"`
	Status             HazardStatus   `json:"status"`
	HealthRisks        string         `json:"healthRisks"`
	ReportedAt         time.Time      `json:"reportedAt"`
	ReportedBy         string         `json:"reportedBy"`
	Notes              string         `json:"notes,omitempty"`
}

// CaseLocation places a disease case. GPSCoords is copied from the household.
type CaseLocation struct {
	GPSCoords           *GPS     `json:"gpsCoords"`
	Address             string   `json:"address"`
	AdministrativeUnits []string `json:"administrativeUnits"`
}

// DiseaseCase is a disease surveillance report.
type DiseaseCase struct {
	ID               string          `json:"id"`
	CaseID           string          `json:"caseId"`
	HouseholdID      string          `json:"householdId"`
	PatientName      string          `json:"patientName"`
	PatientAge       *int            `json:"patientAge,omitempty"`
	PatientSex       Sex             `json:"patientSex,omitempty"`
	Disease          DiseaseID       `json:"disease"`
	Symptoms         []string        `json:"symptoms"`
	OnsetDate        time.Time       `json:"onsetDate"`
	Severity         CaseSeverity    `json:"severity"`
	Status           CaseStatus      `json:"status"`
	LabTestRequested bool            `json:"labTestRequested"`
	LabResults       string          `json:"labResults,omitempty"`
	Treatment        string          `json:"treatment,omitempty"`
	Isolation        bool            `json:"isolation"`
	ContactTracing   bool            `json:"contactTracing"`
	Contacts         []string        `json:"contacts"`
	Outcome          CaseOutcome     `json:"outcome,omitempty"`
	Location         CaseLocation    `json:"location"`
	EscalationLevel  EscalationLevel `json:"escalationLevel"`
	ReportedAt       time.Time       `json:"reportedAt"`
	ReportedBy       string          `json:"reportedBy"`
	Notes            string          `json:"notes,omitempty"`
}
