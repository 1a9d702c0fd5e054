package domain

// DiseaseCategory groups notifiable diseases by urgency.
type DiseaseCategory string

// Disease categories. Every catalogued disease belongs to exactly one.
const (
	CategoryCritical DiseaseCategory = "critical"
	CategoryMedium   DiseaseCategory = "medium"
	CategoryRoutine  DiseaseCategory = "routine"
)

// EscalationLevel is the highest notification tier a report reaches.
type EscalationLevel string

// Escalation levels, lowest first.
const (
	EscalationFacility EscalationLevel = "facility"
	EscalationDistrict EscalationLevel = "district"
	EscalationNational EscalationLevel = "national"
)

// DiseaseID identifies a disease in the surveillance catalog.
type DiseaseID string

// Catalogued diseases.
const (
	DiseaseEbola           DiseaseID = "ebola"
	DiseaseMarburg         DiseaseID = "marburg"
	DiseaseCholera         DiseaseID = "cholera"
	DiseasePolio           DiseaseID = "polio"
	DiseaseMeasles         DiseaseID = "measles"
	DiseaseMeningitis      DiseaseID = "meningitis"
	DiseaseRabies          DiseaseID = "rabies"
	DiseaseMalaria         DiseaseID = "malaria"
	DiseasePneumonia       DiseaseID = "pneumonia"
	DiseaseTyphoid         DiseaseID = "typhoid"
	DiseaseCovid19         DiseaseID = "covid19"
	DiseaseDiarrheaCluster DiseaseID = "diarrhea_cluster"
	DiseaseCommonCold      DiseaseID = "common_cold"
	DiseaseSkinInfection   DiseaseID = "skin_infection"
	DiseaseConjunctivitis  DiseaseID = "conjunctivitis"
	DiseaseGastritis       DiseaseID = "gastritis"
)

// Disease is a catalog entry.
type Disease struct {
	ID       DiseaseID       `json:"id"`
	Name     string          `json:"name"`
	Category DiseaseCategory `json:"category"`
	Symptoms []string        `json:"symptoms"`
}

var diseaseCatalog = map[DiseaseID]Disease{
	DiseaseEbola:           {ID: DiseaseEbola, Name: "Ebola", Category: CategoryCritical, Symptoms: []string{"fever", "bleeding", "vomiting", "diarrhea"}},
	DiseaseMarburg:         {ID: DiseaseMarburg, Name: "Marburg", Category: CategoryCritical, Symptoms: []string{"fever", "bleeding", "headache"}},
	DiseaseCholera:         {ID: DiseaseCholera, Name: "Cholera", Category: CategoryCritical, Symptoms: []string{"severe_diarrhea", "vomiting", "dehydration"}},
	DiseasePolio:           {ID: DiseasePolio, Name: "Polio", Category: CategoryCritical, Symptoms: []string{"paralysis", "fever", "muscle_weakness"}},
	DiseaseMeasles:         {ID: DiseaseMeasles, Name: "Measles", Category: CategoryCritical, Symptoms: []string{"fever", "rash", "cough", "red_eyes"}},
	DiseaseMeningitis:      {ID: DiseaseMeningitis, Name: "Meningitis", Category: CategoryCritical, Symptoms: []string{"severe_headache", "neck_stiffness", "fever"}},
	DiseaseRabies:          {ID: DiseaseRabies, Name: "Rabies", Category: CategoryCritical, Symptoms: []string{"animal_bite", "fever", "confusion"}},
	DiseaseMalaria:         {ID: DiseaseMalaria, Name: "Malaria", Category: CategoryMedium, Symptoms: []string{"fever", "headache", "chills", "vomiting"}},
	DiseasePneumonia:       {ID: DiseasePneumonia, Name: "Pneumonia", Category: CategoryMedium, Symptoms: []string{"cough", "fever", "difficulty_breathing"}},
	DiseaseTyphoid:         {ID: DiseaseTyphoid, Name: "Typhoid", Category: CategoryMedium, Symptoms: []string{"fever", "headache", "abdominal_pain"}},
	DiseaseCovid19:         {ID: DiseaseCovid19, Name: "COVID-19", Category: CategoryMedium, Symptoms: []string{"fever", "cough", "difficulty_breathing", "loss_of_taste"}},
	DiseaseDiarrheaCluster: {ID: DiseaseDiarrheaCluster, Name: "Diarrhea Cluster", Category: CategoryMedium, Symptoms: []string{"diarrhea", "vomiting", "dehydration"}},
	DiseaseCommonCold:      {ID: DiseaseCommonCold, Name: "Common Cold", Category: CategoryRoutine, Symptoms: []string{"cough", "runny_nose", "mild_fever"}},
	DiseaseSkinInfection:   {ID: DiseaseSkinInfection, Name: "Skin Infection", Category: CategoryRoutine, Symptoms: []string{"rash", "itching", "swelling"}},
	DiseaseConjunctivitis:  {ID: DiseaseConjunctivitis, Name: "Conjunctivitis", Category: CategoryRoutine, Symptoms: []string{"red_eyes", "discharge", "itching"}},
	DiseaseGastritis:       {ID: DiseaseGastritis, Name: "Gastritis", Category: CategoryRoutine, Symptoms: []string{"abdominal_pain", "nausea", "loss_of_appetite"}},
}

// LookupDisease returns a copy of the catalog entry for id.
func LookupDisease(id DiseaseID) (Disease, bool) {
	d, ok := diseaseCatalog[id]
	if !ok {
		return Disease{}, false
	}
	d.Symptoms = append([]string(nil), d.Symptoms...)
	return d, true
}

// Diseases lists the catalog grouped critical, medium, routine.
func Diseases() []Disease {
	order := []DiseaseID{
		DiseaseEbola, DiseaseMarburg, DiseaseCholera, DiseasePolio, DiseaseMeasles, DiseaseMeningitis, DiseaseRabies,
		DiseaseMalaria, DiseasePneumonia, DiseaseTyphoid, DiseaseCovid19, DiseaseDiarrheaCluster,
		DiseaseCommonCold, DiseaseSkinInfection, DiseaseConjunctivitis, DiseaseGastritis,
	}
	out := make([]Disease, 0, len(order))
	for _, id := range order {
		d, _ := LookupDisease(id)
		out = append(out, d)
	}
	return out
}

// HazardType identifies the kind of environmental hazard.
type HazardType string

// Hazard types.
const (
	HazardFlood      HazardType = "flood"
	HazardDrought    HazardType = "drought"
	HazardStorm      HazardType = "storm"
	HazardLandslide  HazardType = "landslide"
	HazardHeatwave   HazardType = "heatwave"
	HazardEarthquake HazardType = "earthquake"
	HazardFire       HazardType = "fire"
)

// HazardKind is a hazard catalog entry.
type HazardKind struct {
	Type        HazardType `json:"type"`
	Name        string     `json:"name"`
	HealthRisks string     `json:"healthRisks"`
}

// Fire has no catalogued health-risk text; reports carry an empty summary.
var hazardCatalog = map[HazardType]HazardKind{
	HazardFlood:      {Type: HazardFlood, Name: "Flood", HealthRisks: "Cholera, malaria, skin diseases"},
	HazardDrought:    {Type: HazardDrought, Name: "Drought", HealthRisks: "Malnutrition, gastrointestinal diseases"},
	HazardStorm:      {Type: HazardStorm, Name: "Storm", HealthRisks: "Injuries, respiratory diseases"},
	HazardLandslide:  {Type: HazardLandslide, Name: "Landslide", HealthRisks: "Severe injuries, fatalities"},
	HazardHeatwave:   {Type: HazardHeatwave, Name: "Heatwave", HealthRisks: "Heat stroke, dehydration"},
	HazardEarthquake: {Type: HazardEarthquake, Name: "Earthquake", HealthRisks: "Injuries, psychological trauma"},
	HazardFire:       {Type: HazardFire, Name: "Fire"},
}

// LookupHazard returns the catalog entry for a hazard type.
func LookupHazard(t HazardType) (HazardKind, bool) {
	k, ok := hazardCatalog[t]
	return k, ok
}

// RiskSeverity grades an individual pregnancy risk factor.
type RiskSeverity string

// Risk factor severities.
const (
	RiskSeverityMedium RiskSeverity = "medium"
	RiskSeverityHigh   RiskSeverity = "high"
)

// RiskFactor is a pregnancy risk factor catalog entry.
type RiskFactor struct {
	ID       string       `json:"id"`
	Label    string       `json:"label"`
	Severity RiskSeverity `json:"severity"`
}

var riskFactorCatalog = map[string]RiskFactor{
	"age_under18":            {ID: "age_under18", Label: "Age under 18", Severity: RiskSeverityHigh},
	"age_over35":             {ID: "age_over35", Label: "Age over 35", Severity: RiskSeverityMedium},
	"previous_complications": {ID: "previous_complications", Label: "Previous complications", Severity: RiskSeverityHigh},
	"multiple_pregnancy":     {ID: "multiple_pregnancy", Label: "Multiple pregnancy", Severity: RiskSeverityHigh},
	"diabetes":               {ID: "diabetes", Label: "Diabetes", Severity: RiskSeverityHigh},
	"hypertension":           {ID: "hypertension", Label: "Hypertension", Severity: RiskSeverityHigh},
	"anemia":                 {ID: "anemia", Label: "Anemia", Severity: RiskSeverityMedium},
	"hiv_positive":           {ID: "hiv_positive", Label: "HIV positive", Severity: RiskSeverityHigh},
	"malnutrition":           {ID: "malnutrition", Label: "Malnutrition", Severity: RiskSeverityMedium},
}

// LookupRiskFactor returns the catalog entry for a risk factor id.
func LookupRiskFactor(id string) (RiskFactor, bool) {
	f, ok := riskFactorCatalog[id]
	return f, ok
}
