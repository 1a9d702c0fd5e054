package domain

import (
	"math"
	"time"
)

const (
	// DefaultANCVisitsRequired is the WHO focused-ANC minimum.
	DefaultANCVisitsRequired = 4
	// averageMonth is the mean Gregorian month length used for child ages.
	averageMonth = time.Duration(30.44 * float64(24*time.Hour))
	week         = 7 * 24 * time.Hour
	// pregnancyDays is the Naegele's rule offset from LMP to EDD.
	pregnancyDays = 280
	// under5Months is the exclusive upper bound for the under-5 cohort.
	under5Months = 60
)

// Clock supplies the current time to derivations.
type Clock func() time.Time

// SystemClock returns the wall clock in UTC.
func SystemClock() time.Time { return time.Now().UTC() }

// AgeInMonths returns whole months elapsed since dob, never negative.
func AgeInMonths(dob, now time.Time) int {
	return wholeUnits(now.Sub(dob), averageMonth)
}

// IsUnder5 reports whether a child born at dob is younger than five years at now.
func IsUnder5(dob, now time.Time) bool {
	return AgeInMonths(dob, now) < under5Months
}

// GestationalAgeWeeks returns whole weeks elapsed since the last menstrual period.
func GestationalAgeWeeks(lmp, now time.Time) int {
	return wholeUnits(now.Sub(lmp), week)
}

// ExpectedDeliveryDate returns lmp plus 280 calendar days.
func ExpectedDeliveryDate(lmp time.Time) time.Time {
	return lmp.AddDate(0, 0, pregnancyDays)
}

func wholeUnits(d, unit time.Duration) int {
	if d <= 0 {
		return 0
	}
	return int(math.Floor(float64(d) / float64(unit)))
}

// MotherRiskLevel grades a pregnancy from its selected risk factors.
// Unknown factor ids still count towards medium.
func MotherRiskLevel(factors []string) RiskLevel {
	if len(factors) == 0 {
		return RiskLow
	}
	for _, id := range factors {
		if f, ok := LookupRiskFactor(id); ok && f.Severity == RiskSeverityHigh {
			return RiskHigh
		}
	}
	return RiskMedium
}

// NutritionStatusFor maps a MUAC reading to a nutrition status.
func NutritionStatusFor(color MUACColor) NutritionStatus {
	switch color {
	case MUACRed:
		return NutritionSevere
	case MUACYellow:
		return NutritionModerate
	case MUACGreen:
		return NutritionWellNourished
	default:
		return NutritionNotAssessed
	}
}

// Classification is the derived triage of a disease case.
type Classification struct {
	Category   DiseaseCategory
	Severity   CaseSeverity
	Escalation EscalationLevel
	// Catalogued is false when the disease id was not found and the routine
	// tier was applied.
	Catalogued bool
}

// ClassifyDisease derives severity and escalation level from the disease catalog.
func ClassifyDisease(id DiseaseID) Classification {
	d, ok := LookupDisease(id)
	category := CategoryRoutine
	if ok {
		category = d.Category
	}
	c := Classification{Category: category, Catalogued: ok}
	switch category {
	case CategoryCritical:
		c.Severity, c.Escalation = CaseCritical, EscalationNational
	case CategoryMedium:
		c.Severity, c.Escalation = CaseHigh, EscalationDistrict
	case CategoryRoutine:
		c.Severity, c.Escalation = CaseMedium, EscalationFacility
	}
	return c
}

// CanonicalSymptoms returns the symptom set preselected for a disease.
func CanonicalSymptoms(id DiseaseID) []string {
	d, ok := LookupDisease(id)
	if !ok {
		return []string{}
	}
	return d.Symptoms
}

// HealthRisksFor returns the catalogued health-risk summary for a hazard type.
func HealthRisksFor(t HazardType) string {
	k, _ := LookupHazard(t)
	return k.HealthRisks
}
