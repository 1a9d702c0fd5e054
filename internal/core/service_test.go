package core_test

import (
	"context"
	"encoding/json"
	"errors"
	"strings"
	"testing"
	"time"

	"chvcore/internal/core"
	"chvcore/pkg/domain"
)

func TestAddHouseholdAllocatesHierarchicalDisplayIDs(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	first := mustHousehold(t, svc, "chv-1")
	second := mustHousehold(t, svc, "chv-1")

	if first.HouseholdID != "KE-13-KE-13-09-0001" {
		t.Fatalf("first household id = %q", first.HouseholdID)
	}
	if second.HouseholdID != "KE-13-KE-13-09-0002" {
		t.Fatalf("second household id = %q", second.HouseholdID)
	}
	if first.ID == "" || first.ID == second.ID {
		t.Fatalf("internal ids must be unique, got %q and %q", first.ID, second.ID)
	}
	if first.RegisteredBy != "chv-1" || first.RegisteredAt.IsZero() {
		t.Fatalf("registration metadata not stamped: %+v", first)
	}
	if first.TotalMembers != 5 || first.Children != 3 || first.ChildrenUnder5 != 2 {
		t.Fatalf("member counts not preserved: %+v", first)
	}
	if first.VulnerableGroups == nil {
		t.Fatalf("vulnerable groups should default to an empty slice")
	}

	other := householdInput("Wanjiru")
	other.Location.AdministrativeUnits = []string{"KE-47"}
	h, err := svc.AddHousehold(ctx, other, "chv-2")
	if err != nil {
		t.Fatalf("add household: %v", err)
	}
	if h.HouseholdID != "KE-47-0001" {
		t.Fatalf("separate scope should restart, got %q", h.HouseholdID)
	}
}

func TestAddMotherDerivesClinicalFields(t *testing.T) {
	svc := newTestService(t)
	h := mustHousehold(t, svc, "chv-1")

	lmp := baseTime.AddDate(0, 0, -91)
	m, err := svc.AddMother(context.Background(), core.MotherInput{
		HouseholdID:         h.ID,
		Name:                "Achieng",
		DateOfBirth:         time.Date(2006, 1, 1, 0, 0, 0, 0, time.UTC),
		Gravida:             1,
		LastMenstrualPeriod: lmp,
		RiskFactors:         []string{"anemia"},
		Status:              domain.MotherActive,
	}, "chv-1")
	if err != nil {
		t.Fatalf("add mother: %v", err)
	}
	if m.MotherID != "KE-13-KE-13-09-M-0001" {
		t.Fatalf("mother id = %q", m.MotherID)
	}
	if want := lmp.AddDate(0, 0, 280); !m.ExpectedDeliveryDate.Equal(want) {
		t.Fatalf("edd = %s, want %s", m.ExpectedDeliveryDate, want)
	}
	if m.GestationalAge != 13 {
		t.Fatalf("gestational age = %d, want 13", m.GestationalAge)
	}
	if m.RiskLevel != domain.RiskMedium {
		t.Fatalf("risk level = %s, want medium", m.RiskLevel)
	}
	if m.ANCVisitsRequired != domain.DefaultANCVisitsRequired {
		t.Fatalf("anc visits required = %d", m.ANCVisitsRequired)
	}
}

func TestAddChildDerivesAgeAndNutrition(t *testing.T) {
	svc := newTestService(t)
	h := mustHousehold(t, svc, "chv-1")

	c, err := svc.AddChild(context.Background(), core.ChildInput{
		HouseholdID: h.ID,
		Name:        "Baraka",
		DateOfBirth: baseTime.AddDate(0, -14, 0),
		Sex:         domain.SexMale,
		MUACColor:   domain.MUACRed,
		MotherName:  "Achieng",
		Status:      domain.ChildActive,
	}, "chv-1")
	if err != nil {
		t.Fatalf("add child: %v", err)
	}
	if c.ChildID != "KE-13-KE-13-09-C-0001" {
		t.Fatalf("child id = %q", c.ChildID)
	}
	if c.AgeInMonths != 13 && c.AgeInMonths != 14 {
		t.Fatalf("age in months = %d", c.AgeInMonths)
	}
	if c.NutritionStatus != domain.NutritionSevere {
		t.Fatalf("nutrition status = %s", c.NutritionStatus)
	}
}

func TestDependantsRequireExistingHousehold(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()

	_, err := svc.AddMother(ctx, core.MotherInput{HouseholdID: "household_missing", Name: "X"}, "chv-1")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found for mother, got %v", err)
	}
	_, err = svc.AddChild(ctx, core.ChildInput{HouseholdID: "household_missing", Name: "Y"}, "chv-1")
	if !domain.IsNotFound(err) {
		t.Fatalf("expected not found for child, got %v", err)
	}
	_, _, err = svc.ReportDiseaseCase(ctx, core.DiseaseCaseInput{HouseholdID: "household_missing", Disease: domain.DiseaseMalaria}, "chv-1")
	var nf domain.ErrNotFound
	if !errors.As(err, &nf) || nf.Entity != domain.EntityHousehold {
		t.Fatalf("expected household not found for case, got %v", err)
	}

	// failed creations must not consume display ids
	h := mustHousehold(t, svc, "chv-1")
	m, err := svc.AddMother(ctx, core.MotherInput{HouseholdID: h.ID, Name: "Z"}, "chv-1")
	if err != nil {
		t.Fatalf("add mother: %v", err)
	}
	if m.MotherID != "KE-13-KE-13-09-M-0001" {
		t.Fatalf("mother id = %q", m.MotherID)
	}
	if len(svc.Mothers()) != 1 || len(svc.Children()) != 0 {
		t.Fatalf("failed creations left records behind")
	}
}

func TestUpdateHouseholdMergesPatch(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	h := mustHousehold(t, svc, "chv-1")

	members := 7
	status := domain.HouseholdPriority
	notes := "flooded latrine"
	updated, err := svc.UpdateHousehold(ctx, h.ID, core.HouseholdPatch{
		TotalMembers: &members,
		Status:       &status,
		Notes:        &notes,
	})
	if err != nil {
		t.Fatalf("update: %v", err)
	}
	if updated.TotalMembers != 7 || updated.Status != domain.HouseholdPriority || updated.Notes != notes {
		t.Fatalf("patch not applied: %+v", updated)
	}
	if updated.Adults != h.Adults || updated.HouseholdID != h.HouseholdID || !updated.RegisteredAt.Equal(h.RegisteredAt) {
		t.Fatalf("unpatched fields changed: %+v", updated)
	}

	if _, err := svc.UpdateHousehold(ctx, "household_missing", core.HouseholdPatch{}); !domain.IsNotFound(err) {
		t.Fatalf("expected not found, got %v", err)
	}
}

func TestReturnedRecordsAreCopies(t *testing.T) {
	svc := newTestService(t)
	h := mustHousehold(t, svc, "chv-1")

	h.Location.AdministrativeUnits[0] = "MUTATED"
	h.Location.GPSCoords.Lat = 0

	got, err := svc.Household(h.ID)
	if err != nil {
		t.Fatalf("household: %v", err)
	}
	if got.Location.AdministrativeUnits[0] != "KE-13" || got.Location.GPSCoords.Lat != -1.31 {
		t.Fatalf("caller mutation leaked into the repository: %+v", got.Location)
	}
}

func TestReportDiseaseCaseCascadesAndCopiesHouseholdGPS(t *testing.T) {
	rec := &recordingNotifier{}
	svc := newTestService(t, core.WithNotifier(rec))
	h := mustHousehold(t, svc, "chv-1")

	c, esc, err := svc.ReportDiseaseCase(context.Background(), core.DiseaseCaseInput{
		HouseholdID: h.ID,
		PatientName: "Juma",
		Disease:     domain.DiseaseCholera,
		OnsetDate:   baseTime.AddDate(0, 0, -2),
		Location: domain.CaseLocation{
			GPSCoords: &domain.GPS{Lat: 10, Lng: 10},
		},
	}, "chv-1")
	if err != nil {
		t.Fatalf("report case: %v", err)
	}
	if c.CaseID != "KE-13-KE-13-09-D-0001" {
		t.Fatalf("case id = %q", c.CaseID)
	}
	if c.Severity != domain.CaseCritical || c.EscalationLevel != domain.EscalationNational {
		t.Fatalf("classification = %s/%s", c.Severity, c.EscalationLevel)
	}
	if c.Status != domain.CaseSuspected {
		t.Fatalf("default status = %s", c.Status)
	}
	if c.Location.GPSCoords == nil || *c.Location.GPSCoords != *h.Location.GPSCoords {
		t.Fatalf("gps should come from household, got %+v", c.Location.GPSCoords)
	}
	if c.Location.Address != "Unknown location" {
		t.Fatalf("address = %q", c.Location.Address)
	}
	if len(c.Symptoms) == 0 {
		t.Fatalf("canonical symptoms should be seeded")
	}

	want := []domain.Tier{domain.TierNational, domain.TierDistrict, domain.TierFacility}
	got := rec.tiers()
	if len(got) != len(want) {
		t.Fatalf("tiers = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("tiers = %v, want %v", got, want)
		}
	}
	if !esc.Escalated || esc.Level != domain.EscalationNational || len(esc.Failed()) != 0 {
		t.Fatalf("unexpected escalation: %+v", esc)
	}
	if rec.sent[0].N.DisplayID != c.CaseID || rec.sent[0].N.Kind != domain.ReportDiseaseCase {
		t.Fatalf("notification payload mismatch: %+v", rec.sent[0].N)
	}
}

func TestReportDiseaseCaseFailedTierDoesNotRejectReport(t *testing.T) {
	rec := &recordingNotifier{fails: map[domain.Tier]error{domain.TierDistrict: errors.New("district offline")}}
	svc := newTestService(t, core.WithNotifier(rec))
	h := mustHousehold(t, svc, "chv-1")

	c, esc, err := svc.ReportDiseaseCase(context.Background(), core.DiseaseCaseInput{
		HouseholdID: h.ID,
		Disease:     domain.DiseaseMalaria,
		Symptoms:    []string{"fever"},
	}, "chv-1")
	if err != nil {
		t.Fatalf("report must succeed despite notifier failure: %v", err)
	}
	if len(rec.tiers()) != 2 {
		t.Fatalf("facility must still be attempted, tiers = %v", rec.tiers())
	}
	failed := esc.Failed()
	if len(failed) != 1 || failed[0].Tier != domain.TierDistrict || failed[0].Error != "district offline" {
		t.Fatalf("unexpected failed deliveries: %+v", failed)
	}
	if len(svc.DiseaseCasesByLocation("")) != 1 || c.Symptoms[0] != "fever" {
		t.Fatalf("case not stored as reported")
	}
}

func TestReportHazardEscalatesOnlyHighSeverity(t *testing.T) {
	rec := &recordingNotifier{}
	svc := newTestService(t, core.WithNotifier(rec))
	ctx := context.Background()

	low, esc, err := svc.ReportHazard(ctx, core.HazardInput{
		Type:     domain.HazardDrought,
		Severity: domain.HazardLow,
		Location: domain.HazardLocation{Address: "Turkana North"},
	}, "chv-1")
	if err != nil {
		t.Fatalf("report hazard: %v", err)
	}
	if esc.Escalated || len(rec.tiers()) != 0 {
		t.Fatalf("low severity must not escalate")
	}
	if low.Status != domain.HazardReported || low.HealthRisks == "" {
		t.Fatalf("defaults not applied: %+v", low)
	}

	_, esc, err = svc.ReportHazard(ctx, core.HazardInput{
		Type:     domain.HazardFlood,
		Severity: domain.HazardHigh,
		Location: domain.HazardLocation{Address: "Budalangi"},
	}, "chv-1")
	if err != nil {
		t.Fatalf("report hazard: %v", err)
	}
	got := rec.tiers()
	if !esc.Escalated || len(got) != 2 || got[0] != domain.TierNational || got[1] != domain.TierDistrict {
		t.Fatalf("high severity should reach national then district, got %v", got)
	}
}

func TestOperationsHonourCancelledContext(t *testing.T) {
	svc := newTestService(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	if _, err := svc.AddHousehold(ctx, householdInput("X"), "chv-1"); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if len(svc.HouseholdsByWorker("chv-1")) != 0 {
		t.Fatalf("cancelled call must not create records")
	}
}

func TestEmptyListsStayEmptyThroughReadsAndExport(t *testing.T) {
	svc := newTestService(t)
	ctx := context.Background()
	h := mustHousehold(t, svc, "chv-1")
	if _, err := svc.AddMother(ctx, core.MotherInput{HouseholdID: h.ID, Name: "Akinyi"}, "chv-1"); err != nil {
		t.Fatalf("add mother: %v", err)
	}
	if _, _, err := svc.ReportDiseaseCase(ctx, core.DiseaseCaseInput{HouseholdID: h.ID, Disease: domain.DiseaseMalaria}, "chv-1"); err != nil {
		t.Fatalf("report case: %v", err)
	}

	listed, err := json.Marshal(svc.HouseholdsByWorker("chv-1")[0])
	if err != nil {
		t.Fatalf("marshal household: %v", err)
	}
	if !strings.Contains(string(listed), `"vulnerableGroups":[]`) {
		t.Fatalf("listed household lost its empty list: %s", listed)
	}

	out, err := svc.ExportData("chv-1", core.FormatJSON)
	if err != nil {
		t.Fatalf("export: %v", err)
	}
	for _, field := range []string{"vulnerableGroups", "riskFactors", "contacts"} {
		if !strings.Contains(string(out), `"`+field+`": []`) {
			t.Errorf("export should write %s as an empty list", field)
		}
	}
}

func TestReportDiseaseCaseEscalatesAfterCallerDisconnects(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	n := &blockingNotifier{cancel: cancel}
	svc := newTestService(t, core.WithNotifier(n))
	h := mustHousehold(t, svc, "chv-1")

	_, esc, err := svc.ReportDiseaseCase(ctx, core.DiseaseCaseInput{HouseholdID: h.ID, Disease: domain.DiseaseEbola}, "chv-1")
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if len(n.calls) != 3 || len(esc.Failed()) != 0 {
		t.Fatalf("every tier must be delivered, calls=%v failed=%+v", n.calls, esc.Failed())
	}
	for i, live := range n.live {
		if !live {
			t.Fatalf("tier %s received a cancelled context", n.calls[i])
		}
	}
}
