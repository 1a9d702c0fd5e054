package httpapi

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chvcore/internal/adapters/exports"
	"chvcore/internal/core"
	blobmemory "chvcore/internal/infra/blob/memory"
	"chvcore/internal/infra/persistence/memory"
	"chvcore/pkg/domain"
)

type testServer struct {
	svc     *core.Service
	handler http.Handler
	worker  *exports.Worker
}

func newTestServer(t *testing.T) testServer {
	t.Helper()
	reg := prometheus.NewRegistry()
	svc := core.NewService(
		core.WithMetrics(core.NewMetrics(reg)),
		core.WithSlot(memory.NewSlot(), ""),
	)
	worker := exports.NewWorker(svc, blobmemory.New())
	worker.Start()
	t.Cleanup(func() { _ = worker.Stop(context.Background()) })
	h := New(svc, WithExports(worker), WithGatherer(reg))
	return testServer{svc: svc, handler: h.Router(), worker: worker}
}

func (s testServer) do(t *testing.T, method, path string, body any) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	return rec
}

func decodeBody[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var out T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out), rec.Body.String())
	return out
}

func registerHousehold(t *testing.T, s testServer) domain.Household {
	t.Helper()
	rec := s.do(t, http.MethodPost, "/workers/chv-1/households", core.HouseholdInput{
		HeadOfHousehold: domain.Contact{Name: "Achieng"},
		Location: domain.Location{
			Country:             "KE",
			AdministrativeUnits: []string{"KE-13", "KE-13-09"},
			GPSCoords:           &domain.GPS{Lat: -1.3, Lng: 36.8},
		},
		TotalMembers: 4,
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	return decodeBody[domain.Household](t, rec)
}

func TestHouseholdLifecycle(t *testing.T) {
	s := newTestServer(t)
	hh := registerHousehold(t, s)
	assert.Equal(t, "KE-13-KE-13-09-0001", hh.HouseholdID)

	rec := s.do(t, http.MethodGet, "/households/"+hh.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	members := 6
	rec = s.do(t, http.MethodPatch, "/households/"+hh.ID, core.HouseholdPatch{TotalMembers: &members})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 6, decodeBody[domain.Household](t, rec).TotalMembers)

	rec = s.do(t, http.MethodGet, "/workers/chv-1/households", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	list := decodeBody[map[string][]domain.Household](t, rec)
	assert.Len(t, list["households"], 1)

	rec = s.do(t, http.MethodGet, "/households/missing", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Contains(t, decodeBody[map[string]string](t, rec)["error"], "not found")
}

func TestRegisterDependantsAndSummary(t *testing.T) {
	s := newTestServer(t)
	hh := registerHousehold(t, s)

	rec := s.do(t, http.MethodPost, "/workers/chv-1/mothers", core.MotherInput{
		HouseholdID:         hh.ID,
		Name:                "Achieng",
		LastMenstrualPeriod: time.Now().UTC().AddDate(0, -3, 0),
		RiskFactors:         []string{"hypertension"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	m := decodeBody[domain.Mother](t, rec)
	assert.Equal(t, "KE-13-KE-13-09-M-0001", m.MotherID)
	assert.Equal(t, domain.RiskHigh, m.RiskLevel)

	rec = s.do(t, http.MethodPost, "/workers/chv-1/children", core.ChildInput{
		HouseholdID: hh.ID,
		Name:        "Baraka",
		DateOfBirth: time.Now().UTC().AddDate(-1, 0, 0),
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	rec = s.do(t, http.MethodPost, "/workers/chv-1/children", core.ChildInput{HouseholdID: "nope"})
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/households/"+hh.ID+"/summary", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	summary := decodeBody[core.HouseholdSummary](t, rec)
	assert.Len(t, summary.Mothers, 1)
	assert.Len(t, summary.Children, 1)

	rec = s.do(t, http.MethodGet, "/mothers?household="+hh.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[map[string][]domain.Mother](t, rec)["mothers"], 1)
}

func TestReportsReturnEscalation(t *testing.T) {
	s := newTestServer(t)
	hh := registerHousehold(t, s)

	rec := s.do(t, http.MethodPost, "/workers/chv-1/disease-cases", core.DiseaseCaseInput{
		HouseholdID: hh.ID,
		Disease:     domain.DiseaseMeasles,
		Location:    domain.CaseLocation{Address: "Kibera"},
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	body := decodeBody[escalatedReport[domain.DiseaseCase]](t, rec)
	assert.Equal(t, "KE-13-KE-13-09-D-0001", body.Record.CaseID)
	assert.True(t, body.Escalation.Escalated)
	assert.Len(t, body.Escalation.Deliveries, 3)

	rec = s.do(t, http.MethodPost, "/workers/chv-1/hazards", core.HazardInput{
		Type:     domain.HazardLandslide,
		Severity: domain.HazardHigh,
		Location: domain.HazardLocation{Address: "Murang'a"},
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(t, http.MethodGet, "/disease-cases?location=Kib", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[map[string][]domain.DiseaseCase](t, rec)["diseaseCases"], 1)

	rec = s.do(t, http.MethodGet, "/hazards?location=Nairobi", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, decodeBody[map[string][]domain.Hazard](t, rec)["hazards"])

	rec = s.do(t, http.MethodGet, "/workers/chv-1/stats", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	stats := decodeBody[core.WorkerStats](t, rec)
	assert.Equal(t, 1, stats.DiseaseReports)
	assert.Equal(t, 1, stats.HazardReports)
}

func TestBadBodyIsRejected(t *testing.T) {
	s := newTestServer(t)
	req := httptest.NewRequest(http.MethodPost, "/workers/chv-1/households", strings.NewReader("{"))
	rec := httptest.NewRecorder()
	s.handler.ServeHTTP(rec, req)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestDiseaseCatalogRoutes(t *testing.T) {
	s := newTestServer(t)
	rec := s.do(t, http.MethodGet, "/diseases/cholera", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	view := decodeBody[map[string]any](t, rec)
	assert.Equal(t, "national", view["escalation"])
	assert.Equal(t, "Cholera", view["name"])

	rec = s.do(t, http.MethodGet, "/diseases/flu", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(t, http.MethodGet, "/diseases", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Len(t, decodeBody[map[string][]map[string]any](t, rec)["diseases"], 16)
}

func TestExportDownloadAndArchive(t *testing.T) {
	s := newTestServer(t)
	registerHousehold(t, s)

	rec := s.do(t, http.MethodGet, "/workers/chv-1/export?format=csv", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "text/csv", rec.Header().Get("Content-Type"))
	assert.Contains(t, rec.Header().Get("Content-Disposition"), "chv-1-export.csv")
	assert.True(t, strings.HasPrefix(rec.Body.String(), "Type,ID,Name,Status,Date\nHousehold,KE-13-KE-13-09-0001"))

	rec = s.do(t, http.MethodGet, "/workers/chv-1/export?format=pdf", nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(t, http.MethodPost, "/workers/chv-1/exports?format=json,xlsx", nil)
	require.Equal(t, http.StatusAccepted, rec.Code, rec.Body.String())
	queued := decodeBody[exports.Record](t, rec)
	assert.Equal(t, "/exports/"+queued.ID, rec.Header().Get("Location"))

	require.Eventually(t, func() bool {
		r, ok := s.worker.Get(queued.ID)
		return ok && r.Status == exports.ExportStatusSucceeded
	}, 2*time.Second, 10*time.Millisecond)

	rec = s.do(t, http.MethodGet, "/exports/"+queued.ID, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	done := decodeBody[exports.Record](t, rec)
	assert.Len(t, done.Artifacts, 2)

	rec = s.do(t, http.MethodGet, "/exports/unknown", nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSyncHealthAndMetrics(t *testing.T) {
	s := newTestServer(t)
	registerHousehold(t, s)

	rec := s.do(t, http.MethodPost, "/sync", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "saved", decodeBody[map[string]any](t, rec)["status"])

	rec = s.do(t, http.MethodGet, "/healthz", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, decodeBody[map[string]any](t, rec), "lastSync")

	rec = s.do(t, http.MethodGet, "/metrics", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), `chvcore_records_created_total{entity="household"} 1`)
	assert.Contains(t, rec.Body.String(), "chvcore_snapshot_operations_total")
}
