package httpapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"
	"go.uber.org/zap"

	"chvcore/internal/adapters/exports"
	"chvcore/internal/core"
	"chvcore/pkg/domain"
)

type escalatedReport[T any] struct {
	Record     T               `json:"record"`
	Escalation core.Escalation `json:"escalation"`
}

func (h *Handler) handleHealth(w http.ResponseWriter, _ *http.Request) {
	body := map[string]any{"status": "ok"}
	if ts, ok := h.svc.LastSync(); ok {
		body["lastSync"] = ts
	}
	writeJSON(w, http.StatusOK, body)
}

func (h *Handler) handleSync(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.OnConnectivityRestored(r.Context()); err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	ts, _ := h.svc.LastSync()
	writeJSON(w, http.StatusOK, map[string]any{"status": "saved", "lastSync": ts})
}

func (h *Handler) handleAddHousehold(w http.ResponseWriter, r *http.Request) {
	var in core.HouseholdInput
	if !decode(w, r, &in) {
		return
	}
	hh, err := h.svc.AddHousehold(r.Context(), in, chi.URLParam(r, "workerID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, hh)
}

func (h *Handler) handleListHouseholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"households": h.svc.HouseholdsByWorker(chi.URLParam(r, "workerID"))})
}

func (h *Handler) handleGetHousehold(w http.ResponseWriter, r *http.Request) {
	hh, err := h.svc.Household(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

func (h *Handler) handleUpdateHousehold(w http.ResponseWriter, r *http.Request) {
	var patch core.HouseholdPatch
	if !decode(w, r, &patch) {
		return
	}
	hh, err := h.svc.UpdateHousehold(r.Context(), chi.URLParam(r, "id"), patch)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, hh)
}

func (h *Handler) handleHouseholdSummary(w http.ResponseWriter, r *http.Request) {
	summary, err := h.svc.Summary(chi.URLParam(r, "id"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func (h *Handler) handleAddMother(w http.ResponseWriter, r *http.Request) {
	var in core.MotherInput
	if !decode(w, r, &in) {
		return
	}
	m, err := h.svc.AddMother(r.Context(), in, chi.URLParam(r, "workerID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, m)
}

func (h *Handler) handleListMothers(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("household"); id != "" {
		writeJSON(w, http.StatusOK, map[string]any{"mothers": h.svc.MothersByHousehold(id)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"mothers": h.svc.Mothers()})
}

func (h *Handler) handleAddChild(w http.ResponseWriter, r *http.Request) {
	var in core.ChildInput
	if !decode(w, r, &in) {
		return
	}
	c, err := h.svc.AddChild(r.Context(), in, chi.URLParam(r, "workerID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, c)
}

func (h *Handler) handleListChildren(w http.ResponseWriter, r *http.Request) {
	if id := r.URL.Query().Get("household"); id != "" {
		writeJSON(w, http.StatusOK, map[string]any{"children": h.svc.ChildrenByHousehold(id)})
		return
	}
	writeJSON(w, http.StatusOK, map[string]any{"children": h.svc.Children()})
}

func (h *Handler) handleReportHazard(w http.ResponseWriter, r *http.Request) {
	var in core.HazardInput
	if !decode(w, r, &in) {
		return
	}
	hz, esc, err := h.svc.ReportHazard(r.Context(), in, chi.URLParam(r, "workerID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, escalatedReport[core.Hazard]{Record: hz, Escalation: esc})
}

func (h *Handler) handleListHazards(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"hazards": h.svc.HazardsByLocation(r.URL.Query().Get("location"))})
}

func (h *Handler) handleReportDiseaseCase(w http.ResponseWriter, r *http.Request) {
	var in core.DiseaseCaseInput
	if !decode(w, r, &in) {
		return
	}
	c, esc, err := h.svc.ReportDiseaseCase(r.Context(), in, chi.URLParam(r, "workerID"))
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, escalatedReport[core.DiseaseCase]{Record: c, Escalation: esc})
}

func (h *Handler) handleListDiseaseCases(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, map[string]any{"diseaseCases": h.svc.DiseaseCasesByLocation(r.URL.Query().Get("location"))})
}

type diseaseView struct {
	domain.Disease
	Severity   domain.CaseSeverity    `json:"severity"`
	Escalation domain.EscalationLevel `json:"escalation"`
}

func viewOf(d domain.Disease) diseaseView {
	c := domain.ClassifyDisease(d.ID)
	return diseaseView{Disease: d, Severity: c.Severity, Escalation: c.Escalation}
}

func (h *Handler) handleListDiseases(w http.ResponseWriter, _ *http.Request) {
	all := domain.Diseases()
	out := make([]diseaseView, 0, len(all))
	for _, d := range all {
		out = append(out, viewOf(d))
	}
	writeJSON(w, http.StatusOK, map[string]any{"diseases": out})
}

func (h *Handler) handleGetDisease(w http.ResponseWriter, r *http.Request) {
	d, ok := domain.LookupDisease(domain.DiseaseID(chi.URLParam(r, "id")))
	if !ok {
		writeError(w, http.StatusNotFound, "disease not found")
		return
	}
	writeJSON(w, http.StatusOK, viewOf(d))
}

func (h *Handler) handleStats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats(chi.URLParam(r, "workerID")))
}

func (h *Handler) handleExport(w http.ResponseWriter, r *http.Request) {
	format, err := core.ParseExportFormat(r.URL.Query().Get("format"))
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	workerID := chi.URLParam(r, "workerID")
	payload, err := h.svc.ExportData(workerID, format)
	if err != nil {
		h.writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", format.ContentType())
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", workerID+"-export."+format.Extension()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(payload)
}

func (h *Handler) handleEnqueueExport(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		writeError(w, http.StatusNotFound, "export archive not configured")
		return
	}
	var formats []core.ExportFormat
	for _, f := range strings.Split(r.URL.Query().Get("format"), ",") {
		if f = strings.TrimSpace(f); f != "" {
			formats = append(formats, core.ExportFormat(f))
		}
	}
	rec, err := h.exports.Enqueue(r.Context(), exports.Input{WorkerID: chi.URLParam(r, "workerID"), Formats: formats})
	if err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}
	w.Header().Set("Location", "/exports/"+rec.ID)
	writeJSON(w, http.StatusAccepted, rec)
}

func (h *Handler) handleGetExport(w http.ResponseWriter, r *http.Request) {
	if h.exports == nil {
		writeError(w, http.StatusNotFound, "export archive not configured")
		return
	}
	rec, ok := h.exports.Get(chi.URLParam(r, "id"))
	if !ok {
		writeError(w, http.StatusNotFound, "export not found")
		return
	}
	writeJSON(w, http.StatusOK, rec)
}

func (h *Handler) writeServiceError(w http.ResponseWriter, r *http.Request, err error) {
	if domain.IsNotFound(err) {
		writeError(w, http.StatusNotFound, err.Error())
		return
	}
	h.logger.Error("request failed",
		zap.String("method", r.Method),
		zap.String("path", r.URL.Path),
		zap.Error(err))
	writeError(w, http.StatusInternalServerError, err.Error())
}
