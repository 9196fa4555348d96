package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	"sentinel/internal/evaluator"
	"sentinel/internal/models"
	"sentinel/internal/service"
	"sentinel/internal/thresholds"
)

// AlertHandler exposes the alert service over HTTP. It only shapes
// arguments and maps errors to status codes; business logic stays in the
// service.
type AlertHandler struct {
	svc *service.Service
}

// NewAlertHandler creates the HTTP facade over the alert service
func NewAlertHandler(svc *service.Service) *AlertHandler {
	return &AlertHandler{svc: svc}
}

// Register mounts all alert routes on the mux
func (h *AlertHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /ingest", h.ingest)
	mux.HandleFunc("GET /alerts", h.listCurrent)
	mux.HandleFunc("POST /alerts", h.triggerManual)
	mux.HandleFunc("GET /alerts/history", h.listHistory)
	mux.HandleFunc("GET /alerts/stats", h.stats)
	mux.HandleFunc("POST /alerts/clear-resolved", h.clearResolved)
	mux.HandleFunc("POST /alerts/{id}/resolve", h.resolveAlert)
	mux.HandleFunc("DELETE /alerts/{id}", h.deleteAlert)
	mux.HandleFunc("GET /thresholds", h.getThresholds)
	mux.HandleFunc("PUT /thresholds", h.updateThresholds)
	mux.HandleFunc("POST /notify/test", h.sendTest)
}

type errorResponse struct {
	Error string `json:"error"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v) //nolint:errcheck
}

func writeError(w http.ResponseWriter, status int, err error) {
	writeJSON(w, status, errorResponse{Error: err.Error()})
}

// parseFilter extracts limit/type/severity (and optional date range) from
// query parameters.
func parseFilter(r *http.Request, withDates bool) (models.Filter, error) {
	var f models.Filter
	q := r.URL.Query()

	f.Type = q.Get("type")
	if raw := q.Get("severity"); raw != "" {
		sev, err := models.ParseSeverity(raw)
		if err != nil {
			return f, err
		}
		f.Severity = sev
	}
	if raw := q.Get("limit"); raw != "" {
		limit, err := strconv.Atoi(raw)
		if err != nil || limit < 0 {
			return f, errors.New("limit must be a non-negative integer")
		}
		f.Limit = limit
	}
	if !withDates {
		return f, nil
	}
	if raw := q.Get("startDate"); raw != "" {
		start, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("startDate must be RFC3339")
		}
		f.Start = start
	}
	if raw := q.Get("endDate"); raw != "" {
		end, err := time.Parse(time.RFC3339, raw)
		if err != nil {
			return f, errors.New("endDate must be RFC3339")
		}
		f.End = end
	}
	return f, nil
}

type ingestRequest struct {
	Metric string   `json:"metric"`
	Value  *float64 `json:"value"`
}

type ingestResponse struct {
	Fired bool          `json:"fired"`
	Alert *models.Alert `json:"alert,omitempty"`
}

// ingest accepts a single metric reading
func (h *AlertHandler) ingest(w http.ResponseWriter, r *http.Request) {
	var req ingestRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if req.Metric == "" || req.Value == nil {
		writeError(w, http.StatusBadRequest, errors.New("metric and value are required"))
		return
	}

	alert, err := h.svc.Ingest(r.Context(), req.Metric, *req.Value)
	if err != nil {
		if errors.Is(err, evaluator.ErrUnknownMetric) || errors.Is(err, evaluator.ErrNonNumericValue) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}

	writeJSON(w, http.StatusOK, ingestResponse{Fired: alert != nil, Alert: alert})
}

func (h *AlertHandler) listCurrent(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r, false)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.Current(f))
}

func (h *AlertHandler) listHistory(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r, true)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, h.svc.History(f))
}

func (h *AlertHandler) stats(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.Stats())
}

type triggerRequest struct {
	Type      string  `json:"type"`
	Message   string  `json:"message"`
	Severity  string  `json:"severity"`
	Value     float64 `json:"value"`
	Threshold float64 `json:"threshold"`
}

func (h *AlertHandler) triggerManual(w http.ResponseWriter, r *http.Request) {
	var req triggerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}

	var severity models.Severity
	if req.Severity != "" {
		parsed, err := models.ParseSeverity(req.Severity)
		if err != nil {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		severity = parsed
	}

	alert, err := h.svc.TriggerManual(r.Context(), req.Type, req.Message, severity,
		service.ManualAlert{Value: req.Value, Threshold: req.Threshold})
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusCreated, alert)
}

func (h *AlertHandler) resolveAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.svc.ResolveAlert(id) {
		writeError(w, http.StatusNotFound, errors.New("alert not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"resolved": true})
}

func (h *AlertHandler) deleteAlert(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	if !h.svc.DeleteAlert(id) {
		writeError(w, http.StatusNotFound, errors.New("alert not found"))
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"deleted": true})
}

func (h *AlertHandler) clearResolved(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.ClearResolved())
}

func (h *AlertHandler) getThresholds(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, http.StatusOK, h.svc.GetThresholds())
}

func (h *AlertHandler) updateThresholds(w http.ResponseWriter, r *http.Request) {
	var partial models.ThresholdSet
	if err := json.NewDecoder(r.Body).Decode(&partial); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}

	updated, err := h.svc.UpdateThresholds(partial)
	if err != nil {
		if errors.Is(err, thresholds.ErrInvalidThreshold) || errors.Is(err, thresholds.ErrUnknownMetric) {
			writeError(w, http.StatusBadRequest, err)
			return
		}
		writeError(w, http.StatusInternalServerError, err)
		return
	}
	writeJSON(w, http.StatusOK, updated)
}

type testRequest struct {
	Channel string `json:"channel"`
}

// sendTest dispatches a synthetic alert. Partial channel failures are a
// 200 with the per-channel result map; only an unknown channel is an error.
func (h *AlertHandler) sendTest(w http.ResponseWriter, r *http.Request) {
	var req testRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, errors.New("invalid JSON body"))
		return
	}
	if req.Channel == "" {
		writeError(w, http.StatusBadRequest, errors.New("channel is required"))
		return
	}

	result, err := h.svc.SendTest(r.Context(), req.Channel)
	if err != nil {
		writeError(w, http.StatusBadRequest, err)
		return
	}
	writeJSON(w, http.StatusOK, result)
}
