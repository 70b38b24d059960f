package api

import (
	"bytes"
	"encoding/json"
	"mime"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/weatherengine/maritime/internal/auth"
	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/export"
	"github.com/weatherengine/maritime/internal/models"
)

// listAlertsHandler handles GET /alerts?filter=
func (h *Handler) listAlertsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}

	list, err := h.alerts.Filter(r.Context(), filter)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}

	response := map[string]interface{}{
		"data":      list,
		"count":     len(list),
		"filter":    filter.String(),
		"timestamp": h.now(),
	}
	h.writeJSONResponse(w, http.StatusOK, response)
}

// getAlertHandler handles GET /alerts/{id}
func (h *Handler) getAlertHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}

	alert, err := h.alerts.Get(r.Context(), id)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, alert)
}

// alertStatsHandler handles GET /alerts/stats
func (h *Handler) alertStatsHandler(w http.ResponseWriter, r *http.Request) {
	stats, err := h.alerts.Statistics(r.Context())
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, stats)
}

// archivedAlertsHandler handles GET /alerts/archive
func (h *Handler) archivedAlertsHandler(w http.ResponseWriter, r *http.Request) {
	archived, err := h.alerts.Archived(r.Context())
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"data":  archived,
		"count": len(archived),
	})
}

// exportAlertsHandler handles GET /alerts/export?filter=
func (h *Handler) exportAlertsHandler(w http.ResponseWriter, r *http.Request) {
	filter, err := parseFilter(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	list, err := h.alerts.Filter(r.Context(), filter)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}

	var buf bytes.Buffer
	if err := export.AlertsCSV(&buf, list); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", export.AlertsFilename(h.now()), buf.Bytes())
}

// refreshAlertsHandler handles POST /alerts/refresh
func (h *Handler) refreshAlertsHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.alerts.Refresh(r.Context())
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, res)
}

// acknowledgeHandler handles POST /alerts/{id}/acknowledge
func (h *Handler) acknowledgeHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	res, err := h.alerts.Acknowledge(r.Context(), id, auth.OperatorName(r.Context()))
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, res)
}

// acknowledgeAllHandler handles POST /alerts/acknowledge-all
func (h *Handler) acknowledgeAllHandler(w http.ResponseWriter, r *http.Request) {
	res, err := h.alerts.AcknowledgeAll(r.Context(), auth.OperatorName(r.Context()))
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, res)
}

// dismissHandler handles DELETE /alerts/{id}
func (h *Handler) dismissHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	archived, err := h.alerts.Dismiss(r.Context(), id, auth.OperatorName(r.Context()))
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, archived)
}

// getPreferencesHandler handles GET /alerts/preferences
func (h *Handler) getPreferencesHandler(w http.ResponseWriter, r *http.Request) {
	prefs, err := h.alerts.Preferences(r.Context())
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, prefs)
}

// updatePreferencesHandler handles PUT /alerts/preferences
func (h *Handler) updatePreferencesHandler(w http.ResponseWriter, r *http.Request) {
	var prefs models.Preferences
	if err := decodeBody(r, &prefs); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	saved, err := h.alerts.UpdatePreferences(r.Context(), prefs)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, saved)
}

func parseFilter(r *http.Request) (models.AlertFilter, error) {
	f, err := models.ParseFilter(r.URL.Query().Get("filter"))
	if err != nil {
		return f, apperrors.ValidationError{Field: "filter", Message: err.Error()}
	}
	return f, nil
}

func parseID(r *http.Request) (int, error) {
	raw := chi.URLParam(r, "id")
	id, err := strconv.Atoi(raw)
	if err != nil || id <= 0 {
		return 0, apperrors.ValidationError{Field: "id", Message: "must be a positive integer"}
	}
	return id, nil
}

func decodeBody(r *http.Request, dst any) error {
	dec := json.NewDecoder(http.MaxBytesReader(nil, r.Body, 1<<20))
	dec.DisallowUnknownFields()
	if err := dec.Decode(dst); err != nil {
		return apperrors.ValidationError{Field: "body", Message: "invalid JSON: " + err.Error()}
	}
	return nil
}

func writeAttachment(w http.ResponseWriter, contentType, filename string, body []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", mime.FormatMediaType("attachment", map[string]string{"filename": filename}))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write(body)
}
