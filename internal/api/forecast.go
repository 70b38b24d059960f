package api

import (
	"bytes"
	"net/http"

	"github.com/weatherengine/maritime/internal/export"
)

// forecastHandler handles GET /forecast?city=
func (h *Handler) forecastHandler(w http.ResponseWriter, r *http.Request) {
	fc, err := h.forecast.Fetch(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, fc)
}

// routePlanHandler handles GET /forecast/route-plan?city=
func (h *Handler) routePlanHandler(w http.ResponseWriter, r *http.Request) {
	fc, plan, err := h.forecast.RoutePlan(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, map[string]interface{}{
		"city":     fc.City,
		"fallback": fc.Fallback,
		"plan":     plan,
	})
}

// exportForecastHandler handles GET /forecast/export?city=
func (h *Handler) exportForecastHandler(w http.ResponseWriter, r *http.Request) {
	fc, err := h.forecast.Fetch(r.Context(), r.URL.Query().Get("city"))
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	var buf bytes.Buffer
	if err := export.ForecastCSV(&buf, fc.Days); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeAttachment(w, "text/csv; charset=utf-8", export.ForecastFilename(fc.City, h.now()), buf.Bytes())
}
