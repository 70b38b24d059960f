package api

import (
	"bytes"
	"net/http"
	"strings"

	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/export"
	"github.com/weatherengine/maritime/internal/models"
)

// analyzeRequest is the body of POST /recommendations/analyze
type analyzeRequest struct {
	Wind       *float64 `json:"wind"`
	Wave       *float64 `json:"wave"`
	Visibility *float64 `json:"visibility"`
}

func (a analyzeRequest) conditions() (models.Conditions, error) {
	fields := []struct {
		name string
		v    *float64
	}{
		{"wind", a.Wind},
		{"wave", a.Wave},
		{"visibility", a.Visibility},
	}
	for _, f := range fields {
		if f.v == nil {
			return models.Conditions{}, apperrors.ValidationError{Field: f.name, Message: "is required"}
		}
	}
	return models.Conditions{Wind: *a.Wind, Wave: *a.Wave, Visibility: *a.Visibility}, nil
}

// recommendationsHandler handles GET /recommendations
func (h *Handler) recommendationsHandler(w http.ResponseWriter, r *http.Request) {
	set, err := h.recommend.Current(r.Context())
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, set)
}

// analyzeHandler handles POST /recommendations/analyze
func (h *Handler) analyzeHandler(w http.ResponseWriter, r *http.Request) {
	var req analyzeRequest
	if err := decodeBody(r, &req); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	cond, err := req.conditions()
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	set, err := h.recommend.Analyze(r.Context(), cond)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, set)
}

// refreshConditionsHandler handles POST /recommendations/refresh?city=
func (h *Handler) refreshConditionsHandler(w http.ResponseWriter, r *http.Request) {
	city := strings.TrimSpace(r.URL.Query().Get("city"))
	if city == "" {
		city = h.defaultCity
	}
	set, err := h.recommend.RefreshConditions(r.Context(), city)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, set)
}

// applyRecommendationHandler handles POST /recommendations/{id}/apply
func (h *Handler) applyRecommendationHandler(w http.ResponseWriter, r *http.Request) {
	id, err := parseID(r)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	res, err := h.recommend.Apply(r.Context(), id)
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	h.writeJSONResponse(w, http.StatusOK, res)
}

// recommendationsReportHandler handles GET /recommendations/report
func (h *Handler) recommendationsReportHandler(w http.ResponseWriter, r *http.Request) {
	set, err := h.recommend.Current(r.Context())
	if err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	now := h.now()
	var buf bytes.Buffer
	if err := export.RecommendationsReport(&buf, set, now); err != nil {
		h.writeErrorResponse(w, r, err)
		return
	}
	writeAttachment(w, "text/plain; charset=utf-8", export.ReportFilename(now), buf.Bytes())
}
