package api

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"

	"github.com/weatherengine/maritime/internal/alerts"
	"github.com/weatherengine/maritime/internal/forecast"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/recommend"
	"github.com/weatherengine/maritime/internal/store"
)

// Deps are the services the API exposes
type Deps struct {
	Alerts          *alerts.Service
	Forecast        *forecast.Service
	Recommendations *recommend.Service
	Store           store.Store
	// Events serves the websocket stream; nil disables /v1/ws
	Events http.Handler
	// WriteLimit guards mutating endpoints; nil disables it
	WriteLimit  func(http.Handler) http.Handler
	DefaultCity string

	Version   string
	BuildTime string
	GitCommit string
}

// Handler handles HTTP requests for the API
type Handler struct {
	alerts      *alerts.Service
	forecast    *forecast.Service
	recommend   *recommend.Service
	store       store.Store
	events      http.Handler
	writeLimit  func(http.Handler) http.Handler
	defaultCity string
	version     string
	buildTime   string
	gitCommit   string
	startTime   time.Time
	now         func() time.Time
}

// NewHandler creates a new API handler
func NewHandler(d Deps) *Handler {
	writeLimit := d.WriteLimit
	if writeLimit == nil {
		writeLimit = func(next http.Handler) http.Handler { return next }
	}
	return &Handler{
		alerts:      d.Alerts,
		forecast:    d.Forecast,
		recommend:   d.Recommendations,
		store:       d.Store,
		events:      d.Events,
		writeLimit:  writeLimit,
		defaultCity: d.DefaultCity,
		version:     d.Version,
		buildTime:   d.BuildTime,
		gitCommit:   d.GitCommit,
		startTime:   time.Now(),
		now:         func() time.Time { return time.Now().UTC() },
	}
}

// RegisterRoutes registers all API routes
func (h *Handler) RegisterRoutes(r chi.Router) {
	r.Route("/v1", func(r chi.Router) {
		// Health check endpoints
		r.Get("/health", h.healthHandler)
		r.Get("/health/ready", h.readinessHandler)
		r.Get("/health/live", h.livenessHandler)
		r.Get("/version", h.versionHandler)

		r.Get("/alerts", h.listAlertsHandler)
		r.Get("/alerts/stats", h.alertStatsHandler)
		r.Get("/alerts/archive", h.archivedAlertsHandler)
		r.Get("/alerts/export", h.exportAlertsHandler)
		r.Get("/alerts/preferences", h.getPreferencesHandler)
		r.Get("/alerts/{id}", h.getAlertHandler)

		r.Get("/forecast", h.forecastHandler)
		r.Get("/forecast/export", h.exportForecastHandler)
		r.Get("/forecast/route-plan", h.routePlanHandler)

		r.Get("/recommendations", h.recommendationsHandler)
		r.Get("/recommendations/report", h.recommendationsReportHandler)

		// Mutating endpoints share the write budget
		r.Group(func(r chi.Router) {
			r.Use(h.writeLimit)
			r.Post("/alerts/refresh", h.refreshAlertsHandler)
			r.Post("/alerts/acknowledge-all", h.acknowledgeAllHandler)
			r.Post("/alerts/{id}/acknowledge", h.acknowledgeHandler)
			r.Delete("/alerts/{id}", h.dismissHandler)
			r.Put("/alerts/preferences", h.updatePreferencesHandler)

			r.Post("/recommendations/analyze", h.analyzeHandler)
			r.Post("/recommendations/refresh", h.refreshConditionsHandler)
			r.Post("/recommendations/{id}/apply", h.applyRecommendationHandler)
		})

		if h.events != nil {
			r.Get("/ws", h.events.ServeHTTP)
		}
	})

	// Root health check
	r.Get("/health", h.healthHandler)
}

// healthHandler provides basic health check
func (h *Handler) healthHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "ok",
		"timestamp": h.now(),
		"version":   h.version,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// readinessHandler checks if the application is ready to serve traffic
func (h *Handler) readinessHandler(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	checks := map[string]string{
		"store": "ok",
	}
	status := "ready"
	statusCode := http.StatusOK

	if err := h.store.Health(ctx); err != nil {
		checks["store"] = "error: " + err.Error()
		status = "not ready"
		statusCode = http.StatusServiceUnavailable
	}

	response := map[string]interface{}{
		"status":    status,
		"timestamp": h.now(),
		"checks":    checks,
	}

	h.writeJSONResponse(w, statusCode, response)
}

// livenessHandler checks if the application is alive
func (h *Handler) livenessHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"status":    "alive",
		"timestamp": h.now(),
		"uptime":    time.Since(h.startTime).String(),
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// versionHandler returns version information
func (h *Handler) versionHandler(w http.ResponseWriter, r *http.Request) {
	response := map[string]interface{}{
		"version":    h.version,
		"build_time": h.buildTime,
		"git_commit": h.gitCommit,
	}

	h.writeJSONResponse(w, http.StatusOK, response)
}

// writeJSONResponse writes a JSON response
func (h *Handler) writeJSONResponse(w http.ResponseWriter, statusCode int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	if err := json.NewEncoder(w).Encode(data); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// writeErrorResponse maps err to a status and writes a standardized error
func (h *Handler) writeErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	statusCode, retryable := statusFor(err)
	message := err.Error()
	if statusCode == http.StatusInternalServerError {
		logger.WithContext(r.Context()).Error("Request failed", "path", r.URL.Path, "error", err)
		message = "Internal server error"
	} else {
		logger.WithContext(r.Context()).Warn("Request rejected", "path", r.URL.Path, "status", statusCode, "error", err)
	}

	response := ErrorResponse{
		Error:     http.StatusText(statusCode),
		Message:   message,
		Retryable: retryable,
		Timestamp: h.now(),
		RequestID: middleware.GetReqID(r.Context()),
	}

	h.writeJSONResponse(w, statusCode, response)
}

// ErrorResponse represents an API error response
type ErrorResponse struct {
	Error     string    `json:"error"`
	Message   string    `json:"message,omitempty"`
	Retryable bool      `json:"retryable"`
	Timestamp time.Time `json:"timestamp"`
	RequestID string    `json:"request_id,omitempty"`
}
