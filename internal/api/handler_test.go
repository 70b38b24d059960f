package api

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"mime"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/weatherengine/maritime/internal/alerts"
	"github.com/weatherengine/maritime/internal/backend"
	"github.com/weatherengine/maritime/internal/classifier"
	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/fixtures"
	"github.com/weatherengine/maritime/internal/forecast"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/models"
	"github.com/weatherengine/maritime/internal/recommend"
	"github.com/weatherengine/maritime/internal/store"
)

var testNow = time.Date(2026, 5, 10, 12, 0, 0, 0, time.UTC)

// fakeUpstream implements every upstream interface the services need
type fakeUpstream struct {
	mu       sync.Mutex
	ackErr   error
	ackCalls [][]int
	applyErr error
	prefs    *models.Preferences
}

func (f *fakeUpstream) Acknowledge(ctx context.Context, ids []int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.ackCalls = append(f.ackCalls, ids)
	return f.ackErr
}

func (f *fakeUpstream) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prefs = &prefs
	return nil
}

func (f *fakeUpstream) Forecast10(ctx context.Context, city string) (*backend.ForecastResponse, error) {
	return nil, apperrors.NetworkError{Op: "forecast10", Err: errors.New("connection refused")}
}

func (f *fakeUpstream) CityWeather(ctx context.Context, city string) (*backend.CityWeather, error) {
	if city == "Nowhere" {
		return nil, apperrors.BackendError{Op: "city_weather", StatusCode: 404}
	}
	w := &backend.CityWeather{Name: city}
	w.Wind.Speed = 10
	return w, nil
}

func (f *fakeUpstream) Advisory(ctx context.Context, cond models.Conditions) (*models.Advisory, error) {
	return nil, apperrors.NetworkError{Op: "advisory", Timeout: true, Err: context.DeadlineExceeded}
}

func (f *fakeUpstream) ApplyAction(ctx context.Context, req backend.ActionRequest) (*backend.ActionResponse, error) {
	if f.applyErr != nil {
		return nil, f.applyErr
	}
	return &backend.ActionResponse{Status: "success", ActionTaken: req.Action}, nil
}

type seedSource struct{}

func (seedSource) Name() string { return "seed" }

func (seedSource) Fetch(ctx context.Context) ([]models.Alert, error) {
	return fixtures.Alerts(testNow)
}

// testStore lets readiness failures be injected
type testStore struct {
	store.Store
	health error
}

func (s *testStore) Health(ctx context.Context) error { return s.health }

type testEnv struct {
	router   *chi.Mux
	upstream *fakeUpstream
	store    *testStore
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	logger.Init("error", "text")

	up := &fakeUpstream{}
	st := &testStore{Store: store.NewInMemoryStore()}
	alertSvc := alerts.NewService(st, up, seedSource{}, alerts.WithClock(func() time.Time { return testNow }))
	if _, err := alertSvc.Refresh(context.Background()); err != nil {
		t.Fatalf("seed refresh: %v", err)
	}
	forecastSvc := forecast.NewService(up, forecast.NewProjector(classifier.New()), nil, time.Minute, "Mumbai")
	recSvc := recommend.NewService(recommend.NewEngine(), st, up, nil)

	h := NewHandler(Deps{
		Alerts:          alertSvc,
		Forecast:        forecastSvc,
		Recommendations: recSvc,
		Store:           st,
		DefaultCity:     "Mumbai",
		Version:         "test-version",
		BuildTime:       "test-build-time",
		GitCommit:       "test-commit",
	})
	h.now = func() time.Time { return testNow }

	r := chi.NewRouter()
	h.RegisterRoutes(r)
	return &testEnv{router: r, upstream: up, store: st}
}

func (e *testEnv) do(method, target, body string) *httptest.ResponseRecorder {
	var req *http.Request
	if body != "" {
		req = httptest.NewRequest(method, target, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	w := httptest.NewRecorder()
	e.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, dst any) {
	t.Helper()
	if err := json.NewDecoder(w.Body).Decode(dst); err != nil {
		t.Fatalf("Failed to decode JSON response: %v", err)
	}
}

// attachmentName parses Content-Disposition and returns its filename
func attachmentName(t *testing.T, w *httptest.ResponseRecorder) string {
	t.Helper()
	disposition, params, err := mime.ParseMediaType(w.Header().Get("Content-Disposition"))
	if err != nil {
		t.Fatalf("Expected a parsable Content-Disposition, got %q: %v", w.Header().Get("Content-Disposition"), err)
	}
	if disposition != "attachment" {
		t.Errorf("Expected attachment disposition, got %s", disposition)
	}
	return params["filename"]
}

func TestHandler_HealthEndpoints(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name           string
		endpoint       string
		expectedStatus int
		checkBody      bool
	}{
		{"Basic health check", "/health", http.StatusOK, true},
		{"V1 health check", "/v1/health", http.StatusOK, true},
		{"Readiness check - healthy", "/v1/health/ready", http.StatusOK, true},
		{"Liveness check", "/v1/health/live", http.StatusOK, true},
		{"Version endpoint", "/v1/version", http.StatusOK, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("GET", tt.endpoint, "")
			if w.Code != tt.expectedStatus {
				t.Errorf("Expected status %d, got %d", tt.expectedStatus, w.Code)
			}
			if contentType := w.Header().Get("Content-Type"); contentType != "application/json" {
				t.Errorf("Expected Content-Type application/json, got %s", contentType)
			}
			var response map[string]interface{}
			decode(t, w, &response)
			if _, exists := response["timestamp"]; tt.checkBody && !exists {
				t.Error("Expected timestamp in response")
			}
		})
	}
}

func TestHandler_ReadinessUnhealthy(t *testing.T) {
	env := newTestEnv(t)
	env.store.health = fmt.Errorf("database connection failed")

	w := env.do("GET", "/v1/health/ready", "")
	if w.Code != http.StatusServiceUnavailable {
		t.Errorf("Expected status 503, got %d", w.Code)
	}
	var response map[string]interface{}
	decode(t, w, &response)
	checks := response["checks"].(map[string]interface{})
	if !strings.HasPrefix(checks["store"].(string), "error:") {
		t.Errorf("Expected store check error, got %v", checks["store"])
	}
}

func TestHandler_ListAlerts(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		filter        string
		expectedCount int
		expectedCode  int
	}{
		{"", 5, http.StatusOK},
		{"all", 5, http.StatusOK},
		{"unacknowledged", 4, http.StatusOK},
		{"active", 5, http.StatusOK},
		{"high", 2, http.StatusOK},
		{"medium", 2, http.StatusOK},
		{"low", 1, http.StatusOK},
		{"bogus", 0, http.StatusBadRequest},
	}
	for _, tt := range tests {
		t.Run("filter="+tt.filter, func(t *testing.T) {
			w := env.do("GET", "/v1/alerts?filter="+tt.filter, "")
			if w.Code != tt.expectedCode {
				t.Fatalf("Expected status %d, got %d", tt.expectedCode, w.Code)
			}
			if tt.expectedCode != http.StatusOK {
				var resp ErrorResponse
				decode(t, w, &resp)
				if resp.Retryable {
					t.Error("Expected validation error not to be retryable")
				}
				return
			}
			var resp struct {
				Data  []models.Alert `json:"data"`
				Count int            `json:"count"`
			}
			decode(t, w, &resp)
			if resp.Count != tt.expectedCount || len(resp.Data) != tt.expectedCount {
				t.Errorf("Expected %d alerts, got %d", tt.expectedCount, resp.Count)
			}
		})
	}
}

func TestHandler_GetAlert(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		path string
		code int
	}{
		{"/v1/alerts/1", http.StatusOK},
		{"/v1/alerts/99", http.StatusNotFound},
		{"/v1/alerts/abc", http.StatusBadRequest},
		{"/v1/alerts/0", http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := env.do("GET", tt.path, ""); w.Code != tt.code {
			t.Errorf("%s: expected status %d, got %d", tt.path, tt.code, w.Code)
		}
	}
}

func TestHandler_AlertStats(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/v1/alerts/stats", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var stats models.AlertStats
	decode(t, w, &stats)
	want := models.AlertStats{Total: 5, Unacknowledged: 4, High: 2, Medium: 2, Low: 1, AffectedVessels: 63}
	if stats != want {
		t.Errorf("Expected %+v, got %+v", want, stats)
	}
}

func TestHandler_AcknowledgeFlow(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/v1/alerts/1/acknowledge", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var res alerts.Result
	decode(t, w, &res)
	if res.Acknowledged != 1 || res.NoActionNeeded {
		t.Errorf("Unexpected result %+v", res)
	}

	// second acknowledge is a no-op without an upstream call
	w = env.do("POST", "/v1/alerts/1/acknowledge", "")
	decode(t, w, &res)
	if !res.NoActionNeeded {
		t.Errorf("Expected no action needed, got %+v", res)
	}
	if len(env.upstream.ackCalls) != 1 {
		t.Errorf("Expected 1 upstream call, got %d", len(env.upstream.ackCalls))
	}

	a, _ := env.store.GetAlert(context.Background(), 1)
	if a.AcknowledgedBy != "operator" {
		t.Errorf("Expected acknowledgement by anonymous operator, got %q", a.AcknowledgedBy)
	}

	w = env.do("POST", "/v1/alerts/acknowledge-all", "")
	decode(t, w, &res)
	if res.Acknowledged != 3 {
		t.Errorf("Expected remaining 3 alerts acknowledged, got %+v", res)
	}
}

func TestHandler_AcknowledgeUpstreamErrors(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		retryable bool
	}{
		{"timeout", apperrors.NetworkError{Op: "acknowledge", Timeout: true, Err: context.DeadlineExceeded}, http.StatusGatewayTimeout, true},
		{"refused", apperrors.NetworkError{Op: "acknowledge", Err: errors.New("refused")}, http.StatusBadGateway, true},
		{"server error", apperrors.BackendError{Op: "acknowledge", StatusCode: 500}, http.StatusBadGateway, true},
		{"bad request", apperrors.BackendError{Op: "acknowledge", StatusCode: 400}, http.StatusBadGateway, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			env := newTestEnv(t)
			env.upstream.ackErr = tt.err

			w := env.do("POST", "/v1/alerts/2/acknowledge", "")
			if w.Code != tt.code {
				t.Fatalf("Expected status %d, got %d", tt.code, w.Code)
			}
			var resp ErrorResponse
			decode(t, w, &resp)
			if resp.Retryable != tt.retryable {
				t.Errorf("Expected retryable=%v, got %v", tt.retryable, resp.Retryable)
			}
			a, _ := env.store.GetAlert(context.Background(), 2)
			if a.Acknowledged {
				t.Error("Expected alert to stay unacknowledged after upstream failure")
			}
		})
	}
}

func TestHandler_Dismiss(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("DELETE", "/v1/alerts/2", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var archived models.ArchivedAlert
	decode(t, w, &archived)
	if archived.Alert.ID != 2 || archived.ArchiveID == "" {
		t.Errorf("Unexpected tombstone %+v", archived)
	}

	if w := env.do("DELETE", "/v1/alerts/2", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected second dismiss to be 404, got %d", w.Code)
	}

	w = env.do("GET", "/v1/alerts/archive", "")
	var resp struct {
		Count int `json:"count"`
	}
	decode(t, w, &resp)
	if resp.Count != 1 {
		t.Errorf("Expected 1 archived alert, got %d", resp.Count)
	}
}

func TestHandler_Preferences(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("PUT", "/v1/alerts/preferences", `{"high":true,"medium":false,"low":true,"autoRefresh":true,"sounds":false}`)
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if env.upstream.prefs == nil || !env.upstream.prefs.AutoRefresh {
		t.Error("Expected preferences to reach the upstream")
	}

	w = env.do("GET", "/v1/alerts/preferences", "")
	var prefs models.Preferences
	decode(t, w, &prefs)
	if !prefs.Low || prefs.Medium || !prefs.AutoRefresh {
		t.Errorf("Unexpected stored preferences %+v", prefs)
	}

	if w := env.do("PUT", "/v1/alerts/preferences", `{"high":"yes"}`); w.Code != http.StatusBadRequest {
		t.Errorf("Expected malformed body to be 400, got %d", w.Code)
	}
}

func TestHandler_ExportAlerts(t *testing.T) {
	env := newTestEnv(t)
	w := env.do("GET", "/v1/alerts/export?filter=high", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	if name := attachmentName(t, w); name != "maritime-alerts-2026-05-10.csv" {
		t.Errorf("Unexpected attachment name %s", name)
	}
	lines := strings.Split(strings.TrimSpace(w.Body.String()), "\n")
	if len(lines) != 3 {
		t.Errorf("Expected header plus 2 high alerts, got %d lines", len(lines))
	}
}

func TestHandler_Forecast(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/v1/forecast?city=Chennai", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var fc models.Forecast
	decode(t, w, &fc)
	if !fc.Fallback || len(fc.Days) != 10 || fc.City != "Chennai" {
		t.Errorf("Expected 10-day fallback for Chennai, got fallback=%v days=%d city=%s", fc.Fallback, len(fc.Days), fc.City)
	}

	w = env.do("GET", "/v1/forecast/route-plan", "")
	var plan struct {
		City string           `json:"city"`
		Plan models.RoutePlan `json:"plan"`
	}
	decode(t, w, &plan)
	if plan.City != "Mumbai" || plan.Plan.TotalDays != 10 {
		t.Errorf("Unexpected route plan %+v", plan)
	}

	w = env.do("GET", "/v1/forecast/export?city=Chennai", "")
	if name := attachmentName(t, w); name != "maritime-forecast-Chennai-2026-05-10.csv" {
		t.Errorf("Unexpected attachment name %s", name)
	}
	if !strings.Contains(w.Body.String(), "Estimated") {
		t.Error("Expected synthetic days to be marked Estimated")
	}
}

func TestHandler_ExportForecastQuotesFilename(t *testing.T) {
	env := newTestEnv(t)

	tests := []struct {
		name string
		city string
	}{
		{"quote", `Port "Blair"`},
		{"semicolon", "Kochi; filename=evil.exe"},
		{"non-ascii", "Mumbaï"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := env.do("GET", "/v1/forecast/export?city="+url.QueryEscape(tt.city), "")
			if w.Code != http.StatusOK {
				t.Fatalf("Expected status 200, got %d", w.Code)
			}
			want := "maritime-forecast-" + tt.city + "-2026-05-10.csv"
			if name := attachmentName(t, w); name != want {
				t.Errorf("Expected filename %q, got %q", want, name)
			}
		})
	}
}

func TestHandler_Recommendations(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("GET", "/v1/recommendations", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var set models.RecommendationSet
	decode(t, w, &set)
	if len(set.Recommendations) != 4 || set.PendingCount != 4 {
		t.Errorf("Unexpected set %+v", set)
	}

	w = env.do("POST", "/v1/recommendations/analyze", `{"wind":22,"wave":2,"visibility":9}`)
	decode(t, w, &set)
	if set.Recommendations[1].Priority != models.PriorityCritical {
		t.Errorf("Expected route priority critical, got %s", set.Recommendations[1].Priority)
	}

	tests := []struct {
		body string
		code int
	}{
		{`{"wind":-1,"wave":2,"visibility":9}`, http.StatusBadRequest},
		{`{"wind":1,"wave":2}`, http.StatusBadRequest},
		{`not json`, http.StatusBadRequest},
	}
	for _, tt := range tests {
		if w := env.do("POST", "/v1/recommendations/analyze", tt.body); w.Code != tt.code {
			t.Errorf("%s: expected %d, got %d", tt.body, tt.code, w.Code)
		}
	}
}

func TestHandler_ApplyRecommendation(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/v1/recommendations/1/apply", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var res recommend.ApplyResult
	decode(t, w, &res)
	if !res.Recommendation.Applied || res.AlreadyApplied {
		t.Errorf("Unexpected result %+v", res)
	}

	w = env.do("POST", "/v1/recommendations/1/apply", "")
	decode(t, w, &res)
	if !res.AlreadyApplied {
		t.Error("Expected second apply to report already applied")
	}

	if w := env.do("POST", "/v1/recommendations/9/apply", ""); w.Code != http.StatusNotFound {
		t.Errorf("Expected unknown recommendation to be 404, got %d", w.Code)
	}

	env.upstream.applyErr = apperrors.NetworkError{Op: "recommendation_action", Err: errors.New("refused")}
	if w := env.do("POST", "/v1/recommendations/2/apply", ""); w.Code != http.StatusBadGateway {
		t.Errorf("Expected upstream failure to be 502, got %d", w.Code)
	}

	w = env.do("GET", "/v1/recommendations/report", "")
	if !strings.Contains(w.Body.String(), "Applied Actions: 1") {
		t.Errorf("Expected report to count the applied recommendation:\n%s", w.Body.String())
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "maritime-recommendations-2026-05-10.txt") {
		t.Errorf("Unexpected Content-Disposition %s", cd)
	}
}

func TestHandler_RefreshConditions(t *testing.T) {
	env := newTestEnv(t)

	w := env.do("POST", "/v1/recommendations/refresh?city=Chennai", "")
	if w.Code != http.StatusOK {
		t.Fatalf("Expected status 200, got %d", w.Code)
	}
	var set models.RecommendationSet
	decode(t, w, &set)
	if set.Conditions.Wind != 19 {
		t.Errorf("Expected 10 m/s converted to 19 knots, got %v", set.Conditions.Wind)
	}

	if w := env.do("POST", "/v1/recommendations/refresh?city=Nowhere", ""); w.Code != http.StatusBadGateway {
		t.Errorf("Expected upstream 404 to surface as 502, got %d", w.Code)
	}
}

func TestHandler_WriteLimitAppliesToMutations(t *testing.T) {
	logger.Init("error", "text")
	blocked := func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusTooManyRequests)
		})
	}
	st := store.NewInMemoryStore()
	up := &fakeUpstream{}
	h := NewHandler(Deps{
		Alerts:          alerts.NewService(st, up, seedSource{}),
		Forecast:        forecast.NewService(up, forecast.NewProjector(classifier.New()), nil, time.Minute, "Mumbai"),
		Recommendations: recommend.NewService(recommend.NewEngine(), st, up, nil),
		Store:           st,
		WriteLimit:      blocked,
	})
	r := chi.NewRouter()
	h.RegisterRoutes(r)

	for _, tc := range []struct {
		method, path string
		code         int
	}{
		{"GET", "/v1/alerts", http.StatusOK},
		{"POST", "/v1/alerts/acknowledge-all", http.StatusTooManyRequests},
		{"DELETE", "/v1/alerts/1", http.StatusTooManyRequests},
	} {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(tc.method, tc.path, nil))
		if w.Code != tc.code {
			t.Errorf("%s %s: expected %d, got %d", tc.method, tc.path, tc.code, w.Code)
		}
	}
}

func TestStatusFor(t *testing.T) {
	tests := []struct {
		name      string
		err       error
		code      int
		retryable bool
	}{
		{"validation", apperrors.ValidationError{Field: "wind", Message: "bad"}, http.StatusBadRequest, false},
		{"not found", fmt.Errorf("x: %w", apperrors.ErrNotFound), http.StatusNotFound, false},
		{"unauthorized", apperrors.ErrUnauthorized, http.StatusUnauthorized, false},
		{"rate limit", apperrors.ErrRateLimit, http.StatusTooManyRequests, true},
		{"conflict", apperrors.ErrConflict, http.StatusConflict, true},
		{"deadline", context.DeadlineExceeded, http.StatusGatewayTimeout, true},
		{"backend 503", apperrors.BackendError{Op: "x", StatusCode: 503}, http.StatusBadGateway, true},
		{"unknown", errors.New("boom"), http.StatusInternalServerError, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, retryable := statusFor(tt.err)
			if code != tt.code || retryable != tt.retryable {
				t.Errorf("Expected %d/%v, got %d/%v", tt.code, tt.retryable, code, retryable)
			}
		})
	}
}
