package backend

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/weatherengine/maritime/config"
	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/models"
)

func newTestClient(t *testing.T, h http.HandlerFunc, timeout time.Duration) *Client {
	t.Helper()
	srv := httptest.NewServer(h)
	t.Cleanup(srv.Close)
	return New(config.BackendConfig{URL: srv.URL, Timeout: timeout, RateLimit: 100, UserAgent: "test-agent"})
}

func TestClient_Acknowledge(t *testing.T) {
	var got struct {
		IDs []int `json:"ids"`
	}
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost || r.URL.Path != "/api/alerts/acknowledge" {
			t.Errorf("Unexpected request %s %s", r.Method, r.URL.Path)
		}
		if r.Header.Get("Content-Type") != "application/json" {
			t.Errorf("Expected JSON content type")
		}
		if r.Header.Get("X-Request-ID") == "" {
			t.Errorf("Expected request id header")
		}
		if r.Header.Get("User-Agent") != "test-agent" {
			t.Errorf("Expected user agent test-agent, got %s", r.Header.Get("User-Agent"))
		}
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":"acknowledged","ids":[1,2]}`))
	}, time.Second)

	if err := c.Acknowledge(context.Background(), []int{1, 2}); err != nil {
		t.Fatalf("Acknowledge: %v", err)
	}
	if len(got.IDs) != 2 || got.IDs[0] != 1 || got.IDs[1] != 2 {
		t.Errorf("Expected ids [1 2], got %v", got.IDs)
	}
}

func TestClient_BackendError(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, `{"error":"boom"}`, http.StatusInternalServerError)
	}, time.Second)

	err := c.Acknowledge(context.Background(), []int{1})
	var be apperrors.BackendError
	if !errors.As(err, &be) {
		t.Fatalf("Expected BackendError, got %T %v", err, err)
	}
	if be.StatusCode != http.StatusInternalServerError || be.Body == "" {
		t.Errorf("Unexpected backend error %+v", be)
	}
	if !apperrors.IsRetryable(err) {
		t.Error("Expected 5xx to be retryable")
	}
}

func TestClient_Timeout(t *testing.T) {
	release := make(chan struct{})
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-release:
		case <-r.Context().Done():
		}
	}, 50*time.Millisecond)
	defer close(release)

	_, err := c.Forecast10(context.Background(), "London")
	if !errors.Is(err, apperrors.ErrTimeout) {
		t.Fatalf("Expected timeout, got %v", err)
	}
	var ne apperrors.NetworkError
	if !errors.As(err, &ne) || ne.Op != "forecast10" {
		t.Errorf("Expected NetworkError for forecast10, got %v", err)
	}
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	base := srv.URL
	srv.Close()

	c := New(config.BackendConfig{URL: base, Timeout: time.Second, RateLimit: 100})
	err := c.UpdatePreferences(context.Background(), models.DefaultPreferences())
	var ne apperrors.NetworkError
	if !errors.As(err, &ne) {
		t.Fatalf("Expected NetworkError, got %T %v", err, err)
	}
	if ne.Timeout {
		t.Error("Expected connection refusal not to be reported as timeout")
	}
}

func TestClient_MalformedJSON(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"days": [`))
	}, time.Second)

	_, err := c.Forecast10(context.Background(), "London")
	var be apperrors.BackendError
	if !errors.As(err, &be) || be.Err == nil {
		t.Fatalf("Expected BackendError with decode cause, got %v", err)
	}
}

func TestClient_Forecast10(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("city") != "New York" {
			t.Errorf("Expected city query, got %q", r.URL.RawQuery)
		}
		_, _ = w.Write([]byte(`{
			"location": {"name": "New York", "country": "US", "lat": 40.7, "lon": -74.0},
			"days": [{"day": "", "date": "2024-06-01", "wind": 18, "waves": 2.4, "visibility": "10.0", "source": "onecall-daily"}],
			"data_info": {"real_days": 8, "estimated_days": 2, "note": "extended"}
		}`))
	}, time.Second)

	resp, err := c.Forecast10(context.Background(), "New York")
	if err != nil {
		t.Fatalf("Forecast10: %v", err)
	}
	if resp.Location == nil || resp.Location.Country != "US" {
		t.Errorf("Unexpected location %+v", resp.Location)
	}
	if len(resp.Days) != 1 || resp.Days[0].Wind != 18 || resp.Days[0].Visibility != "10.0" {
		t.Errorf("Unexpected days %+v", resp.Days)
	}
	if resp.DataInfo == nil || resp.DataInfo.EstimatedDays != 2 {
		t.Errorf("Unexpected data info %+v", resp.DataInfo)
	}
}

func TestClient_Alerts(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[
			{"id": 1, "message": "Gale warning", "severity": "High", "acknowledged": 0},
			{"id": 2, "message": "Swell", "severity": "Low", "acknowledged": 1.0},
			{"id": 3, "message": "Fog", "severity": "Medium", "acknowledged": true}
		]`))
	}, time.Second)

	rows, err := c.Alerts(context.Background())
	if err != nil {
		t.Fatalf("Alerts: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("Expected 3 rows, got %d", len(rows))
	}
	if rows[0].Acknowledged || !rows[1].Acknowledged || !rows[2].Acknowledged {
		t.Errorf("Unexpected acknowledged flags %+v", rows)
	}
}

func TestClient_CityWeatherAndAdvisory(t *testing.T) {
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/weather/city":
			_, _ = w.Write([]byte(`{"name":"London","wind":{"speed":10.3,"deg":200},"visibility":6000,"main":{"temp":14}}`))
		case "/api/recommendations":
			q := r.URL.Query()
			if q.Get("wind") != "22" || q.Get("wave") != "3.5" || q.Get("visibility") != "9" {
				t.Errorf("Unexpected advisory query %s", r.URL.RawQuery)
			}
			_, _ = w.Write([]byte(`{"status":"caution","severity":"High","advice":[{"condition":"wind>20","rule":"Wind speed over 20 knots","advice":"Delay departure or adjust course.","severity":"High"}]}`))
		default:
			http.NotFound(w, r)
		}
	}, time.Second)

	cw, err := c.CityWeather(context.Background(), "London")
	if err != nil {
		t.Fatalf("CityWeather: %v", err)
	}
	if cw.Wind.Speed != 10.3 || cw.Visibility == nil || *cw.Visibility != 6000 {
		t.Errorf("Unexpected city weather %+v", cw)
	}

	adv, err := c.Advisory(context.Background(), models.Conditions{Wind: 22, Wave: 3.5, Visibility: 9})
	if err != nil {
		t.Fatalf("Advisory: %v", err)
	}
	if adv.Status != "caution" || len(adv.Advice) != 1 || adv.Advice[0].Condition != "wind>20" {
		t.Errorf("Unexpected advisory %+v", adv)
	}
}

func TestClient_ApplyAction(t *testing.T) {
	var got ActionRequest
	c := newTestClient(t, func(w http.ResponseWriter, r *http.Request) {
		_ = json.NewDecoder(r.Body).Decode(&got)
		_, _ = w.Write([]byte(`{"status":"success","action_taken":"route"}`))
	}, time.Second)

	resp, err := c.ApplyAction(context.Background(), ActionRequest{
		Action:           "route",
		Payload:          map[string]any{"riskReduction": 85},
		RecommendationID: 2,
	})
	if err != nil {
		t.Fatalf("ApplyAction: %v", err)
	}
	if resp.ActionTaken != "route" {
		t.Errorf("Expected route, got %s", resp.ActionTaken)
	}
	if got.RecommendationID != 2 || got.Payload["riskReduction"] != float64(85) {
		t.Errorf("Unexpected request %+v", got)
	}
}
