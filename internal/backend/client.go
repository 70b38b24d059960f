// Package backend is the HTTP client for the upstream maritime weather backend.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/time/rate"

	"github.com/weatherengine/maritime/config"
	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/metrics"
	"github.com/weatherengine/maritime/internal/models"
)

const maxErrorBody = 4 << 10

// Client talks to the upstream backend. Every call is bounded by the
// configured timeout and shares one rate limiter.
type Client struct {
	baseURL   string
	userAgent string
	timeout   time.Duration
	http      *http.Client
	limiter   *rate.Limiter
}

// New creates a client from backend configuration
func New(cfg config.BackendConfig) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	limit := cfg.RateLimit
	if limit <= 0 {
		limit = 5
	}
	burst := int(limit)
	if burst < 1 {
		burst = 1
	}
	return &Client{
		baseURL:   strings.TrimRight(cfg.URL, "/"),
		userAgent: cfg.UserAgent,
		timeout:   timeout,
		http: &http.Client{
			Transport: &http.Transport{
				MaxIdleConns:        100,
				MaxIdleConnsPerHost: 10,
				IdleConnTimeout:     90 * time.Second,
			},
		},
		limiter: rate.NewLimiter(rate.Limit(limit), burst),
	}
}

// BaseURL returns the upstream root the client is bound to
func (c *Client) BaseURL() string {
	return c.baseURL
}

// AlertRow is one alert as served by the upstream CSV-backed alert feed
type AlertRow struct {
	ID           int      `json:"id"`
	Message      string   `json:"message"`
	Severity     string   `json:"severity"`
	Acknowledged flexBool `json:"acknowledged"`
}

// flexBool accepts true/false, 0/1 and their string forms
type flexBool bool

func (b *flexBool) UnmarshalJSON(data []byte) error {
	s := strings.Trim(strings.TrimSpace(string(data)), `"`)
	switch strings.ToLower(s) {
	case "true", "1", "1.0", "yes":
		*b = true
	case "false", "0", "0.0", "no", "", "null":
		*b = false
	default:
		return fmt.Errorf("invalid boolean %q", s)
	}
	return nil
}

// ForecastResponse is the body of /api/forecast10
type ForecastResponse struct {
	Location *models.ForecastLocation `json:"location"`
	Days     []models.DayForecast     `json:"days"`
	DataInfo *models.DataInfo         `json:"data_info"`
}

// CityWeather is the subset of the current-conditions payload the engine uses
type CityWeather struct {
	Name string `json:"name"`
	Wind struct {
		Speed float64 `json:"speed"` // m/s
		Deg   float64 `json:"deg"`
	} `json:"wind"`
	Visibility *float64 `json:"visibility"` // meters
	Main       struct {
		Temp     float64 `json:"temp"`
		Humidity float64 `json:"humidity"`
		Pressure float64 `json:"pressure"`
	} `json:"main"`
}

// ActionRequest is posted to /api/recommendations/action
type ActionRequest struct {
	Action           string         `json:"action"`
	Payload          map[string]any `json:"payload"`
	RecommendationID int            `json:"recommendationId"`
}

// ActionResponse is the upstream confirmation of an applied recommendation
type ActionResponse struct {
	Status      string `json:"status"`
	ActionTaken string `json:"action_taken"`
	Message     string `json:"message,omitempty"`
}

// Acknowledge confirms the given alert ids upstream
func (c *Client) Acknowledge(ctx context.Context, ids []int) error {
	body := struct {
		IDs []int `json:"ids"`
	}{IDs: ids}
	return c.do(ctx, "acknowledge", http.MethodPost, "/api/alerts/acknowledge", nil, body, nil)
}

// UpdatePreferences stores notification preferences upstream
func (c *Client) UpdatePreferences(ctx context.Context, prefs models.Preferences) error {
	return c.do(ctx, "preferences", http.MethodPost, "/api/alerts/preferences", nil, prefs, nil)
}

// Alerts fetches the upstream alert feed
func (c *Client) Alerts(ctx context.Context) ([]AlertRow, error) {
	var rows []AlertRow
	if err := c.do(ctx, "alerts", http.MethodGet, "/api/alerts", nil, nil, &rows); err != nil {
		return nil, err
	}
	return rows, nil
}

// Forecast10 fetches the raw 10-day forecast for a city
func (c *Client) Forecast10(ctx context.Context, city string) (*ForecastResponse, error) {
	q := url.Values{"city": {city}}
	var out ForecastResponse
	if err := c.do(ctx, "forecast10", http.MethodGet, "/api/forecast10", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// CityWeather fetches current conditions for a city
func (c *Client) CityWeather(ctx context.Context, city string) (*CityWeather, error) {
	q := url.Values{"city": {city}}
	var out CityWeather
	if err := c.do(ctx, "weather_city", http.MethodGet, "/api/weather/city", q, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Advisory fetches the rule-based advisory for a set of conditions
func (c *Client) Advisory(ctx context.Context, cond models.Conditions) (*models.Advisory, error) {
	q := url.Values{
		"wind":       {formatFloat(cond.Wind)},
		"wave":       {formatFloat(cond.Wave)},
		"visibility": {formatFloat(cond.Visibility)},
	}
	var out models.Advisory
	if err := c.do(ctx, "recommendations", http.MethodGet, "/api/recommendations", q, nil, &out); err != nil {
		return nil, err
	}
	if out.Advice == nil {
		out.Advice = []models.AdviceRule{}
	}
	return &out, nil
}

// ApplyAction asks the upstream to carry out a recommendation
func (c *Client) ApplyAction(ctx context.Context, req ActionRequest) (*ActionResponse, error) {
	var out ActionResponse
	if err := c.do(ctx, "recommendation_action", http.MethodPost, "/api/recommendations/action", nil, req, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// do runs one request. Transport failures become NetworkError, non-2xx and
// undecodable bodies become BackendError.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, in, out any) (err error) {
	start := time.Now()
	status := "ok"
	defer func() {
		if err != nil {
			status = errorStatus(err)
		}
		metrics.RecordBackendCall(op, status, time.Since(start))
	}()

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	if err := c.limiter.Wait(ctx); err != nil {
		return apperrors.NetworkError{Op: op, Timeout: isTimeout(ctx, err), Err: fmt.Errorf("%w: %v", apperrors.ErrRateLimit, err)}
	}

	u := c.baseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		buf, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", op, err)
		}
		body = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return fmt.Errorf("create %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.userAgent != "" {
		req.Header.Set("User-Agent", c.userAgent)
	}
	reqID := logger.RequestID(ctx)
	if reqID == "" {
		reqID = uuid.NewString()
	}
	req.Header.Set("X-Request-ID", reqID)

	resp, err := c.http.Do(req)
	if err != nil {
		logger.WithContext(ctx).Warn("Backend request failed", "op", op, "error", err)
		return apperrors.NetworkError{Op: op, Timeout: isTimeout(ctx, err), Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
		logger.WithContext(ctx).Warn("Backend returned error status",
			"op", op,
			"status", resp.StatusCode,
		)
		return apperrors.BackendError{Op: op, StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(snippet))}
	}

	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		if isTimeout(ctx, err) {
			return apperrors.NetworkError{Op: op, Timeout: true, Err: err}
		}
		return apperrors.BackendError{Op: op, StatusCode: resp.StatusCode, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

func isTimeout(ctx context.Context, err error) bool {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return true
	}
	var ne net.Error
	return errors.As(err, &ne) && ne.Timeout()
}

func errorStatus(err error) string {
	var ne apperrors.NetworkError
	if errors.As(err, &ne) {
		if ne.Timeout {
			return "timeout"
		}
		return "network_error"
	}
	var be apperrors.BackendError
	if errors.As(err, &be) {
		if be.Err != nil {
			return "malformed"
		}
		return fmt.Sprintf("http_%d", be.StatusCode)
	}
	return "error"
}

func formatFloat(v float64) string {
	return fmt.Sprintf("%g", v)
}
