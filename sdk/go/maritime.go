// Package sdk is a Go client for the maritime weather service API.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/weatherengine/maritime/internal/models"
)

// Types shared with the service
type (
	Alert             = models.Alert
	ArchivedAlert     = models.ArchivedAlert
	AlertStats        = models.AlertStats
	Preferences       = models.Preferences
	Forecast          = models.Forecast
	RoutePlan         = models.RoutePlan
	Conditions        = models.Conditions
	RecommendationSet = models.RecommendationSet
	Recommendation    = models.Recommendation
)

// AckResult is returned by the acknowledge calls
type AckResult struct {
	Acknowledged   int   `json:"acknowledged"`
	NoActionNeeded bool  `json:"noActionNeeded"`
	IDs            []int `json:"ids,omitempty"`
}

// RefreshResult is returned by RefreshAlerts
type RefreshResult struct {
	Source    string `json:"source"`
	Total     int    `json:"total"`
	Added     int    `json:"added"`
	Discarded bool   `json:"discarded"`
}

// ApplyResult is returned by ApplyRecommendation
type ApplyResult struct {
	Recommendation Recommendation `json:"recommendation"`
	AlreadyApplied bool           `json:"alreadyApplied"`
	ActionTaken    string         `json:"actionTaken,omitempty"`
	Message        string         `json:"message,omitempty"`
}

// APIError is a non-2xx answer from the service
type APIError struct {
	StatusCode int
	Message    string `json:"message"`
	Retryable  bool   `json:"retryable"`
	RequestID  string `json:"request_id"`
}

func (e *APIError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("maritime api: status %d", e.StatusCode)
	}
	return fmt.Sprintf("maritime api: status %d: %s", e.StatusCode, e.Message)
}

type Client struct {
	BaseURL string
	APIKey  string
	HTTP    *http.Client
}

func New(baseURL, apiKey string) *Client {
	if baseURL == "" {
		baseURL = "http://localhost:8080"
	}
	return &Client{
		BaseURL: strings.TrimRight(baseURL, "/"),
		APIKey:  apiKey,
		HTTP:    &http.Client{Timeout: 30 * time.Second},
	}
}

func (c *Client) headers(req *http.Request) {
	if c.APIKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.APIKey)
	}
	req.Header.Set("Accept", "application/json")
}

func (c *Client) do(ctx context.Context, method, path string, query url.Values, in, out any) error {
	u := c.BaseURL + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var body io.Reader
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return fmt.Errorf("encode request: %w", err)
		}
		body = bytes.NewReader(b)
	}
	req, err := http.NewRequestWithContext(ctx, method, u, body)
	if err != nil {
		return err
	}
	c.headers(req)
	if in != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.HTTP.Do(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		apiErr := &APIError{StatusCode: resp.StatusCode}
		_ = json.NewDecoder(io.LimitReader(resp.Body, 64<<10)).Decode(apiErr)
		return apiErr
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}

// Alerts lists alerts matching filter ("" for all)
func (c *Client) Alerts(ctx context.Context, filter string) ([]Alert, error) {
	q := url.Values{}
	if filter != "" {
		q.Set("filter", filter)
	}
	var out struct {
		Data []Alert `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/alerts", q, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) Alert(ctx context.Context, id int) (*Alert, error) {
	var out Alert
	if err := c.do(ctx, http.MethodGet, "/v1/alerts/"+strconv.Itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AlertStats(ctx context.Context) (*AlertStats, error) {
	var out AlertStats
	if err := c.do(ctx, http.MethodGet, "/v1/alerts/stats", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ArchivedAlerts(ctx context.Context) ([]ArchivedAlert, error) {
	var out struct {
		Data []ArchivedAlert `json:"data"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/alerts/archive", nil, nil, &out); err != nil {
		return nil, err
	}
	return out.Data, nil
}

func (c *Client) RefreshAlerts(ctx context.Context) (*RefreshResult, error) {
	var out RefreshResult
	if err := c.do(ctx, http.MethodPost, "/v1/alerts/refresh", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Acknowledge(ctx context.Context, id int) (*AckResult, error) {
	var out AckResult
	if err := c.do(ctx, http.MethodPost, "/v1/alerts/"+strconv.Itoa(id)+"/acknowledge", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) AcknowledgeAll(ctx context.Context) (*AckResult, error) {
	var out AckResult
	if err := c.do(ctx, http.MethodPost, "/v1/alerts/acknowledge-all", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Dismiss removes an alert and returns its archive tombstone
func (c *Client) Dismiss(ctx context.Context, id int) (*ArchivedAlert, error) {
	var out ArchivedAlert
	if err := c.do(ctx, http.MethodDelete, "/v1/alerts/"+strconv.Itoa(id), nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) Preferences(ctx context.Context) (*Preferences, error) {
	var out Preferences
	if err := c.do(ctx, http.MethodGet, "/v1/alerts/preferences", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) UpdatePreferences(ctx context.Context, prefs Preferences) (*Preferences, error) {
	var out Preferences
	if err := c.do(ctx, http.MethodPut, "/v1/alerts/preferences", nil, prefs, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Forecast returns the 10-day forecast for city ("" for the service default)
func (c *Client) Forecast(ctx context.Context, city string) (*Forecast, error) {
	var out Forecast
	if err := c.do(ctx, http.MethodGet, "/v1/forecast", cityQuery(city), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) RoutePlan(ctx context.Context, city string) (*RoutePlan, error) {
	var out struct {
		Plan RoutePlan `json:"plan"`
	}
	if err := c.do(ctx, http.MethodGet, "/v1/forecast/route-plan", cityQuery(city), nil, &out); err != nil {
		return nil, err
	}
	return &out.Plan, nil
}

func (c *Client) Recommendations(ctx context.Context) (*RecommendationSet, error) {
	var out RecommendationSet
	if err := c.do(ctx, http.MethodGet, "/v1/recommendations", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// Analyze replaces the service's working conditions and returns the new set
func (c *Client) Analyze(ctx context.Context, cond Conditions) (*RecommendationSet, error) {
	var out RecommendationSet
	if err := c.do(ctx, http.MethodPost, "/v1/recommendations/analyze", nil, cond, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

// RefreshConditions pulls live conditions for city and re-analyzes
func (c *Client) RefreshConditions(ctx context.Context, city string) (*RecommendationSet, error) {
	var out RecommendationSet
	if err := c.do(ctx, http.MethodPost, "/v1/recommendations/refresh", cityQuery(city), nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (c *Client) ApplyRecommendation(ctx context.Context, id int) (*ApplyResult, error) {
	var out ApplyResult
	if err := c.do(ctx, http.MethodPost, "/v1/recommendations/"+strconv.Itoa(id)+"/apply", nil, nil, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func cityQuery(city string) url.Values {
	q := url.Values{}
	if city != "" {
		q.Set("city", city)
	}
	return q
}
