package notifier

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/slack-go/slack"

	"github.com/weatherengine/maritime/config"
	"github.com/weatherengine/maritime/internal/models"
)

func TestNew_WithoutWebhookIsNop(t *testing.T) {
	if _, ok := New(config.NotifyConfig{}).(Nop); !ok {
		t.Error("Expected Nop notifier without webhook URL")
	}
}

func TestSlack_HonoursPreferences(t *testing.T) {
	var calls int
	var got slack.WebhookMessage
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
		_ = json.NewDecoder(r.Body).Decode(&got)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{SlackWebhookURL: srv.URL, SlackChannel: "#ops"})
	alerts := []models.Alert{
		{ID: 1, Severity: models.SeverityHigh, Title: "Cyclone"},
		{ID: 2, Severity: models.SeverityLow, Title: "Swell"},
	}

	if err := n.NotifyNewAlerts(context.Background(), alerts, models.DefaultPreferences()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Fatalf("Expected 1 webhook call, got %d", calls)
	}
	if len(got.Attachments) != 1 || got.Channel != "#ops" {
		t.Errorf("Expected only the high alert in #ops, got %+v", got)
	}

	// Nothing subscribed: no call at all
	if err := n.NotifyNewAlerts(context.Background(), alerts[1:], models.DefaultPreferences()); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if calls != 1 {
		t.Errorf("Expected no additional webhook call, got %d", calls)
	}
}

func TestSlack_ReportsFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	n := New(config.NotifyConfig{SlackWebhookURL: srv.URL})
	err := n.NotifyNewAlerts(context.Background(), []models.Alert{{ID: 1, Severity: models.SeverityHigh}}, models.DefaultPreferences())
	if err == nil {
		t.Error("Expected error for failed webhook")
	}
}
