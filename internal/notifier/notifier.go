// Package notifier posts newly arrived alerts to Slack.
package notifier

import (
	"context"
	"fmt"

	"github.com/slack-go/slack"

	"github.com/weatherengine/maritime/config"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/models"
)

// Notifier announces alerts that appeared since the previous refresh
type Notifier interface {
	NotifyNewAlerts(ctx context.Context, alerts []models.Alert, prefs models.Preferences) error
}

// Nop drops every notification
type Nop struct{}

func (Nop) NotifyNewAlerts(context.Context, []models.Alert, models.Preferences) error { return nil }

// New returns a Slack notifier, or Nop when no webhook is configured
func New(cfg config.NotifyConfig) Notifier {
	if cfg.SlackWebhookURL == "" {
		return Nop{}
	}
	return &Slack{webhookURL: cfg.SlackWebhookURL, channel: cfg.SlackChannel}
}

// Slack posts alerts through an incoming webhook
type Slack struct {
	webhookURL string
	channel    string
}

// NotifyNewAlerts sends one message carrying every alert whose severity the
// operator subscribed to. Nothing is sent when none qualify.
func (s *Slack) NotifyNewAlerts(ctx context.Context, alerts []models.Alert, prefs models.Preferences) error {
	var attachments []slack.Attachment
	for _, a := range alerts {
		if !prefs.Wants(a.Severity) {
			continue
		}
		attachments = append(attachments, slack.Attachment{
			Color: severityColor(a.Severity),
			Title: fmt.Sprintf("%s %s", severityEmoji(a.Severity), a.Title),
			Text:  a.Description,
			Fields: []slack.AttachmentField{
				{Title: "Location", Value: a.Location, Short: true},
				{Title: "Risk", Value: string(a.RiskLevel), Short: true},
				{Title: "Wind", Value: fmt.Sprintf("%g kn", a.WindSpeed), Short: true},
				{Title: "Waves", Value: fmt.Sprintf("%gm", a.WaveHeight), Short: true},
			},
		})
	}
	if len(attachments) == 0 {
		return nil
	}

	msg := &slack.WebhookMessage{
		Channel:     s.channel,
		Text:        fmt.Sprintf(":rotating_light: *%d new maritime weather alert(s)*", len(attachments)),
		Attachments: attachments,
	}
	if err := slack.PostWebhookContext(ctx, s.webhookURL, msg); err != nil {
		logger.Warn("Slack notification failed", "error", err, "alerts", len(attachments))
		return fmt.Errorf("post slack webhook: %w", err)
	}
	logger.Debug("Slack notification sent", "alerts", len(attachments))
	return nil
}

func severityEmoji(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return ":red_circle:"
	case models.SeverityMedium:
		return ":large_orange_circle:"
	default:
		return ":large_blue_circle:"
	}
}

func severityColor(s models.Severity) string {
	switch s {
	case models.SeverityHigh:
		return "danger"
	case models.SeverityMedium:
		return "warning"
	default:
		return "#439FE0"
	}
}
