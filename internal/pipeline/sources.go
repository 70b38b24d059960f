package pipeline

import (
	"context"
	"strings"
	"time"

	"github.com/weatherengine/maritime/internal/backend"
	"github.com/weatherengine/maritime/internal/fixtures"
	"github.com/weatherengine/maritime/internal/models"
	"github.com/weatherengine/maritime/pkg/utils"
)

// upstreamAlertLifetime is how long an alert from the bare upstream feed
// stays active; the feed carries no expiry of its own.
const upstreamAlertLifetime = 24 * time.Hour

// SeedSource serves the built-in sample alerts
type SeedSource struct {
	now func() time.Time
}

// NewSeedSource creates a seed source anchored at the wall clock
func NewSeedSource() *SeedSource {
	return &SeedSource{now: time.Now}
}

func (s *SeedSource) Name() string { return "seed" }

// Fetch returns a fresh copy of the seed alerts
func (s *SeedSource) Fetch(ctx context.Context) ([]models.Alert, error) {
	return fixtures.Alerts(s.now().UTC())
}

// AlertFeed is the upstream endpoint BackendSource reads
type AlertFeed interface {
	Alerts(ctx context.Context) ([]backend.AlertRow, error)
}

// BackendSource maps the upstream alert rows to alerts
type BackendSource struct {
	feed AlertFeed
	now  func() time.Time
}

// NewBackendSource creates a source over the upstream alert feed
func NewBackendSource(feed AlertFeed) *BackendSource {
	return &BackendSource{feed: feed, now: time.Now}
}

func (b *BackendSource) Name() string { return "backend" }

// Fetch converts each row. Rows with a non-positive id are skipped; unknown
// severities are treated as low.
func (b *BackendSource) Fetch(ctx context.Context) ([]models.Alert, error) {
	rows, err := b.feed.Alerts(ctx)
	if err != nil {
		return nil, err
	}
	now := b.now().UTC()
	out := make([]models.Alert, 0, len(rows))
	for _, row := range rows {
		if row.ID <= 0 {
			continue
		}
		sev := models.Severity(strings.ToLower(strings.TrimSpace(row.Severity)))
		if !sev.Valid() {
			sev = models.SeverityLow
		}
		out = append(out, models.Alert{
			ID:           row.ID,
			Severity:     sev,
			Title:        utils.Truncate(row.Message, 80),
			Description:  row.Message,
			IssueTime:    now,
			ExpiryTime:   now.Add(upstreamAlertLifetime),
			Duration:     "Next 24 hours",
			Priority:     priorityFor(sev),
			Source:       "Maritime Backend",
			Acknowledged: bool(row.Acknowledged),
		})
	}
	return out, nil
}

func priorityFor(s models.Severity) int {
	switch s {
	case models.SeverityHigh:
		return 1
	case models.SeverityMedium:
		return 2
	default:
		return 3
	}
}
