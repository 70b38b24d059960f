// Package alerts owns the alert lifecycle: refresh, filtering,
// acknowledgement, dismissal and operator preferences.
package alerts

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	apperrors "github.com/weatherengine/maritime/internal/errors"
	"github.com/weatherengine/maritime/internal/hub"
	"github.com/weatherengine/maritime/internal/logger"
	"github.com/weatherengine/maritime/internal/metrics"
	"github.com/weatherengine/maritime/internal/models"
	"github.com/weatherengine/maritime/internal/notifier"
	"github.com/weatherengine/maritime/internal/store"
	"github.com/weatherengine/maritime/pkg/utils"
)

// Upstream is the part of the weather backend that must confirm alert
// mutations before they are committed locally.
type Upstream interface {
	Acknowledge(ctx context.Context, ids []int) error
	UpdatePreferences(ctx context.Context, prefs models.Preferences) error
}

// Source produces a complete replacement alert batch
type Source interface {
	Name() string
	Fetch(ctx context.Context) ([]models.Alert, error)
}

// Result reports the outcome of an acknowledge command
type Result struct {
	Acknowledged   int   `json:"acknowledged"`
	NoActionNeeded bool  `json:"noActionNeeded"`
	IDs            []int `json:"ids,omitempty"`
}

// RefreshResult reports the outcome of a refresh
type RefreshResult struct {
	Source    string `json:"source"`
	Total     int    `json:"total"`
	Added     int    `json:"added"`
	Discarded bool   `json:"discarded"`
}

// Option configures a Service
type Option func(*Service)

// WithPublisher routes lifecycle events to p
func WithPublisher(p hub.Publisher) Option {
	return func(s *Service) { s.events = p }
}

// WithNotifier announces newly arrived alerts through n
func WithNotifier(n notifier.Notifier) Option {
	return func(s *Service) { s.notifier = n }
}

// WithClock overrides the time source
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// Service is the alert lifecycle state machine. Mutations are serialised;
// reads go straight to the store.
type Service struct {
	store    store.Store
	upstream Upstream
	source   Source
	events   hub.Publisher
	notifier notifier.Notifier
	now      func() time.Time

	mu     sync.Mutex
	seq    utils.Sequence
	loaded bool
}

// NewService creates the alert service
func NewService(st store.Store, upstream Upstream, source Source, opts ...Option) *Service {
	s := &Service{
		store:    st,
		upstream: upstream,
		source:   source,
		events:   hub.Nop{},
		notifier: notifier.Nop{},
		now:      func() time.Time { return time.Now().UTC() },
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// List returns every alert in the order of the last refresh
func (s *Service) List(ctx context.Context) ([]models.Alert, error) {
	return s.store.ListAlerts(ctx)
}

// Get returns one alert or ErrNotFound
func (s *Service) Get(ctx context.Context, id int) (*models.Alert, error) {
	a, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		return nil, fmt.Errorf("alert %d: %w", id, apperrors.ErrNotFound)
	}
	return a, nil
}

// Filter returns the alerts matching f, keeping list order
func (s *Service) Filter(ctx context.Context, f models.AlertFilter) ([]models.Alert, error) {
	all, err := s.store.ListAlerts(ctx)
	if err != nil {
		return nil, err
	}
	now := s.now()
	out := make([]models.Alert, 0, len(all))
	for _, a := range all {
		if f.Matches(a, now) {
			out = append(out, a)
		}
	}
	return out, nil
}

// Statistics recomputes the summary from the current collection
func (s *Service) Statistics(ctx context.Context) (models.AlertStats, error) {
	all, err := s.store.ListAlerts(ctx)
	if err != nil {
		return models.AlertStats{}, err
	}
	return models.ComputeStats(all), nil
}

// Archived lists dismissal tombstones, newest first
func (s *Service) Archived(ctx context.Context) ([]models.ArchivedAlert, error) {
	return s.store.ListArchived(ctx)
}

// Acknowledge confirms one alert with the upstream and then commits it.
// Unknown or already acknowledged ids succeed without any upstream call.
func (s *Service) Acknowledge(ctx context.Context, id int, by string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return Result{}, err
	}
	if a == nil || a.Acknowledged {
		metrics.RecordAlertAction("acknowledge", "noop")
		return Result{NoActionNeeded: true}, nil
	}
	return s.acknowledgeLocked(ctx, []int{id}, by, "acknowledge")
}

// AcknowledgeAll acknowledges every unacknowledged alert with one upstream call
func (s *Service) AcknowledgeAll(ctx context.Context, by string) (Result, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	all, err := s.store.ListAlerts(ctx)
	if err != nil {
		return Result{}, err
	}
	var ids []int
	for _, a := range all {
		if !a.Acknowledged {
			ids = append(ids, a.ID)
		}
	}
	if len(ids) == 0 {
		metrics.RecordAlertAction("acknowledge_all", "noop")
		return Result{NoActionNeeded: true}, nil
	}
	return s.acknowledgeLocked(ctx, ids, by, "acknowledge_all")
}

func (s *Service) acknowledgeLocked(ctx context.Context, ids []int, by, action string) (Result, error) {
	log := logger.WithContext(ctx)

	if err := s.upstream.Acknowledge(ctx, ids); err != nil {
		metrics.RecordAlertAction(action, "error")
		log.Warn("Upstream rejected acknowledgement", "ids", ids, "error", err)
		return Result{}, fmt.Errorf("acknowledge alerts: %w", err)
	}

	at := s.now()
	n, err := s.store.MarkAcknowledged(ctx, ids, by, at)
	if err != nil {
		metrics.RecordAlertAction(action, "error")
		return Result{}, fmt.Errorf("commit acknowledgement: %w", err)
	}

	metrics.RecordAlertAction(action, "success")
	log.Info("Alerts acknowledged", "ids", ids, "by", by)
	s.events.Publish(hub.Event{Type: hub.EventAlertAcknowledged, Data: map[string]any{"ids": ids, "by": by}, At: at})
	return Result{Acknowledged: n, IDs: ids}, nil
}

// Dismiss removes an alert permanently and keeps a tombstone of it
func (s *Service) Dismiss(ctx context.Context, id int, by string) (*models.ArchivedAlert, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	a, err := s.store.GetAlert(ctx, id)
	if err != nil {
		return nil, err
	}
	if a == nil {
		metrics.RecordAlertAction("dismiss", "not_found")
		return nil, fmt.Errorf("alert %d: %w", id, apperrors.ErrNotFound)
	}

	archived := models.ArchivedAlert{
		ArchiveID:   uuid.NewString(),
		Alert:       *a,
		DismissedAt: s.now(),
		DismissedBy: by,
	}
	before, err := s.store.ListAlerts(ctx)
	if err != nil {
		metrics.RecordAlertAction("dismiss", "error")
		return nil, fmt.Errorf("list alerts: %w", err)
	}
	if _, err := s.store.DeleteAlert(ctx, id); err != nil {
		metrics.RecordAlertAction("dismiss", "error")
		return nil, fmt.Errorf("remove alert %d: %w", id, err)
	}
	if err := s.store.ArchiveAlert(ctx, archived); err != nil {
		// Put the alert back so it is not lost without a tombstone
		if rerr := s.store.ReplaceAlerts(ctx, before); rerr != nil {
			logger.WithContext(ctx).Error("Failed to restore alert after archive failure", "id", id, "error", rerr)
		}
		metrics.RecordAlertAction("dismiss", "error")
		return nil, fmt.Errorf("archive alert %d: %w", id, err)
	}

	metrics.RecordAlertAction("dismiss", "success")
	logger.WithContext(ctx).Info("Alert dismissed", "id", id, "by", by, "archive_id", archived.ArchiveID)
	s.events.Publish(hub.Event{Type: hub.EventAlertDismissed, Data: map[string]any{"id": id, "by": by}, At: archived.DismissedAt})
	return &archived, nil
}

// Refresh replaces the collection with a fresh batch from the source.
// A batch that completes after a newer one has been committed is dropped.
// Acknowledgements are carried forward and dismissed ids stay gone.
func (s *Service) Refresh(ctx context.Context) (RefreshResult, error) {
	token := s.seq.Next()
	res := RefreshResult{Source: s.source.Name()}

	batch, err := s.source.Fetch(ctx)
	if err != nil {
		metrics.RecordAlertAction("refresh", "error")
		return res, fmt.Errorf("refresh alerts from %s: %w", s.source.Name(), err)
	}

	s.mu.Lock()
	if !s.seq.Commit(token) {
		s.mu.Unlock()
		metrics.RecordAlertAction("refresh", "stale")
		logger.Debug("Discarding stale alert refresh", "token", token, "latest", s.seq.Latest())
		res.Discarded = true
		return res, nil
	}

	next, added, err := s.mergeLocked(ctx, batch)
	if err == nil {
		err = s.store.ReplaceAlerts(ctx, next)
	}
	firstLoad := !s.loaded
	if err == nil {
		s.loaded = true
	}
	s.mu.Unlock()

	if err != nil {
		metrics.RecordAlertAction("refresh", "error")
		return res, fmt.Errorf("replace alerts: %w", err)
	}

	res.Total = len(next)
	res.Added = len(added)
	metrics.RecordAlertAction("refresh", "success")
	logger.Info("Alerts refreshed", "source", res.Source, "total", res.Total, "added", res.Added)
	s.events.Publish(hub.Event{Type: hub.EventAlertsRefreshed, Data: res})

	if !firstLoad && len(added) > 0 {
		prefs, perr := s.store.GetPreferences(ctx)
		if perr == nil {
			_ = s.notifier.NotifyNewAlerts(ctx, added, prefs)
		}
	}
	return res, nil
}

func (s *Service) mergeLocked(ctx context.Context, batch []models.Alert) ([]models.Alert, []models.Alert, error) {
	current, err := s.store.ListAlerts(ctx)
	if err != nil {
		return nil, nil, err
	}
	archived, err := s.store.ListArchived(ctx)
	if err != nil {
		return nil, nil, err
	}

	known := make(map[int]models.Alert, len(current))
	for _, a := range current {
		known[a.ID] = a
	}
	dismissed := make(map[int]bool, len(archived))
	for _, a := range archived {
		dismissed[a.Alert.ID] = true
	}

	seen := make(map[int]bool, len(batch))
	next := make([]models.Alert, 0, len(batch))
	var added []models.Alert
	for _, a := range batch {
		if dismissed[a.ID] || seen[a.ID] {
			continue
		}
		if err := a.Validate(); err != nil {
			logger.Warn("Skipping invalid alert", "id", a.ID, "error", err)
			continue
		}
		seen[a.ID] = true

		prev, ok := known[a.ID]
		if !ok {
			added = append(added, a)
			next = append(next, a)
			continue
		}
		// Issue and expiry are fixed when an alert is first seen
		a.IssueTime = prev.IssueTime
		a.ExpiryTime = prev.ExpiryTime
		if prev.Acknowledged && !a.Acknowledged {
			a.Acknowledged = true
			a.AcknowledgedAt = prev.AcknowledgedAt
			a.AcknowledgedBy = prev.AcknowledgedBy
		}
		next = append(next, a)
	}
	return next, added, nil
}

// Preferences returns the operator's notification settings
func (s *Service) Preferences(ctx context.Context) (models.Preferences, error) {
	return s.store.GetPreferences(ctx)
}

// AutoRefreshEnabled reports whether the operator turned on periodic refresh
func (s *Service) AutoRefreshEnabled(ctx context.Context) bool {
	p, err := s.store.GetPreferences(ctx)
	return err == nil && p.AutoRefresh
}

// UpdatePreferences saves preferences after the upstream accepts them
func (s *Service) UpdatePreferences(ctx context.Context, prefs models.Preferences) (models.Preferences, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.upstream.UpdatePreferences(ctx, prefs); err != nil {
		metrics.RecordAlertAction("preferences", "error")
		return models.Preferences{}, fmt.Errorf("update preferences: %w", err)
	}
	if err := s.store.SavePreferences(ctx, prefs); err != nil {
		return models.Preferences{}, fmt.Errorf("save preferences: %w", err)
	}
	metrics.RecordAlertAction("preferences", "success")
	return prefs, nil
}
