package store

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/weatherengine/maritime/internal/models"
)

// InMemoryStore implements Store using in-memory storage
type InMemoryStore struct {
	mu       sync.RWMutex
	alerts   []models.Alert
	index    map[int]int
	archived []models.ArchivedAlert
	applied  map[string]time.Time
	prefs    *models.Preferences
}

// NewInMemoryStore creates a new in-memory store
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{
		index:   make(map[int]int),
		applied: make(map[string]time.Time),
	}
}

// ReplaceAlerts swaps the whole collection in one step
func (s *InMemoryStore) ReplaceAlerts(ctx context.Context, alerts []models.Alert) error {
	next := make([]models.Alert, len(alerts))
	index := make(map[int]int, len(alerts))
	for i, a := range alerts {
		next[i] = cloneAlert(a)
		index[a.ID] = i
	}

	s.mu.Lock()
	s.alerts = next
	s.index = index
	s.mu.Unlock()
	return nil
}

// ListAlerts returns a copy of the collection in insertion order
func (s *InMemoryStore) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Alert, len(s.alerts))
	for i, a := range s.alerts {
		out[i] = cloneAlert(a)
	}
	return out, nil
}

// GetAlert retrieves a single alert by ID
func (s *InMemoryStore) GetAlert(ctx context.Context, id int) (*models.Alert, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if i, exists := s.index[id]; exists {
		a := cloneAlert(s.alerts[i])
		return &a, nil
	}
	return nil, nil
}

// MarkAcknowledged acknowledges every listed alert that is not yet acknowledged
func (s *InMemoryStore) MarkAcknowledged(ctx context.Context, ids []int, by string, at time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	changed := 0
	for _, id := range ids {
		i, ok := s.index[id]
		if !ok || s.alerts[i].Acknowledged {
			continue
		}
		ts := at
		s.alerts[i].Acknowledged = true
		s.alerts[i].AcknowledgedAt = &ts
		s.alerts[i].AcknowledgedBy = by
		changed++
	}
	return changed, nil
}

// DeleteAlert removes one alert and reports whether it existed
func (s *InMemoryStore) DeleteAlert(ctx context.Context, id int) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	i, ok := s.index[id]
	if !ok {
		return false, nil
	}
	s.alerts = append(s.alerts[:i:i], s.alerts[i+1:]...)
	delete(s.index, id)
	for j := i; j < len(s.alerts); j++ {
		s.index[s.alerts[j].ID] = j
	}
	return true, nil
}

// ArchiveAlert appends a dismissal tombstone
func (s *InMemoryStore) ArchiveAlert(ctx context.Context, archived models.ArchivedAlert) error {
	archived.Alert = cloneAlert(archived.Alert)
	s.mu.Lock()
	s.archived = append(s.archived, archived)
	s.mu.Unlock()
	return nil
}

// ListArchived returns tombstones newest first
func (s *InMemoryStore) ListArchived(ctx context.Context) ([]models.ArchivedAlert, error) {
	s.mu.RLock()
	out := make([]models.ArchivedAlert, len(s.archived))
	for i, a := range s.archived {
		a.Alert = cloneAlert(a.Alert)
		out[i] = a
	}
	s.mu.RUnlock()

	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DismissedAt.After(out[j].DismissedAt)
	})
	return out, nil
}

// SetApplied marks a recommendation key as applied
func (s *InMemoryStore) SetApplied(ctx context.Context, key string) error {
	s.mu.Lock()
	if _, ok := s.applied[key]; !ok {
		s.applied[key] = time.Now().UTC()
	}
	s.mu.Unlock()
	return nil
}

// ClearApplied removes a recommendation key from the applied set
func (s *InMemoryStore) ClearApplied(ctx context.Context, key string) error {
	s.mu.Lock()
	delete(s.applied, key)
	s.mu.Unlock()
	return nil
}

// ListApplied returns applied keys sorted alphabetically
func (s *InMemoryStore) ListApplied(ctx context.Context) ([]string, error) {
	s.mu.RLock()
	out := make([]string, 0, len(s.applied))
	for k := range s.applied {
		out = append(out, k)
	}
	s.mu.RUnlock()

	sort.Strings(out)
	return out, nil
}

// SavePreferences stores the operator preferences
func (s *InMemoryStore) SavePreferences(ctx context.Context, prefs models.Preferences) error {
	s.mu.Lock()
	p := prefs
	s.prefs = &p
	s.mu.Unlock()
	return nil
}

// GetPreferences returns stored preferences or the defaults
func (s *InMemoryStore) GetPreferences(ctx context.Context) (models.Preferences, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.prefs == nil {
		return models.DefaultPreferences(), nil
	}
	return *s.prefs, nil
}

// Health always returns nil for in-memory store
func (s *InMemoryStore) Health(ctx context.Context) error {
	return nil
}

// cloneAlert deep-copies the slice and pointer fields of an alert
func cloneAlert(a models.Alert) models.Alert {
	if a.Coordinates != nil {
		c := *a.Coordinates
		a.Coordinates = &c
	}
	if a.Recommendations != nil {
		a.Recommendations = append([]string(nil), a.Recommendations...)
	}
	a.Visibility = cloneFloat(a.Visibility)
	a.CurrentSpeed = cloneFloat(a.CurrentSpeed)
	a.BarometricPressure = cloneFloat(a.BarometricPressure)
	if a.AcknowledgedAt != nil {
		t := *a.AcknowledgedAt
		a.AcknowledgedAt = &t
	}
	return a
}

func cloneFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
