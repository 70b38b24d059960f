package store

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/weatherengine/maritime/internal/models"
)

func sampleAlerts(now time.Time) []models.Alert {
	vis := 0.5
	return []models.Alert{
		{
			ID: 1, Severity: models.SeverityHigh, RiskLevel: models.RiskExtreme, Title: "Cyclone",
			IssueTime: now.Add(-time.Hour), ExpiryTime: now.Add(12 * time.Hour),
			Recommendations: []string{"Seek shelter"}, AffectedVessels: 23,
			Coordinates: &models.Coordinates{Lat: 19.5, Lon: 72.1},
		},
		{
			ID: 2, Severity: models.SeverityMedium, RiskLevel: models.RiskModerate, Title: "Fog",
			IssueTime: now.Add(-2 * time.Hour), ExpiryTime: now.Add(time.Hour),
			Visibility: &vis, AffectedVessels: 5,
		},
		{
			ID: 3, Severity: models.SeverityLow, RiskLevel: models.RiskLow, Title: "Swell",
			IssueTime: now.Add(-3 * time.Hour), ExpiryTime: now.Add(-time.Hour),
			Acknowledged: true,
		},
	}
}

func TestInMemoryStore_ReplaceAndList(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now().UTC()

	if err := store.ReplaceAlerts(ctx, sampleAlerts(now)); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}

	alerts, err := store.ListAlerts(ctx)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if len(alerts) != 3 {
		t.Fatalf("Expected 3 alerts, got %d", len(alerts))
	}
	for i, want := range []int{1, 2, 3} {
		if alerts[i].ID != want {
			t.Errorf("Expected alert %d at position %d, got %d", want, i, alerts[i].ID)
		}
	}

	// Mutating the returned copy must not leak into the store
	alerts[0].Recommendations[0] = "changed"
	alerts[0].Coordinates.Lat = 0
	again, _ := store.ListAlerts(ctx)
	if again[0].Recommendations[0] != "Seek shelter" || again[0].Coordinates.Lat != 19.5 {
		t.Error("Expected store to hold independent copies")
	}

	// Replacing drops alerts that are no longer present
	if err := store.ReplaceAlerts(ctx, sampleAlerts(now)[:1]); err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if a, _ := store.GetAlert(ctx, 2); a != nil {
		t.Errorf("Expected alert 2 to be gone after replace, got %+v", a)
	}
}

func TestInMemoryStore_GetAlert(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_ = store.ReplaceAlerts(ctx, sampleAlerts(time.Now()))

	a, err := store.GetAlert(ctx, 2)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if a == nil || a.Title != "Fog" {
		t.Fatalf("Expected Fog alert, got %+v", a)
	}

	missing, err := store.GetAlert(ctx, 99)
	if err != nil || missing != nil {
		t.Errorf("Expected nil, nil for unknown id, got %+v, %v", missing, err)
	}
}

func TestInMemoryStore_MarkAcknowledged(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_ = store.ReplaceAlerts(ctx, sampleAlerts(time.Now()))
	at := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

	n, err := store.MarkAcknowledged(ctx, []int{1, 3, 42}, "ops", at)
	if err != nil {
		t.Fatalf("Expected no error, got %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 alert changed, got %d", n)
	}

	a, _ := store.GetAlert(ctx, 1)
	if !a.Acknowledged || a.AcknowledgedBy != "ops" || a.AcknowledgedAt == nil || !a.AcknowledgedAt.Equal(at) {
		t.Errorf("Expected alert 1 acknowledged by ops at %v, got %+v", at, a)
	}

	// Second call is a no-op
	n, _ = store.MarkAcknowledged(ctx, []int{1}, "other", at.Add(time.Hour))
	if n != 0 {
		t.Errorf("Expected 0 alerts changed, got %d", n)
	}
	a, _ = store.GetAlert(ctx, 1)
	if a.AcknowledgedBy != "ops" {
		t.Errorf("Expected acknowledgement to stay with ops, got %s", a.AcknowledgedBy)
	}
}

func TestInMemoryStore_DeleteAndArchive(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	_ = store.ReplaceAlerts(ctx, sampleAlerts(time.Now()))

	ok, err := store.DeleteAlert(ctx, 2)
	if err != nil || !ok {
		t.Fatalf("Expected delete to succeed, got %v, %v", ok, err)
	}
	ok, _ = store.DeleteAlert(ctx, 2)
	if ok {
		t.Error("Expected second delete to report false")
	}

	// Index stays consistent after removal from the middle
	a, _ := store.GetAlert(ctx, 3)
	if a == nil || a.ID != 3 {
		t.Errorf("Expected alert 3 after delete, got %+v", a)
	}

	base := time.Now().UTC()
	_ = store.ArchiveAlert(ctx, models.ArchivedAlert{ArchiveID: "a", Alert: models.Alert{ID: 2}, DismissedAt: base})
	_ = store.ArchiveAlert(ctx, models.ArchivedAlert{ArchiveID: "b", Alert: models.Alert{ID: 5}, DismissedAt: base.Add(time.Minute)})

	archived, _ := store.ListArchived(ctx)
	if len(archived) != 2 || archived[0].ArchiveID != "b" {
		t.Errorf("Expected newest tombstone first, got %+v", archived)
	}
}

func TestInMemoryStore_Applied(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	_ = store.SetApplied(ctx, "waves")
	_ = store.SetApplied(ctx, "speed")
	_ = store.SetApplied(ctx, "speed")

	keys, _ := store.ListApplied(ctx)
	if len(keys) != 2 || keys[0] != "speed" || keys[1] != "waves" {
		t.Errorf("Expected [speed waves], got %v", keys)
	}

	_ = store.ClearApplied(ctx, "speed")
	keys, _ = store.ListApplied(ctx)
	if len(keys) != 1 || keys[0] != "waves" {
		t.Errorf("Expected [waves], got %v", keys)
	}
}

func TestInMemoryStore_Preferences(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()

	p, _ := store.GetPreferences(ctx)
	if p != models.DefaultPreferences() {
		t.Errorf("Expected default preferences, got %+v", p)
	}

	want := models.Preferences{Low: true, AutoRefresh: true}
	_ = store.SavePreferences(ctx, want)
	p, _ = store.GetPreferences(ctx)
	if p != want {
		t.Errorf("Expected %+v, got %+v", want, p)
	}
}

func TestInMemoryStore_Health(t *testing.T) {
	store := NewInMemoryStore()
	if err := store.Health(context.Background()); err != nil {
		t.Errorf("Expected no error, got %v", err)
	}
}

func TestInMemoryStore_ConcurrentAccess(t *testing.T) {
	store := NewInMemoryStore()
	ctx := context.Background()
	now := time.Now()
	_ = store.ReplaceAlerts(ctx, sampleAlerts(now))

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			_ = store.ReplaceAlerts(ctx, sampleAlerts(now))
		}()
		go func() {
			defer wg.Done()
			_, _ = store.MarkAcknowledged(ctx, []int{1, 2}, "ops", now)
			_, _ = store.ListAlerts(ctx)
		}()
	}
	wg.Wait()

	alerts, _ := store.ListAlerts(ctx)
	if len(alerts) != 3 {
		t.Errorf("Expected 3 alerts after concurrent access, got %d", len(alerts))
	}
}
