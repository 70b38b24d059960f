package store

import (
	"context"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/weatherengine/maritime/internal/models"
)

// Store defines the persistence contract for the alert collection, the
// dismissal archive, the applied-recommendation set and operator preferences.
// Alerts keep the order they were last replaced in.
type Store interface {
	ReplaceAlerts(ctx context.Context, alerts []models.Alert) error
	ListAlerts(ctx context.Context) ([]models.Alert, error)
	// GetAlert returns nil, nil when the id is unknown
	GetAlert(ctx context.Context, id int) (*models.Alert, error)
	// MarkAcknowledged flips unacknowledged alerts among ids and returns how
	// many changed. Already acknowledged or unknown ids are skipped.
	MarkAcknowledged(ctx context.Context, ids []int, by string, at time.Time) (int, error)
	DeleteAlert(ctx context.Context, id int) (bool, error)

	ArchiveAlert(ctx context.Context, archived models.ArchivedAlert) error
	ListArchived(ctx context.Context) ([]models.ArchivedAlert, error)

	SetApplied(ctx context.Context, key string) error
	ClearApplied(ctx context.Context, key string) error
	ListApplied(ctx context.Context) ([]string, error)

	SavePreferences(ctx context.Context, prefs models.Preferences) error
	GetPreferences(ctx context.Context) (models.Preferences, error)

	Health(ctx context.Context) error
}

// Database interface for dependency injection
type Database interface {
	Exec(ctx context.Context, sql string, args ...any) error
	Query(ctx context.Context, sql string, args ...any) (pgx.Rows, error)
	QueryRow(ctx context.Context, sql string, args ...any) pgx.Row
	WithTx(ctx context.Context, fn func(tx pgx.Tx) error) error
	Health(ctx context.Context) error
	IsConfigured() bool
}

// New creates a new store instance
func New(db Database) Store {
	if db != nil && db.IsConfigured() {
		return NewPostgresStore(db)
	}
	// Fallback to in-memory store if no database
	return NewInMemoryStore()
}
