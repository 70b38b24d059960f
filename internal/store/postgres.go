package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"github.com/weatherengine/maritime/internal/models"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db Database
}

// NewPostgresStore creates a new PostgreSQL store
func NewPostgresStore(db Database) *PostgresStore {
	return &PostgresStore{db: db}
}

const alertColumns = `
	id, severity, risk_level, type, title, description, location, lat, lon,
	issue_time, expiry_time, duration, impact, priority, source, recommendations,
	affected_vessels, wind_speed, wind_gusts, wave_height, visibility,
	current_speed, barometric_pressure, acknowledged, acknowledged_at, acknowledged_by`

// ReplaceAlerts swaps the whole collection inside one transaction
func (s *PostgresStore) ReplaceAlerts(ctx context.Context, alerts []models.Alert) error {
	insert := `
		INSERT INTO alerts (` + alertColumns + `, position)
		VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16,
			$17, $18, $19, $20, $21, $22, $23, $24, $25, $26, $27
		)`

	return s.db.WithTx(ctx, func(tx pgx.Tx) error {
		if _, err := tx.Exec(ctx, `DELETE FROM alerts`); err != nil {
			return fmt.Errorf("clear alerts: %w", err)
		}
		for pos, a := range alerts {
			var lat, lon *float64
			if a.Coordinates != nil {
				lat, lon = &a.Coordinates.Lat, &a.Coordinates.Lon
			}
			recs := a.Recommendations
			if recs == nil {
				recs = []string{}
			}
			_, err := tx.Exec(ctx, insert,
				a.ID, string(a.Severity), string(a.RiskLevel), a.Type, a.Title, a.Description,
				a.Location, lat, lon, a.IssueTime, a.ExpiryTime, a.Duration, a.Impact,
				a.Priority, a.Source, recs, a.AffectedVessels, a.WindSpeed, a.WindGusts,
				a.WaveHeight, a.Visibility, a.CurrentSpeed, a.BarometricPressure,
				a.Acknowledged, a.AcknowledgedAt, a.AcknowledgedBy, pos,
			)
			if err != nil {
				return fmt.Errorf("insert alert %d: %w", a.ID, err)
			}
		}
		return nil
	})
}

// ListAlerts returns the collection in insertion order
func (s *PostgresStore) ListAlerts(ctx context.Context) ([]models.Alert, error) {
	rows, err := s.db.Query(ctx, `SELECT `+alertColumns+` FROM alerts ORDER BY position`)
	if err != nil {
		return nil, fmt.Errorf("query alerts: %w", err)
	}
	defer rows.Close()

	alerts := []models.Alert{}
	for rows.Next() {
		a, err := scanAlert(rows)
		if err != nil {
			return nil, err
		}
		alerts = append(alerts, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate alerts: %w", err)
	}
	return alerts, nil
}

// GetAlert retrieves a single alert by ID
func (s *PostgresStore) GetAlert(ctx context.Context, id int) (*models.Alert, error) {
	row := s.db.QueryRow(ctx, `SELECT `+alertColumns+` FROM alerts WHERE id = $1`, id)
	a, err := scanAlert(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &a, nil
}

// MarkAcknowledged acknowledges every listed alert that is not yet acknowledged
func (s *PostgresStore) MarkAcknowledged(ctx context.Context, ids []int, by string, at time.Time) (int, error) {
	if len(ids) == 0 {
		return 0, nil
	}
	row := s.db.QueryRow(ctx, `
		WITH updated AS (
			UPDATE alerts
			SET acknowledged = TRUE, acknowledged_at = $2, acknowledged_by = $3
			WHERE id = ANY($1) AND acknowledged = FALSE
			RETURNING id
		)
		SELECT count(*) FROM updated`, ids, at, by)

	var n int
	if err := row.Scan(&n); err != nil {
		return 0, fmt.Errorf("acknowledge alerts: %w", err)
	}
	return n, nil
}

// DeleteAlert removes one alert and reports whether it existed
func (s *PostgresStore) DeleteAlert(ctx context.Context, id int) (bool, error) {
	row := s.db.QueryRow(ctx, `
		WITH deleted AS (DELETE FROM alerts WHERE id = $1 RETURNING id)
		SELECT count(*) FROM deleted`, id)

	var n int
	if err := row.Scan(&n); err != nil {
		return false, fmt.Errorf("delete alert %d: %w", id, err)
	}
	return n > 0, nil
}

// ArchiveAlert stores a dismissal tombstone
func (s *PostgresStore) ArchiveAlert(ctx context.Context, archived models.ArchivedAlert) error {
	archiveID, err := uuid.Parse(archived.ArchiveID)
	if err != nil {
		return fmt.Errorf("archive id %q: %w", archived.ArchiveID, err)
	}
	snapshot, err := json.Marshal(archived.Alert)
	if err != nil {
		return fmt.Errorf("encode archived alert: %w", err)
	}
	err = s.db.Exec(ctx, `
		INSERT INTO archived_alerts (archive_id, alert_id, alert, dismissed_at, dismissed_by)
		VALUES ($1, $2, $3, $4, $5)`,
		[16]byte(archiveID), archived.Alert.ID, snapshot, archived.DismissedAt, archived.DismissedBy,
	)
	if err != nil {
		return fmt.Errorf("archive alert %d: %w", archived.Alert.ID, err)
	}
	return nil
}

// ListArchived returns tombstones newest first
func (s *PostgresStore) ListArchived(ctx context.Context) ([]models.ArchivedAlert, error) {
	rows, err := s.db.Query(ctx, `
		SELECT archive_id::text, alert, dismissed_at, dismissed_by
		FROM archived_alerts
		ORDER BY dismissed_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("query archived alerts: %w", err)
	}
	defer rows.Close()

	out := []models.ArchivedAlert{}
	for rows.Next() {
		var (
			a        models.ArchivedAlert
			snapshot []byte
		)
		if err := rows.Scan(&a.ArchiveID, &snapshot, &a.DismissedAt, &a.DismissedBy); err != nil {
			return nil, fmt.Errorf("scan archived alert: %w", err)
		}
		if err := json.Unmarshal(snapshot, &a.Alert); err != nil {
			return nil, fmt.Errorf("decode archived alert %s: %w", a.ArchiveID, err)
		}
		out = append(out, a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate archived alerts: %w", err)
	}
	return out, nil
}

// SetApplied marks a recommendation key as applied
func (s *PostgresStore) SetApplied(ctx context.Context, key string) error {
	err := s.db.Exec(ctx, `
		INSERT INTO applied_recommendations (key) VALUES ($1)
		ON CONFLICT (key) DO NOTHING`, key)
	if err != nil {
		return fmt.Errorf("set applied %s: %w", key, err)
	}
	return nil
}

// ClearApplied removes a recommendation key from the applied set
func (s *PostgresStore) ClearApplied(ctx context.Context, key string) error {
	if err := s.db.Exec(ctx, `DELETE FROM applied_recommendations WHERE key = $1`, key); err != nil {
		return fmt.Errorf("clear applied %s: %w", key, err)
	}
	return nil
}

// ListApplied returns applied keys sorted alphabetically
func (s *PostgresStore) ListApplied(ctx context.Context) ([]string, error) {
	rows, err := s.db.Query(ctx, `SELECT key FROM applied_recommendations ORDER BY key`)
	if err != nil {
		return nil, fmt.Errorf("query applied recommendations: %w", err)
	}
	defer rows.Close()

	keys := []string{}
	for rows.Next() {
		var k string
		if err := rows.Scan(&k); err != nil {
			return nil, fmt.Errorf("scan applied recommendation: %w", err)
		}
		keys = append(keys, k)
	}
	return keys, rows.Err()
}

// SavePreferences upserts the single preferences row
func (s *PostgresStore) SavePreferences(ctx context.Context, prefs models.Preferences) error {
	doc, err := json.Marshal(prefs)
	if err != nil {
		return fmt.Errorf("encode preferences: %w", err)
	}
	err = s.db.Exec(ctx, `
		INSERT INTO alert_preferences (id, prefs, updated_at) VALUES (1, $1, NOW())
		ON CONFLICT (id) DO UPDATE SET prefs = EXCLUDED.prefs, updated_at = NOW()`, doc)
	if err != nil {
		return fmt.Errorf("save preferences: %w", err)
	}
	return nil
}

// GetPreferences returns stored preferences or the defaults
func (s *PostgresStore) GetPreferences(ctx context.Context) (models.Preferences, error) {
	var doc []byte
	err := s.db.QueryRow(ctx, `SELECT prefs FROM alert_preferences WHERE id = 1`).Scan(&doc)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return models.DefaultPreferences(), nil
		}
		return models.Preferences{}, fmt.Errorf("load preferences: %w", err)
	}
	var p models.Preferences
	if err := json.Unmarshal(doc, &p); err != nil {
		return models.Preferences{}, fmt.Errorf("decode preferences: %w", err)
	}
	return p, nil
}

// Health checks the database connection
func (s *PostgresStore) Health(ctx context.Context) error {
	return s.db.Health(ctx)
}

func scanAlert(row pgx.Row) (models.Alert, error) {
	var (
		a            models.Alert
		severity, rl string
		lat, lon     *float64
		recs         []string
		ackedBy      *string
	)
	err := row.Scan(
		&a.ID, &severity, &rl, &a.Type, &a.Title, &a.Description, &a.Location, &lat, &lon,
		&a.IssueTime, &a.ExpiryTime, &a.Duration, &a.Impact, &a.Priority, &a.Source, &recs,
		&a.AffectedVessels, &a.WindSpeed, &a.WindGusts, &a.WaveHeight, &a.Visibility,
		&a.CurrentSpeed, &a.BarometricPressure, &a.Acknowledged, &a.AcknowledgedAt, &ackedBy,
	)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return a, err
		}
		return a, fmt.Errorf("scan alert: %w", err)
	}
	a.Severity = models.Severity(severity)
	a.RiskLevel = models.AlertRisk(rl)
	a.Recommendations = recs
	if lat != nil && lon != nil {
		a.Coordinates = &models.Coordinates{Lat: *lat, Lon: *lon}
	}
	if ackedBy != nil {
		a.AcknowledgedBy = *ackedBy
	}
	return a, nil
}
