package models

import (
	"fmt"
	"strings"
	"time"
)

// Severity is the source-assigned urgency of an alert
type Severity string

const (
	SeverityHigh   Severity = "high"
	SeverityMedium Severity = "medium"
	SeverityLow    Severity = "low"
)

// Valid reports whether s is one of the known severities
func (s Severity) Valid() bool {
	switch s {
	case SeverityHigh, SeverityMedium, SeverityLow:
		return true
	}
	return false
}

// AlertRisk is the ordinal risk label carried by an alert
type AlertRisk string

const (
	RiskExtreme  AlertRisk = "EXTREME"
	RiskHigh     AlertRisk = "HIGH"
	RiskModerate AlertRisk = "MODERATE"
	RiskLow      AlertRisk = "LOW"
)

// Coordinates is a lat/lon pair in decimal degrees
type Coordinates struct {
	Lat float64 `json:"lat" yaml:"lat"`
	Lon float64 `json:"lon" yaml:"lon"`
}

// Alert represents a maritime weather warning
type Alert struct {
	ID                 int          `json:"id" db:"id"`
	Severity           Severity     `json:"severity" db:"severity"`
	RiskLevel          AlertRisk    `json:"riskLevel" db:"risk_level"`
	Type               string       `json:"type" db:"type"`
	Title              string       `json:"title" db:"title"`
	Description        string       `json:"description" db:"description"`
	Location           string       `json:"location" db:"location"`
	Coordinates        *Coordinates `json:"coordinates,omitempty" db:"-"`
	IssueTime          time.Time    `json:"issueTime" db:"issue_time"`
	ExpiryTime         time.Time    `json:"expiryTime" db:"expiry_time"`
	Duration           string       `json:"duration" db:"duration"`
	Impact             string       `json:"impact" db:"impact"`
	Priority           int          `json:"priority" db:"priority"`
	Source             string       `json:"source" db:"source"`
	Recommendations    []string     `json:"recommendations" db:"recommendations"`
	AffectedVessels    int          `json:"affectedVessels" db:"affected_vessels"`
	WindSpeed          float64      `json:"windSpeed" db:"wind_speed"`
	WindGusts          float64      `json:"windGusts,omitempty" db:"wind_gusts"`
	WaveHeight         float64      `json:"waveHeight" db:"wave_height"`
	Visibility         *float64     `json:"visibility,omitempty" db:"visibility"`
	CurrentSpeed       *float64     `json:"currentSpeed,omitempty" db:"current_speed"`
	BarometricPressure *float64     `json:"barometricPressure,omitempty" db:"barometric_pressure"`
	Acknowledged       bool         `json:"acknowledged" db:"acknowledged"`
	AcknowledgedAt     *time.Time   `json:"acknowledgedAt,omitempty" db:"acknowledged_at"`
	AcknowledgedBy     string       `json:"acknowledgedBy,omitempty" db:"acknowledged_by"`
}

// Validate checks the invariants every stored alert must satisfy
func (a *Alert) Validate() error {
	if a.ID <= 0 {
		return fmt.Errorf("alert id must be positive, got %d", a.ID)
	}
	if !a.Severity.Valid() {
		return fmt.Errorf("alert %d: unknown severity %q", a.ID, a.Severity)
	}
	if !a.ExpiryTime.After(a.IssueTime) {
		return fmt.Errorf("alert %d: expiry time must be after issue time", a.ID)
	}
	return nil
}

// IsActive reports whether the alert has not yet expired at now
func (a *Alert) IsActive(now time.Time) bool {
	return now.Before(a.ExpiryTime)
}

// ArchivedAlert is the tombstone left behind when an alert is dismissed
type ArchivedAlert struct {
	ArchiveID   string    `json:"archiveId"`
	Alert       Alert     `json:"alert"`
	DismissedAt time.Time `json:"dismissedAt"`
	DismissedBy string    `json:"dismissedBy"`
}

// AlertStats summarises the current alert collection
type AlertStats struct {
	Total           int `json:"total"`
	Unacknowledged  int `json:"unacknowledged"`
	High            int `json:"high"`
	Medium          int `json:"medium"`
	Low             int `json:"low"`
	AffectedVessels int `json:"affectedVessels"`
}

// ComputeStats derives statistics from scratch over alerts
func ComputeStats(alerts []Alert) AlertStats {
	stats := AlertStats{Total: len(alerts)}
	for _, a := range alerts {
		if !a.Acknowledged {
			stats.Unacknowledged++
		}
		switch a.Severity {
		case SeverityHigh:
			stats.High++
		case SeverityMedium:
			stats.Medium++
		case SeverityLow:
			stats.Low++
		}
		stats.AffectedVessels += a.AffectedVessels
	}
	return stats
}

// FilterKind selects which alerts a Filter keeps
type FilterKind string

const (
	FilterAll            FilterKind = "all"
	FilterUnacknowledged FilterKind = "unacknowledged"
	FilterActive         FilterKind = "active"
	FilterSeverity       FilterKind = "severity"
)

// AlertFilter is the predicate applied to the alert list
type AlertFilter struct {
	Kind     FilterKind `json:"kind"`
	Severity Severity   `json:"severity,omitempty"`
}

// ParseFilter accepts "all", "unacknowledged", "active" or a severity name.
// An empty string means all.
func ParseFilter(s string) (AlertFilter, error) {
	s = strings.ToLower(strings.TrimSpace(s))
	switch s {
	case "", string(FilterAll):
		return AlertFilter{Kind: FilterAll}, nil
	case string(FilterUnacknowledged):
		return AlertFilter{Kind: FilterUnacknowledged}, nil
	case string(FilterActive):
		return AlertFilter{Kind: FilterActive}, nil
	}
	if sev := Severity(s); sev.Valid() {
		return AlertFilter{Kind: FilterSeverity, Severity: sev}, nil
	}
	return AlertFilter{}, fmt.Errorf("unknown alert filter %q", s)
}

// String returns the filter in the form ParseFilter accepts
func (f AlertFilter) String() string {
	if f.Kind == FilterSeverity {
		return string(f.Severity)
	}
	if f.Kind == "" {
		return string(FilterAll)
	}
	return string(f.Kind)
}

// Matches checks if an alert passes the filter at time now
func (f AlertFilter) Matches(a Alert, now time.Time) bool {
	switch f.Kind {
	case FilterUnacknowledged:
		return !a.Acknowledged
	case FilterActive:
		return a.IsActive(now)
	case FilterSeverity:
		return a.Severity == f.Severity
	default:
		return true
	}
}

// Preferences are the operator's notification settings
type Preferences struct {
	High        bool `json:"high"`
	Medium      bool `json:"medium"`
	Low         bool `json:"low"`
	AutoRefresh bool `json:"autoRefresh"`
	Sounds      bool `json:"sounds"`
}

// DefaultPreferences mirrors the dashboard's initial settings
func DefaultPreferences() Preferences {
	return Preferences{High: true, Medium: true, Low: false}
}

// Wants reports whether notifications for severity s are enabled
func (p Preferences) Wants(s Severity) bool {
	switch s {
	case SeverityHigh:
		return p.High
	case SeverityMedium:
		return p.Medium
	case SeverityLow:
		return p.Low
	}
	return false
}
