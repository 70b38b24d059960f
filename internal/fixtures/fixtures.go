// Package fixtures exposes the embedded seed data shared by the alert store,
// the forecast fallback and tests.
package fixtures

import (
	_ "embed"
	"fmt"
	"sync"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/weatherengine/maritime/internal/models"
)

//go:embed seed.yaml
var seedYAML []byte

type seedAlert struct {
	ID                 int                 `yaml:"id"`
	Severity           string              `yaml:"severity"`
	RiskLevel          string              `yaml:"riskLevel"`
	Type               string              `yaml:"type"`
	Title              string              `yaml:"title"`
	Description        string              `yaml:"description"`
	Location           string              `yaml:"location"`
	Coordinates        *models.Coordinates `yaml:"coordinates"`
	IssuedAgo          string              `yaml:"issuedAgo"`
	ExpiresIn          string              `yaml:"expiresIn"`
	Duration           string              `yaml:"duration"`
	Impact             string              `yaml:"impact"`
	Priority           int                 `yaml:"priority"`
	Source             string              `yaml:"source"`
	Acknowledged       bool                `yaml:"acknowledged"`
	AffectedVessels    int                 `yaml:"affectedVessels"`
	WindSpeed          float64             `yaml:"windSpeed"`
	WindGusts          float64             `yaml:"windGusts"`
	WaveHeight         float64             `yaml:"waveHeight"`
	Visibility         *float64            `yaml:"visibility"`
	CurrentSpeed       *float64            `yaml:"currentSpeed"`
	BarometricPressure *float64            `yaml:"barometricPressure"`
	Recommendations    []string            `yaml:"recommendations"`
}

type seedFile struct {
	Alerts   []seedAlert          `yaml:"alerts"`
	Forecast []models.DayForecast `yaml:"forecast"`
}

var (
	parseOnce sync.Once
	parsed    seedFile
	parseErr  error
)

func load() (seedFile, error) {
	parseOnce.Do(func() {
		if err := yaml.Unmarshal(seedYAML, &parsed); err != nil {
			parseErr = fmt.Errorf("parse seed data: %w", err)
		}
	})
	return parsed, parseErr
}

// Alerts returns a fresh copy of the seed alerts with times anchored at now
func Alerts(now time.Time) ([]models.Alert, error) {
	seed, err := load()
	if err != nil {
		return nil, err
	}
	out := make([]models.Alert, 0, len(seed.Alerts))
	for _, s := range seed.Alerts {
		ago, err := time.ParseDuration(s.IssuedAgo)
		if err != nil {
			return nil, fmt.Errorf("seed alert %d: issuedAgo: %w", s.ID, err)
		}
		in, err := time.ParseDuration(s.ExpiresIn)
		if err != nil {
			return nil, fmt.Errorf("seed alert %d: expiresIn: %w", s.ID, err)
		}
		a := models.Alert{
			ID:                 s.ID,
			Severity:           models.Severity(s.Severity),
			RiskLevel:          models.AlertRisk(s.RiskLevel),
			Type:               s.Type,
			Title:              s.Title,
			Description:        s.Description,
			Location:           s.Location,
			IssueTime:          now.Add(-ago),
			ExpiryTime:         now.Add(in),
			Duration:           s.Duration,
			Impact:             s.Impact,
			Priority:           s.Priority,
			Source:             s.Source,
			Recommendations:    append([]string(nil), s.Recommendations...),
			AffectedVessels:    s.AffectedVessels,
			WindSpeed:          s.WindSpeed,
			WindGusts:          s.WindGusts,
			WaveHeight:         s.WaveHeight,
			Visibility:         copyFloat(s.Visibility),
			CurrentSpeed:       copyFloat(s.CurrentSpeed),
			BarometricPressure: copyFloat(s.BarometricPressure),
			Acknowledged:       s.Acknowledged,
		}
		if s.Coordinates != nil {
			c := *s.Coordinates
			a.Coordinates = &c
		}
		if err := a.Validate(); err != nil {
			return nil, fmt.Errorf("seed data: %w", err)
		}
		out = append(out, a)
	}
	return out, nil
}

// ForecastSample returns a copy of the 10-day sample forecast without
// labels, dates or levels; the forecast projector fills those in.
func ForecastSample() ([]models.DayForecast, error) {
	seed, err := load()
	if err != nil {
		return nil, err
	}
	return append([]models.DayForecast(nil), seed.Forecast...), nil
}

func copyFloat(p *float64) *float64 {
	if p == nil {
		return nil
	}
	v := *p
	return &v
}
