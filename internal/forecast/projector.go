// Package forecast turns raw upstream forecasts into the 10-day outlook
// the dashboard shows, with a synthetic fallback when the upstream fails.
package forecast

import (
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/weatherengine/maritime/internal/classifier"
	"github.com/weatherengine/maritime/internal/fixtures"
	"github.com/weatherengine/maritime/internal/models"
	"github.com/weatherengine/maritime/pkg/utils"
)

// Days is the length of every projected forecast
const Days = 10

// ErrIncompleteForecast is returned when fewer than Days raw days arrive
var ErrIncompleteForecast = errors.New("incomplete forecast")

// Route plan verdicts
const (
	VerdictExcellent = "Excellent forecast for voyage"
	VerdictGood      = "Good conditions with some weather windows"
	VerdictDelay     = "Consider delaying or alternative routing"
)

// Projector normalises raw forecast days
type Projector struct {
	classifier *classifier.Classifier
}

// NewProjector creates a projector
func NewProjector(c *classifier.Classifier) *Projector {
	if c == nil {
		c = classifier.New()
	}
	return &Projector{classifier: c}
}

// Project truncates raw to Days entries, fills missing labels and
// recomputes every day's level. The input is not modified.
func (p *Projector) Project(raw []models.DayForecast) ([]models.DayForecast, error) {
	if len(raw) < Days {
		return nil, fmt.Errorf("%w: got %d days, need %d", ErrIncompleteForecast, len(raw), Days)
	}
	days := make([]models.DayForecast, Days)
	copy(days, raw[:Days])
	for i := range days {
		if days[i].Day == "" {
			days[i].Day = Label(i)
		}
		p.classifier.Classify(&days[i])
	}
	return days, nil
}

// Synthetic returns the sample outlook with dates counted from now
func (p *Projector) Synthetic(now time.Time) ([]models.DayForecast, error) {
	sample, err := fixtures.ForecastSample()
	if err != nil {
		return nil, err
	}
	if len(sample) < Days {
		return nil, fmt.Errorf("%w: sample has %d days", ErrIncompleteForecast, len(sample))
	}
	days := sample[:Days]
	for i := range days {
		days[i].Day = Label(i)
		days[i].Date = utils.DateStamp(now.AddDate(0, 0, i))
		days[i].Source = models.SourceSample
		p.classifier.Classify(&days[i])
	}
	return days, nil
}

// Label names the day at index i of a forecast
func Label(i int) string {
	switch i {
	case 0:
		return "Today"
	case 1:
		return "Tomorrow"
	default:
		return fmt.Sprintf("Day %d", i+1)
	}
}

// Summarize derives the headline figures of a projected forecast
func Summarize(days []models.DayForecast) models.ForecastSummary {
	var s models.ForecastSummary
	if len(days) == 0 {
		return s
	}
	s.MaxWind = math.Inf(-1)
	s.MinWind = math.Inf(1)
	var waves float64
	for _, d := range days {
		switch d.RecommendationLevel {
		case models.LevelOptimal:
			s.OptimalCount++
		case models.LevelCaution:
			s.CautionCount++
		case models.LevelHighRisk:
			s.HighRiskCount++
		}
		s.MaxWind = math.Max(s.MaxWind, d.Wind)
		s.MinWind = math.Min(s.MinWind, d.Wind)
		waves += d.Waves
	}
	s.AverageWaves = math.Round(waves/float64(len(days))*100) / 100
	return s
}

// PlanRoute picks the first optimal sailing windows and rates the outlook
func PlanRoute(days []models.DayForecast) models.RoutePlan {
	plan := models.RoutePlan{TotalDays: len(days), BestWindows: []models.DayForecast{}}
	for _, d := range days {
		if d.RecommendationLevel != models.LevelOptimal {
			continue
		}
		plan.OptimalDays++
		if len(plan.BestWindows) < 3 {
			plan.BestWindows = append(plan.BestWindows, d)
		}
	}
	switch {
	case plan.OptimalDays > 6:
		plan.Verdict = VerdictExcellent
	case plan.OptimalDays > 3:
		plan.Verdict = VerdictGood
	default:
		plan.Verdict = VerdictDelay
	}
	return plan
}

// Describe builds data info from the days themselves when the upstream
// sent none.
func Describe(days []models.DayForecast) *models.DataInfo {
	info := &models.DataInfo{}
	for _, d := range days {
		if d.IsEstimated() {
			info.EstimatedDays++
		} else {
			info.RealDays++
		}
	}
	if info.EstimatedDays > 0 {
		info.Note = fmt.Sprintf("%d of %d days are estimated", info.EstimatedDays, len(days))
	}
	return info
}
