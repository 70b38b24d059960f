// Package classifier holds the pure weather risk rules used across the engine.
package classifier

import (
	"fmt"
	"strings"

	"github.com/weatherengine/maritime/internal/models"
	"github.com/weatherengine/maritime/pkg/utils"
)

// Day risk thresholds. A day is high-risk above the first pair and caution
// above the second; comparisons are strict.
const (
	HighRiskWind  = 25.0
	HighRiskWaves = 3.5
	CautionWind   = 20.0
	CautionWaves  = 2.5
)

// Text recommendation thresholds, deliberately distinct from the day levels.
const (
	OptimalTextWind  = 15.0
	OptimalTextWaves = 2.0
	CautionTextWind  = 25.0
	CautionTextWaves = 3.5
)

// Text recommendation outputs
const (
	TextOptimal = "Optimal conditions"
	TextCaution = "Proceed with caution"
	TextDelay   = "High risk - Consider delay"
)

// Classifier provides forecast and alert classification functionality
type Classifier struct{}

// New creates a new classifier instance
func New() *Classifier {
	return &Classifier{}
}

// Classify sets the recommendation level on a forecast day
func (c *Classifier) Classify(day *models.DayForecast) {
	day.RecommendationLevel = DayRiskLevel(day.Wind, day.Waves)
}

// DayRiskLevel maps wind (knots) and waves (meters) to a risk level.
// NaN inputs fail every comparison and therefore classify as optimal.
func DayRiskLevel(wind, waves float64) models.RiskLevel {
	switch {
	case wind > HighRiskWind || waves > HighRiskWaves:
		return models.LevelHighRisk
	case wind > CautionWind || waves > CautionWaves:
		return models.LevelCaution
	default:
		return models.LevelOptimal
	}
}

// TextRecommendation is the advisory line shown next to a forecast day.
// NaN inputs fail every comparison and therefore yield TextDelay.
func TextRecommendation(wind, waves float64) string {
	switch {
	case wind < OptimalTextWind && waves < OptimalTextWaves:
		return TextOptimal
	case wind < CautionTextWind && waves < CautionTextWaves:
		return TextCaution
	default:
		return TextDelay
	}
}

// Band is a three-step colour band for a single measurement
type Band string

const (
	BandGood Band = "good"
	BandFair Band = "fair"
	BandPoor Band = "poor"
)

// WindBand grades wind speed in knots
func WindBand(knots float64) Band {
	switch {
	case knots < 15:
		return BandGood
	case knots < 25:
		return BandFair
	default:
		return BandPoor
	}
}

// WaveBand grades wave height in meters
func WaveBand(meters float64) Band {
	switch {
	case meters < 2:
		return BandGood
	case meters < 3.5:
		return BandFair
	default:
		return BandPoor
	}
}

// Advise applies the upstream backend's advisory rule table locally
func Advise(c models.Conditions) models.Advisory {
	adv := models.Advisory{Status: "safe", Severity: "Low", Advice: []models.AdviceRule{}}
	if c.Wind > 20 {
		adv.Advice = append(adv.Advice, models.AdviceRule{
			Condition: fmt.Sprintf("Wind speed %.0f knots", c.Wind),
			Rule:      "Wind speed over 20 knots",
			Advice:    "Delay departure or adjust course.",
			Severity:  "High",
		})
	}
	if c.Wave > 3 {
		adv.Advice = append(adv.Advice, models.AdviceRule{
			Condition: fmt.Sprintf("Wave height %.1f m", c.Wave),
			Rule:      "Wave height over 3 meters",
			Advice:    "Reduce speed and maintain safe distance from shore.",
			Severity:  "High",
		})
	}
	if c.Visibility < 2 {
		adv.Advice = append(adv.Advice, models.AdviceRule{
			Condition: fmt.Sprintf("Visibility %.1f km", c.Visibility),
			Rule:      "Visibility under 2 km",
			Advice:    "Use radar/ais and slow down.",
			Severity:  "Medium",
		})
	}
	if len(adv.Advice) > 0 {
		adv.Status = "caution"
		adv.Severity = "Medium"
		for _, a := range adv.Advice {
			if a.Severity == "High" {
				adv.Severity = "High"
				break
			}
		}
	}
	return adv
}

// ClassifyAlertText fills the type and, when missing, the risk label of an
// alert built from a bare upstream message.
func (c *Classifier) ClassifyAlertText(alert *models.Alert) {
	text := strings.ToLower(alert.Title + " " + alert.Description)
	if alert.Type == "" {
		alert.Type = utils.InferHazard(text)
	}
	if alert.RiskLevel == "" {
		alert.RiskLevel = c.classifyRisk(alert.Severity, text)
	}
}

// classifyRisk derives a risk label from severity, raised one step when the
// message mentions an extreme hazard.
func (c *Classifier) classifyRisk(sev models.Severity, text string) models.AlertRisk {
	extremeKeywords := []string{
		"hurricane", "cyclone", "typhoon", "tsunami", "violent", "extreme",
	}
	escalate := utils.ContainsAny(text, extremeKeywords)

	switch sev {
	case models.SeverityHigh:
		if escalate {
			return models.RiskExtreme
		}
		return models.RiskHigh
	case models.SeverityMedium:
		if escalate {
			return models.RiskHigh
		}
		return models.RiskModerate
	default:
		return models.RiskLow
	}
}
