package models

// RiskLevel is the per-day go/no-go classification of a forecast
type RiskLevel string

const (
	LevelOptimal  RiskLevel = "optimal"
	LevelCaution  RiskLevel = "caution"
	LevelHighRisk RiskLevel = "high-risk"
)

// DayForecast is one day of the 10-day maritime forecast
type DayForecast struct {
	Day                 string    `json:"day" yaml:"day"`
	Date                string    `json:"date" yaml:"date"`
	Wind                float64   `json:"wind" yaml:"wind"`   // knots
	Waves               float64   `json:"waves" yaml:"waves"` // meters
	Temp                float64   `json:"temp" yaml:"temp"`
	Condition           string    `json:"condition" yaml:"condition"`
	Description         string    `json:"description" yaml:"description"`
	Humidity            float64   `json:"humidity" yaml:"humidity"`
	Pressure            float64   `json:"pressure" yaml:"pressure"`
	Visibility          string    `json:"visibility" yaml:"visibility"` // km
	Clouds              float64   `json:"clouds" yaml:"clouds"`
	Icon                string    `json:"icon" yaml:"icon"`
	WindDirection       float64   `json:"windDirection" yaml:"windDirection"`
	Source              string    `json:"source,omitempty" yaml:"source"`
	RecommendationLevel RiskLevel `json:"recommendationLevel" yaml:"-"`
}

// Day sources that mark values the upstream did not observe
const (
	SourceEstimated    = "estimated"
	SourceExtrapolated = "extrapolated"
	SourceSample       = "sample"
)

// IsEstimated reports whether the day was extrapolated or synthesised
// rather than observed
func (d DayForecast) IsEstimated() bool {
	switch d.Source {
	case SourceEstimated, SourceExtrapolated, SourceSample:
		return true
	}
	return false
}

// DataInfo describes how much of a forecast is observed versus estimated
type DataInfo struct {
	RealDays      int    `json:"real_days"`
	EstimatedDays int    `json:"estimated_days"`
	Note          string `json:"note"`
}

// ForecastLocation is the resolved place a forecast belongs to
type ForecastLocation struct {
	Name    string  `json:"name"`
	Country string  `json:"country"`
	Lat     float64 `json:"lat"`
	Lon     float64 `json:"lon"`
}

// ForecastSummary holds aggregates derived from a projected forecast
type ForecastSummary struct {
	OptimalCount  int     `json:"optimalCount"`
	CautionCount  int     `json:"cautionCount"`
	HighRiskCount int     `json:"highRiskCount"`
	MaxWind       float64 `json:"maxWind"`
	MinWind       float64 `json:"minWind"`
	AverageWaves  float64 `json:"averageWaves"`
}

// Forecast is the projected 10-day forecast for one city
type Forecast struct {
	City     string            `json:"city"`
	Location *ForecastLocation `json:"location,omitempty"`
	Days     []DayForecast     `json:"days"`
	Summary  ForecastSummary   `json:"summary"`
	DataInfo *DataInfo         `json:"dataInfo,omitempty"`
	Fallback bool              `json:"fallback"`
	Reason   string            `json:"reason,omitempty"`
}

// RoutePlan is the sailing-window analysis over a forecast
type RoutePlan struct {
	OptimalDays int           `json:"optimalDays"`
	TotalDays   int           `json:"totalDays"`
	BestWindows []DayForecast `json:"bestWindows"`
	Verdict     string        `json:"verdict"`
}
