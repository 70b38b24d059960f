package models

import (
	"fmt"
	"math"
)

// Priority ranks how urgently a recommendation should be acted on
type Priority string

const (
	PriorityCritical Priority = "critical"
	PriorityHigh     Priority = "high"
	PriorityMedium   Priority = "medium"
	PriorityLow      Priority = "low"
)

// Conditions are the observed inputs recommendations are derived from
type Conditions struct {
	Wind       float64 `json:"wind"`       // knots
	Wave       float64 `json:"wave"`       // meters
	Visibility float64 `json:"visibility"` // km
}

// DefaultConditions are used until live conditions are fetched
func DefaultConditions() Conditions {
	return Conditions{Wind: 12, Wave: 2.2, Visibility: 8.5}
}

// FieldError names the first invalid field of Conditions
type FieldError struct {
	Field string
	Value float64
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s must be a finite, non-negative number (got %v)", e.Field, e.Value)
}

// Check returns a FieldError for the first field that is NaN, infinite or negative
func (c Conditions) Check() *FieldError {
	fields := []struct {
		name string
		v    float64
	}{
		{"wind", c.Wind},
		{"wave", c.Wave},
		{"visibility", c.Visibility},
	}
	for _, f := range fields {
		if math.IsNaN(f.v) || math.IsInf(f.v, 0) || f.v < 0 {
			return &FieldError{Field: f.name, Value: f.v}
		}
	}
	return nil
}

// Recommendation is an actionable suggestion tied to an upstream action
type Recommendation struct {
	ID                 int            `json:"id"`
	Key                string         `json:"key"`
	Title              string         `json:"title"`
	Description        string         `json:"description"`
	Priority           Priority       `json:"priority"`
	Category           string         `json:"category"`
	Action             string         `json:"action"`
	Endpoint           string         `json:"endpoint"`
	Payload            map[string]any `json:"payload"`
	EstimatedSavings   string         `json:"estimatedSavings"`
	ImplementationTime string         `json:"implementationTime"`
	Conditions         string         `json:"conditions"`
	ApplicableVessels  []string       `json:"applicableVessels"`
	Applied            bool           `json:"applied"`
}

// AdviceRule is one rule of the upstream advisory rule table
type AdviceRule struct {
	Condition string `json:"condition"`
	Rule      string `json:"rule"`
	Advice    string `json:"advice"`
	Severity  string `json:"severity"`
}

// Advisory is the rule-based verdict for a set of conditions
type Advisory struct {
	Status   string       `json:"status"`
	Severity string       `json:"severity"`
	Advice   []AdviceRule `json:"advice"`
}

// RecommendationSet is what the dashboard shows for one analysis
type RecommendationSet struct {
	Conditions      Conditions       `json:"conditions"`
	Recommendations []Recommendation `json:"recommendations"`
	Advisory        Advisory         `json:"advisory"`
	AppliedCount    int              `json:"appliedCount"`
	PendingCount    int              `json:"pendingCount"`
}
