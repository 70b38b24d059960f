// Package recommend derives actionable recommendations from sea
// conditions and applies them through the upstream backend.
package recommend

import (
	"fmt"
	"strconv"

	"github.com/weatherengine/maritime/internal/models"
)

// Template keys identify a recommendation across regenerations
const (
	KeySpeed      = "speed"
	KeyRoute      = "route"
	KeyWaves      = "waves"
	KeyVisibility = "visibility"
)

// Engine builds the fixed recommendation set for a set of conditions
type Engine struct{}

// NewEngine creates an engine
func NewEngine() *Engine {
	return &Engine{}
}

// Generate returns the four recommendations in display order. It is pure;
// applied flags are left false.
func (e *Engine) Generate(c models.Conditions) []models.Recommendation {
	wind, wave, vis := num(c.Wind), num(c.Wave), num(c.Visibility)

	routePriority, severity := models.PriorityMedium, "moderate"
	if c.Wind > 20 {
		routePriority, severity = models.PriorityCritical, "severe"
	}
	wavePriority := models.PriorityMedium
	if c.Wave > 3 {
		wavePriority = models.PriorityHigh
	}
	visPriority, speedCut := models.PriorityLow, "10%"
	if c.Visibility < 5 {
		visPriority, speedCut = models.PriorityHigh, "50%"
	}

	return []models.Recommendation{
		{
			ID:          1,
			Key:         KeySpeed,
			Title:       "Optimize Vessel Speed",
			Description: fmt.Sprintf("Current conditions suggest reducing speed by 2-3 knots to save ~12%% fuel consumption. Wind: %s knots, Waves: %sm", wind, wave),
			Priority:    models.PriorityHigh,
			Category:    "fuel-optimization",
			Action:      "Apply Speed Optimization",
			Endpoint:    KeySpeed,
			Payload: map[string]any{
				"currentSpeed":     18,
				"recommendedSpeed": 15,
				"fuelSavings":      12,
				"reason":           "Weather optimization",
			},
			EstimatedSavings:   "12% fuel reduction",
			ImplementationTime: "Immediate",
			Conditions:         fmt.Sprintf("Wind: %s knots, Waves: %sm", wind, wave),
			ApplicableVessels:  []string{"Container Ships", "Bulk Carriers"},
		},
		{
			ID:          2,
			Key:         KeyRoute,
			Title:       "Route Adjustment",
			Description: fmt.Sprintf("Avoid storm cells east of Zone 5 by rerouting 30NM west. This will add 2 hours but avoid %s weather conditions.", severity),
			Priority:    routePriority,
			Category:    "route-planning",
			Action:      "Implement Route Change",
			Endpoint:    KeyRoute,
			Payload: map[string]any{
				"alternateRoute":     "Zone 5 West Deviation",
				"additionalDistance": "30NM",
				"timeDelay":          "2 hours",
				"riskReduction":      85,
			},
			EstimatedSavings:   "Risk reduction: 85%",
			ImplementationTime: "Within 1 hour",
			Conditions:         fmt.Sprintf("Avoiding wind speeds of %s knots", wind),
			ApplicableVessels:  []string{"All vessel types"},
		},
		{
			ID:          3,
			Key:         KeyWaves,
			Title:       "Wave Impact Mitigation",
			Description: fmt.Sprintf("Current wave height of %sm requires speed reduction and course adjustments to maintain cargo security and crew safety.", wave),
			Priority:    wavePriority,
			Category:    "safety",
			Action:      "Implement Wave Protocol",
			Endpoint:    KeyWaves,
			Payload: map[string]any{
				"waveHeight":         c.Wave,
				"recommendedActions": []string{"Reduce speed", "Secure cargo", "Monitor stability"},
				"expectedDuration":   "6-12 hours",
			},
			EstimatedSavings:   "Cargo damage prevention",
			ImplementationTime: "Immediate",
			Conditions:         fmt.Sprintf("Wave height: %sm", wave),
			ApplicableVessels:  []string{"Container Ships", "RoRo Vessels"},
		},
		{
			ID:          4,
			Key:         KeyVisibility,
			Title:       "Visibility Enhancement",
			Description: fmt.Sprintf("With visibility at %skm, enhance radar monitoring and reduce speed for safe navigation.", vis),
			Priority:    visPriority,
			Category:    "navigation",
			Action:      "Activate Enhanced Monitoring",
			Endpoint:    KeyVisibility,
			Payload: map[string]any{
				"visibility":        c.Visibility,
				"requiredEquipment": []string{"Radar", "AIS", "ECDIS"},
				"speedReduction":    speedCut,
			},
			EstimatedSavings:   "Collision risk: -90%",
			ImplementationTime: "Immediate",
			Conditions:         fmt.Sprintf("Visibility: %skm", vis),
			ApplicableVessels:  []string{"All vessel types"},
		},
	}
}

// num formats v with the shortest representation, so 12 prints as "12"
// and 2.2 as "2.2".
func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
