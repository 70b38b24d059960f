package utils

import (
	"math"
	"time"
)

// KnotsPerMeterPerSecond converts m/s to knots
const KnotsPerMeterPerSecond = 1.94384

// MetersPerSecondToKnots converts and rounds to the nearest knot
func MetersPerSecondToKnots(ms float64) float64 {
	return math.Round(ms * KnotsPerMeterPerSecond)
}

// MetersToKilometers converts a visibility distance
func MetersToKilometers(m float64) float64 {
	return m / 1000
}

// Round1 rounds to one decimal place
func Round1(v float64) float64 {
	return math.Round(v*10) / 10
}

// DateStamp formats t as YYYY-MM-DD
func DateStamp(t time.Time) string {
	return t.Format("2006-01-02")
}
