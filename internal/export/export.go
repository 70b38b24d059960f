// Package export renders alerts, forecasts and recommendations as the
// downloadable files operators keep for their records.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/weatherengine/maritime/internal/classifier"
	"github.com/weatherengine/maritime/internal/models"
	"github.com/weatherengine/maritime/pkg/utils"
)

var alertHeader = []string{
	"ID", "Title", "Severity", "Risk Level", "Location", "Coordinates", "Time Issued",
	"Duration", "Impact", "Wind Speed", "Wave Height", "Affected Vessels", "Acknowledged", "Source",
}

var forecastHeader = []string{
	"Day", "Date", "Condition", "Wind Speed (knots)", "Wave Height (m)", "Temperature (°C)",
	"Humidity (%)", "Pressure (hPa)", "Visibility (km)", "Recommendation", "Data Source",
}

// AlertsFilename is the download name for an alerts export made at t
func AlertsFilename(t time.Time) string {
	return "maritime-alerts-" + utils.DateStamp(t) + ".csv"
}

// ForecastFilename is the download name for a forecast export made at t
func ForecastFilename(city string, t time.Time) string {
	return "maritime-forecast-" + city + "-" + utils.DateStamp(t) + ".csv"
}

// ReportFilename is the download name for a recommendations report made at t
func ReportFilename(t time.Time) string {
	return "maritime-recommendations-" + utils.DateStamp(t) + ".txt"
}

// AlertsCSV writes one row per alert in list order
func AlertsCSV(w io.Writer, alerts []models.Alert) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(alertHeader); err != nil {
		return fmt.Errorf("write alerts header: %w", err)
	}
	for _, a := range alerts {
		coords := ""
		if a.Coordinates != nil {
			coords = num(a.Coordinates.Lat) + ", " + num(a.Coordinates.Lon)
		}
		row := []string{
			strconv.Itoa(a.ID),
			a.Title,
			string(a.Severity),
			string(a.RiskLevel),
			a.Location,
			coords,
			a.IssueTime.UTC().Format("2006-01-02T15:04:05.000Z07:00"),
			a.Duration,
			a.Impact,
			num(a.WindSpeed),
			num(a.WaveHeight),
			strconv.Itoa(a.AffectedVessels),
			yesNo(a.Acknowledged),
			a.Source,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write alert %d: %w", a.ID, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// ForecastCSV writes one row per forecast day
func ForecastCSV(w io.Writer, days []models.DayForecast) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(forecastHeader); err != nil {
		return fmt.Errorf("write forecast header: %w", err)
	}
	for _, d := range days {
		source := "API Data"
		if d.IsEstimated() {
			source = "Estimated"
		}
		row := []string{
			d.Day,
			d.Date,
			d.Condition,
			num(d.Wind),
			num(d.Waves),
			num(d.Temp),
			num(d.Humidity),
			num(d.Pressure),
			d.Visibility,
			classifier.TextRecommendation(d.Wind, d.Waves),
			source,
		}
		if err := cw.Write(row); err != nil {
			return fmt.Errorf("write forecast day %s: %w", d.Date, err)
		}
	}
	cw.Flush()
	return cw.Error()
}

// RecommendationsReport writes the plain-text report for set, generated at now
func RecommendationsReport(w io.Writer, set *models.RecommendationSet, now time.Time) error {
	var b strings.Builder
	b.WriteString("Maritime Safety Recommendations Report\n")
	fmt.Fprintf(&b, "Generated: %s\n\n", now.Format("2006-01-02 15:04:05 MST"))

	b.WriteString("Weather Conditions:\n")
	fmt.Fprintf(&b, "- Wind Speed: %s knots\n", num(set.Conditions.Wind))
	fmt.Fprintf(&b, "- Wave Height: %sm\n", num(set.Conditions.Wave))
	fmt.Fprintf(&b, "- Visibility: %skm\n\n", num(set.Conditions.Visibility))

	b.WriteString("Recommendations:\n")
	applied := 0
	for i, r := range set.Recommendations {
		status := "PENDING"
		if r.Applied {
			status = "APPLIED"
			applied++
		}
		fmt.Fprintf(&b, "\n%d. %s (Priority: %s)\n", i+1, r.Title, strings.ToUpper(string(r.Priority)))
		fmt.Fprintf(&b, "   Description: %s\n", r.Description)
		fmt.Fprintf(&b, "   Category: %s\n", r.Category)
		fmt.Fprintf(&b, "   Expected Benefit: %s\n", r.EstimatedSavings)
		fmt.Fprintf(&b, "   Implementation Time: %s\n", r.ImplementationTime)
		fmt.Fprintf(&b, "   Status: %s\n", status)
	}

	fmt.Fprintf(&b, "\nTotal Recommendations: %d\n", len(set.Recommendations))
	fmt.Fprintf(&b, "Applied Actions: %d\n", applied)
	fmt.Fprintf(&b, "Pending Actions: %d\n", len(set.Recommendations)-applied)

	if len(set.Advisory.Advice) > 0 {
		fmt.Fprintf(&b, "\nAdvisory: %s (%s)\n", set.Advisory.Status, set.Advisory.Severity)
		for _, a := range set.Advisory.Advice {
			fmt.Fprintf(&b, "- %s: %s\n", a.Rule, a.Advice)
		}
	}

	_, err := io.WriteString(w, b.String())
	return err
}

// IssuedAgo renders how long ago an alert was issued, e.g. "3 hours ago"
func IssuedAgo(a models.Alert, now time.Time) string {
	return humanize.RelTime(a.IssueTime, now, "ago", "from now")
}

func num(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
