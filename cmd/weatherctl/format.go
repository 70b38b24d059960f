package main

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/fatih/color"

	"github.com/weatherengine/maritime/internal/export"
	"github.com/weatherengine/maritime/internal/models"
	sdk "github.com/weatherengine/maritime/sdk/go"
)

var (
	mutedFormat    = color.New(color.FgHiBlack).SprintFunc()
	boldFormat     = color.New(color.FgHiWhite).SprintFunc()
	goodFormat     = color.New(color.FgGreen).SprintFunc()
	warningFormat  = color.New(color.FgHiYellow).SprintFunc()
	criticalFormat = color.New(color.FgHiRed).SprintFunc()
)

func severityLabel(s models.Severity) string {
	label := strings.ToUpper(string(s))
	switch s {
	case models.SeverityHigh:
		return criticalFormat(label)
	case models.SeverityMedium:
		return warningFormat(label)
	default:
		return goodFormat(label)
	}
}

func priorityLabel(p models.Priority) string {
	label := strings.ToUpper(string(p))
	switch p {
	case models.PriorityCritical, models.PriorityHigh:
		return criticalFormat(label)
	case models.PriorityMedium:
		return warningFormat(label)
	default:
		return goodFormat(label)
	}
}

func levelLabel(l models.RiskLevel) string {
	switch l {
	case models.LevelOptimal:
		return goodFormat("optimal")
	case models.LevelCaution:
		return warningFormat("caution")
	default:
		return criticalFormat("high-risk")
	}
}

func printAlerts(w io.Writer, list []sdk.Alert, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(w, mutedFormat("No alerts"))
		return
	}
	for _, a := range list {
		ack := ""
		if a.Acknowledged {
			ack = mutedFormat(" (acknowledged)")
		}
		fmt.Fprintf(w, "#%-3d %-8s %s%s\n", a.ID, severityLabel(a.Severity), boldFormat(a.Title), ack)
		fmt.Fprintf(w, "     %s, issued %s, %s vessels affected\n",
			a.Location, export.IssuedAgo(a, now), humanize.Comma(int64(a.AffectedVessels)))
	}
}

func printStats(w io.Writer, s *sdk.AlertStats) {
	fmt.Fprintf(w, "Total:            %d\n", s.Total)
	fmt.Fprintf(w, "Unacknowledged:   %d\n", s.Unacknowledged)
	fmt.Fprintf(w, "High/Medium/Low:  %s/%s/%s\n",
		criticalFormat(s.High), warningFormat(s.Medium), goodFormat(s.Low))
	fmt.Fprintf(w, "Affected vessels: %s\n", humanize.Comma(int64(s.AffectedVessels)))
}

func printArchived(w io.Writer, list []sdk.ArchivedAlert, now time.Time) {
	if len(list) == 0 {
		fmt.Fprintln(w, mutedFormat("Archive is empty"))
		return
	}
	for _, a := range list {
		fmt.Fprintf(w, "#%-3d %s dismissed %s by %s %s\n", a.Alert.ID, boldFormat(a.Alert.Title),
			humanize.RelTime(a.DismissedAt, now, "ago", "from now"), a.DismissedBy, mutedFormat(a.ArchiveID))
	}
}

func printForecast(w io.Writer, fc *sdk.Forecast) {
	header := fmt.Sprintf("10-day forecast for %s", fc.City)
	if fc.Fallback {
		header += warningFormat(" (sample data: " + fc.Reason + ")")
	}
	fmt.Fprintln(w, boldFormat(header))
	for _, d := range fc.Days {
		est := ""
		if d.IsEstimated() {
			est = mutedFormat(" *")
		}
		fmt.Fprintf(w, "%-10s %-10s wind %5.1f kn  waves %4.1f m  %s%s\n",
			d.Day, d.Date, d.Wind, d.Waves, levelLabel(d.RecommendationLevel), est)
	}
	s := fc.Summary
	fmt.Fprintf(w, "Optimal %d, caution %d, high-risk %d\n", s.OptimalCount, s.CautionCount, s.HighRiskCount)
	if fc.DataInfo != nil && fc.DataInfo.Note != "" {
		fmt.Fprintln(w, mutedFormat("* "+fc.DataInfo.Note))
	}
}

func printRoutePlan(w io.Writer, plan *sdk.RoutePlan) {
	fmt.Fprintf(w, "%s (%d of %d days optimal)\n", boldFormat(plan.Verdict), plan.OptimalDays, plan.TotalDays)
	for _, d := range plan.BestWindows {
		fmt.Fprintf(w, "  %s %s\n", goodFormat(d.Day), d.Date)
	}
}

func printRecommendations(w io.Writer, set *sdk.RecommendationSet) {
	c := set.Conditions
	fmt.Fprintf(w, "Conditions: wind %.1f kn, waves %.1f m, visibility %.1f km\n", c.Wind, c.Wave, c.Visibility)
	if set.Advisory.Status != "" {
		fmt.Fprintf(w, "Advisory:   %s (%s)\n", set.Advisory.Status, set.Advisory.Severity)
	}
	for _, r := range set.Recommendations {
		state := ""
		if r.Applied {
			state = goodFormat(" [applied]")
		}
		fmt.Fprintf(w, "#%-2d %-8s %s%s\n", r.ID, priorityLabel(r.Priority), boldFormat(r.Title), state)
		fmt.Fprintf(w, "    %s\n", r.Description)
	}
	fmt.Fprintf(w, "%d applied, %d pending\n", set.AppliedCount, set.PendingCount)
}
