package models

import (
	"math"
	"testing"
	"time"
)

func TestAlertFilter_Matches(t *testing.T) {
	now := time.Date(2024, 1, 15, 10, 0, 0, 0, time.UTC)
	alert := Alert{
		ID:         1,
		Severity:   SeverityHigh,
		Title:      "Tropical Storm Warning",
		IssueTime:  now.Add(-2 * time.Hour),
		ExpiryTime: now.Add(18 * time.Hour),
	}
	expired := alert
	expired.ExpiryTime = now.Add(-time.Minute)
	acked := alert
	acked.Acknowledged = true

	tests := []struct {
		name     string
		filter   string
		alert    Alert
		expected bool
	}{
		{"Empty filter matches all", "", alert, true},
		{"All matches acknowledged", "all", acked, true},
		{"Unacknowledged keeps open alert", "unacknowledged", alert, true},
		{"Unacknowledged drops acknowledged", "unacknowledged", acked, false},
		{"Active keeps unexpired", "active", alert, true},
		{"Active drops expired", "active", expired, false},
		{"Severity match", "high", alert, true},
		{"Severity mismatch", "low", alert, false},
		{"Case insensitive", " HIGH ", alert, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f, err := ParseFilter(tt.filter)
			if err != nil {
				t.Fatalf("ParseFilter(%q): %v", tt.filter, err)
			}
			if got := f.Matches(tt.alert, now); got != tt.expected {
				t.Errorf("Expected %v, got %v", tt.expected, got)
			}
		})
	}
}

func TestParseFilter_Invalid(t *testing.T) {
	if _, err := ParseFilter("critical"); err == nil {
		t.Error("Expected error for unknown filter")
	}
}

func TestAlertFilter_String(t *testing.T) {
	for _, in := range []string{"all", "unacknowledged", "active", "medium"} {
		f, _ := ParseFilter(in)
		if f.String() != in {
			t.Errorf("Expected %s, got %s", in, f.String())
		}
	}
	if (AlertFilter{}).String() != "all" {
		t.Error("Expected zero filter to print as all")
	}
}

func TestAlert_Validate(t *testing.T) {
	issued := time.Date(2024, 1, 15, 8, 0, 0, 0, time.UTC)
	valid := Alert{ID: 1, Severity: SeverityLow, IssueTime: issued, ExpiryTime: issued.Add(time.Hour)}
	if err := valid.Validate(); err != nil {
		t.Errorf("Expected valid alert, got %v", err)
	}

	tests := []struct {
		name   string
		mutate func(a *Alert)
	}{
		{"zero id", func(a *Alert) { a.ID = 0 }},
		{"unknown severity", func(a *Alert) { a.Severity = "extreme" }},
		{"expiry equals issue", func(a *Alert) { a.ExpiryTime = a.IssueTime }},
		{"expiry before issue", func(a *Alert) { a.ExpiryTime = a.IssueTime.Add(-time.Hour) }},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a := valid
			tt.mutate(&a)
			if err := a.Validate(); err == nil {
				t.Error("Expected validation error")
			}
		})
	}
}

func TestComputeStats(t *testing.T) {
	alerts := []Alert{
		{ID: 1, Severity: SeverityHigh, AffectedVessels: 15},
		{ID: 2, Severity: SeverityMedium, AffectedVessels: 8},
		{ID: 3, Severity: SeverityMedium, AffectedVessels: 12, Acknowledged: true},
		{ID: 4, Severity: SeverityLow, AffectedVessels: 5},
	}
	got := ComputeStats(alerts)
	want := AlertStats{Total: 4, Unacknowledged: 3, High: 1, Medium: 2, Low: 1, AffectedVessels: 40}
	if got != want {
		t.Errorf("Expected %+v, got %+v", want, got)
	}
	if empty := ComputeStats(nil); empty != (AlertStats{}) {
		t.Errorf("Expected zero stats, got %+v", empty)
	}
}

func TestPreferences_Wants(t *testing.T) {
	p := DefaultPreferences()
	if !p.Wants(SeverityHigh) || !p.Wants(SeverityMedium) || p.Wants(SeverityLow) {
		t.Errorf("Unexpected default preferences %+v", p)
	}
	if p.Wants("unknown") {
		t.Error("Expected unknown severity to be unwanted")
	}
}

func TestConditions_Check(t *testing.T) {
	tests := []struct {
		name  string
		c     Conditions
		field string
	}{
		{"defaults valid", DefaultConditions(), ""},
		{"zero valid", Conditions{}, ""},
		{"negative wind", Conditions{Wind: -1, Wave: 1, Visibility: 1}, "wind"},
		{"NaN wave", Conditions{Wind: 1, Wave: math.NaN(), Visibility: 1}, "wave"},
		{"infinite visibility", Conditions{Wind: 1, Wave: 1, Visibility: math.Inf(1)}, "visibility"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := tt.c.Check()
			if tt.field == "" {
				if fe != nil {
					t.Errorf("Expected no error, got %v", fe)
				}
				return
			}
			if fe == nil || fe.Field != tt.field {
				t.Errorf("Expected error on %s, got %v", tt.field, fe)
			}
		})
	}
}
