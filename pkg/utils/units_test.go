package utils

import (
	"sync"
	"testing"
	"time"
)

func TestMetersPerSecondToKnots(t *testing.T) {
	tests := []struct {
		ms       float64
		expected float64
	}{
		{0, 0},
		{5, 10},
		{10.3, 20},
		{12.9, 25},
	}
	for _, tt := range tests {
		if got := MetersPerSecondToKnots(tt.ms); got != tt.expected {
			t.Errorf("MetersPerSecondToKnots(%v): expected %v, got %v", tt.ms, tt.expected, got)
		}
	}
}

func TestUnitHelpers(t *testing.T) {
	if got := MetersToKilometers(8500); got != 8.5 {
		t.Errorf("Expected 8.5, got %v", got)
	}
	if got := Round1(2.46); got != 2.5 {
		t.Errorf("Expected 2.5, got %v", got)
	}
	ts := time.Date(2024, 3, 7, 23, 59, 0, 0, time.UTC)
	if got := DateStamp(ts); got != "2024-03-07" {
		t.Errorf("Expected 2024-03-07, got %s", got)
	}
}

func TestSequence(t *testing.T) {
	var seq Sequence
	first := seq.Next()
	second := seq.Next()
	if second <= first {
		t.Fatalf("Expected increasing tokens, got %d then %d", first, second)
	}
	if !seq.Commit(second) {
		t.Error("Expected newest token to commit")
	}
	if seq.Commit(first) {
		t.Error("Expected stale token to be rejected")
	}
	if seq.Latest() != second {
		t.Errorf("Expected latest %d, got %d", second, seq.Latest())
	}
}

func TestSequence_Concurrent(t *testing.T) {
	var seq Sequence
	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			seq.Commit(seq.Next())
		}()
	}
	wg.Wait()
	if seq.Latest() != 50 {
		t.Errorf("Expected latest 50, got %d", seq.Latest())
	}
}
