package model

import (
	"errors"
	"testing"
	"time"
)

func TestParseTimeRange(t *testing.T) {
	tests := []struct {
		in   string
		want TimeRange
		days int
	}{
		{"", Range7d, 7},
		{"7d", Range7d, 7},
		{"30d", Range30d, 30},
		{"90d", Range90d, 90},
		{"all", RangeAll, 0},
	}
	for _, tt := range tests {
		got, err := ParseTimeRange(tt.in)
		if err != nil {
			t.Fatalf("ParseTimeRange(%q): %v", tt.in, err)
		}
		if got != tt.want || got.Days() != tt.days {
			t.Errorf("ParseTimeRange(%q) = %s (%d days), want %s (%d days)", tt.in, got, got.Days(), tt.want, tt.days)
		}
	}

	if _, err := ParseTimeRange("1y"); !errors.Is(err, ErrUnknownRange) {
		t.Errorf("expected ErrUnknownRange, got %v", err)
	}
}

func TestTimeRangeBounds(t *testing.T) {
	now := time.Date(2024, 3, 31, 12, 0, 0, 0, time.UTC)
	start, end := Range30d.Bounds(now)
	if !end.Equal(now) {
		t.Errorf("end: got %v, want %v", end, now)
	}
	if want := time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC); !start.Equal(want) {
		t.Errorf("start: got %v, want %v", start, want)
	}
}

func TestSeverityNames(t *testing.T) {
	for s := SeverityNormal; s <= SeverityCrisis; s++ {
		got, ok := ParseSeverity(s.String())
		if !ok || got != s {
			t.Errorf("round trip of %d failed: %v %v", s, got, ok)
		}
	}
	if _, ok := ParseSeverity("bogus"); ok {
		t.Error("expected bogus severity to be rejected")
	}
	if Severity(42).String() != "unknown" {
		t.Error("expected out-of-range severity to be unknown")
	}
	if ParseTrend("sideways") != TrendStable || ParseTrend("up") != TrendUp {
		t.Error("ParseTrend mapping wrong")
	}
}
