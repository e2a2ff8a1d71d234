package metric

import (
	"errors"
	"math"
	"testing"
	"time"

	"VitalSentinel/internal/classifier"
	"VitalSentinel/internal/model"
)

func TestParse(t *testing.T) {
	tests := []struct {
		in   string
		want ID
	}{
		{"temperature", Temperature},
		{"Temp", Temperature},
		{"oxygen", Oxygen},
		{"glycogen", Glycogen},
		{"heart-rate", HeartRate},
		{"heart_rate", HeartRate},
		{"blood-pressure", BloodPressure},
		{" BP ", BloodPressure},
	}
	for _, tt := range tests {
		d, err := Parse(tt.in)
		if err != nil {
			t.Fatalf("Parse(%q): %v", tt.in, err)
		}
		if d.ID != tt.want {
			t.Errorf("Parse(%q) = %s, want %s", tt.in, d.ID, tt.want)
		}
	}
	if _, err := Parse("cholesterol"); !errors.Is(err, ErrUnknownMetric) {
		t.Errorf("expected ErrUnknownMetric, got %v", err)
	}
}

func TestRegistry_BandsAreTotal(t *testing.T) {
	for _, d := range All() {
		if Lookup(d.ID) != d {
			t.Errorf("%s: Lookup mismatch", d.ID)
		}
		for _, c := range d.Classify {
			if err := ValidateBands(c.Bands); err != nil {
				t.Errorf("%s/%s: %v", d.ID, c.Name, err)
			}
		}
	}
	if err := ValidateBands([]model.StatusBand{{Label: "x", Match: classifier.AtLeast(0)}}); err == nil {
		t.Error("expected non catch-all table to be rejected")
	}
	if err := ValidateBands(nil); err == nil {
		t.Error("expected empty table to be rejected")
	}
}

func TestPrecision(t *testing.T) {
	want := map[ID]int{Temperature: 1, Oxygen: 1, Glycogen: 1, HeartRate: 0, BloodPressure: 0}
	for id, p := range want {
		if got := Lookup(id).Precision; got != p {
			t.Errorf("%s: precision %d, want %d", id, got, p)
		}
	}
}

func TestSummarize_BloodPressureFieldsIndependent(t *testing.T) {
	now := time.Now()
	rs := []model.Reading{
		{MeasuredAt: now, Systolic: 121, Diastolic: 81, Pulse: 70},
		{MeasuredAt: now.Add(-time.Hour), Systolic: 130, Diastolic: 84, Pulse: 75},
	}
	got := Lookup(BloodPressure).Summarize(rs)
	if len(got) != 3 {
		t.Fatalf("expected 3 summaries, got %d", len(got))
	}
	if s := got["systolic"]; s.Current != 121 || s.Average != 126 || s.Max != 130 {
		t.Errorf("systolic: %+v", s)
	}
	if s := got["diastolic"]; s.Current != 81 || s.Average != 83 || s.Min != 81 {
		t.Errorf("diastolic: %+v", s)
	}
	if s := got["pulse"]; s.Current != 70 || s.Average != 73 {
		t.Errorf("pulse: %+v", s)
	}
}

func TestStatuses(t *testing.T) {
	bp := Lookup(BloodPressure)
	st := bp.Statuses(model.Reading{Systolic: 135, Diastolic: 85, Pulse: 55})
	if st["blood_pressure"].Label != "High Stage 1" {
		t.Errorf("bp: got %q", st["blood_pressure"].Label)
	}
	if st["pulse"].Label != "Low" {
		t.Errorf("pulse: got %q", st["pulse"].Label)
	}

	temp := Lookup(Temperature).Statuses(model.Reading{Value: 100.2})
	if temp["temperature"].Label != "Fever" {
		t.Errorf("temperature: got %q", temp["temperature"].Label)
	}
}

func TestStatuses_SkipsMissingValues(t *testing.T) {
	bp := Lookup(BloodPressure)
	st := bp.Statuses(model.Reading{Systolic: 135, Diastolic: 85, Pulse: math.NaN()})
	if _, ok := st["pulse"]; ok {
		t.Errorf("missing pulse should not be classified: %+v", st["pulse"])
	}
	if st["blood_pressure"].Label == "" {
		t.Error("blood pressure should still be classified")
	}
	if got := Lookup(Oxygen).Statuses(model.Reading{Value: math.NaN()}); len(got) != 0 {
		t.Errorf("missing oxygen level classified as %+v", got)
	}
}

func TestCurrentReading(t *testing.T) {
	bp := Lookup(BloodPressure)
	r := bp.CurrentReading(map[string]model.StatsSummary{
		"systolic": {Current: 140}, "diastolic": {Current: 92}, "pulse": {Current: 88},
	})
	if r.Systolic != 140 || r.Diastolic != 92 || r.Pulse != 88 {
		t.Errorf("got %+v", r)
	}
}

func TestCheckHints(t *testing.T) {
	bp := Lookup(BloodPressure)
	if err := bp.CheckHints(model.Reading{Systolic: 120, Diastolic: 80, Pulse: 70}); err != nil {
		t.Errorf("valid reading rejected: %v", err)
	}
	if err := bp.CheckHints(model.Reading{Systolic: 300, Diastolic: 80, Pulse: 70}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected ErrOutOfRange, got %v", err)
	}
	if err := Lookup(Oxygen).CheckHints(model.Reading{Value: math.NaN()}); !errors.Is(err, ErrOutOfRange) {
		t.Errorf("expected NaN to be rejected, got %v", err)
	}
}
