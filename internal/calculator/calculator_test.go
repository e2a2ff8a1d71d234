package calculator

import (
	"math"
	"slices"
	"testing"
	"time"

	"VitalSentinel/internal/model"
)

var base = time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

func readings(values ...float64) []model.Reading {
	out := make([]model.Reading, len(values))
	for i, v := range values {
		out[i] = model.Reading{MeasuredAt: base.Add(time.Duration(i) * time.Hour), Value: v}
	}
	return out
}

func TestComputeSummary_Empty(t *testing.T) {
	fields := []model.Field{model.ValueField, model.SystolicField, model.DiastolicField, model.PulseField}
	for _, f := range fields {
		for _, p := range []int{0, 1} {
			got := ComputeSummary(nil, f, p)
			want := model.StatsSummary{Trend: model.TrendStable}
			if got != want {
				t.Errorf("%s/p%d: got %+v, want %+v", f.Name, p, got, want)
			}
		}
	}
}

func TestComputeSummary_Basic(t *testing.T) {
	got := ComputeSummary(readings(98.6, 99.1, 97.84), model.ValueField, 1)
	want := model.StatsSummary{Current: 98.6, Average: 98.5, Min: 97.8, Max: 99.1, Trend: model.TrendStable}
	if got != want {
		t.Errorf("got %+v, want %+v", got, want)
	}
}

func TestComputeSummary_Rounding(t *testing.T) {
	rs := readings(97.0, 98.0)
	if got := ComputeSummary(rs, model.ValueField, 1).Average; got != 97.5 {
		t.Errorf("precision 1: got %v, want 97.5", got)
	}
	if got := ComputeSummary(rs, model.ValueField, 0).Average; got != 98 {
		t.Errorf("precision 0: got %v, want 98", got)
	}
}

func TestRound_HalfAwayFromZero(t *testing.T) {
	tests := []struct {
		v    float64
		p    int
		want float64
	}{
		{97.5, 0, 98},
		{96.5, 0, 97},
		{-2.5, 0, -3},
		{0.25, 1, 0.3},
		{98.64, 1, 98.6},
		{72.4, -1, 72},
	}
	for _, tt := range tests {
		if got := Round(tt.v, tt.p); got != tt.want {
			t.Errorf("Round(%v, %d) = %v, want %v", tt.v, tt.p, got, tt.want)
		}
	}
}

func TestComputeSummary_MinAvgMaxOrdering(t *testing.T) {
	sets := [][]float64{
		{72},
		{60, 61, 62},
		{95.05, 95.15, 95.25},
		{118, 121, 179, 64, 99},
		{98.44, 98.45, 98.46},
	}
	for _, p := range []int{0, 1} {
		tol := math.Pow(10, -float64(p))
		for _, vs := range sets {
			s := ComputeSummary(readings(vs...), model.ValueField, p)
			if s.Min > s.Average+tol || s.Average > s.Max+tol {
				t.Errorf("p%d %v: ordering violated: %+v", p, vs, s)
			}
		}
	}
}

func TestComputeSummary_OrderSensitivity(t *testing.T) {
	rs := readings(70, 80, 90)
	rev := slices.Clone(rs)
	slices.Reverse(rev)

	a := ComputeSummary(rs, model.ValueField, 0)
	b := ComputeSummary(rev, model.ValueField, 0)

	if a.Average != b.Average || a.Min != b.Min || a.Max != b.Max {
		t.Errorf("aggregates must not depend on order: %+v vs %+v", a, b)
	}
	// Current follows the first element, never the latest timestamp.
	if a.Current != 70 || b.Current != 90 {
		t.Errorf("current must follow input order: got %v and %v", a.Current, b.Current)
	}
}

func TestComputeSummary_NaNPropagates(t *testing.T) {
	s := ComputeSummary(readings(98.6, math.NaN()), model.ValueField, 1)
	if s.Current != 98.6 {
		t.Errorf("current: got %v", s.Current)
	}
	if !math.IsNaN(s.Average) || !math.IsNaN(s.Min) || !math.IsNaN(s.Max) {
		t.Errorf("expected NaN aggregates, got %+v", s)
	}
}

func TestComputeSummary_DoesNotMutate(t *testing.T) {
	rs := readings(3, 1, 2)
	before := slices.Clone(rs)
	ComputeSummary(rs, model.ValueField, 0)
	slices.Collect(FormatSeries(rs, model.ValueField))
	if !slices.Equal(rs, before) {
		t.Error("input readings were modified")
	}
}

func TestFormatSeries_Ascending(t *testing.T) {
	rs := []model.Reading{
		{MeasuredAt: base.Add(3 * time.Hour), Value: 3},
		{MeasuredAt: base.Add(2 * time.Hour), Value: 2},
		{MeasuredAt: base.Add(1 * time.Hour), Value: 1},
		{MeasuredAt: base, Value: 0},
	}
	got := slices.Collect(FormatSeries(rs, model.ValueField))
	if len(got) != 4 {
		t.Fatalf("expected 4 points, got %d", len(got))
	}
	for i, p := range got {
		if p.Value != float64(i) {
			t.Errorf("point %d: got %v, want %d", i, p.Value, i)
		}
	}
}

func TestFormatSeries_StableTies(t *testing.T) {
	rs := []model.Reading{
		{MeasuredAt: base.Add(time.Hour), Systolic: 130},
		{MeasuredAt: base, Systolic: 120},
		{MeasuredAt: base, Systolic: 121},
	}
	got := slices.Collect(FormatSeries(rs, model.SystolicField))
	want := []float64{120, 121, 130}
	for i := range want {
		if got[i].Value != want[i] {
			t.Errorf("point %d: got %v, want %v", i, got[i].Value, want[i])
		}
	}
}

func TestFormatSeries_LazyAndRestartable(t *testing.T) {
	rs := readings(5, 6)
	seq := FormatSeries(rs, model.ValueField)

	// Changes made before ranging are visible: nothing is evaluated up front.
	rs[0].Value = 50

	first := slices.Collect(seq)
	second := slices.Collect(seq)
	if !slices.Equal(first, second) {
		t.Errorf("second pass differs: %v vs %v", first, second)
	}
	if first[0].Value != 50 {
		t.Errorf("expected lazy evaluation, got %v", first[0].Value)
	}

	n := 0
	for range seq {
		n++
		break
	}
	if n != 1 {
		t.Errorf("early break: got %d iterations", n)
	}

	if len(slices.Collect(FormatSeries(nil, model.ValueField))) != 0 {
		t.Error("expected empty series for nil input")
	}
}

func TestExtremaAndMean_Empty(t *testing.T) {
	if _, _, err := Extrema(nil, model.ValueField); err == nil {
		t.Error("Extrema: expected error on empty input")
	}
	if _, err := Mean(nil, model.ValueField); err == nil {
		t.Error("Mean: expected error on empty input")
	}
}
