// Package metric holds one Definition per tracked health parameter. The
// presentation and watcher layers select a definition by id instead of
// carrying per-metric code paths.
package metric

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"VitalSentinel/internal/calculator"
	"VitalSentinel/internal/classifier"
	"VitalSentinel/internal/model"
)

var (
	// ErrUnknownMetric is returned by Parse for ids that are not registered.
	ErrUnknownMetric = errors.New("unknown metric")
	// ErrOutOfRange is returned by CheckHints for implausible input.
	ErrOutOfRange = errors.New("value out of range")
)

// ID identifies a metric.
type ID string

const (
	Temperature   ID = "temperature"
	Oxygen        ID = "oxygen"
	Glycogen      ID = "glycogen"
	HeartRate     ID = "heart_rate"
	BloodPressure ID = "blood_pressure"
)

// Classifier turns a reading into a Sample and classifies it against Bands.
type Classifier struct {
	Name   string
	Sample func(model.Reading) model.Sample
	Bands  []model.StatusBand
	Paired bool   // Sample carries Secondary
	Unit   string // overrides the definition unit when set
}

// RangeHint is the plausible input range for one field of a submitted reading.
type RangeHint struct {
	Field model.Field
	Min   float64
	Max   float64
}

// Definition describes one metric: what to summarize, how to classify it
// and how the readings API names it.
type Definition struct {
	ID        ID
	Name      string
	Unit      string
	Path      string // API path segment, e.g. "heart-rate"
	WireField string // JSON name of Value for scalar metrics
	Precision int
	Fields    []model.Field
	Classify  []Classifier
	Hints     []RangeHint
	Aliases   []string
}

// Scalar reports whether the metric carries a single Value.
func (d *Definition) Scalar() bool { return d.WireField != "" }

// Field looks up a summarized field by name.
func (d *Definition) Field(name string) (model.Field, bool) {
	for _, f := range d.Fields {
		if f.Name == name {
			return f, true
		}
	}
	return model.Field{}, false
}

// Summarize computes the fallback summary of every field.
func (d *Definition) Summarize(readings []model.Reading) map[string]model.StatsSummary {
	out := make(map[string]model.StatsSummary, len(d.Fields))
	for _, f := range d.Fields {
		out[f.Name] = calculator.ComputeSummary(readings, f, d.Precision)
	}
	return out
}

// Statuses classifies a single reading with every classifier of the metric.
// A classifier whose primary value is missing (NaN) is left out.
func (d *Definition) Statuses(r model.Reading) map[string]model.Status {
	out := make(map[string]model.Status, len(d.Classify))
	for _, c := range d.Classify {
		s := c.Sample(r)
		if math.IsNaN(s.Primary) {
			continue
		}
		out[c.Name] = classifier.Classify(s, c.Bands)
	}
	return out
}

// CurrentReading rebuilds a reading from the Current value of each summary.
func (d *Definition) CurrentReading(summaries map[string]model.StatsSummary) model.Reading {
	var r model.Reading
	for name, s := range summaries {
		switch name {
		case model.ValueField.Name:
			r.Value = s.Current
		case model.SystolicField.Name:
			r.Systolic = s.Current
		case model.DiastolicField.Name:
			r.Diastolic = s.Current
		case model.PulseField.Name:
			r.Pulse = s.Current
		}
	}
	return r
}

// Classifier looks up a classifier by name.
func (d *Definition) Classifier(name string) (Classifier, bool) {
	for _, c := range d.Classify {
		if c.Name == name {
			return c, true
		}
	}
	return Classifier{}, false
}

// UnitOf returns the display unit of a classifier's values.
func (d *Definition) UnitOf(c Classifier) string {
	if c.Unit != "" {
		return c.Unit
	}
	return d.Unit
}

// CheckHints rejects readings with a missing or implausible field.
func (d *Definition) CheckHints(r model.Reading) error {
	for _, h := range d.Hints {
		v := h.Field.Get(r)
		if math.IsNaN(v) || v < h.Min || v > h.Max {
			return fmt.Errorf("%w: %s %s=%v, expected %v-%v %s", ErrOutOfRange, d.ID, h.Field.Name, v, h.Min, h.Max, d.Unit)
		}
	}
	return nil
}

func scalar(r model.Reading) model.Sample { return model.Sample{Primary: r.Value} }

var registry = []*Definition{
	{
		ID: Temperature, Name: "Temperature", Unit: "°F", Path: "temperature",
		WireField: "temperatureValue", Precision: 1,
		Fields:   []model.Field{model.ValueField},
		Classify: []Classifier{{Name: "temperature", Sample: scalar, Bands: classifier.Temperature}},
		Hints:    []RangeHint{{Field: model.ValueField, Min: 90, Max: 110}},
		Aliases:  []string{"temp"},
	},
	{
		ID: Oxygen, Name: "Oxygen Level", Unit: "%", Path: "oxygen",
		WireField: "oxygenLevel", Precision: 1,
		Fields:   []model.Field{model.ValueField},
		Classify: []Classifier{{Name: "oxygen", Sample: scalar, Bands: classifier.Oxygen}},
		Hints:    []RangeHint{{Field: model.ValueField, Min: 50, Max: 100}},
		Aliases:  []string{"spo2", "o2"},
	},
	{
		ID: Glycogen, Name: "Glycogen", Unit: "mg/dL", Path: "glycogen",
		WireField: "glycogenLevel", Precision: 1,
		Fields:   []model.Field{model.ValueField},
		Classify: []Classifier{{Name: "glycogen", Sample: scalar, Bands: classifier.Glycogen}},
		Hints:    []RangeHint{{Field: model.ValueField, Min: 20, Max: 600}},
		Aliases:  []string{"glucose"},
	},
	{
		ID: HeartRate, Name: "Heart Rate", Unit: "bpm", Path: "heart-rate",
		WireField: "heartRate", Precision: 0,
		Fields:   []model.Field{model.ValueField},
		Classify: []Classifier{{Name: "heart_rate", Sample: scalar, Bands: classifier.HeartRate}},
		Hints:    []RangeHint{{Field: model.ValueField, Min: 30, Max: 220}},
		Aliases:  []string{"hr"},
	},
	{
		ID: BloodPressure, Name: "Blood Pressure", Unit: "mmHg", Path: "blood-pressure",
		Precision: 0,
		Fields:    []model.Field{model.SystolicField, model.DiastolicField, model.PulseField},
		Classify: []Classifier{
			{Name: "blood_pressure", Bands: classifier.BloodPressure, Paired: true, Sample: func(r model.Reading) model.Sample {
				return model.Sample{Primary: r.Systolic, Secondary: r.Diastolic}
			}},
			{Name: "pulse", Bands: classifier.Pulse, Unit: "bpm", Sample: func(r model.Reading) model.Sample {
				return model.Sample{Primary: r.Pulse}
			}},
		},
		Hints: []RangeHint{
			{Field: model.SystolicField, Min: 50, Max: 250},
			{Field: model.DiastolicField, Min: 30, Max: 150},
			{Field: model.PulseField, Min: 30, Max: 200},
		},
		Aliases: []string{"bp"},
	},
}

// All returns every registered definition in display order.
func All() []*Definition {
	return registry
}

// Lookup returns the definition for id, or nil.
func Lookup(id ID) *Definition {
	for _, d := range registry {
		if d.ID == id {
			return d
		}
	}
	return nil
}

// Parse resolves an id, API path or alias, case-insensitively.
func Parse(s string) (*Definition, error) {
	key := strings.ToLower(strings.TrimSpace(s))
	for _, d := range registry {
		if key == string(d.ID) || key == d.Path {
			return d, nil
		}
		for _, a := range d.Aliases {
			if key == a {
				return d, nil
			}
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrUnknownMetric, s)
}

// ValidateBands checks that a table ends in a band matching every sample,
// which is what makes classification total.
func ValidateBands(bands []model.StatusBand) error {
	if len(bands) == 0 {
		return errors.New("empty band table")
	}
	last := bands[len(bands)-1]
	if last.Match == nil {
		return fmt.Errorf("band %q has no predicate", last.Label)
	}
	probes := []model.Sample{
		{Primary: math.Inf(-1), Secondary: math.Inf(-1)},
		{Primary: math.Inf(1), Secondary: math.Inf(1)},
		{Primary: math.NaN(), Secondary: math.NaN()},
		{},
	}
	for _, p := range probes {
		if !last.Match(p) {
			return fmt.Errorf("last band %q is not a catch-all", last.Label)
		}
	}
	return nil
}
