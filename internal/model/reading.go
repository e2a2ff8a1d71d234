package model

import "time"

// Reading is one measurement event as returned by the readings API.
// Scalar metrics (temperature, oxygen, glycogen, heart rate) use Value;
// blood pressure uses Systolic, Diastolic and Pulse.
type Reading struct {
	ID         string
	MeasuredAt time.Time
	Value      float64
	Systolic   float64
	Diastolic  float64
	Pulse      float64
	Unit       string
	Notes      string
}

// Field selects one numeric value out of a Reading.
type Field struct {
	Name string
	Get  func(Reading) float64
}

var (
	ValueField     = Field{Name: "value", Get: func(r Reading) float64 { return r.Value }}
	SystolicField  = Field{Name: "systolic", Get: func(r Reading) float64 { return r.Systolic }}
	DiastolicField = Field{Name: "diastolic", Get: func(r Reading) float64 { return r.Diastolic }}
	PulseField     = Field{Name: "pulse", Get: func(r Reading) float64 { return r.Pulse }}
)

// Sample is the classifier input. Scalar metrics only set Primary.
type Sample struct {
	Primary   float64
	Secondary float64
}

// ChartPoint is a single point of a chronological chart series.
type ChartPoint struct {
	Date  time.Time `json:"date"`
	Value float64   `json:"value"`
}
