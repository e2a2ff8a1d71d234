package classifier

import "VitalSentinel/internal/model"

// Display colors, one per band.
const (
	ColorGreen  = "green"
	ColorYellow = "yellow"
	ColorBlue   = "blue"
	ColorOrange = "orange"
	ColorRed    = "red"
	ColorPurple = "purple"
	ColorGray   = "gray"
)

// AtLeast matches Primary >= x.
func AtLeast(x float64) func(model.Sample) bool {
	return func(s model.Sample) bool { return s.Primary >= x }
}

// Below matches Primary < x.
func Below(x float64) func(model.Sample) bool {
	return func(s model.Sample) bool { return s.Primary < x }
}

// AtMost matches Primary <= x.
func AtMost(x float64) func(model.Sample) bool {
	return func(s model.Sample) bool { return s.Primary <= x }
}

// Between matches lo <= Primary <= hi.
func Between(lo, hi float64) func(model.Sample) bool {
	return func(s model.Sample) bool { return s.Primary >= lo && s.Primary <= hi }
}

// Otherwise matches everything, NaN included.
func Otherwise() func(model.Sample) bool {
	return func(model.Sample) bool { return true }
}

// Temperature in °F.
var Temperature = []model.StatusBand{
	{Label: "Fever", Severity: model.SeverityDanger, Color: ColorRed, Match: AtLeast(99.5)},
	{Label: "Elevated", Severity: model.SeverityCaution, Color: ColorYellow, Match: AtLeast(98.7)},
	{Label: "Normal", Severity: model.SeverityNormal, Color: ColorGreen, Match: Otherwise()},
}

// Oxygen saturation in %.
var Oxygen = []model.StatusBand{
	{Label: "Normal", Severity: model.SeverityNormal, Color: ColorGreen, Match: AtLeast(95)},
	{Label: "Low", Severity: model.SeverityCaution, Color: ColorYellow, Match: AtLeast(90)},
	{Label: "Critical", Severity: model.SeverityDanger, Color: ColorRed, Match: Otherwise()},
}

// Glycogen in mg/dL.
var Glycogen = []model.StatusBand{
	{Label: "High", Severity: model.SeverityWarning, Color: ColorPurple, Match: AtLeast(100)},
	{Label: "Normal", Severity: model.SeverityNormal, Color: ColorGreen, Match: AtLeast(80)},
	{Label: "Low", Severity: model.SeverityCaution, Color: ColorYellow, Match: AtLeast(60)},
	{Label: "Critical", Severity: model.SeverityDanger, Color: ColorRed, Match: Otherwise()},
}

// HeartRate in bpm.
var HeartRate = []model.StatusBand{
	{Label: "Bradycardia", Severity: model.SeverityCaution, Color: ColorBlue, Match: Below(60)},
	{Label: "Normal", Severity: model.SeverityNormal, Color: ColorGreen, Match: AtMost(100)},
	{Label: "Elevated", Severity: model.SeverityCaution, Color: ColorYellow, Match: AtMost(120)},
	{Label: "Tachycardia", Severity: model.SeverityDanger, Color: ColorRed, Match: Otherwise()},
}

// BloodPressure classifies (systolic, diastolic) jointly. Stages 1 and 2 use
// OR, so the boundaries are not monotonic in either component.
var BloodPressure = []model.StatusBand{
	{Label: "Normal", Severity: model.SeverityNormal, Color: ColorGreen, Match: func(s model.Sample) bool {
		return s.Primary < 120 && s.Secondary < 80
	}},
	{Label: "Elevated", Severity: model.SeverityCaution, Color: ColorYellow, Match: func(s model.Sample) bool {
		return s.Primary < 130 && s.Secondary < 80
	}},
	{Label: "High Stage 1", Severity: model.SeverityWarning, Color: ColorOrange, Match: func(s model.Sample) bool {
		return s.Primary < 140 || s.Secondary < 90
	}},
	{Label: "High Stage 2", Severity: model.SeverityDanger, Color: ColorRed, Match: func(s model.Sample) bool {
		return s.Primary < 180 || s.Secondary < 120
	}},
	{Label: "Hypertensive Crisis", Severity: model.SeverityCrisis, Color: ColorPurple, Match: Otherwise()},
}

// Pulse in bpm, independent of the blood pressure classification.
var Pulse = []model.StatusBand{
	{Label: "Normal", Severity: model.SeverityNormal, Color: ColorGreen, Match: Between(60, 100)},
	{Label: "Low", Severity: model.SeverityCaution, Color: ColorBlue, Match: Below(60)},
	{Label: "High", Severity: model.SeverityDanger, Color: ColorRed, Match: Otherwise()},
}
