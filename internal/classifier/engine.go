package classifier

import "VitalSentinel/internal/model"

// Classify evaluates bands top-down and returns the first band that matches.
// Order encodes clinical precedence, so overlapping bands are allowed.
// When no band matches, the last band wins; every table in this package
// ends with a catch-all so that path only serves hand-built tables.
func Classify(value model.Sample, bands []model.StatusBand) model.Status {
	if len(bands) == 0 {
		return model.Status{Label: "Unknown", Severity: model.SeverityNormal, Color: ColorGray}
	}
	for _, b := range bands {
		if b.Match != nil && b.Match(value) {
			return statusOf(b)
		}
	}
	return statusOf(bands[len(bands)-1])
}

// ClassifyValue is Classify for scalar metrics.
func ClassifyValue(v float64, bands []model.StatusBand) model.Status {
	return Classify(model.Sample{Primary: v}, bands)
}

func statusOf(b model.StatusBand) model.Status {
	return model.Status{Label: b.Label, Severity: b.Severity, Color: b.Color}
}
