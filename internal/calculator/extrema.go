package calculator

import (
	"errors"
	"math"

	"VitalSentinel/internal/model"
)

// Extrema scans all readings and returns the smallest and largest field value.
// A NaN anywhere in the input makes both results NaN.
func Extrema(readings []model.Reading, field model.Field) (lo, hi float64, err error) {
	if len(readings) == 0 {
		return 0, 0, errors.New("no readings provided")
	}
	lo = math.Inf(1)
	hi = math.Inf(-1)
	for _, r := range readings {
		v := field.Get(r)
		if math.IsNaN(v) {
			return math.NaN(), math.NaN(), nil
		}
		if v < lo {
			lo = v
		}
		if v > hi {
			hi = v
		}
	}
	return lo, hi, nil
}

// Mean returns the arithmetic mean of the field over all readings.
func Mean(readings []model.Reading, field model.Field) (float64, error) {
	if len(readings) == 0 {
		return 0, errors.New("no readings provided")
	}
	sum := 0.0
	for _, r := range readings {
		sum += field.Get(r)
	}
	return sum / float64(len(readings)), nil
}
