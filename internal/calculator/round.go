package calculator

import "math"

// Round rounds v to precision decimal places, halves away from zero.
// A negative precision is treated as zero.
func Round(v float64, precision int) float64 {
	if precision <= 0 {
		return math.Round(v)
	}
	scale := math.Pow(10, float64(precision))
	return math.Round(v*scale) / scale
}
