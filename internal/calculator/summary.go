package calculator

import "VitalSentinel/internal/model"

// ComputeSummary derives the fallback statistics for one field.
//
// Current is the field of the first reading as given: callers must pass
// readings in the order whose first element is the most recent one. The
// slice is not sorted here. Trend is always stable because there is no
// previous period to compare against. An empty input yields a zero summary.
func ComputeSummary(readings []model.Reading, field model.Field, precision int) model.StatsSummary {
	if len(readings) == 0 {
		return model.StatsSummary{Trend: model.TrendStable}
	}

	// Both calls only fail on empty input, handled above.
	avg, _ := Mean(readings, field)
	lo, hi, _ := Extrema(readings, field)

	return model.StatsSummary{
		Current: Round(field.Get(readings[0]), precision),
		Average: Round(avg, precision),
		Min:     Round(lo, precision),
		Max:     Round(hi, precision),
		Trend:   model.TrendStable,
	}
}
