package calculator

import (
	"iter"
	"slices"

	"VitalSentinel/internal/model"
)

// FormatSeries returns the field values as chart points in ascending
// MeasuredAt order, whatever order the readings arrived in. Ties keep their
// input order. Nothing is sorted until the sequence is ranged over, and each
// range starts over from the readings slice, which is never modified.
func FormatSeries(readings []model.Reading, field model.Field) iter.Seq[model.ChartPoint] {
	return func(yield func(model.ChartPoint) bool) {
		order := make([]int, len(readings))
		for i := range order {
			order[i] = i
		}
		slices.SortStableFunc(order, func(a, b int) int {
			return readings[a].MeasuredAt.Compare(readings[b].MeasuredAt)
		})
		for _, i := range order {
			p := model.ChartPoint{Date: readings[i].MeasuredAt, Value: field.Get(readings[i])}
			if !yield(p) {
				return
			}
		}
	}
}
