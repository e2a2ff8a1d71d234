package model

// Trend is a qualitative direction indicator supplied by the stats endpoint.
type Trend string

const (
	TrendUp     Trend = "up"
	TrendDown   Trend = "down"
	TrendStable Trend = "stable"
)

// ParseTrend normalizes a server-supplied trend; anything unknown is stable.
func ParseTrend(s string) Trend {
	switch Trend(s) {
	case TrendUp, TrendDown:
		return Trend(s)
	default:
		return TrendStable
	}
}

// StatsSummary is derived on every fetch and never persisted.
type StatsSummary struct {
	Current float64 `json:"current"`
	Average float64 `json:"average"`
	Min     float64 `json:"min"`
	Max     float64 `json:"max"`
	Trend   Trend   `json:"trend"`
}
