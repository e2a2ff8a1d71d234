package model

import (
	"errors"
	"fmt"
	"time"
)

// ErrUnknownRange is returned for range filters other than 7d, 30d and 90d.
var ErrUnknownRange = errors.New("unknown time range")

// TimeRange is the active window constraining which readings are loaded.
type TimeRange string

const (
	Range7d  TimeRange = "7d"
	Range30d TimeRange = "30d"
	Range90d TimeRange = "90d"
	// RangeAll loads every reading, like the initial page load.
	RangeAll TimeRange = "all"
)

// DefaultRange is used when no range is selected.
const DefaultRange = Range7d

// ParseTimeRange accepts "7d", "30d", "90d" or "all"; the empty string yields DefaultRange.
func ParseTimeRange(s string) (TimeRange, error) {
	switch TimeRange(s) {
	case "":
		return DefaultRange, nil
	case Range7d, Range30d, Range90d, RangeAll:
		return TimeRange(s), nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownRange, s)
	}
}

// Days returns the window length in days, 0 for RangeAll.
func (r TimeRange) Days() int {
	switch r {
	case RangeAll:
		return 0
	case Range30d:
		return 30
	case Range90d:
		return 90
	default:
		return 7
	}
}

// Bounds returns [now - Days, now]. Callers handle RangeAll themselves.
func (r TimeRange) Bounds(now time.Time) (start, end time.Time) {
	return now.AddDate(0, 0, -r.Days()), now
}
