package recorder

import (
	"time"

	"VitalSentinel/internal/model"
)

// CheckRun summarizes one pass of the scheduled check job.
type CheckRun struct {
	StartedAt  time.Time
	FinishedAt time.Time
	UserID     string
	Metrics    int // metrics checked
	Alerts     int // status events emitted
	Failures   int // metrics that could not be collected
	Fallbacks  int // metrics summarized locally
}

// Recorder persists alert history for later analysis.
type Recorder interface {
	RecordStatusEvent(evt *model.StatusEvent) error
	RecordCheckRun(run *CheckRun) error
	RecentEvents(limit int) ([]model.StatusEvent, error)
	Close() error
}
