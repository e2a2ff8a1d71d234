package model

import (
	"time"

	"github.com/google/uuid"
)

// StatusEvent is emitted when a watched reading classifies at or above the
// alert threshold. It is what gets notified, published and recorded.
type StatusEvent struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Metric     string    `json:"metric"`
	Classifier string    `json:"classifier"`
	Label      string    `json:"label"`
	Severity   Severity  `json:"severity"`
	Value      float64   `json:"value"`
	Secondary  float64   `json:"secondary"`
	Paired     bool      `json:"paired"`
	MeasuredAt time.Time `json:"measured_at"`
	DetectedAt time.Time `json:"detected_at"`
}

// NewStatusEvent stamps a fresh event id and detection time. Secondary is
// only kept for paired samples.
func NewStatusEvent(userID, metric, classifier string, paired bool, st Status, s Sample, measuredAt time.Time) StatusEvent {
	evt := StatusEvent{
		ID:         uuid.NewString(),
		UserID:     userID,
		Metric:     metric,
		Classifier: classifier,
		Label:      st.Label,
		Severity:   st.Severity,
		Value:      s.Primary,
		Paired:     paired,
		MeasuredAt: measuredAt,
		DetectedAt: time.Now().UTC(),
	}
	if paired {
		evt.Secondary = s.Secondary
	}
	return evt
}

// Status returns the classification carried by the event.
func (e StatusEvent) Status() Status {
	return Status{Label: e.Label, Severity: e.Severity}
}
