// Package publisher fans status events out to message brokers so other
// systems can react to a reading crossing the alert threshold.
package publisher

import (
	"context"
	"encoding/json"
	"errors"
	"math"
	"time"

	"VitalSentinel/internal/model"
)

// Publisher delivers status events to one sink.
type Publisher interface {
	Publish(ctx context.Context, evt model.StatusEvent) error
	Close() error
	Name() string
}

// payload is the wire form of a status event. Missing values are null.
type payload struct {
	ID         string    `json:"id"`
	UserID     string    `json:"user_id"`
	Metric     string    `json:"metric"`
	Classifier string    `json:"classifier"`
	Label      string    `json:"label"`
	Severity   string    `json:"severity"`
	Value      *float64  `json:"value"`
	Secondary  *float64  `json:"secondary"`
	Paired     bool      `json:"paired"`
	MeasuredAt time.Time `json:"measured_at"`
	DetectedAt time.Time `json:"detected_at"`
}

func finite(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

// Encode renders the JSON payload shared by every sink.
func Encode(evt model.StatusEvent) ([]byte, error) {
	p := payload{
		ID:         evt.ID,
		UserID:     evt.UserID,
		Metric:     evt.Metric,
		Classifier: evt.Classifier,
		Label:      evt.Label,
		Severity:   evt.Severity.String(),
		Value:      finite(evt.Value),
		Paired:     evt.Paired,
		MeasuredAt: evt.MeasuredAt.UTC(),
		DetectedAt: evt.DetectedAt.UTC(),
	}
	if evt.Paired {
		p.Secondary = finite(evt.Secondary)
	}
	return json.Marshal(p)
}

// Multi publishes to every sink and joins their errors.
type Multi []Publisher

func (m Multi) Publish(ctx context.Context, evt model.StatusEvent) error {
	var errs []error
	for _, p := range m {
		if err := p.Publish(ctx, evt); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Close() error {
	var errs []error
	for _, p := range m {
		if err := p.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func (m Multi) Name() string { return "multi" }
