package collector

import (
	"context"
	"fmt"
	"time"

	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

// Fetcher defines the interface to the readings API. Every call names the
// user and metric explicitly; there is no ambient session.
type Fetcher interface {
	FetchReadings(ctx context.Context, userID string, def *metric.Definition) ([]model.Reading, error)
	FetchRange(ctx context.Context, userID string, def *metric.Definition, start, end time.Time) ([]model.Reading, error)
	FetchStats(ctx context.Context, userID string, def *metric.Definition) (map[string]model.StatsSummary, error)
	AddReading(ctx context.Context, userID string, def *metric.Definition, r model.Reading) (model.Reading, error)
	Name() string
}

// StatusError is a non-2xx answer from the readings API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("status %d, body: %s", e.Code, e.Body)
}
