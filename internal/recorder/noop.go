package recorder

import "VitalSentinel/internal/model"

// NoopRecorder is a no-op implementation used when SQLite is not configured.
type NoopRecorder struct{}

func NewNoopRecorder() *NoopRecorder { return &NoopRecorder{} }

func (n *NoopRecorder) RecordStatusEvent(_ *model.StatusEvent) error    { return nil }
func (n *NoopRecorder) RecordCheckRun(_ *CheckRun) error                { return nil }
func (n *NoopRecorder) RecentEvents(_ int) ([]model.StatusEvent, error) { return nil, nil }
func (n *NoopRecorder) Close() error                                    { return nil }
