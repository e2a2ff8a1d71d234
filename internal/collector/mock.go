package collector

import (
	"context"
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

// ErrStatsUnavailable is what MockFetcher answers when no stats are set.
var ErrStatsUnavailable = errors.New("stats unavailable")

// MockFetcher keeps readings in memory for development and testing. Readings
// are served newest first, the order the real API uses.
type MockFetcher struct {
	mu       sync.Mutex
	readings map[string][]model.Reading
	stats    map[string]map[string]model.StatsSummary
	Err      error
	Now      func() time.Time
}

// NewMockFetcher returns an empty mock.
func NewMockFetcher() *MockFetcher {
	return &MockFetcher{
		readings: make(map[string][]model.Reading),
		stats:    make(map[string]map[string]model.StatsSummary),
		Now:      time.Now,
	}
}

func (m *MockFetcher) Name() string { return "mock" }

func mockKey(userID string, id metric.ID) string { return userID + "/" + string(id) }

// SetReadings replaces the readings served for a user and metric, as given.
func (m *MockFetcher) SetReadings(userID string, id metric.ID, rs []model.Reading) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.readings[mockKey(userID, id)] = slices.Clone(rs)
}

// SetStats makes FetchStats succeed with the given summaries.
func (m *MockFetcher) SetStats(userID string, id metric.ID, s map[string]model.StatsSummary) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.stats[mockKey(userID, id)] = s
}

func (m *MockFetcher) FetchReadings(_ context.Context, userID string, def *metric.Definition) ([]model.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	return slices.Clone(m.readings[mockKey(userID, def.ID)]), nil
}

func (m *MockFetcher) FetchRange(_ context.Context, userID string, def *metric.Definition, start, end time.Time) ([]model.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return nil, m.Err
	}
	var out []model.Reading
	for _, r := range m.readings[mockKey(userID, def.ID)] {
		if !r.MeasuredAt.Before(start) && !r.MeasuredAt.After(end) {
			out = append(out, r)
		}
	}
	return out, nil
}

func (m *MockFetcher) FetchStats(_ context.Context, userID string, def *metric.Definition) (map[string]model.StatsSummary, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.stats[mockKey(userID, def.ID)]
	if !ok {
		return nil, fmt.Errorf("fetch stats: %w", ErrStatsUnavailable)
	}
	return s, nil
}

func (m *MockFetcher) AddReading(_ context.Context, userID string, def *metric.Definition, r model.Reading) (model.Reading, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.Err != nil {
		return model.Reading{}, m.Err
	}
	key := mockKey(userID, def.ID)
	if r.Unit == "" {
		r.Unit = def.Unit
	}
	r.ID = fmt.Sprintf("%d", len(m.readings[key])+1)
	// Newest first.
	m.readings[key] = append([]model.Reading{r}, m.readings[key]...)
	return r, nil
}

// Seed fills every metric with count daily readings for userID, newest first,
// following a gentle wave around a typical value.
func (m *MockFetcher) Seed(userID string, count int) {
	now := m.Now()
	for _, def := range metric.All() {
		rs := make([]model.Reading, count)
		for i := 0; i < count; i++ {
			wave := math.Sin(float64(i) / 3)
			r := model.Reading{MeasuredAt: now.AddDate(0, 0, -i), Unit: def.Unit}
			switch def.ID {
			case metric.Temperature:
				r.Value = 98.4 + 0.6*wave
			case metric.Oxygen:
				r.Value = 96.5 + 2*wave
			case metric.Glycogen:
				r.Value = 88 + 15*wave
			case metric.HeartRate:
				r.Value = 74 + 12*wave
			case metric.BloodPressure:
				r.Systolic = 122 + 10*wave
				r.Diastolic = 80 + 6*wave
				r.Pulse = 72 + 8*wave
			}
			rs[i] = r
		}
		m.SetReadings(userID, def.ID, rs)
	}
}
