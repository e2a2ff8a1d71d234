package alert

import (
	"log/slog"
	"maps"
	"sync"
	"time"

	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

// Manager de-duplicates status alerts with concurrency safety. An alert is
// sent at most once per reading and classifier.
type Manager struct {
	mu       sync.Mutex
	state    *State
	filePath string
	log      *slog.Logger
}

// NewManager creates a Manager, loading state from disk. An empty filePath
// keeps the state in memory only.
func NewManager(filePath string, log *slog.Logger) (*Manager, error) {
	if log == nil {
		log = slog.Default()
	}
	state := &State{Alerts: map[string]Entry{}}
	if filePath != "" {
		var err error
		if state, err = LoadState(filePath); err != nil {
			return nil, err
		}
	}
	return &Manager{state: state, filePath: filePath, log: log}, nil
}

// Key identifies one classifier of one metric for one user.
func Key(userID string, id metric.ID, classifier string) string {
	return userID + "/" + string(id) + "/" + classifier
}

// ShouldAlert reports whether the reading taken at measuredAt has not been
// alerted yet under key.
func (m *Manager) ShouldAlert(key string, measuredAt time.Time) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.state.Alerts[key]
	return !ok || !e.MeasuredAt.Equal(measuredAt)
}

// Mark records that an alert for the given status was sent.
func (m *Manager) Mark(key string, measuredAt time.Time, st model.Status) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.mark(key, measuredAt, st)
}

// TryMark claims the alert for the reading taken at measuredAt. It returns
// false when the reading was already claimed, so concurrent checks send it
// only once.
func (m *Manager) TryMark(key string, measuredAt time.Time, st model.Status) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.state.Alerts[key]; ok && e.MeasuredAt.Equal(measuredAt) {
		return false
	}
	m.mark(key, measuredAt, st)
	return true
}

func (m *Manager) mark(key string, measuredAt time.Time, st model.Status) {
	m.state.Alerts[key] = Entry{
		MeasuredAt: measuredAt,
		Label:      st.Label,
		Severity:   st.Severity.String(),
		AlertedAt:  time.Now(),
	}
	if err := m.save(); err != nil {
		m.log.Error("failed to save alert state", "key", key, "err", err)
	}
}

// Resolve forgets the alert under key once its status is back below the
// threshold. It returns the entry that was active, if any.
func (m *Manager) Resolve(key string) (Entry, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()

	e, ok := m.state.Alerts[key]
	if !ok {
		return Entry{}, false
	}
	delete(m.state.Alerts, key)
	if err := m.save(); err != nil {
		m.log.Error("failed to save alert state after resolve", "key", key, "err", err)
	}
	return e, true
}

// Active returns a copy of the currently active alerts.
func (m *Manager) Active() map[string]Entry {
	m.mu.Lock()
	defer m.mu.Unlock()
	return maps.Clone(m.state.Alerts)
}

func (m *Manager) save() error {
	if m.filePath == "" {
		return nil
	}
	return SaveState(m.filePath, m.state)
}
