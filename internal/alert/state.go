package alert

import (
	"encoding/json"
	"os"
	"path/filepath"
	"time"
)

// Entry remembers the last reading an alert was sent for.
type Entry struct {
	MeasuredAt time.Time `json:"measured_at"`
	Label      string    `json:"label"`
	Severity   string    `json:"severity"`
	AlertedAt  time.Time `json:"alerted_at"`
}

// State is the persisted alert bookkeeping, keyed by Key.
type State struct {
	Alerts    map[string]Entry `json:"alerts"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// LoadState reads the alert state from a JSON file. Returns an empty state if the file doesn't exist.
func LoadState(filePath string) (*State, error) {
	data, err := os.ReadFile(filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return &State{Alerts: map[string]Entry{}}, nil
		}
		return nil, err
	}
	var state State
	if err := json.Unmarshal(data, &state); err != nil {
		return nil, err
	}
	if state.Alerts == nil {
		state.Alerts = map[string]Entry{}
	}
	return &state, nil
}

// SaveState writes the alert state to a JSON file, creating its directory.
func SaveState(filePath string, state *State) error {
	state.UpdatedAt = time.Now()
	data, err := json.MarshalIndent(state, "", "  ")
	if err != nil {
		return err
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	return os.WriteFile(filePath, data, 0644)
}
