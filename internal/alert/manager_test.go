package alert

import (
	"path/filepath"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

func TestManager_DedupesPerReading(t *testing.T) {
	m, err := NewManager("", nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	key := Key("u1", metric.Oxygen, "oxygen")
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	st := model.Status{Label: "Critical", Severity: model.SeverityDanger}

	if !m.ShouldAlert(key, at) {
		t.Fatal("first sighting should alert")
	}
	m.Mark(key, at, st)
	if m.ShouldAlert(key, at) {
		t.Error("same reading must not alert twice")
	}
	if !m.ShouldAlert(key, at.Add(time.Hour)) {
		t.Error("a newer reading should alert again")
	}
	if !m.ShouldAlert(Key("u1", metric.Oxygen, "other"), at) {
		t.Error("keys are independent")
	}
}

func TestManager_Resolve(t *testing.T) {
	m, _ := NewManager("", nil)
	key := Key("u1", metric.BloodPressure, "pulse")
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	if _, ok := m.Resolve(key); ok {
		t.Error("nothing to resolve yet")
	}
	m.Mark(key, at, model.Status{Label: "High", Severity: model.SeverityDanger})
	e, ok := m.Resolve(key)
	if !ok || e.Label != "High" || e.Severity != "danger" {
		t.Errorf("resolve: got %+v, %v", e, ok)
	}
	if len(m.Active()) != 0 {
		t.Error("resolved alert should be gone")
	}
	if !m.ShouldAlert(key, at) {
		t.Error("after resolve the same reading may alert again")
	}
}

func TestManager_PersistsAcrossRestarts(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "alert_state.json")
	key := Key("u1", metric.Temperature, "temperature")
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)

	m1, err := NewManager(path, nil)
	if err != nil {
		t.Fatalf("NewManager: %v", err)
	}
	m1.Mark(key, at, model.Status{Label: "Fever", Severity: model.SeverityDanger})

	m2, err := NewManager(path, nil)
	if err != nil {
		t.Fatalf("reload: %v", err)
	}
	if m2.ShouldAlert(key, at) {
		t.Error("state should survive a restart")
	}
	if got := m2.Active()[key].Label; got != "Fever" {
		t.Errorf("label: got %q", got)
	}
}

func TestLoadState_Missing(t *testing.T) {
	s, err := LoadState(filepath.Join(t.TempDir(), "none.json"))
	if err != nil {
		t.Fatalf("LoadState: %v", err)
	}
	if s.Alerts == nil || len(s.Alerts) != 0 {
		t.Errorf("expected empty state, got %+v", s)
	}
}

func TestManager_TryMarkClaimsOnce(t *testing.T) {
	m, _ := NewManager("", nil)
	key := Key("u1", metric.Oxygen, "oxygen")
	at := time.Date(2024, 5, 1, 8, 0, 0, 0, time.UTC)
	st := model.Status{Label: "Critical", Severity: model.SeverityDanger}

	var claimed atomic.Int32
	var wg sync.WaitGroup
	for range 16 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if m.TryMark(key, at, st) {
				claimed.Add(1)
			}
		}()
	}
	wg.Wait()

	if got := claimed.Load(); got != 1 {
		t.Errorf("claimed %d times, want 1", got)
	}
	if !m.TryMark(key, at.Add(time.Hour), st) {
		t.Error("a newer reading should be claimable")
	}
}
