package scheduler

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"VitalSentinel/internal/alert"
	"VitalSentinel/internal/collector"
	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
	"VitalSentinel/internal/recorder"
)

var now = time.Date(2024, 5, 10, 12, 0, 0, 0, time.UTC)

type fakeMessenger struct {
	mu   sync.Mutex
	sent []string
}

func (f *fakeMessenger) SendWithRetry(_ context.Context, text string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sent = append(f.sent, text)
	return nil
}

type fakePublisher struct {
	mu     sync.Mutex
	events []model.StatusEvent
}

func (f *fakePublisher) Publish(_ context.Context, evt model.StatusEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, evt)
	return nil
}
func (f *fakePublisher) Close() error { return nil }
func (f *fakePublisher) Name() string { return "fake" }

type fakeRecorder struct {
	mu     sync.Mutex
	events []model.StatusEvent
	runs   []recorder.CheckRun
}

func (f *fakeRecorder) RecordStatusEvent(evt *model.StatusEvent) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.events = append(f.events, *evt)
	return nil
}
func (f *fakeRecorder) RecordCheckRun(run *recorder.CheckRun) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.runs = append(f.runs, *run)
	return nil
}
func (f *fakeRecorder) RecentEvents(limit int) ([]model.StatusEvent, error) {
	if len(f.events) < limit {
		limit = len(f.events)
	}
	return f.events[:limit], nil
}
func (f *fakeRecorder) Close() error { return nil }

type fixture struct {
	sched *Scheduler
	mock  *collector.MockFetcher
	msg   *fakeMessenger
	pub   *fakePublisher
	rec   *fakeRecorder
}

func newFixture(t *testing.T, metrics ...metric.ID) *fixture {
	t.Helper()
	log := slog.New(slog.NewTextHandler(io.Discard, nil))
	mock := collector.NewMockFetcher()
	col := collector.NewCollector(mock, log)
	col.Now = func() time.Time { return now }

	am, err := alert.NewManager("", log)
	if err != nil {
		t.Fatalf("alert manager: %v", err)
	}
	var defs []*metric.Definition
	for _, id := range metrics {
		defs = append(defs, metric.Lookup(id))
	}
	f := &fixture{mock: mock, msg: &fakeMessenger{}, pub: &fakePublisher{}, rec: &fakeRecorder{}}
	f.sched = NewScheduler(context.Background(), col, am, f.msg, f.pub, f.rec, Watch{
		UserID:      "u1",
		Metrics:     defs,
		Range:       model.Range7d,
		MinSeverity: model.SeverityDanger,
	}, log)
	return f
}

func TestRunCheck_AlertsOncePerReading(t *testing.T) {
	f := newFixture(t, metric.Oxygen, metric.Temperature)
	f.mock.SetReadings("u1", metric.Oxygen, []model.Reading{{MeasuredAt: now.Add(-time.Hour), Value: 85}})
	f.mock.SetReadings("u1", metric.Temperature, []model.Reading{{MeasuredAt: now.Add(-time.Hour), Value: 98.9}})

	run := f.sched.RunCheck(context.Background())
	if run.Metrics != 2 || run.Alerts != 1 || run.Fallbacks != 2 || run.Failures != 0 {
		t.Errorf("run: %+v", run)
	}
	if len(f.pub.events) != 1 || len(f.rec.events) != 1 || len(f.msg.sent) != 1 {
		t.Fatalf("sinks: published %d, recorded %d, sent %d", len(f.pub.events), len(f.rec.events), len(f.msg.sent))
	}
	evt := f.pub.events[0]
	if evt.Metric != "oxygen" || evt.Label != "Critical" || evt.Value != 85 || evt.ID == "" {
		t.Errorf("event: %+v", evt)
	}
	if !strings.Contains(f.msg.sent[0], "Critical") {
		t.Errorf("alert text: %s", f.msg.sent[0])
	}

	again := f.sched.RunCheck(context.Background())
	if again.Alerts != 0 || len(f.pub.events) != 1 {
		t.Errorf("same reading alerted twice: %+v", again)
	}
	if len(f.rec.runs) != 2 {
		t.Errorf("expected 2 recorded runs, got %d", len(f.rec.runs))
	}
}

func TestRunCheck_ConcurrentRunsAlertOnce(t *testing.T) {
	f := newFixture(t, metric.Oxygen)
	f.mock.SetReadings("u1", metric.Oxygen, []model.Reading{{MeasuredAt: now.Add(-time.Hour), Value: 85}})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			f.sched.RunCheck(context.Background())
		}()
	}
	wg.Wait()

	if len(f.pub.events) != 1 || len(f.msg.sent) != 1 {
		t.Errorf("published %d, sent %d; want one alert", len(f.pub.events), len(f.msg.sent))
	}
}

func TestRunCheck_RecoveryClearsAlert(t *testing.T) {
	f := newFixture(t, metric.HeartRate)
	def := metric.Lookup(metric.HeartRate)
	f.mock.SetReadings("u1", metric.HeartRate, []model.Reading{{MeasuredAt: now.Add(-2 * time.Hour), Value: 140}})

	if run := f.sched.RunCheck(context.Background()); run.Alerts != 1 {
		t.Fatalf("expected tachycardia alert, got %+v", run)
	}
	if _, err := f.mock.AddReading(context.Background(), "u1", def, model.Reading{MeasuredAt: now.Add(-time.Hour), Value: 72}); err != nil {
		t.Fatalf("AddReading: %v", err)
	}
	if run := f.sched.RunCheck(context.Background()); run.Alerts != 0 {
		t.Errorf("normal reading should not alert: %+v", run)
	}
	last := f.msg.sent[len(f.msg.sent)-1]
	if !strings.Contains(last, "back to Normal") || !strings.Contains(last, "Tachycardia") {
		t.Errorf("recovery message: %s", last)
	}
	if len(f.sched.Alerts.Active()) != 0 {
		t.Error("alert should be resolved")
	}
}

func TestRunCheck_BloodPressureClassifiersIndependent(t *testing.T) {
	f := newFixture(t, metric.BloodPressure)
	f.mock.SetReadings("u1", metric.BloodPressure, []model.Reading{
		{MeasuredAt: now.Add(-time.Hour), Systolic: 118, Diastolic: 76, Pulse: 130},
	})
	run := f.sched.RunCheck(context.Background())
	if run.Alerts != 1 || f.pub.events[0].Classifier != "pulse" {
		t.Errorf("only the pulse should alert: %+v %+v", run, f.pub.events)
	}
}

func TestRunCheck_ThresholdFromWatch(t *testing.T) {
	f := newFixture(t, metric.Temperature)
	f.mock.SetReadings("u1", metric.Temperature, []model.Reading{{MeasuredAt: now.Add(-time.Hour), Value: 98.9}})
	if run := f.sched.RunCheck(context.Background()); run.Alerts != 0 {
		t.Fatalf("elevated is below danger: %+v", run)
	}

	w := f.sched.CurrentWatch()
	w.MinSeverity = model.SeverityCaution
	f.sched.UpdateWatch(w)
	if run := f.sched.RunCheck(context.Background()); run.Alerts != 1 {
		t.Errorf("lowered threshold should alert: %+v", run)
	}
}

func TestRunCheck_SkipsEmptyAndCountsFailures(t *testing.T) {
	f := newFixture(t, metric.Glycogen)
	if run := f.sched.RunCheck(context.Background()); run.Alerts != 0 || run.Failures != 0 {
		t.Errorf("empty metric: %+v", run)
	}
	f.mock.Err = context.DeadlineExceeded
	if run := f.sched.RunCheck(context.Background()); run.Failures != 1 {
		t.Errorf("expected a failure: %+v", run)
	}
}

func TestRegisterAll(t *testing.T) {
	f := newFixture(t, metric.Oxygen)
	if err := f.sched.RegisterAll("0 */15 * * * *", "0 0 20 * * *"); err != nil {
		t.Fatalf("RegisterAll: %v", err)
	}
	if n := len(f.sched.Cron.Entries()); n != 2 {
		t.Errorf("expected 2 entries, got %d", n)
	}
	if err := f.sched.RegisterAll("not a cron", ""); err == nil {
		t.Error("expected an invalid cron expression error")
	}
}

func TestRunDigest(t *testing.T) {
	f := newFixture(t, metric.Oxygen)
	f.mock.SetReadings("u1", metric.Oxygen, []model.Reading{{MeasuredAt: now.Add(-time.Hour), Value: 97}})
	f.sched.RunDigest(context.Background())
	if len(f.msg.sent) != 1 || !strings.Contains(f.msg.sent[0], "Oxygen Level: 97.0 % (Normal)") {
		t.Errorf("digest: %v", f.msg.sent)
	}
}

func TestHandleCommand(t *testing.T) {
	f := newFixture(t, metric.Oxygen)
	f.mock.SetReadings("u1", metric.Oxygen, []model.Reading{
		{MeasuredAt: now.Add(-time.Hour), Value: 97},
		{MeasuredAt: now.AddDate(0, 0, -20), Value: 92},
	})

	cases := []struct {
		cmd  string
		want string
	}{
		{"/spo2", "1 readings"},
		{"/oxygen 30d", "2 readings"},
		{"/o2@VitalBot", "Oxygen Level"},
		{"/spo2 1y", "unknown time range"},
		{"/summary", "digest"},
		{"/alerts", "No alerts recorded."},
		{"/help", "/summary"},
		{"/bogus", "Unknown command"},
	}
	for _, c := range cases {
		if got := f.sched.HandleCommand(context.Background(), c.cmd); !strings.Contains(got, c.want) {
			t.Errorf("HandleCommand(%q) = %q, want it to contain %q", c.cmd, got, c.want)
		}
	}
}
