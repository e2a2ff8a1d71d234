package scheduler

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"strings"
	"sync"
	"time"

	"VitalSentinel/internal/alert"
	"VitalSentinel/internal/collector"
	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
	"VitalSentinel/internal/notifier"
	"VitalSentinel/internal/publisher"
	"VitalSentinel/internal/recorder"

	"github.com/robfig/cron/v3"
)

// Messenger delivers formatted text to the user.
type Messenger interface {
	SendWithRetry(ctx context.Context, text string, maxRetries int) error
}

// Watch is the hot-reloadable part of the configuration.
type Watch struct {
	UserID      string
	Metrics     []*metric.Definition
	Range       model.TimeRange
	MinSeverity model.Severity
}

// Scheduler manages all cron tasks.
type Scheduler struct {
	Cron      *cron.Cron
	Collector *collector.Collector
	Alerts    *alert.Manager
	Notifier  Messenger           // nil disables notifications
	Publisher publisher.Publisher // nil disables publishing
	Recorder  recorder.Recorder
	Log       *slog.Logger
	Ctx       context.Context

	mu    sync.RWMutex
	watch Watch
}

// NewScheduler creates a new Scheduler.
func NewScheduler(ctx context.Context, col *collector.Collector, am *alert.Manager, msg Messenger, pub publisher.Publisher, rec recorder.Recorder, w Watch, log *slog.Logger) *Scheduler {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = slog.Default()
	}
	cronLog := cron.PrintfLogger(slog.NewLogLogger(log.Handler(), slog.LevelInfo))
	return &Scheduler{
		Cron:      cron.New(cron.WithSeconds(), cron.WithChain(cron.SkipIfStillRunning(cronLog))),
		Collector: col,
		Alerts:    am,
		Notifier:  msg,
		Publisher: pub,
		Recorder:  rec,
		Log:       log,
		Ctx:       ctx,
		watch:     w,
	}
}

// RegisterAll registers the check and digest tasks.
func (s *Scheduler) RegisterAll(checkCron, digestCron string) error {
	if _, err := s.Cron.AddFunc(checkCron, func() { s.RunCheck(s.Ctx) }); err != nil {
		return fmt.Errorf("register check task: %w", err)
	}
	if digestCron != "" {
		if _, err := s.Cron.AddFunc(digestCron, func() { s.RunDigest(s.Ctx) }); err != nil {
			return fmt.Errorf("register digest task: %w", err)
		}
	}
	return nil
}

// Start starts the cron scheduler.
func (s *Scheduler) Start() {
	s.Cron.Start()
	s.Log.Info("scheduler started", "entries", len(s.Cron.Entries()))
}

// Stop stops the cron scheduler and waits for running jobs.
func (s *Scheduler) Stop() {
	<-s.Cron.Stop().Done()
	s.Log.Info("scheduler stopped")
}

// UpdateWatch swaps the watched metrics and thresholds, e.g. after a config reload.
func (s *Scheduler) UpdateWatch(w Watch) {
	s.mu.Lock()
	s.watch = w
	s.mu.Unlock()
	s.Log.Info("watch updated", "metrics", len(w.Metrics), "range", w.Range, "min_severity", w.MinSeverity)
}

// CurrentWatch returns the active watch settings.
func (s *Scheduler) CurrentWatch() Watch {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.watch
}

// RunCheck classifies the current value of every watched metric and emits a
// status event for each classification at or above the threshold that has
// not been alerted for the same reading yet.
func (s *Scheduler) RunCheck(ctx context.Context) *recorder.CheckRun {
	w := s.CurrentWatch()
	run := &recorder.CheckRun{StartedAt: time.Now(), UserID: w.UserID}
	s.Log.Info("running check", "user", w.UserID, "metrics", len(w.Metrics))

	for _, def := range w.Metrics {
		run.Metrics++
		rep, err := s.Collector.Collect(ctx, w.UserID, def, w.Range)
		if err != nil {
			run.Failures++
			s.Log.Error("check collect failed", "metric", def.ID, "err", err)
			continue
		}
		if rep.Source == collector.SourceFallback {
			run.Fallbacks++
		}
		if len(rep.Readings) == 0 {
			continue
		}
		run.Alerts += s.evaluate(ctx, w, def, rep)
	}

	run.FinishedAt = time.Now()
	if err := s.Recorder.RecordCheckRun(run); err != nil {
		s.Log.Error("record check run failed", "err", err)
	}
	s.Log.Info("check finished", "alerts", run.Alerts, "failures", run.Failures, "fallbacks", run.Fallbacks)
	return run
}

func (s *Scheduler) evaluate(ctx context.Context, w Watch, def *metric.Definition, rep *collector.Report) int {
	current := def.CurrentReading(rep.Summaries)
	// Readings arrive newest first; the first one is what current refers to.
	measuredAt := rep.Readings[0].MeasuredAt

	alerts := 0
	for _, c := range def.Classify {
		sample := c.Sample(current)
		if math.IsNaN(sample.Primary) {
			continue
		}
		st, ok := rep.Statuses[c.Name]
		if !ok {
			continue
		}
		key := alert.Key(w.UserID, def.ID, c.Name)

		if st.Severity < w.MinSeverity {
			if prev, resolved := s.Alerts.Resolve(key); resolved {
				s.notify(ctx, notifier.FormatRecovered(def, prev.Label, st))
			}
			continue
		}
		if !s.Alerts.TryMark(key, measuredAt, st) {
			continue
		}

		evt := model.NewStatusEvent(w.UserID, string(def.ID), c.Name, c.Paired, st, sample, measuredAt)
		s.Log.Warn("status alert", "metric", def.ID, "classifier", c.Name, "label", st.Label, "severity", st.Severity)
		s.emit(ctx, def, evt)
		alerts++
	}
	return alerts
}

func (s *Scheduler) emit(ctx context.Context, def *metric.Definition, evt model.StatusEvent) {
	s.notify(ctx, notifier.FormatAlert(def, evt))
	if s.Publisher != nil {
		if err := s.Publisher.Publish(ctx, evt); err != nil {
			s.Log.Error("publish status event failed", "event", evt.ID, "err", err)
		}
	}
	if err := s.Recorder.RecordStatusEvent(&evt); err != nil {
		s.Log.Error("record status event failed", "event", evt.ID, "err", err)
	}
}

// RunDigest sends the summary of all watched metrics.
func (s *Scheduler) RunDigest(ctx context.Context) {
	s.Log.Info("running digest")
	s.notify(ctx, s.digest(ctx))
}

func (s *Scheduler) digest(ctx context.Context) string {
	w := s.CurrentWatch()
	var reports []*collector.Report
	for _, def := range w.Metrics {
		rep, err := s.Collector.Collect(ctx, w.UserID, def, w.Range)
		if err != nil {
			s.Log.Error("digest collect failed", "metric", def.ID, "err", err)
			continue
		}
		reports = append(reports, rep)
	}
	return notifier.FormatDigest(reports, time.Now())
}

// HandleCommand processes a user command and returns a reply.
func (s *Scheduler) HandleCommand(ctx context.Context, command string) string {
	fields := strings.Fields(command)
	if len(fields) == 0 {
		return notifier.FormatHelp()
	}
	name := strings.TrimPrefix(fields[0], "/")
	// Group chats address commands as /cmd@botname.
	name, _, _ = strings.Cut(name, "@")

	switch strings.ToLower(name) {
	case "summary":
		return s.digest(ctx)
	case "alerts":
		events, err := s.Recorder.RecentEvents(10)
		if err != nil {
			return fmt.Sprintf("❌ could not load alerts: %v", err)
		}
		return notifier.FormatEvents(events)
	case "help", "start":
		return notifier.FormatHelp()
	}

	def, err := metric.Parse(name)
	if err != nil {
		return fmt.Sprintf("Unknown command %q.\n\n%s", fields[0], notifier.FormatHelp())
	}
	w := s.CurrentWatch()
	rng := w.Range
	if len(fields) > 1 {
		if rng, err = model.ParseTimeRange(fields[1]); err != nil {
			return fmt.Sprintf("❌ %v", err)
		}
	}
	rep, err := s.Collector.Collect(ctx, w.UserID, def, rng)
	if err != nil {
		s.Log.Error("command collect failed", "metric", def.ID, "err", err)
		return fmt.Sprintf("❌ %s data unavailable: %v", def.Name, err)
	}
	return notifier.FormatReport(def, rep)
}

func (s *Scheduler) notify(ctx context.Context, text string) {
	if s.Notifier == nil || text == "" {
		return
	}
	if err := s.Notifier.SendWithRetry(ctx, text, 3); err != nil {
		s.Log.Error("send notification failed", "err", err)
	}
}
