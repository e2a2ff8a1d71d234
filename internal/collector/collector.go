package collector

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"VitalSentinel/internal/calculator"
	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

// ErrNoUser is returned when a call names no user.
var ErrNoUser = errors.New("no user id")

// Source tells where a report's summaries came from.
type Source string

const (
	SourceAPI      Source = "api"
	SourceFallback Source = "fallback"
)

// RecentLimit is how many of the newest readings a report classifies one by one.
const RecentLimit = 10

// Report is everything a metric page shows for one user and range.
type Report struct {
	Metric    metric.ID                     `json:"metric"`
	Range     model.TimeRange               `json:"range"`
	Source    Source                        `json:"source"`
	Summaries map[string]model.StatsSummary `json:"summaries"`
	Statuses  map[string]model.Status       `json:"statuses"`
	Series    map[string][]model.ChartPoint `json:"series"`
	Recent    []RecentReading               `json:"recent"`
	Readings  []model.Reading               `json:"-"`
	FetchedAt time.Time                     `json:"fetched_at"`
}

// RecentReading is one reading with its own classification.
type RecentReading struct {
	Reading  model.Reading           `json:"reading"`
	Statuses map[string]model.Status `json:"statuses"`
}

// Collector combines the readings API with the statistics engine.
type Collector struct {
	Fetcher Fetcher
	Log     *slog.Logger
	Now     func() time.Time
}

// NewCollector creates a new Collector.
func NewCollector(fetcher Fetcher, log *slog.Logger) *Collector {
	if log == nil {
		log = slog.Default()
	}
	return &Collector{Fetcher: fetcher, Log: log, Now: time.Now}
}

// Collect loads the readings of one metric and builds its report.
//
// The server stats endpoint is the primary source of summaries. When it
// fails, the summaries are computed locally from the loaded readings and
// the report is marked as fallback. Statuses classify the current values;
// they are left empty when there are no readings. Recent classifies the
// first RecentLimit readings in the order the API returned them.
func (c *Collector) Collect(ctx context.Context, userID string, def *metric.Definition, rng model.TimeRange) (*Report, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	now := c.Now()

	var readings []model.Reading
	var err error
	if rng == model.RangeAll {
		readings, err = c.Fetcher.FetchReadings(ctx, userID, def)
	} else {
		start, end := rng.Bounds(now)
		readings, err = c.Fetcher.FetchRange(ctx, userID, def, start, end)
	}
	if err != nil {
		return nil, fmt.Errorf("fetch %s readings: %w", def.ID, err)
	}

	report := &Report{
		Metric:    def.ID,
		Range:     rng,
		Readings:  readings,
		Statuses:  map[string]model.Status{},
		Series:    make(map[string][]model.ChartPoint, len(def.Fields)),
		FetchedAt: now,
	}

	stats, err := c.Fetcher.FetchStats(ctx, userID, def)
	if err != nil {
		c.Log.Warn("stats endpoint failed, computing fallback",
			"metric", def.ID, "user", userID, "readings", len(readings), "err", err)
		report.Summaries = def.Summarize(readings)
		report.Source = SourceFallback
	} else {
		report.Summaries = stats
		report.Source = SourceAPI
	}

	if len(readings) > 0 {
		report.Statuses = def.Statuses(def.CurrentReading(report.Summaries))
	}
	for _, r := range readings[:min(len(readings), RecentLimit)] {
		report.Recent = append(report.Recent, RecentReading{Reading: r, Statuses: def.Statuses(r)})
	}
	for _, f := range def.Fields {
		report.Series[f.Name] = slices.Collect(calculator.FormatSeries(readings, f))
	}
	return report, nil
}

// Submit checks the range hints and stores a new reading.
func (c *Collector) Submit(ctx context.Context, userID string, def *metric.Definition, r model.Reading) (model.Reading, error) {
	if userID == "" {
		return model.Reading{}, ErrNoUser
	}
	if err := def.CheckHints(r); err != nil {
		return model.Reading{}, err
	}
	if r.MeasuredAt.IsZero() {
		r.MeasuredAt = c.Now()
	}
	saved, err := c.Fetcher.AddReading(ctx, userID, def, r)
	if err != nil {
		return model.Reading{}, fmt.Errorf("submit %s reading: %w", def.ID, err)
	}
	c.Log.Info("reading submitted", "metric", def.ID, "user", userID)
	return saved, nil
}

// Overview collects a report for every registered metric. A metric that
// fails is logged and left out.
func (c *Collector) Overview(ctx context.Context, userID string, rng model.TimeRange) ([]*Report, error) {
	if userID == "" {
		return nil, ErrNoUser
	}
	var reports []*Report
	for _, def := range metric.All() {
		r, err := c.Collect(ctx, userID, def, rng)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			c.Log.Error("overview collect failed", "metric", def.ID, "user", userID, "err", err)
			continue
		}
		reports = append(reports, r)
	}
	return reports, nil
}
