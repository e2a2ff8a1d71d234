package server

import (
	"math"
	"time"

	"VitalSentinel/internal/collector"
	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

// JSON has no NaN, so every float leaves the server as a nullable pointer.
func num(v float64) *float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return nil
	}
	return &v
}

type summaryView struct {
	Current *float64    `json:"current"`
	Average *float64    `json:"average"`
	Min     *float64    `json:"min"`
	Max     *float64    `json:"max"`
	Trend   model.Trend `json:"trend"`
}

type pointView struct {
	Date  time.Time `json:"date"`
	Value *float64  `json:"value"`
}

type readingView struct {
	ID         string    `json:"id,omitempty"`
	MeasuredAt time.Time `json:"measured_at"`
	Value      *float64  `json:"value,omitempty"`
	Systolic   *float64  `json:"systolic,omitempty"`
	Diastolic  *float64  `json:"diastolic,omitempty"`
	Pulse      *float64  `json:"pulse,omitempty"`
	Unit       string    `json:"unit,omitempty"`
	Notes      string    `json:"notes,omitempty"`

	Statuses map[string]model.Status `json:"statuses,omitempty"`
}

type reportView struct {
	Metric    metric.ID               `json:"metric"`
	Name      string                  `json:"name"`
	Unit      string                  `json:"unit"`
	Range     model.TimeRange         `json:"range"`
	Source    collector.Source        `json:"source"`
	Count     int                     `json:"count"`
	Summaries map[string]summaryView  `json:"summaries"`
	Statuses  map[string]model.Status `json:"statuses"`
	Series    map[string][]pointView  `json:"series"`
	Latest    *readingView            `json:"latest,omitempty"`
	Recent    []readingView           `json:"recent"`
	FetchedAt time.Time               `json:"fetched_at"`
}

type hintView struct {
	Field string  `json:"field"`
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
}

type metricView struct {
	ID          metric.ID  `json:"id"`
	Name        string     `json:"name"`
	Unit        string     `json:"unit"`
	Path        string     `json:"path"`
	Precision   int        `json:"precision"`
	Fields      []string   `json:"fields"`
	Classifiers []string   `json:"classifiers"`
	Hints       []hintView `json:"hints"`
	Aliases     []string   `json:"aliases,omitempty"`
}

type alertView struct {
	ID         string         `json:"id"`
	UserID     string         `json:"user_id"`
	Metric     string         `json:"metric"`
	Classifier string         `json:"classifier"`
	Label      string         `json:"label"`
	Severity   model.Severity `json:"severity"`
	Value      *float64       `json:"value"`
	Secondary  *float64       `json:"secondary,omitempty"`
	MeasuredAt time.Time      `json:"measured_at"`
	DetectedAt time.Time      `json:"detected_at"`
}

func toSummaryView(s model.StatsSummary) summaryView {
	return summaryView{Current: num(s.Current), Average: num(s.Average), Min: num(s.Min), Max: num(s.Max), Trend: s.Trend}
}

func toReadingView(def *metric.Definition, r model.Reading) *readingView {
	v := &readingView{ID: r.ID, MeasuredAt: r.MeasuredAt, Unit: r.Unit, Notes: r.Notes}
	if def.Scalar() {
		v.Value = num(r.Value)
	} else {
		v.Systolic, v.Diastolic, v.Pulse = num(r.Systolic), num(r.Diastolic), num(r.Pulse)
	}
	return v
}

func toReportView(def *metric.Definition, rep *collector.Report) reportView {
	v := reportView{
		Metric:    def.ID,
		Name:      def.Name,
		Unit:      def.Unit,
		Range:     rep.Range,
		Source:    rep.Source,
		Count:     len(rep.Readings),
		Summaries: make(map[string]summaryView, len(rep.Summaries)),
		Statuses:  rep.Statuses,
		Series:    make(map[string][]pointView, len(rep.Series)),
		FetchedAt: rep.FetchedAt,
	}
	for name, s := range rep.Summaries {
		v.Summaries[name] = toSummaryView(s)
	}
	for name, pts := range rep.Series {
		out := make([]pointView, len(pts))
		for i, p := range pts {
			out[i] = pointView{Date: p.Date, Value: num(p.Value)}
		}
		v.Series[name] = out
	}
	if len(rep.Readings) > 0 {
		v.Latest = toReadingView(def, rep.Readings[0])
	}
	v.Recent = make([]readingView, 0, len(rep.Recent))
	for _, rr := range rep.Recent {
		rv := toReadingView(def, rr.Reading)
		rv.Statuses = rr.Statuses
		v.Recent = append(v.Recent, *rv)
	}
	return v
}

func toMetricView(def *metric.Definition) metricView {
	v := metricView{
		ID:        def.ID,
		Name:      def.Name,
		Unit:      def.Unit,
		Path:      def.Path,
		Precision: def.Precision,
		Aliases:   def.Aliases,
	}
	for _, f := range def.Fields {
		v.Fields = append(v.Fields, f.Name)
	}
	for _, c := range def.Classify {
		v.Classifiers = append(v.Classifiers, c.Name)
	}
	for _, h := range def.Hints {
		v.Hints = append(v.Hints, hintView{Field: h.Field.Name, Min: h.Min, Max: h.Max})
	}
	return v
}

func toAlertView(e model.StatusEvent) alertView {
	v := alertView{
		ID:         e.ID,
		UserID:     e.UserID,
		Metric:     e.Metric,
		Classifier: e.Classifier,
		Label:      e.Label,
		Severity:   e.Severity,
		Value:      num(e.Value),
		MeasuredAt: e.MeasuredAt,
		DetectedAt: e.DetectedAt,
	}
	if e.Paired {
		v.Secondary = num(e.Secondary)
	}
	return v
}
