package notifier

import (
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"VitalSentinel/internal/collector"
	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

var severityIcons = map[model.Severity]string{
	model.SeverityNormal:  "✅",
	model.SeverityCaution: "⚠️",
	model.SeverityWarning: "🟠",
	model.SeverityDanger:  "🚨",
	model.SeverityCrisis:  "🆘",
}

// Icon returns the marker shown next to a status.
func Icon(s model.Severity) string {
	if icon, ok := severityIcons[s]; ok {
		return icon
	}
	return "❔"
}

// FormatValue renders v at the metric's precision; NaN shows as n/a.
func FormatValue(v float64, precision int) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return "n/a"
	}
	return strconv.FormatFloat(v, 'f', precision, 64)
}

func fieldTitle(def *metric.Definition, name string) string {
	if def.Scalar() {
		return def.Name
	}
	return strings.ToUpper(name[:1]) + name[1:]
}

func trendArrow(t model.Trend) string {
	switch t {
	case model.TrendUp:
		return "↑"
	case model.TrendDown:
		return "↓"
	default:
		return "→"
	}
}

// FormatReport formats one metric report for a command reply.
func FormatReport(def *metric.Definition, r *collector.Report) string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("📊 <b>%s</b> | %s\n", def.Name, r.Range))
	if len(r.Readings) == 0 {
		b.WriteString("No readings in this range.\n")
		return b.String()
	}

	for _, f := range def.Fields {
		s := r.Summaries[f.Name]
		unit := def.Unit
		if c, ok := def.Classifier(f.Name); ok {
			unit = def.UnitOf(c)
		}
		b.WriteString(fmt.Sprintf("%s: <b>%s %s</b> %s\n", fieldTitle(def, f.Name),
			FormatValue(s.Current, def.Precision), unit, trendArrow(s.Trend)))
		b.WriteString(fmt.Sprintf("   avg %s | min %s | max %s\n",
			FormatValue(s.Average, def.Precision),
			FormatValue(s.Min, def.Precision),
			FormatValue(s.Max, def.Precision)))
	}

	for _, c := range def.Classify {
		st, ok := r.Statuses[c.Name]
		if !ok {
			continue
		}
		b.WriteString(fmt.Sprintf("%s %s\n", Icon(st.Severity), st.Label))
	}

	if len(r.Recent) > 0 {
		b.WriteString("\n<b>Recent</b>\n")
		for _, rr := range r.Recent[:min(len(r.Recent), recentLines)] {
			b.WriteString(formatRecent(def, rr))
		}
		b.WriteString("\n")
	}

	if r.Source == collector.SourceFallback {
		b.WriteString("<i>computed locally, stats service unavailable</i>\n")
	}
	b.WriteString(fmt.Sprintf("%d readings", len(r.Readings)))
	return b.String()
}

const recentLines = 5

// formatRecent renders one reading: time, field values, then its labels.
func formatRecent(def *metric.Definition, rr collector.RecentReading) string {
	values := make([]string, 0, len(def.Fields))
	for _, f := range def.Fields {
		values = append(values, FormatValue(f.Get(rr.Reading), def.Precision))
	}
	var labels []string
	for _, c := range def.Classify {
		if st, ok := rr.Statuses[c.Name]; ok {
			labels = append(labels, Icon(st.Severity)+" "+st.Label)
		}
	}
	return fmt.Sprintf("%s  %s  %s\n", rr.Reading.MeasuredAt.Format("01-02 15:04"),
		strings.Join(values, "/"), strings.Join(labels, ", "))
}

// FormatAlert formats a status event crossing the alert threshold.
func FormatAlert(def *metric.Definition, evt model.StatusEvent) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("%s <b>%s: %s</b>\n\n", Icon(evt.Severity), def.Name, evt.Label))
	c, _ := def.Classifier(evt.Classifier)
	if c.Paired {
		b.WriteString(fmt.Sprintf("Value: %s/%s %s\n",
			FormatValue(evt.Value, def.Precision), FormatValue(evt.Secondary, def.Precision), def.UnitOf(c)))
	} else {
		b.WriteString(fmt.Sprintf("Value: %s %s\n", FormatValue(evt.Value, def.Precision), def.UnitOf(c)))
	}
	b.WriteString(fmt.Sprintf("Severity: %s\n", evt.Severity))
	b.WriteString(fmt.Sprintf("Measured: %s", evt.MeasuredAt.Format("2006-01-02 15:04")))
	return b.String()
}

// FormatRecovered announces a metric returning below the alert threshold.
func FormatRecovered(def *metric.Definition, previous string, st model.Status) string {
	return fmt.Sprintf("%s <b>%s</b> back to %s (was %s)", Icon(st.Severity), def.Name, st.Label, previous)
}

// FormatDigest formats the periodic summary of all watched metrics.
func FormatDigest(reports []*collector.Report, now time.Time) string {
	var b strings.Builder
	b.WriteString(fmt.Sprintf("🩺 <b>VitalSentinel digest</b> | %s\n\n", now.Format("2006-01-02")))
	if len(reports) == 0 {
		b.WriteString("No metrics could be loaded.")
		return b.String()
	}
	for _, r := range reports {
		def := metric.Lookup(r.Metric)
		if def == nil {
			continue
		}
		if len(r.Readings) == 0 {
			b.WriteString(fmt.Sprintf("▫️ %s: no readings\n", def.Name))
			continue
		}
		var values []string
		for _, f := range def.Fields {
			values = append(values, FormatValue(r.Summaries[f.Name].Current, def.Precision))
		}
		worst := model.Status{Label: "Unknown", Severity: model.SeverityNormal}
		for _, c := range def.Classify {
			if st, ok := r.Statuses[c.Name]; ok && (worst.Label == "Unknown" || st.Severity > worst.Severity) {
				worst = st
			}
		}
		b.WriteString(fmt.Sprintf("%s %s: %s %s (%s)\n", Icon(worst.Severity), def.Name,
			strings.Join(values, "/"), def.Unit, worst.Label))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatEvents formats recorded status events, newest first.
func FormatEvents(events []model.StatusEvent) string {
	if len(events) == 0 {
		return "No alerts recorded."
	}
	var b strings.Builder
	b.WriteString("🗂 <b>Recent alerts</b>\n\n")
	for _, e := range events {
		name := e.Metric
		precision := 1
		if def := metric.Lookup(metric.ID(e.Metric)); def != nil {
			name, precision = def.Name, def.Precision
		}
		b.WriteString(fmt.Sprintf("%s %s %s: %s (%s)\n", Icon(e.Severity),
			e.MeasuredAt.Format("01-02 15:04"), name, e.Label, FormatValue(e.Value, precision)))
	}
	return strings.TrimRight(b.String(), "\n")
}

// FormatHelp lists the bot commands.
func FormatHelp() string {
	var b strings.Builder
	b.WriteString("🤖 <b>VitalSentinel commands</b>\n\n")
	b.WriteString("/summary - all watched metrics\n")
	for _, def := range metric.All() {
		cmd := string(def.ID)
		if len(def.Aliases) > 0 {
			cmd = def.Aliases[0]
		}
		b.WriteString(fmt.Sprintf("/%s [7d|30d|90d|all] - %s\n", cmd, def.Name))
	}
	b.WriteString("/alerts - recent alerts\n")
	b.WriteString("/help - this message")
	return b.String()
}
