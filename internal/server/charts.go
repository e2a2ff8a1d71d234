package server

import (
	"bytes"
	"fmt"
	"math"
	"net/http"

	"github.com/a-h/templ"
	"github.com/go-echarts/go-echarts/v2/charts"
	"github.com/go-echarts/go-echarts/v2/opts"

	"VitalSentinel/internal/collector"
	"VitalSentinel/internal/metric"
)

// buildLineChart plots every field of a report against its measurement time.
func buildLineChart(def *metric.Definition, rep *collector.Report) *charts.Line {
	line := charts.NewLine()

	line.SetGlobalOptions(
		charts.WithInitializationOpts(opts.Initialization{Theme: "macarons", PageTitle: def.Name}),
		charts.WithTitleOpts(opts.Title{
			Title:    def.Name,
			Subtitle: fmt.Sprintf("%s | %d readings | %s", rep.Range, len(rep.Readings), rep.Source),
		}),
		charts.WithXAxisOpts(opts.XAxis{
			AxisLabel: &opts.AxisLabel{
				Rotate: 45,
			},
		}),
		charts.WithYAxisOpts(opts.YAxis{
			Name:  def.Unit,
			Scale: opts.Bool(true),
		}),
		charts.WithTooltipOpts(opts.Tooltip{
			Show:    opts.Bool(true),
			Trigger: "axis",
		}),
		charts.WithLegendOpts(opts.Legend{Show: opts.Bool(true)}),
	)

	// All fields share the readings, so the first series gives the x axis.
	var xAxis []string
	for _, p := range rep.Series[def.Fields[0].Name] {
		xAxis = append(xAxis, p.Date.Format("2006-01-02 15:04"))
	}
	line.SetXAxis(xAxis)

	for _, f := range def.Fields {
		line.AddSeries(f.Name, generateLineItems(rep, f.Name))
	}

	line.SetSeriesOptions(charts.WithLineChartOpts(opts.LineChart{Smooth: opts.Bool(true)}))

	return line
}

// generateLineItems converts a series to LineData; "-" leaves a gap for missing values.
func generateLineItems(rep *collector.Report, field string) []opts.LineData {
	items := make([]opts.LineData, 0, len(rep.Series[field]))
	for _, p := range rep.Series[field] {
		if math.IsNaN(p.Value) || math.IsInf(p.Value, 0) {
			items = append(items, opts.LineData{Value: "-"})
			continue
		}
		items = append(items, opts.LineData{Value: p.Value})
	}
	return items
}

func (s *Server) chartHandler(w http.ResponseWriter, r *http.Request) {
	def, rep, ok := s.collect(w, r)
	if !ok {
		return
	}

	var buf bytes.Buffer
	if err := buildLineChart(def, rep).Render(&buf); err != nil {
		s.Log.Error("render chart failed", "metric", def.ID, "err", err)
		http.Error(w, "Failed to render chart", http.StatusInternalServerError)
		return
	}
	templ.Handler(templ.Raw(buf.String())).ServeHTTP(w, r)
}
