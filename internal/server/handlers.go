package server

import (
	"encoding/json"
	"errors"
	"math"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/gorilla/mux"

	"VitalSentinel/internal/calculator"
	"VitalSentinel/internal/classifier"
	"VitalSentinel/internal/collector"
	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

// statusFor maps domain errors onto HTTP status codes.
func statusFor(err error) int {
	var se *collector.StatusError
	switch {
	case errors.Is(err, metric.ErrUnknownMetric):
		return http.StatusNotFound
	case errors.Is(err, model.ErrUnknownRange), errors.Is(err, metric.ErrOutOfRange):
		return http.StatusBadRequest
	case errors.Is(err, collector.ErrNoUser):
		return http.StatusUnauthorized
	case errors.As(err, &se) && se.Code == http.StatusNotFound:
		return http.StatusNotFound
	default:
		return http.StatusBadGateway
	}
}

func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error) {
	status := statusFor(err)
	if status >= 500 {
		s.Log.Error("request failed", "path", r.URL.Path, "status", status, "err", err)
	}
	writeError(w, status, err.Error())
}

// userID reads the UserId header, then the user query parameter, then the
// configured default.
func (s *Server) userID(r *http.Request) string {
	if v := strings.TrimSpace(r.Header.Get("UserId")); v != "" {
		return v
	}
	if v := strings.TrimSpace(r.URL.Query().Get("user")); v != "" {
		return v
	}
	return s.DefaultUser
}

func (s *Server) timeRange(r *http.Request) (model.TimeRange, error) {
	q := r.URL.Query().Get("range")
	if q == "" {
		return s.DefaultRange, nil
	}
	return model.ParseTimeRange(q)
}

func (s *Server) healthHandler(w http.ResponseWriter, _ *http.Request) {
	writeJSON(w, http.StatusOK, map[string]string{"status": "ok", "fetcher": s.Collector.Fetcher.Name()})
}

func (s *Server) metricsHandler(w http.ResponseWriter, _ *http.Request) {
	defs := metric.All()
	out := make([]metricView, len(defs))
	for i, def := range defs {
		out[i] = toMetricView(def)
	}
	writeJSON(w, http.StatusOK, out)
}

func (s *Server) dashboardHandler(w http.ResponseWriter, r *http.Request) {
	rng, err := s.timeRange(r)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	reports, err := s.Collector.Overview(r.Context(), s.userID(r), rng)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	out := make([]reportView, 0, len(reports))
	for _, rep := range reports {
		out = append(out, toReportView(metric.Lookup(rep.Metric), rep))
	}
	writeJSON(w, http.StatusOK, out)
}

// collect resolves the {metric} route variable and range, then builds the report.
func (s *Server) collect(w http.ResponseWriter, r *http.Request) (*metric.Definition, *collector.Report, bool) {
	def, err := metric.Parse(mux.Vars(r)["metric"])
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	rng, err := s.timeRange(r)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	rep, err := s.Collector.Collect(r.Context(), s.userID(r), def, rng)
	if err != nil {
		s.fail(w, r, err)
		return nil, nil, false
	}
	return def, rep, true
}

func (s *Server) reportHandler(w http.ResponseWriter, r *http.Request) {
	def, rep, ok := s.collect(w, r)
	if !ok {
		return
	}
	writeJSON(w, http.StatusOK, toReportView(def, rep))
}

func (s *Server) seriesHandler(w http.ResponseWriter, r *http.Request) {
	def, rep, ok := s.collect(w, r)
	if !ok {
		return
	}
	field := def.Fields[0]
	if name := r.URL.Query().Get("field"); name != "" {
		f, found := def.Field(name)
		if !found {
			writeError(w, http.StatusBadRequest, "unknown field "+strconv.Quote(name))
			return
		}
		field = f
	}
	points := []pointView{}
	for p := range calculator.FormatSeries(rep.Readings, field) {
		points = append(points, pointView{Date: p.Date, Value: num(p.Value)})
	}
	writeJSON(w, http.StatusOK, points)
}

// classifyHandler classifies a hypothetical value without storing anything.
func (s *Server) classifyHandler(w http.ResponseWriter, r *http.Request) {
	def, err := metric.Parse(mux.Vars(r)["metric"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	q := r.URL.Query()
	c := def.Classify[0]
	if name := q.Get("classifier"); name != "" {
		var found bool
		if c, found = def.Classifier(name); !found {
			writeError(w, http.StatusBadRequest, "unknown classifier "+strconv.Quote(name))
			return
		}
	}
	value, err := strconv.ParseFloat(q.Get("value"), 64)
	if err != nil {
		writeError(w, http.StatusBadRequest, "value must be a number")
		return
	}
	sample := model.Sample{Primary: value}
	if c.Paired {
		if sample.Secondary, err = strconv.ParseFloat(q.Get("secondary"), 64); err != nil {
			writeError(w, http.StatusBadRequest, "secondary must be a number")
			return
		}
	}
	writeJSON(w, http.StatusOK, map[string]any{
		"metric":     def.ID,
		"classifier": c.Name,
		"status":     classifier.Classify(sample, c.Bands),
	})
}

type submitRequest struct {
	Value      *float64 `json:"value"`
	Systolic   *float64 `json:"systolic"`
	Diastolic  *float64 `json:"diastolic"`
	Pulse      *float64 `json:"pulse"`
	Unit       string   `json:"unit"`
	MeasuredAt string   `json:"measured_at"`
	Notes      string   `json:"notes"`
}

func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func (s *Server) submitHandler(w http.ResponseWriter, r *http.Request) {
	def, err := metric.Parse(mux.Vars(r)["metric"])
	if err != nil {
		s.fail(w, r, err)
		return
	}
	var req submitRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	reading := model.Reading{
		Value:     orNaN(req.Value),
		Systolic:  orNaN(req.Systolic),
		Diastolic: orNaN(req.Diastolic),
		Pulse:     orNaN(req.Pulse),
		Unit:      req.Unit,
		Notes:     req.Notes,
	}
	if req.MeasuredAt != "" {
		t, err := time.Parse(time.RFC3339, req.MeasuredAt)
		if err != nil {
			writeError(w, http.StatusBadRequest, "measured_at must be RFC 3339")
			return
		}
		reading.MeasuredAt = t
	}

	saved, err := s.Collector.Submit(r.Context(), s.userID(r), def, reading)
	if err != nil {
		s.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, toReadingView(def, saved))
}

func (s *Server) alertsHandler(w http.ResponseWriter, r *http.Request) {
	limit := 20
	if v := r.URL.Query().Get("limit"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil || n <= 0 || n > 500 {
			writeError(w, http.StatusBadRequest, "limit must be between 1 and 500")
			return
		}
		limit = n
	}
	events, err := s.Recorder.RecentEvents(limit)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	out := make([]alertView, len(events))
	for i, e := range events {
		out[i] = toAlertView(e)
	}
	writeJSON(w, http.StatusOK, out)
}
