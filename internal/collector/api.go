package collector

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"VitalSentinel/internal/metric"
	"VitalSentinel/internal/model"
)

// timeLayout is the ISO-8601 form the API expects: seconds precision, UTC, Z suffix.
const timeLayout = "2006-01-02T15:04:05Z"

// ErrIncompleteStats is returned when the stats payload lacks a current
// value for one of the metric's fields.
var ErrIncompleteStats = errors.New("stats payload has no current value")

// APIFetcher implements Fetcher against the health readings REST API.
type APIFetcher struct {
	BaseURL string
	Token   string
	Client  *http.Client
	Log     *slog.Logger
}

// NewAPIFetcher creates a new fetcher with optional proxy support.
func NewAPIFetcher(baseURL, token, proxyURL string) *APIFetcher {
	transport := &http.Transport{}
	if proxyURL != "" {
		if u, err := url.Parse(proxyURL); err == nil {
			transport.Proxy = http.ProxyURL(u)
		}
	}
	return &APIFetcher{
		BaseURL: strings.TrimRight(baseURL, "/"),
		Token:   token,
		Client: &http.Client{
			Timeout:   30 * time.Second,
			Transport: transport,
		},
		Log: slog.Default(),
	}
}

func (f *APIFetcher) Name() string { return "api" }

// wireReading is the JSON shape of one reading. Only the fields of the
// requested metric are present.
type wireReading struct {
	ID               any       `json:"id,omitempty"`
	User             *wireUser `json:"user,omitempty"`
	TemperatureValue *float64  `json:"temperatureValue,omitempty"`
	OxygenLevel      *float64  `json:"oxygenLevel,omitempty"`
	GlycogenLevel    *float64  `json:"glycogenLevel,omitempty"`
	HeartRate        *float64  `json:"heartRate,omitempty"`
	Systolic         *float64  `json:"systolic,omitempty"`
	Diastolic        *float64  `json:"diastolic,omitempty"`
	Pulse            *float64  `json:"pulse,omitempty"`
	Unit             string    `json:"unit,omitempty"`
	MeasuredAt       string    `json:"measuredAt"`
	Notes            string    `json:"notes,omitempty"`
}

type wireUser struct {
	UserID any `json:"userId"`
}

func (w *wireReading) scalar(name string) **float64 {
	switch name {
	case "temperatureValue":
		return &w.TemperatureValue
	case "oxygenLevel":
		return &w.OxygenLevel
	case "glycogenLevel":
		return &w.GlycogenLevel
	case "heartRate":
		return &w.HeartRate
	}
	return nil
}

// orNaN maps a missing number to NaN so it propagates through the statistics.
func orNaN(p *float64) float64 {
	if p == nil {
		return math.NaN()
	}
	return *p
}

func ptr(v float64) *float64 { return &v }

func parseTime(s string) (time.Time, error) {
	for _, layout := range []string{time.RFC3339Nano, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if t, err := time.Parse(layout, s); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unrecognized measuredAt %q", s)
}

func (w *wireReading) toModel(def *metric.Definition) (model.Reading, error) {
	at, err := parseTime(w.MeasuredAt)
	if err != nil {
		return model.Reading{}, err
	}
	r := model.Reading{
		MeasuredAt: at,
		Unit:       w.Unit,
		Notes:      w.Notes,
		Value:      math.NaN(),
		Systolic:   math.NaN(),
		Diastolic:  math.NaN(),
		Pulse:      math.NaN(),
	}
	if w.ID != nil {
		r.ID = fmt.Sprint(w.ID)
	}
	if def.Scalar() {
		if p := w.scalar(def.WireField); p != nil {
			r.Value = orNaN(*p)
		}
		return r, nil
	}
	r.Systolic = orNaN(w.Systolic)
	r.Diastolic = orNaN(w.Diastolic)
	r.Pulse = orNaN(w.Pulse)
	return r, nil
}

func fromModel(def *metric.Definition, userID string, r model.Reading) wireReading {
	w := wireReading{
		User:       &wireUser{UserID: userID},
		Unit:       r.Unit,
		MeasuredAt: r.MeasuredAt.UTC().Format(timeLayout),
		Notes:      r.Notes,
	}
	if n, err := strconv.Atoi(userID); err == nil {
		w.User.UserID = n
	}
	if w.Unit == "" {
		w.Unit = def.Unit
	}
	if def.Scalar() {
		if p := w.scalar(def.WireField); p != nil {
			*p = ptr(r.Value)
		}
		return w
	}
	w.Systolic = ptr(r.Systolic)
	w.Diastolic = ptr(r.Diastolic)
	w.Pulse = ptr(r.Pulse)
	return w
}

func (f *APIFetcher) FetchReadings(ctx context.Context, userID string, def *metric.Definition) ([]model.Reading, error) {
	endpoint := fmt.Sprintf("%s/api/%s/user/%s", f.BaseURL, def.Path, url.PathEscape(userID))
	return f.fetchReadings(ctx, userID, def, endpoint)
}

func (f *APIFetcher) FetchRange(ctx context.Context, userID string, def *metric.Definition, start, end time.Time) ([]model.Reading, error) {
	q := url.Values{}
	q.Set("start", start.UTC().Format(timeLayout))
	q.Set("end", end.UTC().Format(timeLayout))
	endpoint := fmt.Sprintf("%s/api/%s/user/%s/range?%s", f.BaseURL, def.Path, url.PathEscape(userID), q.Encode())
	return f.fetchReadings(ctx, userID, def, endpoint)
}

// FetchStats reads the server-side summary. Scalar metrics answer
// {current, average, min, max, trend}; blood pressure suffixes the field:
// {currentSystolic, averageDiastolic, ..., trend}. A missing number is NaN;
// a missing current value fails with ErrIncompleteStats.
func (f *APIFetcher) FetchStats(ctx context.Context, userID string, def *metric.Definition) (map[string]model.StatsSummary, error) {
	endpoint := fmt.Sprintf("%s/api/%s/user/%s/stats", f.BaseURL, def.Path, url.PathEscape(userID))
	body, err := f.do(ctx, http.MethodGet, endpoint, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch stats: %w", err)
	}
	var raw map[string]any
	if err := json.Unmarshal(body, &raw); err != nil {
		return nil, fmt.Errorf("decode stats: %w", err)
	}

	num := func(key string) float64 {
		if v, ok := raw[key].(float64); ok {
			return v
		}
		return math.NaN()
	}
	trend, _ := raw["trend"].(string)

	out := make(map[string]model.StatsSummary, len(def.Fields))
	for _, fl := range def.Fields {
		suffix := ""
		if !def.Scalar() {
			suffix = strings.ToUpper(fl.Name[:1]) + fl.Name[1:]
		}
		if _, ok := raw["current"+suffix].(float64); !ok {
			return nil, fmt.Errorf("%s: %w", fl.Name, ErrIncompleteStats)
		}
		out[fl.Name] = model.StatsSummary{
			Current: num("current" + suffix),
			Average: num("average" + suffix),
			Min:     num("min" + suffix),
			Max:     num("max" + suffix),
			Trend:   model.ParseTrend(trend),
		}
	}
	return out, nil
}

func (f *APIFetcher) AddReading(ctx context.Context, userID string, def *metric.Definition, r model.Reading) (model.Reading, error) {
	endpoint := fmt.Sprintf("%s/api/%s/add", f.BaseURL, def.Path)
	payload, err := json.Marshal(fromModel(def, userID, r))
	if err != nil {
		return model.Reading{}, fmt.Errorf("marshal reading: %w", err)
	}
	body, err := f.do(ctx, http.MethodPost, endpoint, userID, payload)
	if err != nil {
		return model.Reading{}, fmt.Errorf("add reading: %w", err)
	}
	var saved wireReading
	if err := json.Unmarshal(body, &saved); err != nil {
		// Some deployments answer with an empty body; echo the input back.
		return r, nil
	}
	out, err := saved.toModel(def)
	if err != nil {
		return r, nil
	}
	return out, nil
}

func (f *APIFetcher) fetchReadings(ctx context.Context, userID string, def *metric.Definition, endpoint string) ([]model.Reading, error) {
	body, err := f.do(ctx, http.MethodGet, endpoint, userID, nil)
	if err != nil {
		return nil, fmt.Errorf("fetch readings: %w", err)
	}
	var items []wireReading
	if err := json.Unmarshal(body, &items); err != nil {
		return nil, fmt.Errorf("decode readings: %w", err)
	}
	// Order is kept as the API sent it; current depends on it.
	readings := make([]model.Reading, 0, len(items))
	for i := range items {
		r, err := items[i].toModel(def)
		if err != nil {
			f.Log.Warn("dropping reading", "metric", def.ID, "user", userID, "id", items[i].ID, "err", err)
			continue
		}
		readings = append(readings, r)
	}
	return readings, nil
}

func (f *APIFetcher) do(ctx context.Context, method, endpoint, userID string, payload []byte) ([]byte, error) {
	var reqBody io.Reader
	if payload != nil {
		reqBody = bytes.NewReader(payload)
	}
	req, err := http.NewRequestWithContext(ctx, method, endpoint, reqBody)
	if err != nil {
		return nil, err
	}
	req.Header.Set("UserId", userID)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if f.Token != "" {
		req.Header.Set("Authorization", "Bearer "+f.Token)
	}
	resp, err := f.Client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, &StatusError{Code: resp.StatusCode, Body: string(body)}
	}
	return body, nil
}
