// Package server exposes the metric reports over HTTP: a JSON API for the
// dashboard and rendered chart pages.
package server

import (
	"io"
	"log/slog"
	"net/http"

	"github.com/gorilla/handlers"
	"github.com/gorilla/mux"

	"VitalSentinel/internal/collector"
	"VitalSentinel/internal/model"
	"VitalSentinel/internal/recorder"
)

// Server holds the dependencies of the HTTP handlers.
type Server struct {
	Collector    *collector.Collector
	Recorder     recorder.Recorder
	DefaultUser  string
	DefaultRange model.TimeRange
	CORSOrigins  []string
	Log          *slog.Logger
}

// New creates a Server. rec may be nil when alert history is not kept.
func New(col *collector.Collector, rec recorder.Recorder, defaultUser string, log *slog.Logger) *Server {
	if rec == nil {
		rec = recorder.NewNoopRecorder()
	}
	if log == nil {
		log = slog.Default()
	}
	return &Server{
		Collector:    col,
		Recorder:     rec,
		DefaultUser:  defaultUser,
		DefaultRange: model.DefaultRange,
		Log:          log,
	}
}

// Router registers every route.
func (s *Server) Router() *mux.Router {
	r := mux.NewRouter()

	r.HandleFunc("/", s.indexHandler).Methods(http.MethodGet)
	r.HandleFunc("/health", s.healthHandler).Methods(http.MethodGet)
	r.HandleFunc("/charts/{metric}", s.chartHandler).Methods(http.MethodGet)

	api := r.PathPrefix("/api").Subrouter()
	api.HandleFunc("/metrics", s.metricsHandler).Methods(http.MethodGet)
	api.HandleFunc("/dashboard", s.dashboardHandler).Methods(http.MethodGet)
	api.HandleFunc("/alerts", s.alertsHandler).Methods(http.MethodGet)
	api.HandleFunc("/metrics/{metric}/report", s.reportHandler).Methods(http.MethodGet)
	api.HandleFunc("/metrics/{metric}/series", s.seriesHandler).Methods(http.MethodGet)
	api.HandleFunc("/metrics/{metric}/classify", s.classifyHandler).Methods(http.MethodGet)
	api.HandleFunc("/metrics/{metric}/readings", s.submitHandler).Methods(http.MethodPost)

	return r
}

// Handler wraps the router with access logging, panic recovery and, when
// origins are configured, CORS.
func (s *Server) Handler(accessLog io.Writer) http.Handler {
	var h http.Handler = s.Router()
	if len(s.CORSOrigins) > 0 {
		h = handlers.CORS(
			handlers.AllowedOrigins(s.CORSOrigins),
			handlers.AllowedMethods([]string{http.MethodGet, http.MethodPost, http.MethodOptions}),
			handlers.AllowedHeaders([]string{"Content-Type", "UserId"}),
		)(h)
	}
	h = handlers.RecoveryHandler(
		handlers.RecoveryLogger(slog.NewLogLogger(s.Log.Handler(), slog.LevelError)),
	)(h)
	return handlers.CombinedLoggingHandler(accessLog, h)
}
