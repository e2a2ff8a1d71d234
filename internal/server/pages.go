package server

import (
	"fmt"
	"net/http"
	"net/url"

	"github.com/a-h/templ"

	"VitalSentinel/internal/metric"
)

var pageRanges = []string{"7d", "30d", "90d", "all"}

func chartURL(id metric.ID, rng string) templ.SafeURL {
	return templ.URL(fmt.Sprintf("/charts/%s?range=%s", id, url.QueryEscape(rng)))
}

func reportURL(id metric.ID) templ.SafeURL {
	return templ.URL(fmt.Sprintf("/api/metrics/%s/report", id))
}

func (s *Server) indexHandler(w http.ResponseWriter, r *http.Request) {
	templ.Handler(indexPage(metric.All(), pageRanges)).ServeHTTP(w, r)
}
