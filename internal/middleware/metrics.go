package middleware

import (
	"net/http"
	"strconv"
	"time"

	"github.com/mlorentedev/doctran/internal/metrics"
)

// metricRoutes are the paths recorded verbatim; anything else is counted
// under "other" so unknown paths cannot add series.
var metricRoutes = map[string]bool{
	"/api/translate":       true,
	"/translate":           true,
	"/api/process-file":    true,
	"/process-file":        true,
	"/api/translate-file":  true,
	"/api/translate-deepl": true,
	"/api/analyze-design":  true,
	"/api/health":          true,
	"/api/providers":       true,
	"/api/languages":       true,
	"/metrics":             true,
}

var metricMethods = map[string]bool{
	http.MethodGet:     true,
	http.MethodHead:    true,
	http.MethodPost:    true,
	http.MethodPut:     true,
	http.MethodPatch:   true,
	http.MethodDelete:  true,
	http.MethodOptions: true,
}

// Metrics records request count and latency by method, route and status.
func Metrics(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		sw := &statusWriter{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(sw, r)

		method, route, status := routeLabels(r, sw.status)
		metrics.RequestsTotal.WithLabelValues(method, route, status).Inc()
		metrics.RequestDuration.WithLabelValues(method, route, status).Observe(time.Since(start).Seconds())
	})
}

func routeLabels(r *http.Request, status int) (string, string, string) {
	method := r.Method
	if !metricMethods[method] {
		method = "OTHER"
	}
	route := r.URL.Path
	if !metricRoutes[route] {
		route = "other"
	}
	return method, route, strconv.Itoa(status)
}
