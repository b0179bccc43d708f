package telemetry

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
)

var (
	httpReqs = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total HTTP requests",
		},
		[]string{"route", "method", "status"},
	)
	httpDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request duration in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"route", "method"},
	)

	resolutions = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "endpoint_resolutions_total",
			Help: "Endpoint resolutions by service and outcome",
		},
		[]string{"service", "outcome"},
	)
	resolutionDur = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "endpoint_resolution_duration_seconds",
			Help:    "Rule evaluation duration in seconds",
			Buckets: []float64{.00005, .0001, .00025, .0005, .001, .0025, .005, .01},
		},
		[]string{"service"},
	)

	SnapshotRulesets = prometheus.NewGauge(prometheus.GaugeOpts{
		Name: "snapshot_rulesets",
		Help: "Number of rulesets currently in the in-memory snapshot",
	})
)

// Resolution outcome labels.
const (
	OutcomeEndpoint = "endpoint"
	OutcomeRuleErr  = "rule_error"
	OutcomeNoMatch  = "no_match"
	OutcomeDefect   = "defect"
)

func Init() {
	prometheus.MustRegister(httpReqs, httpDur, resolutions, resolutionDur, SnapshotRulesets)
}

// ObserveResolution records one resolution attempt.
func ObserveResolution(service, outcome string, dur time.Duration) {
	resolutions.WithLabelValues(service, outcome).Inc()
	resolutionDur.WithLabelValues(service).Observe(dur.Seconds())
}

func Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		// get route pattern if available
		route := r.URL.Path
		if rc := chi.RouteContext(r.Context()); rc != nil && rc.RoutePattern() != "" {
			route = rc.RoutePattern()
		}

		start := time.Now()
		ww := &statusWriter{ResponseWriter: w, status: 200}
		next.ServeHTTP(ww, r)

		httpReqs.WithLabelValues(route, r.Method, http.StatusText(ww.status)).Inc()
		httpDur.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}

type statusWriter struct {
	http.ResponseWriter
	status int
}

func (w *statusWriter) WriteHeader(code int) {
	w.status = code
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Flush() {
	if f, ok := w.ResponseWriter.(http.Flusher); ok {
		f.Flush()
	}
}
