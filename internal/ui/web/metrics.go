// internal/ui/web/metrics.go
package web

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
)

type metrics struct {
	requests  *prometheus.CounterVec
	duration  *prometheus.HistogramVec
	inflight  *prometheus.GaugeVec
	pageRuns  *prometheus.CounterVec
	throttled prometheus.Counter
	sessions  prometheus.GaugeFunc
}

func newMetrics(reg *prometheus.Registry, sessions func() float64) *metrics {
	m := &metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gallery",
			Subsystem: "http",
			Name:      "requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"path", "method", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "gallery",
			Subsystem: "http",
			Name:      "request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds",
			Buckets:   prometheus.DefBuckets,
		}, []string{"path", "method", "status"}),
		inflight: prometheus.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: "gallery",
			Subsystem: "http",
			Name:      "inflight_requests",
			Help:      "In-flight HTTP requests",
		}, []string{"path"}),
		pageRuns: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "gallery",
			Name:      "page_runs_total",
			Help:      "Page runs by page and outcome",
		}, []string{"page", "outcome"}),
		throttled: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "gallery",
			Name:      "throttled_total",
			Help:      "Page runs rejected with 429",
		}),
		sessions: prometheus.NewGaugeFunc(prometheus.GaugeOpts{
			Namespace: "gallery",
			Name:      "sessions",
			Help:      "Live sessions",
		}, sessions),
	}
	reg.MustRegister(m.requests, m.duration, m.inflight, m.pageRuns, m.throttled, m.sessions,
		collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	return m
}

// statusRecorder captures the response status. Unwrap keeps http.ResponseController able
// to reach the underlying Flusher.
type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (sr *statusRecorder) WriteHeader(code int) {
	sr.status = code
	sr.ResponseWriter.WriteHeader(code)
}

func (sr *statusRecorder) Unwrap() http.ResponseWriter {
	return sr.ResponseWriter
}

// middleware instruments requests, labelled by chi route pattern.
func (m *metrics) middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		sr := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		start := time.Now()
		// The pattern is only known once chi has routed the request.
		next.ServeHTTP(sr, r)
		path := routePatternOrPath(r)
		status := strconv.Itoa(sr.status)
		m.requests.WithLabelValues(path, r.Method, status).Inc()
		m.duration.WithLabelValues(path, r.Method, status).Observe(time.Since(start).Seconds())
	})
}

func (m *metrics) track(path string) func() {
	g := m.inflight.WithLabelValues(path)
	g.Inc()
	return g.Dec
}

func routePatternOrPath(r *http.Request) string {
	if rc := chi.RouteContext(r.Context()); rc != nil {
		if p := rc.RoutePattern(); p != "" {
			return p
		}
	}
	return r.URL.Path
}
