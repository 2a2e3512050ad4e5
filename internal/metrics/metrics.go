package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/lambda-feedback/shimbridge/bridge"
)

type Config struct {
	// Enabled exposes the metrics endpoint.
	Enabled bool `conf:"enabled"`

	// Path is the path of the metrics endpoint.
	// Default is "/metrics".
	Path string `conf:"path"`
}

// Endpoint returns the configured metrics path.
func (c Config) Endpoint() string {
	if c.Path == "" {
		return "/metrics"
	}

	return c.Path
}

// Metrics holds the collectors of a shimbridge process. It implements
// bridge.Observer.
type Metrics struct {
	registry *prometheus.Registry

	callsTotal    *prometheus.CounterVec
	callDuration  prometheus.Histogram
	callsInFlight prometheus.Gauge

	httpRequests *prometheus.CounterVec
	responseTime prometheus.Histogram
}

var _ bridge.Observer = (*Metrics)(nil)

// New creates the collectors and registers them, along with the go
// and process collectors, on a dedicated registry.
func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		callsTotal: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "bridge_calls_total", Help: "bridge calls by outcome."},
			[]string{"outcome"},
		),
		callDuration: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "bridge_call_duration_seconds",
				Help:    "bridge call duration.",
				Buckets: prometheus.DefBuckets,
			},
		),
		callsInFlight: prometheus.NewGauge(
			prometheus.GaugeOpts{Name: "bridge_calls_in_flight", Help: "bridge calls not yet completed."},
		),
		httpRequests: prometheus.NewCounterVec(
			prometheus.CounterOpts{Name: "total_http_requests", Help: "http requests by code, and method"},
			[]string{"code", "method"},
		),
		responseTime: prometheus.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "response_time",
				Help:    "http response time.",
				Buckets: []float64{0.005, 0.05, 0.5, 1, 5, 10, 30, 60},
			},
		),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.callsTotal,
		m.callDuration,
		m.callsInFlight,
		m.httpRequests,
		m.responseTime,
	)

	return m
}

func (m *Metrics) CallStarted() {
	m.callsInFlight.Inc()
}

func (m *Metrics) CallFinished(outcome bridge.Outcome, duration time.Duration) {
	m.callsInFlight.Dec()
	m.callsTotal.WithLabelValues(string(outcome)).Inc()
	m.callDuration.Observe(duration.Seconds())
}

// Registry returns the registry the collectors are registered on.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the http handler serving the registry.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

// Collect produces the http middleware recording request counts and
// response times. Requests to skip are passed through unrecorded.
func (m *Metrics) Collect(skip ...string) func(next http.Handler) http.Handler {
	skipped := make(map[string]struct{}, len(skip))
	for _, p := range skip {
		skipped[p] = struct{}{}
	}

	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := skipped[r.URL.Path]; ok {
				next.ServeHTTP(w, r)
				return
			}

			ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)
			start := time.Now()

			defer func() {
				status := ww.Status()
				if status == 0 {
					status = http.StatusOK
				}

				m.httpRequests.WithLabelValues(strconv.Itoa(status), r.Method).Inc()
				m.responseTime.Observe(time.Since(start).Seconds())
			}()

			next.ServeHTTP(ww, r)
		})
	}
}
