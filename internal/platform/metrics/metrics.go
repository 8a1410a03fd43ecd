// Package metrics owns the Prometheus registry for the server: HTTP request
// metrics, rule-engine outcomes and registration results.
package metrics

import (
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	emw "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/bloodlink/bloodlink/internal/domain/screening"
)

const namespace = "bloodlink"

// Metrics holds every collector the server exports. Each instance has its
// own registry so tests can create as many as they need.
type Metrics struct {
	registry *prometheus.Registry

	HTTPRequests        *prometheus.CounterVec
	HTTPDuration        *prometheus.HistogramVec
	HTTPActive          prometheus.Gauge
	ScreeningEvaluation *prometheus.CounterVec
	Disqualifications   *prometheus.CounterVec
	Registrations       *prometheus.CounterVec
	CodecFallbacks      *prometheus.CounterVec
	DBPoolConns         *prometheus.GaugeVec
}

// New creates and registers all metrics on a fresh registry, together with
// the Go runtime and process collectors.
func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	f := promauto.With(reg)

	return &Metrics{
		registry: reg,
		HTTPRequests: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		HTTPDuration: f.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests in seconds.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		HTTPActive: f.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "http_active_requests",
			Help:      "Number of requests currently being served.",
		}),
		ScreeningEvaluation: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screening_evaluations_total",
			Help:      "Health and unit screenings by kind and outcome.",
		}, []string{"kind", "outcome"}),
		Disqualifications: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "screening_disqualifications_total",
			Help:      "Disqualifying reasons by reason code.",
		}, []string{"code"}),
		Registrations: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "registrations_total",
			Help:      "Donation registration attempts by outcome.",
		}, []string{"outcome"}),
		CodecFallbacks: f.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "codec_fallbacks_total",
			Help:      "Unmapped blood type or component codes replaced by a default id.",
		}, []string{"kind"}),
		DBPoolConns: f.NewGaugeVec(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "db_pool_connections",
			Help:      "Database pool connections by state.",
		}, []string{"state"}),
	}
}

// Registry exposes the underlying registry, mostly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// ObserveScreening implements screening.Recorder.
func (m *Metrics) ObserveScreening(kind string, r screening.Result) {
	outcome := "qualified"
	if !r.Qualified {
		outcome = "disqualified"
	}
	m.ScreeningEvaluation.WithLabelValues(kind, outcome).Inc()
	for _, reason := range r.Reasons {
		m.Disqualifications.WithLabelValues(reason.Code).Inc()
	}
}

// ObserveRegistration counts a registration attempt; outcome is "created"
// or the rejection cause.
func (m *Metrics) ObserveRegistration(outcome string) {
	m.Registrations.WithLabelValues(outcome).Inc()
}

// CodecFallback is installed as the blood-type codec fallback observer.
func (m *Metrics) CodecFallback(kind string) {
	m.CodecFallbacks.WithLabelValues(kind).Inc()
}

// SetDBPool records the pool's acquired and idle connection counts.
func (m *Metrics) SetDBPool(acquired, idle int32) {
	m.DBPoolConns.WithLabelValues("acquired").Set(float64(acquired))
	m.DBPoolConns.WithLabelValues("idle").Set(float64(idle))
}

// Middleware records request count and latency by route pattern. Requests
// for which skipper returns true are not recorded.
func (m *Metrics) Middleware(skipper emw.Skipper) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if skipper != nil && skipper(c) {
				return next(c)
			}

			m.HTTPActive.Inc()
			start := time.Now()

			err := next(c)

			m.HTTPActive.Dec()

			status := c.Response().Status
			if he, ok := err.(*echo.HTTPError); ok {
				status = he.Code
			}
			// route pattern, not the raw path, to bound label cardinality
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method

			m.HTTPRequests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.HTTPDuration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() echo.HandlerFunc {
	return echo.WrapHandler(promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{}))
}
