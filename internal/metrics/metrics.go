// Package metrics owns the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics groups the service collectors. Build one per registry.
type Metrics struct {
	requests      *prometheus.CounterVec
	duration      *prometheus.HistogramVec
	generations   *prometheus.CounterVec
	verifications *prometheus.CounterVec
}

// New registers all collectors on reg.
func New(reg prometheus.Registerer) *Metrics {
	f := promauto.With(reg)
	return &Metrics{
		requests: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skinadmin_http_requests_total",
			Help: "HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: f.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "skinadmin_http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"method", "route"}),
		generations: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skinadmin_routine_generations_total",
			Help: "Routine generation attempts by outcome (success, cache_hit or an error kind).",
		}, []string{"outcome"}),
		verifications: f.NewCounterVec(prometheus.CounterOpts{
			Name: "skinadmin_scan_verifications_total",
			Help: "Committed scan reviews by resulting admin status.",
		}, []string{"status"}),
	}
}

// Middleware records request count and latency per matched route.
func (m *Metrics) Middleware() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			start := time.Now()
			err := next(c)

			status := c.Response().Status
			if err != nil {
				status = http.StatusInternalServerError
				if he, ok := err.(*echo.HTTPError); ok {
					status = he.Code
				}
			}
			route := c.Path()
			if route == "" {
				route = "unmatched"
			}
			method := c.Request().Method
			m.requests.WithLabelValues(method, route, strconv.Itoa(status)).Inc()
			m.duration.WithLabelValues(method, route).Observe(time.Since(start).Seconds())
			return err
		}
	}
}

// RoutineGenerated counts one generation outcome. Safe on a nil receiver.
func (m *Metrics) RoutineGenerated(outcome string) {
	if m == nil {
		return
	}
	m.generations.WithLabelValues(outcome).Inc()
}

// ScanReviewed counts one committed review. Safe on a nil receiver.
func (m *Metrics) ScanReviewed(status string) {
	if m == nil {
		return
	}
	m.verifications.WithLabelValues(status).Inc()
}
