// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "Total number of HTTP requests",
		},
		[]string{"method", "route", "status"},
	)

	HTTPRequestDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "Duration of HTTP requests in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"method", "route"},
	)

	ReportDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "analytics_report_duration_seconds",
			Help:    "Time spent computing an analytics report",
			Buckets: []float64{.001, .005, .01, .05, .1, .25, .5, 1, 2.5, 5},
		},
		[]string{"report"},
	)

	ReportErrors = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "analytics_report_errors_total",
			Help: "Analytics reports that ended in an error",
		},
		[]string{"report"},
	)

	SalesRecorded = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "sales_units_recorded_total",
			Help: "Units sold through the cart endpoint",
		},
	)

	BreakerState = promauto.NewGaugeVec(
		prometheus.GaugeOpts{
			Name: "sales_breaker_state",
			Help: "Sales store circuit breaker state (0 closed, 1 half-open, 2 open)",
		},
		[]string{"name"},
	)
)

// ObserveReport records the outcome of one report computation.
func ObserveReport(report string, start time.Time, err error) {
	ReportDuration.WithLabelValues(report).Observe(time.Since(start).Seconds())
	if err != nil {
		ReportErrors.WithLabelValues(report).Inc()
	}
}
