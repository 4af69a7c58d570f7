// Package metrics registers the engine's Prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	BookingTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolrent_booking_transitions_total",
		Help: "Booking lifecycle operations by operation and outcome",
	}, []string{"operation", "outcome"})

	RefundedAmount = promauto.NewCounter(prometheus.CounterOpts{
		Name: "toolrent_refunded_amount_total",
		Help: "Sum of refunds issued on cancellation",
	})

	PayoutAmount = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolrent_payout_amount_total",
		Help: "Sum of requested payouts by final status",
	}, []string{"status"})

	HTTPRequests = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolrent_http_requests_total",
		Help: "Total HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "toolrent_http_request_duration_seconds",
		Help:    "Request latency",
		Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
	}, []string{"method", "route"})

	JobRuns = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "toolrent_job_runs_total",
		Help: "Scheduled job executions by job and outcome",
	}, []string{"job", "outcome"})
)

// Outcome labels an operation result for BookingTransitions and JobRuns.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
