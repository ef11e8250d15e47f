// Package metrics holds the process-wide prometheus collectors.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	HTTPRequestsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_http_requests_total",
		Help: "Total number of HTTP requests",
	}, []string{"method", "route", "status"})

	HTTPRequestDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_http_request_duration_seconds",
		Help:    "Duration of HTTP requests",
		Buckets: prometheus.DefBuckets,
	}, []string{"method", "route"})

	// ChargesTotal counts deductions by ledger reason and outcome (applied, already_settled, skipped, declined, error).
	ChargesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_charges_total",
		Help: "Charge attempts by reason and outcome",
	}, []string{"reason", "outcome"})

	CreditsCharged = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_credits_charged_total",
		Help: "Credits deducted by reason",
	}, []string{"reason"})

	CreditsGranted = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_credits_granted_total",
		Help: "Credits granted by reason",
	}, []string{"reason"})

	// ProviderAttempts counts provider calls by provider and classified result (success, retryable, fatal, cancelled).
	ProviderAttempts = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_provider_attempts_total",
		Help: "Provider call attempts by provider and result",
	}, []string{"provider", "result"})

	ProviderLatency = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "billing_provider_call_duration_seconds",
		Help:    "Duration of provider calls",
		Buckets: []float64{0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30, 60},
	}, []string{"provider"})

	JobTransitions = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_job_transitions_total",
		Help: "Job status changes by target status",
	}, []string{"status"})

	EventsProcessed = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "billing_events_total",
		Help: "Inbound events by type and result (processed, duplicate, error)",
	}, []string{"type", "result"})
)
