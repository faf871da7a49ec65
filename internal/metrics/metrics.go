package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// Submission metrics
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formsapi_submissions_total",
			Help: "Total number of form submissions received",
		},
		[]string{"status"},
	)

	// Notification dispatch metrics
	DispatchOutcomes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "formsapi_dispatch_outcomes_total",
			Help: "Terminal outcomes of notification dispatches",
		},
		[]string{"outcome"},
	)

	DispatchReadAttempts = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "formsapi_dispatch_read_attempts_total",
			Help: "Total read-back attempts performed by the dispatcher",
		},
	)

	WebhookDeliveryDuration = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "formsapi_webhook_delivery_duration_seconds",
			Help:    "Duration of outbound webhook deliveries in seconds",
			Buckets: prometheus.DefBuckets,
		},
	)
)

// Dispatch outcome label values.
const (
	OutcomeDelivered       = "delivered"
	OutcomeDisabled        = "disabled"
	OutcomeResponseMissing = "response_missing"
	OutcomeDeliveryFailed  = "delivery_failed"
	OutcomeInvalidEvent    = "invalid_event"
)
