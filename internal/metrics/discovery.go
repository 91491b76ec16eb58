package metrics

import (
	"sync"

	"github.com/prometheus/client_golang/prometheus"
)

// Discovery client metrics.
var (
	DiscoveryRequestsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "discovery_requests_total",
			Help:      "Total number of requests to the search service",
		},
		[]string{"operation", "status"}, // status: "success" / "error"
	)

	DiscoveryRequestDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "discovery_request_duration_seconds",
			Help:      "Search service request duration in seconds",
			Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 30},
		},
		[]string{"operation"},
	)
)

// Feedback store metrics.
var (
	FeedbackTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_total",
			Help:      "Feedback submissions by outcome",
		},
		[]string{"subject", "outcome"},
	)

	FeedbackEvictionsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "feedback_evictions_total",
			Help:      "Training queries evicted to stay within capacity",
		},
		[]string{"subject"},
	)
)

var registerOnce sync.Once

// RegisterDomainMetrics registers search service and feedback metrics on the
// default registry. Safe to call more than once.
func RegisterDomainMetrics() {
	registerOnce.Do(func() {
		prometheus.MustRegister(
			DiscoveryRequestsTotal,
			DiscoveryRequestDuration,
			FeedbackTotal,
			FeedbackEvictionsTotal,
		)
	})
}
