// Package monitoring provides Prometheus metrics and OpenTelemetry tracing.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Metrics holds the service's Prometheus collectors.
type Metrics struct {
	RequestDuration *prometheus.HistogramVec

	RateLimitDecisions *prometheus.CounterVec
	RateLimitFallbacks prometheus.Counter

	SecurityEvents *prometheus.CounterVec
	BlockedIPs     prometheus.Counter

	NotificationsEnqueued  *prometheus.CounterVec
	NotificationsDelivered *prometheus.CounterVec
	NotificationsFailed    *prometheus.CounterVec
	QueueBatchSize         prometheus.Histogram

	FlagEvaluations *prometheus.CounterVec
}

// NewMetrics registers and returns the service collectors.
func NewMetrics() *Metrics {
	return &Metrics{
		RequestDuration: promauto.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "guard",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency by route and status.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"route", "method", "status"}),

		RateLimitDecisions: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guard",
			Name:      "rate_limit_decisions_total",
			Help:      "Rate limit evaluations by outcome.",
		}, []string{"outcome"}),

		RateLimitFallbacks: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "guard",
			Name:      "rate_limit_fallbacks_total",
			Help:      "Evaluations served by the local fallback because the shared counter was unreachable.",
		}),

		SecurityEvents: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guard",
			Name:      "security_events_total",
			Help:      "Classified security events by type and severity.",
		}, []string{"event_type", "severity"}),

		BlockedIPs: promauto.NewCounter(prometheus.CounterOpts{
			Namespace: "guard",
			Name:      "blocked_ips_total",
			Help:      "IPs added to the block set.",
		}),

		NotificationsEnqueued: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guard",
			Name:      "notifications_enqueued_total",
			Help:      "Queue entries created by channel.",
		}, []string{"channel"}),

		NotificationsDelivered: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guard",
			Name:      "notifications_delivered_total",
			Help:      "Queue entries delivered by channel.",
		}, []string{"channel"}),

		NotificationsFailed: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guard",
			Name:      "notifications_failed_total",
			Help:      "Delivery attempts that failed, by channel and disposition.",
		}, []string{"channel", "disposition"}),

		QueueBatchSize: promauto.NewHistogram(prometheus.HistogramOpts{
			Namespace: "guard",
			Name:      "notification_queue_batch_size",
			Help:      "Entries claimed per queue poll.",
			Buckets:   []float64{0, 1, 5, 10, 25, 50},
		}),

		FlagEvaluations: promauto.NewCounterVec(prometheus.CounterOpts{
			Namespace: "guard",
			Name:      "feature_flag_evaluations_total",
			Help:      "Feature flag evaluations by result.",
		}, []string{"result"}),
	}
}

// ObserveRequest records one HTTP request observation.
func (m *Metrics) ObserveRequest(route, method, status string, elapsed time.Duration) {
	m.RequestDuration.WithLabelValues(route, method, status).Observe(elapsed.Seconds())
}
