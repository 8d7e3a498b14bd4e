package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// GatewayMetrics tracks outbound payment gateway calls.
type GatewayMetrics struct {
	requests *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewGatewayMetrics registers the gateway collectors on reg. A nil registerer yields a no-op recorder.
func NewGatewayMetrics(reg prometheus.Registerer) *GatewayMetrics {
	if reg == nil {
		return &GatewayMetrics{}
	}
	requests := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "payment_gateway",
		Name:      "requests_total",
		Help:      "Payment gateway operations by outcome.",
	}, []string{"gateway", "operation", "outcome"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: Namespace,
		Subsystem: "payment_gateway",
		Name:      "duration_seconds",
		Help:      "Latency of payment gateway operations.",
		Buckets:   []float64{0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10, 15},
	}, []string{"gateway", "operation"})
	reg.MustRegister(requests, duration)
	return &GatewayMetrics{requests: requests, duration: duration}
}

// Observe records one call. err == nil counts as "ok".
func (g *GatewayMetrics) Observe(gateway, operation string, took time.Duration, err error) {
	if g == nil || g.requests == nil {
		return
	}
	outcome := "ok"
	if err != nil {
		outcome = "error"
	}
	g.requests.WithLabelValues(normalizeLabel(gateway), normalizeLabel(operation), outcome).Inc()
	g.duration.WithLabelValues(normalizeLabel(gateway), normalizeLabel(operation)).Observe(took.Seconds())
}
