package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics counts outbox publish outcomes per event type.
type OutboxMetrics struct {
	events *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox collectors on reg. A nil registerer yields a no-op recorder.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	events := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "outbox",
		Name:      "events_total",
		Help:      "Outbox events by publish outcome (published, retry, dead_lettered).",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(events)
	return &OutboxMetrics{events: events}
}

func (o *OutboxMetrics) Published(eventType string)    { o.inc(eventType, "published") }
func (o *OutboxMetrics) Retried(eventType string)      { o.inc(eventType, "retry") }
func (o *OutboxMetrics) DeadLettered(eventType string) { o.inc(eventType, "dead_lettered") }

func (o *OutboxMetrics) inc(eventType, outcome string) {
	if o == nil || o.events == nil {
		return
	}
	o.events.WithLabelValues(normalizeLabel(eventType), outcome).Inc()
}
