package metrics

import "github.com/prometheus/client_golang/prometheus"

// AnalyticsOutcome is what the analytics worker did with one message.
type AnalyticsOutcome string

const (
	AnalyticsHandled   AnalyticsOutcome = "handled"
	AnalyticsDuplicate AnalyticsOutcome = "duplicate"
	AnalyticsDropped   AnalyticsOutcome = "dropped"
	AnalyticsRetry     AnalyticsOutcome = "retry"
)

type AnalyticsMetrics struct {
	messages *prometheus.CounterVec
}

// NewAnalyticsMetrics registers on reg; nil gives a recorder that does nothing.
func NewAnalyticsMetrics(reg prometheus.Registerer) *AnalyticsMetrics {
	if reg == nil {
		return &AnalyticsMetrics{}
	}
	messages := prometheus.NewCounterVec(prometheus.CounterOpts{
		Namespace: Namespace,
		Subsystem: "analytics",
		Name:      "messages_total",
		Help:      "Analytics messages by event type and outcome.",
	}, []string{"event_type", "outcome"})
	reg.MustRegister(messages)
	return &AnalyticsMetrics{messages: messages}
}

func (a *AnalyticsMetrics) Record(eventType string, outcome AnalyticsOutcome) {
	if a == nil || a.messages == nil {
		return
	}
	a.messages.WithLabelValues(normalizeLabel(eventType), string(outcome)).Inc()
}
