package metrics

import "github.com/prometheus/client_golang/prometheus"

// OutboxMetrics records publisher outcomes per topic.
type OutboxMetrics struct {
	published *prometheus.CounterVec
}

// NewOutboxMetrics registers the outbox publisher metrics.
func NewOutboxMetrics(reg prometheus.Registerer) *OutboxMetrics {
	if reg == nil {
		return &OutboxMetrics{}
	}
	published := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "outbox_publish_total",
		Help: "Outbox publish attempts by topic and outcome.",
	}, []string{"topic", "result"})
	reg.MustRegister(published)
	return &OutboxMetrics{published: published}
}

// IncPublish counts one publish outcome: published, retry, deferred or dead_letter.
func (m *OutboxMetrics) IncPublish(topic, result string) {
	if m == nil || m.published == nil {
		return
	}
	m.published.WithLabelValues(normalizeLabel(topic), normalizeLabel(result)).Inc()
}
