package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Transition results.
const (
	ResultApplied  = "applied"
	ResultNoop     = "noop"
	ResultRejected = "rejected"
	ResultError    = "error"
)

// OrderMetrics records state machine activity. A nil receiver is a no-op.
type OrderMetrics struct {
	transitions *prometheus.CounterVec
	duration    *prometheus.HistogramVec
	effects     *prometheus.CounterVec
	dispatches  *prometheus.CounterVec
}

// NewOrderMetrics registers the order metrics on the provided registerer.
func NewOrderMetrics(reg prometheus.Registerer) *OrderMetrics {
	if reg == nil {
		return &OrderMetrics{}
	}
	transitions := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_transitions_total",
		Help: "Order status transition attempts by outcome.",
	}, []string{"from", "to", "result"})
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "order_transition_duration_seconds",
		Help:    "Time spent applying an order transition including post-commit effects.",
		Buckets: prometheus.DefBuckets,
	}, []string{"to"})
	effects := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "order_side_effect_failures_total",
		Help: "Best-effort side effects that failed and were logged.",
	}, []string{"effect"})
	dispatches := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "notification_dispatch_total",
		Help: "Notification channel outcomes.",
	}, []string{"channel", "result"})
	reg.MustRegister(transitions, duration, effects, dispatches)
	return &OrderMetrics{
		transitions: transitions,
		duration:    duration,
		effects:     effects,
		dispatches:  dispatches,
	}
}

// ObserveTransition counts one transition attempt and its latency.
func (m *OrderMetrics) ObserveTransition(from, to, result string, elapsed time.Duration) {
	if m == nil || m.transitions == nil {
		return
	}
	m.transitions.WithLabelValues(normalizeLabel(from), normalizeLabel(to), normalizeLabel(result)).Inc()
	m.duration.WithLabelValues(normalizeLabel(to)).Observe(elapsed.Seconds())
}

// IncSideEffectFailure counts a swallowed side effect failure.
func (m *OrderMetrics) IncSideEffectFailure(effect string) {
	if m == nil || m.effects == nil {
		return
	}
	m.effects.WithLabelValues(normalizeLabel(effect)).Inc()
}

// IncDispatch counts one notification channel outcome.
func (m *OrderMetrics) IncDispatch(channel, result string) {
	if m == nil || m.dispatches == nil {
		return
	}
	m.dispatches.WithLabelValues(normalizeLabel(channel), normalizeLabel(result)).Inc()
}

func normalizeLabel(value string) string {
	if value == "" {
		return "unknown"
	}
	return value
}
