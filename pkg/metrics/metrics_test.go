package metrics

import (
	"fmt"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	dto "github.com/prometheus/client_model/go"
)

func TestOrderMetricsExportsCountersAndHistogram(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOrderMetrics(reg)
	metrics.ObserveTransition("ready", "delivered", ResultApplied, 120*time.Millisecond)
	metrics.ObserveTransition("delivered", "preparing", ResultRejected, time.Millisecond)
	metrics.IncSideEffectFailure("loyalty_revert")
	metrics.IncSideEffectFailure("")
	metrics.IncDispatch("whatsapp", "failed")

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}

	if got, err := fetchCounterValue(mfs, "order_side_effect_failures_total", "effect", "loyalty_revert"); err != nil {
		t.Fatalf("fetch effect failures: %v", err)
	} else if got != 1 {
		t.Fatalf("expected loyalty_revert=1, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "order_side_effect_failures_total", "effect", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected empty effect label to normalize to unknown, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "order_transitions_total", "result", ResultRejected); err != nil || got != 1 {
		t.Fatalf("expected one rejected transition, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "order_transition_duration_seconds", "to", "delivered"); err != nil {
		t.Fatalf("fetch duration: %v", err)
	} else if got <= 0 {
		t.Fatalf("expected duration sum > 0, got %f", got)
	}
	if got, err := fetchCounterValue(mfs, "notification_dispatch_total", "channel", "whatsapp"); err != nil || got != 1 {
		t.Fatalf("expected whatsapp dispatch count 1, got %f (%v)", got, err)
	}
}

func TestOutboxMetricsCountsByTopic(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewOutboxMetrics(reg)
	metrics.IncPublish("refunds", "published")
	metrics.IncPublish("refunds", "published")

	if got := testutil.ToFloat64(metrics.published.WithLabelValues("refunds", "published")); got != 2 {
		t.Fatalf("expected 2 published, got %f", got)
	}
}

func TestHousekeepingMetricsByJob(t *testing.T) {
	reg := prometheus.NewRegistry()
	metrics := NewHousekeepingMetrics(reg)
	metrics.ObserveDuration("outbox-retention", 2*time.Second)
	metrics.IncSuccess("outbox-retention")
	metrics.IncFailure("")
	metrics.AddRows("stale-orders", 3)
	metrics.AddRows("stale-orders", 0)

	mfs, err := reg.Gather()
	if err != nil {
		t.Fatalf("gather metrics: %v", err)
	}
	if got, err := fetchCounterValue(mfs, "housekeeping_job_failure_total", "job", "unknown"); err != nil || got != 1 {
		t.Fatalf("expected one unknown failure, got %f (%v)", got, err)
	}
	if got, err := fetchCounterValue(mfs, "housekeeping_rows_affected_total", "job", "stale-orders"); err != nil || got != 3 {
		t.Fatalf("expected 3 rows, got %f (%v)", got, err)
	}
	if got, err := fetchHistogramSum(mfs, "housekeeping_job_duration_seconds", "job", "outbox-retention"); err != nil || got != 2 {
		t.Fatalf("expected duration sum 2, got %f (%v)", got, err)
	}
}

func TestNilMetricsAreSafe(t *testing.T) {
	var orders *OrderMetrics
	orders.ObserveTransition("a", "b", ResultApplied, time.Second)
	orders.IncSideEffectFailure("x")
	orders.IncDispatch("c", "d")

	var outbox *OutboxMetrics
	outbox.IncPublish("t", "r")

	var housekeeping *HousekeepingMetrics
	housekeeping.IncSuccess("j")
	housekeeping.AddRows("j", 1)

	NewOrderMetrics(nil).IncDispatch("c", "d")
}

func fetchCounterValue(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	total := 0.0
	found := false
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			total += metric.GetCounter().GetValue()
			found = true
		}
	}
	if !found {
		return 0, fmt.Errorf("metric %q missing label %s=%s", name, label, value)
	}
	return total, nil
}

func fetchHistogramSum(mfs []*dto.MetricFamily, name, label, value string) (float64, error) {
	mf := findMetricFamily(mfs, name)
	if mf == nil {
		return 0, fmt.Errorf("metric %q not found", name)
	}
	for _, metric := range mf.GetMetric() {
		if matchesLabel(metric.GetLabel(), label, value) {
			return metric.GetHistogram().GetSampleSum(), nil
		}
	}
	return 0, fmt.Errorf("histogram %q missing label %s=%s", name, label, value)
}

func findMetricFamily(mfs []*dto.MetricFamily, name string) *dto.MetricFamily {
	for _, mf := range mfs {
		if mf.GetName() == name {
			return mf
		}
	}
	return nil
}

func matchesLabel(labels []*dto.LabelPair, name, value string) bool {
	for _, label := range labels {
		if label.GetName() == name && label.GetValue() == value {
			return true
		}
	}
	return false
}
