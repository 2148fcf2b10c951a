package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// HousekeepingMetrics records runs of the scheduled maintenance jobs.
type HousekeepingMetrics struct {
	duration *prometheus.HistogramVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	rows     *prometheus.CounterVec
}

// NewHousekeepingMetrics registers the job metrics on the provided registerer.
func NewHousekeepingMetrics(reg prometheus.Registerer) *HousekeepingMetrics {
	if reg == nil {
		return &HousekeepingMetrics{}
	}
	duration := prometheus.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "housekeeping_job_duration_seconds",
		Help:    "Duration of housekeeping jobs in seconds.",
		Buckets: prometheus.DefBuckets,
	}, []string{"job"})
	success := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_job_success_total",
		Help: "Successful housekeeping job executions.",
	}, []string{"job"})
	failure := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_job_failure_total",
		Help: "Failed housekeeping job executions.",
	}, []string{"job"})
	rows := prometheus.NewCounterVec(prometheus.CounterOpts{
		Name: "housekeeping_rows_affected_total",
		Help: "Rows deleted or orders expired by housekeeping jobs.",
	}, []string{"job"})
	reg.MustRegister(duration, success, failure, rows)
	return &HousekeepingMetrics{
		duration: duration,
		success:  success,
		failure:  failure,
		rows:     rows,
	}
}

func (h *HousekeepingMetrics) ObserveDuration(job string, duration time.Duration) {
	if h == nil || h.duration == nil {
		return
	}
	h.duration.WithLabelValues(normalizeLabel(job)).Observe(duration.Seconds())
}

func (h *HousekeepingMetrics) IncSuccess(job string) {
	if h == nil || h.success == nil {
		return
	}
	h.success.WithLabelValues(normalizeLabel(job)).Inc()
}

func (h *HousekeepingMetrics) IncFailure(job string) {
	if h == nil || h.failure == nil {
		return
	}
	h.failure.WithLabelValues(normalizeLabel(job)).Inc()
}

// AddRows counts rows a job removed or updated.
func (h *HousekeepingMetrics) AddRows(job string, n int64) {
	if h == nil || h.rows == nil || n <= 0 {
		return
	}
	h.rows.WithLabelValues(normalizeLabel(job)).Add(float64(n))
}
