package metrics

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// TaskMetrics records outcomes of scheduled alert tasks.
type TaskMetrics struct {
	ticks    prometheus.Counter
	launched *prometheus.CounterVec
	skipped  *prometheus.CounterVec
	success  *prometheus.CounterVec
	failure  *prometheus.CounterVec
	duration *prometheus.HistogramVec
}

// NewTaskMetrics registers the task metrics on reg. A nil reg yields a no-op collector.
func NewTaskMetrics(reg prometheus.Registerer) *TaskMetrics {
	if reg == nil {
		return &TaskMetrics{}
	}
	m := &TaskMetrics{
		ticks: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "alert_scheduler_ticks_total",
			Help: "Scheduler ticks fired.",
		}),
		launched: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_task_launched_total",
			Help: "Alert task launches.",
		}, []string{"task"}),
		skipped: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_task_skipped_total",
			Help: "Launches skipped because the previous run was still in progress.",
		}, []string{"task"}),
		success: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_task_success_total",
			Help: "Alert task runs that completed without error.",
		}, []string{"task"}),
		failure: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "alert_task_failure_total",
			Help: "Alert task runs that failed to launch or returned an error.",
		}, []string{"task"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "alert_task_duration_seconds",
			Help:    "Duration of alert task runs in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"task"}),
	}
	reg.MustRegister(m.ticks, m.launched, m.skipped, m.success, m.failure, m.duration)
	return m
}

func (m *TaskMetrics) IncTick() {
	if m == nil || m.ticks == nil {
		return
	}
	m.ticks.Inc()
}

func (m *TaskMetrics) IncLaunched(task string) {
	if m == nil || m.launched == nil {
		return
	}
	m.launched.WithLabelValues(normalizeLabel(task)).Inc()
}

func (m *TaskMetrics) IncSkipped(task string) {
	if m == nil || m.skipped == nil {
		return
	}
	m.skipped.WithLabelValues(normalizeLabel(task)).Inc()
}

func (m *TaskMetrics) IncSuccess(task string) {
	if m == nil || m.success == nil {
		return
	}
	m.success.WithLabelValues(normalizeLabel(task)).Inc()
}

func (m *TaskMetrics) IncFailure(task string) {
	if m == nil || m.failure == nil {
		return
	}
	m.failure.WithLabelValues(normalizeLabel(task)).Inc()
}

func (m *TaskMetrics) ObserveDuration(task string, d time.Duration) {
	if m == nil || m.duration == nil {
		return
	}
	m.duration.WithLabelValues(normalizeLabel(task)).Observe(d.Seconds())
}

func normalizeLabel(task string) string {
	if task == "" {
		return "unknown"
	}
	return task
}
