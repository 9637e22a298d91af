package orchestrator

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// TasksTotal counts completed tasks.
	// Labels: strategy (resolved), provider (result tag), result (success, failure)
	TasksTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fixd",
			Subsystem: "orchestrator",
			Name:      "tasks_total",
			Help:      "Total number of completed remediation tasks",
		},
		[]string{"strategy", "provider", "result"},
	)

	// TaskDuration tracks dispatcher wall-clock time per task.
	TaskDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fixd",
			Subsystem: "orchestrator",
			Name:      "task_duration_seconds",
			Help:      "Duration of remediation tasks in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"strategy"},
	)

	// ProviderCallsTotal counts provider invocations.
	// Labels: provider (local, remote), result (success, failure, error)
	ProviderCallsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Namespace: "fixd",
			Subsystem: "orchestrator",
			Name:      "provider_calls_total",
			Help:      "Total number of fix provider invocations",
		},
		[]string{"provider", "result"},
	)

	// ProviderCallDuration tracks how long each provider invocation takes.
	ProviderCallDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Namespace: "fixd",
			Subsystem: "orchestrator",
			Name:      "provider_call_duration_seconds",
			Help:      "Duration of fix provider invocations in seconds",
			Buckets:   []float64{0.05, 0.1, 0.5, 1, 2.5, 5, 10, 30, 60, 120, 300},
		},
		[]string{"provider"},
	)

	// TasksCancelled counts tasks abandoned because the caller's context ended.
	TasksCancelled = promauto.NewCounter(
		prometheus.CounterOpts{
			Namespace: "fixd",
			Subsystem: "orchestrator",
			Name:      "tasks_cancelled_total",
			Help:      "Total number of remediation tasks abandoned on cancellation",
		},
	)
)

func resultLabel(success bool) string {
	if success {
		return "success"
	}
	return "failure"
}
