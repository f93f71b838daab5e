// Package metrics exposes prometheus collectors for plan lowering and
// task graph execution.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// LoweredNodes counts plan nodes lowered, by node kind.
	LoweredNodes = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firn_plan_lowered_nodes_total",
			Help: "Total number of plan nodes lowered",
		},
		[]string{"kind"},
	)
	// Fallbacks counts nodes collapsed to a single partition, by node kind
	// and fallback mode.
	Fallbacks = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firn_plan_fallbacks_total",
			Help: "Total number of single-partition fallbacks during lowering",
		},
		[]string{"kind", "mode"},
	)
	// TasksExecuted counts executed tasks by scheduler and outcome.
	TasksExecuted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "firn_executor_tasks_total",
			Help: "Total number of executed graph tasks",
		},
		[]string{"scheduler", "status"},
	)
	// GraphDuration is the latency of resolving a task graph key.
	GraphDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "firn_executor_graph_duration_seconds",
			Help:    "Task graph execution latency in seconds",
			Buckets: prometheus.DefBuckets,
		},
		[]string{"scheduler"},
	)
)

// TaskDone records one executed task.
func TaskDone(scheduler string, err error) {
	status := "ok"
	if err != nil {
		status = "error"
	}
	TasksExecuted.WithLabelValues(scheduler, status).Inc()
}
