package resolver

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RunsTotal tracks completed resolution runs.
	RunsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_resolver_runs_total",
		Help: "Total number of resolution runs",
	})

	// RunDurationSeconds tracks end-to-end run latency.
	RunDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parlay_resolver_run_duration_seconds",
		Help:    "Duration of resolution runs",
		Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
	})

	// ConditionsResolvedTotal tracks conditions ending a run resolved.
	ConditionsResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_resolver_conditions_resolved_total",
		Help: "Total number of conditions resolved on-chain",
	})

	// ConditionsPendingRetryTotal tracks recoverable per-condition failures.
	ConditionsPendingRetryTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_resolver_conditions_pending_retry_total",
		Help: "Total number of conditions deferred for retry",
	})

	// ConditionsFailedTotal tracks fatal per-condition failures.
	ConditionsFailedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_resolver_conditions_failed_total",
		Help: "Total number of conditions that failed fatally",
	})
)
