package source

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RecordsFetchedTotal tracks outcome records built from source data.
	RecordsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_source_records_fetched_total",
		Help: "Total number of outcome records built from source API responses",
	})

	// FetchErrorsTotal tracks fetch failures by class.
	FetchErrorsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parlay_source_fetch_errors_total",
		Help: "Total number of source API fetch failures",
	}, []string{"reason"})

	// FetchDurationSeconds tracks source API latency.
	FetchDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parlay_source_fetch_duration_seconds",
		Help:    "Duration of source API market fetches",
		Buckets: prometheus.DefBuckets,
	})

	// OutcomeRuleAppliedTotal tracks which derivation rule decided each
	// outcome, keeping the price heuristic auditable.
	OutcomeRuleAppliedTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "parlay_source_outcome_rule_applied_total",
		Help: "Total outcomes derived, labelled by the rule that fired",
	}, []string{"rule"})
)
