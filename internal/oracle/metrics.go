package oracle

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// SubmissionsTotal tracks submission attempts by final result.
	SubmissionsTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parlay_oracle_submissions_total",
			Help: "Total number of outcome submissions by result",
		},
		[]string{"result"},
	)

	// SubmissionDurationSeconds tracks end-to-end submission latency.
	SubmissionDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parlay_oracle_submission_duration_seconds",
		Help:    "Duration of outcome submissions including confirmation",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// ConfirmationDurationSeconds tracks time from send to mined receipt.
	ConfirmationDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parlay_oracle_confirmation_duration_seconds",
		Help:    "Time from transaction send to mined receipt",
		Buckets: []float64{0.5, 1, 2, 5, 10, 30, 60, 120},
	})

	// AlreadyResolvedTotal tracks submissions skipped because the oracle
	// already held the outcome.
	AlreadyResolvedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_oracle_already_resolved_total",
		Help: "Total number of submissions skipped as already resolved",
	})

	// ProofFallbacksTotal tracks permissive-mode submissions without a
	// real merkle proof.
	ProofFallbacksTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_oracle_proof_fallbacks_total",
		Help: "Total number of permissive-mode submissions with an empty proof",
	})
)
