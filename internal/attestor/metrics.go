package attestor

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// RequestsSubmittedTotal tracks attestation requests submitted.
	RequestsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_attestor_requests_submitted_total",
		Help: "Total number of attestation requests submitted",
	})

	// RecordsSubmittedTotal tracks outcome records carried by submitted requests.
	RecordsSubmittedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_attestor_records_submitted_total",
		Help: "Total number of outcome records submitted for attestation",
	})

	// RequestErrorsTotal tracks failed request submissions.
	RequestErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_attestor_request_errors_total",
		Help: "Total number of failed attestation request submissions",
	})

	// RequestDurationSeconds tracks request submission latency.
	RequestDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parlay_attestor_request_duration_seconds",
		Help:    "Duration of attestation request submissions",
		Buckets: prometheus.DefBuckets,
	})

	// PollAttemptsTotal tracks individual status polls.
	PollAttemptsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_attestor_poll_attempts_total",
		Help: "Total number of finalization status polls",
	})

	// PollErrorsTotal tracks polls that failed with a transport error.
	PollErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_attestor_poll_errors_total",
		Help: "Total number of status polls that failed",
	})

	// PollTimeoutsTotal tracks requests abandoned after the poll timeout.
	PollTimeoutsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_attestor_poll_timeouts_total",
		Help: "Total number of requests that timed out before finalization",
	})

	// PollDurationSeconds tracks time from first poll to a terminal state.
	PollDurationSeconds = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "parlay_attestor_poll_duration_seconds",
		Help:    "Time from first poll to a terminal attestation state",
		Buckets: []float64{5, 15, 30, 60, 90, 120, 180, 300},
	})

	// RequestsTerminalTotal tracks requests reaching a terminal state by status.
	RequestsTerminalTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "parlay_attestor_requests_terminal_total",
			Help: "Total number of requests reaching a terminal state",
		},
		[]string{"status"},
	)

	// ProofsFetchedTotal tracks proof bundles retrieved.
	ProofsFetchedTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_attestor_proofs_fetched_total",
		Help: "Total number of proof bundles retrieved",
	})

	// ProofErrorsTotal tracks failed proof retrievals.
	ProofErrorsTotal = promauto.NewCounter(prometheus.CounterOpts{
		Name: "parlay_attestor_proof_errors_total",
		Help: "Total number of failed proof retrievals",
	})
)
