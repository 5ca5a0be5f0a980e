package types

import (
	"github.com/ethereum/go-ethereum/common"
)

// ProofBundle is the cryptographic artifact proving an OutcomeRecord was
// attested. AttestationData must decode to a record whose condition ID
// matches the bundle's ConditionID. MerkleProof may be empty only when
// the coordinator runs in permissive mode; a production oracle rejects
// empty proofs.
type ProofBundle struct {
	ConditionID     common.Hash
	AttestationData []byte
	MerkleProof     []common.Hash
	Outcome         Outcome // duplicated from the record for submission convenience
}

// ErrorKind classifies a failed (or idempotently skipped) submission.
type ErrorKind string

const (
	// ErrorKindAlreadyResolved means the oracle already holds this outcome.
	// Treated as success, not as an error.
	ErrorKindAlreadyResolved ErrorKind = "ALREADY_RESOLVED"
	// ErrorKindInvalidProof means the oracle rejected the proof. Fatal for
	// this record; never retried with the same proof.
	ErrorKindInvalidProof ErrorKind = "INVALID_PROOF"
	// ErrorKindNetworkError means the submission failed before the oracle
	// could judge it. Retryable.
	ErrorKindNetworkError ErrorKind = "NETWORK_ERROR"
	// ErrorKindProofUnavailable means the data-availability endpoint could
	// not serve a proof and strict mode refused to substitute one.
	ErrorKindProofUnavailable ErrorKind = "PROOF_UNAVAILABLE"
)

// SubmissionResult is the outcome of one proof submission attempt.
type SubmissionResult struct {
	ConditionID common.Hash
	Success     bool
	TxHash      string
	ErrorKind   ErrorKind
	Reason      string
}
