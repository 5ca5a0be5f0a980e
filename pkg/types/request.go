package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// RequestStatus is the lifecycle state of an attestation request.
type RequestStatus string

const (
	// StatusPending means the request was accepted but not yet finalized.
	StatusPending RequestStatus = "PENDING"
	// StatusFinalized means the attestation round completed and proofs exist.
	StatusFinalized RequestStatus = "FINALIZED"
	// StatusFailed means the attestation service rejected the request.
	StatusFailed RequestStatus = "FAILED"
)

// AttestationRequest tracks one in-flight request to the attestation
// service. It covers one or more condition IDs submitted as a batch.
// Status only ever moves PENDING -> FINALIZED or PENDING -> FAILED.
type AttestationRequest struct {
	RequestID    string // assigned by the service, empty until accepted
	ConditionIDs []common.Hash
	Status       RequestStatus
	SubmittedAt  time.Time
	LastPolledAt time.Time
	VotingRound  uint64 // 0 until assigned by the service
}

// Terminal reports whether the request reached a final state.
func (r *AttestationRequest) Terminal() bool {
	return r.Status == StatusFinalized || r.Status == StatusFailed
}

// MarkFinalized transitions PENDING -> FINALIZED. Returns false if the
// request is already terminal; terminal states are never overwritten.
func (r *AttestationRequest) MarkFinalized() bool {
	if r.Status != StatusPending {
		return false
	}
	r.Status = StatusFinalized
	return true
}

// MarkFailed transitions PENDING -> FAILED. Returns false if the request
// is already terminal.
func (r *AttestationRequest) MarkFailed() bool {
	if r.Status != StatusPending {
		return false
	}
	r.Status = StatusFailed
	return true
}
