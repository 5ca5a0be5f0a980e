package types

import (
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// ConditionState is the final per-condition state of a resolution run.
type ConditionState string

const (
	// StateResolved means the outcome was submitted and mined.
	StateResolved ConditionState = "resolved"
	// StateAlreadyResolved means the oracle already held the outcome.
	StateAlreadyResolved ConditionState = "already-resolved"
	// StatePendingRetry means a recoverable failure; retry later.
	StatePendingRetry ConditionState = "pending-retry"
	// StateFailed means a fatal per-record failure.
	StateFailed ConditionState = "failed"
)

// Stage names the pipeline stage a condition last reached.
type Stage string

const (
	StageFetch  Stage = "fetch"
	StageAttest Stage = "attest"
	StagePoll   Stage = "poll"
	StageSubmit Stage = "submit"
)

// ReportEntry is the final accounting for one condition ID.
type ReportEntry struct {
	ConditionID common.Hash    `json:"conditionId"`
	Stage       Stage          `json:"stage"`
	State       ConditionState `json:"state"`
	Reason      string         `json:"reason,omitempty"`
	TxHash      string         `json:"txHash,omitempty"`
	RequestID   string         `json:"requestId,omitempty"`
}

// Report is the structured result of one batch resolution run. Partial
// results are never discarded: every condition ID in the batch gets
// exactly one entry.
type Report struct {
	RunID        string        `json:"runId"`
	StartedAt    time.Time     `json:"startedAt"`
	FinishedAt   time.Time     `json:"finishedAt"`
	Entries      []ReportEntry `json:"entries"`
	Resolved     int           `json:"resolved"`
	PendingRetry int           `json:"pendingRetry"`
	Failed       int           `json:"failed"`
}

// NewReport creates an empty report for a run.
func NewReport(runID string) *Report {
	return &Report{
		RunID:     runID,
		StartedAt: time.Now(),
	}
}

// Add appends an entry.
func (r *Report) Add(entry ReportEntry) {
	r.Entries = append(r.Entries, entry)
}

// Finish stamps the end time and tallies entry states into the counters.
func (r *Report) Finish() {
	r.FinishedAt = time.Now()
	r.Resolved, r.PendingRetry, r.Failed = 0, 0, 0
	for i := range r.Entries {
		switch r.Entries[i].State {
		case StateResolved, StateAlreadyResolved:
			r.Resolved++
		case StatePendingRetry:
			r.PendingRetry++
		case StateFailed:
			r.Failed++
		}
	}
}

// Entry returns the entry for a condition ID, or nil.
func (r *Report) Entry(conditionID common.Hash) *ReportEntry {
	for i := range r.Entries {
		if r.Entries[i].ConditionID == conditionID {
			return &r.Entries[i]
		}
	}
	return nil
}
