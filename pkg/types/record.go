package types

import (
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// Outcome is the resolved result of a binary market.
type Outcome uint8

const (
	// OutcomeNo means the market resolved to NO.
	OutcomeNo Outcome = 0
	// OutcomeYes means the market resolved to YES.
	OutcomeYes Outcome = 1
	// OutcomeInvalid means the outcome could not be determined.
	OutcomeInvalid Outcome = 2
)

// String returns a human-readable outcome name.
func (o Outcome) String() string {
	switch o {
	case OutcomeNo:
		return "NO"
	case OutcomeYes:
		return "YES"
	case OutcomeInvalid:
		return "INVALID"
	default:
		return fmt.Sprintf("UNKNOWN(%d)", uint8(o))
	}
}

// OutcomeRecord is one market's canonical resolution status, built by the
// fetcher from a source API response. Records are immutable after
// construction; downstream components read them only.
type OutcomeRecord struct {
	ConditionID    common.Hash
	Closed         bool
	Outcome        Outcome
	ResolvedAt     int64 // Unix timestamp
	Question       string
	SourceDataHash common.Hash // content hash of the raw source payload
}

// EffectiveOutcome returns the outcome and whether it is meaningful.
// An unclosed market is always unresolved regardless of the Outcome value.
func (r *OutcomeRecord) EffectiveOutcome() (Outcome, bool) {
	if !r.Closed {
		return OutcomeInvalid, false
	}
	return r.Outcome, true
}

// Validate checks record field constraints.
func (r *OutcomeRecord) Validate() error {
	if r.ConditionID == (common.Hash{}) {
		return errors.New("condition ID must not be empty")
	}
	if r.Outcome > OutcomeInvalid {
		return fmt.Errorf("outcome out of range: %d", uint8(r.Outcome))
	}
	if r.Closed && r.ResolvedAt <= 0 {
		return errors.New("closed record must carry a resolution timestamp")
	}
	if r.SourceDataHash == (common.Hash{}) {
		return errors.New("source data hash must not be empty")
	}
	return nil
}
