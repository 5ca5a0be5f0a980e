package types

import (
	"errors"
	"fmt"
)

// Sentinel errors shared across the resolution pipeline. Components wrap
// these with fmt.Errorf("...: %w", err) so callers can classify with
// errors.Is while keeping call-site context.
var (
	// ErrNotFound means the source API has no market for the condition ID.
	ErrNotFound = errors.New("market not found")

	// ErrServiceUnavailable means the attestation service could not be
	// reached or returned a non-success status. Recoverable: retry later.
	ErrServiceUnavailable = errors.New("attestation service unavailable")

	// ErrProofUnavailable means the data-availability endpoint could not
	// serve a proof bundle and strict mode is enabled.
	ErrProofUnavailable = errors.New("proof unavailable")

	// ErrPollTimeout means the finalization wait elapsed with the request
	// still pending. The request identity is preserved for a later retry.
	ErrPollTimeout = errors.New("finalization poll timed out")

	// ErrPollCancelled means the caller cancelled the finalization wait.
	ErrPollCancelled = errors.New("finalization poll cancelled")

	// ErrMarketNotClosed means an unclosed market was offered for
	// attestation. Fatal for that record.
	ErrMarketNotClosed = errors.New("market not closed")

	// ErrConditionMismatch means a proof bundle's attestation data decodes
	// to a different condition ID than the bundle claims.
	ErrConditionMismatch = errors.New("condition id mismatch")

	// ErrRequestNotFinalized means records were offered for submission
	// before their attestation request finalized.
	ErrRequestNotFinalized = errors.New("attestation request not finalized")
)

// SourceError is a non-success, non-404 response from the source data API.
type SourceError struct {
	Status int
	Body   string
}

func (e *SourceError) Error() string {
	return fmt.Sprintf("source API error: status %d: %s", e.Status, e.Body)
}
