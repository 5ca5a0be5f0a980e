package attestor

import (
	"fmt"

	"github.com/ethereum/go-ethereum/accounts/abi"
	"github.com/ethereum/go-ethereum/common"
	"github.com/polyflare/parlay-resolver/pkg/types"
)

// Attestation request tags expected by the service's request schema.
const (
	AttestationType = "ParlayOutcome"
	SourceID        = "polymarket"
)

//nolint:gochecknoglobals // ABI schema, built once
var recordArguments = abi.Arguments{
	{Name: "conditionId", Type: mustNewType("bytes32")},
	{Name: "closed", Type: mustNewType("bool")},
	{Name: "outcome", Type: mustNewType("uint8")},
	{Name: "resolvedAt", Type: mustNewType("uint64")},
	{Name: "sourceDataHash", Type: mustNewType("bytes32")},
}

func mustNewType(t string) abi.Type {
	typ, err := abi.NewType(t, "", nil)
	if err != nil {
		panic(fmt.Sprintf("abi type %q: %v", t, err))
	}
	return typ
}

// EncodeRecord ABI-encodes an OutcomeRecord into the attestation data
// tuple carried by requests and proof bundles.
func EncodeRecord(record *types.OutcomeRecord) ([]byte, error) {
	err := record.Validate()
	if err != nil {
		return nil, fmt.Errorf("validate record: %w", err)
	}

	data, err := recordArguments.Pack(
		[32]byte(record.ConditionID),
		record.Closed,
		uint8(record.Outcome),
		uint64(record.ResolvedAt), //nolint:gosec // timestamps are non-negative
		[32]byte(record.SourceDataHash),
	)
	if err != nil {
		return nil, fmt.Errorf("pack record: %w", err)
	}

	return data, nil
}

// DecodeRecord decodes attestation data back into an OutcomeRecord. Used
// to verify the bundle/record condition ID invariant before submission.
func DecodeRecord(data []byte) (*types.OutcomeRecord, error) {
	values, err := recordArguments.Unpack(data)
	if err != nil {
		return nil, fmt.Errorf("unpack record: %w", err)
	}

	conditionID, ok := values[0].([32]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected conditionId type %T", values[0])
	}
	closed, ok := values[1].(bool)
	if !ok {
		return nil, fmt.Errorf("unexpected closed type %T", values[1])
	}
	outcome, ok := values[2].(uint8)
	if !ok {
		return nil, fmt.Errorf("unexpected outcome type %T", values[2])
	}
	resolvedAt, ok := values[3].(uint64)
	if !ok {
		return nil, fmt.Errorf("unexpected resolvedAt type %T", values[3])
	}
	sourceDataHash, ok := values[4].([32]byte)
	if !ok {
		return nil, fmt.Errorf("unexpected sourceDataHash type %T", values[4])
	}

	return &types.OutcomeRecord{
		ConditionID:    common.Hash(conditionID),
		Closed:         closed,
		Outcome:        types.Outcome(outcome),
		ResolvedAt:     int64(resolvedAt), //nolint:gosec // timestamps fit int64
		SourceDataHash: common.Hash(sourceDataHash),
	}, nil
}
