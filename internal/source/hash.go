package source

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"

	"github.com/ethereum/go-ethereum/common"
)

// CanonicalHash computes the tamper-evidence hash of a raw source payload:
// SHA-256 over a canonical re-serialization with sorted object keys, so
// re-fetching identical data yields an identical hash regardless of key
// order in the response.
//
// Uses encoding/json for the canonical step: it sorts map keys on
// marshal, which goccy's hot-path encoder does not guarantee.
func CanonicalHash(raw []byte) (common.Hash, error) {
	var decoded interface{}
	err := json.Unmarshal(raw, &decoded)
	if err != nil {
		return common.Hash{}, fmt.Errorf("parse payload: %w", err)
	}

	canonical, err := json.Marshal(decoded)
	if err != nil {
		return common.Hash{}, fmt.Errorf("canonicalize payload: %w", err)
	}

	return common.Hash(sha256.Sum256(canonical)), nil
}
