package source

import (
	"testing"

	"github.com/polyflare/parlay-resolver/pkg/types"
	"github.com/stretchr/testify/assert"
)

func boolPtr(b bool) *bool { return &b }

func TestDeriveOutcome(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name        string
		payload     *MarketPayload
		wantOutcome types.Outcome
		wantRule    string
	}{
		{
			name: "explicit-winner-flag-yes",
			payload: &MarketPayload{
				Tokens: []TokenPayload{
					{Outcome: "Yes", Price: 0.97, Winner: boolPtr(true)},
					{Outcome: "No", Price: 0.03, Winner: boolPtr(false)},
				},
			},
			wantOutcome: types.OutcomeYes,
			wantRule:    "winner-flag",
		},
		{
			name: "explicit-winner-flag-no",
			payload: &MarketPayload{
				Tokens: []TokenPayload{
					{Outcome: "Yes", Price: 0.02, Winner: boolPtr(false)},
					{Outcome: "No", Price: 0.98, Winner: boolPtr(true)},
				},
			},
			wantOutcome: types.OutcomeNo,
			wantRule:    "winner-flag",
		},
		{
			name: "winner-flag-beats-price",
			payload: &MarketPayload{
				// Flag contradicts price; the flag is authoritative.
				Tokens: []TokenPayload{
					{Outcome: "Yes", Price: 0.10, Winner: boolPtr(true)},
					{Outcome: "No", Price: 0.99, Winner: boolPtr(false)},
				},
			},
			wantOutcome: types.OutcomeYes,
			wantRule:    "winner-flag",
		},
		{
			name: "contradictory-flags-fall-through-to-price",
			payload: &MarketPayload{
				Tokens: []TokenPayload{
					{Outcome: "Yes", Price: 0.97, Winner: boolPtr(true)},
					{Outcome: "No", Price: 0.03, Winner: boolPtr(true)},
				},
			},
			// Flags are contradictory AND present, so the price rule also
			// defers; field rule empty; INVALID.
			wantOutcome: types.OutcomeInvalid,
			wantRule:    "none",
		},
		{
			name: "price-threshold-yes",
			payload: &MarketPayload{
				Tokens: []TokenPayload{
					{Outcome: "Yes", Price: 0.97},
					{Outcome: "No", Price: 0.03},
				},
			},
			wantOutcome: types.OutcomeYes,
			wantRule:    "price-threshold",
		},
		{
			name: "price-at-threshold-does-not-fire",
			payload: &MarketPayload{
				Tokens: []TokenPayload{
					{Outcome: "Yes", Price: 0.95},
					{Outcome: "No", Price: 0.05},
				},
			},
			wantOutcome: types.OutcomeInvalid,
			wantRule:    "none",
		},
		{
			name: "winning-outcome-field",
			payload: &MarketPayload{
				WinningOutcome: "No",
				Tokens: []TokenPayload{
					{Outcome: "Yes", Price: 0.40},
					{Outcome: "No", Price: 0.60},
				},
			},
			wantOutcome: types.OutcomeNo,
			wantRule:    "winning-outcome-field",
		},
		{
			name: "unrecognisable-field-is-invalid",
			payload: &MarketPayload{
				WinningOutcome: "Maybe",
			},
			wantOutcome: types.OutcomeInvalid,
			wantRule:    "none",
		},
		{
			name:        "empty-payload-is-invalid",
			payload:     &MarketPayload{},
			wantOutcome: types.OutcomeInvalid,
			wantRule:    "none",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			outcome, rule := DeriveOutcome(tt.payload, 0.95)
			assert.Equal(t, tt.wantOutcome, outcome)
			assert.Equal(t, tt.wantRule, rule)
		})
	}
}

func TestDeriveOutcomeDeterminism(t *testing.T) {
	t.Parallel()

	payload := &MarketPayload{
		Tokens: []TokenPayload{
			{Outcome: "Yes", Price: 0.97},
			{Outcome: "No", Price: 0.03},
		},
	}

	first, firstRule := DeriveOutcome(payload, 0.95)
	for range 50 {
		outcome, rule := DeriveOutcome(payload, 0.95)
		assert.Equal(t, first, outcome)
		assert.Equal(t, firstRule, rule)
	}
}

func TestDeriveOutcomeConfigurableThreshold(t *testing.T) {
	t.Parallel()

	payload := &MarketPayload{
		Tokens: []TokenPayload{
			{Outcome: "Yes", Price: 0.92},
			{Outcome: "No", Price: 0.08},
		},
	}

	outcome, rule := DeriveOutcome(payload, 0.95)
	assert.Equal(t, types.OutcomeInvalid, outcome)
	assert.Equal(t, "none", rule)

	outcome, rule = DeriveOutcome(payload, 0.9)
	assert.Equal(t, types.OutcomeYes, outcome)
	assert.Equal(t, "price-threshold", rule)
}
