package source

import (
	"strings"

	"github.com/polyflare/parlay-resolver/pkg/types"
)

// Rule is one step in the ordered outcome-derivation list. A rule either
// produces an outcome or passes to the next rule.
type Rule struct {
	Name  string
	Apply func(p *MarketPayload) (types.Outcome, bool)
}

// Rules returns the derivation rules in precedence order:
// explicit winner flag > price threshold > winning-outcome field.
// A payload that no rule matches is INVALID, which is a valid terminal
// classification, not an error.
func Rules(priceThreshold float64) []Rule {
	return []Rule{
		{Name: "winner-flag", Apply: winnerFlagRule},
		{Name: "price-threshold", Apply: priceThresholdRule(priceThreshold)},
		{Name: "winning-outcome-field", Apply: winningOutcomeFieldRule},
	}
}

// DeriveOutcome evaluates the rules in order and returns the derived
// outcome plus the name of the rule that fired ("none" for INVALID).
// Derivation is deterministic: a fixed payload always yields the same
// outcome.
func DeriveOutcome(p *MarketPayload, priceThreshold float64) (types.Outcome, string) {
	for _, rule := range Rules(priceThreshold) {
		if outcome, ok := rule.Apply(p); ok {
			return outcome, rule.Name
		}
	}
	return types.OutcomeInvalid, "none"
}

// winnerFlagRule uses explicit per-token winner flags. It only fires when
// the flags are contradiction-free: exactly one token flagged as winner,
// with a recognizable outcome label.
func winnerFlagRule(p *MarketPayload) (types.Outcome, bool) {
	var winners []TokenPayload
	for _, tok := range p.Tokens {
		if tok.Winner != nil && *tok.Winner {
			winners = append(winners, tok)
		}
	}

	if len(winners) != 1 {
		return types.OutcomeInvalid, false
	}

	outcome, ok := outcomeFromLabel(winners[0].Outcome)
	if !ok {
		return types.OutcomeInvalid, false
	}
	return outcome, true
}

// priceThresholdRule infers the winner from closing prices when no token
// carries an explicit winner flag. It only fires when exactly one token
// is priced above the threshold.
func priceThresholdRule(threshold float64) func(p *MarketPayload) (types.Outcome, bool) {
	return func(p *MarketPayload) (types.Outcome, bool) {
		for _, tok := range p.Tokens {
			if tok.Winner != nil && *tok.Winner {
				// Flags present; this rule defers to winnerFlagRule.
				return types.OutcomeInvalid, false
			}
		}

		var above []TokenPayload
		for _, tok := range p.Tokens {
			if tok.Price > threshold {
				above = append(above, tok)
			}
		}

		if len(above) != 1 {
			return types.OutcomeInvalid, false
		}

		return outcomeFromLabel(above[0].Outcome)
	}
}

// winningOutcomeFieldRule uses the top-level winningOutcome string.
func winningOutcomeFieldRule(p *MarketPayload) (types.Outcome, bool) {
	if p.WinningOutcome == "" {
		return types.OutcomeInvalid, false
	}
	return outcomeFromLabel(p.WinningOutcome)
}

func outcomeFromLabel(label string) (types.Outcome, bool) {
	switch strings.ToLower(strings.TrimSpace(label)) {
	case "yes":
		return types.OutcomeYes, true
	case "no":
		return types.OutcomeNo, true
	default:
		return types.OutcomeInvalid, false
	}
}
