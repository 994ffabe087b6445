package game

import (
	"math"
	"time"

	"github.com/Eddy-etame/pillarpayout-sub001/internal/config"
)

// PolicyType selects an insurance tier.
type PolicyType string

const (
	PolicyBasic   PolicyType = "basic"
	PolicyPremium PolicyType = "premium"
	PolicyElite   PolicyType = "elite"
)

// InsurancePolicy is the side-wager bound to a bet at purchase time.
// Immutable after creation; Claimed flips exactly once during settlement.
type InsurancePolicy struct {
	Type           PolicyType `json:"type"`
	PremiumRate    float64    `json:"premium_rate"`
	CoverageRate   float64    `json:"coverage_rate"`
	Premium        float64    `json:"premium"`
	CoverageAmount float64    `json:"coverage_amount"`
	Claimed        bool       `json:"claimed"`
}

// InsuranceEngine prices policies and pays claims from a configured rate
// table.
type InsuranceEngine struct {
	rates map[PolicyType]config.InsuranceRate
}

func NewInsuranceEngine(rates map[string]config.InsuranceRate) *InsuranceEngine {
	table := make(map[PolicyType]config.InsuranceRate, len(rates))
	for name, rate := range rates {
		table[PolicyType(name)] = rate
	}
	return &InsuranceEngine{rates: table}
}

// Price computes the premium and coverage for insuring a bet of the given
// amount. Returns ErrUnknownPolicyType for tiers not in the rate table.
func (e *InsuranceEngine) Price(amount float64, policyType PolicyType) (*InsurancePolicy, error) {
	rate, ok := e.rates[policyType]
	if !ok {
		return nil, ErrUnknownPolicyType
	}
	return &InsurancePolicy{
		Type:           policyType,
		PremiumRate:    rate.PremiumRate,
		CoverageRate:   rate.CoverageRate,
		Premium:        round2(amount * rate.PremiumRate),
		CoverageAmount: round2(amount * rate.CoverageRate),
	}, nil
}

// Claim pays out the coverage on a lost bet. Only Lost bets with an
// unclaimed policy are eligible; the bet moves to InsuranceClaimed.
func (e *InsuranceEngine) Claim(bet *Bet, now time.Time) (float64, error) {
	if bet.Insurance == nil {
		return 0, ErrNotEligible
	}
	if bet.Insurance.Claimed || bet.Status == BetInsuranceClaimed {
		return 0, ErrAlreadyClaimed
	}
	if bet.Status != BetLost {
		return 0, ErrNotEligible
	}

	bet.Insurance.Claimed = true
	bet.Status = BetInsuranceClaimed
	bet.ResolvedAt = now
	return bet.Insurance.CoverageAmount, nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
