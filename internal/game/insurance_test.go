package game

import (
	"errors"
	"testing"
	"time"

	"github.com/Eddy-etame/pillarpayout-sub001/internal/config"
)

func testInsuranceRates() map[string]config.InsuranceRate {
	return map[string]config.InsuranceRate{
		"basic":   {PremiumRate: 0.05, CoverageRate: 0.25},
		"premium": {PremiumRate: 0.10, CoverageRate: 0.40},
		"elite":   {PremiumRate: 0.15, CoverageRate: 0.50},
	}
}

func TestInsurancePrice(t *testing.T) {
	engine := NewInsuranceEngine(testInsuranceRates())

	tests := []struct {
		name         string
		amount       float64
		policyType   PolicyType
		wantPremium  float64
		wantCoverage float64
	}{
		{name: "basic on 100", amount: 100, policyType: PolicyBasic, wantPremium: 5, wantCoverage: 25},
		{name: "premium on 100", amount: 100, policyType: PolicyPremium, wantPremium: 10, wantCoverage: 40},
		{name: "elite on 100", amount: 100, policyType: PolicyElite, wantPremium: 15, wantCoverage: 50},
		{name: "elite on 33.33", amount: 33.33, policyType: PolicyElite, wantPremium: 5, wantCoverage: 16.67},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			policy, err := engine.Price(tt.amount, tt.policyType)
			if err != nil {
				t.Fatalf("Price() error = %v", err)
			}
			if policy.Premium != tt.wantPremium {
				t.Errorf("Premium = %v, want %v", policy.Premium, tt.wantPremium)
			}
			if policy.CoverageAmount != tt.wantCoverage {
				t.Errorf("CoverageAmount = %v, want %v", policy.CoverageAmount, tt.wantCoverage)
			}
			if policy.Claimed {
				t.Error("new policy is already claimed")
			}
		})
	}
}

func TestInsurancePrice_UnknownType(t *testing.T) {
	engine := NewInsuranceEngine(testInsuranceRates())

	if _, err := engine.Price(100, "platinum"); !errors.Is(err, ErrUnknownPolicyType) {
		t.Errorf("Price() err = %v, want ErrUnknownPolicyType", err)
	}
}

func TestInsuranceClaim(t *testing.T) {
	engine := NewInsuranceEngine(testInsuranceRates())
	now := time.Now()

	policy, err := engine.Price(100, PolicyElite)
	if err != nil {
		t.Fatalf("Price() error = %v", err)
	}
	bet := &Bet{ID: "b1", Amount: 100, Insurance: policy, Status: BetLost}

	payout, err := engine.Claim(bet, now)
	if err != nil {
		t.Fatalf("Claim() error = %v", err)
	}
	if payout != 50 {
		t.Errorf("Claim() payout = %v, want 50", payout)
	}
	if bet.Status != BetInsuranceClaimed {
		t.Errorf("bet status = %v, want %v", bet.Status, BetInsuranceClaimed)
	}

	// Second claim must be rejected.
	if _, err := engine.Claim(bet, now); !errors.Is(err, ErrAlreadyClaimed) {
		t.Errorf("second Claim() err = %v, want ErrAlreadyClaimed", err)
	}
}

func TestInsuranceClaim_NotEligible(t *testing.T) {
	engine := NewInsuranceEngine(testInsuranceRates())
	now := time.Now()

	policy, _ := engine.Price(100, PolicyBasic)

	tests := []struct {
		name string
		bet  *Bet
	}{
		{name: "no policy", bet: &Bet{ID: "b1", Amount: 100, Status: BetLost}},
		{name: "cashed out", bet: &Bet{ID: "b2", Amount: 100, Insurance: policy, Status: BetCashedOut}},
		{name: "still active", bet: &Bet{ID: "b3", Amount: 100, Insurance: policy, Status: BetActive}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := engine.Claim(tt.bet, now); !errors.Is(err, ErrNotEligible) {
				t.Errorf("Claim() err = %v, want ErrNotEligible", err)
			}
		})
	}
}
