package game

import (
	"context"
	"errors"
	"fmt"
	"log"
	"math"
	"time"

	"github.com/google/uuid"

	"github.com/Eddy-etame/pillarpayout-sub001/internal/account"
)

// Ledger is the per-round wager book. It is not safe for concurrent use:
// every call must come from the scheduler goroutine that owns the round.
// Balance movements go through the account collaborator; a failed debit
// aborts the placement with the bet set untouched.
type Ledger struct {
	round     *Round
	bets      map[string]*Bet // keyed by userID, one bet per user per round
	order     []string        // placement order, for stable settlement
	accounts  account.Service
	insurance *InsuranceEngine
	minBet    float64
	maxBet    float64
	settled   bool
}

func NewLedger(round *Round, minBet, maxBet float64, accounts account.Service, insurance *InsuranceEngine) *Ledger {
	return &Ledger{
		round:     round,
		bets:      make(map[string]*Bet),
		accounts:  accounts,
		insurance: insurance,
		minBet:    minBet,
		maxBet:    maxBet,
	}
}

// PlaceBet validates and records a wager during the waiting phase, debiting
// stake plus premium in one call. Returns the created bet and the user's new
// balance.
func (l *Ledger) PlaceBet(ctx context.Context, userID string, amount, autoCashout float64, insuranceType string) (*Bet, float64, error) {
	if l.round.State != StateWaiting {
		return nil, 0, ErrWrongPhase
	}
	if math.IsNaN(amount) || amount < l.minBet || amount > l.maxBet {
		return nil, 0, fmt.Errorf("%w: %.2f not in [%.2f, %.2f]", ErrInvalidAmount, amount, l.minBet, l.maxBet)
	}
	if _, exists := l.bets[userID]; exists {
		return nil, 0, ErrDuplicateBet
	}

	var policy *InsurancePolicy
	total := amount
	if insuranceType != "" {
		var err error
		policy, err = l.insurance.Price(amount, PolicyType(insuranceType))
		if err != nil {
			return nil, 0, err
		}
		total += policy.Premium
	}

	newBalance, err := l.accounts.Debit(ctx, userID, total)
	if err != nil {
		if errors.Is(err, account.ErrInsufficientFunds) {
			return nil, newBalance, ErrInsufficientBalance
		}
		return nil, 0, fmt.Errorf("debit stake: %w", err)
	}

	bet := &Bet{
		ID:          uuid.NewString(),
		RoundID:     l.round.ID,
		UserID:      userID,
		Amount:      amount,
		AutoCashout: autoCashout,
		Insurance:   policy,
		Status:      BetActive,
		PlacedAt:    time.Now(),
	}
	l.bets[userID] = bet
	l.order = append(l.order, userID)
	return bet, newBalance, nil
}

// CashOut resolves the user's active bet at the multiplier the curve shows
// at now. The crash point is re-checked here: even if the crashed transition
// has not been processed yet, a cashout at or past the pre-committed crash
// point is rejected.
func (l *Ledger) CashOut(ctx context.Context, userID string, now time.Time) (*Bet, float64, float64, error) {
	if l.round.State != StateRunning {
		return nil, 0, 0, ErrWrongPhase
	}
	m := MultiplierAt(now.Sub(l.round.StartedAt))
	return l.cashOutAt(ctx, userID, m, now)
}

// cashOutAt settles a cashout at an already-computed multiplier. The auto
// cashout path uses it with the tick's curve value so that manual and
// automatic cashouts price identically.
func (l *Ledger) cashOutAt(ctx context.Context, userID string, m float64, now time.Time) (*Bet, float64, float64, error) {
	bet, ok := l.bets[userID]
	if !ok || bet.Status != BetActive {
		return nil, 0, 0, ErrNoActiveBet
	}
	if m >= l.round.CrashPoint {
		return nil, 0, 0, ErrAlreadyCrashed
	}

	winnings := round2(bet.Amount * m)
	newBalance, err := l.accounts.Credit(ctx, userID, winnings)
	if err != nil {
		// Bet stays active; the caller may retry before the crash.
		return nil, 0, 0, fmt.Errorf("credit winnings: %w", err)
	}

	bet.Status = BetCashedOut
	bet.CashoutMultiplier = m
	bet.ResolvedAt = now
	return bet, winnings, newBalance, nil
}

// SettlementResult summarizes a settled round for the results event.
type SettlementResult struct {
	Winners []PlayerResult
	Losers  []PlayerResult
}

// SettleRoundCrash marks every still-active bet as lost and pays insurance
// coverage where a policy was purchased. Called exactly once per round at
// the crashed transition; a second call is an invariant violation.
func (l *Ledger) SettleRoundCrash(ctx context.Context, now time.Time) (SettlementResult, error) {
	var result SettlementResult
	if l.settled {
		return result, fmt.Errorf("invariant violation: round %s settled twice", l.round.ID)
	}
	l.settled = true

	for _, userID := range l.order {
		bet := l.bets[userID]
		switch bet.Status {
		case BetCashedOut:
			result.Winners = append(result.Winners, PlayerResult{
				UserID:     userID,
				Amount:     bet.Amount,
				Multiplier: bet.CashoutMultiplier,
				Payout:     round2(bet.Amount * bet.CashoutMultiplier),
			})

		case BetActive:
			bet.Status = BetLost
			bet.ResolvedAt = now

			loss := PlayerResult{UserID: userID, Amount: bet.Amount}
			if bet.Insurance != nil {
				// Credit before recording the claim: if the credit fails the
				// bet stays Lost with the policy unclaimed, so the ledger
				// never shows a payout the account did not receive.
				if _, err := l.accounts.Credit(ctx, userID, bet.Insurance.CoverageAmount); err != nil {
					// Surfaced, not swallowed: the operator must reconcile.
					log.Printf("[GAME] FAILED insurance credit for user %s bet %s: %v", userID, bet.ID, err)
				} else {
					payout, err := l.insurance.Claim(bet, now)
					if err != nil {
						return result, fmt.Errorf("invariant violation: claim for bet %s: %w", bet.ID, err)
					}
					loss.InsurancePayout = payout
				}
			}
			result.Losers = append(result.Losers, loss)

		default:
			// Lost or InsuranceClaimed before settlement cannot happen.
			return result, fmt.Errorf("invariant violation: bet %s in state %s during settlement", bet.ID, bet.Status)
		}
	}
	return result, nil
}

// Bets returns the round's bets in placement order, for archival.
func (l *Ledger) Bets() []*Bet {
	out := make([]*Bet, 0, len(l.order))
	for _, userID := range l.order {
		out = append(out, l.bets[userID])
	}
	return out
}

// ActiveBets returns bets that are still unresolved, in placement order.
func (l *Ledger) ActiveBets() []*Bet {
	var out []*Bet
	for _, userID := range l.order {
		if bet := l.bets[userID]; bet.Status == BetActive {
			out = append(out, bet)
		}
	}
	return out
}
