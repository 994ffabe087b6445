package game

import (
	"time"
)

// RoundState is the phase of the round state machine.
type RoundState string

const (
	StateWaiting RoundState = "WAITING"
	StateRunning RoundState = "RUNNING"
	StateCrashed RoundState = "CRASHED"
	StateResults RoundState = "RESULTS"
)

// BetStatus tracks the lifecycle of a single wager. The only legal
// transitions are Active -> CashedOut, Active -> Lost and
// Lost -> InsuranceClaimed.
type BetStatus string

const (
	BetActive           BetStatus = "ACTIVE"
	BetCashedOut        BetStatus = "CASHED_OUT"
	BetLost             BetStatus = "LOST"
	BetInsuranceClaimed BetStatus = "INSURANCE_CLAIMED"
)

// Round is the authoritative server-side state of one crash round. It is
// owned by the scheduler goroutine; everything outside reads copies via
// Scheduler.GetCurrentRound.
type Round struct {
	ID                string     `json:"round_id"`
	ServerSeed        string     `json:"-"` // revealed only at crash
	ServerSeedHash    string     `json:"server_seed_hash"`
	ClientSeed        string     `json:"client_seed"`
	Nonce             int        `json:"nonce"`
	CrashPoint        float64    `json:"-"` // fixed at creation, hidden until crash
	State             RoundState `json:"state"`
	CurrentMultiplier float64    `json:"current_multiplier"`
	StartedAt         time.Time  `json:"started_at,omitzero"`
	CrashedAt         time.Time  `json:"crashed_at,omitzero"`
}

// Bet is one user's wager in one round. Exactly one Bet exists per
// (userID, roundID).
type Bet struct {
	ID                string           `json:"bet_id"`
	RoundID           string           `json:"round_id"`
	UserID            string           `json:"user_id"`
	Amount            float64          `json:"amount"`
	AutoCashout       float64          `json:"auto_cashout,omitempty"`
	Insurance         *InsurancePolicy `json:"insurance,omitempty"`
	CashoutMultiplier float64          `json:"cashout_multiplier,omitempty"`
	Status            BetStatus        `json:"status"`
	PlacedAt          time.Time        `json:"placed_at"`
	ResolvedAt        time.Time        `json:"resolved_at,omitzero"`
}

// BetRequest is a bet placement funneled through the scheduler's single
// writer queue.
type BetRequest struct {
	UserID        string           `json:"user_id"`
	Amount        float64          `json:"amount"`
	AutoCashout   float64          `json:"auto_cashout,omitempty"`
	InsuranceType string           `json:"insurance_type,omitempty"`
	ResponseChan  chan BetResponse `json:"-"`
}

type BetResponse struct {
	Success bool    `json:"success"`
	Message string  `json:"message"`
	BetID   string  `json:"bet_id,omitempty"`
	Balance float64 `json:"balance,omitempty"`
	Premium float64 `json:"premium,omitempty"`
}

type CashoutRequest struct {
	UserID       string               `json:"user_id"`
	ResponseChan chan CashoutResponse `json:"-"`
}

type CashoutResponse struct {
	Success    bool    `json:"success"`
	Message    string  `json:"message"`
	Multiplier float64 `json:"multiplier,omitempty"`
	Payout     float64 `json:"payout,omitempty"`
	Balance    float64 `json:"balance,omitempty"`
}
