package game

import "time"

// Typed events published by the scheduler on its outbound channel. The
// transport layer (websocket hub, archiver) consumes these; the core never
// talks to a socket directly.

type EventType string

const (
	EventRoundWaiting EventType = "round_waiting"
	EventBetPlaced    EventType = "bet_placed"
	EventRoundRunning EventType = "round_running"
	EventTick         EventType = "tick"
	EventCashout      EventType = "cashout"
	EventRoundCrashed EventType = "round_crashed"
	EventRoundResults EventType = "round_results"
)

type Event struct {
	Type EventType `json:"type"`
	Data any       `json:"data"`
}

type RoundWaitingData struct {
	RoundID        string  `json:"round_id"`
	ServerSeedHash string  `json:"server_seed_hash"`
	MinBet         float64 `json:"min_bet"`
	MaxBet         float64 `json:"max_bet"`
}

type BetPlacedData struct {
	RoundID string  `json:"round_id"`
	UserID  string  `json:"user_id"`
	Amount  float64 `json:"amount"`
}

type RoundRunningData struct {
	RoundID   string    `json:"round_id"`
	StartedAt time.Time `json:"started_at"`
}

type TickData struct {
	RoundID    string  `json:"round_id"`
	Multiplier float64 `json:"multiplier"`
}

type CashoutData struct {
	RoundID    string  `json:"round_id"`
	UserID     string  `json:"user_id"`
	Multiplier float64 `json:"multiplier"`
	Winnings   float64 `json:"winnings"`
}

// RoundCrashedData reveals the server seed so anyone can recompute the
// crash point and audit the round.
type RoundCrashedData struct {
	RoundID    string  `json:"round_id"`
	CrashPoint float64 `json:"crash_point"`
	ServerSeed string  `json:"server_seed"`
	ClientSeed string  `json:"client_seed"`
	Nonce      int     `json:"nonce"`
}

type PlayerResult struct {
	UserID          string  `json:"user_id"`
	Amount          float64 `json:"amount"`
	Multiplier      float64 `json:"multiplier,omitempty"`
	Payout          float64 `json:"payout,omitempty"`
	InsurancePayout float64 `json:"insurance_payout,omitempty"`
}

type RoundResultsData struct {
	RoundID string         `json:"round_id"`
	Winners []PlayerResult `json:"winners"`
	Losers  []PlayerResult `json:"losers"`
}
