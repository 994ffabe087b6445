package game

import "errors"

// Bet and cashout rejections. These are expected outcomes under concurrent
// play and are matched with errors.Is by callers, never treated as crashes.
var (
	ErrInsufficientBalance = errors.New("insufficient balance")
	ErrInvalidAmount       = errors.New("bet amount out of bounds")
	ErrDuplicateBet        = errors.New("bet already placed for this round")
	ErrWrongPhase          = errors.New("operation not allowed in current round phase")
	ErrNoActiveBet         = errors.New("no active bet for this round")
	ErrAlreadyCrashed      = errors.New("round already crashed")
)

// Insurance claim rejections.
var (
	ErrAlreadyClaimed    = errors.New("insurance already claimed")
	ErrNotEligible       = errors.New("bet not eligible for insurance claim")
	ErrUnknownPolicyType = errors.New("unknown insurance policy type")
)

// ErrInvalidSeed is returned when a crash point is requested for an empty
// server or client seed.
var ErrInvalidSeed = errors.New("seed must not be empty")
