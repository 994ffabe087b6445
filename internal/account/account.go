// Package account is the balance collaborator of the round engine. Debits
// and credits must be atomic: a failed debit leaves the balance untouched.
package account

import (
	"context"
	"errors"
	"math"
	"sync"
)

var ErrInsufficientFunds = errors.New("insufficient funds")

type Service interface {
	GetBalance(ctx context.Context, userID string) (float64, error)
	// Debit removes amount from the user's balance and returns the new
	// balance, or ErrInsufficientFunds without mutating anything.
	Debit(ctx context.Context, userID string, amount float64) (float64, error)
	// Credit adds amount to the user's balance and returns the new balance.
	Credit(ctx context.Context, userID string, amount float64) (float64, error)
	// SetBalance overwrites the balance. Admin/testing use only.
	SetBalance(ctx context.Context, userID string, balance float64) error
}

// Memory is an in-process Service used in tests and local development.
type Memory struct {
	mu       sync.Mutex
	balances map[string]float64
}

func NewMemory() *Memory {
	return &Memory{balances: make(map[string]float64)}
}

func (m *Memory) GetBalance(_ context.Context, userID string) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.balances[userID], nil
}

func (m *Memory) Debit(_ context.Context, userID string, amount float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := m.balances[userID]
	if balance < amount {
		return balance, ErrInsufficientFunds
	}
	balance = round2(balance - amount)
	m.balances[userID] = balance
	return balance, nil
}

func (m *Memory) Credit(_ context.Context, userID string, amount float64) (float64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	balance := round2(m.balances[userID] + amount)
	m.balances[userID] = balance
	return balance, nil
}

func (m *Memory) SetBalance(_ context.Context, userID string, balance float64) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.balances[userID] = balance
	return nil
}

func round2(v float64) float64 {
	return math.Round(v*100) / 100
}
