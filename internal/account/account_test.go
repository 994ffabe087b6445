package account

import (
	"context"
	"errors"
	"sync"
	"testing"
)

func TestMemory_DebitCredit(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SetBalance(ctx, "alice", 100); err != nil {
		t.Fatal(err)
	}

	balance, err := m.Debit(ctx, "alice", 30)
	if err != nil {
		t.Fatalf("Debit() error = %v", err)
	}
	if balance != 70 {
		t.Errorf("Debit() balance = %v, want 70", balance)
	}

	balance, err = m.Credit(ctx, "alice", 15.5)
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if balance != 85.5 {
		t.Errorf("Credit() balance = %v, want 85.5", balance)
	}
}

func TestMemory_DebitInsufficient(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SetBalance(ctx, "bob", 50); err != nil {
		t.Fatal(err)
	}

	balance, err := m.Debit(ctx, "bob", 50.01)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Debit() error = %v, want ErrInsufficientFunds", err)
	}
	// A rejected debit must not touch the balance.
	if balance != 50 {
		t.Errorf("balance after failed debit = %v, want 50", balance)
	}

	got, _ := m.GetBalance(ctx, "bob")
	if got != 50 {
		t.Errorf("GetBalance() = %v, want 50", got)
	}
}

func TestMemory_UnknownUser(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	balance, err := m.GetBalance(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if balance != 0 {
		t.Errorf("GetBalance() = %v, want 0", balance)
	}

	if _, err := m.Debit(ctx, "nobody", 1); !errors.Is(err, ErrInsufficientFunds) {
		t.Errorf("Debit() error = %v, want ErrInsufficientFunds", err)
	}
}

func TestMemory_Rounding(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	// 0.1 + 0.2 style drift must not accumulate in balances.
	for i := 0; i < 10; i++ {
		if _, err := m.Credit(ctx, "carol", 0.1); err != nil {
			t.Fatal(err)
		}
	}

	balance, _ := m.GetBalance(ctx, "carol")
	if balance != 1.00 {
		t.Errorf("balance = %v, want 1.00", balance)
	}
}

func TestMemory_ConcurrentAccess(t *testing.T) {
	ctx := context.Background()
	m := NewMemory()

	if err := m.SetBalance(ctx, "dave", 1000); err != nil {
		t.Fatal(err)
	}

	var wg sync.WaitGroup
	for i := 0; i < 100; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Debit(ctx, "dave", 5); err != nil {
				t.Errorf("Debit() error = %v", err)
			}
		}()
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := m.Credit(ctx, "dave", 5); err != nil {
				t.Errorf("Credit() error = %v", err)
			}
		}()
	}
	wg.Wait()

	balance, _ := m.GetBalance(ctx, "dave")
	if balance != 1000 {
		t.Errorf("balance = %v, want 1000 after balanced debits and credits", balance)
	}
}
