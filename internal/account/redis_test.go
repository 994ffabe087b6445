package account

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/redis/go-redis/v9"
)

// newTestRedis connects to a local Redis on DB 15 and skips the test when no
// instance is running. DB 15 is flushed before each test.
func newTestRedis(t *testing.T) *Redis {
	t.Helper()

	client := redis.NewClient(&redis.Options{
		Addr:        "localhost:6379",
		DB:          15,
		DialTimeout: 2 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		t.Skipf("Redis not available: %v", err)
	}
	if err := client.FlushDB(ctx).Err(); err != nil {
		t.Fatalf("could not flush test DB: %v", err)
	}
	t.Cleanup(func() { client.Close() })

	return NewRedis(client)
}

func TestRedis_DebitCredit(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	if err := r.SetBalance(ctx, "alice", 100); err != nil {
		t.Fatal(err)
	}

	balance, err := r.Debit(ctx, "alice", 30)
	if err != nil {
		t.Fatalf("Debit() error = %v", err)
	}
	if balance != 70 {
		t.Errorf("Debit() balance = %v, want 70", balance)
	}

	balance, err = r.Credit(ctx, "alice", 45)
	if err != nil {
		t.Fatalf("Credit() error = %v", err)
	}
	if balance != 115 {
		t.Errorf("Credit() balance = %v, want 115", balance)
	}
}

func TestRedis_DebitOverdraftRollsBack(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	if err := r.SetBalance(ctx, "bob", 50); err != nil {
		t.Fatal(err)
	}

	balance, err := r.Debit(ctx, "bob", 80)
	if !errors.Is(err, ErrInsufficientFunds) {
		t.Fatalf("Debit() error = %v, want ErrInsufficientFunds", err)
	}
	if balance != 50 {
		t.Errorf("reported balance = %v, want 50", balance)
	}

	// The compensating credit must leave the stored balance untouched.
	got, err := r.GetBalance(ctx, "bob")
	if err != nil {
		t.Fatal(err)
	}
	if got != 50 {
		t.Errorf("GetBalance() = %v, want 50 after rolled-back debit", got)
	}
}

func TestRedis_GetBalanceUnknownUser(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	balance, err := r.GetBalance(ctx, "nobody")
	if err != nil {
		t.Fatalf("GetBalance() error = %v", err)
	}
	if balance != 0 {
		t.Errorf("GetBalance() = %v, want 0", balance)
	}
}

func TestRedis_ConcurrentDebits(t *testing.T) {
	ctx := context.Background()
	r := newTestRedis(t)

	if err := r.SetBalance(ctx, "carol", 100); err != nil {
		t.Fatal(err)
	}

	// 20 workers race to debit 10 each from a 100 balance. Exactly 10 can
	// win; the rest must see ErrInsufficientFunds and the total must never go
	// negative.
	var wg sync.WaitGroup
	var mu sync.Mutex
	succeeded := 0

	for i := 0; i < 20; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if _, err := r.Debit(ctx, "carol", 10); err == nil {
				mu.Lock()
				succeeded++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	if succeeded != 10 {
		t.Errorf("successful debits = %d, want 10", succeeded)
	}
	balance, _ := r.GetBalance(ctx, "carol")
	if balance != 0 {
		t.Errorf("final balance = %v, want 0", balance)
	}
}
