package account

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/redis/go-redis/v9"
)

const balanceKeyPrefix = "crash:balance:"

// Redis stores balances as float strings under crash:balance:<userID>.
// Debits go through IncrByFloat with a compensating credit on overdraft, so
// concurrent debits against the same user cannot double-spend.
type Redis struct {
	client *redis.Client
}

func NewRedis(client *redis.Client) *Redis {
	return &Redis{client: client}
}

func (r *Redis) GetBalance(ctx context.Context, userID string) (float64, error) {
	balance, err := r.client.Get(ctx, balanceKeyPrefix+userID).Float64()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("get balance: %w", err)
	}
	return balance, nil
}

func (r *Redis) Debit(ctx context.Context, userID string, amount float64) (float64, error) {
	key := balanceKeyPrefix + userID

	newBalance, err := r.client.IncrByFloat(ctx, key, -amount).Result()
	if err != nil {
		return 0, fmt.Errorf("debit: %w", err)
	}
	if newBalance < 0 {
		// Overdraft: put the funds back and reject.
		if _, rbErr := r.client.IncrByFloat(ctx, key, amount).Result(); rbErr != nil {
			log.Printf("[ACCOUNT] rollback failed for user %s: %v", userID, rbErr)
		}
		return newBalance + amount, ErrInsufficientFunds
	}
	return newBalance, nil
}

func (r *Redis) Credit(ctx context.Context, userID string, amount float64) (float64, error) {
	newBalance, err := r.client.IncrByFloat(ctx, balanceKeyPrefix+userID, amount).Result()
	if err != nil {
		return 0, fmt.Errorf("credit: %w", err)
	}
	return newBalance, nil
}

func (r *Redis) SetBalance(ctx context.Context, userID string, balance float64) error {
	if err := r.client.Set(ctx, balanceKeyPrefix+userID, balance, 0).Err(); err != nil {
		return fmt.Errorf("set balance: %w", err)
	}
	return nil
}
