// Package bank is the Bank bounded context: address balances, debited and
// credited only by index strategies reacting to committed blocks (spec §3
// lifecycle rule — derived rows are never written from RPC paths).
package bank

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math/big"

	"github.com/hushnetwork-social/hush-node/pkg/persistence"
)

// AddressBalance is keyed by (PublicAddress, Token); Balance is a
// fixed-precision decimal encoded as a string (spec §3), backed here by
// math/big.Int over the smallest token unit.
type AddressBalance struct {
	PublicAddress string
	Token         string
	Balance       *big.Int
}

type Repository struct {
	q persistence.Querier
}

func NewRepository(q persistence.Querier) *Repository { return &Repository{q: q} }

// Get returns the balance for (address, token), or a zero balance if no
// row exists yet — a missing row is equivalent to a zero balance, not an error.
func (r *Repository) Get(ctx context.Context, address, token string) (AddressBalance, error) {
	var raw string
	row := r.q.QueryRowContext(ctx, `SELECT balance FROM address_balances WHERE public_address = $1 AND token = $2`, address, token)
	err := row.Scan(&raw)
	if errors.Is(err, sql.ErrNoRows) {
		return AddressBalance{PublicAddress: address, Token: token, Balance: big.NewInt(0)}, nil
	}
	if err != nil {
		return AddressBalance{}, fmt.Errorf("reading address balance: %w", persistence.ClassifyConnErr(err))
	}

	balance, ok := new(big.Int).SetString(raw, 10)
	if !ok {
		return AddressBalance{}, fmt.Errorf("corrupt balance value %q for %s/%s", raw, address, token)
	}
	return AddressBalance{PublicAddress: address, Token: token, Balance: balance}, nil
}

// ApplyDelta adds delta (which may be negative) to the balance row,
// creating it with a zero base if absent. Returns persistence.ErrConflict
// if the result would violate invariant 7 (balance never negative); the
// caller's unit of work should be rolled back in that case.
func (r *Repository) ApplyDelta(ctx context.Context, address, token string, delta *big.Int) error {
	current, err := r.Get(ctx, address, token)
	if err != nil {
		return err
	}

	next := new(big.Int).Add(current.Balance, delta)
	if next.Sign() < 0 {
		return persistence.ErrConflict
	}

	_, err = r.q.ExecContext(ctx, `
		INSERT INTO address_balances (public_address, token, balance, updated_at)
		VALUES ($1, $2, $3, now())
		ON CONFLICT (public_address, token) DO UPDATE SET balance = EXCLUDED.balance, updated_at = now()`,
		address, token, next.String())
	if err != nil {
		return fmt.Errorf("applying balance delta: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// HasAppliedReward reports whether a reward transaction id has already
// been applied, the idempotence key RewardStrategy uses to skip replay.
func (r *Repository) HasAppliedReward(ctx context.Context, rewardTransactionID string) (bool, error) {
	var exists bool
	row := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM applied_reward_transactions WHERE reward_transaction_id = $1)`, rewardTransactionID)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("checking applied reward: %w", persistence.ClassifyConnErr(err))
	}
	return exists, nil
}

// MarkRewardApplied records a reward transaction id as applied.
func (r *Repository) MarkRewardApplied(ctx context.Context, rewardTransactionID string) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO applied_reward_transactions (reward_transaction_id) VALUES ($1)
		ON CONFLICT (reward_transaction_id) DO NOTHING`, rewardTransactionID)
	if err != nil {
		return fmt.Errorf("marking reward applied: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}
