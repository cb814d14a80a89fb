// Package strategies implements the Index Strategies (C12): one
// registry.IndexStrategy per payload kind, each opening its own
// WritableUnitOfWork to project a committed Validated transaction onto
// derived domain state (spec §4.12).
package strategies

import (
	"context"
	"fmt"
	"math/big"

	"github.com/hushnetwork-social/hush-node/pkg/bank"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// RewardStrategy credits the reward transaction's issuer, guarded by
// applied_reward_transactions so a replayed reward (e.g. a restart that
// re-dispatches an already-indexed block) never double-credits.
type RewardStrategy struct {
	persist *persistence.Client
}

func NewRewardStrategy(persist *persistence.Client) *RewardStrategy {
	return &RewardStrategy{persist: persist}
}

// Apply implements registry.IndexStrategy.
func (s *RewardStrategy) Apply(ctx context.Context, _ ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.RewardPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a reward payload", t.Unsigned.TransactionId)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	bankRepo := bank.NewRepository(uow.Querier())
	transactionID := t.Unsigned.TransactionId.String()

	applied, err := bankRepo.HasAppliedReward(ctx, transactionID)
	if err != nil {
		return fmt.Errorf("checking applied reward: %w", err)
	}
	if applied {
		return nil
	}

	amount, ok := new(big.Int).SetString(payload.Amount, 10)
	if !ok {
		return fmt.Errorf("invalid reward amount %q", payload.Amount)
	}

	if err := bankRepo.ApplyDelta(ctx, payload.IssuerPublicAddress, payload.Token, amount); err != nil {
		return fmt.Errorf("crediting reward: %w", err)
	}
	if err := bankRepo.MarkRewardApplied(ctx, transactionID); err != nil {
		return fmt.Errorf("marking reward applied: %w", err)
	}

	return uow.CommitAsync()
}

// SendFundsStrategy debits FromPublicAddress and credits ToPublicAddress in
// a single unit of work, so a failed debit never leaves a dangling credit
// (spec §8 invariant 6: balance never goes negative; scenario 5: transfer
// atomicity).
type SendFundsStrategy struct {
	persist *persistence.Client
}

func NewSendFundsStrategy(persist *persistence.Client) *SendFundsStrategy {
	return &SendFundsStrategy{persist: persist}
}

// Apply implements registry.IndexStrategy.
func (s *SendFundsStrategy) Apply(ctx context.Context, _ ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.SendFundsPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a send-funds payload", t.Unsigned.TransactionId)
	}

	amount, ok := new(big.Int).SetString(payload.Amount, 10)
	if !ok {
		return fmt.Errorf("invalid transfer amount %q", payload.Amount)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	bankRepo := bank.NewRepository(uow.Querier())

	if err := bankRepo.ApplyDelta(ctx, payload.FromPublicAddress, payload.Token, new(big.Int).Neg(amount)); err != nil {
		return fmt.Errorf("debiting sender: %w", err)
	}
	if err := bankRepo.ApplyDelta(ctx, payload.ToPublicAddress, payload.Token, amount); err != nil {
		return fmt.Errorf("crediting recipient: %w", err)
	}

	return uow.CommitAsync()
}
