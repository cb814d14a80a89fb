package strategies

import (
	"context"
	"testing"

	"github.com/hushnetwork-social/hush-node/pkg/bank"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

func newValidated(payload txkind.Payload) tx.Validated {
	return tx.Validated{
		Signed: tx.Signed{
			Unsigned: tx.Unsigned{
				TransactionId: ids.NewTransactionId(),
				PayloadKind:   payload.Kind(),
				Timestamp:     ids.Now(),
				Payload:       payload,
			},
		},
	}
}

func TestRewardStrategy_CreditsIssuerExactlyOnce(t *testing.T) {
	if testPersist == nil {
		t.Skip("HUSH_TEST_DB not configured")
	}
	ctx := context.Background()
	strategy := NewRewardStrategy(testPersist)
	issuer := "reward-test-" + ids.NewTransactionId().String()

	validated := newValidated(txkind.RewardPayload{
		IssuerPublicAddress: issuer,
		Token:               "HUSH",
		Amount:              "1",
	})

	if err := strategy.Apply(ctx, ids.BlockIndex(1), validated); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Replaying the exact same validated transaction must not double-credit.
	if err := strategy.Apply(ctx, ids.BlockIndex(1), validated); err != nil {
		t.Fatalf("Apply (replay): %v", err)
	}

	bankRepo := bank.NewRepository(testPersist.DB())
	balance, err := bankRepo.Get(ctx, issuer, "HUSH")
	if err != nil {
		t.Fatalf("Get balance: %v", err)
	}
	if balance.Balance.String() != "1" {
		t.Errorf("expected balance 1 after replayed reward, got %s", balance.Balance.String())
	}
}

func TestSendFundsStrategy_DebitsAndCreditsAtomically(t *testing.T) {
	if testPersist == nil {
		t.Skip("HUSH_TEST_DB not configured")
	}
	ctx := context.Background()
	from := "sendfunds-from-" + ids.NewTransactionId().String()
	to := "sendfunds-to-" + ids.NewTransactionId().String()

	rewardStrategy := NewRewardStrategy(testPersist)
	if err := rewardStrategy.Apply(ctx, ids.BlockIndex(1), newValidated(txkind.RewardPayload{
		IssuerPublicAddress: from,
		Token:               "HUSH",
		Amount:              "10",
	})); err != nil {
		t.Fatalf("seeding sender balance: %v", err)
	}

	sendStrategy := NewSendFundsStrategy(testPersist)
	if err := sendStrategy.Apply(ctx, ids.BlockIndex(2), newValidated(txkind.SendFundsPayload{
		FromPublicAddress: from,
		ToPublicAddress:   to,
		Token:              "HUSH",
		Amount:             "4",
	})); err != nil {
		t.Fatalf("Apply: %v", err)
	}

	bankRepo := bank.NewRepository(testPersist.DB())
	fromBalance, err := bankRepo.Get(ctx, from, "HUSH")
	if err != nil {
		t.Fatalf("Get sender balance: %v", err)
	}
	if fromBalance.Balance.String() != "6" {
		t.Errorf("expected sender balance 6, got %s", fromBalance.Balance.String())
	}
	toBalance, err := bankRepo.Get(ctx, to, "HUSH")
	if err != nil {
		t.Fatalf("Get recipient balance: %v", err)
	}
	if toBalance.Balance.String() != "4" {
		t.Errorf("expected recipient balance 4, got %s", toBalance.Balance.String())
	}
}
