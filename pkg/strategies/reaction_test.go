package strategies

import (
	"context"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

func encodeVote(t *testing.T, scalar int64) [][]byte {
	t.Helper()
	out := make([][]byte, reactions.EmojiSlots)
	for i := range out {
		var p bn254.G1Affine
		p.ScalarMultiplicationBase(big.NewInt(scalar))
		b := p.Bytes()
		out[i] = b[:]
	}
	return out
}

func TestReactionStrategy_FirstVoteThenUpdateVote(t *testing.T) {
	if testPersist == nil {
		t.Skip("HUSH_TEST_DB not configured")
	}
	ctx := context.Background()
	strategy := NewReactionStrategy(testPersist, nil)

	feedID := ids.NewFeedId()
	messageID := ids.NewFeedMessageId()
	nullifier := []byte("nullifier-" + ids.NewTransactionId().String())

	firstVote := encodeVote(t, 1)
	firstPayload := txkind.NewReactionPayload{
		FeedId:         feedID.String(),
		MessageId:      messageID.String(),
		Nullifier:      nullifier,
		VoteC1:         firstVote,
		VoteC2:         firstVote,
		CircuitVersion: "dev-mode-v1",
	}
	if err := strategy.Apply(ctx, ids.BlockIndex(1), newValidated(firstPayload)); err != nil {
		t.Fatalf("Apply (first vote): %v", err)
	}

	repo := reactions.NewRepository(testPersist.DB())
	tallyAfterFirst, err := repo.GetTally(ctx, messageID)
	if err != nil {
		t.Fatalf("GetTally after first vote: %v", err)
	}
	if tallyAfterFirst.TotalCount != 1 {
		t.Errorf("expected TotalCount 1 after first vote, got %d", tallyAfterFirst.TotalCount)
	}

	secondVote := encodeVote(t, 2)
	secondPayload := firstPayload
	secondPayload.VoteC1 = secondVote
	secondPayload.VoteC2 = secondVote
	if err := strategy.Apply(ctx, ids.BlockIndex(2), newValidated(secondPayload)); err != nil {
		t.Fatalf("Apply (update vote): %v", err)
	}

	tallyAfterUpdate, err := repo.GetTally(ctx, messageID)
	if err != nil {
		t.Fatalf("GetTally after update vote: %v", err)
	}
	if tallyAfterUpdate.TotalCount != 1 {
		t.Errorf("expected TotalCount to remain 1 after an update vote, got %d", tallyAfterUpdate.TotalCount)
	}
	if tallyAfterUpdate.Version != tallyAfterFirst.Version+1 {
		t.Errorf("expected Version to advance by 1 on update, got %d -> %d", tallyAfterFirst.Version, tallyAfterUpdate.Version)
	}

	nullifierRow, err := repo.GetNullifier(ctx, nullifier)
	if err != nil {
		t.Fatalf("GetNullifier: %v", err)
	}
	if nullifierRow.VoteC1[0] == nil {
		t.Fatal("expected the stored nullifier to carry the updated vote")
	}
}
