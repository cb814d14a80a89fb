package mempool

import (
	"testing"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

type fakeTracker struct {
	released []ids.FeedMessageId
}

func (f *fakeTracker) RemoveFromTracking(ids []ids.FeedMessageId) {
	f.released = append(f.released, ids...)
}

func validatedReward() tx.Validated {
	return tx.Validated{
		Signed: tx.Signed{
			Unsigned: tx.Unsigned{
				TransactionId: ids.NewTransactionId(),
				PayloadKind:   txkind.KindReward,
				Timestamp:     ids.Now(),
				Payload:       txkind.RewardPayload{IssuerPublicAddress: "addr", Token: "HUSH", Amount: "1"},
			},
		},
	}
}

func validatedFeedMessage(messageID ids.FeedMessageId) tx.Validated {
	return tx.Validated{
		Signed: tx.Signed{
			Unsigned: tx.Unsigned{
				TransactionId: ids.NewTransactionId(),
				PayloadKind:   txkind.KindNewFeedMessage,
				Timestamp:     ids.Now(),
				Payload: txkind.NewFeedMessagePayload{
					FeedMessageId:       messageID.String(),
					FeedId:              ids.NewFeedId().String(),
					IssuerPublicAddress: "addr",
					Content:             "hi",
				},
			},
		},
	}
}

func TestPool_AddAndDrain(t *testing.T) {
	p := New(&fakeTracker{})
	p.Add(validatedReward())
	p.Add(validatedReward())

	if got := p.Len(); got != 2 {
		t.Fatalf("expected Len 2, got %d", got)
	}

	batch := p.Drain(10)
	if len(batch) != 2 {
		t.Fatalf("expected to drain 2, got %d", len(batch))
	}
	if p.Len() != 0 {
		t.Fatalf("expected pool empty after drain, got %d", p.Len())
	}
}

func TestPool_DrainRespectsMaxN(t *testing.T) {
	p := New(&fakeTracker{})
	for i := 0; i < 5; i++ {
		p.Add(validatedReward())
	}

	first := p.Drain(2)
	if len(first) != 2 {
		t.Fatalf("expected first drain of 2, got %d", len(first))
	}
	if p.Len() != 3 {
		t.Fatalf("expected 3 remaining, got %d", p.Len())
	}
}

func TestPool_DrainReleasesFeedMessageIdsFromIdempotencyTracking(t *testing.T) {
	tracker := &fakeTracker{}
	p := New(tracker)
	messageID := ids.NewFeedMessageId()
	p.Add(validatedFeedMessage(messageID))
	p.Add(validatedReward())

	p.Drain(10)

	if len(tracker.released) != 1 {
		t.Fatalf("expected exactly 1 released id, got %d", len(tracker.released))
	}
	if tracker.released[0] != messageID {
		t.Errorf("expected released id %s, got %s", messageID, tracker.released[0])
	}
}

func TestPool_DrainWithZeroOrNegativeUsesMaxDrainBatch(t *testing.T) {
	p := New(&fakeTracker{}, WithMaxDrainBatch(2))
	for i := 0; i < 5; i++ {
		p.Add(validatedReward())
	}

	batch := p.Drain(0)
	if len(batch) != 2 {
		t.Fatalf("expected Drain(0) to fall back to maxDrainBatch=2, got %d", len(batch))
	}
}
