package dispatcher

import (
	"context"
	"testing"
	"time"

	"github.com/hushnetwork-social/hush-node/pkg/block"
	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/registry"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// slowStrategy sleeps before returning, simulating a block whose strategy
// set takes longer than a later block's.
type slowStrategy struct{ delay time.Duration }

func (s slowStrategy) Apply(ctx context.Context, _ ids.BlockIndex, _ tx.Validated) error {
	time.Sleep(s.delay)
	return nil
}

type fastStrategy struct{}

func (fastStrategy) Apply(ctx context.Context, _ ids.BlockIndex, _ tx.Validated) error { return nil }

func validatedOfKind(kind txkind.PayloadKind) tx.Validated {
	return tx.Validated{Signed: tx.Signed{Unsigned: tx.Unsigned{
		TransactionId: ids.NewTransactionId(),
		PayloadKind:   kind,
		Timestamp:     ids.Now(),
	}}}
}

func TestDispatcher_PublishesBlockIndexCompletedInCommitOrderEvenWhenEarlierBlockIsSlower(t *testing.T) {
	reg := registry.New()
	reg.Register(registry.Entry{Kind: txkind.KindReward, Strategy: slowStrategy{delay: 75 * time.Millisecond}})
	reg.Register(registry.Entry{Kind: txkind.KindSendFunds, Strategy: fastStrategy{}})

	bus := eventbus.New()
	d := New(reg, bus, nil)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go d.Run(ctx)

	completedCh := make(chan eventbus.BlockIndexCompleted, 4)
	sub := bus.SubscribeBlockIndexCompleted(completedCh)
	defer sub.Unsubscribe()

	block1 := block.FinalizedBlock{SignedBlock: block.SignedBlock{UnsignedBlock: block.UnsignedBlock{
		BlockIndex:   ids.BlockIndex(1),
		Transactions: []tx.Validated{validatedOfKind(txkind.KindReward)},
	}}}
	block2 := block.FinalizedBlock{SignedBlock: block.SignedBlock{UnsignedBlock: block.UnsignedBlock{
		BlockIndex:   ids.BlockIndex(2),
		Transactions: []tx.Validated{validatedOfKind(txkind.KindSendFunds)},
	}}}

	bus.PublishBlockCreated(eventbus.BlockCreated{Block: block1})
	bus.PublishBlockCreated(eventbus.BlockCreated{Block: block2})

	var got []ids.BlockIndex
	for i := 0; i < 2; i++ {
		select {
		case ev := <-completedCh:
			got = append(got, ev.BlockIndex)
		case <-time.After(time.Second):
			t.Fatalf("timed out waiting for BlockIndexCompleted #%d", i+1)
		}
	}

	if len(got) != 2 || got[0] != ids.BlockIndex(1) || got[1] != ids.BlockIndex(2) {
		t.Errorf("expected BlockIndexCompleted(1) before BlockIndexCompleted(2), got %v", got)
	}
}
