// Package dispatcher is the Indexing Dispatcher (C11): on every committed
// block it fans each transaction out to its registered index strategy and,
// once every invocation for the block has returned, publishes
// BlockIndexCompleted (spec §4.11).
package dispatcher

import (
	"context"
	"log"
	"sync"
	"time"

	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/metrics"
	"github.com/hushnetwork-social/hush-node/pkg/registry"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// Dispatcher subscribes to BlockCreated and drives per-transaction
// strategy application.
type Dispatcher struct {
	reg     *registry.Registry
	bus     *eventbus.Bus
	metrics *metrics.Registry
	logger  *log.Logger
}

// New constructs a Dispatcher.
func New(reg *registry.Registry, bus *eventbus.Bus, m *metrics.Registry) *Dispatcher {
	return &Dispatcher{
		reg:     reg,
		bus:     bus,
		metrics: m,
		logger:  log.New(log.Writer(), "[Dispatcher] ", log.LstdFlags),
	}
}

// Run subscribes to BlockCreated and blocks until ctx is cancelled,
// dispatching every block it observes. Intended to be run in its own
// goroutine by the composition root.
func (d *Dispatcher) Run(ctx context.Context) {
	ch := make(chan eventbus.BlockCreated, 16)
	sub := d.bus.SubscribeBlockCreated(ch)
	defer sub.Unsubscribe()

	// prevDone is the sequence gate (spec §8 ordering law): block i's
	// BlockIndexCompleted must publish before block j's for i<j, even
	// though each block's own strategies run in parallel with the next
	// block's. Each dispatchBlock call waits on the previous block's
	// done channel immediately before publishing, then closes its own.
	var prevDone chan struct{}
	for {
		select {
		case <-ctx.Done():
			return
		case ev := <-ch:
			done := make(chan struct{})
			go d.dispatchBlock(ctx, ev, prevDone, done)
			prevDone = done
		}
	}
}

// dispatchBlock implements spec §4.11 steps 1-5 for one block. Strategy
// application runs concurrently with the previous and next block's
// strategy application (spec §5 ordering guarantee 3); only the final
// BlockIndexCompleted publish is serialized against prevDone.
func (d *Dispatcher) dispatchBlock(ctx context.Context, ev eventbus.BlockCreated, prevDone <-chan struct{}, done chan<- struct{}) {
	defer close(done)

	txs := ev.Block.Transactions
	var wg sync.WaitGroup
	wg.Add(len(txs))

	// Reactions run one after another in block order, so a second reaction
	// with the same nullifier sees the first one's committed state and
	// applies as UPDATE_VOTE; every other transaction runs concurrently.
	var reactionTxs []tx.Validated
	for _, t := range txs {
		t := t
		if t.ExtractUnsigned().PayloadKind == txkind.KindNewReaction {
			reactionTxs = append(reactionTxs, t)
			continue
		}
		go func() {
			defer wg.Done()
			d.dispatchTransaction(ctx, ev.Block.BlockIndex, t)
		}()
	}
	go func() {
		for _, t := range reactionTxs {
			d.dispatchTransaction(ctx, ev.Block.BlockIndex, t)
			wg.Done()
		}
	}()

	wg.Wait()

	if prevDone != nil {
		select {
		case <-prevDone:
		case <-ctx.Done():
			return
		}
	}

	d.bus.PublishBlockIndexCompleted(eventbus.BlockIndexCompleted{BlockIndex: ev.Block.BlockIndex})
}

// dispatchTransaction looks up the one registered strategy for this
// transaction's payload kind and applies it. A strategy failure is logged
// and isolated from every other transaction's strategy (spec §7:
// IndexingFailed, "logged, other strategies continue").
func (d *Dispatcher) dispatchTransaction(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) {
	kind := t.ExtractUnsigned().PayloadKind
	start := time.Now()
	defer func() { d.metrics.ObserveIndexDispatchSeconds(kind.String(), time.Since(start).Seconds()) }()

	entry, err := d.reg.Lookup(kind)
	if err != nil {
		d.logger.Printf("no registry entry for kind %s (transaction %s): %v", kind, t.Unsigned.TransactionId, err)
		return
	}
	if entry.Strategy == nil {
		return
	}

	defer func() {
		if r := recover(); r != nil {
			d.logger.Printf("strategy for kind %s panicked on transaction %s: %v", kind, t.Unsigned.TransactionId, r)
		}
	}()

	if err := entry.Strategy.Apply(ctx, blockIndex, t); err != nil {
		d.logger.Printf("strategy for kind %s failed on transaction %s: %v", kind, t.Unsigned.TransactionId, err)
	}
}
