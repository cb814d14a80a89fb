// Package eventbus is the process-wide publish/subscribe fabric connecting
// the block assembler, the scheduler, the indexing dispatcher, and the
// idempotency gate. Each event type gets its own event.Feed
// (github.com/ethereum/go-ethereum/event), which already gives us the
// "copy-on-publish snapshot, subscribe/unsubscribe rare and non-blocking"
// guarantee spec §5 requires.
package eventbus

import (
	"github.com/ethereum/go-ethereum/event"
	"github.com/hushnetwork-social/hush-node/pkg/block"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
)

// TransactionReceived fires when a transaction enters the mempool.
type TransactionReceived struct {
	TransactionId ids.TransactionId
}

// BlockCreated fires after a block and its chain-state update have committed.
type BlockCreated struct {
	Block block.FinalizedBlock
}

// BlockchainInitialized fires once after C9 has ensured a genesis block exists.
type BlockchainInitialized struct{}

// BlockIndexCompleted fires after every strategy invocation induced by a
// BlockCreated(i) has returned.
type BlockIndexCompleted struct {
	BlockIndex ids.BlockIndex
}

// IdentityUpdated fires when UpdateIdentityStrategy changes a profile alias.
type IdentityUpdated struct {
	PublicSigningAddress string
}

// Bus is the process-wide event aggregator. The zero value is not usable;
// construct with New.
type Bus struct {
	txReceivedFeed          event.Feed
	blockCreatedFeed        event.Feed
	blockchainInitFeed      event.Feed
	blockIndexCompletedFeed event.Feed
	identityUpdatedFeed     event.Feed
}

// New constructs an empty Bus.
func New() *Bus { return &Bus{} }

// PublishTransactionReceived sends ev to every current subscriber and
// returns once all of them have consumed it from their channel.
func (b *Bus) PublishTransactionReceived(ev TransactionReceived) {
	b.txReceivedFeed.Send(ev)
}

func (b *Bus) SubscribeTransactionReceived(ch chan<- TransactionReceived) event.Subscription {
	return b.txReceivedFeed.Subscribe(ch)
}

func (b *Bus) PublishBlockCreated(ev BlockCreated) {
	b.blockCreatedFeed.Send(ev)
}

func (b *Bus) SubscribeBlockCreated(ch chan<- BlockCreated) event.Subscription {
	return b.blockCreatedFeed.Subscribe(ch)
}

func (b *Bus) PublishBlockchainInitialized(ev BlockchainInitialized) {
	b.blockchainInitFeed.Send(ev)
}

func (b *Bus) SubscribeBlockchainInitialized(ch chan<- BlockchainInitialized) event.Subscription {
	return b.blockchainInitFeed.Subscribe(ch)
}

func (b *Bus) PublishBlockIndexCompleted(ev BlockIndexCompleted) {
	b.blockIndexCompletedFeed.Send(ev)
}

func (b *Bus) SubscribeBlockIndexCompleted(ch chan<- BlockIndexCompleted) event.Subscription {
	return b.blockIndexCompletedFeed.Subscribe(ch)
}

func (b *Bus) PublishIdentityUpdated(ev IdentityUpdated) {
	b.identityUpdatedFeed.Send(ev)
}

func (b *Bus) SubscribeIdentityUpdated(ch chan<- IdentityUpdated) event.Subscription {
	return b.identityUpdatedFeed.Subscribe(ch)
}
