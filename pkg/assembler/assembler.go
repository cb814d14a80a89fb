// Package assembler is the Block Assembler (C8): the single place that
// turns a drained batch of validated transactions into a committed block,
// under the commit lock described in spec §4.8 / §5 ordering guarantee 1.
package assembler

import (
	"context"
	"crypto/ed25519"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/hushnetwork-social/hush-node/pkg/block"
	"github.com/hushnetwork-social/hush-node/pkg/blockchain"
	"github.com/hushnetwork-social/hush-node/pkg/chaincache"
	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/metrics"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// Producer is the block producer's signing identity: reward transactions
// are both user-signed and validator-signed with this same key (spec §9
// open question, resolved — self-validation is allowed for reward
// transactions), and the block envelope itself is signed with it too.
type Producer struct {
	PublicSigningAddress string
	PrivateKey            ed25519.PrivateKey
}

// RewardSettings parameterizes the reward transaction prepended to every
// assembled block.
type RewardSettings struct {
	Token  string
	Amount string
}

// Assembler owns the commit lock and every collaborator needed to turn a
// drained transaction batch into a durable, published block.
type Assembler struct {
	mu sync.Mutex

	cache    *chaincache.Cache
	persist  *persistence.Client
	bus      *eventbus.Bus
	metrics  *metrics.Registry
	reward   RewardSettings
	producer Producer
}

// New constructs an Assembler.
func New(cache *chaincache.Cache, persist *persistence.Client, bus *eventbus.Bus, m *metrics.Registry, reward RewardSettings, producer Producer) *Assembler {
	return &Assembler{cache: cache, persist: persist, bus: bus, metrics: m, reward: reward, producer: producer}
}

// AssembleGenesisAsync builds the first block (spec §4.9 / §9: genesis
// BlockIndex=1). It bypasses Cache.Advance, since the cache starts
// uninitialized rather than one block behind.
func (a *Assembler) AssembleGenesisAsync(ctx context.Context) (block.FinalizedBlock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	prior := a.cache.Read()

	genesis := block.Genesis()
	update := chaincache.CacheUpdate{
		BlockIndex:      genesis.BlockIndex,
		PreviousBlockId: genesis.PreviousBlockId,
		CurrentBlockId:  genesis.CurrentBlockId,
		NextBlockId:     genesis.NextBlockId,
	}
	a.cache.Apply(update)

	reward, err := a.buildRewardTransaction()
	if err != nil {
		a.cache.Rollback(prior)
		return block.FinalizedBlock{}, fmt.Errorf("building genesis reward transaction: %w", err)
	}

	unsigned := block.UnsignedBlock{
		BlockId:         update.CurrentBlockId,
		Timestamp:       ids.Now(),
		BlockIndex:      update.BlockIndex,
		PreviousBlockId: update.PreviousBlockId,
		NextBlockId:     update.NextBlockId,
		Transactions:    []tx.Validated{reward},
	}

	finalized, err := a.commit(ctx, update, unsigned, genesis)
	if err != nil {
		a.cache.Rollback(prior)
		return block.FinalizedBlock{}, err
	}
	return finalized, nil
}

// AssembleAsync implements spec §4.8's six-step algorithm for a
// non-genesis block: advance the cache under lock, build and sign the
// block (reward prepended), commit block+state in one unit of work,
// publish BlockCreated, release the lock.
func (a *Assembler) AssembleAsync(ctx context.Context, transactions []tx.Validated) (block.FinalizedBlock, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	start := time.Now()
	defer func() { a.metrics.ObserveBlockAssemblySeconds(time.Since(start).Seconds()) }()

	prior := a.cache.Read()

	// Step 1: advance the cache under the commit lock.
	update := a.cache.Advance(ids.NewBlockId)
	a.cache.Apply(update)

	reward, err := a.buildRewardTransaction()
	if err != nil {
		a.cache.Rollback(prior)
		return block.FinalizedBlock{}, fmt.Errorf("building reward transaction: %w", err)
	}

	// Step 2: build the UnsignedBlock, reward transaction prepended at index 0
	// (spec §5 ordering guarantee 2).
	all := make([]tx.Validated, 0, len(transactions)+1)
	all = append(all, reward)
	all = append(all, transactions...)

	unsigned := block.UnsignedBlock{
		BlockId:         update.CurrentBlockId,
		Timestamp:       ids.Now(),
		BlockIndex:      update.BlockIndex,
		PreviousBlockId: update.PreviousBlockId,
		NextBlockId:     update.NextBlockId,
		Transactions:    all,
	}

	state := block.BlockchainState{
		BlockchainStateId: ids.NewBlockchainStateId(),
		BlockIndex:        update.BlockIndex,
		CurrentBlockId:    update.CurrentBlockId,
		PreviousBlockId:   update.PreviousBlockId,
		NextBlockId:       update.NextBlockId,
	}

	finalized, err := a.commit(ctx, update, unsigned, state)
	if err != nil {
		// Step 4 failure: roll back the cache advance, publish nothing.
		a.cache.Rollback(prior)
		return block.FinalizedBlock{}, err
	}
	return finalized, nil
}

// commit implements steps 3-5: sign/finalize, commit in a single writable
// unit of work, then publish BlockCreated. A failure in the event-handler
// set (step 5) is logged but does not roll back the already-durable commit
// (spec §4.8 failure semantics).
func (a *Assembler) commit(ctx context.Context, update chaincache.CacheUpdate, unsigned block.UnsignedBlock, state block.BlockchainState) (block.FinalizedBlock, error) {
	producerSig, err := ids.Sign(a.producer.PrivateKey, unsigned)
	if err != nil {
		return block.FinalizedBlock{}, fmt.Errorf("signing block: %w", err)
	}
	signed := block.SignedBlock{UnsignedBlock: unsigned, BlockProducerSignature: producerSig}

	finalized, err := signed.Finalize()
	if err != nil {
		return block.FinalizedBlock{}, fmt.Errorf("finalizing block: %w", err)
	}

	uow, release, err := a.persist.CreateWritable(ctx)
	if err != nil {
		return block.FinalizedBlock{}, fmt.Errorf("opening writable unit of work: %w", persistence.ErrUnavailable)
	}
	defer release()

	repo := blockchain.NewRepository(uow.Querier())
	if err := repo.InsertBlock(ctx, finalized.ToRow()); err != nil {
		return block.FinalizedBlock{}, fmt.Errorf("inserting block: %w", err)
	}
	if err := repo.UpsertState(ctx, state); err != nil {
		return block.FinalizedBlock{}, fmt.Errorf("upserting chain state: %w", err)
	}
	if err := uow.CommitAsync(); err != nil {
		return block.FinalizedBlock{}, fmt.Errorf("committing block: %w", err)
	}

	a.metrics.SetChainHeight(int64(update.BlockIndex))

	// Step 5: publish BlockCreated. The block is already durable; a
	// subscriber panic or error here never rolls back the commit.
	func() {
		defer func() {
			if r := recover(); r != nil {
				log.Printf("assembler: BlockCreated subscriber panicked: %v", r)
			}
		}()
		a.bus.PublishBlockCreated(eventbus.BlockCreated{Block: finalized})
	}()

	return finalized, nil
}

// buildRewardTransaction mints the reward transaction prepended to every
// block, signed by the producer as both user and validator (spec §9).
func (a *Assembler) buildRewardTransaction() (tx.Validated, error) {
	payload := txkind.RewardPayload{
		IssuerPublicAddress: a.producer.PublicSigningAddress,
		Token:               a.reward.Token,
		Amount:              a.reward.Amount,
	}

	unsigned := tx.Unsigned{
		TransactionId: ids.NewTransactionId(),
		PayloadKind:   txkind.KindReward,
		Timestamp:     ids.Now(),
		Payload:       payload,
		PayloadSize:   len(payload.Amount) + len(payload.Token) + len(payload.IssuerPublicAddress),
	}

	userSig, err := ids.Sign(a.producer.PrivateKey, unsigned)
	if err != nil {
		return tx.Validated{}, fmt.Errorf("user-signing reward transaction: %w", err)
	}
	signed := tx.Signed{Unsigned: unsigned, UserSignature: userSig}

	validatorSig, err := ids.Sign(a.producer.PrivateKey, signed)
	if err != nil {
		return tx.Validated{}, fmt.Errorf("validator-signing reward transaction: %w", err)
	}

	return tx.Validated{Signed: signed, ValidatorSignature: validatorSig}, nil
}
