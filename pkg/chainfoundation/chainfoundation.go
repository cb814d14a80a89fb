// Package chainfoundation is the Chain Foundation (C9): the startup
// bootstrap that guarantees a genesis block exists before anything else
// runs, per spec §4.9.
package chainfoundation

import (
	"context"
	"errors"
	"fmt"

	"github.com/hushnetwork-social/hush-node/pkg/assembler"
	"github.com/hushnetwork-social/hush-node/pkg/blockchain"
	"github.com/hushnetwork-social/hush-node/pkg/chaincache"
	"github.com/hushnetwork-social/hush-node/pkg/eventbus"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
)

// Foundation owns the startup sequence: read the chain tip, assemble
// genesis if it is absent, install the result into the cache, and publish
// BlockchainInitialized exactly once.
type Foundation struct {
	persist *persistence.Client
	cache   *chaincache.Cache
	bus     *eventbus.Bus
	assem   *assembler.Assembler
}

// New constructs a Foundation.
func New(persist *persistence.Client, cache *chaincache.Cache, bus *eventbus.Bus, assem *assembler.Assembler) *Foundation {
	return &Foundation{persist: persist, cache: cache, bus: bus, assem: assem}
}

// EnsureGenesisAsync implements spec §4.9's three steps: read
// BlockchainState via a read-only unit of work; if absent, call
// AssembleGenesisAsync; either way, install the resulting tip into the
// cache and publish BlockchainInitialized.
func (f *Foundation) EnsureGenesisAsync(ctx context.Context) error {
	uow := f.persist.CreateReadOnly(ctx)
	repo := blockchain.NewRepository(uow.Querier())

	state, err := repo.GetState(ctx)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		if _, err := f.assem.AssembleGenesisAsync(ctx); err != nil {
			return fmt.Errorf("assembling genesis block: %w", err)
		}
	case err != nil:
		return fmt.Errorf("reading blockchain state: %w", err)
	default:
		f.cache.Apply(chaincache.CacheUpdate{
			BlockIndex:      state.BlockIndex,
			PreviousBlockId: state.PreviousBlockId,
			CurrentBlockId:  state.CurrentBlockId,
			NextBlockId:     state.NextBlockId,
		})
	}

	f.bus.PublishBlockchainInitialized(eventbus.BlockchainInitialized{})
	return nil
}
