// Package chaincache holds the single-writer in-memory projection of the
// chain tip (C3). It is written only by the block assembler under its
// commit lock and read freely by validators and RPC handlers. Mutation
// happens through an explicit CacheUpdate value rather than a fluent
// "set, set, set, return self" API, per spec §9's redesign note.
package chaincache

import (
	"sync"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
)

// CacheUpdate is the one allowed mutation to the cache: the advanced tip
// fields computed by the assembler at the start of AssembleAsync.
type CacheUpdate struct {
	BlockIndex      ids.BlockIndex
	PreviousBlockId ids.BlockId
	CurrentBlockId  ids.BlockId
	NextBlockId     ids.BlockId
}

// Snapshot is an immutable read of the cache at a point in time.
type Snapshot struct {
	LastBlockIndex         ids.BlockIndex
	PreviousBlockId        ids.BlockId
	CurrentBlockId         ids.BlockId
	NextBlockId            ids.BlockId
	BlockchainStatePresent bool
}

// Cache is the process-wide chain-tip projection. The zero value is an
// uninitialized chain (BlockchainStatePresent false).
type Cache struct {
	mu       sync.RWMutex
	snapshot Snapshot
}

// New constructs an uninitialized Cache.
func New() *Cache {
	return &Cache{snapshot: Snapshot{LastBlockIndex: ids.EmptyBlockIndex}}
}

// Read returns the current snapshot. Safe for concurrent callers.
func (c *Cache) Read() Snapshot {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.snapshot
}

// Apply installs a CacheUpdate. Callers must hold the assembler's commit
// lock; Apply itself only guards the snapshot field against concurrent readers.
func (c *Cache) Apply(u CacheUpdate) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = Snapshot{
		LastBlockIndex:         u.BlockIndex,
		PreviousBlockId:        u.PreviousBlockId,
		CurrentBlockId:         u.CurrentBlockId,
		NextBlockId:            u.NextBlockId,
		BlockchainStatePresent: true,
	}
}

// Advance computes the CacheUpdate for the next block, given the supplied
// factory for a fresh BlockId (the would-be NextBlockId).
func (c *Cache) Advance(newBlockId func() ids.BlockId) CacheUpdate {
	cur := c.Read()
	return CacheUpdate{
		BlockIndex:      cur.LastBlockIndex.Next(),
		PreviousBlockId: cur.CurrentBlockId,
		CurrentBlockId:  cur.NextBlockId,
		NextBlockId:     newBlockId(),
	}
}

// Rollback restores a prior snapshot. Used when a commit fails after the
// cache has already been advanced (spec §4.8 failure semantics).
func (c *Cache) Rollback(prior Snapshot) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.snapshot = prior
}
