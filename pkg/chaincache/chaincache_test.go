package chaincache

import (
	"testing"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
)

func TestCache_New_StartsUninitialized(t *testing.T) {
	c := New()
	snap := c.Read()
	if snap.BlockchainStatePresent {
		t.Error("expected a fresh cache to report BlockchainStatePresent false")
	}
}

func TestCache_Apply_MakesSnapshotVisible(t *testing.T) {
	c := New()
	blockID := ids.NewBlockId()
	c.Apply(CacheUpdate{BlockIndex: ids.BlockIndex(1), CurrentBlockId: blockID})

	snap := c.Read()
	if !snap.BlockchainStatePresent {
		t.Fatal("expected BlockchainStatePresent true after Apply")
	}
	if snap.CurrentBlockId != blockID {
		t.Errorf("expected CurrentBlockId %s, got %s", blockID, snap.CurrentBlockId)
	}
}

func TestCache_Advance_ChainsOffCurrentTip(t *testing.T) {
	c := New()
	first := ids.NewBlockId()
	c.Apply(CacheUpdate{BlockIndex: ids.BlockIndex(1), CurrentBlockId: first, NextBlockId: ids.NewBlockId()})

	prevNext := c.Read().NextBlockId
	newID := ids.NewBlockId()
	update := c.Advance(func() ids.BlockId { return newID })

	if update.BlockIndex != ids.BlockIndex(2) {
		t.Errorf("expected advanced index 2, got %d", update.BlockIndex)
	}
	if update.PreviousBlockId != first {
		t.Errorf("expected PreviousBlockId to be the prior CurrentBlockId %s, got %s", first, update.PreviousBlockId)
	}
	if update.CurrentBlockId != prevNext {
		t.Errorf("expected CurrentBlockId to be the prior NextBlockId %s, got %s", prevNext, update.CurrentBlockId)
	}
	if update.NextBlockId != newID {
		t.Errorf("expected NextBlockId %s, got %s", newID, update.NextBlockId)
	}
}

func TestCache_Rollback_RestoresPriorSnapshot(t *testing.T) {
	c := New()
	c.Apply(CacheUpdate{BlockIndex: ids.BlockIndex(1), CurrentBlockId: ids.NewBlockId()})
	prior := c.Read()

	c.Apply(CacheUpdate{BlockIndex: ids.BlockIndex(2), CurrentBlockId: ids.NewBlockId()})
	c.Rollback(prior)

	if got := c.Read(); got != prior {
		t.Errorf("expected rollback to restore %+v, got %+v", prior, got)
	}
}
