// Package blockchain is the Blockchain bounded context's repository: the
// block log and the single-row chain tip (C4/C9).
package blockchain

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hushnetwork-social/hush-node/pkg/block"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
)

// Repository is scoped to a single persistence.Querier (either a
// ReadOnlyUnitOfWork's pool handle or a WritableUnitOfWork's transaction).
type Repository struct {
	q persistence.Querier
}

// NewRepository wraps q.
func NewRepository(q persistence.Querier) *Repository { return &Repository{q: q} }

// InsertBlock inserts the persisted row for a finalized block.
func (r *Repository) InsertBlock(ctx context.Context, row block.BlockchainBlock) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO blockchain_blocks (block_id, block_index, previous_block_id, next_block_id, hash, block_json)
		VALUES ($1, $2, $3, $4, $5, $6)`,
		row.BlockId.String(), int64(row.BlockIndex), row.PreviousBlockId.String(), row.NextBlockId.String(), row.Hash, row.BlockJson)
	if err != nil {
		return fmt.Errorf("inserting blockchain block: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// UpsertState replaces the single chain-tip row.
func (r *Repository) UpsertState(ctx context.Context, state block.BlockchainState) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO blockchain_state (blockchain_state_id, block_index, current_block_id, previous_block_id, next_block_id, updated_at)
		VALUES ($1, $2, $3, $4, $5, now())
		ON CONFLICT ((true)) DO UPDATE SET
			blockchain_state_id = EXCLUDED.blockchain_state_id,
			block_index         = EXCLUDED.block_index,
			current_block_id    = EXCLUDED.current_block_id,
			previous_block_id   = EXCLUDED.previous_block_id,
			next_block_id       = EXCLUDED.next_block_id,
			updated_at          = now()`,
		state.BlockchainStateId.String(), int64(state.BlockIndex), state.CurrentBlockId.String(), state.PreviousBlockId.String(), state.NextBlockId.String())
	if err != nil {
		return fmt.Errorf("upserting blockchain state: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// GetState reads the chain tip. Returns persistence.ErrNotFound if the
// chain has never been initialized (the Genesis condition, spec §4.9).
func (r *Repository) GetState(ctx context.Context) (block.BlockchainState, error) {
	var s block.BlockchainState
	var stateID, currentID, previousID, nextID string

	row := r.q.QueryRowContext(ctx, `
		SELECT blockchain_state_id, block_index, current_block_id, previous_block_id, next_block_id
		FROM blockchain_state LIMIT 1`)
	err := row.Scan(&stateID, &s.BlockIndex, &currentID, &previousID, &nextID)
	if errors.Is(err, sql.ErrNoRows) {
		return block.BlockchainState{}, persistence.ErrNotFound
	}
	if err != nil {
		return block.BlockchainState{}, fmt.Errorf("reading blockchain state: %w", persistence.ClassifyConnErr(err))
	}

	s.BlockchainStateId, _ = ids.ParseBlockchainStateId(stateID)
	s.CurrentBlockId, _ = ids.ParseBlockId(currentID)
	s.PreviousBlockId, _ = ids.ParseBlockId(previousID)
	s.NextBlockId, _ = ids.ParseBlockId(nextID)
	return s, nil
}

// GetBlockAtIndex reads a single committed block, used by the "previous
// block exists" invariant check (spec §3 invariant 2) and by replay tooling.
func (r *Repository) GetBlockAtIndex(ctx context.Context, index ids.BlockIndex) (block.BlockchainBlock, error) {
	var row block.BlockchainBlock
	var blockID, prevID, nextID string

	res := r.q.QueryRowContext(ctx, `
		SELECT block_id, block_index, previous_block_id, next_block_id, hash, block_json
		FROM blockchain_blocks WHERE block_index = $1`, int64(index))
	err := res.Scan(&blockID, &row.BlockIndex, &prevID, &nextID, &row.Hash, &row.BlockJson)
	if errors.Is(err, sql.ErrNoRows) {
		return block.BlockchainBlock{}, persistence.ErrNotFound
	}
	if err != nil {
		return block.BlockchainBlock{}, fmt.Errorf("reading blockchain block: %w", persistence.ClassifyConnErr(err))
	}

	row.BlockId, _ = ids.ParseBlockId(blockID)
	row.PreviousBlockId, _ = ids.ParseBlockId(prevID)
	row.NextBlockId, _ = ids.ParseBlockId(nextID)
	return row, nil
}
