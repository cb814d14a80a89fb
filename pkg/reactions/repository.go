package reactions

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/lib/pq"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
)

type Repository struct {
	q persistence.Querier
}

func NewRepository(q persistence.Querier) *Repository { return &Repository{q: q} }

// GetNullifier returns the stored nullifier record, or persistence.ErrNotFound.
func (r *Repository) GetNullifier(ctx context.Context, nullifier []byte) (ReactionNullifier, error) {
	var n ReactionNullifier
	var messageID string
	var voteC1, voteC2 pq.ByteaArray
	row := r.q.QueryRowContext(ctx, `
		SELECT message_id, vote_c1, vote_c2, encrypted_backup
		FROM reaction_nullifiers WHERE nullifier = $1`, nullifier)
	err := row.Scan(&messageID, &voteC1, &voteC2, &n.EncryptedBackup)
	if errors.Is(err, sql.ErrNoRows) {
		return ReactionNullifier{}, persistence.ErrNotFound
	}
	if err != nil {
		return ReactionNullifier{}, fmt.Errorf("reading reaction nullifier: %w", persistence.ClassifyConnErr(err))
	}

	n.Nullifier = nullifier
	n.MessageId, _ = ids.ParseFeedMessageId(messageID)
	copyIntoSlots(&n.VoteC1, voteC1)
	copyIntoSlots(&n.VoteC2, voteC2)
	return n, nil
}

// InsertNullifier creates a new nullifier record. Returns
// persistence.ErrConflict if one already exists for this nullifier (the
// "race with a concurrent identical submission" case from spec §4.12.1;
// the caller re-reads and transitions to UPDATE_VOTE).
func (r *Repository) InsertNullifier(ctx context.Context, n ReactionNullifier) error {
	// The savepoint keeps a unique violation from aborting the enclosing
	// transaction, so the caller can still re-read the existing row.
	if _, err := r.q.ExecContext(ctx, `SAVEPOINT insert_nullifier`); err != nil {
		return fmt.Errorf("inserting reaction nullifier: %w", persistence.ClassifyConnErr(err))
	}
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO reaction_nullifiers (nullifier, message_id, vote_c1, vote_c2, encrypted_backup, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, now(), now())`,
		n.Nullifier, n.MessageId.String(), slotsToArray(n.VoteC1), slotsToArray(n.VoteC2), n.EncryptedBackup)
	if err != nil {
		if isUniqueViolation(err) {
			if _, rbErr := r.q.ExecContext(ctx, `ROLLBACK TO SAVEPOINT insert_nullifier`); rbErr != nil {
				return fmt.Errorf("inserting reaction nullifier: %w", persistence.ClassifyConnErr(rbErr))
			}
			return persistence.ErrConflict
		}
		return fmt.Errorf("inserting reaction nullifier: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// UpdateNullifier overwrites the vote on an existing nullifier record (UPDATE_VOTE).
func (r *Repository) UpdateNullifier(ctx context.Context, n ReactionNullifier) error {
	_, err := r.q.ExecContext(ctx, `
		UPDATE reaction_nullifiers SET vote_c1 = $2, vote_c2 = $3, encrypted_backup = $4, updated_at = now()
		WHERE nullifier = $1`,
		n.Nullifier, slotsToArray(n.VoteC1), slotsToArray(n.VoteC2), n.EncryptedBackup)
	if err != nil {
		return fmt.Errorf("updating reaction nullifier: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// GetTally returns the stored tally, or a zero tally (TotalCount=0,
// Version=0, all-identity points) if no row exists yet.
func (r *Repository) GetTally(ctx context.Context, messageID ids.FeedMessageId) (MessageReactionTally, error) {
	var t MessageReactionTally
	var feedID string
	var c1, c2 pq.ByteaArray
	row := r.q.QueryRowContext(ctx, `
		SELECT feed_id, tally_c1, tally_c2, total_count, version
		FROM message_reaction_tallies WHERE message_id = $1`, messageID.String())
	err := row.Scan(&feedID, &c1, &c2, &t.TotalCount, &t.Version)
	if errors.Is(err, sql.ErrNoRows) {
		t.MessageId = messageID
		return t, nil
	}
	if err != nil {
		return MessageReactionTally{}, fmt.Errorf("reading reaction tally: %w", persistence.ClassifyConnErr(err))
	}

	t.MessageId = messageID
	t.FeedId, _ = ids.ParseFeedId(feedID)
	copyIntoSlots(&t.TallyC1, c1)
	copyIntoSlots(&t.TallyC2, c2)
	return t, nil
}

// UpsertTally writes the new tally state in the same commit as the nullifier write.
func (r *Repository) UpsertTally(ctx context.Context, t MessageReactionTally) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO message_reaction_tallies (message_id, feed_id, tally_c1, tally_c2, total_count, version)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (message_id) DO UPDATE SET
			tally_c1    = EXCLUDED.tally_c1,
			tally_c2    = EXCLUDED.tally_c2,
			total_count = EXCLUDED.total_count,
			version     = EXCLUDED.version`,
		t.MessageId.String(), t.FeedId.String(), slotsToArray(t.TallyC1), slotsToArray(t.TallyC2), t.TotalCount, t.Version)
	if err != nil {
		return fmt.Errorf("upserting reaction tally: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// RegisterCommitment records a feed member's commitment, intentionally
// without any link to an identity row (spec §3).
func (r *Repository) RegisterCommitment(ctx context.Context, c FeedMemberCommitment) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO feed_member_commitments (feed_id, user_commitment) VALUES ($1, $2)
		ON CONFLICT (feed_id, user_commitment) DO NOTHING`,
		c.FeedId.String(), c.UserCommitment)
	if err != nil {
		return fmt.Errorf("registering feed member commitment: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// IsCommitmentRegistered backs HushMembership.IsCommitmentRegistered (spec §6)
// and the FeedParticipant invariant (spec §3 invariant 6).
func (r *Repository) IsCommitmentRegistered(ctx context.Context, feedID ids.FeedId, commitment []byte) (bool, error) {
	var exists bool
	row := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM feed_member_commitments WHERE feed_id = $1 AND user_commitment = $2)`,
		feedID.String(), commitment)
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("checking commitment registration: %w", persistence.ClassifyConnErr(err))
	}
	return exists, nil
}

// ListCommitments returns every registered commitment for a feed, ordered
// by commitment bytes, so the membership Merkle tree can be rebuilt
// deterministically (pkg/membership.RebuildAndRecordRoot).
func (r *Repository) ListCommitments(ctx context.Context, feedID ids.FeedId) ([][]byte, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT user_commitment FROM feed_member_commitments
		WHERE feed_id = $1 ORDER BY user_commitment`, feedID.String())
	if err != nil {
		return nil, fmt.Errorf("listing feed member commitments: %w", persistence.ClassifyConnErr(err))
	}
	defer rows.Close()

	var out [][]byte
	for rows.Next() {
		var c []byte
		if err := rows.Scan(&c); err != nil {
			return nil, fmt.Errorf("scanning feed member commitment: %w", err)
		}
		out = append(out, c)
	}
	return out, rows.Err()
}

// RecordMerkleRoot appends one historical root for a feed at a given block height.
func (r *Repository) RecordMerkleRoot(ctx context.Context, h MerkleRootHistory) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO merkle_root_history (feed_id, merkle_root, block_height) VALUES ($1, $2, $3)
		ON CONFLICT (feed_id, block_height) DO UPDATE SET merkle_root = EXCLUDED.merkle_root`,
		h.FeedId.String(), h.MerkleRoot, int64(h.BlockHeight))
	if err != nil {
		return fmt.Errorf("recording merkle root: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// GetRecentMerkleRoots returns the last n roots for a feed, most recent
// first — the "grace window" spec §4.7 step 4 requires (G=3 by default).
func (r *Repository) GetRecentMerkleRoots(ctx context.Context, feedID ids.FeedId, n int) ([]MerkleRootHistory, error) {
	rows, err := r.q.QueryContext(ctx, `
		SELECT merkle_root, block_height FROM merkle_root_history
		WHERE feed_id = $1 ORDER BY block_height DESC LIMIT $2`, feedID.String(), n)
	if err != nil {
		return nil, fmt.Errorf("reading recent merkle roots: %w", persistence.ClassifyConnErr(err))
	}
	defer rows.Close()

	var out []MerkleRootHistory
	for rows.Next() {
		h := MerkleRootHistory{FeedId: feedID}
		if err := rows.Scan(&h.MerkleRoot, &h.BlockHeight); err != nil {
			return nil, fmt.Errorf("scanning merkle root: %w", err)
		}
		out = append(out, h)
	}
	return out, rows.Err()
}

func slotsToArray(s ECPoints) pq.ByteaArray {
	arr := make(pq.ByteaArray, EmojiSlots)
	for i := range s {
		arr[i] = s[i]
	}
	return arr
}

func copyIntoSlots(dst *ECPoints, src pq.ByteaArray) {
	for i := 0; i < EmojiSlots && i < len(src); i++ {
		dst[i] = []byte(src[i])
	}
}

func isUniqueViolation(err error) bool {
	return err != nil && (errorsIsPqUniqueViolation(err))
}

// errorsIsPqUniqueViolation checks the SQLSTATE code lib/pq surfaces for a
// unique-constraint violation (23505), without importing the driver error
// type directly so this stays testable against any driver.Error compatible
// stub in unit tests.
func errorsIsPqUniqueViolation(err error) bool {
	type pqErrorCoder interface{ SQLState() string }
	var coder pqErrorCoder
	for e := err; e != nil; {
		if c, ok := e.(pqErrorCoder); ok {
			coder = c
			break
		}
		u, ok := e.(interface{ Unwrap() error })
		if !ok {
			break
		}
		e = u.Unwrap()
	}
	if coder == nil {
		return false
	}
	return coder.SQLState() == "23505"
}
