// Package feeds is the Feeds bounded context: feeds, participants, and
// messages.
package feeds

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
)

// FeedType enumerates the three feed shapes from spec §3.
type FeedType string

const (
	Personal FeedType = "Personal"
	Chat     FeedType = "Chat"
	Group    FeedType = "Group"
)

// ParticipantType enumerates a participant's role within a feed.
type ParticipantType string

const (
	Owner  ParticipantType = "Owner"
	Member ParticipantType = "Member"
)

type Feed struct {
	FeedId     ids.FeedId
	Title      string
	FeedType   FeedType
	BlockIndex ids.BlockIndex
}

type Participant struct {
	FeedId              ids.FeedId
	MemberPublicAddress string
	ParticipantType     ParticipantType
	EncryptedFeedKey    string
	KeyGeneration       int
}

type Message struct {
	FeedMessageId       ids.FeedMessageId
	FeedId              ids.FeedId
	IssuerPublicAddress string
	Content             string
	Timestamp           ids.Timestamp
	BlockIndex          ids.BlockIndex
}

type Repository struct {
	q persistence.Querier
}

func NewRepository(q persistence.Querier) *Repository { return &Repository{q: q} }

// GetPersonalFeed returns the caller's personal feed, if any. Used by
// NewPersonalFeedStrategy to enforce "only one personal feed per user".
func (r *Repository) GetPersonalFeed(ctx context.Context, ownerPublicAddress string) (Feed, error) {
	var f Feed
	row := r.q.QueryRowContext(ctx, `
		SELECT f.feed_id, f.title, f.feed_type, f.block_index
		FROM feeds f JOIN feed_participants p ON p.feed_id = f.feed_id
		WHERE f.feed_type = 'Personal' AND p.member_public_address = $1 AND p.participant_type = 'Owner'`,
		ownerPublicAddress)
	var feedID string
	err := row.Scan(&feedID, &f.Title, &f.FeedType, &f.BlockIndex)
	if errors.Is(err, sql.ErrNoRows) {
		return Feed{}, persistence.ErrNotFound
	}
	if err != nil {
		return Feed{}, fmt.Errorf("reading personal feed: %w", persistence.ClassifyConnErr(err))
	}
	f.FeedId, _ = ids.ParseFeedId(feedID)
	return f, nil
}

// CreateFeedWithOwner atomically inserts a Feed and its owner Participant.
// Re-creating the same FeedId is a no-op (spec §8 scenario 2: resubmitting
// NewPersonalFeedPayload must not create a second Feed row).
func (r *Repository) CreateFeedWithOwner(ctx context.Context, f Feed, ownerAddress, encryptedFeedKey string, keyGeneration int) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO feeds (feed_id, title, feed_type, block_index) VALUES ($1, $2, $3, $4)
		ON CONFLICT (feed_id) DO NOTHING`,
		f.FeedId.String(), f.Title, string(f.FeedType), int64(f.BlockIndex))
	if err != nil {
		return false, fmt.Errorf("inserting feed: %w", persistence.ClassifyConnErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	if n == 0 {
		return false, nil
	}

	if err := r.UpsertParticipant(ctx, Participant{
		FeedId:              f.FeedId,
		MemberPublicAddress: ownerAddress,
		ParticipantType:     Owner,
		EncryptedFeedKey:    encryptedFeedKey,
		KeyGeneration:       keyGeneration,
	}); err != nil {
		return false, fmt.Errorf("inserting feed owner: %w", err)
	}
	return true, nil
}

// InsertFeedIfAbsent creates a bare Feed row (no owner participant) — used
// for Chat feeds, whose participants are all equal Members inserted
// separately. Returns false if the FeedId already existed.
func (r *Repository) InsertFeedIfAbsent(ctx context.Context, f Feed) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO feeds (feed_id, title, feed_type, block_index) VALUES ($1, $2, $3, $4)
		ON CONFLICT (feed_id) DO NOTHING`,
		f.FeedId.String(), f.Title, string(f.FeedType), int64(f.BlockIndex))
	if err != nil {
		return false, fmt.Errorf("inserting feed: %w", persistence.ClassifyConnErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// InsertMessageIfAbsent inserts a FeedMessage row keyed by FeedMessageId;
// a conflict is a no-op, giving NewFeedMessageStrategy its idempotence
// guarantee (spec §4.12 / invariant 4).
func (r *Repository) InsertMessageIfAbsent(ctx context.Context, m Message) (bool, error) {
	res, err := r.q.ExecContext(ctx, `
		INSERT INTO feed_messages (feed_message_id, feed_id, issuer_public_address, content, created_at, block_index)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (feed_message_id) DO NOTHING`,
		m.FeedMessageId.String(), m.FeedId.String(), m.IssuerPublicAddress, m.Content, m.Timestamp.Time(), int64(m.BlockIndex))
	if err != nil {
		return false, fmt.Errorf("inserting feed message: %w", persistence.ClassifyConnErr(err))
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

// MessageExists is used by the idempotency gate's storage fallback (spec §4.6 step 2).
func (r *Repository) MessageExists(ctx context.Context, id ids.FeedMessageId) (bool, error) {
	var exists bool
	row := r.q.QueryRowContext(ctx, `SELECT EXISTS(SELECT 1 FROM feed_messages WHERE feed_message_id = $1)`, id.String())
	if err := row.Scan(&exists); err != nil {
		return false, fmt.Errorf("checking feed message existence: %w", persistence.ClassifyConnErr(err))
	}
	return exists, nil
}

// UpsertParticipant adds or updates a FeedMemberCommitment-backed
// participant row (JoinGroupFeedStrategy / LeaveGroupFeedStrategy).
func (r *Repository) UpsertParticipant(ctx context.Context, p Participant) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO feed_participants (feed_id, member_public_address, participant_type, encrypted_feed_key, key_generation)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (feed_id, member_public_address) DO UPDATE SET
			participant_type   = EXCLUDED.participant_type,
			encrypted_feed_key = EXCLUDED.encrypted_feed_key,
			key_generation     = EXCLUDED.key_generation`,
		p.FeedId.String(), p.MemberPublicAddress, string(p.ParticipantType), p.EncryptedFeedKey, p.KeyGeneration)
	if err != nil {
		return fmt.Errorf("upserting feed participant: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// RemoveParticipant deletes a participant row (LeaveGroupFeedStrategy).
func (r *Repository) RemoveParticipant(ctx context.Context, feedID ids.FeedId, memberAddress string) error {
	_, err := r.q.ExecContext(ctx, `DELETE FROM feed_participants WHERE feed_id = $1 AND member_public_address = $2`,
		feedID.String(), memberAddress)
	if err != nil {
		return fmt.Errorf("removing feed participant: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// SetPublicKey records the feed's group public key, used by the reaction
// circuit's public inputs (spec §4.7 step 3/5).
func (r *Repository) SetPublicKey(ctx context.Context, feedID ids.FeedId, publicKey []byte) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO feed_public_keys (feed_id, public_key) VALUES ($1, $2)
		ON CONFLICT (feed_id) DO UPDATE SET public_key = EXCLUDED.public_key`,
		feedID.String(), publicKey)
	if err != nil {
		return fmt.Errorf("setting feed public key: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// PublicKey backs the reaction validator's feedPublicKey(FeedId) lookup
// (spec §4.7 step 3); persistence.ErrNotFound means "missing" per that step.
func (r *Repository) PublicKey(ctx context.Context, feedID ids.FeedId) ([]byte, error) {
	var key []byte
	row := r.q.QueryRowContext(ctx, `SELECT public_key FROM feed_public_keys WHERE feed_id = $1`, feedID.String())
	err := row.Scan(&key)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading feed public key: %w", persistence.ClassifyConnErr(err))
	}
	return key, nil
}

// SetAuthorCommitment records the anonymous author commitment bound to a
// message at NewFeedMessage time, so a later reaction can be checked
// against it without identifying the author.
func (r *Repository) SetAuthorCommitment(ctx context.Context, messageID ids.FeedMessageId, commitment []byte) error {
	_, err := r.q.ExecContext(ctx, `
		INSERT INTO message_author_commitments (feed_message_id, author_commitment) VALUES ($1, $2)
		ON CONFLICT (feed_message_id) DO UPDATE SET author_commitment = EXCLUDED.author_commitment`,
		messageID.String(), commitment)
	if err != nil {
		return fmt.Errorf("setting message author commitment: %w", persistence.ClassifyConnErr(err))
	}
	return nil
}

// AuthorCommitment backs the reaction validator's authorCommitment(MessageId)
// lookup (spec §4.7 step 3).
func (r *Repository) AuthorCommitment(ctx context.Context, messageID ids.FeedMessageId) ([]byte, error) {
	var commitment []byte
	row := r.q.QueryRowContext(ctx, `SELECT author_commitment FROM message_author_commitments WHERE feed_message_id = $1`, messageID.String())
	err := row.Scan(&commitment)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, persistence.ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("reading message author commitment: %w", persistence.ClassifyConnErr(err))
	}
	return commitment, nil
}
