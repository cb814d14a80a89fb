// Package reactions is the Reactions bounded context: anonymous-reaction
// tallies, nullifiers, feed membership commitments, and Merkle root
// history (spec §3, §4.7, §4.12.1 — the hardest indexing strategy).
package reactions

import (
	"github.com/hushnetwork-social/hush-node/pkg/ids"
)

// EmojiSlots is the fixed width of a reaction vote/tally vector: one
// elliptic-curve point pair per emoji slot.
const EmojiSlots = 6

// ECPoints is six compressed bn254 G1 points, one per emoji slot.
type ECPoints [EmojiSlots][]byte

// MessageReactionTally is the per-message aggregate (spec §3).
type MessageReactionTally struct {
	MessageId  ids.FeedMessageId
	FeedId     ids.FeedId
	TallyC1    ECPoints
	TallyC2    ECPoints
	TotalCount int64
	Version    int64
}

// ReactionNullifier deterministically identifies a reaction's originating
// (user, message) pair without revealing the user.
type ReactionNullifier struct {
	Nullifier       []byte
	MessageId       ids.FeedMessageId
	VoteC1          ECPoints
	VoteC2          ECPoints
	EncryptedBackup []byte
}

// FeedMemberCommitment is intentionally not linked to any identity row.
type FeedMemberCommitment struct {
	FeedId         ids.FeedId
	UserCommitment []byte
}

// MerkleRootHistory is one historical root for a feed's membership tree.
type MerkleRootHistory struct {
	FeedId      ids.FeedId
	MerkleRoot  []byte
	BlockHeight ids.BlockIndex
}
