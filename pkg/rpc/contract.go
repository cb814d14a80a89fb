// Package rpc is the RPC Reference Binding (A7): a net/http.Handler
// exposing spec.md §6's method surface as JSON POST endpoints. The
// interfaces below are the real transport contract; ServeHTTP (server.go)
// is one reference shape for carrying them over the wire.
package rpc

import (
	"context"

	"github.com/hushnetwork-social/hush-node/pkg/feeds"
	"github.com/hushnetwork-social/hush-node/pkg/identity"
	"github.com/hushnetwork-social/hush-node/pkg/merkle"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
)

// SubmitStatus mirrors the Idempotency Gate's Outcome plus the validator
// rejection path, the four values spec.md §6 enumerates for
// SubmitSignedTransaction.
type SubmitStatus string

const (
	Accepted      SubmitStatus = "Accepted"
	AlreadyExists SubmitStatus = "AlreadyExists"
	Pending       SubmitStatus = "Pending"
	Rejected      SubmitStatus = "Rejected"
)

// SubmitResult is SubmitSignedTransaction's response record.
type SubmitResult struct {
	Status  SubmitStatus
	Message string
}

// HushBlockchain is the chain-height and submission surface.
type HushBlockchain interface {
	GetBlockchainHeight(ctx context.Context) (int64, error)
	SubmitSignedTransaction(ctx context.Context, raw []byte) (SubmitResult, error)
}

// HushBank is the balance surface.
type HushBank interface {
	GetAddressBalance(ctx context.Context, address, token string) (string, error)
}

// HushIdentity is the profile surface.
type HushIdentity interface {
	GetIdentity(ctx context.Context, publicSigningAddress string) (identity.Profile, bool, error)
	SearchByDisplayName(ctx context.Context, partial string) ([]identity.Profile, error)
}

// HushReactions is the tally/nullifier surface.
type HushReactions interface {
	GetReactionTallies(ctx context.Context, feedID string, messageIDs []string) ([]reactions.MessageReactionTally, error)
	NullifierExists(ctx context.Context, nullifier []byte) (bool, error)
	GetReactionBackup(ctx context.Context, nullifier []byte) ([]byte, bool, error)
}

// HushMembership is the feed membership surface.
type HushMembership interface {
	GetMembershipProof(ctx context.Context, feedID string, commitment []byte) (*merkle.InclusionProof, error)
	GetRecentMerkleRoots(ctx context.Context, feedID string, n int) ([]reactions.MerkleRootHistory, error)
	RegisterCommitment(ctx context.Context, feedID string, commitment []byte) error
	IsCommitmentRegistered(ctx context.Context, feedID string, commitment []byte) (bool, error)
}

// HushFeeds is the feed-facing reads spec.md §6 groups under "create, list,
// send message, membership ops" — submission itself goes through
// HushBlockchain.SubmitSignedTransaction per transaction kind (§4.7 →
// §4.6 → §4.5); this surface covers the read side.
type HushFeeds interface {
	GetPersonalFeed(ctx context.Context, ownerPublicAddress string) (feeds.Feed, bool, error)
}
