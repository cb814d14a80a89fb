// Package membership maintains the per-feed membership Merkle tree that
// backs anonymous reactions: one leaf per registered FeedMemberCommitment,
// rebuilt whenever JoinGroupFeedStrategy / LeaveGroupFeedStrategy run, with
// the resulting root appended to MerkleRootHistory for the grace-window
// check the reaction content validator performs (spec §4.7 step 4).
//
// Each recorded root is also written to a local CometBFT KV store
// (github.com/cometbft/cometbft-db, grounded on the teacher's
// pkg/kvdb.KVAdapter), one entry per feed that every rebuild overwrites.
// Nothing in this package reads the mirror back: every read, including
// membership proofs, goes through the repository.
package membership

import (
	"context"
	"fmt"

	dbm "github.com/cometbft/cometbft-db"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/merkle"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
)

// CommitmentRepository is the slice of the Reactions bounded context this
// package needs: read every registered commitment for a feed, and append
// one historical root.
type CommitmentRepository interface {
	RegisterCommitment(ctx context.Context, c reactions.FeedMemberCommitment) error
	ListCommitments(ctx context.Context, feedID ids.FeedId) ([][]byte, error)
	RecordMerkleRoot(ctx context.Context, h reactions.MerkleRootHistory) error
	GetRecentMerkleRoots(ctx context.Context, feedID ids.FeedId, n int) ([]reactions.MerkleRootHistory, error)
}

// Service rebuilds and serves feed membership Merkle trees.
type Service struct {
	repo CommitmentRepository
	kv   dbm.DB
}

// New constructs a Service. kv may be nil, in which case the KV mirror
// write is skipped; reads always go to repo either way.
func New(repo CommitmentRepository, kv dbm.DB) *Service {
	return &Service{repo: repo, kv: kv}
}

// OpenKV opens (creating if absent) the GoLevelDB-backed KV mirror under dir.
func OpenKV(dir string) (dbm.DB, error) {
	db, err := dbm.NewGoLevelDB("membership-roots", dir)
	if err != nil {
		return nil, fmt.Errorf("opening membership KV store: %w", err)
	}
	return db, nil
}

// RegisterCommitment records a new feed member's commitment without
// rebuilding the tree; callers that need the new root to be visible
// immediately should follow with RebuildAndRecordRoot in the same strategy
// invocation (spec §4.12: JoinGroupFeedStrategy).
func (s *Service) RegisterCommitment(ctx context.Context, feedID ids.FeedId, commitment []byte) error {
	return s.repo.RegisterCommitment(ctx, reactions.FeedMemberCommitment{FeedId: feedID, UserCommitment: commitment})
}

// RebuildAndRecordRoot rebuilds feedID's membership tree from every
// currently registered commitment and records the resulting root at
// blockIndex. A feed with zero commitments records an all-zero root, so the
// grace-window lookup in spec §4.7 step 4 still has something to compare
// against.
func (s *Service) RebuildAndRecordRoot(ctx context.Context, feedID ids.FeedId, blockIndex ids.BlockIndex) error {
	commitments, err := s.repo.ListCommitments(ctx, feedID)
	if err != nil {
		return fmt.Errorf("listing feed member commitments: %w", err)
	}

	root := make([]byte, 32)
	if len(commitments) > 0 {
		tree, err := merkle.BuildTree(commitmentLeaves(commitments))
		if err != nil {
			return fmt.Errorf("building membership tree: %w", err)
		}
		root = tree.Root()
	}

	if err := s.repo.RecordMerkleRoot(ctx, reactions.MerkleRootHistory{FeedId: feedID, MerkleRoot: root, BlockHeight: blockIndex}); err != nil {
		return fmt.Errorf("recording merkle root: %w", err)
	}

	if s.kv != nil {
		_ = s.kv.SetSync(kvKey(feedID), root)
	}
	return nil
}

// GetMembershipProof builds the current tree for feedID and returns an
// inclusion proof for commitment, backing HushMembership.GetMembershipProof
// (spec §6).
func (s *Service) GetMembershipProof(ctx context.Context, feedID ids.FeedId, commitment []byte) (*merkle.InclusionProof, error) {
	commitments, err := s.repo.ListCommitments(ctx, feedID)
	if err != nil {
		return nil, fmt.Errorf("listing feed member commitments: %w", err)
	}
	tree, err := merkle.BuildTree(commitmentLeaves(commitments))
	if err != nil {
		return nil, fmt.Errorf("building membership tree: %w", err)
	}

	leaf := merkle.CommitmentLeaf(commitment)
	proof, err := tree.GenerateProofByHash(leaf)
	if err != nil {
		return nil, err
	}

	ok, err := merkle.VerifyProof(leaf, proof, tree.Root())
	if err != nil {
		return nil, fmt.Errorf("verifying generated membership proof: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("generated membership proof for feed %s does not verify against its own root", feedID)
	}

	return proof, nil
}

// GetRecentMerkleRoots delegates to the backing repository, the grace
// window the reaction content validator consumes directly (spec §4.7 step 4).
func (s *Service) GetRecentMerkleRoots(ctx context.Context, feedID ids.FeedId, n int) ([]reactions.MerkleRootHistory, error) {
	return s.repo.GetRecentMerkleRoots(ctx, feedID, n)
}

// kvKey is the KV-mirror key holding feedID's most recently recorded root.
func kvKey(feedID ids.FeedId) []byte {
	return []byte("membership-root/" + feedID.String())
}

func commitmentLeaves(commitments [][]byte) []merkle.Leaf {
	out := make([]merkle.Leaf, len(commitments))
	for i, c := range commitments {
		out[i] = merkle.CommitmentLeaf(c)
	}
	return out
}
