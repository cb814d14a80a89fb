package validators

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
	"github.com/hushnetwork-social/hush-node/pkg/zkreaction"
)

// MerkleRootGraceWindow is the default "G" from spec §4.7 step 4.
const MerkleRootGraceWindow = 3

// FeedFacade is the narrow slice of the Feeds bounded context the reaction
// validator reads from (spec §4.7 step 3: "fetch ... from the Feeds façade").
type FeedFacade interface {
	PublicKey(ctx context.Context, feedID ids.FeedId) ([]byte, error)
	AuthorCommitment(ctx context.Context, messageID ids.FeedMessageId) ([]byte, error)
}

// RecentRoots supplies the grace-window Merkle roots for a feed.
type RecentRoots interface {
	GetRecentMerkleRoots(ctx context.Context, feedID ids.FeedId, n int) ([]reactions.MerkleRootHistory, error)
}

// VerifierSelector resolves the zkreaction.Verifier for a claimed circuit
// version. Production wiring returns the same Groth16Verifier for every
// known version; tests can swap in a DevModeVerifier.
type VerifierSelector func(circuitVersion string) (zkreaction.Verifier, error)

// ReactionValidator implements the six-step algorithm from spec §4.7 for
// NewReactionPayload transactions.
type ReactionValidator struct {
	credential  Credential
	feeds       FeedFacade
	roots       RecentRoots
	graceWindow int
	selectVerifier VerifierSelector
}

func NewReactionValidator(c Credential, feeds FeedFacade, roots RecentRoots, graceWindow int, selector VerifierSelector) *ReactionValidator {
	if graceWindow <= 0 {
		graceWindow = MerkleRootGraceWindow
	}
	return &ReactionValidator{credential: c, feeds: feeds, roots: roots, graceWindow: graceWindow, selectVerifier: selector}
}

// ValidateAndSign implements registry.ContentValidator.
func (v *ReactionValidator) ValidateAndSign(ctx context.Context, t tx.Signed) (tx.Validated, error) {
	payload, ok := t.Unsigned.Payload.(txkind.NewReactionPayload)
	if !ok {
		return tx.Validated{}, fmt.Errorf("transaction %s is not a reaction payload", t.Unsigned.TransactionId)
	}

	if !ids.Verify(t.Unsigned, t.UserSignature) {
		return tx.Validated{}, fmt.Errorf("invalid user signature on transaction %s", t.Unsigned.TransactionId)
	}

	if err := v.validateReaction(ctx, payload); err != nil {
		return tx.Validated{}, err
	}

	validatorSig, err := ids.Sign(v.credential.PrivateKey, t)
	if err != nil {
		return tx.Validated{}, fmt.Errorf("countersigning reaction %s: %w", t.Unsigned.TransactionId, err)
	}
	return tx.Validated{Signed: t, ValidatorSignature: validatorSig}, nil
}

// validateReaction implements spec §4.7 steps 1-6. Every failure path
// returns a plain error; nothing here ever panics, so a caller can always
// treat an error as "reject", per step 6.
func (v *ReactionValidator) validateReaction(ctx context.Context, payload txkind.NewReactionPayload) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("reaction validation panicked: %v", r)
		}
	}()

	// Step 1: ciphertext coordinate arrays must each have exactly 6 slots.
	if len(payload.VoteC1) != 6 || len(payload.VoteC2) != 6 {
		return errors.New("reaction ciphertext arrays must have exactly 6 coordinates")
	}

	// Step 2: dev-mode bypass.
	if strings.HasPrefix(payload.CircuitVersion, "dev-mode") {
		return nil
	}

	feedID, err := ids.ParseFeedId(payload.FeedId)
	if err != nil {
		return fmt.Errorf("invalid feed id: %w", err)
	}
	messageID, err := ids.ParseFeedMessageId(payload.MessageId)
	if err != nil {
		return fmt.Errorf("invalid message id: %w", err)
	}

	// Step 3: feedPublicKey / authorCommitment lookups.
	feedPk, err := v.feeds.PublicKey(ctx, feedID)
	if err != nil {
		return fmt.Errorf("feed public key unavailable: %w", err)
	}
	authorCommitment, err := v.feeds.AuthorCommitment(ctx, messageID)
	if err != nil {
		return fmt.Errorf("author commitment unavailable: %w", err)
	}

	// Step 4: grace-window Merkle roots.
	roots, err := v.roots.GetRecentMerkleRoots(ctx, feedID, v.graceWindow)
	if err != nil {
		return fmt.Errorf("reading merkle root history: %w", err)
	}
	if len(roots) == 0 {
		return errors.New("no merkle roots registered for feed")
	}

	verifier, err := v.selectVerifier(payload.CircuitVersion)
	if err != nil {
		return fmt.Errorf("no verifier for circuit version %s: %w", payload.CircuitVersion, err)
	}

	// Step 5: accept on first root that verifies.
	messageIDBytes := messageID.Bytes()
	for _, root := range roots {
		inputs := zkreaction.PublicInputs{
			Nullifier:        payload.Nullifier,
			VoteC1:           payload.VoteC1,
			VoteC2:           payload.VoteC2,
			MessageId:        messageIDBytes[:],
			FeedPublicKey:    feedPk,
			MerkleRoot:       root.MerkleRoot,
			AuthorCommitment: authorCommitment,
		}
		ok, verr := verifier.Verify(payload.Proof, inputs, payload.CircuitVersion)
		if verr != nil {
			continue // step 6: any verifier exception is a miss, not a propagated error
		}
		if ok {
			return nil
		}
	}

	return errors.New("reaction proof did not verify against any recent merkle root")
}
