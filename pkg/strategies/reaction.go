package strategies

import (
	"context"
	"errors"
	"fmt"
	"log"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/notify"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// ReactionStrategy implements the FIRST_VOTE / UPDATE_VOTE state machine
// from spec §4.12.1: a nullifier not yet on record starts a fresh tally
// contribution, one already on record replaces its prior contribution via
// the homomorphic combine operator.
type ReactionStrategy struct {
	persist   *persistence.Client
	publisher notify.Publisher
	logger    *log.Logger
}

func NewReactionStrategy(persist *persistence.Client, publisher notify.Publisher) *ReactionStrategy {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &ReactionStrategy{
		persist:   persist,
		publisher: publisher,
		logger:    log.New(log.Writer(), "[ReactionStrategy] ", log.LstdFlags),
	}
}

// Apply implements registry.IndexStrategy.
func (s *ReactionStrategy) Apply(ctx context.Context, _ ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.NewReactionPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a reaction payload", t.Unsigned.TransactionId)
	}
	messageID, err := ids.ParseFeedMessageId(payload.MessageId)
	if err != nil {
		return fmt.Errorf("invalid message id: %w", err)
	}
	feedID, err := ids.ParseFeedId(payload.FeedId)
	if err != nil {
		return fmt.Errorf("invalid feed id: %w", err)
	}

	voteC1, err := toECPoints(payload.VoteC1)
	if err != nil {
		return fmt.Errorf("invalid voteC1: %w", err)
	}
	voteC2, err := toECPoints(payload.VoteC2)
	if err != nil {
		return fmt.Errorf("invalid voteC2: %w", err)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	repo := reactions.NewRepository(uow.Querier())

	tally, err := s.applyVote(ctx, repo, feedID, messageID, payload.Nullifier, voteC1, voteC2, payload.EncryptedBackup)
	if err != nil {
		return err
	}

	if err := uow.CommitAsync(); err != nil {
		return err
	}

	// A publish failure never unwinds the already-durable commit (spec
	// §4.8 failure semantics carried over to every indexing side effect).
	if err := s.publisher.PublishReactionTally(ctx, messageID, tally); err != nil {
		s.logger.Printf("publishing reaction tally for %s: %v", messageID, err)
	}
	return nil
}

// applyVote performs one FIRST_VOTE or UPDATE_VOTE transition, retrying as
// UPDATE_VOTE if InsertNullifier loses a primary-key race (spec §4.12.1
// failure semantics, first bullet).
func (s *ReactionStrategy) applyVote(ctx context.Context, repo *reactions.Repository, feedID ids.FeedId, messageID ids.FeedMessageId, nullifier []byte, voteC1, voteC2 reactions.ECPoints, encryptedBackup []byte) (reactions.MessageReactionTally, error) {
	existing, err := repo.GetNullifier(ctx, nullifier)
	switch {
	case errors.Is(err, persistence.ErrNotFound):
		return s.firstVote(ctx, repo, feedID, messageID, nullifier, voteC1, voteC2, encryptedBackup)
	case err != nil:
		return reactions.MessageReactionTally{}, fmt.Errorf("reading nullifier: %w", err)
	default:
		return s.updateVote(ctx, repo, feedID, messageID, nullifier, existing, voteC1, voteC2, encryptedBackup)
	}
}

func (s *ReactionStrategy) firstVote(ctx context.Context, repo *reactions.Repository, feedID ids.FeedId, messageID ids.FeedMessageId, nullifier []byte, voteC1, voteC2 reactions.ECPoints, encryptedBackup []byte) (reactions.MessageReactionTally, error) {
	tally, err := repo.GetTally(ctx, messageID)
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("reading tally: %w", err)
	}
	tally.MessageId = messageID
	tally.FeedId = feedID

	newC1, err := reactions.Combine(tally.TallyC1, voteC1, reactions.Add)
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("combining tally C1: %w", err)
	}
	newC2, err := reactions.Combine(tally.TallyC2, voteC2, reactions.Add)
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("combining tally C2: %w", err)
	}
	tally.TallyC1 = newC1
	tally.TallyC2 = newC2
	tally.TotalCount++
	tally.Version++

	err = repo.InsertNullifier(ctx, reactions.ReactionNullifier{
		Nullifier:       nullifier,
		MessageId:       messageID,
		VoteC1:          voteC1,
		VoteC2:          voteC2,
		EncryptedBackup: encryptedBackup,
	})
	if errors.Is(err, persistence.ErrConflict) {
		// Lost the race against a concurrent identical submission: re-read
		// and transition to UPDATE_VOTE against whatever just landed.
		existing, readErr := repo.GetNullifier(ctx, nullifier)
		if readErr != nil {
			return reactions.MessageReactionTally{}, fmt.Errorf("re-reading nullifier after insert conflict: %w", readErr)
		}
		return s.updateVote(ctx, repo, feedID, messageID, nullifier, existing, voteC1, voteC2, encryptedBackup)
	}
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("inserting nullifier: %w", err)
	}

	if err := repo.UpsertTally(ctx, tally); err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("upserting tally: %w", err)
	}
	return tally, nil
}

func (s *ReactionStrategy) updateVote(ctx context.Context, repo *reactions.Repository, feedID ids.FeedId, messageID ids.FeedMessageId, nullifier []byte, old reactions.ReactionNullifier, newC1, newC2 reactions.ECPoints, encryptedBackup []byte) (reactions.MessageReactionTally, error) {
	tally, err := repo.GetTally(ctx, messageID)
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("reading tally: %w", err)
	}
	tally.MessageId = messageID
	tally.FeedId = feedID

	withoutOld1, err := reactions.Combine(tally.TallyC1, old.VoteC1, reactions.Sub)
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("subtracting old vote C1: %w", err)
	}
	withoutOld2, err := reactions.Combine(tally.TallyC2, old.VoteC2, reactions.Sub)
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("subtracting old vote C2: %w", err)
	}
	withNew1, err := reactions.Combine(withoutOld1, newC1, reactions.Add)
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("adding new vote C1: %w", err)
	}
	withNew2, err := reactions.Combine(withoutOld2, newC2, reactions.Add)
	if err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("adding new vote C2: %w", err)
	}
	tally.TallyC1 = withNew1
	tally.TallyC2 = withNew2
	// TotalCount is unchanged: this vote already counted once.
	tally.Version++

	if err := repo.UpdateNullifier(ctx, reactions.ReactionNullifier{
		Nullifier:       nullifier,
		MessageId:       messageID,
		VoteC1:          newC1,
		VoteC2:          newC2,
		EncryptedBackup: encryptedBackup,
	}); err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("updating nullifier: %w", err)
	}

	if err := repo.UpsertTally(ctx, tally); err != nil {
		return reactions.MessageReactionTally{}, fmt.Errorf("upserting tally: %w", err)
	}
	return tally, nil
}

func toECPoints(raw [][]byte) (reactions.ECPoints, error) {
	if len(raw) != reactions.EmojiSlots {
		return reactions.ECPoints{}, fmt.Errorf("expected %d slots, got %d", reactions.EmojiSlots, len(raw))
	}
	var out reactions.ECPoints
	for i, b := range raw {
		out[i] = b
	}
	return out, nil
}
