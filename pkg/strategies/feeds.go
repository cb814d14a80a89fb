package strategies

import (
	"context"
	"crypto/sha256"
	"fmt"
	"log"

	"github.com/hushnetwork-social/hush-node/pkg/feeds"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/membership"
	"github.com/hushnetwork-social/hush-node/pkg/notify"
	"github.com/hushnetwork-social/hush-node/pkg/persistence"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// NewPersonalFeedStrategy creates the issuer's single personal feed,
// idempotently (spec §8 scenario 2).
type NewPersonalFeedStrategy struct {
	persist *persistence.Client
}

func NewNewPersonalFeedStrategy(persist *persistence.Client) *NewPersonalFeedStrategy {
	return &NewPersonalFeedStrategy{persist: persist}
}

// Apply implements registry.IndexStrategy.
func (s *NewPersonalFeedStrategy) Apply(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.NewPersonalFeedPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a new-personal-feed payload", t.Unsigned.TransactionId)
	}
	feedID, err := ids.ParseFeedId(payload.FeedId)
	if err != nil {
		return fmt.Errorf("invalid feed id: %w", err)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	repo := feeds.NewRepository(uow.Querier())
	if _, err := repo.CreateFeedWithOwner(ctx, feeds.Feed{
		FeedId:     feedID,
		Title:      "",
		FeedType:   feeds.Personal,
		BlockIndex: blockIndex,
	}, payload.OwnerPublicAddress, payload.EncryptedFeedKey, payload.KeyGeneration); err != nil {
		return fmt.Errorf("creating personal feed: %w", err)
	}

	return uow.CommitAsync()
}

// NewChatFeedStrategy creates a chat feed and inserts every named
// participant as a Member (a chat feed has no single owner).
type NewChatFeedStrategy struct {
	persist *persistence.Client
}

func NewNewChatFeedStrategy(persist *persistence.Client) *NewChatFeedStrategy {
	return &NewChatFeedStrategy{persist: persist}
}

// Apply implements registry.IndexStrategy.
func (s *NewChatFeedStrategy) Apply(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.NewChatFeedPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a new-chat-feed payload", t.Unsigned.TransactionId)
	}
	feedID, err := ids.ParseFeedId(payload.FeedId)
	if err != nil {
		return fmt.Errorf("invalid feed id: %w", err)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	repo := feeds.NewRepository(uow.Querier())
	created, err := repo.InsertFeedIfAbsent(ctx, feeds.Feed{
		FeedId:     feedID,
		Title:      payload.Title,
		FeedType:   feeds.Chat,
		BlockIndex: blockIndex,
	})
	if err != nil {
		return fmt.Errorf("creating chat feed: %w", err)
	}
	if !created {
		return uow.CommitAsync()
	}

	for _, participant := range payload.Participants {
		if err := repo.UpsertParticipant(ctx, feeds.Participant{
			FeedId:              feedID,
			MemberPublicAddress: participant,
			ParticipantType:     feeds.Member,
		}); err != nil {
			return fmt.Errorf("adding chat participant %s: %w", participant, err)
		}
	}

	return uow.CommitAsync()
}

// NewFeedMessageStrategy inserts the message row (idempotent on
// FeedMessageId) and binds the issuer's author commitment (a binding, not
// hiding, hash over the public issuer address and message id) so a later
// reaction can be validated against it (spec §4.7 step 3).
type NewFeedMessageStrategy struct {
	persist   *persistence.Client
	publisher notify.Publisher
	logger    *log.Logger
}

func NewNewFeedMessageStrategy(persist *persistence.Client, publisher notify.Publisher) *NewFeedMessageStrategy {
	if publisher == nil {
		publisher = notify.NoopPublisher{}
	}
	return &NewFeedMessageStrategy{
		persist:   persist,
		publisher: publisher,
		logger:    log.New(log.Writer(), "[NewFeedMessageStrategy] ", log.LstdFlags),
	}
}

// Apply implements registry.IndexStrategy.
func (s *NewFeedMessageStrategy) Apply(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.NewFeedMessagePayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a new-feed-message payload", t.Unsigned.TransactionId)
	}
	feedID, err := ids.ParseFeedId(payload.FeedId)
	if err != nil {
		return fmt.Errorf("invalid feed id: %w", err)
	}
	messageID, err := ids.ParseFeedMessageId(payload.FeedMessageId)
	if err != nil {
		return fmt.Errorf("invalid feed message id: %w", err)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	repo := feeds.NewRepository(uow.Querier())
	message := feeds.Message{
		FeedMessageId:       messageID,
		FeedId:              feedID,
		IssuerPublicAddress: payload.IssuerPublicAddress,
		Content:             payload.Content,
		Timestamp:           t.Unsigned.Timestamp,
		BlockIndex:          blockIndex,
	}
	created, err := repo.InsertMessageIfAbsent(ctx, message)
	if err != nil {
		return fmt.Errorf("inserting feed message: %w", err)
	}
	if !created {
		return uow.CommitAsync()
	}

	// The author commitment binds this message to its issuer for the
	// reaction circuit's public input (spec §4.7 step 3) without adding a
	// field to the wire payload: since IssuerPublicAddress is already
	// public on the message itself, a deterministic hash over
	// (issuer, messageId) is a binding, not hiding, commitment.
	commitment := sha256.Sum256([]byte(payload.IssuerPublicAddress + payload.FeedMessageId))
	if err := repo.SetAuthorCommitment(ctx, messageID, commitment[:]); err != nil {
		return fmt.Errorf("setting author commitment: %w", err)
	}

	if err := uow.CommitAsync(); err != nil {
		return err
	}

	// A publish failure never unwinds the already-durable commit (spec
	// §4.8 failure semantics carried over to every indexing side effect).
	if err := s.publisher.PublishNewMessage(ctx, feedID, message); err != nil {
		s.logger.Printf("publishing new message %s: %v", messageID, err)
	}
	return nil
}

// JoinGroupFeedStrategy adds a member participant, registers their
// anonymous commitment, and rebuilds the feed's membership Merkle tree so
// the new root is visible to the grace-window check as of this block.
type JoinGroupFeedStrategy struct {
	persist *persistence.Client
	members *membership.Service
}

func NewJoinGroupFeedStrategy(persist *persistence.Client, members *membership.Service) *JoinGroupFeedStrategy {
	return &JoinGroupFeedStrategy{persist: persist, members: members}
}

// Apply implements registry.IndexStrategy.
func (s *JoinGroupFeedStrategy) Apply(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.JoinGroupFeedPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a join-group-feed payload", t.Unsigned.TransactionId)
	}
	feedID, err := ids.ParseFeedId(payload.FeedId)
	if err != nil {
		return fmt.Errorf("invalid feed id: %w", err)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	feedRepo := feeds.NewRepository(uow.Querier())
	if err := feedRepo.UpsertParticipant(ctx, feeds.Participant{
		FeedId:              feedID,
		MemberPublicAddress: payload.MemberPublicAddress,
		ParticipantType:     feeds.Member,
		EncryptedFeedKey:    payload.EncryptedFeedKey,
		KeyGeneration:       payload.KeyGeneration,
	}); err != nil {
		return fmt.Errorf("adding group participant: %w", err)
	}

	reactionRepo := reactions.NewRepository(uow.Querier())
	if err := reactionRepo.RegisterCommitment(ctx, reactions.FeedMemberCommitment{
		FeedId:         feedID,
		UserCommitment: payload.UserCommitment,
	}); err != nil {
		return fmt.Errorf("registering member commitment: %w", err)
	}

	if err := uow.CommitAsync(); err != nil {
		return err
	}

	if err := s.members.RebuildAndRecordRoot(ctx, feedID, blockIndex); err != nil {
		return fmt.Errorf("rebuilding membership tree: %w", err)
	}
	return nil
}

// LeaveGroupFeedStrategy removes a member participant row. The member's
// commitment stays registered in feed_member_commitments, so a rebuilt
// membership tree still contains its leaf.
type LeaveGroupFeedStrategy struct {
	persist *persistence.Client
	members *membership.Service
}

func NewLeaveGroupFeedStrategy(persist *persistence.Client, members *membership.Service) *LeaveGroupFeedStrategy {
	return &LeaveGroupFeedStrategy{persist: persist, members: members}
}

// Apply implements registry.IndexStrategy.
func (s *LeaveGroupFeedStrategy) Apply(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) error {
	payload, ok := t.ExtractUnsigned().Payload.(txkind.LeaveGroupFeedPayload)
	if !ok {
		return fmt.Errorf("transaction %s is not a leave-group-feed payload", t.Unsigned.TransactionId)
	}
	feedID, err := ids.ParseFeedId(payload.FeedId)
	if err != nil {
		return fmt.Errorf("invalid feed id: %w", err)
	}

	uow, release, err := s.persist.CreateWritable(ctx)
	if err != nil {
		return fmt.Errorf("opening unit of work: %w", err)
	}
	defer release()

	feedRepo := feeds.NewRepository(uow.Querier())
	if err := feedRepo.RemoveParticipant(ctx, feedID, payload.MemberPublicAddress); err != nil {
		return fmt.Errorf("removing group participant: %w", err)
	}

	if err := uow.CommitAsync(); err != nil {
		return err
	}

	if err := s.members.RebuildAndRecordRoot(ctx, feedID, blockIndex); err != nil {
		return fmt.Errorf("rebuilding membership tree: %w", err)
	}
	return nil
}
