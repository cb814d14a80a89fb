package strategies

import (
	"context"
	"testing"

	"github.com/hushnetwork-social/hush-node/pkg/feeds"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

func TestNewPersonalFeedStrategy_IsIdempotentOnOwner(t *testing.T) {
	if testPersist == nil {
		t.Skip("HUSH_TEST_DB not configured")
	}
	ctx := context.Background()
	strategy := NewNewPersonalFeedStrategy(testPersist)
	owner := "personal-feed-owner-" + ids.NewFeedId().String()
	feedID := ids.NewFeedId()

	payload := txkind.NewPersonalFeedPayload{
		FeedId:             feedID.String(),
		OwnerPublicAddress: owner,
		EncryptedFeedKey:   "encrypted-key",
		KeyGeneration:      1,
	}

	if err := strategy.Apply(ctx, ids.BlockIndex(1), newValidated(payload)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// A second personal feed for the same owner must not create a second row.
	secondFeedID := ids.NewFeedId()
	secondPayload := payload
	secondPayload.FeedId = secondFeedID.String()
	if err := strategy.Apply(ctx, ids.BlockIndex(2), newValidated(secondPayload)); err != nil {
		t.Fatalf("Apply (second attempt): %v", err)
	}

	repo := feeds.NewRepository(testPersist.DB())
	got, err := repo.GetPersonalFeed(ctx, owner)
	if err != nil {
		t.Fatalf("GetPersonalFeed: %v", err)
	}
	if got.FeedId != feedID {
		t.Errorf("expected the owner's personal feed to remain %s, got %s", feedID, got.FeedId)
	}
}

func TestNewFeedMessageStrategy_IsIdempotentOnFeedMessageId(t *testing.T) {
	if testPersist == nil {
		t.Skip("HUSH_TEST_DB not configured")
	}
	ctx := context.Background()

	chatStrategy := NewNewChatFeedStrategy(testPersist)
	feedID := ids.NewFeedId()
	issuer := "feed-message-issuer-" + feedID.String()
	if err := chatStrategy.Apply(ctx, ids.BlockIndex(1), newValidated(txkind.NewChatFeedPayload{
		FeedId:       feedID.String(),
		Title:        "test chat",
		Participants: []string{issuer},
	})); err != nil {
		t.Fatalf("seeding chat feed: %v", err)
	}

	messageStrategy := NewNewFeedMessageStrategy(testPersist, nil)
	messageID := ids.NewFeedMessageId()
	payload := txkind.NewFeedMessagePayload{
		FeedMessageId:       messageID.String(),
		FeedId:              feedID.String(),
		IssuerPublicAddress: issuer,
		Content:             "hello",
	}

	if err := messageStrategy.Apply(ctx, ids.BlockIndex(2), newValidated(payload)); err != nil {
		t.Fatalf("Apply: %v", err)
	}
	// Replaying the same message id (e.g. a restart re-dispatching a block)
	// must not error and must not duplicate the row.
	if err := messageStrategy.Apply(ctx, ids.BlockIndex(2), newValidated(payload)); err != nil {
		t.Fatalf("Apply (replay): %v", err)
	}

	repo := feeds.NewRepository(testPersist.DB())
	exists, err := repo.MessageExists(ctx, messageID)
	if err != nil {
		t.Fatalf("MessageExists: %v", err)
	}
	if !exists {
		t.Error("expected the message to exist after Apply")
	}

	commitment, err := repo.AuthorCommitment(ctx, messageID)
	if err != nil {
		t.Fatalf("AuthorCommitment: %v", err)
	}
	if len(commitment) == 0 {
		t.Error("expected a non-empty author commitment to be recorded")
	}
}
