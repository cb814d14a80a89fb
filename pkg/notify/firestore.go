package notify

import (
	"context"
	"fmt"
	"log"
	"time"

	gcpfirestore "cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"google.golang.org/api/option"

	"github.com/hushnetwork-social/hush-node/pkg/feeds"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
)

// FirestoreConfig configures FirestorePublisher, mirroring the teacher's
// firestore.ClientConfig shape.
type FirestoreConfig struct {
	ProjectID       string
	CredentialsFile string
	Logger          *log.Logger
}

// FirestorePublisher writes a denormalized document per event to a
// collection clients subscribe to for realtime updates, adapted from the
// teacher's firestore.SyncService.
type FirestorePublisher struct {
	client *gcpfirestore.Client
	logger *log.Logger
}

// NewFirestorePublisher initializes the Firebase app and Firestore client.
func NewFirestorePublisher(ctx context.Context, cfg FirestoreConfig) (*FirestorePublisher, error) {
	if cfg.ProjectID == "" {
		return nil, fmt.Errorf("firebase project id is required")
	}
	if cfg.Logger == nil {
		cfg.Logger = log.New(log.Writer(), "[Notify] ", log.LstdFlags)
	}

	var opts []option.ClientOption
	if cfg.CredentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(cfg.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, &firebase.Config{ProjectID: cfg.ProjectID}, opts...)
	if err != nil {
		return nil, fmt.Errorf("initializing firebase app: %w", err)
	}
	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("creating firestore client: %w", err)
	}

	return &FirestorePublisher{client: fsClient, logger: cfg.Logger}, nil
}

// Close releases the underlying Firestore client.
func (p *FirestorePublisher) Close() error {
	return p.client.Close()
}

// PublishNewMessage writes a feeds/{feedId}/messages/{messageId} document.
func (p *FirestorePublisher) PublishNewMessage(ctx context.Context, feedID ids.FeedId, message feeds.Message) error {
	doc := map[string]interface{}{
		"feedMessageId":       message.FeedMessageId.String(),
		"feedId":              feedID.String(),
		"issuerPublicAddress": message.IssuerPublicAddress,
		"content":             message.Content,
		"blockIndex":          int64(message.BlockIndex),
		"syncedAt":            time.Now().UTC(),
	}
	_, err := p.client.Collection("feeds").Doc(feedID.String()).
		Collection("messages").Doc(message.FeedMessageId.String()).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("publishing new message: %w", err)
	}
	return nil
}

// PublishReactionTally writes a reaction_tallies/{messageId} document.
func (p *FirestorePublisher) PublishReactionTally(ctx context.Context, messageID ids.FeedMessageId, tally reactions.MessageReactionTally) error {
	doc := map[string]interface{}{
		"messageId":  messageID.String(),
		"feedId":     tally.FeedId.String(),
		"totalCount": tally.TotalCount,
		"version":    tally.Version,
		"syncedAt":   time.Now().UTC(),
	}
	_, err := p.client.Collection("reaction_tallies").Doc(messageID.String()).Set(ctx, doc)
	if err != nil {
		return fmt.Errorf("publishing reaction tally: %w", err)
	}
	return nil
}
