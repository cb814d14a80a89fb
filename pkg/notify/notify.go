// Package notify is the Notification Delivery component (A6): fan-out of
// newly indexed Feed/Message/Reaction events to connected clients, adapted
// from the teacher's pkg/firestore sync service onto this domain's events.
package notify

import (
	"context"

	"github.com/hushnetwork-social/hush-node/pkg/feeds"
	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/reactions"
)

// Publisher delivers derived-state updates to whatever downstream
// subscription mechanism clients use. Index strategies call it after their
// own unit-of-work commits; a publish failure is logged by the caller,
// never rolled back into the already-durable commit (spec.md §4.8 failure
// semantics, carried over to every downstream side effect of indexing).
type Publisher interface {
	PublishNewMessage(ctx context.Context, feedID ids.FeedId, message feeds.Message) error
	PublishReactionTally(ctx context.Context, messageID ids.FeedMessageId, tally reactions.MessageReactionTally) error
}

// NoopPublisher is the default when Firestore is not configured.
type NoopPublisher struct{}

func (NoopPublisher) PublishNewMessage(context.Context, ids.FeedId, feeds.Message) error { return nil }
func (NoopPublisher) PublishReactionTally(context.Context, ids.FeedMessageId, reactions.MessageReactionTally) error {
	return nil
}
