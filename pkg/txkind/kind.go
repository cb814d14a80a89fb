// Package txkind declares the payload-kind tags and the TransactionPayload
// sum type: each transaction payload variant the node accepts, tagged with
// a 128-bit PayloadKind constant so the registry (pkg/registry) can
// dispatch decode/validate/index without reflection.
package txkind

import (
	"encoding/json"
	"fmt"
)

// PayloadKind is a 128-bit tag uniquely identifying a transaction payload variant.
type PayloadKind [16]byte

func (k PayloadKind) String() string {
	return string(k[:])
}

var (
	KindReward          = mustKind("reward-v1--------")
	KindFullIdentity    = mustKind("full-identity-v1-")
	KindUpdateIdentity  = mustKind("update-identity-1")
	KindNewPersonalFeed = mustKind("new-personal-feed")
	KindNewChatFeed     = mustKind("new-chat-feed-v1-")
	KindJoinGroupFeed   = mustKind("join-group-feed-1")
	KindLeaveGroupFeed  = mustKind("leave-group-feed1")
	KindNewFeedMessage  = mustKind("new-feed-message1")
	KindSendFunds       = mustKind("send-funds-v1----")
	KindNewReaction     = mustKind("new-reaction-v1--")
)

var byLabel = map[string]PayloadKind{
	KindReward.String():          KindReward,
	KindFullIdentity.String():    KindFullIdentity,
	KindUpdateIdentity.String():  KindUpdateIdentity,
	KindNewPersonalFeed.String(): KindNewPersonalFeed,
	KindNewChatFeed.String():     KindNewChatFeed,
	KindJoinGroupFeed.String():   KindJoinGroupFeed,
	KindLeaveGroupFeed.String():  KindLeaveGroupFeed,
	KindNewFeedMessage.String():  KindNewFeedMessage,
	KindSendFunds.String():       KindSendFunds,
	KindNewReaction.String():     KindNewReaction,
}

// Parse recovers a PayloadKind from its wire string form. Unknown labels
// are the "fails with UnknownPayloadKind" case from spec §4.2, reported by
// the caller (pkg/registry), not here.
func Parse(label string) (PayloadKind, error) {
	k, ok := byLabel[label]
	if !ok {
		return PayloadKind{}, fmt.Errorf("unrecognized payload kind label: %q", label)
	}
	return k, nil
}

// mustKind pads or truncates a human-readable label to the fixed 16-byte
// tag width. The labels exist only so the tags are recognizable in logs
// and test fixtures; callers must never parse them.
func mustKind(label string) PayloadKind {
	var k PayloadKind
	copy(k[:], label)
	return k
}

// Payload is implemented by every transaction payload variant. Each
// payload is opaque to the core except its kind tag and its canonical
// JSON form (used both for signing and for storage in BlockJson).
type Payload interface {
	Kind() PayloadKind
}

// CanonicalJSON returns the deterministic JSON encoding of a payload.
// encoding/json already emits struct fields in declaration order, which is
// the canonical order required by spec §4.1.
func CanonicalJSON(p Payload) ([]byte, error) {
	return json.Marshal(p)
}
