package txkind

import "encoding/json"

// Decoders maps each PayloadKind to the function that turns its raw JSON
// payload bytes into the concrete typed Payload. pkg/registry wires this
// table in at startup (spec §4.2).
var Decoders = map[PayloadKind]func(raw json.RawMessage) (Payload, error){
	KindReward:          decodeInto[RewardPayload],
	KindFullIdentity:    decodeInto[FullIdentityPayload],
	KindUpdateIdentity:  decodeInto[UpdateIdentityPayload],
	KindNewPersonalFeed: decodeInto[NewPersonalFeedPayload],
	KindNewChatFeed:     decodeInto[NewChatFeedPayload],
	KindJoinGroupFeed:   decodeInto[JoinGroupFeedPayload],
	KindLeaveGroupFeed:  decodeInto[LeaveGroupFeedPayload],
	KindNewFeedMessage:  decodeInto[NewFeedMessagePayload],
	KindSendFunds:       decodeInto[SendFundsPayload],
	KindNewReaction:     decodeInto[NewReactionPayload],
}

// decodeInto is generic over any Payload variant with no custom decode logic.
func decodeInto[T Payload](raw json.RawMessage) (Payload, error) {
	var p T
	if err := json.Unmarshal(raw, &p); err != nil {
		return nil, err
	}
	return p, nil
}
