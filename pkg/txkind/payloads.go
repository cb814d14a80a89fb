package txkind

// RewardPayload credits a fixed reward amount to the issuing address.
// Reward transactions are self-validated by the block producer (spec §9
// open question, resolved: the producer signs as both user and validator).
type RewardPayload struct {
	IssuerPublicAddress string `json:"issuerPublicAddress"`
	Token               string `json:"token"`
	Amount              string `json:"amount"`
}

func (RewardPayload) Kind() PayloadKind { return KindReward }

// FullIdentityPayload registers a new identity profile.
type FullIdentityPayload struct {
	PublicSigningAddress string `json:"publicSigningAddress"`
	Alias                 string `json:"alias"`
	ShortAlias             string `json:"shortAlias"`
	PublicEncryptAddress   string `json:"publicEncryptAddress"`
	IsPublic               bool   `json:"isPublic"`
}

func (FullIdentityPayload) Kind() PayloadKind { return KindFullIdentity }

// UpdateIdentityPayload updates the alias of an existing identity profile.
type UpdateIdentityPayload struct {
	PublicSigningAddress string `json:"publicSigningAddress"`
	Alias                 string `json:"alias"`
}

func (UpdateIdentityPayload) Kind() PayloadKind { return KindUpdateIdentity }

// NewPersonalFeedPayload creates the issuer's single personal feed.
type NewPersonalFeedPayload struct {
	FeedId           string `json:"feedId"`
	OwnerPublicAddress string `json:"ownerPublicAddress"`
	EncryptedFeedKey string `json:"encryptedFeedKey"`
	KeyGeneration    int    `json:"keyGeneration"`
}

func (NewPersonalFeedPayload) Kind() PayloadKind { return KindNewPersonalFeed }

// NewChatFeedPayload creates a direct chat feed between participants.
type NewChatFeedPayload struct {
	FeedId       string   `json:"feedId"`
	Title        string   `json:"title"`
	Participants []string `json:"participants"`
}

func (NewChatFeedPayload) Kind() PayloadKind { return KindNewChatFeed }

// JoinGroupFeedPayload adds a member to a group feed.
type JoinGroupFeedPayload struct {
	FeedId              string `json:"feedId"`
	MemberPublicAddress string `json:"memberPublicAddress"`
	EncryptedFeedKey    string `json:"encryptedFeedKey"`
	KeyGeneration       int    `json:"keyGeneration"`
	UserCommitment      []byte `json:"userCommitment"`
}

func (JoinGroupFeedPayload) Kind() PayloadKind { return KindJoinGroupFeed }

// LeaveGroupFeedPayload removes a member from a group feed.
type LeaveGroupFeedPayload struct {
	FeedId              string `json:"feedId"`
	MemberPublicAddress string `json:"memberPublicAddress"`
}

func (LeaveGroupFeedPayload) Kind() PayloadKind { return KindLeaveGroupFeed }

// NewFeedMessagePayload posts a message to a feed.
type NewFeedMessagePayload struct {
	FeedMessageId       string `json:"feedMessageId"`
	FeedId              string `json:"feedId"`
	IssuerPublicAddress string `json:"issuerPublicAddress"`
	Content             string `json:"content"`
}

func (NewFeedMessagePayload) Kind() PayloadKind { return KindNewFeedMessage }

// SendFundsPayload transfers funds between two addresses.
type SendFundsPayload struct {
	FromPublicAddress string `json:"fromPublicAddress"`
	ToPublicAddress   string `json:"toPublicAddress"`
	Token             string `json:"token"`
	Amount            string `json:"amount"`
}

func (SendFundsPayload) Kind() PayloadKind { return KindSendFunds }

// NewReactionPayload submits an anonymous reaction backed by a ZK proof.
// VoteC1/VoteC2 each carry six 32-byte elliptic-curve coordinates, one per
// emoji slot, ciphertext of the user's vote under the feed's additive
// homomorphic scheme.
type NewReactionPayload struct {
	FeedId            string     `json:"feedId"`
	MessageId         string     `json:"messageId"`
	Nullifier         []byte     `json:"nullifier"`
	VoteC1            [][]byte   `json:"voteC1"`
	VoteC2            [][]byte   `json:"voteC2"`
	AuthorCommitment  []byte     `json:"authorCommitment"`
	CircuitVersion    string     `json:"circuitVersion"`
	Proof             []byte     `json:"proof"`
	EncryptedBackup   []byte     `json:"encryptedBackup,omitempty"`
}

func (NewReactionPayload) Kind() PayloadKind { return KindNewReaction }
