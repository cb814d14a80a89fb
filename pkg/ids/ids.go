// Package ids provides the opaque typed identifiers used across the node:
// wrapped UUIDs and block indices, plus the canonical timestamp form that
// feeds into signatures.
package ids

import (
	"fmt"

	"github.com/google/uuid"
)

// BlockId identifies a block.
type BlockId struct{ v uuid.UUID }

// BlockchainStateId identifies a chain-state row.
type BlockchainStateId struct{ v uuid.UUID }

// TransactionId identifies a transaction.
type TransactionId struct{ v uuid.UUID }

// FeedId identifies a feed.
type FeedId struct{ v uuid.UUID }

// FeedMessageId identifies a feed message.
type FeedMessageId struct{ v uuid.UUID }

// ReactionId identifies a reaction submission.
type ReactionId struct{ v uuid.UUID }

var (
	emptyBlockId             = BlockId{}
	genesisBlockId           = BlockId{v: uuid.MustParse("00000000-0000-0000-0000-000000000001")}
	emptyBlockchainStateId   = BlockchainStateId{}
	emptyTransactionId       = TransactionId{}
	emptyFeedId              = FeedId{}
	emptyFeedMessageId       = FeedMessageId{}
	emptyReactionId          = ReactionId{}
)

// EmptyBlockId is the well-known zero BlockId, used as PreviousBlockId of the genesis block.
func EmptyBlockId() BlockId { return emptyBlockId }

// GenesisBlockId is the well-known BlockId minted for the first block.
func GenesisBlockId() BlockId { return genesisBlockId }

func NewBlockId() BlockId                   { return BlockId{v: uuid.New()} }
func (b BlockId) String() string            { return b.v.String() }
func (b BlockId) IsEmpty() bool             { return b == emptyBlockId }
func (b BlockId) MarshalText() ([]byte, error) { return []byte(b.v.String()), nil }
func (b *BlockId) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("invalid BlockId: %w", err)
	}
	b.v = parsed
	return nil
}

func EmptyBlockchainStateId() BlockchainStateId { return emptyBlockchainStateId }
func NewBlockchainStateId() BlockchainStateId    { return BlockchainStateId{v: uuid.New()} }
func (b BlockchainStateId) String() string       { return b.v.String() }
func (b BlockchainStateId) MarshalText() ([]byte, error) { return []byte(b.v.String()), nil }
func (b *BlockchainStateId) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("invalid BlockchainStateId: %w", err)
	}
	b.v = parsed
	return nil
}

// ParseBlockId parses a BlockId from its string form.
func ParseBlockId(s string) (BlockId, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return BlockId{}, fmt.Errorf("invalid BlockId: %w", err)
	}
	return BlockId{v: parsed}, nil
}

// ParseBlockchainStateId parses a BlockchainStateId from its string form.
func ParseBlockchainStateId(s string) (BlockchainStateId, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return BlockchainStateId{}, fmt.Errorf("invalid BlockchainStateId: %w", err)
	}
	return BlockchainStateId{v: parsed}, nil
}

func EmptyTransactionId() TransactionId { return emptyTransactionId }
func NewTransactionId() TransactionId   { return TransactionId{v: uuid.New()} }
func (t TransactionId) String() string  { return t.v.String() }
func (t TransactionId) IsEmpty() bool   { return t == emptyTransactionId }
func (t TransactionId) MarshalText() ([]byte, error) { return []byte(t.v.String()), nil }
func (t *TransactionId) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("invalid TransactionId: %w", err)
	}
	t.v = parsed
	return nil
}

// ParseTransactionId parses a TransactionId from its string form.
func ParseTransactionId(s string) (TransactionId, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return TransactionId{}, fmt.Errorf("invalid TransactionId: %w", err)
	}
	return TransactionId{v: parsed}, nil
}

func EmptyFeedId() FeedId { return emptyFeedId }
func NewFeedId() FeedId   { return FeedId{v: uuid.New()} }
func (f FeedId) String() string { return f.v.String() }
func (f FeedId) IsEmpty() bool  { return f == emptyFeedId }
func (f FeedId) Bytes() [16]byte { return f.v }
func (f FeedId) MarshalText() ([]byte, error) { return []byte(f.v.String()), nil }
func (f *FeedId) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("invalid FeedId: %w", err)
	}
	f.v = parsed
	return nil
}

// ParseFeedId parses a FeedId from its string form and checks the wire-length
// invariant from spec §6: a FeedId is exactly 16 bytes once decoded.
func ParseFeedId(s string) (FeedId, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return FeedId{}, fmt.Errorf("invalid FeedId: %w", err)
	}
	return FeedId{v: parsed}, nil
}

func EmptyFeedMessageId() FeedMessageId { return emptyFeedMessageId }
func NewFeedMessageId() FeedMessageId   { return FeedMessageId{v: uuid.New()} }
func (m FeedMessageId) String() string  { return m.v.String() }
func (m FeedMessageId) IsEmpty() bool   { return m == emptyFeedMessageId }
func (m FeedMessageId) Bytes() [16]byte { return m.v }
func (m FeedMessageId) MarshalText() ([]byte, error) { return []byte(m.v.String()), nil }
func (m *FeedMessageId) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("invalid FeedMessageId: %w", err)
	}
	m.v = parsed
	return nil
}

func ParseFeedMessageId(s string) (FeedMessageId, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return FeedMessageId{}, fmt.Errorf("invalid FeedMessageId: %w", err)
	}
	return FeedMessageId{v: parsed}, nil
}

func EmptyReactionId() ReactionId { return emptyReactionId }
func NewReactionId() ReactionId   { return ReactionId{v: uuid.New()} }
func (r ReactionId) String() string { return r.v.String() }
func (r ReactionId) MarshalText() ([]byte, error) { return []byte(r.v.String()), nil }
func (r *ReactionId) UnmarshalText(text []byte) error {
	parsed, err := uuid.Parse(string(text))
	if err != nil {
		return fmt.Errorf("invalid ReactionId: %w", err)
	}
	r.v = parsed
	return nil
}

// ParseReactionId parses a ReactionId from its string form.
func ParseReactionId(s string) (ReactionId, error) {
	parsed, err := uuid.Parse(s)
	if err != nil {
		return ReactionId{}, fmt.Errorf("invalid ReactionId: %w", err)
	}
	return ReactionId{v: parsed}, nil
}

// BlockIndex is a monotonically non-decreasing 64-bit block height.
// Empty is -1; the genesis block is index 1 (spec §9 open question, resolved).
type BlockIndex int64

const (
	EmptyBlockIndex   BlockIndex = -1
	GenesisBlockIndex BlockIndex = 1
)

func (i BlockIndex) Next() BlockIndex { return i + 1 }
