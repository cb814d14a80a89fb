// Package registry is the Transaction Registry (C2): it maps a
// PayloadKind tag to the decoder, content validator, and index strategy
// that handle it, so the rest of the pipeline never switches on kind
// directly.
package registry

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// ErrUnknownPayloadKind is returned when no entry matches a decoded kind tag.
var ErrUnknownPayloadKind = fmt.Errorf("unknown payload kind")

// ContentValidator validates and countersigns a Signed transaction of a
// kind this entry owns (C7).
type ContentValidator interface {
	ValidateAndSign(ctx context.Context, t tx.Signed) (tx.Validated, error)
}

// IndexStrategy projects a committed Validated transaction onto derived
// domain state (C12). blockIndex is the index of the block the
// transaction was committed in, since several derived rows (Feed,
// FeedMessage, IdentityProfile) record the block at which they were
// created or last updated.
type IndexStrategy interface {
	Apply(ctx context.Context, blockIndex ids.BlockIndex, t tx.Validated) error
}

// DecodePayload turns the raw payload bytes embedded in a transaction's
// canonical JSON back into a typed txkind.Payload.
type DecodePayload func(raw json.RawMessage) (txkind.Payload, error)

// Entry is one registered payload kind's full handling set.
type Entry struct {
	Kind      txkind.PayloadKind
	Decode    DecodePayload
	Validator ContentValidator
	Strategy  IndexStrategy
}

// Registry is populated once at startup with one Entry per payload kind.
type Registry struct {
	mu      sync.RWMutex
	entries map[txkind.PayloadKind]Entry
}

func New() *Registry {
	return &Registry{entries: make(map[txkind.PayloadKind]Entry)}
}

// Register adds an entry. Re-registering the same kind overwrites the
// previous entry, matching startup-time idempotent wiring.
func (r *Registry) Register(e Entry) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[e.Kind] = e
}

// Lookup returns the entry for a kind, or ErrUnknownPayloadKind.
func (r *Registry) Lookup(kind txkind.PayloadKind) (Entry, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[kind]
	if !ok {
		return Entry{}, fmt.Errorf("%w: %s", ErrUnknownPayloadKind, kind)
	}
	return e, nil
}

// signedWire mirrors tx.Signed's CanonicalJSON nesting so a raw incoming
// transaction can be decoded without knowing its payload's concrete type
// up front.
type signedWire struct {
	Unsigned struct {
		TransactionId string          `json:"transactionId"`
		PayloadKind   string          `json:"payloadKind"`
		Timestamp     string          `json:"timestamp"`
		Payload       json.RawMessage `json:"payload"`
		PayloadSize   int             `json:"payloadSize"`
	} `json:"unsigned"`
	UserSignature ids.SignatureInfo `json:"userSignature"`
}

// DecodeSigned peeks PayloadKind from raw transaction JSON, dispatches to
// the matching entry's decoder for the payload, and assembles a tx.Signed.
// This is the "polymorphic deserialization" step from spec §4.2.
func (r *Registry) DecodeSigned(raw []byte) (tx.Signed, error) {
	var wire signedWire
	if err := json.Unmarshal(raw, &wire); err != nil {
		return tx.Signed{}, fmt.Errorf("decoding transaction envelope: %w", err)
	}

	kind, err := txkind.Parse(wire.Unsigned.PayloadKind)
	if err != nil {
		return tx.Signed{}, fmt.Errorf("%w: %s", ErrUnknownPayloadKind, wire.Unsigned.PayloadKind)
	}

	entry, err := r.Lookup(kind)
	if err != nil {
		return tx.Signed{}, err
	}

	payload, err := entry.Decode(wire.Unsigned.Payload)
	if err != nil {
		return tx.Signed{}, fmt.Errorf("decoding payload for kind %s: %w", kind, err)
	}

	id, err := ids.ParseTransactionId(wire.Unsigned.TransactionId)
	if err != nil {
		return tx.Signed{}, err
	}
	ts, err := ids.ParseTimestamp(wire.Unsigned.Timestamp)
	if err != nil {
		return tx.Signed{}, err
	}

	return tx.Signed{
		Unsigned: tx.Unsigned{
			TransactionId: id,
			PayloadKind:   kind,
			Timestamp:     ts,
			Payload:       payload,
			PayloadSize:   wire.Unsigned.PayloadSize,
		},
		UserSignature: wire.UserSignature,
	}, nil
}

// DecodeValidated decodes a raw transaction JSON that already carries a
// ValidatorSignature (e.g. a block's persisted BlockJson being replayed).
func (r *Registry) DecodeValidated(raw []byte) (tx.Validated, error) {
	var wire struct {
		signedWire
		ValidatorSignature ids.SignatureInfo `json:"validatorSignature"`
	}
	signed, err := r.DecodeSigned(raw)
	if err != nil {
		return tx.Validated{}, err
	}
	if err := json.Unmarshal(raw, &wire); err != nil {
		return tx.Validated{}, fmt.Errorf("decoding validated transaction: %w", err)
	}
	return tx.Validated{Signed: signed, ValidatorSignature: wire.ValidatorSignature}, nil
}
