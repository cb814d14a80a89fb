// Package tx implements the three-state transaction envelope (C1): a
// transaction is created Unsigned, becomes Signed once the user countersigns
// it, and becomes Validated once the block producer countersigns it in turn.
// The canonical-JSON form of the enclosing state is what gets signed at
// each step: Signed's CanonicalJSON nests Unsigned's canonical JSON under
// "unsigned" next to its userSignature field.
package tx

import (
	"encoding/json"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

// Unsigned is the transaction as the client first builds it.
type Unsigned struct {
	TransactionId ids.TransactionId `json:"transactionId"`
	PayloadKind   txkind.PayloadKind `json:"payloadKind"`
	Timestamp     ids.Timestamp      `json:"timestamp"`
	Payload       txkind.Payload     `json:"payload"`
	PayloadSize   int                `json:"payloadSize"`
}

// CanonicalJSON implements ids.Signable.
func (u Unsigned) CanonicalJSON() ([]byte, error) {
	return json.Marshal(unsignedWire{
		TransactionId: u.TransactionId.String(),
		PayloadKind:   u.PayloadKind.String(),
		Timestamp:     u.Timestamp.String(),
		Payload:       u.Payload,
	})
}

type unsignedWire struct {
	TransactionId string          `json:"transactionId"`
	PayloadKind   string          `json:"payloadKind"`
	Timestamp     string          `json:"timestamp"`
	Payload       txkind.Payload `json:"payload"`
}

// Signed is Unsigned plus the user's signature over Unsigned's canonical JSON.
type Signed struct {
	Unsigned
	UserSignature ids.SignatureInfo `json:"userSignature"`
}

// CanonicalJSON implements ids.Signable: the validator countersigns this form.
func (s Signed) CanonicalJSON() ([]byte, error) {
	inner, err := s.Unsigned.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(signedWire{
		Unsigned:      json.RawMessage(inner),
		UserSignature: s.UserSignature,
	})
}

type signedWire struct {
	Unsigned      json.RawMessage    `json:"unsigned"`
	UserSignature ids.SignatureInfo `json:"userSignature"`
}

// Validated is Signed plus the block producer's countersignature. Once a
// transaction reaches this state it is eligible for the mempool.
type Validated struct {
	Signed
	ValidatorSignature ids.SignatureInfo `json:"validatorSignature"`
}

// ExtractUnsigned is a pure projection discarding both signatures.
func (v Validated) ExtractUnsigned() Unsigned { return v.Signed.Unsigned }

// ExtractSigned is a pure projection discarding the validator signature.
func (v Validated) ExtractSigned() Signed { return v.Signed }

// CanonicalJSON is the wire form a Validated transaction is embedded under
// in a block's BlockJson and in RPC responses: the same flat
// {"unsigned":...,"userSignature":...} shape Signed produces, plus
// validatorSignature, matching what registry.DecodeValidated expects on
// replay. This is what must be used to serialize a Validated transaction
// for signing, storage, or RPC output — relying on encoding/json's default
// struct marshaling instead flattens the embedded states rather than
// nesting them under "unsigned", and renders PayloadKind as a raw byte
// array rather than its wire string form.
func (v Validated) CanonicalJSON() ([]byte, error) {
	inner, err := v.Unsigned.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(validatedWire{
		Unsigned:           json.RawMessage(inner),
		UserSignature:      v.UserSignature,
		ValidatorSignature: v.ValidatorSignature,
	})
}

type validatedWire struct {
	Unsigned           json.RawMessage   `json:"unsigned"`
	UserSignature      ids.SignatureInfo `json:"userSignature"`
	ValidatorSignature ids.SignatureInfo `json:"validatorSignature"`
}
