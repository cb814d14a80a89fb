// Package validators implements the Content Validators (C7): per-payload-kind
// validate-and-countersign. Every non-reaction kind shares the same
// structural-sanity → signature-verify → countersign shape (spec §4.7); the
// reaction kind additionally runs the ZK check in reaction.go.
package validators

import (
	"context"
	"crypto/ed25519"
	"fmt"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
)

// Credential is the block-producer/validator signing key used to
// countersign every Signed transaction this node accepts.
type Credential struct {
	PrivateKey ed25519.PrivateKey
}

// GenericValidator handles every payload kind whose validation is just
// structural sanity, payload-kind equality, and a user-signature check
// (spec §4.7, first sentence).
type GenericValidator struct {
	credential Credential
}

func NewGenericValidator(c Credential) *GenericValidator {
	return &GenericValidator{credential: c}
}

// ValidateAndSign implements registry.ContentValidator.
func (v *GenericValidator) ValidateAndSign(_ context.Context, t tx.Signed) (tx.Validated, error) {
	if t.Unsigned.Payload == nil {
		return tx.Validated{}, fmt.Errorf("transaction %s has no payload", t.Unsigned.TransactionId)
	}
	if t.Unsigned.PayloadKind != t.Unsigned.Payload.Kind() {
		return tx.Validated{}, fmt.Errorf("payload kind mismatch for transaction %s", t.Unsigned.TransactionId)
	}
	if !ids.Verify(t.Unsigned, t.UserSignature) {
		return tx.Validated{}, fmt.Errorf("invalid user signature on transaction %s", t.Unsigned.TransactionId)
	}

	validatorSig, err := ids.Sign(v.credential.PrivateKey, t)
	if err != nil {
		return tx.Validated{}, fmt.Errorf("countersigning transaction %s: %w", t.Unsigned.TransactionId, err)
	}

	return tx.Validated{Signed: t, ValidatorSignature: validatorSig}, nil
}
