package validators

import (
	"context"
	"crypto/ed25519"
	"testing"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

func signedReward(t *testing.T, userKey ed25519.PrivateKey) tx.Signed {
	t.Helper()
	payload := txkind.RewardPayload{IssuerPublicAddress: "addr-1", Token: "HUSH", Amount: "10"}
	unsigned := tx.Unsigned{
		TransactionId: ids.NewTransactionId(),
		PayloadKind:   txkind.KindReward,
		Timestamp:     ids.Now(),
		Payload:       payload,
	}
	sig, err := ids.Sign(userKey, unsigned)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	return tx.Signed{Unsigned: unsigned, UserSignature: sig}
}

func TestGenericValidator_ValidateAndSign_CountersignsValidTransaction(t *testing.T) {
	userPub, userKey, _ := ed25519.GenerateKey(nil)
	_ = userPub
	_, validatorKey, _ := ed25519.GenerateKey(nil)

	v := NewGenericValidator(Credential{PrivateKey: validatorKey})
	signed := signedReward(t, userKey)

	validated, err := v.ValidateAndSign(context.Background(), signed)
	if err != nil {
		t.Fatalf("ValidateAndSign: %v", err)
	}
	if !ids.Verify(validated.Signed, validated.ValidatorSignature) {
		t.Error("expected the validator signature to verify against the Signed envelope")
	}
}

func TestGenericValidator_ValidateAndSign_RejectsBadUserSignature(t *testing.T) {
	_, userKey, _ := ed25519.GenerateKey(nil)
	_, otherKey, _ := ed25519.GenerateKey(nil)
	_, validatorKey, _ := ed25519.GenerateKey(nil)

	signed := signedReward(t, userKey)
	// Swap in a signature produced by a different key.
	badSig, _ := ids.Sign(otherKey, signed.Unsigned)
	signed.UserSignature = badSig

	v := NewGenericValidator(Credential{PrivateKey: validatorKey})
	if _, err := v.ValidateAndSign(context.Background(), signed); err == nil {
		t.Fatal("expected an error for a user signature that doesn't match the claimed payload")
	}
}

func TestGenericValidator_ValidateAndSign_RejectsMissingPayload(t *testing.T) {
	_, validatorKey, _ := ed25519.GenerateKey(nil)
	v := NewGenericValidator(Credential{PrivateKey: validatorKey})

	signed := tx.Signed{Unsigned: tx.Unsigned{TransactionId: ids.NewTransactionId()}}
	if _, err := v.ValidateAndSign(context.Background(), signed); err == nil {
		t.Fatal("expected an error for a transaction with no payload")
	}
}
