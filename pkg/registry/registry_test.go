package registry

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
	"github.com/hushnetwork-social/hush-node/pkg/txkind"
)

type noopValidator struct{}

func (noopValidator) ValidateAndSign(_ context.Context, s tx.Signed) (tx.Validated, error) {
	return tx.Validated{Signed: s}, nil
}

type noopStrategy struct{}

func (noopStrategy) Apply(context.Context, ids.BlockIndex, tx.Validated) error { return nil }

func rewardEntry() Entry {
	return Entry{
		Kind:      txkind.KindReward,
		Decode:    txkind.Decoders[txkind.KindReward],
		Validator: noopValidator{},
		Strategy:  noopStrategy{},
	}
}

func TestRegistry_LookupUnknownKindFails(t *testing.T) {
	r := New()
	if _, err := r.Lookup(txkind.KindReward); !errors.Is(err, ErrUnknownPayloadKind) {
		t.Errorf("expected ErrUnknownPayloadKind, got %v", err)
	}
}

func TestRegistry_RegisterThenLookup(t *testing.T) {
	r := New()
	r.Register(rewardEntry())

	entry, err := r.Lookup(txkind.KindReward)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if entry.Kind != txkind.KindReward {
		t.Errorf("expected kind %s, got %s", txkind.KindReward, entry.Kind)
	}
}

func rawTransaction(t *testing.T, payloadKind, payloadJSON string) []byte {
	t.Helper()
	envelope := map[string]any{
		"unsigned": map[string]any{
			"transactionId": ids.NewTransactionId().String(),
			"payloadKind":   payloadKind,
			"timestamp":     ids.Now().String(),
			"payload":       json.RawMessage(payloadJSON),
			"payloadSize":   len(payloadJSON),
		},
		"userSignature": map[string]any{
			"signatoryPublicAddress": "addr",
			"signatureBytes":         []byte("sig"),
		},
	}
	raw, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshaling test envelope: %v", err)
	}
	return raw
}

func TestRegistry_DecodeSigned_RoundTripsRewardPayload(t *testing.T) {
	r := New()
	r.Register(rewardEntry())

	raw := rawTransaction(t, txkind.KindReward.String(), `{"issuerPublicAddress":"addr","token":"HUSH","amount":"1"}`)

	signed, err := r.DecodeSigned(raw)
	if err != nil {
		t.Fatalf("DecodeSigned: %v", err)
	}
	payload, ok := signed.Unsigned.Payload.(txkind.RewardPayload)
	if !ok {
		t.Fatalf("expected a RewardPayload, got %T", signed.Unsigned.Payload)
	}
	if payload.IssuerPublicAddress != "addr" || payload.Token != "HUSH" || payload.Amount != "1" {
		t.Errorf("unexpected payload contents: %+v", payload)
	}
}

func TestRegistry_DecodeSigned_UnknownKindFails(t *testing.T) {
	r := New()
	raw := rawTransaction(t, "not-a-real-kind--", `{}`)

	if _, err := r.DecodeSigned(raw); !errors.Is(err, ErrUnknownPayloadKind) {
		t.Errorf("expected ErrUnknownPayloadKind, got %v", err)
	}
}

func TestRegistry_DecodeValidated_CarriesValidatorSignature(t *testing.T) {
	r := New()
	r.Register(rewardEntry())

	payloadJSON := `{"issuerPublicAddress":"addr","token":"HUSH","amount":"1"}`
	raw := rawTransaction(t, txkind.KindReward.String(), payloadJSON)

	var envelope map[string]any
	if err := json.Unmarshal(raw, &envelope); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	envelope["validatorSignature"] = map[string]any{
		"signatoryPublicAddress": "validator-addr",
		"signatureBytes":         []byte("validator-sig"),
	}
	withValidator, err := json.Marshal(envelope)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}

	validated, err := r.DecodeValidated(withValidator)
	if err != nil {
		t.Fatalf("DecodeValidated: %v", err)
	}
	if validated.ValidatorSignature.SignatoryPublicAddress != "validator-addr" {
		t.Errorf("expected validator signature to round-trip, got %+v", validated.ValidatorSignature)
	}
}
