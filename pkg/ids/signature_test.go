package ids

import (
	"crypto/ed25519"
	"testing"
)

type fakeSignable struct{ payload string }

func (f fakeSignable) CanonicalJSON() ([]byte, error) { return []byte(f.payload), nil }

func TestSignVerify_RoundTrips(t *testing.T) {
	pub, priv, err := ed25519.GenerateKey(nil)
	if err != nil {
		t.Fatalf("GenerateKey: %v", err)
	}
	_ = pub

	payload := fakeSignable{payload: `{"hello":"world"}`}
	sig, err := Sign(priv, payload)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}
	if !Verify(payload, sig) {
		t.Error("expected Verify to accept a signature produced by Sign over the same payload")
	}
}

func TestVerify_RejectsTamperedPayload(t *testing.T) {
	_, priv, _ := ed25519.GenerateKey(nil)
	original := fakeSignable{payload: `{"amount":"10"}`}
	sig, err := Sign(priv, original)
	if err != nil {
		t.Fatalf("Sign: %v", err)
	}

	tampered := fakeSignable{payload: `{"amount":"1000"}`}
	if Verify(tampered, sig) {
		t.Error("expected Verify to reject a signature checked against a different payload")
	}
}

func TestVerify_RejectsMalformedPublicAddress(t *testing.T) {
	payload := fakeSignable{payload: `{"x":1}`}
	sig := SignatureInfo{SignatoryPublicAddress: "not-hex", SignatureBytes: []byte("whatever")}
	if Verify(payload, sig) {
		t.Error("expected Verify to reject a malformed hex public address")
	}
}
