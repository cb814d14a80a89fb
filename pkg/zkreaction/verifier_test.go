package zkreaction

import "testing"

func TestDevModeVerifier_AlwaysAccepts(t *testing.T) {
	v := DevModeVerifier{}
	ok, err := v.Verify(nil, PublicInputs{}, "dev-mode-anything")
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if !ok {
		t.Error("expected DevModeVerifier to always accept")
	}
}

func TestGroth16Verifier_RejectsCircuitVersionMismatch(t *testing.T) {
	v, err := NewGroth16Verifier("v1")
	if err != nil {
		t.Fatalf("NewGroth16Verifier: %v", err)
	}

	ok, err := v.Verify(nil, PublicInputs{VoteC1: make([][]byte, 6), VoteC2: make([][]byte, 6)}, "v2")
	if err == nil {
		t.Fatal("expected a circuit version mismatch error")
	}
	if ok {
		t.Error("expected Verify to report false on mismatch")
	}
}

func TestGroth16Verifier_RejectsWrongSlotCount(t *testing.T) {
	v, err := NewGroth16Verifier("v1")
	if err != nil {
		t.Fatalf("NewGroth16Verifier: %v", err)
	}

	ok, err := v.Verify(nil, PublicInputs{VoteC1: make([][]byte, 3), VoteC2: make([][]byte, 6)}, "v1")
	if err == nil {
		t.Fatal("expected an error for a wrong emoji-slot count")
	}
	if ok {
		t.Error("expected Verify to report false on malformed input")
	}
}
