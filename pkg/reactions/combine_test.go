package reactions

import (
	"bytes"
	"math/big"
	"testing"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

func encodePoint(t *testing.T, scalar int64) []byte {
	t.Helper()
	var p bn254.G1Affine
	p.ScalarMultiplicationBase(big.NewInt(scalar))
	b := p.Bytes()
	return b[:]
}

func TestCombine_EmptyTallyAddsVoteAsIs(t *testing.T) {
	var tally ECPoints // zero value: every slot nil, i.e. group identity
	var vote ECPoints
	for i := 0; i < EmojiSlots; i++ {
		vote[i] = encodePoint(t, int64(i+1))
	}

	got, err := Combine(tally, vote, Add)
	if err != nil {
		t.Fatalf("Combine: %v", err)
	}
	for i := 0; i < EmojiSlots; i++ {
		if !bytes.Equal(got[i], vote[i]) {
			t.Errorf("slot %d: identity + vote should equal vote", i)
		}
	}
}

func TestCombine_AddThenSubtractReturnsOriginal(t *testing.T) {
	var tally ECPoints
	for i := 0; i < EmojiSlots; i++ {
		tally[i] = encodePoint(t, int64(10+i))
	}
	var vote ECPoints
	for i := 0; i < EmojiSlots; i++ {
		vote[i] = encodePoint(t, int64(i+1))
	}

	withVote, err := Combine(tally, vote, Add)
	if err != nil {
		t.Fatalf("Combine add: %v", err)
	}
	back, err := Combine(withVote, vote, Sub)
	if err != nil {
		t.Fatalf("Combine sub: %v", err)
	}

	for i := 0; i < EmojiSlots; i++ {
		if !bytes.Equal(back[i], tally[i]) {
			t.Errorf("slot %d: add-then-subtract should return the original tally", i)
		}
	}
}

func TestCombine_UpdateVoteReplacesContribution(t *testing.T) {
	// Mirrors ReactionStrategy.updateVote: tally = tally - old + new.
	var tally ECPoints
	for i := 0; i < EmojiSlots; i++ {
		tally[i] = encodePoint(t, 100)
	}
	oldVote := ECPoints{}
	newVote := ECPoints{}
	for i := 0; i < EmojiSlots; i++ {
		oldVote[i] = encodePoint(t, 1)
		newVote[i] = encodePoint(t, 2)
	}

	withoutOld, err := Combine(tally, oldVote, Sub)
	if err != nil {
		t.Fatalf("Combine sub old: %v", err)
	}
	withNew, err := Combine(withoutOld, newVote, Add)
	if err != nil {
		t.Fatalf("Combine add new: %v", err)
	}

	directlyAddedNew, err := Combine(tally, newVote, Add)
	if err != nil {
		t.Fatalf("Combine add new directly: %v", err)
	}
	directlyWithoutOld, err := Combine(directlyAddedNew, oldVote, Sub)
	if err != nil {
		t.Fatalf("Combine sub old directly: %v", err)
	}

	for i := 0; i < EmojiSlots; i++ {
		if !bytes.Equal(withNew[i], directlyWithoutOld[i]) {
			t.Errorf("slot %d: combine should be order-independent (abelian group)", i)
		}
	}
}

func TestCombine_InvalidPointReturnsError(t *testing.T) {
	var tally ECPoints
	var vote ECPoints
	vote[0] = []byte{0xff, 0xff, 0xff} // too short to be a valid compressed point

	if _, err := Combine(tally, vote, Add); err == nil {
		t.Fatal("expected an error decoding a malformed point")
	}
}
