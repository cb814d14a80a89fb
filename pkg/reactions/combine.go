package reactions

import (
	"fmt"

	"github.com/consensys/gnark-crypto/ecc/bn254"
)

// Sign selects whether Combine adds or subtracts the vote from the tally.
type Sign int

const (
	Add Sign = 1
	Sub Sign = -1
)

// Combine is the opaque per-emoji-slot elliptic-curve point operator the
// reaction state machine (spec §4.12.1) builds on: tally[i] := tally[i] +
// sign*vote[i], where each slot is a compressed bn254 G1 point. A zero
// tally slot is the group identity (point at infinity), matching "a tally
// row not existing is equivalent to a zero tally" (spec §4.12.1 failure
// semantics).
func Combine(tally, vote ECPoints, sign Sign) (ECPoints, error) {
	var result ECPoints
	for i := 0; i < EmojiSlots; i++ {
		t, err := decodePoint(tally[i])
		if err != nil {
			return ECPoints{}, fmt.Errorf("decoding tally slot %d: %w", i, err)
		}
		v, err := decodePoint(vote[i])
		if err != nil {
			return ECPoints{}, fmt.Errorf("decoding vote slot %d: %w", i, err)
		}

		if sign == Sub {
			v.Neg(&v)
		}

		var sum bn254.G1Affine
		var sumJac, tJac, vJac bn254.G1Jac
		tJac.FromAffine(&t)
		vJac.FromAffine(&v)
		sumJac.Set(&tJac).AddAssign(&vJac)
		sum.FromJacobian(&sumJac)

		encoded := sum.Bytes()
		result[i] = encoded[:]
	}
	return result, nil
}

// decodePoint treats a nil/empty slot as the group identity, so a fresh
// MessageReactionTally (no row yet) combines correctly on the first vote.
func decodePoint(b []byte) (bn254.G1Affine, error) {
	var p bn254.G1Affine
	if len(b) == 0 {
		return p, nil
	}
	if _, err := p.SetBytes(b); err != nil {
		return bn254.G1Affine{}, err
	}
	return p, nil
}
