package zkreaction

import (
	"bytes"
	"errors"
	"fmt"
	"math/big"
	"strings"
	"sync"

	"github.com/consensys/gnark-crypto/ecc"
	"github.com/consensys/gnark/backend/groth16"
	groth16_bn254 "github.com/consensys/gnark/backend/groth16/bn254"
	"github.com/consensys/gnark/constraint"
	"github.com/consensys/gnark/frontend"
	"github.com/consensys/gnark/frontend/cs/r1cs"
)

// PublicInputs is the opaque predicate's input, assembled by the reaction
// content validator per spec §4.7 step 5.
type PublicInputs struct {
	Nullifier        []byte
	VoteC1           [][]byte
	VoteC2           [][]byte
	MessageId        []byte
	FeedPublicKey    []byte
	MerkleRoot       []byte
	AuthorCommitment []byte
}

// Proof is the opaque proof bytes the client submitted alongside the
// reaction payload (txkind.NewReactionPayload.Proof).
type Proof []byte

// Verifier is the opaque predicate spec §4.7 treats the ZK scheme as: given
// a proof, public inputs, and the circuit version the client claims, return
// whether the proof verifies. It never panics; any internal failure must be
// reported as (false, error) so the caller can reject without propagating.
type Verifier interface {
	Verify(proof Proof, inputs PublicInputs, circuitVersion string) (bool, error)
}

// DevModeVerifier always accepts, for the "CircuitVersion starts with
// dev-mode" bypass in spec §4.7 step 2. It is never selected for a
// production circuit version.
type DevModeVerifier struct{}

func (DevModeVerifier) Verify(Proof, PublicInputs, string) (bool, error) { return true, nil }

// Groth16Verifier holds one compiled circuit plus its verifying key for a
// single circuit version. The proving key is not held here: this side of
// the pipeline only ever verifies, matching the "opaque predicate" framing
// in spec §1.
type Groth16Verifier struct {
	mu             sync.RWMutex
	circuitVersion string
	cs             constraint.ConstraintSystem
	vk             groth16.VerifyingKey
}

// NewGroth16Verifier compiles the reaction circuit and derives a
// verification key via a local Groth16 trusted setup. Production
// deployments should instead load a previously-generated vk (not modeled
// here — the proving side is out of scope per spec §1).
func NewGroth16Verifier(circuitVersion string) (*Groth16Verifier, error) {
	var circuit Circuit
	cs, err := frontend.Compile(ecc.BN254.ScalarField(), r1cs.NewBuilder, &circuit)
	if err != nil {
		return nil, fmt.Errorf("compiling reaction circuit: %w", err)
	}

	_, vk, err := groth16.Setup(cs)
	if err != nil {
		return nil, fmt.Errorf("groth16 setup: %w", err)
	}

	return &Groth16Verifier{circuitVersion: circuitVersion, cs: cs, vk: vk}, nil
}

// Verify reconstructs the public witness from inputs and checks the proof
// against the compiled circuit's verification key. Any malformed input or
// internal gnark error is reported as (false, error), never a panic, so the
// content validator's "any exception causes rejection" rule (spec §4.7
// step 6) holds without special-casing here.
func (v *Groth16Verifier) Verify(proof Proof, inputs PublicInputs, circuitVersion string) (bool, error) {
	if strings.TrimSpace(circuitVersion) != v.circuitVersion {
		return false, fmt.Errorf("circuit version mismatch: verifier=%s proof=%s", v.circuitVersion, circuitVersion)
	}
	if len(inputs.VoteC1) != 6 || len(inputs.VoteC2) != 6 {
		return false, errors.New("public inputs must carry six emoji-slot coordinates")
	}

	assignment, err := publicAssignment(inputs)
	if err != nil {
		return false, err
	}

	publicWitness, err := frontend.NewWitness(assignment, ecc.BN254.ScalarField(), frontend.PublicOnly())
	if err != nil {
		return false, fmt.Errorf("building public witness: %w", err)
	}

	v.mu.RLock()
	defer v.mu.RUnlock()

	groth16Proof, err := decodeProof(proof)
	if err != nil {
		return false, err
	}

	if err := groth16.Verify(groth16Proof, v.vk, publicWitness); err != nil {
		return false, nil
	}
	return true, nil
}

func publicAssignment(inputs PublicInputs) (*Circuit, error) {
	c := &Circuit{
		Nullifier:        new(big.Int).SetBytes(inputs.Nullifier),
		MessageId:        new(big.Int).SetBytes(inputs.MessageId),
		FeedPublicKey:    new(big.Int).SetBytes(inputs.FeedPublicKey),
		MerkleRoot:       new(big.Int).SetBytes(inputs.MerkleRoot),
		AuthorCommitment: new(big.Int).SetBytes(inputs.AuthorCommitment),
	}
	for i := 0; i < 6; i++ {
		c.VoteC1[i] = new(big.Int).SetBytes(inputs.VoteC1[i])
		c.VoteC2[i] = new(big.Int).SetBytes(inputs.VoteC2[i])
	}
	return c, nil
}

// decodeProof reconstructs a gnark Groth16 BN254 proof from the raw bytes a
// client submitted. The wire format is the gnark-native binary encoding
// (proof.WriteTo), not a custom one, so clients and this verifier agree
// without the core needing to know the ZK scheme's internals.
func decodeProof(raw Proof) (groth16.Proof, error) {
	proof := &groth16_bn254.Proof{}
	if _, err := proof.ReadFrom(bytes.NewReader(raw)); err != nil {
		return nil, fmt.Errorf("decoding proof bytes: %w", err)
	}
	return proof, nil
}
