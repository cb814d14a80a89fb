package merkle

import (
	"bytes"
	"encoding/hex"
	"testing"
)

func leaves(values ...string) []Leaf {
	out := make([]Leaf, len(values))
	for i, v := range values {
		out[i] = CommitmentLeaf([]byte(v))
	}
	return out
}

func TestBuildTree_RejectsEmptyLeaves(t *testing.T) {
	if _, err := BuildTree(nil); err != ErrEmptyTree {
		t.Errorf("expected ErrEmptyTree, got %v", err)
	}
}

func TestBuildTree_SingleLeafRootIsTheLeafItself(t *testing.T) {
	leaf := CommitmentLeaf([]byte("solo-member"))
	tree, err := BuildTree([]Leaf{leaf})
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if !bytes.Equal(tree.Root(), leaf.bytes()) {
		t.Errorf("expected root to equal the single leaf, got %x vs %x", tree.Root(), leaf.bytes())
	}
}

func TestGenerateProofByHash_UnknownLeafReturnsErrLeafNotFound(t *testing.T) {
	tree, err := BuildTree(leaves("a", "b"))
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	if _, err := tree.GenerateProofByHash(CommitmentLeaf([]byte("not-a-member"))); err != ErrLeafNotFound {
		t.Errorf("expected ErrLeafNotFound, got %v", err)
	}
}

func TestGenerateProofByHash_EveryLeafVerifiesAgainstTheRoot(t *testing.T) {
	members := []string{"alice", "bob", "carol", "dave", "eve"}
	tree, err := BuildTree(leaves(members...))
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	root := tree.Root()

	for _, m := range members {
		leaf := CommitmentLeaf([]byte(m))
		proof, err := tree.GenerateProofByHash(leaf)
		if err != nil {
			t.Fatalf("GenerateProofByHash(%s): %v", m, err)
		}
		ok, err := VerifyProof(leaf, proof, root)
		if err != nil {
			t.Fatalf("VerifyProof(%s): %v", m, err)
		}
		if !ok {
			t.Errorf("expected proof for %s to verify against the tree root", m)
		}
	}
}

func TestVerifyProof_RejectsTamperedPath(t *testing.T) {
	tree, err := BuildTree(leaves("alice", "bob", "carol"))
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	leaf := CommitmentLeaf([]byte("alice"))
	proof, err := tree.GenerateProofByHash(leaf)
	if err != nil {
		t.Fatalf("GenerateProofByHash: %v", err)
	}
	if len(proof.Path) == 0 {
		t.Fatal("expected a non-trivial proof path for a 3-leaf tree")
	}

	tampered := CommitmentLeaf([]byte("tampered-sibling"))
	proof.Path[0].Hash = hex.EncodeToString(tampered.bytes())

	ok, err := VerifyProof(leaf, proof, tree.Root())
	if err != nil {
		t.Fatalf("VerifyProof: %v", err)
	}
	if ok {
		t.Error("expected a tampered proof path to fail verification")
	}
}
