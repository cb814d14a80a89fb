// Package block implements the block envelope progression (C1 continued):
// UnsignedBlock, built by the assembler from the drained mempool batch,
// becomes SignedBlock once the block producer signs it, and FinalizedBlock
// once its content hash is computed. BlockchainBlock is the persisted row;
// BlockchainState is the single-row chain tip.
package block

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"

	"github.com/hushnetwork-social/hush-node/pkg/ids"
	"github.com/hushnetwork-social/hush-node/pkg/tx"
)

// UnsignedBlock is what the producer signs.
type UnsignedBlock struct {
	BlockId         ids.BlockId    `json:"blockId"`
	Timestamp       ids.Timestamp  `json:"timestamp"`
	BlockIndex      ids.BlockIndex `json:"blockIndex"`
	PreviousBlockId ids.BlockId    `json:"previousBlockId"`
	NextBlockId     ids.BlockId    `json:"nextBlockId"`
	Transactions    []tx.Validated `json:"transactions"`
}

// CanonicalJSON implements ids.Signable. Transactions are routed through
// tx.Validated.CanonicalJSON rather than left to encoding/json's default
// struct marshaling, which would render every opaque transaction id as its
// unexported-field zero value and PayloadKind as a raw byte array — the
// persisted BlockJson must carry real ids so genesis replay can
// reconstruct every transaction (spec §6).
func (u UnsignedBlock) CanonicalJSON() ([]byte, error) {
	transactions := make([]json.RawMessage, len(u.Transactions))
	for i, t := range u.Transactions {
		raw, err := t.CanonicalJSON()
		if err != nil {
			return nil, fmt.Errorf("canonicalizing transaction %d: %w", i, err)
		}
		transactions[i] = raw
	}

	return json.Marshal(unsignedWire{
		BlockId:         u.BlockId.String(),
		Timestamp:       u.Timestamp.String(),
		BlockIndex:      int64(u.BlockIndex),
		PreviousBlockId: u.PreviousBlockId.String(),
		NextBlockId:     u.NextBlockId.String(),
		Transactions:    transactions,
	})
}

type unsignedWire struct {
	BlockId         string            `json:"blockId"`
	Timestamp       string            `json:"timestamp"`
	BlockIndex      int64             `json:"blockIndex"`
	PreviousBlockId string            `json:"previousBlockId"`
	NextBlockId     string            `json:"nextBlockId"`
	Transactions    []json.RawMessage `json:"transactions"`
}

// SignedBlock is UnsignedBlock plus the producer's signature.
type SignedBlock struct {
	UnsignedBlock
	BlockProducerSignature ids.SignatureInfo `json:"blockProducerSignature"`
}

// ToJson is the canonical JSON of the signed block, the exact bytes hashed
// by Finalize and stored verbatim in BlockchainBlock.BlockJson.
func (s SignedBlock) ToJson() ([]byte, error) {
	inner, err := s.UnsignedBlock.CanonicalJSON()
	if err != nil {
		return nil, err
	}
	return json.Marshal(signedWire{
		Unsigned:               json.RawMessage(inner),
		BlockProducerSignature: s.BlockProducerSignature,
	})
}

type signedWire struct {
	Unsigned               json.RawMessage   `json:"unsigned"`
	BlockProducerSignature ids.SignatureInfo `json:"blockProducerSignature"`
}

// Finalize computes the content hash of the signed block's JSON.
func (s SignedBlock) Finalize() (FinalizedBlock, error) {
	j, err := s.ToJson()
	if err != nil {
		return FinalizedBlock{}, err
	}
	sum := sha256.Sum256(j)
	return FinalizedBlock{
		SignedBlock: s,
		Hash:        hex.EncodeToString(sum[:]),
		json:        j,
	}, nil
}

// FinalizedBlock is SignedBlock plus its content hash.
type FinalizedBlock struct {
	SignedBlock
	Hash string `json:"hash"`
	json []byte
}

// Json returns the cached canonical JSON computed during Finalize.
func (f FinalizedBlock) Json() []byte { return f.json }

// ToRow projects a FinalizedBlock onto its persisted BlockchainBlock row.
func (f FinalizedBlock) ToRow() BlockchainBlock {
	return BlockchainBlock{
		BlockId:         f.BlockId,
		BlockIndex:      f.BlockIndex,
		PreviousBlockId: f.PreviousBlockId,
		NextBlockId:     f.NextBlockId,
		Hash:            f.Hash,
		BlockJson:       f.json,
	}
}

// BlockchainBlock is the persisted row for a finalized block.
type BlockchainBlock struct {
	BlockId         ids.BlockId
	BlockIndex      ids.BlockIndex
	PreviousBlockId ids.BlockId
	NextBlockId     ids.BlockId
	Hash            string
	BlockJson       []byte
}

// BlockchainState is the single-row chain tip.
type BlockchainState struct {
	BlockchainStateId ids.BlockchainStateId
	BlockIndex        ids.BlockIndex
	CurrentBlockId    ids.BlockId
	PreviousBlockId   ids.BlockId
	NextBlockId       ids.BlockId
}

// Genesis is the well-known initial chain state: BlockIndex=1,
// PreviousBlockId=Empty.
func Genesis() BlockchainState {
	return BlockchainState{
		BlockchainStateId: ids.NewBlockchainStateId(),
		BlockIndex:        ids.GenesisBlockIndex,
		CurrentBlockId:    ids.GenesisBlockId(),
		PreviousBlockId:   ids.EmptyBlockId(),
		NextBlockId:       ids.NewBlockId(),
	}
}
