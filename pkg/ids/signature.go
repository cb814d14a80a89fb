package ids

import (
	"crypto/ed25519"
	"encoding/hex"
	"fmt"
)

// SignatureInfo pairs a signatory's public address with the signature bytes
// it produced over some canonical JSON payload.
type SignatureInfo struct {
	SignatoryPublicAddress string `json:"signatoryPublicAddress"`
	SignatureBytes         []byte `json:"signatureBytes"`
}

// Signable is implemented by any value whose canonical JSON form is the
// exact byte sequence that gets signed.
type Signable interface {
	CanonicalJSON() ([]byte, error)
}

// Sign produces a SignatureInfo over the canonical JSON of unsigned, using
// an ed25519 private key. The public address is the hex-encoded public key.
func Sign(privateKey ed25519.PrivateKey, unsigned Signable) (SignatureInfo, error) {
	payload, err := unsigned.CanonicalJSON()
	if err != nil {
		return SignatureInfo{}, fmt.Errorf("canonicalizing payload for signing: %w", err)
	}

	sig := ed25519.Sign(privateKey, payload)
	pub := privateKey.Public().(ed25519.PublicKey)

	return SignatureInfo{
		SignatoryPublicAddress: hex.EncodeToString(pub),
		SignatureBytes:         sig,
	}, nil
}

// Verify checks that sigInfo is a valid ed25519 signature over the
// canonical JSON of unsigned, produced by the key behind
// sigInfo.SignatoryPublicAddress.
func Verify(unsigned Signable, sigInfo SignatureInfo) bool {
	payload, err := unsigned.CanonicalJSON()
	if err != nil {
		return false
	}

	pubBytes, err := hex.DecodeString(sigInfo.SignatoryPublicAddress)
	if err != nil || len(pubBytes) != ed25519.PublicKeySize {
		return false
	}

	return ed25519.Verify(ed25519.PublicKey(pubBytes), payload, sigInfo.SignatureBytes)
}
