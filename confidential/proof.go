package confidential

import (
	"crypto/ecdsa"
	"errors"
	"fmt"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/docvault/document-ledger-backend/interfaces"
)

// ProofVerifier checks that a decryption proof binds the requester to
// the handle being decrypted. The proof format is opaque to everything
// outside the provider/verifier pair.
type ProofVerifier interface {
	Verify(handle interfaces.SecretHandle, requester interfaces.Identity, proof interfaces.DecryptionProof) error
}

// proofDigest is the message both sides sign and verify: the keccak
// hash of handle followed by requester.
func proofDigest(handle interfaces.SecretHandle, requester interfaces.Identity) []byte {
	return crypto.Keccak256(handle.Bytes(), requester.Bytes())
}

// WalletProver produces decryption proofs by signing the proof digest
// with a secp256k1 key. The key's address must match the requester
// identity or verification fails.
type WalletProver struct {
	key *ecdsa.PrivateKey
}

// NewWalletProver wraps an existing secp256k1 private key.
func NewWalletProver(key *ecdsa.PrivateKey) *WalletProver {
	return &WalletProver{key: key}
}

// GenerateWalletProver creates a prover with a fresh random key and
// returns the identity it proves for.
func GenerateWalletProver() (*WalletProver, interfaces.Identity, error) {
	key, err := crypto.GenerateKey()
	if err != nil {
		return nil, interfaces.Identity{}, fmt.Errorf("failed to generate proving key: %w", err)
	}

	identity := interfaces.Identity(crypto.PubkeyToAddress(key.PublicKey))
	return &WalletProver{key: key}, identity, nil
}

// Identity returns the identity this prover signs for.
func (p *WalletProver) Identity() interfaces.Identity {
	return interfaces.Identity(crypto.PubkeyToAddress(p.key.PublicKey))
}

// Prove signs the handle/requester digest.
func (p *WalletProver) Prove(handle interfaces.SecretHandle, requester interfaces.Identity) (interfaces.DecryptionProof, error) {
	sig, err := crypto.Sign(proofDigest(handle, requester), p.key)
	if err != nil {
		return nil, fmt.Errorf("failed to sign decryption proof: %w", err)
	}
	return interfaces.DecryptionProof(sig), nil
}

// SignatureVerifier recovers the signer of a proof and requires it to
// be the requester itself.
type SignatureVerifier struct{}

// Verify checks the recovered signer against the requester.
func (SignatureVerifier) Verify(handle interfaces.SecretHandle, requester interfaces.Identity, proof interfaces.DecryptionProof) error {
	pub, err := crypto.SigToPub(proofDigest(handle, requester), proof)
	if err != nil {
		return fmt.Errorf("malformed decryption proof: %w", err)
	}

	if crypto.PubkeyToAddress(*pub) != requester.Address() {
		return errors.New("decryption proof signer does not match requester")
	}
	return nil
}

// DummyProver issues empty proofs. Pair with DummyVerifier in tests and
// deployments where request authenticity is established elsewhere.
type DummyProver struct{}

// Prove returns an empty proof.
func (DummyProver) Prove(handle interfaces.SecretHandle, requester interfaces.Identity) (interfaces.DecryptionProof, error) {
	return interfaces.DecryptionProof{}, nil
}

// DummyVerifier accepts every proof.
type DummyVerifier struct{}

// Verify always succeeds.
func (DummyVerifier) Verify(handle interfaces.SecretHandle, requester interfaces.Identity, proof interfaces.DecryptionProof) error {
	return nil
}
