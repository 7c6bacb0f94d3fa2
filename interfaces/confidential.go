package interfaces

import (
	"context"
	"math/big"
)

// DecryptionProof is an opaque proof that a decrypt request genuinely
// originates from the requester. Produced out-of-band by a
// ProofProvider and verified by the authority; the ledger never
// inspects it.
type DecryptionProof []byte

// ProofProvider produces decryption proofs on behalf of a requester.
type ProofProvider interface {
	// Prove binds the requester to the handle it is asking to decrypt.
	Prove(handle SecretHandle, requester Identity) (DecryptionProof, error)
}

// ConfidentialValueStore is the external authority holding confidential
// integers. It enforces its own per-identity authorization, independent
// of the ledger's collaborator index. The store is authoritative for
// authorization checks; the ledger's ACL set is an enumeration index
// kept in lockstep on grant.
type ConfidentialValueStore interface {
	// Mint creates a confidential integer readable only by scopeOwner
	// and returns its opaque handle.
	Mint(ctx context.Context, value *big.Int, scopeOwner Identity) (SecretHandle, error)

	// Authorize grants identity the right to decrypt handle. Safe to
	// repeat; authorization is append-only.
	Authorize(ctx context.Context, handle SecretHandle, identity Identity) error

	// IsAuthorized reports whether identity may decrypt handle.
	IsAuthorized(ctx context.Context, handle SecretHandle, identity Identity) (bool, error)

	// Decrypt returns the plaintext integer behind handle if requester
	// is authorized and proof verifies. Returns ErrUnauthorized on
	// denial and ErrHandleNotFound for unknown handles.
	Decrypt(ctx context.Context, handle SecretHandle, requester Identity, proof DecryptionProof) (*big.Int, error)
}
