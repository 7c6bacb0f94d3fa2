package confidential

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"math/big"
	"sync"

	"github.com/ethereum/go-ethereum/crypto"

	"github.com/docvault/document-ledger-backend/interfaces"
)

// LocalStore is an in-process confidential-value store. Values and
// authorization lists live in memory guarded by a read-write mutex;
// handles are keccak hashes salted per mint so equal values under equal
// owners still mint distinct handles.
type LocalStore struct {
	mu       sync.RWMutex
	values   map[interfaces.SecretHandle]*big.Int
	acl      map[interfaces.SecretHandle]map[interfaces.Identity]bool
	verifier ProofVerifier
}

// NewLocalStore creates an empty store that accepts any decryption
// proof. Use WithVerifier to require signature proofs.
func NewLocalStore() *LocalStore {
	return &LocalStore{
		values:   make(map[interfaces.SecretHandle]*big.Int),
		acl:      make(map[interfaces.SecretHandle]map[interfaces.Identity]bool),
		verifier: DummyVerifier{},
	}
}

// WithVerifier sets the proof verifier used by Decrypt.
func (s *LocalStore) WithVerifier(verifier ProofVerifier) *LocalStore {
	s.verifier = verifier
	return s
}

// Mint stores value under a fresh salted handle readable only by
// scopeOwner.
func (s *LocalStore) Mint(ctx context.Context, value *big.Int, scopeOwner interfaces.Identity) (interfaces.SecretHandle, error) {
	if err := ctx.Err(); err != nil {
		return interfaces.SecretHandle{}, err
	}

	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return interfaces.SecretHandle{}, fmt.Errorf("failed to generate handle salt: %w", err)
	}

	handle := interfaces.SecretHandle(crypto.Keccak256Hash(salt, scopeOwner.Bytes(), value.Bytes()))

	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[handle] = new(big.Int).Set(value)
	s.acl[handle] = map[interfaces.Identity]bool{scopeOwner: true}

	return handle, nil
}

// Authorize grants identity read access to handle. Repeat grants are
// no-ops; authorization is append-only.
func (s *LocalStore) Authorize(ctx context.Context, handle interfaces.SecretHandle, identity interfaces.Identity) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	entries, ok := s.acl[handle]
	if !ok {
		return interfaces.ErrHandleNotFound
	}
	entries[identity] = true

	return nil
}

// IsAuthorized reports whether identity may decrypt handle.
func (s *LocalStore) IsAuthorized(ctx context.Context, handle interfaces.SecretHandle, identity interfaces.Identity) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	entries, ok := s.acl[handle]
	if !ok {
		return false, interfaces.ErrHandleNotFound
	}
	return entries[identity], nil
}

// Decrypt releases the plaintext behind handle to an authorized
// requester with a verifying proof. Denials carry no detail about the
// authorization list.
func (s *LocalStore) Decrypt(ctx context.Context, handle interfaces.SecretHandle, requester interfaces.Identity, proof interfaces.DecryptionProof) (*big.Int, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.values[handle]
	if !ok {
		return nil, interfaces.ErrHandleNotFound
	}

	if !s.acl[handle][requester] {
		return nil, interfaces.ErrUnauthorized
	}

	if err := s.verifier.Verify(handle, requester, proof); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrUnauthorized, err)
	}

	return new(big.Int).Set(value), nil
}

