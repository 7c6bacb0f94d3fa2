package confidential

import (
	"context"
	"math/big"

	"github.com/stretchr/testify/mock"

	"github.com/docvault/document-ledger-backend/interfaces"
)

// MockStore mocks the ConfidentialValueStore interface for tests that
// need to script authority failures and denials.
type MockStore struct {
	mock.Mock
}

// Mint mocks the Mint method.
func (m *MockStore) Mint(ctx context.Context, value *big.Int, scopeOwner interfaces.Identity) (interfaces.SecretHandle, error) {
	args := m.Called(ctx, value, scopeOwner)
	return args.Get(0).(interfaces.SecretHandle), args.Error(1)
}

// Authorize mocks the Authorize method.
func (m *MockStore) Authorize(ctx context.Context, handle interfaces.SecretHandle, identity interfaces.Identity) error {
	args := m.Called(ctx, handle, identity)
	return args.Error(0)
}

// IsAuthorized mocks the IsAuthorized method.
func (m *MockStore) IsAuthorized(ctx context.Context, handle interfaces.SecretHandle, identity interfaces.Identity) (bool, error) {
	args := m.Called(ctx, handle, identity)
	return args.Bool(0), args.Error(1)
}

// Decrypt mocks the Decrypt method.
func (m *MockStore) Decrypt(ctx context.Context, handle interfaces.SecretHandle, requester interfaces.Identity, proof interfaces.DecryptionProof) (*big.Int, error) {
	args := m.Called(ctx, handle, requester, proof)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*big.Int), args.Error(1)
}
