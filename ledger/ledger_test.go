package ledger

import (
	"context"
	"crypto/rand"
	"log/slog"
	"math/big"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/docvault/document-ledger-backend/confidential"
	"github.com/docvault/document-ledger-backend/interfaces"
)

func testIdentity(t *testing.T) interfaces.Identity {
	t.Helper()

	var id interfaces.Identity
	_, err := rand.Read(id[:])
	require.NoError(t, err, "Failed to generate test identity")
	return id
}

func testLedger(t *testing.T) (*Ledger, *confidential.LocalStore) {
	t.Helper()

	store := confidential.NewLocalStore()
	return New(store, testIdentity(t), slog.Default()), store
}

func TestLedger_CreateDocument(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)

	id, err := l.CreateDocument(ctx, "quarterly report", big.NewInt(123456789), alice)
	require.NoError(t, err, "CreateDocument should succeed")
	assert.Equal(t, interfaces.DocumentID(1), id, "first document gets id 1")

	doc, err := l.Document(id)
	require.NoError(t, err)
	assert.Equal(t, "quarterly report", doc.Name)
	assert.Equal(t, alice, doc.Owner)
	assert.Empty(t, doc.EncryptedBody, "new documents have no body")
	assert.False(t, doc.UpdatedAt.IsZero())

	authorized, err := l.IsAuthorized(ctx, id, alice)
	require.NoError(t, err)
	assert.True(t, authorized, "creator is authorized from the start")

	collaborators, err := l.Collaborators(id)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.Identity{alice}, collaborators)
}

func TestLedger_EmptyNameRejected(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)

	for _, name := range []string{"", "   ", "\t"} {
		_, err := l.CreateDocument(ctx, name, big.NewInt(1), testIdentity(t))
		assert.ErrorIs(t, err, interfaces.ErrEmptyName, "name %q", name)
	}
}

func TestLedger_DenseIncreasingIDs(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)

	for i := 1; i <= 5; i++ {
		// Duplicate names are allowed; every call creates a new document.
		id, err := l.CreateDocument(ctx, "notes", big.NewInt(int64(i)), alice)
		require.NoError(t, err)
		assert.Equal(t, interfaces.DocumentID(i), id)
	}

	docs := l.Documents()
	require.Len(t, docs, 5)
	for i, doc := range docs {
		assert.Equal(t, interfaces.DocumentID(i+1), doc.ID, "ascending id order")
	}
}

func TestLedger_DocumentsEmpty(t *testing.T) {
	l, _ := testLedger(t)
	assert.Empty(t, l.Documents(), "empty ledger yields an empty sequence")
}

func TestLedger_UnknownDocument(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)

	_, err := l.Document(99)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

	_, err = l.Collaborators(99)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

	_, err = l.IsAuthorized(ctx, 99, alice)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

	err = l.GrantAccess(ctx, 99, testIdentity(t), alice)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)

	err = l.UpdateDocumentBody(ctx, 99, "aa:bb", alice)
	assert.ErrorIs(t, err, interfaces.ErrDocumentNotFound)
}

func TestLedger_GrantAccess(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)
	bob := testIdentity(t)

	id, err := l.CreateDocument(ctx, "shared", big.NewInt(42), alice)
	require.NoError(t, err)

	require.NoError(t, l.GrantAccess(ctx, id, bob, alice))

	authorized, err := l.IsAuthorized(ctx, id, bob)
	require.NoError(t, err)
	assert.True(t, authorized)

	collaborators, err := l.Collaborators(id)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.Identity{alice, bob}, collaborators, "owner first, then first-grant order")
}

func TestLedger_GrantIsIdempotent(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)
	bob := testIdentity(t)

	id, err := l.CreateDocument(ctx, "shared", big.NewInt(42), alice)
	require.NoError(t, err)

	require.NoError(t, l.GrantAccess(ctx, id, bob, alice))
	require.NoError(t, l.GrantAccess(ctx, id, bob, alice))

	collaborators, err := l.Collaborators(id)
	require.NoError(t, err)
	assert.Equal(t, []interfaces.Identity{alice, bob}, collaborators, "no duplicate entries")
}

func TestLedger_GrantIsOwnerOnly(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)
	bob := testIdentity(t)
	carol := testIdentity(t)

	id, err := l.CreateDocument(ctx, "shared", big.NewInt(42), alice)
	require.NoError(t, err)
	require.NoError(t, l.GrantAccess(ctx, id, bob, alice))

	// Bob is an authorized collaborator but still cannot grant.
	err = l.GrantAccess(ctx, id, carol, bob)
	assert.ErrorIs(t, err, interfaces.ErrNotOwner)

	err = l.GrantAccess(ctx, id, interfaces.Identity{}, alice)
	assert.ErrorIs(t, err, interfaces.ErrInvalidIdentity, "zero identity cannot be granted")
}

func TestLedger_UpdateDocumentBody(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)
	bob := testIdentity(t)

	id, err := l.CreateDocument(ctx, "draft", big.NewInt(42), alice)
	require.NoError(t, err)

	err = l.UpdateDocumentBody(ctx, id, "00112233445566778899aabb:deadbeef", bob)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized, "bob has no access yet")

	require.NoError(t, l.GrantAccess(ctx, id, bob, alice))

	require.NoError(t, l.UpdateDocumentBody(ctx, id, "00112233445566778899aabb:deadbeef", bob))

	doc, err := l.Document(id)
	require.NoError(t, err)
	assert.Equal(t, "00112233445566778899aabb:deadbeef", doc.EncryptedBody, "ciphertext stored verbatim")
}

func TestLedger_UpdateRefreshesTimestamp(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)

	id, err := l.CreateDocument(ctx, "draft", big.NewInt(42), alice)
	require.NoError(t, err)

	created, err := l.Document(id)
	require.NoError(t, err)

	require.NoError(t, l.UpdateDocumentBody(ctx, id, "aa:bb", alice))

	updated, err := l.Document(id)
	require.NoError(t, err)
	assert.False(t, updated.UpdatedAt.Before(created.UpdatedAt))
}

func TestLedger_ExternalRevocationHonored(t *testing.T) {
	// The store is authoritative for the write-time check: a mint
	// succeeded and the owner is indexed locally, yet a store that no
	// longer authorizes the owner must block the update.
	ctx := context.Background()
	store := new(confidential.MockStore)
	l := New(store, testIdentity(t), slog.Default())
	alice := testIdentity(t)

	handle := interfaces.SecretHandle{1, 2, 3}
	store.On("Mint", mock.Anything, mock.Anything, alice).Return(handle, nil).Once()
	store.On("Authorize", mock.Anything, handle, mock.Anything).Return(nil)

	id, err := l.CreateDocument(ctx, "revoked", big.NewInt(42), alice)
	require.NoError(t, err)

	store.On("IsAuthorized", mock.Anything, handle, alice).Return(false, nil).Once()

	err = l.UpdateDocumentBody(ctx, id, "aa:bb", alice)
	assert.ErrorIs(t, err, interfaces.ErrUnauthorized)

	doc, err := l.Document(id)
	require.NoError(t, err)
	assert.Empty(t, doc.EncryptedBody, "denied update leaves the body unchanged")
	store.AssertExpectations(t)
}

func TestLedger_MintFailureLeavesLedgerUnchanged(t *testing.T) {
	ctx := context.Background()
	store := new(confidential.MockStore)
	l := New(store, testIdentity(t), slog.Default())
	alice := testIdentity(t)

	store.On("Mint", mock.Anything, mock.Anything, alice).
		Return(interfaces.SecretHandle{}, interfaces.ErrAuthorityUnavailable).Once()

	_, err := l.CreateDocument(ctx, "doomed", big.NewInt(1), alice)
	assert.ErrorIs(t, err, interfaces.ErrAuthorityUnavailable)
	assert.Empty(t, l.Documents(), "failed creation must not allocate an id")

	// The next successful creation still starts the id space at 1.
	handle := interfaces.SecretHandle{9}
	store.On("Mint", mock.Anything, mock.Anything, alice).Return(handle, nil).Once()
	store.On("Authorize", mock.Anything, handle, mock.Anything).Return(nil)

	id, err := l.CreateDocument(ctx, "first", big.NewInt(1), alice)
	require.NoError(t, err)
	assert.Equal(t, interfaces.DocumentID(1), id)
	store.AssertExpectations(t)
}

func TestLedger_ConcurrentUpdatesSerializePerDocument(t *testing.T) {
	ctx := context.Background()
	l, _ := testLedger(t)
	alice := testIdentity(t)

	id, err := l.CreateDocument(ctx, "contended", big.NewInt(42), alice)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 16; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, l.UpdateDocumentBody(ctx, id, "00112233445566778899aabb:cafe", alice))
		}()
	}
	wg.Wait()

	doc, err := l.Document(id)
	require.NoError(t, err)
	assert.Equal(t, "00112233445566778899aabb:cafe", doc.EncryptedBody)
}
