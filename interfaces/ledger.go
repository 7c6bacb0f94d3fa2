package interfaces

import (
	"context"
	"math/big"
)

// DocumentLedger is the authoritative record of documents and their
// access-control state. Mutations are atomic per document: a call
// either fully applies, including authority side effects, or leaves
// the ledger unchanged.
type DocumentLedger interface {
	// CreateDocument mints a confidential secret scoped to requester,
	// allocates the next id and records the document with an empty
	// body. The requester becomes the immutable owner and the first
	// collaborator. Returns ErrEmptyName for a blank name.
	CreateDocument(ctx context.Context, name string, secret *big.Int, requester Identity) (DocumentID, error)

	// GrantAccess adds grantee to the document's ACL. Owner-only.
	// Idempotent for known grantees, but the authority-side
	// authorization is re-asserted on every call.
	GrantAccess(ctx context.Context, id DocumentID, grantee, requester Identity) error

	// UpdateDocumentBody replaces the document body with ciphertext,
	// stored verbatim. Authorization is delegated to the
	// confidential-value store at write time.
	UpdateDocumentBody(ctx context.Context, id DocumentID, ciphertext string, requester Identity) error

	// Document returns a copy of the document record.
	Document(id DocumentID) (Document, error)

	// Documents returns all documents in ascending id order. Empty
	// ledger yields an empty slice, not an error.
	Documents() []Document

	// IsAuthorized reports whether identity may obtain the document's
	// secret. Delegated to the confidential-value store.
	IsAuthorized(ctx context.Context, id DocumentID, identity Identity) (bool, error)

	// Collaborators returns the authorized identities in first-grant
	// order, owner first.
	Collaborators(id DocumentID) ([]Identity, error)
}
