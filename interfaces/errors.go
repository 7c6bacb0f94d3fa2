package interfaces

import "errors"

var (
	// ErrEmptyName is returned when a document is created with a blank name.
	ErrEmptyName = errors.New("document name must not be empty")

	// ErrInvalidIdentity is returned when an operation names the zero identity.
	ErrInvalidIdentity = errors.New("invalid identity")

	// ErrDocumentNotFound is returned for any operation on an unknown document id.
	ErrDocumentNotFound = errors.New("document not found")

	// ErrNotOwner is returned when a non-owner attempts an owner-only
	// operation. Collaborators cannot grant access on the owner's behalf.
	ErrNotOwner = errors.New("requester is not the document owner")

	// ErrUnauthorized is returned when the confidential-value authority
	// declines a requester. It carries no information about the ACL
	// contents beyond the denial itself.
	ErrUnauthorized = errors.New("requester is not authorized")

	// ErrHandleNotFound is returned by a confidential-value store for an
	// unknown handle.
	ErrHandleNotFound = errors.New("confidential handle not found")

	// ErrAuthorityUnavailable is returned when the confidential-value
	// authority cannot be reached. The failed operation leaves the
	// ledger unchanged and may be retried.
	ErrAuthorityUnavailable = errors.New("confidential-value authority unavailable")

	// ErrAuthorityTimeout is returned when a call to the authority
	// exceeds its deadline. Distinct from ErrUnauthorized so callers can
	// tell a denial from a slow or dead authority.
	ErrAuthorityTimeout = errors.New("confidential-value authority timed out")
)
