package ledger

import (
	"context"
	"fmt"
	"log/slog"
	"math/big"
	"strings"
	"sync"
	"time"

	"github.com/docvault/document-ledger-backend/interfaces"
)

// document is the internal per-document state. acl mirrors the store's
// authorization list for enumeration only; the store stays
// authoritative for checks. collaborators preserves first-grant order,
// owner first.
type document struct {
	mu sync.Mutex

	record        interfaces.Document
	acl           map[interfaces.Identity]bool
	collaborators []interfaces.Identity
}

// Ledger is the in-memory implementation of
// interfaces.DocumentLedger. Documents live for the lifetime of the
// process; there is no delete operation and ids are never reused.
type Ledger struct {
	store interfaces.ConfidentialValueStore
	self  interfaces.Identity
	log   *slog.Logger

	mu     sync.RWMutex
	nextID interfaces.DocumentID
	docs   map[interfaces.DocumentID]*document
}

// New creates an empty ledger. self is the ledger's own identity,
// authorized on every minted handle so delegated checks never depend on
// caller state.
func New(store interfaces.ConfidentialValueStore, self interfaces.Identity, log *slog.Logger) *Ledger {
	return &Ledger{
		store:  store,
		self:   self,
		log:    log,
		nextID: 1,
		docs:   make(map[interfaces.DocumentID]*document),
	}
}

// CreateDocument mints a confidential secret for requester and records
// the new document. The store is called before any ledger state is
// touched, so a store failure leaves the ledger unchanged.
func (l *Ledger) CreateDocument(ctx context.Context, name string, secret *big.Int, requester interfaces.Identity) (interfaces.DocumentID, error) {
	if strings.TrimSpace(name) == "" {
		return 0, interfaces.ErrEmptyName
	}

	handle, err := l.store.Mint(ctx, secret, requester)
	if err != nil {
		return 0, fmt.Errorf("minting document secret: %w", err)
	}

	if err := l.store.Authorize(ctx, handle, l.self); err != nil {
		return 0, fmt.Errorf("authorizing ledger on document secret: %w", err)
	}

	l.mu.Lock()
	id := l.nextID
	l.nextID++

	l.docs[id] = &document{
		record: interfaces.Document{
			ID:              id,
			Name:            name,
			Owner:           requester,
			EncryptedSecret: handle,
			EncryptedBody:   "",
			UpdatedAt:       time.Now(),
		},
		acl:           map[interfaces.Identity]bool{requester: true},
		collaborators: []interfaces.Identity{requester},
	}
	l.mu.Unlock()

	l.log.Info("Document created",
		slog.Uint64("id", uint64(id)),
		slog.String("name", name),
		slog.String("owner", requester.String()))

	return id, nil
}

// GrantAccess adds grantee to the document's ACL and authorizes it on
// the confidential handle. Only the owner may grant; collaborators
// cannot delegate. Granting a known collaborator again is a no-op for
// the local set but still re-asserts the store-side authorization.
func (l *Ledger) GrantAccess(ctx context.Context, id interfaces.DocumentID, grantee, requester interfaces.Identity) error {
	doc, err := l.lookup(id)
	if err != nil {
		return err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	if doc.record.Owner != requester {
		return interfaces.ErrNotOwner
	}
	if grantee.IsZero() {
		return interfaces.ErrInvalidIdentity
	}

	if err := l.store.Authorize(ctx, doc.record.EncryptedSecret, grantee); err != nil {
		return fmt.Errorf("authorizing grantee on document secret: %w", err)
	}

	if !doc.acl[grantee] {
		doc.acl[grantee] = true
		doc.collaborators = append(doc.collaborators, grantee)

		l.log.Info("Access granted",
			slog.Uint64("id", uint64(id)),
			slog.String("grantee", grantee.String()),
			slog.String("owner", requester.String()))
	}

	return nil
}

// UpdateDocumentBody replaces the body ciphertext. The authorization
// check is delegated to the store rather than the local ACL set, so
// policy applied externally is honored at write time. The check and the
// commit happen under the document mutex; a concurrent update cannot
// interleave between them.
func (l *Ledger) UpdateDocumentBody(ctx context.Context, id interfaces.DocumentID, ciphertext string, requester interfaces.Identity) error {
	doc, err := l.lookup(id)
	if err != nil {
		return err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	authorized, err := l.store.IsAuthorized(ctx, doc.record.EncryptedSecret, requester)
	if err != nil {
		return fmt.Errorf("checking body-update authorization: %w", err)
	}
	if !authorized {
		return interfaces.ErrUnauthorized
	}

	// The ledger never inspects ciphertext contents.
	doc.record.EncryptedBody = ciphertext
	doc.record.UpdatedAt = time.Now()

	// Defensive refresh, mirrors creation-time behavior. Failure is
	// logged but does not roll back the committed body: the requester
	// was authorized at check time.
	if err := l.store.Authorize(ctx, doc.record.EncryptedSecret, requester); err != nil {
		l.log.Warn("Failed to re-assert requester authorization after body update",
			slog.Uint64("id", uint64(id)),
			slog.String("requester", requester.String()),
			"err", err)
	}

	l.log.Info("Document body updated",
		slog.Uint64("id", uint64(id)),
		slog.String("requester", requester.String()),
		slog.Int("ciphertext_len", len(ciphertext)))

	return nil
}

// Document returns a copy of the document record.
func (l *Ledger) Document(id interfaces.DocumentID) (interfaces.Document, error) {
	doc, err := l.lookup(id)
	if err != nil {
		return interfaces.Document{}, err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()
	return doc.record, nil
}

// Documents returns all documents in ascending id order. The id space
// is dense, so ascending order is a walk from 1 to nextID.
func (l *Ledger) Documents() []interfaces.Document {
	l.mu.RLock()
	defer l.mu.RUnlock()

	out := make([]interfaces.Document, 0, len(l.docs))
	for id := interfaces.DocumentID(1); id < l.nextID; id++ {
		doc := l.docs[id]
		doc.mu.Lock()
		out = append(out, doc.record)
		doc.mu.Unlock()
	}
	return out
}

// IsAuthorized reports whether identity may obtain the document's
// secret. Delegated to the store: the local ACL set is an index, the
// store is authoritative.
func (l *Ledger) IsAuthorized(ctx context.Context, id interfaces.DocumentID, identity interfaces.Identity) (bool, error) {
	doc, err := l.lookup(id)
	if err != nil {
		return false, err
	}

	doc.mu.Lock()
	handle := doc.record.EncryptedSecret
	doc.mu.Unlock()

	authorized, err := l.store.IsAuthorized(ctx, handle, identity)
	if err != nil {
		return false, fmt.Errorf("checking authorization: %w", err)
	}
	return authorized, nil
}

// Collaborators returns the authorized identities in first-grant order,
// owner first. The returned slice is a copy.
func (l *Ledger) Collaborators(id interfaces.DocumentID) ([]interfaces.Identity, error) {
	doc, err := l.lookup(id)
	if err != nil {
		return nil, err
	}

	doc.mu.Lock()
	defer doc.mu.Unlock()

	out := make([]interfaces.Identity, len(doc.collaborators))
	copy(out, doc.collaborators)
	return out, nil
}

func (l *Ledger) lookup(id interfaces.DocumentID) (*document, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	doc, ok := l.docs[id]
	if !ok {
		return nil, interfaces.ErrDocumentNotFound
	}
	return doc, nil
}
