package session

import (
	"context"
	"crypto/rand"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"time"

	"github.com/docvault/document-ledger-backend/cryptoutils"
	"github.com/docvault/document-ledger-backend/interfaces"
)

// DefaultAuthorityTimeout bounds calls to the confidential-value
// authority when the caller's context carries no deadline.
const DefaultAuthorityTimeout = 10 * time.Second

// Secret generation policy: a uniform 9-decimal-digit integer.
var (
	secretMin  = big.NewInt(100000000)
	secretSpan = big.NewInt(900000000)
)

// Session mediates between a caller, the ledger and the
// confidential-value authority.
type Session struct {
	ledger  interfaces.DocumentLedger
	store   interfaces.ConfidentialValueStore
	prover  interfaces.ProofProvider
	timeout time.Duration
	log     *slog.Logger
}

// New creates a session. prover supplies the opaque decryption proofs
// the authority demands on Decrypt.
func New(ledger interfaces.DocumentLedger, store interfaces.ConfidentialValueStore, prover interfaces.ProofProvider, log *slog.Logger) *Session {
	return &Session{
		ledger:  ledger,
		store:   store,
		prover:  prover,
		timeout: DefaultAuthorityTimeout,
		log:     log,
	}
}

// WithTimeout overrides the default authority timeout.
func (s *Session) WithTimeout(timeout time.Duration) *Session {
	s.timeout = timeout
	return s
}

// GenerateSecret draws a uniform 9-digit integer from the secure
// random source.
func GenerateSecret() (*big.Int, error) {
	offset, err := rand.Int(rand.Reader, secretSpan)
	if err != nil {
		return nil, fmt.Errorf("failed to draw document secret: %w", err)
	}
	return offset.Add(offset, secretMin), nil
}

// Create registers a new document owned by requester. When secret is
// nil a fresh one is generated; either way the session does not retain
// it after the call returns.
func (s *Session) Create(ctx context.Context, name string, secret *big.Int, requester interfaces.Identity) (interfaces.DocumentID, error) {
	if secret == nil {
		var err error
		secret, err = GenerateSecret()
		if err != nil {
			return 0, err
		}
	}

	id, err := s.ledger.CreateDocument(ctx, name, secret, requester)
	if err != nil {
		return 0, fmt.Errorf("creating document: %w", err)
	}
	return id, nil
}

// RevealSecret asks the authority to decrypt the document's handle for
// requester. The authority enforces its own authorization independent
// of the ledger. Deadline expiry surfaces as ErrAuthorityTimeout,
// distinct from a denial.
func (s *Session) RevealSecret(ctx context.Context, id interfaces.DocumentID, requester interfaces.Identity) (string, error) {
	doc, err := s.ledger.Document(id)
	if err != nil {
		return "", err
	}

	proof, err := s.prover.Prove(doc.EncryptedSecret, requester)
	if err != nil {
		return "", fmt.Errorf("producing decryption proof: %w", err)
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	value, err := s.store.Decrypt(ctx, doc.EncryptedSecret, requester, proof)
	if err != nil {
		return "", s.authorityErr("revealing secret", err)
	}

	return value.String(), nil
}

// ReadBody fetches the document's ciphertext and decrypts it locally.
// A never-written body reads as the empty string.
func (s *Session) ReadBody(ctx context.Context, id interfaces.DocumentID, secret string) (string, error) {
	doc, err := s.ledger.Document(id)
	if err != nil {
		return "", err
	}

	plaintext, err := cryptoutils.DecryptBody(secret, doc.EncryptedBody)
	if err != nil {
		return "", fmt.Errorf("decrypting document %d body: %w", id, err)
	}
	return plaintext, nil
}

// WriteBody encrypts plaintext locally and submits the ciphertext to
// the ledger, which re-validates authorization before committing.
func (s *Session) WriteBody(ctx context.Context, id interfaces.DocumentID, secret, plaintext string, requester interfaces.Identity) error {
	ciphertext, err := cryptoutils.EncryptBody(secret, plaintext)
	if err != nil {
		return fmt.Errorf("encrypting document %d body: %w", id, err)
	}

	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	if err := s.ledger.UpdateDocumentBody(ctx, id, ciphertext, requester); err != nil {
		return s.authorityErr(fmt.Sprintf("updating document %d body", id), err)
	}
	return nil
}

// Share grants grantee access to the document. Pass-through to the
// ledger's owner-only grant.
func (s *Session) Share(ctx context.Context, id interfaces.DocumentID, grantee, requester interfaces.Identity) error {
	ctx, cancel := s.boundCtx(ctx)
	defer cancel()

	if err := s.ledger.GrantAccess(ctx, id, grantee, requester); err != nil {
		return s.authorityErr(fmt.Sprintf("sharing document %d", id), err)
	}
	return nil
}

// boundCtx applies the session timeout when the caller supplied no
// deadline.
func (s *Session) boundCtx(ctx context.Context) (context.Context, context.CancelFunc) {
	if _, ok := ctx.Deadline(); ok {
		return ctx, func() {}
	}
	return context.WithTimeout(ctx, s.timeout)
}

// authorityErr adds operation context without swallowing the error
// kind, and maps deadline expiry to the dedicated timeout error.
func (s *Session) authorityErr(op string, err error) error {
	if errors.Is(err, context.DeadlineExceeded) {
		return fmt.Errorf("%s: %w", op, interfaces.ErrAuthorityTimeout)
	}
	return fmt.Errorf("%s: %w", op, err)
}
