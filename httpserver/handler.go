package httpserver

import (
	"encoding/json"
	"errors"
	"log/slog"
	"math/big"
	"net/http"
	"strconv"

	"github.com/docvault/document-ledger-backend/cryptoutils"
	"github.com/docvault/document-ledger-backend/interfaces"
	"github.com/docvault/document-ledger-backend/metrics"
	"github.com/docvault/document-ledger-backend/session"
)

const (
	// IdentityHeader carries the requester's hex identity. Proving
	// control of the identity is the transport/auth layer's job, not
	// this service's.
	IdentityHeader = "X-Ledger-Identity"

	// maxBodySize is the maximum allowed request body size (1MB).
	maxBodySize = 1024 * 1024
)

// Handler processes HTTP requests against the document ledger.
type Handler struct {
	ledger interfaces.DocumentLedger
	log    *slog.Logger
}

// NewHandler creates a handler backed by the given ledger.
func NewHandler(ledger interfaces.DocumentLedger, log *slog.Logger) *Handler {
	return &Handler{ledger: ledger, log: log}
}

type createDocumentRequest struct {
	Name string `json:"name"`
	// Secret is an optional decimal integer. When omitted the server
	// draws one; the response echoes it exactly once so the creator can
	// derive the body key. It is not retained in the clear anywhere.
	Secret string `json:"secret,omitempty"`
}

type createDocumentResponse struct {
	ID     interfaces.DocumentID `json:"id"`
	Secret string                `json:"secret"`
}

type grantAccessRequest struct {
	Grantee string `json:"grantee"`
}

type updateBodyRequest struct {
	Ciphertext string `json:"ciphertext"`
}

// HandleCreateDocument creates a document owned by the request identity.
//
// URL format: POST /api/documents
func (h *Handler) HandleCreateDocument(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requesterIdentity(w, r)
	if !ok {
		return
	}

	var req createDocumentRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	var secret *big.Int
	if req.Secret != "" {
		parsed, ok := new(big.Int).SetString(req.Secret, 10)
		if !ok {
			http.Error(w, "Secret must be a decimal integer", http.StatusBadRequest)
			return
		}
		secret = parsed
	} else {
		generated, err := session.GenerateSecret()
		if err != nil {
			h.log.Error("Failed to generate document secret", "err", err)
			http.Error(w, "Failed to generate secret", http.StatusInternalServerError)
			return
		}
		secret = generated
	}

	id, err := h.ledger.CreateDocument(r.Context(), req.Name, secret, requester)
	if err != nil {
		h.writeError(w, "create", err)
		return
	}
	metrics.DocumentsCreated.Inc()

	h.writeJSON(w, http.StatusCreated, createDocumentResponse{ID: id, Secret: secret.String()})
}

// HandleListDocuments returns all documents in ascending id order.
//
// URL format: GET /api/documents
func (h *Handler) HandleListDocuments(w http.ResponseWriter, r *http.Request) {
	h.writeJSON(w, http.StatusOK, h.ledger.Documents())
}

// HandleGetDocument returns one document record.
//
// URL format: GET /api/documents/{document_id}
func (h *Handler) HandleGetDocument(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	doc, err := h.ledger.Document(id)
	if err != nil {
		h.writeError(w, "get", err)
		return
	}
	h.writeJSON(w, http.StatusOK, doc)
}

// HandleGrantAccess adds a collaborator. Owner-only.
//
// URL format: POST /api/documents/{document_id}/access
func (h *Handler) HandleGrantAccess(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requesterIdentity(w, r)
	if !ok {
		return
	}
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	var req grantAccessRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	grantee, err := interfaces.NewIdentityFromHex(req.Grantee)
	if err != nil {
		http.Error(w, "Invalid grantee identity", http.StatusBadRequest)
		return
	}

	if err := h.ledger.GrantAccess(r.Context(), id, grantee, requester); err != nil {
		h.writeError(w, "grant", err)
		return
	}
	metrics.AccessGrants.Inc()

	w.WriteHeader(http.StatusNoContent)
}

// HandleUpdateBody replaces the document's body ciphertext. The payload
// is not inspected beyond a shape check; authorization is the ledger's
// (and the authority's) call.
//
// URL format: PUT /api/documents/{document_id}/body
func (h *Handler) HandleUpdateBody(w http.ResponseWriter, r *http.Request) {
	requester, ok := h.requesterIdentity(w, r)
	if !ok {
		return
	}
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	var req updateBodyRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, maxBodySize)).Decode(&req); err != nil {
		http.Error(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	if err := h.ledger.UpdateDocumentBody(r.Context(), id, req.Ciphertext, requester); err != nil {
		h.writeError(w, "update", err)
		return
	}
	metrics.BodyUpdates.Inc()

	w.WriteHeader(http.StatusNoContent)
}

// HandleCollaborators lists the authorized identities in first-grant
// order.
//
// URL format: GET /api/documents/{document_id}/collaborators
func (h *Handler) HandleCollaborators(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	collaborators, err := h.ledger.Collaborators(id)
	if err != nil {
		h.writeError(w, "collaborators", err)
		return
	}

	out := make([]string, len(collaborators))
	for i, c := range collaborators {
		out[i] = c.String()
	}
	h.writeJSON(w, http.StatusOK, map[string][]string{"collaborators": out})
}

// HandleIsAuthorized reports whether an identity may obtain the
// document's secret.
//
// URL format: GET /api/documents/{document_id}/authorized?identity=<hex>
func (h *Handler) HandleIsAuthorized(w http.ResponseWriter, r *http.Request) {
	id, ok := h.documentID(w, r)
	if !ok {
		return
	}

	identity, err := interfaces.NewIdentityFromHex(r.URL.Query().Get("identity"))
	if err != nil {
		http.Error(w, "Invalid identity", http.StatusBadRequest)
		return
	}

	authorized, err := h.ledger.IsAuthorized(r.Context(), id, identity)
	if err != nil {
		h.writeError(w, "authorized", err)
		return
	}
	h.writeJSON(w, http.StatusOK, map[string]bool{"authorized": authorized})
}

func (h *Handler) requesterIdentity(w http.ResponseWriter, r *http.Request) (interfaces.Identity, bool) {
	raw := r.Header.Get(IdentityHeader)
	if raw == "" {
		http.Error(w, "Missing identity header", http.StatusBadRequest)
		return interfaces.Identity{}, false
	}

	identity, err := interfaces.NewIdentityFromHex(raw)
	if err != nil {
		h.log.Debug("Rejected malformed identity header", "identity", raw, "err", err)
		http.Error(w, "Invalid identity header", http.StatusBadRequest)
		return interfaces.Identity{}, false
	}
	return identity, true
}

func (h *Handler) documentID(w http.ResponseWriter, r *http.Request) (interfaces.DocumentID, bool) {
	raw := r.PathValue("document_id")
	id, err := strconv.ParseUint(raw, 10, 64)
	if err != nil || id == 0 {
		http.Error(w, "Invalid document id", http.StatusBadRequest)
		return 0, false
	}
	return interfaces.DocumentID(id), true
}

func (h *Handler) writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		h.log.Error("Failed to encode response", "err", err)
	}
}

// writeError maps ledger error kinds to stable status codes. Denials
// return the same shape regardless of ACL contents.
func (h *Handler) writeError(w http.ResponseWriter, operation string, err error) {
	switch {
	case errors.Is(err, interfaces.ErrEmptyName),
		errors.Is(err, interfaces.ErrInvalidIdentity),
		errors.Is(err, cryptoutils.ErrMalformedPayload),
		errors.Is(err, cryptoutils.ErrInvalidEncoding):
		http.Error(w, err.Error(), http.StatusBadRequest)
	case errors.Is(err, interfaces.ErrNotOwner),
		errors.Is(err, interfaces.ErrUnauthorized):
		metrics.RequestsDenied.WithLabelValues(operation).Inc()
		http.Error(w, err.Error(), http.StatusForbidden)
	case errors.Is(err, interfaces.ErrDocumentNotFound):
		http.Error(w, err.Error(), http.StatusNotFound)
	case errors.Is(err, interfaces.ErrAuthorityTimeout):
		http.Error(w, err.Error(), http.StatusGatewayTimeout)
	case errors.Is(err, interfaces.ErrAuthorityUnavailable):
		http.Error(w, err.Error(), http.StatusBadGateway)
	default:
		h.log.Error("Request failed", "operation", operation, "err", err)
		http.Error(w, "Internal error", http.StatusInternalServerError)
	}
}
