package httpserver

import (
	"bytes"
	"crypto/rand"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/docvault/document-ledger-backend/confidential"
	"github.com/docvault/document-ledger-backend/interfaces"
	"github.com/docvault/document-ledger-backend/ledger"
)

func testIdentity(t *testing.T) interfaces.Identity {
	t.Helper()

	var id interfaces.Identity
	_, err := rand.Read(id[:])
	require.NoError(t, err, "Failed to generate test identity")
	return id
}

func testServer(t *testing.T) *httptest.Server {
	t.Helper()

	store := confidential.NewLocalStore()
	l := ledger.New(store, testIdentity(t), slog.Default())

	srv, err := New(&HTTPServerConfig{
		ListenAddr:               "127.0.0.1:0",
		MetricsAddr:              "",
		Log:                      slog.Default(),
		DrainDuration:            time.Second,
		GracefulShutdownDuration: time.Second,
		ReadTimeout:              5 * time.Second,
		WriteTimeout:             5 * time.Second,
	}, NewHandler(l, slog.Default()))
	require.NoError(t, err, "Failed to create server")

	ts := httptest.NewServer(srv.getRouter())
	t.Cleanup(ts.Close)
	return ts
}

func doJSON(t *testing.T, ts *httptest.Server, method, path string, identity interfaces.Identity, body interface{}) *http.Response {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}

	req, err := http.NewRequest(method, ts.URL+path, &buf)
	require.NoError(t, err)
	if !identity.IsZero() {
		req.Header.Set(IdentityHeader, identity.String())
	}

	resp, err := ts.Client().Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func createDocument(t *testing.T, ts *httptest.Server, owner interfaces.Identity, name, secret string) createDocumentResponse {
	t.Helper()

	resp := doJSON(t, ts, http.MethodPost, "/api/documents", owner,
		createDocumentRequest{Name: name, Secret: secret})
	require.Equal(t, http.StatusCreated, resp.StatusCode)

	var created createDocumentResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&created))
	return created
}

func TestHandler_CreateDocument(t *testing.T) {
	ts := testServer(t)
	alice := testIdentity(t)

	created := createDocument(t, ts, alice, "meeting notes", "123456789")
	assert.Equal(t, interfaces.DocumentID(1), created.ID)
	assert.Equal(t, "123456789", created.Secret)

	// Server-generated secret when omitted.
	generated := createDocument(t, ts, alice, "second", "")
	assert.Equal(t, interfaces.DocumentID(2), generated.ID)
	assert.Len(t, generated.Secret, 9)
}

func TestHandler_CreateDocumentValidation(t *testing.T) {
	ts := testServer(t)
	alice := testIdentity(t)

	resp := doJSON(t, ts, http.MethodPost, "/api/documents", alice,
		createDocumentRequest{Name: ""})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "blank name is rejected")

	resp = doJSON(t, ts, http.MethodPost, "/api/documents", interfaces.Identity{},
		createDocumentRequest{Name: "no identity"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode, "missing identity header is rejected")

	resp = doJSON(t, ts, http.MethodPost, "/api/documents", alice,
		createDocumentRequest{Name: "bad secret", Secret: "not-a-number"})
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestHandler_GetAndList(t *testing.T) {
	ts := testServer(t)
	alice := testIdentity(t)

	first := createDocument(t, ts, alice, "one", "1")
	createDocument(t, ts, alice, "two", "2")

	resp := doJSON(t, ts, http.MethodGet, fmt.Sprintf("/api/documents/%d", first.ID), alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc interfaces.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "one", doc.Name)
	assert.Equal(t, alice, doc.Owner)

	resp = doJSON(t, ts, http.MethodGet, "/api/documents", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var docs []interfaces.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&docs))
	require.Len(t, docs, 2)
	assert.Equal(t, interfaces.DocumentID(1), docs[0].ID)
	assert.Equal(t, interfaces.DocumentID(2), docs[1].ID)

	resp = doJSON(t, ts, http.MethodGet, "/api/documents/99", alice, nil)
	assert.Equal(t, http.StatusNotFound, resp.StatusCode)
}

func TestHandler_GrantAndUpdateFlow(t *testing.T) {
	ts := testServer(t)
	alice := testIdentity(t)
	bob := testIdentity(t)

	created := createDocument(t, ts, alice, "shared", "42")
	path := fmt.Sprintf("/api/documents/%d", created.ID)

	// Bob cannot write before the grant.
	resp := doJSON(t, ts, http.MethodPut, path+"/body", bob,
		updateBodyRequest{Ciphertext: "00112233445566778899aabb:cafe"})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Bob cannot grant to himself either.
	resp = doJSON(t, ts, http.MethodPost, path+"/access", bob,
		grantAccessRequest{Grantee: bob.String()})
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	// Owner grants, bob writes.
	resp = doJSON(t, ts, http.MethodPost, path+"/access", alice,
		grantAccessRequest{Grantee: bob.String()})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodPut, path+"/body", bob,
		updateBodyRequest{Ciphertext: "00112233445566778899aabb:cafe"})
	assert.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, path, alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var doc interfaces.Document
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&doc))
	assert.Equal(t, "00112233445566778899aabb:cafe", doc.EncryptedBody)
}

func TestHandler_Collaborators(t *testing.T) {
	ts := testServer(t)
	alice := testIdentity(t)
	bob := testIdentity(t)

	created := createDocument(t, ts, alice, "roster", "7")
	path := fmt.Sprintf("/api/documents/%d", created.ID)

	resp := doJSON(t, ts, http.MethodPost, path+"/access", alice,
		grantAccessRequest{Grantee: bob.String()})
	require.Equal(t, http.StatusNoContent, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, path+"/collaborators", alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var out map[string][]string
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&out))
	assert.Equal(t, []string{alice.String(), bob.String()}, out["collaborators"])

	resp = doJSON(t, ts, http.MethodGet, path+"/authorized?identity="+bob.String(), alice, nil)
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var auth map[string]bool
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&auth))
	assert.True(t, auth["authorized"])
}

func TestHandler_HealthEndpoints(t *testing.T) {
	ts := testServer(t)
	alice := testIdentity(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp := doJSON(t, ts, http.MethodGet, path, alice, nil)
		assert.Equal(t, http.StatusOK, resp.StatusCode, "path %s", path)
	}

	resp := doJSON(t, ts, http.MethodGet, "/drain", alice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/readyz", alice, nil)
	assert.Equal(t, http.StatusServiceUnavailable, resp.StatusCode, "drained server reports not ready")

	resp = doJSON(t, ts, http.MethodGet, "/undrain", alice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)

	resp = doJSON(t, ts, http.MethodGet, "/readyz", alice, nil)
	assert.Equal(t, http.StatusOK, resp.StatusCode)
}
