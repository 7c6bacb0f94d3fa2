package confidential

import (
	"context"
	"crypto/rand"
	"fmt"
	"io"
	"log/slog"
	"math/big"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/crypto"
	"github.com/hashicorp/vault/api"

	"github.com/docvault/document-ledger-backend/interfaces"
)

// VaultStore keeps confidential values and their authorization lists in
// HashiCorp Vault KV v2. One Vault secret per handle, holding the
// decimal value and the hex-encoded authorization list. Vault's own
// access controls gate who can run this store at all; the per-identity
// list gates which ledger parties may decrypt.
type VaultStore struct {
	client    *api.Client
	mountPath string
	dataPath  string
	verifier  ProofVerifier
	log       *slog.Logger
}

// NewVaultStore creates a Vault-backed store.
//
// Parameters:
//   - address: Vault server address (e.g. https://vault.example.com:8200)
//   - token: Vault token used by this service
//   - mountPath: KV v2 mount path (e.g. "secret")
//   - dataPath: path within the mount (e.g. "doc-ledger")
//   - log: structured logger for operational insights
func NewVaultStore(address, token, mountPath, dataPath string, log *slog.Logger) (*VaultStore, error) {
	config := api.DefaultConfig()
	config.Address = address
	config.Timeout = 30 * time.Second

	client, err := api.NewClient(config)
	if err != nil {
		return nil, fmt.Errorf("failed to create Vault client: %w", err)
	}
	client.SetToken(token)

	mountPath = strings.TrimSuffix(mountPath, "/")
	dataPath = strings.Trim(dataPath, "/")

	return &VaultStore{
		client:    client,
		mountPath: mountPath,
		dataPath:  dataPath,
		verifier:  DummyVerifier{},
		log:       log,
	}, nil
}

// WithVerifier sets the proof verifier used by Decrypt.
func (s *VaultStore) WithVerifier(verifier ProofVerifier) *VaultStore {
	s.verifier = verifier
	return s
}

// handlePath builds the KV v2 data path for a handle.
func (s *VaultStore) handlePath(handle interfaces.SecretHandle) string {
	return fmt.Sprintf("%s/data/%s/%s", s.mountPath, s.dataPath, handle.String())
}

// Mint stores value under a fresh salted handle readable only by
// scopeOwner.
func (s *VaultStore) Mint(ctx context.Context, value *big.Int, scopeOwner interfaces.Identity) (interfaces.SecretHandle, error) {
	salt := make([]byte, 32)
	if _, err := io.ReadFull(rand.Reader, salt); err != nil {
		return interfaces.SecretHandle{}, fmt.Errorf("failed to generate handle salt: %w", err)
	}

	handle := interfaces.SecretHandle(crypto.Keccak256Hash(salt, scopeOwner.Bytes(), value.Bytes()))

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"value": value.String(),
			"acl":   []string{scopeOwner.String()},
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, s.handlePath(handle), secretData); err != nil {
		s.log.Error("Failed to write confidential value to Vault",
			slog.String("handle", handle.String()), "err", err)
		return interfaces.SecretHandle{}, fmt.Errorf("%w: %v", interfaces.ErrAuthorityUnavailable, err)
	}

	s.log.Info("Minted confidential value",
		slog.String("handle", handle.String()),
		slog.String("owner", scopeOwner.String()))

	return handle, nil
}

// read fetches the value and authorization list behind a handle.
func (s *VaultStore) read(ctx context.Context, handle interfaces.SecretHandle) (*big.Int, []string, error) {
	secret, err := s.client.Logical().ReadWithContext(ctx, s.handlePath(handle))
	if err != nil {
		s.log.Error("Failed to read confidential value from Vault",
			slog.String("handle", handle.String()), "err", err)
		return nil, nil, fmt.Errorf("%w: %v", interfaces.ErrAuthorityUnavailable, err)
	}

	if secret == nil || secret.Data == nil {
		return nil, nil, interfaces.ErrHandleNotFound
	}

	data, ok := secret.Data["data"].(map[string]interface{})
	if !ok {
		return nil, nil, fmt.Errorf("invalid data format in Vault response for handle %s", handle)
	}

	valueStr, ok := data["value"].(string)
	if !ok {
		return nil, nil, fmt.Errorf("value key missing in Vault data for handle %s", handle)
	}

	value, ok := new(big.Int).SetString(valueStr, 10)
	if !ok {
		return nil, nil, fmt.Errorf("invalid confidential value for handle %s", handle)
	}

	rawACL, ok := data["acl"].([]interface{})
	if !ok {
		return nil, nil, fmt.Errorf("acl key missing in Vault data for handle %s", handle)
	}

	acl := make([]string, 0, len(rawACL))
	for _, entry := range rawACL {
		entryStr, ok := entry.(string)
		if !ok {
			return nil, nil, fmt.Errorf("invalid acl entry for handle %s", handle)
		}
		acl = append(acl, entryStr)
	}

	return value, acl, nil
}

// Authorize appends identity to the handle's authorization list.
// Repeat grants are no-ops.
func (s *VaultStore) Authorize(ctx context.Context, handle interfaces.SecretHandle, identity interfaces.Identity) error {
	value, acl, err := s.read(ctx, handle)
	if err != nil {
		return err
	}

	for _, entry := range acl {
		if entry == identity.String() {
			return nil
		}
	}

	secretData := map[string]interface{}{
		"data": map[string]interface{}{
			"value": value.String(),
			"acl":   append(acl, identity.String()),
		},
	}

	if _, err := s.client.Logical().WriteWithContext(ctx, s.handlePath(handle), secretData); err != nil {
		s.log.Error("Failed to update authorization list in Vault",
			slog.String("handle", handle.String()), "err", err)
		return fmt.Errorf("%w: %v", interfaces.ErrAuthorityUnavailable, err)
	}

	return nil
}

// IsAuthorized reports whether identity may decrypt handle.
func (s *VaultStore) IsAuthorized(ctx context.Context, handle interfaces.SecretHandle, identity interfaces.Identity) (bool, error) {
	_, acl, err := s.read(ctx, handle)
	if err != nil {
		return false, err
	}

	for _, entry := range acl {
		if entry == identity.String() {
			return true, nil
		}
	}
	return false, nil
}

// Decrypt releases the plaintext behind handle to an authorized
// requester with a verifying proof.
func (s *VaultStore) Decrypt(ctx context.Context, handle interfaces.SecretHandle, requester interfaces.Identity, proof interfaces.DecryptionProof) (*big.Int, error) {
	value, acl, err := s.read(ctx, handle)
	if err != nil {
		return nil, err
	}

	authorized := false
	for _, entry := range acl {
		if entry == requester.String() {
			authorized = true
			break
		}
	}
	if !authorized {
		return nil, interfaces.ErrUnauthorized
	}

	if err := s.verifier.Verify(handle, requester, proof); err != nil {
		return nil, fmt.Errorf("%w: %v", interfaces.ErrUnauthorized, err)
	}

	return value, nil
}

// Available checks that Vault is reachable, initialized and unsealed.
func (s *VaultStore) Available(ctx context.Context) bool {
	healthCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	health, err := s.client.Sys().HealthWithContext(healthCtx)
	if err != nil {
		s.log.Debug("Vault health check failed", "err", err)
		return false
	}

	if !health.Initialized || health.Sealed {
		s.log.Debug("Vault is not available",
			slog.Bool("initialized", health.Initialized),
			slog.Bool("sealed", health.Sealed))
		return false
	}

	return true
}
