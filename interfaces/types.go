package interfaces

import (
	"bytes"
	"encoding/hex"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ethereum/go-ethereum/common"
)

// Identity is the 20-byte address of a party interacting with the
// ledger. How a caller proves control of an identity is out of scope;
// the ledger only compares and stores them.
type Identity [20]byte

// NewIdentityFromBytes creates an identity from a raw 20-byte slice.
func NewIdentityFromBytes(addr []byte) (Identity, error) {
	if len(addr) != 20 {
		return Identity{}, errors.New("invalid identity length: must be 20 bytes")
	}

	var res Identity
	copy(res[:], addr)
	return res, nil
}

// NewIdentityFromHex creates an identity from a hex string, with or
// without a 0x prefix.
func NewIdentityFromHex(addr string) (Identity, error) {
	clean := strings.TrimPrefix(addr, "0x")
	if len(clean) != 40 {
		return Identity{}, errors.New("invalid identity length: hex string must be 40 characters")
	}
	if !common.IsHexAddress(clean) {
		return Identity{}, fmt.Errorf("invalid identity hex: %q", addr)
	}

	return Identity(common.HexToAddress(clean)), nil
}

// String returns the hex representation of the identity.
func (id Identity) String() string {
	return hex.EncodeToString(id[:])
}

// Bytes returns the raw 20-byte identity.
func (id Identity) Bytes() []byte {
	return id[:]
}

// Address returns the identity as an Ethereum-style address.
func (id Identity) Address() common.Address {
	return common.Address(id)
}

// IsZero reports whether the identity is the zero value. The zero
// identity is never a valid party.
func (id Identity) IsZero() bool {
	return id == Identity{}
}

// Equal compares two identities.
func (id Identity) Equal(other Identity) bool {
	return id == other
}

// DocumentID identifies a document on the ledger. IDs are assigned
// densely starting at 1 and are never reused.
type DocumentID uint64

// SecretHandle is the 32-byte opaque reference to a confidential
// integer held by the authority. The ledger stores handles but never
// learns the plaintext behind them.
type SecretHandle [32]byte

// NewSecretHandleFromBytes creates a handle from a raw 32-byte slice.
func NewSecretHandleFromBytes(source []byte) (SecretHandle, error) {
	if len(source) != 32 {
		return SecretHandle{}, errors.New("invalid handle length: must be 32 bytes")
	}

	var h SecretHandle
	copy(h[:], source)
	return h, nil
}

// NewSecretHandleFromHex creates a handle from a 64-character hex
// string, with or without a 0x prefix.
func NewSecretHandleFromHex(source string) (SecretHandle, error) {
	clean := strings.TrimPrefix(source, "0x")
	if len(clean) != 64 {
		return SecretHandle{}, errors.New("invalid handle length: hex string must be 64 characters")
	}

	raw, err := hex.DecodeString(clean)
	if err != nil {
		return SecretHandle{}, fmt.Errorf("invalid handle hex: %w", err)
	}

	return NewSecretHandleFromBytes(raw)
}

// String returns the hex representation of the handle.
func (h SecretHandle) String() string {
	return hex.EncodeToString(h[:])
}

// Bytes returns the raw 32-byte handle.
func (h SecretHandle) Bytes() []byte {
	return h[:]
}

// Equal compares two handles.
func (h SecretHandle) Equal(other SecretHandle) bool {
	return bytes.Equal(h[:], other[:])
}

// Document is one ledger record. Name and Owner are immutable after
// creation; EncryptedBody and UpdatedAt change on every body update.
// EncryptedBody is the textual AES-GCM payload produced by the
// cryptoutils body codec, or "" when the body has never been written.
type Document struct {
	ID              DocumentID   `json:"id"`
	Name            string       `json:"name"`
	Owner           Identity     `json:"owner"`
	EncryptedSecret SecretHandle `json:"encrypted_secret"`
	EncryptedBody   string       `json:"encrypted_body"`
	UpdatedAt       time.Time    `json:"updated_at"`
}
