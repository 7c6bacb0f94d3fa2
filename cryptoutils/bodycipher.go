package cryptoutils

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"strings"
)

// gcmNonceSize is the GCM nonce length in bytes. 12 bytes is standard
// for GCM; a fresh random nonce per encryption makes reuse under one
// key negligible.
const gcmNonceSize = 12

var (
	// ErrMalformedPayload is returned when a payload is missing the
	// nonce:ciphertext separator or either half is empty.
	ErrMalformedPayload = errors.New("malformed ciphertext payload")

	// ErrInvalidEncoding is returned when a payload half is not valid
	// lowercase hex or the nonce has the wrong length.
	ErrInvalidEncoding = errors.New("invalid ciphertext encoding")

	// ErrDecryptionFailed is returned when GCM authentication fails.
	// Wrong secret, tampering and truncation are deliberately
	// indistinguishable, and no partial plaintext is ever returned.
	ErrDecryptionFailed = errors.New("decryption failed: authentication error")
)

// DeriveBodyKey derives the fixed-size AES key from a secret. The
// derivation is deterministic: the same secret always yields the same
// key, so no key material needs to be persisted alongside a document.
func DeriveBodyKey(secret string) [32]byte {
	return sha256.Sum256([]byte(secret))
}

// EncryptBody seals plaintext under the key derived from secret and
// serializes the result as hex(nonce) + ":" + hex(ciphertext||tag).
// Every call draws a fresh nonce from the secure random source, so
// identical inputs produce distinct payloads.
func EncryptBody(secret, plaintext string) (string, error) {
	key := DeriveBodyKey(secret)

	aesBlock, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	nonce := make([]byte, gcmNonceSize)
	if _, err := io.ReadFull(rand.Reader, nonce); err != nil {
		return "", fmt.Errorf("failed to generate nonce: %w", err)
	}

	sealed := aesGCM.Seal(nil, nonce, []byte(plaintext), nil)

	return hex.EncodeToString(nonce) + ":" + hex.EncodeToString(sealed), nil
}

// DecryptBody reverses EncryptBody. An empty payload decrypts to the
// empty string: documents whose body was never written are valid, not
// malformed. Any authentication failure surfaces as ErrDecryptionFailed
// with no partial output.
func DecryptBody(secret, payload string) (string, error) {
	if payload == "" {
		return "", nil
	}

	nonceHex, sealedHex, found := strings.Cut(payload, ":")
	if !found || nonceHex == "" || sealedHex == "" {
		return "", ErrMalformedPayload
	}

	nonce, err := hex.DecodeString(nonceHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad nonce hex", ErrInvalidEncoding)
	}
	if len(nonce) != gcmNonceSize {
		return "", fmt.Errorf("%w: nonce must be %d bytes", ErrInvalidEncoding, gcmNonceSize)
	}

	sealed, err := hex.DecodeString(sealedHex)
	if err != nil {
		return "", fmt.Errorf("%w: bad ciphertext hex", ErrInvalidEncoding)
	}

	key := DeriveBodyKey(secret)

	aesBlock, err := aes.NewCipher(key[:])
	if err != nil {
		return "", fmt.Errorf("failed to create cipher: %w", err)
	}

	aesGCM, err := cipher.NewGCM(aesBlock)
	if err != nil {
		return "", fmt.Errorf("failed to create GCM: %w", err)
	}

	plaintext, err := aesGCM.Open(nil, nonce, sealed, nil)
	if err != nil {
		return "", ErrDecryptionFailed
	}

	return string(plaintext), nil
}
