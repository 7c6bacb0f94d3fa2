package cryptoutils

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBodyCipher_RoundTrip(t *testing.T) {
	payload, err := EncryptBody("123456789", "attack at dawn")
	require.NoError(t, err, "EncryptBody should succeed")

	plaintext, err := DecryptBody("123456789", payload)
	require.NoError(t, err, "DecryptBody should succeed with the right secret")
	assert.Equal(t, "attack at dawn", plaintext)
}

func TestBodyCipher_PayloadFormat(t *testing.T) {
	payload, err := EncryptBody("42", "body")
	require.NoError(t, err)

	parts := strings.SplitN(payload, ":", 2)
	require.Len(t, parts, 2, "payload should contain a single separator")
	assert.Len(t, parts[0], 24, "nonce half should be 24 hex chars (12 bytes)")
	assert.Equal(t, strings.ToLower(payload), payload, "payload should be lowercase hex")
}

func TestBodyCipher_WrongSecretFails(t *testing.T) {
	payload, err := EncryptBody("111111111", "classified")
	require.NoError(t, err)

	plaintext, err := DecryptBody("222222222", payload)
	assert.ErrorIs(t, err, ErrDecryptionFailed, "wrong secret must fail authentication")
	assert.Empty(t, plaintext, "no partial plaintext on failure")
}

func TestBodyCipher_EmptyPayload(t *testing.T) {
	plaintext, err := DecryptBody("any-secret", "")
	require.NoError(t, err, "never-written bodies decrypt to empty content")
	assert.Equal(t, "", plaintext)
}

func TestBodyCipher_NonceFreshness(t *testing.T) {
	first, err := EncryptBody("987654321", "same body")
	require.NoError(t, err)

	second, err := EncryptBody("987654321", "same body")
	require.NoError(t, err)

	assert.NotEqual(t, first, second, "identical inputs must produce distinct payloads")

	for _, payload := range []string{first, second} {
		plaintext, err := DecryptBody("987654321", payload)
		require.NoError(t, err)
		assert.Equal(t, "same body", plaintext)
	}
}

func TestBodyCipher_MalformedPayload(t *testing.T) {
	for _, payload := range []string{"no-separator", ":abcd", "abcd:"} {
		_, err := DecryptBody("s", payload)
		assert.ErrorIs(t, err, ErrMalformedPayload, "payload %q", payload)
	}
}

func TestBodyCipher_InvalidEncoding(t *testing.T) {
	// Odd-length and non-hex halves.
	for _, payload := range []string{
		"abc:def0",
		"zzzzzzzzzzzzzzzzzzzzzzzz:def0",
		"00112233445566778899aabb:xyz",
	} {
		_, err := DecryptBody("s", payload)
		assert.ErrorIs(t, err, ErrInvalidEncoding, "payload %q", payload)
	}

	// Well-formed hex but wrong nonce length.
	_, err := DecryptBody("s", "0011:def0")
	assert.ErrorIs(t, err, ErrInvalidEncoding)
}

func TestBodyCipher_TamperedCiphertext(t *testing.T) {
	payload, err := EncryptBody("555555555", "integrity matters")
	require.NoError(t, err)

	// Flip a hex digit inside the ciphertext half.
	idx := strings.Index(payload, ":") + 3
	flipped := 'f'
	if payload[idx] == 'f' {
		flipped = '0'
	}
	tampered := payload[:idx] + string(flipped) + payload[idx+1:]

	_, err = DecryptBody("555555555", tampered)
	assert.ErrorIs(t, err, ErrDecryptionFailed)
}

func TestDeriveBodyKey_Deterministic(t *testing.T) {
	first := DeriveBodyKey("314159265")
	second := DeriveBodyKey("314159265")
	other := DeriveBodyKey("271828182")

	assert.Equal(t, first, second, "same secret must derive the same key")
	assert.NotEqual(t, first, other, "different secrets must derive different keys")
}
