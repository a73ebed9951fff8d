// Package vaultcipher implements the authenticated-encryption envelope
// used for stored secrets: AES-256-GCM with a fresh random nonce per
// call, packed into a single versioned text token.
//
// Token format: "v1." + base64url(nonce ‖ ciphertext ‖ tag).
package vaultcipher

import (
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"encoding/base64"
	"fmt"
	"strings"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
)

const (
	// KeySize is the required key length (AES-256).
	KeySize = 32
	// NonceSize is the GCM nonce length. A nonce is generated fresh per
	// encryption and must never repeat under the same key.
	NonceSize = 12

	tokenPrefix = "v1."
)

// Encrypt seals plaintext under key and returns the envelope token.
// Empty plaintext encrypts to a valid token that round-trips to the
// empty string.
func Encrypt(plaintext string, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	nonce := make([]byte, NonceSize)
	if _, err := rand.Read(nonce); err != nil {
		return "", err
	}

	sealed := aead.Seal(nonce, nonce, []byte(plaintext), nil)
	return tokenPrefix + base64.RawURLEncoding.EncodeToString(sealed), nil
}

// Decrypt opens an envelope token with key. Any wrong key, truncation,
// tampering, bad encoding, or unknown format version fails with
// common.ErrAuthenticationFailed; partial plaintext is never returned.
func Decrypt(token string, key []byte) (string, error) {
	aead, err := newAEAD(key)
	if err != nil {
		return "", err
	}

	body, ok := strings.CutPrefix(token, tokenPrefix)
	if !ok {
		return "", fmt.Errorf("%w: unknown token format", common.ErrAuthenticationFailed)
	}

	sealed, err := base64.RawURLEncoding.DecodeString(body)
	if err != nil {
		return "", fmt.Errorf("%w: undecodable token", common.ErrAuthenticationFailed)
	}
	if len(sealed) < NonceSize+aead.Overhead() {
		return "", fmt.Errorf("%w: truncated token", common.ErrAuthenticationFailed)
	}

	nonce, ciphertext := sealed[:NonceSize], sealed[NonceSize:]
	plaintext, err := aead.Open(nil, nonce, ciphertext, nil)
	if err != nil {
		return "", fmt.Errorf("%w: %v", common.ErrAuthenticationFailed, err)
	}
	return string(plaintext), nil
}

func newAEAD(key []byte) (cipher.AEAD, error) {
	if len(key) != KeySize {
		return nil, fmt.Errorf("%w: got %d bytes, want %d", common.ErrInvalidKeyLength, len(key), KeySize)
	}
	block, err := aes.NewCipher(key)
	if err != nil {
		return nil, err
	}
	return cipher.NewGCM(block)
}
