// Package keyderiv derives the two independent secrets Password Guardian
// needs from a user's password: the vault encryption key (Argon2id,
// memory-hard) and the login credential hash (PBKDF2, cheap enough for
// frequent verification). The two derivations must stay distinct so that
// knowledge of one never yields the other.
package keyderiv

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/base64"
	"fmt"

	"golang.org/x/crypto/argon2"
	"golang.org/x/crypto/pbkdf2"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
)

// SaltSize is the number of random bytes in a freshly generated salt.
const SaltSize = 16

// Salt is a per-identity random value mixed into a derivation.
type Salt []byte

// NewSalt returns a fresh cryptographically random salt.
func NewSalt() (Salt, error) {
	b := make([]byte, SaltSize)
	if _, err := rand.Read(b); err != nil {
		return nil, err
	}
	return Salt(b), nil
}

// Encode renders the salt as a compact text token (unpadded base64url).
func (s Salt) Encode() string {
	return base64.RawURLEncoding.EncodeToString(s)
}

// ParseSalt decodes a salt token produced by Encode. Malformed input
// fails with common.ErrInvalidEncoding.
func ParseSalt(token string) (Salt, error) {
	b, err := base64.RawURLEncoding.DecodeString(token)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrInvalidEncoding, err)
	}
	return Salt(b), nil
}

// Params holds the Argon2id cost parameters for the vault key derivation.
type Params struct {
	Time      uint32
	MemoryKiB uint32
	Threads   uint8
	KeyLen    uint32
}

// DefaultParams returns the production Argon2id parameters: 64 MiB of
// memory, a single pass, four lanes, 32-byte output.
func DefaultParams() Params {
	return Params{Time: 1, MemoryKiB: 64 * 1024, Threads: 4, KeyLen: 32}
}

// DeriveVaultKey derives the symmetric vault key from the master password
// and salt. Deterministic: same inputs always yield the same key. An empty
// password is syntactically valid input; rejecting it is caller policy.
func DeriveVaultKey(password []byte, salt Salt, p Params) []byte {
	return argon2.IDKey(password, salt, p.Time, p.MemoryKiB, p.Threads, p.KeyLen)
}

// PBKDF2 parameters for the credential hash. Deliberately a different
// derivation from the vault key (see the package comment).
const (
	credentialIterations = 100_000
	credentialHashLen    = 32
)

// DeriveCredentialHash derives the stored login verifier from a password
// and salt using PBKDF2-HMAC-SHA256.
func DeriveCredentialHash(password []byte, salt Salt) []byte {
	return pbkdf2.Key(password, salt, credentialIterations, credentialHashLen, sha256.New)
}

// VerifyCredential reports whether password matches the stored hash.
// The comparison is constant time with respect to the hash contents.
func VerifyCredential(password, hash []byte, salt Salt) bool {
	candidate := DeriveCredentialHash(password, salt)
	return subtle.ConstantTimeCompare(candidate, hash) == 1
}
