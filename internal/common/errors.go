// Package common defines shared constants and sentinel errors used across
// Password Guardian components. Callers should use errors.Is to match
// these values.
package common

import "errors"

var (
	// Repository-level errors.
	ErrorNotFound = errors.New("not found")

	// Service-level errors (generic/internal flow control).
	ErrorInternal       = errors.New("internal error")
	ErrStoreUnavailable = errors.New("store unavailable")

	// Registration / verification errors.
	ErrEmailTaken       = errors.New("email already taken")
	ErrEmailNotVerified = errors.New("email not verified")
	ErrAlreadyVerified  = errors.New("email already verified")

	// Credential errors.
	ErrBadCredential = errors.New("bad credential")

	// One-time code lifecycle errors.
	ErrNoPendingCode = errors.New("no pending code")
	ErrCodeExpired   = errors.New("code expired")
	ErrCodeMismatch  = errors.New("code mismatch")

	// Validation errors.
	ErrInvalidInput    = errors.New("invalid input")
	ErrInvalidEncoding = errors.New("invalid encoding")

	// Notifier errors. A delivery failure does not invalidate an already
	// issued code; callers may offer a resend.
	ErrNotifierUnavailable = errors.New("notifier unavailable")

	// Vault errors. Authentication failure on decrypt means wrong key or
	// tampered ciphertext and must never be conflated with ErrorNotFound.
	ErrAuthenticationFailed = errors.New("authentication failed")
	ErrInvalidKeyLength     = errors.New("invalid key length")

	// Session token errors.
	ErrInvalidToken = errors.New("invalid token")
	ErrTokenExpired = errors.New("token expired")
)
