// Package models holds the persistent data shapes shared by
// repositories and services.
package models

import "time"

// User is an identity row. Email is stored normalized (trimmed,
// lower-cased) and unique; every lookup must use the normalized form.
//
// CredentialHash/CredentialSalt verify the login password (PBKDF2).
// VaultSalt feeds the independent Argon2id vault-key derivation; the
// vault key itself is never persisted.
type User struct {
	ID             string
	Email          string
	UserName       string
	CredentialHash []byte
	CredentialSalt []byte
	VaultSalt      []byte
	EmailVerified  bool
	CreatedAt      time.Time
}
