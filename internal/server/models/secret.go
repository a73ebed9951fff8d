package models

import "time"

// Secret is a stored site credential. EnvelopeToken is the VaultCipher
// output (nonce, ciphertext and tag in one encoded token); the plaintext
// never touches the store.
type Secret struct {
	ID            string
	UserID        string
	Name          string
	EnvelopeToken string
	CreatedAt     time.Time
	UpdatedAt     time.Time
}
