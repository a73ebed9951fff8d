// Package users declares the record-store contract the authentication
// core depends on, plus its PostgreSQL implementation.
package users

import (
	"context"

	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
)

// Repository is the identity record store. Implementations return
// common.ErrorNotFound when a lookup misses; any infrastructure error
// is returned wrapped so services can classify it.
type Repository interface {
	// FindByEmail looks up an identity by normalized email.
	FindByEmail(ctx context.Context, email string) (*models.User, error)

	// Create inserts a new identity and fills in its generated ID.
	Create(ctx context.Context, user *models.User) (*models.User, error)

	// UpdateCredential replaces the login credential hash and salt.
	UpdateCredential(ctx context.Context, userID string, hash, salt []byte) error

	// SetVerified marks the identity's email as verified.
	SetVerified(ctx context.Context, userID string) error
}
