// Package refreshtokens declares the repository contract for the
// server-stored half of a session: opaque refresh tokens.
package refreshtokens

import (
	"context"
	"time"

	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
)

// Repository defines operations for issuing, retrieving, and revoking
// refresh tokens.
type Repository interface {
	// Create stores a new refresh token for userID with an expiry of
	// now+validity.
	Create(ctx context.Context, userID string, token string, validity time.Duration) error

	// Find looks up a refresh token by its opaque token string.
	// Returns common.ErrorNotFound when the token is absent.
	Find(ctx context.Context, token string) (*models.RefreshToken, error)

	// Delete removes a refresh token. Deleting a non-existent token is
	// not an error.
	Delete(ctx context.Context, token string) error
}
