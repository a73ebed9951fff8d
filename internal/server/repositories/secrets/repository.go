// Package secrets declares the repository contract for encrypted site
// credentials. Only VaultCipher envelope tokens are stored here.
package secrets

import (
	"context"

	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
)

// Repository defines CRUD operations for a user's stored secrets,
// keyed by (user, name). Lookups miss with common.ErrorNotFound.
type Repository interface {
	Create(ctx context.Context, secret *models.Secret) error
	GetByName(ctx context.Context, userID, name string) (*models.Secret, error)
	UpdateToken(ctx context.Context, userID, name, envelopeToken string) error
	List(ctx context.Context, userID string) ([]*models.Secret, error)
	Delete(ctx context.Context, userID, name string) error
}
