package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
	"github.com/anfelyns/Password-Guardian-sub000/internal/logging"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/repomanager"
	"github.com/anfelyns/Password-Guardian-sub000/internal/vaultcipher"
	"github.com/google/uuid"
)

// SecretService stores and reveals site credentials encrypted under the
// caller-supplied vault key. Plaintext never reaches the record store;
// only VaultCipher envelope tokens do. A decrypt failure surfaces as
// ErrAuthenticationFailed, distinct from ErrorNotFound, so callers never
// conflate tampering with absence.
type SecretService struct {
	db     *sql.DB
	repos  repomanager.RepositoryManager
	logger logging.Logger
}

func NewSecretService(db *sql.DB, rm repomanager.RepositoryManager, logger logging.Logger) *SecretService {
	return &SecretService{db: db, repos: rm, logger: logger}
}

// StoreSecret encrypts plaintext under vaultKey and creates or replaces
// the named secret. The previous envelope token, if any, is destroyed by
// the overwrite.
func (s *SecretService) StoreSecret(ctx context.Context, userID, name, plaintext string, vaultKey []byte) error {
	if name == "" {
		return fmt.Errorf("%w: empty secret name", common.ErrInvalidInput)
	}

	token, err := vaultcipher.Encrypt(plaintext, vaultKey)
	if err != nil {
		return err
	}

	repo := s.repos.Secrets(s.db)

	_, err = repo.GetByName(ctx, userID, name)
	switch {
	case err == nil:
		if err := repo.UpdateToken(ctx, userID, name, token); err != nil {
			return s.wrapStoreErr(err)
		}
	case errors.Is(err, common.ErrorNotFound):
		if err := repo.Create(ctx, &models.Secret{
			ID:            uuid.NewString(),
			UserID:        userID,
			Name:          name,
			EnvelopeToken: token,
		}); err != nil {
			return s.wrapStoreErr(err)
		}
	default:
		return s.wrapStoreErr(err)
	}

	s.logger.Info(ctx, "secret stored", "user_id", userID, "name", name)
	return nil
}

// RevealSecret decrypts the named secret with vaultKey.
func (s *SecretService) RevealSecret(ctx context.Context, userID, name string, vaultKey []byte) (string, error) {
	secret, err := s.repos.Secrets(s.db).GetByName(ctx, userID, name)
	if err != nil {
		return "", s.wrapStoreErr(err)
	}
	return vaultcipher.Decrypt(secret.EnvelopeToken, vaultKey)
}

// ListSecretNames returns the names of the user's stored secrets.
func (s *SecretService) ListSecretNames(ctx context.Context, userID string) ([]string, error) {
	list, err := s.repos.Secrets(s.db).List(ctx, userID)
	if err != nil {
		return nil, s.wrapStoreErr(err)
	}
	names := make([]string, 0, len(list))
	for _, secret := range list {
		names = append(names, secret.Name)
	}
	return names, nil
}

// DeleteSecret removes the named secret.
func (s *SecretService) DeleteSecret(ctx context.Context, userID, name string) error {
	if err := s.repos.Secrets(s.db).Delete(ctx, userID, name); err != nil {
		return s.wrapStoreErr(err)
	}
	return nil
}

func (s *SecretService) wrapStoreErr(err error) error {
	if errors.Is(err, common.ErrorNotFound) {
		return common.ErrorNotFound
	}
	return fmt.Errorf("%w: %v", common.ErrStoreUnavailable, err)
}
