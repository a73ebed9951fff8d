package users

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
	"github.com/anfelyns/Password-Guardian-sub000/internal/dbx"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
)

// PostgresRepository implements Repository over dbx.DBTX (satisfied by
// *sql.DB or *sql.Tx).
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

func (r *PostgresRepository) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	query := `
		SELECT id, email, username, credential_hash, credential_salt, vault_salt, email_verified, created_at
		FROM users
		WHERE email = $1
	`
	user := &models.User{}
	err := r.db.QueryRowContext(ctx, query, email).Scan(
		&user.ID, &user.Email, &user.UserName,
		&user.CredentialHash, &user.CredentialSalt, &user.VaultSalt,
		&user.EmailVerified, &user.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {
	query := `
		INSERT INTO users (email, username, credential_hash, credential_salt, vault_salt, email_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING id
	`
	err := r.db.QueryRowContext(ctx, query,
		user.Email, user.UserName,
		user.CredentialHash, user.CredentialSalt, user.VaultSalt,
		user.EmailVerified).Scan(&user.ID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateCredential(ctx context.Context, userID string, hash, salt []byte) error {
	query := `
		UPDATE users
		SET credential_hash = $2, credential_salt = $3
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID, hash, salt); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) SetVerified(ctx context.Context, userID string) error {
	query := `
		UPDATE users
		SET email_verified = TRUE
		WHERE id = $1
	`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
