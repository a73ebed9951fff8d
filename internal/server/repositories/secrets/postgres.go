package secrets

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

func (r *PostgresRepository) Create(ctx context.Context, secret *models.Secret) error {
	query := `
		INSERT INTO secrets (id, user_id, name, envelope_token)
		VALUES ($1, $2, $3, $4)
	`
	if _, err := r.db.ExecContext(ctx, query,
		secret.ID, secret.UserID, secret.Name, secret.EnvelopeToken); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) GetByName(ctx context.Context, userID, name string) (*models.Secret, error) {
	query := `
		SELECT id, user_id, name, envelope_token, created_at, updated_at
		FROM secrets
		WHERE user_id = $1 AND name = $2
	`
	secret := &models.Secret{}
	err := r.db.QueryRowContext(ctx, query, userID, name).Scan(
		&secret.ID, &secret.UserID, &secret.Name,
		&secret.EnvelopeToken, &secret.CreatedAt, &secret.UpdatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return secret, nil
}

func (r *PostgresRepository) UpdateToken(ctx context.Context, userID, name, envelopeToken string) error {
	query := `
		UPDATE secrets
		SET envelope_token = $3, updated_at = NOW()
		WHERE user_id = $1 AND name = $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, name, envelopeToken); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}

func (r *PostgresRepository) List(ctx context.Context, userID string) ([]*models.Secret, error) {
	query := `
		SELECT id, user_id, name, envelope_token, created_at, updated_at
		FROM secrets
		WHERE user_id = $1
		ORDER BY name
	`
	rows, err := r.db.QueryContext(ctx, query, userID)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var result []*models.Secret
	for rows.Next() {
		secret := &models.Secret{}
		if err := rows.Scan(
			&secret.ID, &secret.UserID, &secret.Name,
			&secret.EnvelopeToken, &secret.CreatedAt, &secret.UpdatedAt); err != nil {
			return nil, fmt.Errorf("db error: %w", err)
		}
		result = append(result, secret)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	return result, nil
}

func (r *PostgresRepository) Delete(ctx context.Context, userID, name string) error {
	query := `
		DELETE FROM secrets
		WHERE user_id = $1 AND name = $2
	`
	if _, err := r.db.ExecContext(ctx, query, userID, name); err != nil {
		return fmt.Errorf("db error: %w", err)
	}
	return nil
}
