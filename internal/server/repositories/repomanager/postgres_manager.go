package repomanager

import (
	"context"
	"database/sql"

	"github.com/anfelyns/Password-Guardian-sub000/internal/dbx"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/migrations"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/refreshtokens"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/secrets"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/users"
	_ "github.com/jackc/pgx/v5/stdlib"
	"github.com/pressly/goose/v3"
)

type PostgresRepositoryManager struct {
}

func NewPostgresRepositoryManager() *PostgresRepositoryManager {
	return &PostgresRepositoryManager{}
}

func (m *PostgresRepositoryManager) Users(db dbx.DBTX) users.Repository {
	return users.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) RefreshTokens(db dbx.DBTX) refreshtokens.Repository {
	return refreshtokens.NewPostgresRepository(db)
}

func (m *PostgresRepositoryManager) Secrets(db dbx.DBTX) secrets.Repository {
	return secrets.NewPostgresRepository(db)
}

// RunMigrations sets up goose with the embedded migrations and runs them.
func (m *PostgresRepositoryManager) RunMigrations(ctx context.Context, db *sql.DB) error {
	goose.SetBaseFS(migrations.Migrations)
	if err := goose.SetDialect("pgx"); err != nil {
		return err
	}
	return goose.UpContext(ctx, db, ".")
}
