// Package repomanager wires repositories to a database handle and owns
// schema migrations.
package repomanager

import (
	"context"
	"database/sql"

	"github.com/anfelyns/Password-Guardian-sub000/internal/dbx"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/refreshtokens"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/secrets"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/repositories/users"
)

type RepositoryManager interface {
	RunMigrations(context.Context, *sql.DB) error
	Users(db dbx.DBTX) users.Repository
	RefreshTokens(db dbx.DBTX) refreshtokens.Repository
	Secrets(db dbx.DBTX) secrets.Repository
}
