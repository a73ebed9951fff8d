package users

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
	"github.com/stretchr/testify/require"
)

func TestFindByEmail_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	created := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "email", "username", "credential_hash", "credential_salt", "vault_salt", "email_verified", "created_at",
	}).AddRow("u1", "bob@example.com", "bob", []byte{1}, []byte{2}, []byte{3}, true, created)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT id, email, username, credential_hash, credential_salt, vault_salt, email_verified, created_at")).
		WithArgs("bob@example.com").
		WillReturnRows(rows)

	repo := NewPostgresRepository(db)
	u, err := repo.FindByEmail(context.Background(), "bob@example.com")
	require.NoError(t, err)
	require.Equal(t, "u1", u.ID)
	require.Equal(t, "bob", u.UserName)
	require.True(t, u.EmailVerified)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestFindByEmail_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, email").
		WithArgs("ghost@example.com").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewPostgresRepository(db)
	_, err = repo.FindByEmail(context.Background(), "ghost@example.com")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreate_ReturnsGeneratedID(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WithArgs("bob@example.com", "bob", []byte{1}, []byte{2}, []byte{3}, false).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("generated-id"))

	repo := NewPostgresRepository(db)
	u, err := repo.Create(context.Background(), &models.User{
		Email:          "bob@example.com",
		UserName:       "bob",
		CredentialHash: []byte{1},
		CredentialSalt: []byte{2},
		VaultSalt:      []byte{3},
	})
	require.NoError(t, err)
	require.Equal(t, "generated-id", u.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestUpdateCredential(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("u1", []byte{9}, []byte{8}).
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.UpdateCredential(context.Background(), "u1", []byte{9}, []byte{8}))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSetVerified(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("UPDATE users").
		WithArgs("u1").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	require.NoError(t, repo.SetVerified(context.Background(), "u1"))
	require.NoError(t, mock.ExpectationsWereMet())
}
