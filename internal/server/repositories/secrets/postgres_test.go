package secrets

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/anfelyns/Password-Guardian-sub000/internal/common"
	"github.com/anfelyns/Password-Guardian-sub000/internal/server/models"
	"github.com/stretchr/testify/require"
)

func TestGetByName_Found(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "envelope_token", "created_at", "updated_at"}).
		AddRow("s1", "u1", "github", "v1.abc", now, now)

	mock.ExpectQuery("SELECT id, user_id, name, envelope_token").
		WithArgs("u1", "github").
		WillReturnRows(rows)

	repo := NewPostgresRepository(db)
	s, err := repo.GetByName(context.Background(), "u1", "github")
	require.NoError(t, err)
	require.Equal(t, "v1.abc", s.EnvelopeToken)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGetByName_NotFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT id, user_id, name, envelope_token").
		WithArgs("u1", "missing").
		WillReturnRows(sqlmock.NewRows([]string{"id"}))

	repo := NewPostgresRepository(db)
	_, err = repo.GetByName(context.Background(), "u1", "missing")
	require.ErrorIs(t, err, common.ErrorNotFound)
}

func TestCreateUpdateDelete(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("INSERT INTO secrets").
		WithArgs("s1", "u1", "github", "v1.abc").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE secrets").
		WithArgs("u1", "github", "v1.def").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM secrets").
		WithArgs("u1", "github").
		WillReturnResult(sqlmock.NewResult(0, 1))

	repo := NewPostgresRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.Create(ctx, &models.Secret{
		ID: "s1", UserID: "u1", Name: "github", EnvelopeToken: "v1.abc",
	}))
	require.NoError(t, repo.UpdateToken(ctx, "u1", "github", "v1.def"))
	require.NoError(t, repo.Delete(ctx, "u1", "github"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestList(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows([]string{"id", "user_id", "name", "envelope_token", "created_at", "updated_at"}).
		AddRow("s1", "u1", "aws", "v1.a", now, now).
		AddRow("s2", "u1", "github", "v1.b", now, now)

	mock.ExpectQuery("SELECT id, user_id, name, envelope_token").
		WithArgs("u1").
		WillReturnRows(rows)

	repo := NewPostgresRepository(db)
	list, err := repo.List(context.Background(), "u1")
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Equal(t, "aws", list[0].Name)
	require.Equal(t, "github", list[1].Name)
}
