package repo

import (
	"context"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/litverse/server/internal/model"
)

var userCols = []string{
	"id", "first_name", "second_name", "last_name", "email", "phone",
	"password_hash", "google_id", "facebook_id", "is_active",
	"email_verified", "email_verified_at", "reset_token",
	"reset_token_expiry", "created_at", "updated_at",
}

func userRow(id uuid.UUID, email string, now time.Time) *sqlmock.Rows {
	return sqlmock.NewRows(userCols).AddRow(
		id, "Jane", "", "Doe", email, "", "hash", "", "", true,
		true, now, "", nil, now, now,
	)
}

func TestUserRepo_GetByEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	now := time.Now()
	mock.ExpectQuery("SELECT(.+)FROM users WHERE email").
		WithArgs("jane@example.com").
		WillReturnRows(userRow(id, "jane@example.com", now))

	repo := NewUserRepo(db)
	user, err := repo.GetByEmail(context.Background(), "jane@example.com")
	require.NoError(t, err)
	assert.Equal(t, id, user.ID)
	assert.Equal(t, "jane@example.com", user.Email)
	assert.True(t, user.EmailVerified)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_GetByEmail_notFound(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("SELECT(.+)FROM users WHERE email").
		WithArgs("nobody@example.com").
		WillReturnRows(sqlmock.NewRows(userCols))

	repo := NewUserRepo(db)
	_, err = repo.GetByEmail(context.Background(), "nobody@example.com")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Create_duplicateEmail(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectQuery("INSERT INTO users").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "users_email_key"})

	repo := NewUserRepo(db)
	_, err = repo.Create(context.Background(), model.User{Email: "jane@example.com"})
	assert.ErrorIs(t, err, ErrDuplicate)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_List_withSearch(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	now := time.Now()
	rows := sqlmock.NewRows(userCols).
		AddRow(uuid.New(), "Jane", "", "Doe", "jane@example.com", "", "hash",
			"", "", true, true, now, "", nil, now, now)

	mock.ExpectQuery("SELECT(.+)FROM users WHERE first_name ILIKE").
		WithArgs(20, 20, "%jane%").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT(.+)FROM users WHERE first_name ILIKE").
		WithArgs("%jane%").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(21))

	repo := NewUserRepo(db)
	users, total, err := repo.List(context.Background(), 2, 20, "jane")
	require.NoError(t, err)
	assert.Len(t, users, 1)
	assert.Equal(t, 21, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepo_Delete_missing(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	id := uuid.New()
	mock.ExpectExec("DELETE FROM users WHERE id").
		WithArgs(id).
		WillReturnResult(sqlmock.NewResult(0, 0))

	repo := NewUserRepo(db)
	assert.ErrorIs(t, repo.Delete(context.Background(), id), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}
