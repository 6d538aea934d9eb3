package repository

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"afusocial/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var userCols = []string{
	"id", "email", "first_name", "last_name", "profile_image_url", "username", "bio", "verified",
	"followers_count", "following_count", "posts_count", "created_at", "updated_at",
}

func TestUserRepositoryGetByIDNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("SELECT .+ FROM users WHERE id").
		WithArgs("missing").
		WillReturnError(sql.ErrNoRows)

	user, err := repo.GetByID(context.Background(), "missing")
	require.NoError(t, err)
	assert.Nil(t, user)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryGetByUsername(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()

	mock.ExpectQuery("SELECT .+ FROM users WHERE username").
		WithArgs("ada").
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", "ada@example.com", "Ada", "Lovelace", nil, "ada", nil, true, 3, 1, 7, now, now))

	user, err := repo.GetByUsername(context.Background(), "ada")
	require.NoError(t, err)
	require.NotNil(t, user)
	assert.Equal(t, "u1", user.ID)
	assert.Equal(t, "ada", *user.Username)
	assert.Nil(t, user.ProfileImageURL)
	assert.Equal(t, 7, user.PostsCount)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryUpsert(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)
	now := time.Now()
	email := "ada@example.com"

	mock.ExpectQuery("INSERT INTO users .+ ON CONFLICT").
		WithArgs("u1", email, nil, nil, nil, nil, nil).
		WillReturnRows(sqlmock.NewRows(userCols).
			AddRow("u1", email, nil, nil, nil, nil, nil, false, 0, 0, 0, now, now))

	user, err := repo.Upsert(context.Background(), models.UpsertUser{ID: "u1", Email: &email})
	require.NoError(t, err)
	assert.Equal(t, email, *user.Email)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositorySearchEscapesQuery(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectQuery("FROM users.+ILIKE").
		WithArgs(`%a\_b%`, 20).
		WillReturnRows(sqlmock.NewRows(userCols))

	users, err := repo.Search(context.Background(), "a_b", 20)
	require.NoError(t, err)
	assert.Empty(t, users)
	assert.NotNil(t, users)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestUserRepositoryFollowCounts(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewUserRepository(db)

	mock.ExpectExec("UPDATE users SET following_count = following_count \\+ 1").
		WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET followers_count = followers_count \\+ 1").
		WithArgs("b").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET following_count = GREATEST").
		WithArgs("a").WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("UPDATE users SET followers_count = GREATEST").
		WithArgs("b").WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.IncrementFollowCounts(context.Background(), "a", "b"))
	require.NoError(t, repo.DecrementFollowCounts(context.Background(), "a", "b"))
	assert.NoError(t, mock.ExpectationsWereMet())
}
