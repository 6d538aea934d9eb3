package repository

import (
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockDB(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock) {
	t.Helper()
	mockDB, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { mockDB.Close() })
	return sqlx.NewDb(mockDB, "postgres"), mock
}

var postCols = []string{"id", "author_id", "content", "image_url", "likes_count", "comments_count", "created_at", "updated_at"}

func TestContainsPatternEscapesWildcards(t *testing.T) {
	assert.Equal(t, "%hello%", containsPattern("hello"))
	assert.Equal(t, `%50\%\_off\\%`, containsPattern(`50%_off\`))
}

func TestCursorRoundTrip(t *testing.T) {
	ts := time.Date(2025, 3, 14, 15, 9, 26, 535897000, time.UTC)

	cursor, err := DecodeCursor(EncodeCursor(ts, 42))
	require.NoError(t, err)

	assert.Equal(t, int64(42), cursor.ID)
	assert.True(t, ts.Equal(cursor.Timestamp))
}

func TestDecodeCursorRejectsGarbage(t *testing.T) {
	_, err := DecodeCursor("!!!not-base64")
	assert.Error(t, err)
}

func TestPostgresErrorClassification(t *testing.T) {
	assert.True(t, IsForeignKeyViolation(&pq.Error{Code: "23503"}))
	assert.False(t, IsForeignKeyViolation(&pq.Error{Code: "23505"}))
	assert.True(t, IsUniqueViolation(&pq.Error{Code: "23505"}))
	assert.False(t, IsUniqueViolation(assert.AnError))
}
