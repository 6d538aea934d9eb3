package repository

import (
	"context"
	"testing"
	"time"

	"afusocial/model"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var notificationCols = []string{"id", "user_id", "type", "message", "actor_id", "related_id", "is_read", "created_at"}

func TestNotificationRepositoryUnreadCountIsCached(t *testing.T) {
	db, mock := newMockDB(t)
	client, mr := newRedis(t)
	repo := NewNotificationRepository(db, client)
	ctx := context.Background()

	mock.ExpectQuery("SELECT COUNT.+is_read = false").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(4))

	count, err := repo.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(4), count)

	cached, err := mr.Get(unreadCountPrefix + "u1")
	require.NoError(t, err)
	assert.Equal(t, "4", cached)

	count, err = repo.GetUnreadCount(ctx, "u1")
	require.NoError(t, err)
	assert.Equal(t, int32(4), count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreateInvalidatesCache(t *testing.T) {
	db, mock := newMockDB(t)
	client, mr := newRedis(t)
	repo := NewNotificationRepository(db, client)
	ctx := context.Background()

	require.NoError(t, mr.Set(unreadCountPrefix+"u1", "2"))
	require.NoError(t, mr.Set(userNotifsPrefix+"u1:first:20", "{}"))

	mock.ExpectExec("INSERT INTO notifications .+ ON CONFLICT \\(id\\) DO NOTHING").
		WillReturnResult(sqlmock.NewResult(0, 1))

	actor := "u2"
	notification := &models.Notification{UserID: "u1", Type: models.NotificationTypeFollow, Message: "started following you", ActorID: &actor}
	inserted, err := repo.Create(ctx, notification)
	require.NoError(t, err)
	assert.True(t, inserted)

	assert.NotEqual(t, uuid.Nil, notification.ID)
	assert.False(t, notification.CreatedAt.IsZero())
	assert.False(t, mr.Exists(unreadCountPrefix+"u1"))
	assert.False(t, mr.Exists(userNotifsPrefix+"u1:first:20"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryGetByUserID(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db, nil)
	ctx := context.Background()
	now := time.Now()

	mock.ExpectQuery("SELECT COUNT.+FROM notifications WHERE user_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("FROM notifications WHERE user_id = \\$1 ORDER BY created_at DESC, id DESC LIMIT").
		WithArgs("u1", 2).
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow(uuid.New().String(), "u1", "LIKE", "liked your post", "u2", 7, false, now).
			AddRow(uuid.New().String(), "u1", "FOLLOW", "started following you", "u3", nil, true, now.Add(-time.Minute)))
	mock.ExpectQuery("SELECT COUNT.+is_read = false").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	conn, err := repo.GetByUserID(ctx, "u1", 1, "")
	require.NoError(t, err)
	require.Len(t, conn.Edges, 1)
	assert.True(t, conn.PageInfo.HasNextPage)
	assert.Equal(t, int32(2), conn.TotalCount)
	assert.Equal(t, int32(1), conn.UnreadCount)
	assert.Equal(t, int64(7), *conn.Edges[0].Node.RelatedID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryCreateDuplicateIsSkipped(t *testing.T) {
	db, mock := newMockDB(t)
	client, mr := newRedis(t)
	repo := NewNotificationRepository(db, client)

	require.NoError(t, mr.Set(unreadCountPrefix+"u1", "2"))

	id := uuid.New()
	mock.ExpectExec("INSERT INTO notifications .+ ON CONFLICT \\(id\\) DO NOTHING").
		WithArgs(id, "u1", sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), sqlmock.AnyArg(), false, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err := repo.Create(context.Background(), &models.Notification{
		ID:      id,
		UserID:  "u1",
		Type:    models.NotificationTypeLike,
		Message: "liked your post",
	})
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.True(t, mr.Exists(unreadCountPrefix+"u1"))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationRepositoryGetByUserIDAfterCursor(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db, nil)
	ctx := context.Background()
	now := time.Now().UTC()
	older, newer := uuid.New(), uuid.New()

	mock.ExpectQuery("SELECT COUNT.+FROM notifications WHERE user_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("FROM notifications WHERE user_id = \\$1 ORDER BY created_at DESC, id DESC LIMIT").
		WithArgs("u1", 2).
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow(newer.String(), "u1", "LIKE", "liked your post", "u2", 7, false, now).
			AddRow(older.String(), "u1", "LIKE", "liked your post", "u3", 7, false, now))
	mock.ExpectQuery("SELECT COUNT.+is_read = false").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	first, err := repo.GetByUserID(ctx, "u1", 1, "")
	require.NoError(t, err)
	require.Len(t, first.Edges, 1)
	require.NotNil(t, first.PageInfo.EndCursor)

	// The second row shares the first row's timestamp and must still be
	// reachable from the cursor.
	mock.ExpectQuery("SELECT COUNT.+FROM notifications WHERE user_id").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))
	mock.ExpectQuery("AND \\(created_at, id\\) < \\(\\$2, \\$3\\) ORDER BY created_at DESC, id DESC LIMIT \\$4").
		WithArgs("u1", sqlmock.AnyArg(), newer, 2).
		WillReturnRows(sqlmock.NewRows(notificationCols).
			AddRow(older.String(), "u1", "LIKE", "liked your post", "u3", 7, false, now))
	mock.ExpectQuery("SELECT COUNT.+is_read = false").
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	second, err := repo.GetByUserID(ctx, "u1", 1, *first.PageInfo.EndCursor)
	require.NoError(t, err)
	require.Len(t, second.Edges, 1)
	assert.Equal(t, older, second.Edges[0].Node.ID)
	assert.False(t, second.PageInfo.HasNextPage)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestNotificationCursorRoundTrip(t *testing.T) {
	now := time.Now().UTC()
	id := uuid.New()

	createdAt, decodedID, err := decodeNotificationCursor(encodeNotificationCursor(now, id))
	require.NoError(t, err)
	assert.True(t, now.Equal(createdAt))
	assert.Equal(t, id, decodedID)

	_, err = NewNotificationRepository(nil, nil).GetByUserID(context.Background(), "u1", 10, "bm90LWEtY3Vyc29y")
	assert.ErrorIs(t, err, ErrInvalidCursor)
}

func TestNotificationRepositoryMarkAsReadNotFound(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db, nil)
	id := uuid.New()

	mock.ExpectExec("UPDATE notifications SET is_read = true WHERE id").
		WithArgs(id, "u1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.MarkAsRead(context.Background(), id, "u1")
	assert.ErrorIs(t, err, ErrNotificationNotFound)
}

func TestNotificationRepositoryDeleteReadBefore(t *testing.T) {
	db, mock := newMockDB(t)
	repo := NewNotificationRepository(db, nil)

	mock.ExpectExec("DELETE FROM notifications WHERE is_read = true").
		WithArgs(sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 12))

	n, err := repo.DeleteReadBefore(context.Background(), time.Now())
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)
}
