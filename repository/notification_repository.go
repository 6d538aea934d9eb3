package repository

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"afusocial/model"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/redis/go-redis/v9"
)

const (
	// Cache TTLs
	unreadCountTTL       = 5 * time.Minute
	userNotificationsTTL = 2 * time.Minute

	// Cache key prefixes
	unreadCountPrefix = "notif:unread:"
	userNotifsPrefix  = "notif:user:"
)

var ErrNotificationNotFound = errors.New("notification not found")

type NotificationRepository interface {
	Create(ctx context.Context, notification *models.Notification) (bool, error)
	GetByUserID(ctx context.Context, userID string, first int, after string) (*models.NotificationConnection, error)
	MarkAsRead(ctx context.Context, notificationID uuid.UUID, userID string) error
	MarkAllAsRead(ctx context.Context, userID string) error
	GetUnreadCount(ctx context.Context, userID string) (int32, error)
	DeleteReadBefore(ctx context.Context, before time.Time) (int64, error)
}

type notificationRepository struct {
	db    *sqlx.DB
	redis *redis.Client
}

// NewNotificationRepository caches unread counts and first pages in redis
// when redisClient is non-nil.
func NewNotificationRepository(db *sqlx.DB, redisClient *redis.Client) NotificationRepository {
	return &notificationRepository{
		db:    db,
		redis: redisClient,
	}
}

// Create inserts the notification unless one with the same id already
// exists, and reports whether a row was written.
func (r *notificationRepository) Create(ctx context.Context, notification *models.Notification) (bool, error) {
	if notification.ID == uuid.Nil {
		notification.ID = uuid.New()
	}
	if notification.CreatedAt.IsZero() {
		notification.CreatedAt = time.Now()
	}

	query := `
		INSERT INTO notifications (id, user_id, type, message, actor_id, related_id, is_read, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		ON CONFLICT (id) DO NOTHING
	`

	result, err := r.db.ExecContext(
		ctx,
		query,
		notification.ID,
		notification.UserID,
		notification.Type,
		notification.Message,
		notification.ActorID,
		notification.RelatedID,
		notification.IsRead,
		notification.CreatedAt,
	)
	if err != nil {
		return false, fmt.Errorf("failed to create notification: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	if rows == 0 {
		return false, nil
	}

	r.invalidateUserCaches(ctx, notification.UserID)

	return true, nil
}

func (r *notificationRepository) GetByUserID(ctx context.Context, userID string, first int, after string) (*models.NotificationConnection, error) {
	var (
		cursorTime time.Time
		cursorID   uuid.UUID
	)
	if after != "" {
		var err error
		cursorTime, cursorID, err = decodeNotificationCursor(after)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
	}

	cacheKey := fmt.Sprintf("%s%s:first:%d", userNotifsPrefix, userID, first)

	if after == "" && r.redis != nil {
		cached, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			var connection models.NotificationConnection
			if err := json.Unmarshal([]byte(cached), &connection); err == nil {
				return &connection, nil
			}
		}
	}

	var totalCount int32
	countQuery := `SELECT COUNT(*) FROM notifications WHERE user_id = $1`
	if err := r.db.GetContext(ctx, &totalCount, countQuery, userID); err != nil {
		return nil, fmt.Errorf("failed to count notifications: %w", err)
	}

	query := `
		SELECT id, user_id, type, message, actor_id, related_id, is_read, created_at
		FROM notifications
		WHERE user_id = $1`
	args := []interface{}{userID}

	if after != "" {
		query += ` AND (created_at, id) < ($2, $3) ORDER BY created_at DESC, id DESC LIMIT $4`
		args = append(args, cursorTime, cursorID, first+1)
	} else {
		query += ` ORDER BY created_at DESC, id DESC LIMIT $2`
		args = append(args, first+1)
	}

	var notifications []models.Notification
	if err := r.db.SelectContext(ctx, &notifications, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}

	unreadCount, err := r.GetUnreadCount(ctx, userID)
	if err != nil {
		return nil, err
	}

	hasNextPage := len(notifications) > first
	if hasNextPage {
		notifications = notifications[:first]
	}

	edges := make([]models.NotificationEdge, len(notifications))
	for i, notification := range notifications {
		edges[i] = models.NotificationEdge{
			Cursor: encodeNotificationCursor(notification.CreatedAt, notification.ID),
			Node:   notification,
		}
	}

	var endCursor, startCursor *string
	if len(edges) > 0 {
		endCursor = &edges[len(edges)-1].Cursor
		startCursor = &edges[0].Cursor
	}

	connection := &models.NotificationConnection{
		Edges: edges,
		PageInfo: models.PageInfo{
			EndCursor:       endCursor,
			HasNextPage:     hasNextPage,
			StartCursor:     startCursor,
			HasPreviousPage: after != "",
		},
		TotalCount:  totalCount,
		UnreadCount: unreadCount,
	}

	if after == "" && r.redis != nil {
		if data, err := json.Marshal(connection); err == nil {
			r.redis.Set(ctx, cacheKey, data, userNotificationsTTL)
		}
	}

	return connection, nil
}

func (r *notificationRepository) MarkAsRead(ctx context.Context, notificationID uuid.UUID, userID string) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE id = $1 AND user_id = $2
	`

	result, err := r.db.ExecContext(ctx, query, notificationID, userID)
	if err != nil {
		return fmt.Errorf("failed to mark notification read: %w", err)
	}

	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}

	if rows == 0 {
		return ErrNotificationNotFound
	}

	r.invalidateUserCaches(ctx, userID)

	return nil
}

func (r *notificationRepository) MarkAllAsRead(ctx context.Context, userID string) error {
	query := `
		UPDATE notifications
		SET is_read = true
		WHERE user_id = $1 AND is_read = false
	`

	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to mark notifications read: %w", err)
	}

	r.invalidateUserCaches(ctx, userID)

	return nil
}

func (r *notificationRepository) GetUnreadCount(ctx context.Context, userID string) (int32, error) {
	cacheKey := unreadCountPrefix + userID
	if r.redis != nil {
		cached, err := r.redis.Get(ctx, cacheKey).Result()
		if err == nil {
			if count, err := strconv.ParseInt(cached, 10, 32); err == nil {
				return int32(count), nil
			}
		}
	}

	query := `SELECT COUNT(*) FROM notifications WHERE user_id = $1 AND is_read = false`

	var count int32
	if err := r.db.GetContext(ctx, &count, query, userID); err != nil {
		return 0, fmt.Errorf("failed to count unread notifications: %w", err)
	}

	if r.redis != nil {
		r.redis.Set(ctx, cacheKey, strconv.FormatInt(int64(count), 10), unreadCountTTL)
	}

	return count, nil
}

// DeleteReadBefore prunes read notifications older than before.
func (r *notificationRepository) DeleteReadBefore(ctx context.Context, before time.Time) (int64, error) {
	query := `DELETE FROM notifications WHERE is_read = true AND created_at < $1`

	result, err := r.db.ExecContext(ctx, query, before)
	if err != nil {
		return 0, fmt.Errorf("failed to cleanup notifications: %w", err)
	}

	return result.RowsAffected()
}

func (r *notificationRepository) invalidateUserCaches(ctx context.Context, userID string) {
	if r.redis == nil {
		return
	}

	r.redis.Del(ctx, unreadCountPrefix+userID)

	pattern := userNotifsPrefix + userID + ":*"
	iter := r.redis.Scan(ctx, 0, pattern, 0).Iterator()
	for iter.Next(ctx) {
		r.redis.Del(ctx, iter.Val())
	}
}

// Notification cursors pair created_at with the id so rows sharing a
// timestamp are neither skipped nor repeated across pages.
func encodeNotificationCursor(t time.Time, id uuid.UUID) string {
	return base64.StdEncoding.EncodeToString([]byte(t.Format(time.RFC3339Nano) + "|" + id.String()))
}

func decodeNotificationCursor(cursor string) (time.Time, uuid.UUID, error) {
	decoded, err := base64.StdEncoding.DecodeString(cursor)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	timestamp, id, found := strings.Cut(string(decoded), "|")
	if !found {
		return time.Time{}, uuid.Nil, errors.New("malformed notification cursor")
	}
	createdAt, err := time.Parse(time.RFC3339Nano, timestamp)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	parsedID, err := uuid.Parse(id)
	if err != nil {
		return time.Time{}, uuid.Nil, err
	}
	return createdAt, parsedID, nil
}
