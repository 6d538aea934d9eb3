package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"afusocial/model"
	"github.com/jmoiron/sqlx"
)

type FollowRepository interface {
	Create(ctx context.Context, followerID, followingID string) (*models.Follow, error)
	Delete(ctx context.Context, followerID, followingID string) (bool, error)
	GetFollowers(ctx context.Context, userID string) ([]models.Follow, error)
	GetFollowing(ctx context.Context, userID string) ([]models.Follow, error)
}

type followRepository struct {
	db sqlx.ExtContext
}

func NewFollowRepository(db sqlx.ExtContext) FollowRepository {
	return &followRepository{db: db}
}

// Create returns nil without error when the relationship already exists.
func (r *followRepository) Create(ctx context.Context, followerID, followingID string) (*models.Follow, error) {
	query := `
		INSERT INTO follows (follower_id, following_id)
		VALUES ($1, $2)
		ON CONFLICT (follower_id, following_id) DO NOTHING
		RETURNING id, follower_id, following_id, created_at
	`

	var follow models.Follow
	err := sqlx.GetContext(ctx, r.db, &follow, query, followerID, followingID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to follow user: %w", err)
	}
	return &follow, nil
}

func (r *followRepository) Delete(ctx context.Context, followerID, followingID string) (bool, error) {
	query := `DELETE FROM follows WHERE follower_id = $1 AND following_id = $2`

	result, err := r.db.ExecContext(ctx, query, followerID, followingID)
	if err != nil {
		return false, fmt.Errorf("failed to unfollow user: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

// GetFollowers lists the follow rows pointing at userID.
func (r *followRepository) GetFollowers(ctx context.Context, userID string) ([]models.Follow, error) {
	return r.list(ctx, `
		SELECT id, follower_id, following_id, created_at
		FROM follows
		WHERE following_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
}

func (r *followRepository) GetFollowing(ctx context.Context, userID string) ([]models.Follow, error) {
	return r.list(ctx, `
		SELECT id, follower_id, following_id, created_at
		FROM follows
		WHERE follower_id = $1
		ORDER BY created_at DESC, id DESC
	`, userID)
}

func (r *followRepository) list(ctx context.Context, query, userID string) ([]models.Follow, error) {
	follows := []models.Follow{}
	if err := sqlx.SelectContext(ctx, r.db, &follows, query, userID); err != nil {
		return nil, fmt.Errorf("failed to list follows: %w", err)
	}
	return follows, nil
}
