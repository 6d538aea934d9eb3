package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"afusocial/model"
	"github.com/jmoiron/sqlx"
)

type LikeRepository interface {
	Create(ctx context.Context, userID string, postID int64) (*models.Like, error)
	Delete(ctx context.Context, userID string, postID int64) (bool, error)
	GetByPost(ctx context.Context, postID int64) ([]models.Like, error)
}

type likeRepository struct {
	db sqlx.ExtContext
}

func NewLikeRepository(db sqlx.ExtContext) LikeRepository {
	return &likeRepository{db: db}
}

// Create records a like. It returns nil without error when the user
// already likes the post.
func (r *likeRepository) Create(ctx context.Context, userID string, postID int64) (*models.Like, error) {
	query := `
		INSERT INTO likes (user_id, post_id)
		VALUES ($1, $2)
		ON CONFLICT (user_id, post_id) DO NOTHING
		RETURNING id, user_id, post_id, created_at
	`

	var like models.Like
	err := sqlx.GetContext(ctx, r.db, &like, query, userID, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to create like: %w", err)
	}
	return &like, nil
}

// Delete removes a like and reports whether one existed.
func (r *likeRepository) Delete(ctx context.Context, userID string, postID int64) (bool, error) {
	query := `DELETE FROM likes WHERE user_id = $1 AND post_id = $2`

	result, err := r.db.ExecContext(ctx, query, userID, postID)
	if err != nil {
		return false, fmt.Errorf("failed to delete like: %w", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to get rows affected: %w", err)
	}

	return rowsAffected > 0, nil
}

func (r *likeRepository) GetByPost(ctx context.Context, postID int64) ([]models.Like, error) {
	query := `
		SELECT id, user_id, post_id, created_at
		FROM likes
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
	`
	likes := []models.Like{}
	if err := sqlx.SelectContext(ctx, r.db, &likes, query, postID); err != nil {
		return nil, fmt.Errorf("failed to get post likes: %w", err)
	}
	return likes, nil
}
