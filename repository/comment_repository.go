package repository

import (
	"context"
	"fmt"

	"afusocial/model"
	"github.com/jmoiron/sqlx"
)

type CommentRepository interface {
	Create(ctx context.Context, input models.CreateCommentInput) (*models.Comment, error)
	GetByPost(ctx context.Context, postID int64) ([]models.Comment, error)
}

type commentRepository struct {
	db sqlx.ExtContext
}

func NewCommentRepository(db sqlx.ExtContext) CommentRepository {
	return &commentRepository{db: db}
}

func (r *commentRepository) Create(ctx context.Context, input models.CreateCommentInput) (*models.Comment, error) {
	query := `
		INSERT INTO comments (author_id, post_id, content)
		VALUES ($1, $2, $3)
		RETURNING id, author_id, post_id, content, created_at
	`

	var comment models.Comment
	if err := sqlx.GetContext(ctx, r.db, &comment, query, input.AuthorID, input.PostID, input.Content); err != nil {
		return nil, fmt.Errorf("failed to create comment: %w", err)
	}
	return &comment, nil
}

func (r *commentRepository) GetByPost(ctx context.Context, postID int64) ([]models.Comment, error) {
	query := `
		SELECT id, author_id, post_id, content, created_at
		FROM comments
		WHERE post_id = $1
		ORDER BY created_at DESC, id DESC
	`
	comments := []models.Comment{}
	if err := sqlx.SelectContext(ctx, r.db, &comments, query, postID); err != nil {
		return nil, fmt.Errorf("failed to get post comments: %w", err)
	}
	return comments, nil
}
