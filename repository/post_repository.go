package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"afusocial/model"
	"github.com/jmoiron/sqlx"
)

const postColumns = `id, author_id, content, image_url, likes_count, comments_count, created_at, updated_at`

// PostKey is the ordering key of a post in the global feed.
type PostKey struct {
	ID        int64     `db:"id"`
	CreatedAt time.Time `db:"created_at"`
}

type PostRepository interface {
	Create(ctx context.Context, input models.CreatePostInput) (*models.Post, error)
	GetByID(ctx context.Context, postID int64) (*models.Post, error)
	List(ctx context.Context, limit, offset int) ([]models.Post, error)
	ListPage(ctx context.Context, first int, after string) (*models.PostPage, error)
	ListByIDs(ctx context.Context, postIDs []int64) ([]models.Post, error)
	RecentKeys(ctx context.Context, limit int) ([]PostKey, error)
	GetByAuthor(ctx context.Context, authorID string) ([]models.Post, error)
	Search(ctx context.Context, query string, limit int) ([]models.Post, error)
	IncrementLikesCount(ctx context.Context, postID int64) error
	DecrementLikesCount(ctx context.Context, postID int64) error
	IncrementCommentsCount(ctx context.Context, postID int64) error
}

type postRepository struct {
	db sqlx.ExtContext
}

func NewPostRepository(db sqlx.ExtContext) PostRepository {
	return &postRepository{db: db}
}

func (r *postRepository) Create(ctx context.Context, input models.CreatePostInput) (*models.Post, error) {
	query := `
		INSERT INTO posts (author_id, content, image_url)
		VALUES ($1, $2, $3)
		RETURNING ` + postColumns

	var post models.Post
	if err := sqlx.GetContext(ctx, r.db, &post, query, input.AuthorID, input.Content, input.ImageURL); err != nil {
		return nil, fmt.Errorf("failed to create post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) GetByID(ctx context.Context, postID int64) (*models.Post, error) {
	var post models.Post
	err := sqlx.GetContext(ctx, r.db, &post, `SELECT `+postColumns+` FROM posts WHERE id = $1`, postID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get post: %w", err)
	}
	return &post, nil
}

func (r *postRepository) List(ctx context.Context, limit, offset int) ([]models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		ORDER BY created_at DESC, id DESC
		LIMIT $1 OFFSET $2
	`
	posts := []models.Post{}
	if err := sqlx.SelectContext(ctx, r.db, &posts, query, limit, offset); err != nil {
		return nil, fmt.Errorf("failed to list posts: %w", err)
	}
	return posts, nil
}

// ListPage returns up to first posts older than the after cursor.
func (r *postRepository) ListPage(ctx context.Context, first int, after string) (*models.PostPage, error) {
	var (
		query string
		args  []interface{}
	)

	if after != "" {
		cursor, err := DecodeCursor(after)
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrInvalidCursor, err)
		}
		query = `
			SELECT ` + postColumns + `
			FROM posts
			WHERE (created_at, id) < ($1, $2)
			ORDER BY created_at DESC, id DESC
			LIMIT $3
		`
		args = []interface{}{cursor.Timestamp, cursor.ID, first + 1}
	} else {
		query = `
			SELECT ` + postColumns + `
			FROM posts
			ORDER BY created_at DESC, id DESC
			LIMIT $1
		`
		args = []interface{}{first + 1}
	}

	posts := []models.Post{}
	if err := sqlx.SelectContext(ctx, r.db, &posts, query, args...); err != nil {
		return nil, fmt.Errorf("failed to list posts page: %w", err)
	}

	page := &models.PostPage{HasMore: len(posts) > first}
	if page.HasMore {
		posts = posts[:first]
	}
	page.Posts = posts
	if page.HasMore && len(posts) > 0 {
		last := posts[len(posts)-1]
		page.NextCursor = EncodeCursor(last.CreatedAt, last.ID)
	}

	return page, nil
}

// ListByIDs loads the given posts in the order of postIDs. Missing ids are skipped.
func (r *postRepository) ListByIDs(ctx context.Context, postIDs []int64) ([]models.Post, error) {
	if len(postIDs) == 0 {
		return []models.Post{}, nil
	}

	query, args, err := sqlx.In(`SELECT `+postColumns+` FROM posts WHERE id IN (?)`, postIDs)
	if err != nil {
		return nil, fmt.Errorf("failed to build query: %w", err)
	}

	var found []models.Post
	if err := sqlx.SelectContext(ctx, r.db, &found, r.db.Rebind(query), args...); err != nil {
		return nil, fmt.Errorf("failed to fetch posts by id: %w", err)
	}

	byID := make(map[int64]models.Post, len(found))
	for _, post := range found {
		byID[post.ID] = post
	}

	posts := make([]models.Post, 0, len(found))
	for _, id := range postIDs {
		if post, ok := byID[id]; ok {
			posts = append(posts, post)
		}
	}
	return posts, nil
}

func (r *postRepository) RecentKeys(ctx context.Context, limit int) ([]PostKey, error) {
	query := `SELECT id, created_at FROM posts ORDER BY created_at DESC, id DESC LIMIT $1`
	keys := []PostKey{}
	if err := sqlx.SelectContext(ctx, r.db, &keys, query, limit); err != nil {
		return nil, fmt.Errorf("failed to list recent post keys: %w", err)
	}
	return keys, nil
}

func (r *postRepository) GetByAuthor(ctx context.Context, authorID string) ([]models.Post, error) {
	query := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE author_id = $1
		ORDER BY created_at DESC, id DESC
	`
	posts := []models.Post{}
	if err := sqlx.SelectContext(ctx, r.db, &posts, query, authorID); err != nil {
		return nil, fmt.Errorf("failed to get user posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) Search(ctx context.Context, query string, limit int) ([]models.Post, error) {
	sqlQuery := `
		SELECT ` + postColumns + `
		FROM posts
		WHERE content ILIKE $1
		ORDER BY created_at DESC, id DESC
		LIMIT $2
	`
	posts := []models.Post{}
	if err := sqlx.SelectContext(ctx, r.db, &posts, sqlQuery, containsPattern(query), limit); err != nil {
		return nil, fmt.Errorf("failed to search posts: %w", err)
	}
	return posts, nil
}

func (r *postRepository) IncrementLikesCount(ctx context.Context, postID int64) error {
	query := `UPDATE posts SET likes_count = likes_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, postID); err != nil {
		return fmt.Errorf("failed to increment likes count: %w", err)
	}
	return nil
}

func (r *postRepository) DecrementLikesCount(ctx context.Context, postID int64) error {
	query := `UPDATE posts SET likes_count = GREATEST(likes_count - 1, 0) WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, postID); err != nil {
		return fmt.Errorf("failed to decrement likes count: %w", err)
	}
	return nil
}

func (r *postRepository) IncrementCommentsCount(ctx context.Context, postID int64) error {
	query := `UPDATE posts SET comments_count = comments_count + 1 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, postID); err != nil {
		return fmt.Errorf("failed to increment comments count: %w", err)
	}
	return nil
}
