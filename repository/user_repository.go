package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"afusocial/model"
	"github.com/jmoiron/sqlx"
)

const userColumns = `id, email, first_name, last_name, profile_image_url, username, bio, verified,
	followers_count, following_count, posts_count, created_at, updated_at`

type UserRepository interface {
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	Upsert(ctx context.Context, user models.UpsertUser) (*models.User, error)
	Search(ctx context.Context, query string, limit int) ([]models.User, error)
	IncrementPostsCount(ctx context.Context, userID string) error
	IncrementFollowCounts(ctx context.Context, followerID, followingID string) error
	DecrementFollowCounts(ctx context.Context, followerID, followingID string) error
}

type userRepository struct {
	db sqlx.ExtContext
}

// NewUserRepository works over a pool or an open transaction.
func NewUserRepository(db sqlx.ExtContext) UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE id = $1`, id)
}

func (r *userRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `SELECT `+userColumns+` FROM users WHERE username = $1`, username)
}

func (r *userRepository) getOne(ctx context.Context, query string, arg interface{}) (*models.User, error) {
	var user models.User
	err := sqlx.GetContext(ctx, r.db, &user, query, arg)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get user: %w", err)
	}
	return &user, nil
}

// Upsert inserts the user or refreshes the supplied profile fields.
// Counters and the verified flag are never written here.
func (r *userRepository) Upsert(ctx context.Context, user models.UpsertUser) (*models.User, error) {
	query := `
		INSERT INTO users (id, email, first_name, last_name, profile_image_url, username, bio)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
		ON CONFLICT (id) DO UPDATE SET
			email             = COALESCE(EXCLUDED.email, users.email),
			first_name        = COALESCE(EXCLUDED.first_name, users.first_name),
			last_name         = COALESCE(EXCLUDED.last_name, users.last_name),
			profile_image_url = COALESCE(EXCLUDED.profile_image_url, users.profile_image_url),
			username          = COALESCE(EXCLUDED.username, users.username),
			bio               = COALESCE(EXCLUDED.bio, users.bio),
			updated_at        = NOW()
		RETURNING ` + userColumns

	var stored models.User
	err := sqlx.GetContext(ctx, r.db, &stored, query,
		user.ID,
		user.Email,
		user.FirstName,
		user.LastName,
		user.ProfileImageURL,
		user.Username,
		user.Bio,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to upsert user: %w", err)
	}
	return &stored, nil
}

func (r *userRepository) Search(ctx context.Context, query string, limit int) ([]models.User, error) {
	sqlQuery := `
		SELECT ` + userColumns + `
		FROM users
		WHERE username ILIKE $1 OR first_name ILIKE $1 OR last_name ILIKE $1
		ORDER BY username ASC NULLS LAST, id ASC
		LIMIT $2
	`
	users := []models.User{}
	if err := sqlx.SelectContext(ctx, r.db, &users, sqlQuery, containsPattern(query), limit); err != nil {
		return nil, fmt.Errorf("failed to search users: %w", err)
	}
	return users, nil
}

func (r *userRepository) IncrementPostsCount(ctx context.Context, userID string) error {
	query := `UPDATE users SET posts_count = posts_count + 1, updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, userID); err != nil {
		return fmt.Errorf("failed to increment posts count: %w", err)
	}
	return nil
}

func (r *userRepository) IncrementFollowCounts(ctx context.Context, followerID, followingID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET following_count = following_count + 1 WHERE id = $1`, followerID); err != nil {
		return fmt.Errorf("failed to increment following count: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET followers_count = followers_count + 1 WHERE id = $1`, followingID); err != nil {
		return fmt.Errorf("failed to increment followers count: %w", err)
	}
	return nil
}

func (r *userRepository) DecrementFollowCounts(ctx context.Context, followerID, followingID string) error {
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET following_count = GREATEST(following_count - 1, 0) WHERE id = $1`, followerID); err != nil {
		return fmt.Errorf("failed to decrement following count: %w", err)
	}
	if _, err := r.db.ExecContext(ctx,
		`UPDATE users SET followers_count = GREATEST(followers_count - 1, 0) WHERE id = $1`, followingID); err != nil {
		return fmt.Errorf("failed to decrement followers count: %w", err)
	}
	return nil
}
