package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

var schema = []string{
	`CREATE TABLE IF NOT EXISTS users (
		id                VARCHAR PRIMARY KEY,
		email             VARCHAR UNIQUE,
		first_name        VARCHAR,
		last_name         VARCHAR,
		profile_image_url VARCHAR,
		username          VARCHAR UNIQUE,
		bio               TEXT,
		verified          BOOLEAN NOT NULL DEFAULT FALSE,
		followers_count   INTEGER NOT NULL DEFAULT 0,
		following_count   INTEGER NOT NULL DEFAULT 0,
		posts_count       INTEGER NOT NULL DEFAULT 0,
		created_at        TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at        TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS posts (
		id             BIGSERIAL PRIMARY KEY,
		author_id      VARCHAR NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content        TEXT NOT NULL,
		image_url      VARCHAR,
		likes_count    INTEGER NOT NULL DEFAULT 0,
		comments_count INTEGER NOT NULL DEFAULT 0,
		created_at     TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at     TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_created_at ON posts (created_at DESC, id DESC)`,
	`CREATE INDEX IF NOT EXISTS idx_posts_author_id ON posts (author_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS likes (
		id         BIGSERIAL PRIMARY KEY,
		user_id    VARCHAR NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id    BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (user_id, post_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_likes_post_id ON likes (post_id)`,
	`CREATE TABLE IF NOT EXISTS comments (
		id         BIGSERIAL PRIMARY KEY,
		author_id  VARCHAR NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		post_id    BIGINT NOT NULL REFERENCES posts(id) ON DELETE CASCADE,
		content    TEXT NOT NULL,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_comments_post_id ON comments (post_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS follows (
		id           BIGSERIAL PRIMARY KEY,
		follower_id  VARCHAR NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		following_id VARCHAR NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		created_at   TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (follower_id, following_id),
		CHECK (follower_id <> following_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_follows_following_id ON follows (following_id)`,
	`CREATE TABLE IF NOT EXISTS conversations (
		id         BIGSERIAL PRIMARY KEY,
		name       VARCHAR,
		is_group   BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE TABLE IF NOT EXISTS conversation_participants (
		id              BIGSERIAL PRIMARY KEY,
		conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		user_id         VARCHAR NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		joined_at       TIMESTAMPTZ NOT NULL DEFAULT NOW(),
		UNIQUE (conversation_id, user_id)
	)`,
	`CREATE INDEX IF NOT EXISTS idx_participants_user_id ON conversation_participants (user_id)`,
	`CREATE TABLE IF NOT EXISTS messages (
		id              BIGSERIAL PRIMARY KEY,
		conversation_id BIGINT NOT NULL REFERENCES conversations(id) ON DELETE CASCADE,
		sender_id       VARCHAR NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		content         TEXT NOT NULL,
		message_type    VARCHAR(20) NOT NULL DEFAULT 'text',
		created_at      TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_messages_conversation_id ON messages (conversation_id, created_at DESC)`,
	`CREATE TABLE IF NOT EXISTS notifications (
		id         UUID PRIMARY KEY,
		user_id    VARCHAR NOT NULL REFERENCES users(id) ON DELETE CASCADE,
		type       VARCHAR(20) NOT NULL,
		message    TEXT NOT NULL,
		actor_id   VARCHAR,
		related_id BIGINT,
		is_read    BOOLEAN NOT NULL DEFAULT FALSE,
		created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
	)`,
	`CREATE INDEX IF NOT EXISTS idx_notifications_user_created ON notifications (user_id, created_at DESC, id DESC)`,
}

// Migrate applies the schema. Every statement is idempotent.
func Migrate(ctx context.Context, db *sqlx.DB) error {
	return WithTx(ctx, db, func(tx *sqlx.Tx) error {
		for _, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("failed to apply migration: %w", err)
			}
		}
		return nil
	})
}
