package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"afusocial/model"
	"afusocial/repository"
	"github.com/jmoiron/sqlx"
)

func (s *Storage) GetPost(ctx context.Context, postID int64) (*models.Post, error) {
	return repository.NewPostRepository(s.db).GetByID(ctx, postID)
}

// GetPosts returns the global feed newest first. Windows inside the cached
// range are served from the feed cache and rehydrated from the database so
// counters are always current.
func (s *Storage) GetPosts(ctx context.Context, limit, offset int) ([]models.Post, error) {
	limit = normalizeLimit(limit)
	if offset < 0 {
		offset = 0
	}

	posts := repository.NewPostRepository(s.db)

	if s.feed != nil {
		ids, ok, err := s.feed.Window(ctx, offset, limit)
		if err != nil {
			s.logger.WithError(err).Warn("feed cache read failed")
		} else if ok {
			return posts.ListByIDs(ctx, ids)
		}
	}

	result, err := posts.List(ctx, limit, offset)
	if err != nil {
		return nil, err
	}

	if s.feed != nil && offset == 0 {
		s.warmFeed()
	}

	return result, nil
}

func (s *Storage) GetPostsPage(ctx context.Context, limit int, cursor string) (*models.PostPage, error) {
	page, err := repository.NewPostRepository(s.db).ListPage(ctx, normalizeLimit(limit), cursor)
	if errors.Is(err, repository.ErrInvalidCursor) {
		return nil, fmt.Errorf("%w: %v", ErrInvalidInput, err)
	}
	return page, err
}

func (s *Storage) GetPostsByUser(ctx context.Context, userID string) ([]models.Post, error) {
	return repository.NewPostRepository(s.db).GetByAuthor(ctx, userID)
}

// CreatePost inserts the post and bumps the author's posts_count together.
func (s *Storage) CreatePost(ctx context.Context, input models.CreatePostInput) (*models.Post, error) {
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		return nil, invalid("content is required")
	}
	if input.AuthorID == "" {
		return nil, invalid("author id is required")
	}

	var post *models.Post
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		post, err = repository.NewPostRepository(tx).Create(ctx, input)
		if err != nil {
			return err
		}
		return repository.NewUserRepository(tx).IncrementPostsCount(ctx, input.AuthorID)
	})
	if err != nil {
		return nil, err
	}

	if s.feed != nil {
		if err := s.feed.Add(ctx, repository.PostKey{ID: post.ID, CreatedAt: post.CreatedAt}); err != nil {
			s.logger.WithError(err).WithField("post_id", post.ID).Warn("failed to add post to feed cache")
		}
	}

	return post, nil
}

func (s *Storage) warmFeed() {
	if !s.warming.CompareAndSwap(false, true) {
		return
	}

	s.bg.Add(1)
	go func() {
		defer s.bg.Done()
		defer s.warming.Store(false)

		ctx := context.Background()
		keys, err := repository.NewPostRepository(s.db).RecentKeys(ctx, feedWarmSize)
		if err != nil {
			s.logger.WithError(err).Warn("failed to load feed keys")
			return
		}
		if err := s.feed.Warm(ctx, keys); err != nil {
			s.logger.WithError(err).Warn("failed to warm feed cache")
		}
	}()
}
