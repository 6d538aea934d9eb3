// Package storage is the single seam between the route layer and the
// database. Every operation that touches more than one row group runs in one
// transaction, so denormalized counters move together with the rows they count.
package storage

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"

	"afusocial/db"
	"afusocial/model"
	"afusocial/repository"
	"github.com/jmoiron/sqlx"
	"github.com/sirupsen/logrus"
)

var (
	ErrNotFound     = errors.New("not found")
	ErrInvalidInput = errors.New("invalid input")
	ErrSelfFollow   = errors.New("users cannot follow themselves")
	ErrConflict     = errors.New("already exists")
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
	SearchLimit     = 20

	feedWarmSize = 1000
)

type Storage struct {
	db     *sqlx.DB
	feed   *repository.FeedCache
	logger logrus.FieldLogger

	warming atomic.Bool
	bg      sync.WaitGroup
}

// New returns a Storage over db. feed may be nil to serve the feed straight
// from the database.
func New(db *sqlx.DB, feed *repository.FeedCache, logger logrus.FieldLogger) *Storage {
	return &Storage{
		db:     db,
		feed:   feed,
		logger: logger,
	}
}

func (s *Storage) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// Close waits for background cache work to finish.
func (s *Storage) Close() {
	s.bg.Wait()
}

func (s *Storage) inTx(ctx context.Context, fn func(tx *sqlx.Tx) error) error {
	return mapError(database.WithTx(ctx, s.db, fn))
}

// mapError translates constraint violations into storage sentinels.
func mapError(err error) error {
	switch {
	case err == nil:
		return nil
	case repository.IsForeignKeyViolation(err):
		return fmt.Errorf("%w: %v", ErrNotFound, err)
	case repository.IsUniqueViolation(err):
		return fmt.Errorf("%w: %v", ErrConflict, err)
	default:
		return err
	}
}

func invalid(format string, args ...interface{}) error {
	return fmt.Errorf("%w: %s", ErrInvalidInput, fmt.Sprintf(format, args...))
}

func normalizeLimit(limit int) int {
	if limit <= 0 {
		return DefaultPageSize
	}
	if limit > MaxPageSize {
		return MaxPageSize
	}
	return limit
}

func (s *Storage) GetUser(ctx context.Context, id string) (*models.User, error) {
	return repository.NewUserRepository(s.db).GetByID(ctx, id)
}

func (s *Storage) GetUserByUsername(ctx context.Context, username string) (*models.User, error) {
	return repository.NewUserRepository(s.db).GetByUsername(ctx, username)
}

func (s *Storage) UpsertUser(ctx context.Context, user models.UpsertUser) (*models.User, error) {
	if strings.TrimSpace(user.ID) == "" {
		return nil, invalid("user id is required")
	}
	stored, err := repository.NewUserRepository(s.db).Upsert(ctx, user)
	return stored, mapError(err)
}

func (s *Storage) SearchUsers(ctx context.Context, query string) ([]models.User, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.User{}, nil
	}
	return repository.NewUserRepository(s.db).Search(ctx, query, SearchLimit)
}

func (s *Storage) SearchPosts(ctx context.Context, query string) ([]models.Post, error) {
	query = strings.TrimSpace(query)
	if query == "" {
		return []models.Post{}, nil
	}
	return repository.NewPostRepository(s.db).Search(ctx, query, SearchLimit)
}
