package storage

import (
	"context"
	"strings"

	"afusocial/model"
	"afusocial/repository"
	"github.com/jmoiron/sqlx"
)

// LikePost records userID's like on postID. It returns nil without error
// when the like already existed; likes_count only moves when a row is added.
func (s *Storage) LikePost(ctx context.Context, userID string, postID int64) (*models.Like, error) {
	var like *models.Like
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		like, err = repository.NewLikeRepository(tx).Create(ctx, userID, postID)
		if err != nil || like == nil {
			return err
		}
		return repository.NewPostRepository(tx).IncrementLikesCount(ctx, postID)
	})
	if err != nil {
		return nil, err
	}
	return like, nil
}

// UnlikePost reports whether a like was removed.
func (s *Storage) UnlikePost(ctx context.Context, userID string, postID int64) (bool, error) {
	var removed bool
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		removed, err = repository.NewLikeRepository(tx).Delete(ctx, userID, postID)
		if err != nil || !removed {
			return err
		}
		return repository.NewPostRepository(tx).DecrementLikesCount(ctx, postID)
	})
	return removed, err
}

func (s *Storage) GetPostLikes(ctx context.Context, postID int64) ([]models.Like, error) {
	return repository.NewLikeRepository(s.db).GetByPost(ctx, postID)
}

func (s *Storage) GetPostComments(ctx context.Context, postID int64) ([]models.Comment, error) {
	return repository.NewCommentRepository(s.db).GetByPost(ctx, postID)
}

func (s *Storage) CreateComment(ctx context.Context, input models.CreateCommentInput) (*models.Comment, error) {
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		return nil, invalid("content is required")
	}

	var comment *models.Comment
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		comment, err = repository.NewCommentRepository(tx).Create(ctx, input)
		if err != nil {
			return err
		}
		return repository.NewPostRepository(tx).IncrementCommentsCount(ctx, input.PostID)
	})
	if err != nil {
		return nil, err
	}
	return comment, nil
}

// FollowUser returns nil without error when followerID already follows
// followingID. Both counters move in the same transaction as the row.
func (s *Storage) FollowUser(ctx context.Context, followerID, followingID string) (*models.Follow, error) {
	if followerID == followingID {
		return nil, ErrSelfFollow
	}

	var follow *models.Follow
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		follow, err = repository.NewFollowRepository(tx).Create(ctx, followerID, followingID)
		if err != nil || follow == nil {
			return err
		}
		return repository.NewUserRepository(tx).IncrementFollowCounts(ctx, followerID, followingID)
	})
	if err != nil {
		return nil, err
	}
	return follow, nil
}

func (s *Storage) UnfollowUser(ctx context.Context, followerID, followingID string) (bool, error) {
	if followerID == followingID {
		return false, ErrSelfFollow
	}

	var removed bool
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		removed, err = repository.NewFollowRepository(tx).Delete(ctx, followerID, followingID)
		if err != nil || !removed {
			return err
		}
		return repository.NewUserRepository(tx).DecrementFollowCounts(ctx, followerID, followingID)
	})
	return removed, err
}

func (s *Storage) GetUserFollowers(ctx context.Context, userID string) ([]models.Follow, error) {
	return repository.NewFollowRepository(s.db).GetFollowers(ctx, userID)
}

func (s *Storage) GetUserFollowing(ctx context.Context, userID string) ([]models.Follow, error) {
	return repository.NewFollowRepository(s.db).GetFollowing(ctx, userID)
}
