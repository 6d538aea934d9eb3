package models

import "time"

type Post struct {
	ID            int64     `json:"id" db:"id"`
	AuthorID      string    `json:"authorId" db:"author_id"`
	Content       string    `json:"content" db:"content"`
	ImageURL      *string   `json:"imageUrl" db:"image_url"`
	LikesCount    int       `json:"likesCount" db:"likes_count"`
	CommentsCount int       `json:"commentsCount" db:"comments_count"`
	CreatedAt     time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt     time.Time `json:"updatedAt" db:"updated_at"`
}

type CreatePostInput struct {
	AuthorID string  `json:"authorId"`
	Content  string  `json:"content"`
	ImageURL *string `json:"imageUrl,omitempty"`
}

// PostPage is one keyset page of the global feed.
type PostPage struct {
	Posts      []Post `json:"posts"`
	NextCursor string `json:"nextCursor,omitempty"`
	HasMore    bool   `json:"hasMore"`
}

type Like struct {
	ID        int64     `json:"id" db:"id"`
	UserID    string    `json:"userId" db:"user_id"`
	PostID    int64     `json:"postId" db:"post_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type Comment struct {
	ID        int64     `json:"id" db:"id"`
	AuthorID  string    `json:"authorId" db:"author_id"`
	PostID    int64     `json:"postId" db:"post_id"`
	Content   string    `json:"content" db:"content"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
}

type CreateCommentInput struct {
	AuthorID string `json:"authorId"`
	PostID   int64  `json:"postId"`
	Content  string `json:"content"`
}

type Follow struct {
	ID          int64     `json:"id" db:"id"`
	FollowerID  string    `json:"followerId" db:"follower_id"`
	FollowingID string    `json:"followingId" db:"following_id"`
	CreatedAt   time.Time `json:"createdAt" db:"created_at"`
}
