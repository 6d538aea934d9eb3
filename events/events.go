package events

import (
	"time"
)

// Event subjects (topics)
const (
	SubjectPostCreated   = "post.created"
	SubjectPostLiked     = "post.liked"
	SubjectPostCommented = "post.commented"
	SubjectUserFollowed  = "user.followed"
	SubjectMessageSent   = "message.sent"
)

// Subjects lists every subject carried by the events stream.
var Subjects = []string{
	SubjectPostCreated,
	SubjectPostLiked,
	SubjectPostCommented,
	SubjectUserFollowed,
	SubjectMessageSent,
}

// PostCreatedEvent is published when a user creates a post
type PostCreatedEvent struct {
	PostID    int64     `json:"post_id"`
	AuthorID  string    `json:"author_id"`
	Content   string    `json:"content"`
	Timestamp time.Time `json:"timestamp"`
}

// PostLikedEvent is published when a like is recorded
type PostLikedEvent struct {
	PostID    int64     `json:"post_id"`
	PostOwner string    `json:"post_owner"`
	LikedBy   string    `json:"liked_by"`
	Timestamp time.Time `json:"timestamp"`
}

// PostCommentedEvent is published when a user comments on a post
type PostCommentedEvent struct {
	PostID      int64     `json:"post_id"`
	PostOwner   string    `json:"post_owner"`
	CommentID   int64     `json:"comment_id"`
	CommentedBy string    `json:"commented_by"`
	Timestamp   time.Time `json:"timestamp"`
}

type UserFollowedEvent struct {
	FollowerID  string    `json:"follower_id"`
	FollowingID string    `json:"following_id"`
	Timestamp   time.Time `json:"timestamp"`
}

// MessageSentEvent carries the stored message so it can be pushed to the
// other participants as is.
type MessageSentEvent struct {
	MessageID      int64     `json:"message_id"`
	ConversationID int64     `json:"conversation_id"`
	SenderID       string    `json:"sender_id"`
	Content        string    `json:"content"`
	MessageType    string    `json:"message_type"`
	Recipients     []string  `json:"recipients"`
	Timestamp      time.Time `json:"timestamp"`
}
