package models

import (
	"time"

	"github.com/google/uuid"
)

type NotificationType string

const (
	NotificationTypeLike    NotificationType = "LIKE"
	NotificationTypeComment NotificationType = "COMMENT"
	NotificationTypeFollow  NotificationType = "FOLLOW"
	NotificationTypeMessage NotificationType = "MESSAGE"
)

type Notification struct {
	ID        uuid.UUID        `json:"id" db:"id"`
	UserID    string           `json:"userId" db:"user_id"`
	Type      NotificationType `json:"type" db:"type"`
	Message   string           `json:"message" db:"message"`
	ActorID   *string          `json:"actorId,omitempty" db:"actor_id"`
	RelatedID *int64           `json:"relatedId,omitempty" db:"related_id"`
	IsRead    bool             `json:"isRead" db:"is_read"`
	CreatedAt time.Time        `json:"createdAt" db:"created_at"`
}

type NotificationEdge struct {
	Cursor string       `json:"cursor"`
	Node   Notification `json:"node"`
}

type PageInfo struct {
	EndCursor       *string `json:"endCursor,omitempty"`
	HasNextPage     bool    `json:"hasNextPage"`
	StartCursor     *string `json:"startCursor,omitempty"`
	HasPreviousPage bool    `json:"hasPreviousPage"`
}

type NotificationConnection struct {
	Edges       []NotificationEdge `json:"edges"`
	PageInfo    PageInfo           `json:"pageInfo"`
	TotalCount  int32              `json:"totalCount"`
	UnreadCount int32              `json:"unreadCount"`
}
