package models

import "time"

const MessageTypeText = "text"

type Conversation struct {
	ID             int64     `json:"id" db:"id"`
	Name           *string   `json:"name" db:"name"`
	IsGroup        bool      `json:"isGroup" db:"is_group"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt      time.Time `json:"updatedAt" db:"updated_at"`
	ParticipantIDs []string  `json:"participantIds" db:"-"`
}

type ConversationParticipant struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversationId" db:"conversation_id"`
	UserID         string    `json:"userId" db:"user_id"`
	JoinedAt       time.Time `json:"joinedAt" db:"joined_at"`
}

type Message struct {
	ID             int64     `json:"id" db:"id"`
	ConversationID int64     `json:"conversationId" db:"conversation_id"`
	SenderID       string    `json:"senderId" db:"sender_id"`
	Content        string    `json:"content" db:"content"`
	MessageType    string    `json:"messageType" db:"message_type"`
	CreatedAt      time.Time `json:"createdAt" db:"created_at"`
}

type CreateMessageInput struct {
	ConversationID int64  `json:"conversationId"`
	SenderID       string `json:"senderId"`
	Content        string `json:"content"`
	MessageType    string `json:"messageType,omitempty"`
}
