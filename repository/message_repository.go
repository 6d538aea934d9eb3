package repository

import (
	"context"
	"fmt"

	"afusocial/model"
	"github.com/jmoiron/sqlx"
)

type MessageRepository interface {
	Create(ctx context.Context, input models.CreateMessageInput) (*models.Message, error)
	GetByConversation(ctx context.Context, conversationID int64) ([]models.Message, error)
}

type messageRepository struct {
	db sqlx.ExtContext
}

func NewMessageRepository(db sqlx.ExtContext) MessageRepository {
	return &messageRepository{db: db}
}

func (r *messageRepository) Create(ctx context.Context, input models.CreateMessageInput) (*models.Message, error) {
	messageType := input.MessageType
	if messageType == "" {
		messageType = models.MessageTypeText
	}

	query := `
		INSERT INTO messages (conversation_id, sender_id, content, message_type)
		VALUES ($1, $2, $3, $4)
		RETURNING id, conversation_id, sender_id, content, message_type, created_at
	`

	var message models.Message
	err := sqlx.GetContext(ctx, r.db, &message, query,
		input.ConversationID,
		input.SenderID,
		input.Content,
		messageType,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create message: %w", err)
	}
	return &message, nil
}

func (r *messageRepository) GetByConversation(ctx context.Context, conversationID int64) ([]models.Message, error) {
	query := `
		SELECT id, conversation_id, sender_id, content, message_type, created_at
		FROM messages
		WHERE conversation_id = $1
		ORDER BY created_at DESC, id DESC
	`
	messages := []models.Message{}
	if err := sqlx.SelectContext(ctx, r.db, &messages, query, conversationID); err != nil {
		return nil, fmt.Errorf("failed to get conversation messages: %w", err)
	}
	return messages, nil
}
