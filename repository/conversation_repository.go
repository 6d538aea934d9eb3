package repository

import (
	"context"
	"fmt"

	"afusocial/model"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
)

const conversationColumns = `id, name, is_group, created_at, updated_at`

type ConversationRepository interface {
	Create(ctx context.Context, name *string, isGroup bool) (*models.Conversation, error)
	AddParticipants(ctx context.Context, conversationID int64, userIDs []string) error
	GetByUser(ctx context.Context, userID string) ([]models.Conversation, error)
	ParticipantIDs(ctx context.Context, conversationIDs []int64) (map[int64][]string, error)
	IsParticipant(ctx context.Context, conversationID int64, userID string) (bool, error)
	Touch(ctx context.Context, conversationID int64) error
}

type conversationRepository struct {
	db sqlx.ExtContext
}

func NewConversationRepository(db sqlx.ExtContext) ConversationRepository {
	return &conversationRepository{db: db}
}

func (r *conversationRepository) Create(ctx context.Context, name *string, isGroup bool) (*models.Conversation, error) {
	query := `
		INSERT INTO conversations (name, is_group)
		VALUES ($1, $2)
		RETURNING ` + conversationColumns

	var conversation models.Conversation
	if err := sqlx.GetContext(ctx, r.db, &conversation, query, name, isGroup); err != nil {
		return nil, fmt.Errorf("failed to create conversation: %w", err)
	}
	return &conversation, nil
}

func (r *conversationRepository) AddParticipants(ctx context.Context, conversationID int64, userIDs []string) error {
	query := `
		INSERT INTO conversation_participants (conversation_id, user_id)
		SELECT $1, unnest($2::varchar[])
		ON CONFLICT (conversation_id, user_id) DO NOTHING
	`
	if _, err := r.db.ExecContext(ctx, query, conversationID, pq.Array(userIDs)); err != nil {
		return fmt.Errorf("failed to add participants: %w", err)
	}
	return nil
}

// GetByUser lists the user's conversations, most recently active first.
func (r *conversationRepository) GetByUser(ctx context.Context, userID string) ([]models.Conversation, error) {
	query := `
		SELECT c.id, c.name, c.is_group, c.created_at, c.updated_at
		FROM conversations c
		INNER JOIN conversation_participants cp ON cp.conversation_id = c.id
		WHERE cp.user_id = $1
		ORDER BY c.updated_at DESC, c.id DESC
	`
	conversations := []models.Conversation{}
	if err := sqlx.SelectContext(ctx, r.db, &conversations, query, userID); err != nil {
		return nil, fmt.Errorf("failed to get user conversations: %w", err)
	}
	return conversations, nil
}

func (r *conversationRepository) ParticipantIDs(ctx context.Context, conversationIDs []int64) (map[int64][]string, error) {
	result := make(map[int64][]string, len(conversationIDs))
	if len(conversationIDs) == 0 {
		return result, nil
	}

	query := `
		SELECT id, conversation_id, user_id, joined_at
		FROM conversation_participants
		WHERE conversation_id = ANY($1)
		ORDER BY joined_at ASC, id ASC
	`
	var participants []models.ConversationParticipant
	if err := sqlx.SelectContext(ctx, r.db, &participants, query, pq.Array(conversationIDs)); err != nil {
		return nil, fmt.Errorf("failed to get participants: %w", err)
	}

	for _, p := range participants {
		result[p.ConversationID] = append(result[p.ConversationID], p.UserID)
	}
	return result, nil
}

func (r *conversationRepository) IsParticipant(ctx context.Context, conversationID int64, userID string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM conversation_participants WHERE conversation_id = $1 AND user_id = $2)`

	var exists bool
	if err := sqlx.GetContext(ctx, r.db, &exists, query, conversationID, userID); err != nil {
		return false, fmt.Errorf("failed to check participant: %w", err)
	}
	return exists, nil
}

// Touch bumps updated_at so the conversation sorts as recently active.
func (r *conversationRepository) Touch(ctx context.Context, conversationID int64) error {
	query := `UPDATE conversations SET updated_at = NOW() WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, conversationID); err != nil {
		return fmt.Errorf("failed to touch conversation: %w", err)
	}
	return nil
}
