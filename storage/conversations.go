package storage

import (
	"context"
	"strings"

	"afusocial/model"
	"afusocial/repository"
	"github.com/jmoiron/sqlx"
)

func (s *Storage) GetUserConversations(ctx context.Context, userID string) ([]models.Conversation, error) {
	conversations := repository.NewConversationRepository(s.db)

	list, err := conversations.GetByUser(ctx, userID)
	if err != nil || len(list) == 0 {
		return list, err
	}

	ids := make([]int64, len(list))
	for i, c := range list {
		ids[i] = c.ID
	}

	participants, err := conversations.ParticipantIDs(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range list {
		list[i].ParticipantIDs = participants[list[i].ID]
	}
	return list, nil
}

func (s *Storage) GetConversationParticipants(ctx context.Context, conversationID int64) ([]string, error) {
	participants, err := repository.NewConversationRepository(s.db).ParticipantIDs(ctx, []int64{conversationID})
	if err != nil {
		return nil, err
	}
	return participants[conversationID], nil
}

func (s *Storage) IsParticipant(ctx context.Context, conversationID int64, userID string) (bool, error) {
	return repository.NewConversationRepository(s.db).IsParticipant(ctx, conversationID, userID)
}

func (s *Storage) GetConversationMessages(ctx context.Context, conversationID int64) ([]models.Message, error) {
	return repository.NewMessageRepository(s.db).GetByConversation(ctx, conversationID)
}

// CreateMessage stores the message and marks the conversation active.
func (s *Storage) CreateMessage(ctx context.Context, input models.CreateMessageInput) (*models.Message, error) {
	input.Content = strings.TrimSpace(input.Content)
	if input.Content == "" {
		return nil, invalid("content is required")
	}
	if len(input.MessageType) > 20 {
		return nil, invalid("message type is too long")
	}

	var message *models.Message
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		var err error
		message, err = repository.NewMessageRepository(tx).Create(ctx, input)
		if err != nil {
			return err
		}
		return repository.NewConversationRepository(tx).Touch(ctx, input.ConversationID)
	})
	if err != nil {
		return nil, err
	}
	return message, nil
}

// CreateConversation creates a conversation between the distinct
// participants. It is a group when more than two users take part; the flag
// is never re-derived.
func (s *Storage) CreateConversation(ctx context.Context, participantIDs []string, name *string) (*models.Conversation, error) {
	ids := uniqueIDs(participantIDs)
	if len(ids) < 2 {
		return nil, invalid("a conversation needs at least two participants")
	}
	if name != nil && strings.TrimSpace(*name) == "" {
		name = nil
	}

	var conversation *models.Conversation
	err := s.inTx(ctx, func(tx *sqlx.Tx) error {
		conversations := repository.NewConversationRepository(tx)

		var err error
		conversation, err = conversations.Create(ctx, name, len(ids) > 2)
		if err != nil {
			return err
		}
		return conversations.AddParticipants(ctx, conversation.ID, ids)
	})
	if err != nil {
		return nil, err
	}

	conversation.ParticipantIDs = ids
	return conversation, nil
}

func uniqueIDs(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	result := make([]string, 0, len(ids))
	for _, id := range ids {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		result = append(result, id)
	}
	return result
}
