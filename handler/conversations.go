package handler

import (
	"net/http"

	"afusocial/events"
	"afusocial/model"
	"afusocial/realtime"
)

func (h *Handler) GetConversations(w http.ResponseWriter, r *http.Request) {
	conversations, err := h.store.GetUserConversations(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, conversations)
}

// CreateConversation always includes the caller among the participants.
func (h *Handler) CreateConversation(w http.ResponseWriter, r *http.Request) {
	var body struct {
		ParticipantIDs []string `json:"participantIds"`
		Name           *string  `json:"name"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	participants := append([]string{currentUser(r)}, body.ParticipantIDs...)
	conversation, err := h.store.CreateConversation(r.Context(), participants, body.Name)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, conversation)
}

func (h *Handler) GetMessages(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.authorizeParticipant(w, r)
	if !ok {
		return
	}

	messages, err := h.store.GetConversationMessages(r.Context(), conversationID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, messages)
}

func (h *Handler) SendMessage(w http.ResponseWriter, r *http.Request) {
	conversationID, ok := h.authorizeParticipant(w, r)
	if !ok {
		return
	}

	var body struct {
		Content     string `json:"content"`
		MessageType string `json:"messageType"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	senderID := currentUser(r)
	message, err := h.store.CreateMessage(r.Context(), models.CreateMessageInput{
		ConversationID: conversationID,
		SenderID:       senderID,
		Content:        body.Content,
		MessageType:    body.MessageType,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.RecordMessage()

	participants, err := h.store.GetConversationParticipants(r.Context(), conversationID)
	if err != nil {
		h.logger.WithError(err).WithField("conversation_id", conversationID).Warn("failed to load recipients")
	}

	recipients := make([]string, 0, len(participants))
	for _, id := range participants {
		if id != senderID {
			recipients = append(recipients, id)
		}
	}

	// Without a broker the subscriber never sees the event, so connected
	// recipients are reached directly.
	if !h.publisher.Enabled() && h.hub != nil {
		for _, id := range recipients {
			h.hub.SendToUser(id, realtime.Frame{Type: realtime.FrameMessage, Payload: message})
		}
	}

	h.publisher.PublishMessageSent(events.MessageSentEvent{
		MessageID:      message.ID,
		ConversationID: message.ConversationID,
		SenderID:       message.SenderID,
		Content:        message.Content,
		MessageType:    message.MessageType,
		Recipients:     recipients,
		Timestamp:      eventTime(message.CreatedAt),
	})

	writeJSON(w, http.StatusCreated, message)
}

func (h *Handler) authorizeParticipant(w http.ResponseWriter, r *http.Request) (int64, bool) {
	conversationID, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return 0, false
	}

	member, err := h.store.IsParticipant(r.Context(), conversationID, currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return 0, false
	}
	if !member {
		h.writeError(w, r, ErrForbidden)
		return 0, false
	}
	return conversationID, true
}
