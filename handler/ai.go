package handler

import (
	"net/http"

	"afusocial/model"
)

func (h *Handler) Chat(w http.ResponseWriter, r *http.Request) {
	var req models.ChatRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	response, err := h.assistant.GenerateResponse(r.Context(), req.Message, req.ConversationHistory)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ChatResponse{Response: response})
}

func (h *Handler) ImprovePost(w http.ResponseWriter, r *http.Request) {
	var req models.ImprovePostRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	improved, err := h.assistant.ImprovePost(r.Context(), req.Content)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ImprovePostResponse{ImprovedContent: improved})
}

func (h *Handler) ContentSuggestions(w http.ResponseWriter, r *http.Request) {
	var req models.ContentSuggestionsRequest
	if err := decodeJSON(r, &req); err != nil {
		h.writeError(w, r, err)
		return
	}

	suggestions, err := h.assistant.GenerateContentSuggestions(r.Context(), req.Topic)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, models.ContentSuggestionsResponse{Suggestions: suggestions})
}
