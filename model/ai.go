package models

const (
	ChatRoleUser      = "user"
	ChatRoleAssistant = "assistant"
)

// ChatTurn is one prior exchange in an assistant conversation.
type ChatTurn struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

type ChatRequest struct {
	Message             string     `json:"message"`
	ConversationHistory []ChatTurn `json:"conversationHistory"`
}

type ChatResponse struct {
	Response string `json:"response"`
}

type ImprovePostRequest struct {
	Content string `json:"content"`
}

type ImprovePostResponse struct {
	ImprovedContent string `json:"improvedContent"`
}

type ContentSuggestionsRequest struct {
	Topic string `json:"topic"`
}

type ContentSuggestionsResponse struct {
	Suggestions []string `json:"suggestions"`
}
