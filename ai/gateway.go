// Package ai wraps the chat completion API behind the three assistant
// operations the app exposes.
package ai

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"afusocial/metrics"
	"afusocial/model"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus"
)

var (
	ErrInvalidInput      = errors.New("invalid ai request")
	ErrUpstream          = errors.New("ai provider request failed")
	ErrMalformedResponse = errors.New("ai provider returned malformed response")
)

const (
	DefaultModel   = "gpt-4o"
	DefaultTimeout = 30 * time.Second

	fallbackResponse = "I apologize, but I couldn't generate a response. Please try again."

	chatPrompt = "You are AfuAI, an intelligent assistant integrated into AfuChat, a social media platform. " +
		"You help users with content creation, analysis, coding, creative brainstorming, and various tasks. " +
		"Be helpful, friendly, and concise in your responses. " +
		"Keep responses engaging and relevant to social media and content creation when appropriate."

	suggestionsPrompt = "You are a social media content assistant. Generate 5 engaging post ideas for the given topic. " +
		"Return them as a JSON array of strings. Each suggestion should be a complete post idea, not just a title."

	improvePrompt = "You are a social media writing assistant. " +
		"Improve the given post to make it more engaging, clear, and shareable while maintaining the original message and tone. " +
		"Keep it concise and within social media character limits."
)

type Config struct {
	APIKey  string
	BaseURL string
	Model   string
	Timeout time.Duration
}

type Gateway struct {
	client  *openai.Client
	model   string
	timeout time.Duration
	metrics *metrics.Metrics
	logger  logrus.FieldLogger
}

func NewGateway(cfg Config, m *metrics.Metrics, logger logrus.FieldLogger) *Gateway {
	if cfg.Model == "" {
		cfg.Model = DefaultModel
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	clientCfg := openai.DefaultConfig(cfg.APIKey)
	if cfg.BaseURL != "" {
		clientCfg.BaseURL = cfg.BaseURL
	}
	clientCfg.HTTPClient = &http.Client{Timeout: cfg.Timeout}

	return &Gateway{
		client:  openai.NewClientWithConfig(clientCfg),
		model:   cfg.Model,
		timeout: cfg.Timeout,
		metrics: m,
		logger:  logger,
	}
}

// GenerateResponse answers message in the context of the prior turns.
func (g *Gateway) GenerateResponse(ctx context.Context, message string, history []models.ChatTurn) (string, error) {
	if strings.TrimSpace(message) == "" {
		return "", fmt.Errorf("%w: message is required", ErrInvalidInput)
	}

	messages := make([]openai.ChatCompletionMessage, 0, len(history)+2)
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleSystem, Content: chatPrompt})
	for _, turn := range history {
		if turn.Role != models.ChatRoleUser && turn.Role != models.ChatRoleAssistant {
			return "", fmt.Errorf("%w: unsupported role %q", ErrInvalidInput, turn.Role)
		}
		messages = append(messages, openai.ChatCompletionMessage{Role: turn.Role, Content: turn.Content})
	}
	messages = append(messages, openai.ChatCompletionMessage{Role: openai.ChatMessageRoleUser, Content: message})

	content, err := g.complete(ctx, "chat", openai.ChatCompletionRequest{
		Model:       g.model,
		Messages:    messages,
		MaxTokens:   500,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if content == "" {
		return fallbackResponse, nil
	}
	return content, nil
}

// GenerateContentSuggestions returns post ideas for topic.
func (g *Gateway) GenerateContentSuggestions(ctx context.Context, topic string) ([]string, error) {
	if strings.TrimSpace(topic) == "" {
		return nil, fmt.Errorf("%w: topic is required", ErrInvalidInput)
	}

	content, err := g.complete(ctx, "content_suggestions", openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: suggestionsPrompt},
			{Role: openai.ChatMessageRoleUser, Content: "Generate 5 social media post ideas about: " + topic},
		},
		ResponseFormat: &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		},
		MaxTokens: 400,
	})
	if err != nil {
		return nil, err
	}

	return parseSuggestions(content)
}

// ImprovePost rewrites content. An empty completion yields content unchanged.
func (g *Gateway) ImprovePost(ctx context.Context, content string) (string, error) {
	if strings.TrimSpace(content) == "" {
		return "", fmt.Errorf("%w: content is required", ErrInvalidInput)
	}

	improved, err := g.complete(ctx, "improve_post", openai.ChatCompletionRequest{
		Model: g.model,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: improvePrompt},
			{Role: openai.ChatMessageRoleUser, Content: fmt.Sprintf("Improve this social media post: \"%s\"", content)},
		},
		MaxTokens:   200,
		Temperature: 0.7,
	})
	if err != nil {
		return "", err
	}
	if improved == "" {
		return content, nil
	}
	return improved, nil
}

func (g *Gateway) complete(ctx context.Context, operation string, req openai.ChatCompletionRequest) (string, error) {
	ctx, cancel := context.WithTimeout(ctx, g.timeout)
	defer cancel()

	start := time.Now()
	resp, err := g.client.CreateChatCompletion(ctx, req)
	g.metrics.RecordAIRequest(operation, err, time.Since(start))
	if err != nil {
		g.logger.WithError(err).WithField("operation", operation).Error("ai completion failed")
		return "", fmt.Errorf("%w: %v", ErrUpstream, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil
	}
	return resp.Choices[0].Message.Content, nil
}

func parseSuggestions(content string) ([]string, error) {
	if content == "" {
		return []string{}, nil
	}

	var result struct {
		Suggestions []string `json:"suggestions"`
	}
	if err := json.Unmarshal([]byte(content), &result); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedResponse, err)
	}
	if result.Suggestions == nil {
		return []string{}, nil
	}
	return result.Suggestions, nil
}
