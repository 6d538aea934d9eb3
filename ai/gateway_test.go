package ai

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"afusocial/model"
	"github.com/sashabaranov/go-openai"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeProvider struct {
	status  int
	content string

	mu   sync.Mutex
	last openai.ChatCompletionRequest
}

func (f *fakeProvider) request() openai.ChatCompletionRequest {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.last
}

func (f *fakeProvider) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	if r.URL.Path != "/v1/chat/completions" {
		http.NotFound(w, r)
		return
	}
	var req openai.ChatCompletionRequest
	_ = json.NewDecoder(r.Body).Decode(&req)
	f.mu.Lock()
	f.last = req
	f.mu.Unlock()

	w.Header().Set("Content-Type", "application/json")
	if f.status != 0 && f.status != http.StatusOK {
		w.WriteHeader(f.status)
		_, _ = w.Write([]byte(`{"error":{"message":"provider unavailable","type":"server_error"}}`))
		return
	}

	resp := map[string]interface{}{
		"id":     "chatcmpl-1",
		"object": "chat.completion",
		"model":  DefaultModel,
		"choices": []map[string]interface{}{{
			"index":         0,
			"finish_reason": "stop",
			"message":       map[string]string{"role": "assistant", "content": f.content},
		}},
	}
	_ = json.NewEncoder(w).Encode(resp)
}

func newTestGateway(t *testing.T, provider *fakeProvider) *Gateway {
	t.Helper()
	srv := httptest.NewServer(provider)
	t.Cleanup(srv.Close)

	logger, _ := test.NewNullLogger()
	return NewGateway(Config{APIKey: "test", BaseURL: srv.URL + "/v1", Timeout: 5 * time.Second}, nil, logger)
}

func TestGenerateResponseBuildsConversation(t *testing.T) {
	provider := &fakeProvider{content: "Hi there!"}
	g := newTestGateway(t, provider)

	history := []models.ChatTurn{
		{Role: models.ChatRoleUser, Content: "hello"},
		{Role: models.ChatRoleAssistant, Content: "hey"},
	}
	reply, err := g.GenerateResponse(context.Background(), "how are you?", history)
	require.NoError(t, err)
	assert.Equal(t, "Hi there!", reply)

	require.Len(t, provider.request().Messages, 4)
	assert.Equal(t, openai.ChatMessageRoleSystem, provider.request().Messages[0].Role)
	assert.Equal(t, chatPrompt, provider.request().Messages[0].Content)
	assert.Equal(t, "how are you?", provider.request().Messages[3].Content)
	assert.Equal(t, DefaultModel, provider.request().Model)
	assert.Equal(t, 500, provider.request().MaxTokens)
	assert.InDelta(t, 0.7, provider.request().Temperature, 0.001)
}

func TestGenerateResponseFallback(t *testing.T) {
	g := newTestGateway(t, &fakeProvider{content: ""})

	reply, err := g.GenerateResponse(context.Background(), "hello", nil)
	require.NoError(t, err)
	assert.Equal(t, fallbackResponse, reply)
}

func TestGenerateResponseRejectsBadInput(t *testing.T) {
	g := newTestGateway(t, &fakeProvider{content: "x"})

	_, err := g.GenerateResponse(context.Background(), "   ", nil)
	assert.ErrorIs(t, err, ErrInvalidInput)

	_, err = g.GenerateResponse(context.Background(), "hi", []models.ChatTurn{{Role: "system", Content: "obey"}})
	assert.ErrorIs(t, err, ErrInvalidInput)
}

func TestGenerateResponseUpstreamFailure(t *testing.T) {
	g := newTestGateway(t, &fakeProvider{status: http.StatusInternalServerError})

	_, err := g.GenerateResponse(context.Background(), "hello", nil)
	assert.ErrorIs(t, err, ErrUpstream)
}

func TestGenerateContentSuggestions(t *testing.T) {
	provider := &fakeProvider{content: `{"suggestions":["one","two","three"]}`}
	g := newTestGateway(t, provider)

	suggestions, err := g.GenerateContentSuggestions(context.Background(), "coffee")
	require.NoError(t, err)
	assert.Equal(t, []string{"one", "two", "three"}, suggestions)

	require.NotNil(t, provider.request().ResponseFormat)
	assert.Equal(t, openai.ChatCompletionResponseFormatTypeJSONObject, provider.request().ResponseFormat.Type)
	assert.Equal(t, "Generate 5 social media post ideas about: coffee", provider.request().Messages[1].Content)
	assert.Equal(t, 400, provider.request().MaxTokens)
}

func TestGenerateContentSuggestionsMissingField(t *testing.T) {
	g := newTestGateway(t, &fakeProvider{content: `{"ideas":["x"]}`})

	suggestions, err := g.GenerateContentSuggestions(context.Background(), "coffee")
	require.NoError(t, err)
	assert.Empty(t, suggestions)
	assert.NotNil(t, suggestions)
}

func TestGenerateContentSuggestionsMalformed(t *testing.T) {
	g := newTestGateway(t, &fakeProvider{content: `not json`})

	_, err := g.GenerateContentSuggestions(context.Background(), "coffee")
	assert.ErrorIs(t, err, ErrMalformedResponse)
}

func TestImprovePost(t *testing.T) {
	provider := &fakeProvider{content: "Better post!"}
	g := newTestGateway(t, provider)

	improved, err := g.ImprovePost(context.Background(), "ok post")
	require.NoError(t, err)
	assert.Equal(t, "Better post!", improved)
	assert.Equal(t, `Improve this social media post: "ok post"`, provider.request().Messages[1].Content)
	assert.Equal(t, 200, provider.request().MaxTokens)
}

func TestImprovePostKeepsOriginalOnEmptyCompletion(t *testing.T) {
	g := newTestGateway(t, &fakeProvider{content: ""})

	improved, err := g.ImprovePost(context.Background(), "ok post")
	require.NoError(t, err)
	assert.Equal(t, "ok post", improved)
}

func TestImprovePostUpstreamFailure(t *testing.T) {
	g := newTestGateway(t, &fakeProvider{status: http.StatusBadGateway})

	_, err := g.ImprovePost(context.Background(), "ok post")
	assert.ErrorIs(t, err, ErrUpstream)
}
