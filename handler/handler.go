// Package handler exposes the REST API over gorilla/mux.
package handler

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strconv"

	"afusocial/ai"
	"afusocial/logging"
	"afusocial/metrics"
	"afusocial/middleware"
	"afusocial/model"
	"afusocial/publisher"
	"afusocial/realtime"
	"afusocial/repository"
	"afusocial/storage"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
)

var ErrForbidden = errors.New("forbidden")

// Store is the storage surface the routes need; *storage.Storage implements it.
type Store interface {
	GetUser(ctx context.Context, id string) (*models.User, error)
	GetUserByUsername(ctx context.Context, username string) (*models.User, error)
	UpsertUser(ctx context.Context, user models.UpsertUser) (*models.User, error)
	SearchUsers(ctx context.Context, query string) ([]models.User, error)
	SearchPosts(ctx context.Context, query string) ([]models.Post, error)

	GetPost(ctx context.Context, postID int64) (*models.Post, error)
	GetPosts(ctx context.Context, limit, offset int) ([]models.Post, error)
	GetPostsPage(ctx context.Context, limit int, cursor string) (*models.PostPage, error)
	GetPostsByUser(ctx context.Context, userID string) ([]models.Post, error)
	CreatePost(ctx context.Context, input models.CreatePostInput) (*models.Post, error)

	LikePost(ctx context.Context, userID string, postID int64) (*models.Like, error)
	UnlikePost(ctx context.Context, userID string, postID int64) (bool, error)
	GetPostLikes(ctx context.Context, postID int64) ([]models.Like, error)
	GetPostComments(ctx context.Context, postID int64) ([]models.Comment, error)
	CreateComment(ctx context.Context, input models.CreateCommentInput) (*models.Comment, error)

	FollowUser(ctx context.Context, followerID, followingID string) (*models.Follow, error)
	UnfollowUser(ctx context.Context, followerID, followingID string) (bool, error)
	GetUserFollowers(ctx context.Context, userID string) ([]models.Follow, error)
	GetUserFollowing(ctx context.Context, userID string) ([]models.Follow, error)

	GetUserConversations(ctx context.Context, userID string) ([]models.Conversation, error)
	GetConversationParticipants(ctx context.Context, conversationID int64) ([]string, error)
	IsParticipant(ctx context.Context, conversationID int64, userID string) (bool, error)
	GetConversationMessages(ctx context.Context, conversationID int64) ([]models.Message, error)
	CreateMessage(ctx context.Context, input models.CreateMessageInput) (*models.Message, error)
	CreateConversation(ctx context.Context, participantIDs []string, name *string) (*models.Conversation, error)
}

// Assistant is the AI surface; *ai.Gateway implements it.
type Assistant interface {
	GenerateResponse(ctx context.Context, message string, history []models.ChatTurn) (string, error)
	GenerateContentSuggestions(ctx context.Context, topic string) ([]string, error)
	ImprovePost(ctx context.Context, content string) (string, error)
}

type Handler struct {
	store         Store
	assistant     Assistant
	notifications repository.NotificationRepository
	publisher     *publisher.EventPublisher
	hub           *realtime.Hub
	metrics       *metrics.Metrics
	logger        logrus.FieldLogger
}

type Options struct {
	Store         Store
	Assistant     Assistant
	Notifications repository.NotificationRepository
	Publisher     *publisher.EventPublisher
	Hub           *realtime.Hub
	Metrics       *metrics.Metrics
	Logger        logrus.FieldLogger
}

func New(opts Options) *Handler {
	return &Handler{
		store:         opts.Store,
		assistant:     opts.Assistant,
		notifications: opts.Notifications,
		publisher:     opts.Publisher,
		hub:           opts.Hub,
		metrics:       opts.Metrics,
		logger:        opts.Logger,
	}
}

// Routes registers every /api route on api, which must already be scoped to
// the /api prefix. aiLimit wraps the assistant routes; nil disables limiting.
func (h *Handler) Routes(api *mux.Router, aiLimit mux.MiddlewareFunc) {
	api.HandleFunc("/auth/user", h.GetCurrentUser).Methods(http.MethodGet)
	api.HandleFunc("/auth/sync", h.SyncUser).Methods(http.MethodPost)

	api.HandleFunc("/users/by-username/{username}", h.GetUserByUsername).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}", h.GetUser).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/follow", h.FollowUser).Methods(http.MethodPost)
	api.HandleFunc("/users/{id}/follow", h.UnfollowUser).Methods(http.MethodDelete)
	api.HandleFunc("/users/{id}/followers", h.GetFollowers).Methods(http.MethodGet)
	api.HandleFunc("/users/{id}/following", h.GetFollowing).Methods(http.MethodGet)

	api.HandleFunc("/posts", h.GetPosts).Methods(http.MethodGet)
	api.HandleFunc("/posts", h.CreatePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/user/{userId}", h.GetPostsByUser).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}/like", h.LikePost).Methods(http.MethodPost)
	api.HandleFunc("/posts/{id:[0-9]+}/like", h.UnlikePost).Methods(http.MethodDelete)
	api.HandleFunc("/posts/{id:[0-9]+}/likes", h.GetPostLikes).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}/comments", h.GetComments).Methods(http.MethodGet)
	api.HandleFunc("/posts/{id:[0-9]+}/comments", h.CreateComment).Methods(http.MethodPost)

	api.HandleFunc("/search/users", h.SearchUsers).Methods(http.MethodGet)
	api.HandleFunc("/search/posts", h.SearchPosts).Methods(http.MethodGet)

	api.HandleFunc("/conversations", h.GetConversations).Methods(http.MethodGet)
	api.HandleFunc("/conversations", h.CreateConversation).Methods(http.MethodPost)
	api.HandleFunc("/conversations/{id:[0-9]+}/messages", h.GetMessages).Methods(http.MethodGet)
	api.HandleFunc("/conversations/{id:[0-9]+}/messages", h.SendMessage).Methods(http.MethodPost)

	api.HandleFunc("/notifications", h.GetNotifications).Methods(http.MethodGet)
	api.HandleFunc("/notifications/read-all", h.MarkAllNotificationsRead).Methods(http.MethodPost)
	api.HandleFunc("/notifications/{id}/read", h.MarkNotificationRead).Methods(http.MethodPost)

	api.HandleFunc("/ws", h.ServeWebsocket).Methods(http.MethodGet)

	assistant := api.PathPrefix("/ai").Subrouter()
	if aiLimit != nil {
		assistant.Use(aiLimit)
	}
	assistant.HandleFunc("/chat", h.Chat).Methods(http.MethodPost)
	assistant.HandleFunc("/improve-post", h.ImprovePost).Methods(http.MethodPost)
	assistant.HandleFunc("/content-suggestions", h.ContentSuggestions).Methods(http.MethodPost)
}

func writeJSON(w http.ResponseWriter, status int, v interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeMessage(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"message": message})
}

// writeError maps domain errors onto status codes. Unexpected errors are
// logged and reported without detail.
func (h *Handler) writeError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, storage.ErrSelfFollow):
		writeMessage(w, http.StatusBadRequest, "You cannot follow yourself")
	case errors.Is(err, storage.ErrInvalidInput), errors.Is(err, ai.ErrInvalidInput),
		errors.Is(err, repository.ErrInvalidCursor):
		writeMessage(w, http.StatusBadRequest, err.Error())
	case errors.Is(err, storage.ErrNotFound), errors.Is(err, repository.ErrNotificationNotFound):
		writeMessage(w, http.StatusNotFound, "Not found")
	case errors.Is(err, ErrForbidden):
		writeMessage(w, http.StatusForbidden, "Forbidden")
	case errors.Is(err, storage.ErrConflict):
		writeMessage(w, http.StatusConflict, "Already exists")
	case errors.Is(err, ai.ErrUpstream), errors.Is(err, ai.ErrMalformedResponse):
		logging.FromContext(r.Context(), h.logger).WithError(err).Error("ai request failed")
		writeMessage(w, http.StatusBadGateway, "AI service is unavailable, please try again")
	default:
		logging.FromContext(r.Context(), h.logger).WithError(err).WithField("path", r.URL.Path).Error("request failed")
		writeMessage(w, http.StatusInternalServerError, "Internal server error")
	}
}

func decodeJSON(r *http.Request, v interface{}) error {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		return fmt.Errorf("%w: invalid request body", storage.ErrInvalidInput)
	}
	return nil
}

func pathInt64(r *http.Request, name string) (int64, error) {
	value, err := strconv.ParseInt(mux.Vars(r)[name], 10, 64)
	if err != nil || value <= 0 {
		return 0, fmt.Errorf("%w: invalid %s", storage.ErrInvalidInput, name)
	}
	return value, nil
}

func queryInt(r *http.Request, name string, fallback int) (int, error) {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback, nil
	}
	value, err := strconv.Atoi(raw)
	if err != nil || value < 0 {
		return 0, fmt.Errorf("%w: invalid %s", storage.ErrInvalidInput, name)
	}
	return value, nil
}

func currentUser(r *http.Request) string {
	return middleware.GetUserID(r.Context())
}
