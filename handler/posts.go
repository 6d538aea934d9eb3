package handler

import (
	"net/http"
	"time"

	"afusocial/events"
	"afusocial/model"
	"afusocial/storage"
	"github.com/gorilla/mux"
)

// GetPosts serves the global feed. A cursor parameter, even an empty one,
// switches to keyset paging.
func (h *Handler) GetPosts(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", storage.DefaultPageSize)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	query := r.URL.Query()
	if _, keyset := query["cursor"]; keyset {
		page, err := h.store.GetPostsPage(r.Context(), limit, query.Get("cursor"))
		if err != nil {
			h.writeError(w, r, err)
			return
		}
		writeJSON(w, http.StatusOK, page)
		return
	}

	offset, err := queryInt(r, "offset", 0)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	posts, err := h.store.GetPosts(r.Context(), limit, offset)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) GetPostsByUser(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.GetPostsByUser(r.Context(), mux.Vars(r)["userId"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func (h *Handler) CreatePost(w http.ResponseWriter, r *http.Request) {
	var input models.CreatePostInput
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}

	userID := currentUser(r)
	if input.AuthorID != "" && input.AuthorID != userID {
		h.writeError(w, r, ErrForbidden)
		return
	}
	input.AuthorID = userID

	post, err := h.store.CreatePost(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.RecordSocialAction("post")
	h.publisher.PublishPostCreated(events.PostCreatedEvent{
		PostID:    post.ID,
		AuthorID:  post.AuthorID,
		Content:   post.Content,
		Timestamp: eventTime(post.CreatedAt),
	})

	writeJSON(w, http.StatusCreated, post)
}

func (h *Handler) LikePost(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	userID := currentUser(r)
	like, err := h.store.LikePost(r.Context(), userID, post.ID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if like != nil {
		h.metrics.RecordSocialAction("like")
		h.publisher.PublishPostLiked(events.PostLikedEvent{
			PostID:    post.ID,
			PostOwner: post.AuthorID,
			LikedBy:   userID,
			Timestamp: eventTime(like.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, map[string]bool{"liked": true, "changed": like != nil})
}

func (h *Handler) UnlikePost(w http.ResponseWriter, r *http.Request) {
	postID, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	removed, err := h.store.UnlikePost(r.Context(), currentUser(r), postID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if removed {
		h.metrics.RecordSocialAction("unlike")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"liked": false, "changed": removed})
}

func (h *Handler) GetPostLikes(w http.ResponseWriter, r *http.Request) {
	postID, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	likes, err := h.store.GetPostLikes(r.Context(), postID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, likes)
}

func (h *Handler) GetComments(w http.ResponseWriter, r *http.Request) {
	postID, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	comments, err := h.store.GetPostComments(r.Context(), postID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, comments)
}

func (h *Handler) CreateComment(w http.ResponseWriter, r *http.Request) {
	post, ok := h.loadPost(w, r)
	if !ok {
		return
	}

	var body struct {
		Content string `json:"content"`
	}
	if err := decodeJSON(r, &body); err != nil {
		h.writeError(w, r, err)
		return
	}

	userID := currentUser(r)
	comment, err := h.store.CreateComment(r.Context(), models.CreateCommentInput{
		AuthorID: userID,
		PostID:   post.ID,
		Content:  body.Content,
	})
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	h.metrics.RecordSocialAction("comment")
	h.publisher.PublishPostCommented(events.PostCommentedEvent{
		PostID:      post.ID,
		PostOwner:   post.AuthorID,
		CommentID:   comment.ID,
		CommentedBy: userID,
		Timestamp:   eventTime(comment.CreatedAt),
	})

	writeJSON(w, http.StatusCreated, comment)
}

// loadPost resolves the {id} path variable to an existing post, writing the
// error response itself when it cannot.
func (h *Handler) loadPost(w http.ResponseWriter, r *http.Request) (*models.Post, bool) {
	postID, err := pathInt64(r, "id")
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}

	post, err := h.store.GetPost(r.Context(), postID)
	if err != nil {
		h.writeError(w, r, err)
		return nil, false
	}
	if post == nil {
		writeMessage(w, http.StatusNotFound, "Post not found")
		return nil, false
	}
	return post, true
}

func eventTime(t time.Time) time.Time {
	if t.IsZero() {
		return time.Now()
	}
	return t
}
