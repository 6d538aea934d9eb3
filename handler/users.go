package handler

import (
	"net/http"

	"afusocial/middleware"
	"afusocial/model"
	"github.com/gorilla/mux"
)

func (h *Handler) GetCurrentUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), currentUser(r))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

// SyncUser upserts the caller's profile. Fields missing from the body are
// taken from the token claims when the token carries them.
func (h *Handler) SyncUser(w http.ResponseWriter, r *http.Request) {
	var input models.UpsertUser
	if err := decodeJSON(r, &input); err != nil {
		h.writeError(w, r, err)
		return
	}
	input.ID = currentUser(r)

	if claims := middleware.GetClaims(r.Context()); claims != nil {
		input.Email = fallback(input.Email, claims.Email)
		input.FirstName = fallback(input.FirstName, claims.FirstName)
		input.LastName = fallback(input.LastName, claims.LastName)
		input.ProfileImageURL = fallback(input.ProfileImageURL, claims.ProfileImageURL)
	}

	user, err := h.store.UpsertUser(r.Context(), input)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) GetUser(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUser(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) GetUserByUsername(w http.ResponseWriter, r *http.Request) {
	user, err := h.store.GetUserByUsername(r.Context(), mux.Vars(r)["username"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if user == nil {
		writeMessage(w, http.StatusNotFound, "User not found")
		return
	}
	writeJSON(w, http.StatusOK, user)
}

func (h *Handler) SearchUsers(w http.ResponseWriter, r *http.Request) {
	users, err := h.store.SearchUsers(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, users)
}

func (h *Handler) SearchPosts(w http.ResponseWriter, r *http.Request) {
	posts, err := h.store.SearchPosts(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, posts)
}

func fallback(value *string, claim string) *string {
	if value != nil || claim == "" {
		return value
	}
	return &claim
}
