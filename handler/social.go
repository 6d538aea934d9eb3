package handler

import (
	"net/http"

	"afusocial/events"
	"github.com/gorilla/mux"
)

func (h *Handler) FollowUser(w http.ResponseWriter, r *http.Request) {
	followerID := currentUser(r)
	followingID := mux.Vars(r)["id"]

	follow, err := h.store.FollowUser(r.Context(), followerID, followingID)
	if err != nil {
		h.writeError(w, r, err)
		return
	}

	if follow != nil {
		h.metrics.RecordSocialAction("follow")
		h.publisher.PublishUserFollowed(events.UserFollowedEvent{
			FollowerID:  followerID,
			FollowingID: followingID,
			Timestamp:   eventTime(follow.CreatedAt),
		})
	}

	writeJSON(w, http.StatusOK, map[string]bool{"following": true, "changed": follow != nil})
}

func (h *Handler) UnfollowUser(w http.ResponseWriter, r *http.Request) {
	removed, err := h.store.UnfollowUser(r.Context(), currentUser(r), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if removed {
		h.metrics.RecordSocialAction("unfollow")
	}

	writeJSON(w, http.StatusOK, map[string]bool{"following": false, "changed": removed})
}

func (h *Handler) GetFollowers(w http.ResponseWriter, r *http.Request) {
	followers, err := h.store.GetUserFollowers(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, followers)
}

func (h *Handler) GetFollowing(w http.ResponseWriter, r *http.Request) {
	following, err := h.store.GetUserFollowing(r.Context(), mux.Vars(r)["id"])
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, following)
}
