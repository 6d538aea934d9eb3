package handler

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

const defaultNotificationPage = 20

func (h *Handler) GetNotifications(w http.ResponseWriter, r *http.Request) {
	limit, err := queryInt(r, "limit", defaultNotificationPage)
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	if limit == 0 || limit > 100 {
		limit = defaultNotificationPage
	}

	connection, err := h.notifications.GetByUserID(r.Context(), currentUser(r), limit, r.URL.Query().Get("cursor"))
	if err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, connection)
}

func (h *Handler) MarkNotificationRead(w http.ResponseWriter, r *http.Request) {
	id, err := uuid.Parse(mux.Vars(r)["id"])
	if err != nil {
		writeMessage(w, http.StatusBadRequest, "invalid notification id")
		return
	}

	if err := h.notifications.MarkAsRead(r.Context(), id, currentUser(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}

func (h *Handler) MarkAllNotificationsRead(w http.ResponseWriter, r *http.Request) {
	if err := h.notifications.MarkAllAsRead(r.Context(), currentUser(r)); err != nil {
		h.writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, map[string]bool{"success": true})
}
