package handler

import (
	"net/http"

	"afusocial/healthcheck"
	"afusocial/logging"
)

// ServeWebsocket upgrades an authenticated request. Browsers cannot set
// headers on websocket requests, so the auth middleware also accepts ?token=.
func (h *Handler) ServeWebsocket(w http.ResponseWriter, r *http.Request) {
	if h.hub == nil {
		writeMessage(w, http.StatusServiceUnavailable, "Realtime updates are unavailable")
		return
	}

	if err := h.hub.ServeWS(w, r, currentUser(r)); err != nil {
		// the upgrader has already written the response
		logging.FromContext(r.Context(), h.logger).WithError(err).Warn("websocket upgrade failed")
	}
}

// HealthHandler reports dependency status; 503 when any dependency fails.
func HealthHandler(checker *healthcheck.Checker) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		report := checker.Check(r.Context())
		status := http.StatusOK
		if !report.Healthy() {
			status = http.StatusServiceUnavailable
		}
		writeJSON(w, status, report)
	}
}
