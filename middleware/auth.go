package middleware

import (
	"encoding/json"
	"net/http"
	"strings"

	"afusocial/logging"
	"afusocial/pkg/jwt"
	"github.com/sirupsen/logrus"
)

// AuthMiddleware verifies bearer tokens and stores the claims in the
// request context.
type AuthMiddleware struct {
	manager   *jwt.Manager
	skipPaths map[string]bool
	logger    logrus.FieldLogger
}

func NewAuthMiddleware(manager *jwt.Manager, logger logrus.FieldLogger, skipPaths []string) *AuthMiddleware {
	paths := make(map[string]bool, len(skipPaths))
	for _, path := range skipPaths {
		paths[path] = true
	}
	return &AuthMiddleware{
		manager:   manager,
		skipPaths: paths,
		logger:    logger,
	}
}

func (m *AuthMiddleware) Handler(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodOptions || m.skipPaths[r.URL.Path] {
			next.ServeHTTP(w, r)
			return
		}

		token := bearerToken(r)
		if token == "" {
			unauthorized(w)
			return
		}

		claims, err := m.manager.Verify(token)
		if err != nil {
			logging.FromContext(r.Context(), m.logger).
				WithError(err).
				WithField("path", r.URL.Path).
				Debug("rejected token")
			unauthorized(w)
			return
		}

		next.ServeHTTP(w, r.WithContext(WithClaims(r.Context(), claims)))
	})
}

// bearerToken reads the Authorization header, falling back to the token
// query parameter used by websocket clients.
func bearerToken(r *http.Request) string {
	if header := r.Header.Get("Authorization"); header != "" {
		if !strings.HasPrefix(header, "Bearer ") {
			return ""
		}
		return strings.TrimSpace(strings.TrimPrefix(header, "Bearer "))
	}
	return r.URL.Query().Get("token")
}

func unauthorized(w http.ResponseWriter) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusUnauthorized)
	_ = json.NewEncoder(w).Encode(map[string]string{"message": "Unauthorized"})
}
