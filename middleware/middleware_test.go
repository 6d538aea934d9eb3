package middleware

import (
	"bytes"
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"afusocial/metrics"
	"afusocial/pkg/jwt"
	"github.com/gorilla/mux"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func echoUser() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(GetUserID(r.Context())))
	})
}

func TestAuthMiddleware(t *testing.T) {
	manager := jwt.NewManager("secret", "test")
	logger, _ := test.NewNullLogger()
	auth := NewAuthMiddleware(manager, logger, []string{"/api/health"})
	handler := auth.Handler(echoUser())

	token, err := manager.Generate(jwt.Claims{UserID: "u1"}, time.Hour)
	require.NoError(t, err)

	tests := []struct {
		name   string
		path   string
		header string
		status int
		body   string
	}{
		{name: "valid bearer", path: "/api/posts", header: "Bearer " + token, status: http.StatusOK, body: "u1"},
		{name: "missing", path: "/api/posts", status: http.StatusUnauthorized},
		{name: "wrong scheme", path: "/api/posts", header: "Basic " + token, status: http.StatusUnauthorized},
		{name: "garbage", path: "/api/posts", header: "Bearer nope", status: http.StatusUnauthorized},
		{name: "query token", path: "/api/ws?token=" + token, status: http.StatusOK, body: "u1"},
		{name: "skip path", path: "/api/health", status: http.StatusOK},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, tt.path, nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()

			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.status, rec.Code)
			if tt.status == http.StatusUnauthorized {
				assert.JSONEq(t, `{"message":"Unauthorized"}`, rec.Body.String())
			} else {
				assert.Equal(t, tt.body, rec.Body.String())
			}
		})
	}
}

func TestLoggingMiddlewareSetsTraceID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusCreated)
	}))

	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/api/posts", nil))

	assert.Equal(t, http.StatusCreated, rec.Code)
	traceID := rec.Header().Get("X-Trace-ID")
	assert.NotEmpty(t, traceID)

	require.Len(t, hook.Entries, 1)
	entry := hook.LastEntry()
	assert.Equal(t, logrus.InfoLevel, entry.Level)
	assert.Equal(t, traceID, entry.Data["trace_id"])
	assert.Equal(t, http.StatusCreated, entry.Data["status"])
}

func TestLoggingMiddlewareKeepsIncomingTraceID(t *testing.T) {
	logger, hook := test.NewNullLogger()
	handler := LoggingMiddleware(logger)(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))

	req := httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("X-Trace-ID", "trace-123")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, "trace-123", rec.Header().Get("X-Trace-ID"))
	assert.Equal(t, logrus.ErrorLevel, hook.LastEntry().Level)
}

func TestMetricsMiddlewareUsesRouteTemplate(t *testing.T) {
	m := metrics.New()
	router := mux.NewRouter()
	router.Use(MetricsMiddleware(m))
	router.HandleFunc("/api/posts/{id}/like", func(w http.ResponseWriter, r *http.Request) {}).Methods(http.MethodPost)

	router.ServeHTTP(httptest.NewRecorder(), httptest.NewRequest(http.MethodPost, "/api/posts/7/like", nil))

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	assert.Contains(t, rec.Body.String(), `path="/api/posts/{id}/like"`)
}

func TestCORSMiddleware(t *testing.T) {
	cors := NewCORSMiddleware([]string{"https://afuchat.com"})
	handler := cors.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	req := httptest.NewRequest(http.MethodOptions, "/api/posts", nil)
	req.Header.Set("Origin", "https://afuchat.com")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://afuchat.com", rec.Header().Get("Access-Control-Allow-Origin"))

	req = httptest.NewRequest(http.MethodGet, "/api/posts", nil)
	req.Header.Set("Origin", "https://evil.example")
	rec = httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Empty(t, rec.Header().Get("Access-Control-Allow-Origin"))
}

func TestRateLimiter(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rl := NewRateLimiter(1, 2, logger)
	handler := rl.Handler(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))

	do := func(userID string) int {
		req := httptest.NewRequest(http.MethodPost, "/api/ai/chat", bytes.NewBufferString("{}"))
		req = req.WithContext(WithUserID(req.Context(), userID))
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		return rec.Code
	}

	assert.Equal(t, http.StatusOK, do("u1"))
	assert.Equal(t, http.StatusOK, do("u1"))
	assert.Equal(t, http.StatusTooManyRequests, do("u1"))
	assert.Equal(t, http.StatusOK, do("u2"))
	assert.Equal(t, 2, rl.size())
}

func TestRateLimiterCleanup(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rl := NewRateLimiter(1, 1, logger)
	rl.idleTTL = time.Millisecond

	rl.getLimiter("u1")
	time.Sleep(5 * time.Millisecond)
	rl.Cleanup()

	assert.Equal(t, 0, rl.size())
}

func TestRateLimiterStartCleanupRunsInBackground(t *testing.T) {
	logger, _ := test.NewNullLogger()
	rl := NewRateLimiter(1, 1, logger)
	rl.idleTTL = time.Millisecond

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	rl.getLimiter("u1")
	rl.StartCleanup(ctx, 2*time.Millisecond)

	assert.Eventually(t, func() bool { return rl.size() == 0 }, time.Second, 5*time.Millisecond)
}

func TestContextHelpers(t *testing.T) {
	ctx := WithClaims(context.Background(), &jwt.Claims{UserID: "u9"})

	assert.Equal(t, "u9", GetUserID(ctx))
	assert.Equal(t, "u9", GetClaims(ctx).UserID)
	assert.Equal(t, "", GetUserID(context.Background()))
	assert.Nil(t, GetClaims(context.Background()))
}
