package realtime

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, hub *Hub) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_ = hub.ServeWS(w, r, r.URL.Query().Get("user"))
	}))
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server, userID string) *websocket.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=" + userID
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func waitForConnections(t *testing.T, hub *Hub, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return hub.Connections() == n }, time.Second, 5*time.Millisecond)
}

func TestHubDeliversToUser(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub([]string{"*"}, nil, logger)
	srv := newTestServer(t, hub)

	alice := dial(t, srv, "alice")
	waitForConnections(t, hub, 1)

	delivered := hub.SendToUser("alice", Frame{Type: FrameMessage, Payload: map[string]string{"content": "hi"}})
	assert.Equal(t, 1, delivered)

	_ = alice.SetReadDeadline(time.Now().Add(time.Second))
	_, data, err := alice.ReadMessage()
	require.NoError(t, err)

	var frame struct {
		Type    string            `json:"type"`
		Payload map[string]string `json:"payload"`
	}
	require.NoError(t, json.Unmarshal(data, &frame))
	assert.Equal(t, FrameMessage, frame.Type)
	assert.Equal(t, "hi", frame.Payload["content"])

	assert.Equal(t, 0, hub.SendToUser("bob", Frame{Type: FrameMessage}))
}

func TestHubUnregistersOnDisconnect(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub([]string{"*"}, nil, logger)
	srv := newTestServer(t, hub)

	conn := dial(t, srv, "alice")
	waitForConnections(t, hub, 1)

	conn.Close()
	waitForConnections(t, hub, 0)
}

func TestHubRejectsUnknownOrigin(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub([]string{"https://afuchat.com"}, nil, logger)
	srv := newTestServer(t, hub)

	header := http.Header{}
	header.Set("Origin", "https://evil.example")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/?user=alice"

	_, resp, err := websocket.DefaultDialer.Dial(url, header)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)
	assert.Equal(t, 0, hub.Connections())
}

func TestHubClose(t *testing.T) {
	logger, _ := test.NewNullLogger()
	hub := NewHub([]string{"*"}, nil, logger)
	srv := newTestServer(t, hub)

	dial(t, srv, "alice")
	dial(t, srv, "alice")
	waitForConnections(t, hub, 2)

	hub.Close()
	assert.Equal(t, 0, hub.Connections())
}
