package client

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestClient_LiveURL(t *testing.T) {
	u, err := New("https://api.wanderlust.com", nil).liveURL("abc")
	require.NoError(t, err)
	assert.Equal(t, "wss://api.wanderlust.com/ws/admin?token=abc", u)

	u, err = New("http://localhost:8080", nil).liveURL("abc")
	require.NoError(t, err)
	assert.Equal(t, "ws://localhost:8080/ws/admin?token=abc", u)
}

func TestClient_WatchStreamsEvents(t *testing.T) {
	upgrader := websocket.Upgrader{}
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Query().Get("token") != "admin-jwt" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		defer conn.Close()

		conn.WriteJSON(map[string]interface{}{
			"type":      "message.created",
			"data":      map[string]string{"id": "m1"},
			"timestamp": 1700000000,
		})
		conn.WriteMessage(websocket.CloseMessage,
			websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
		time.Sleep(50 * time.Millisecond)
	}))
	defer server.Close()

	var events []LiveEvent
	err := New(server.URL, StaticToken("admin-jwt")).Watch(context.Background(), func(e LiveEvent) {
		events = append(events, e)
	})
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "message.created", events[0].Type)
	assert.JSONEq(t, `{"id":"m1"}`, string(events[0].Data))
}

func TestClient_WatchRejected(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	}))
	defer server.Close()

	err := New(server.URL, StaticToken("bad")).Watch(context.Background(), func(LiveEvent) {})
	require.Error(t, err)
	assert.True(t, IsUnauthorized(err))
}
