package handlers

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/anonto42/playmaker/backend/internal/models"
	"github.com/anonto42/playmaker/backend/internal/realtime"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRealtimeConnectDeliversTargetedEvents(t *testing.T) {
	hub := realtime.NewHub(nil, nil)
	s := newTestServer()
	s.e.GET("/ws", NewRealtimeHandler(hub, nil).Connect, s.auth.Middleware())
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	token, err := s.auth.IssueToken(&models.User{ID: 7}, time.Hour)
	require.NoError(t, err)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?token=" + token

	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 1 }, 2*time.Second, 10*time.Millisecond)

	hub.NotifyUser(7, models.NotificationEvent{Type: "comment", Message: "Bo commented on your post", Link: "/timeline-posts/abc"})

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	_, frame, err := conn.ReadMessage()
	require.NoError(t, err)

	var envelope struct {
		Event string                   `json:"event"`
		Data  models.NotificationEvent `json:"data"`
	}
	require.NoError(t, json.Unmarshal(frame, &envelope))
	assert.Equal(t, realtime.EventNotification, envelope.Event)
	assert.Equal(t, "Bo commented on your post", envelope.Data.Message)

	require.NoError(t, conn.Close())
	require.Eventually(t, func() bool { return hub.ConnectionCount(7) == 0 }, 2*time.Second, 10*time.Millisecond)
}

func TestRealtimeConnectRejectsMissingToken(t *testing.T) {
	hub := realtime.NewHub(nil, nil)
	s := newTestServer()
	s.e.GET("/ws", NewRealtimeHandler(hub, nil).Connect, s.auth.Middleware())
	srv := httptest.NewServer(s.e)
	defer srv.Close()

	_, resp, err := websocket.DefaultDialer.Dial("ws"+strings.TrimPrefix(srv.URL, "http")+"/ws", nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}
