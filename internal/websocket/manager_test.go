package websocket

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"notes-server/internal/domain"
	"notes-server/internal/logging"
)

const testMaxMessageSize = 1024

type testHub struct {
	manager *Manager
	server  *httptest.Server
	url     string
}

func newTestHub(t *testing.T, maxConn int) *testHub {
	t.Helper()

	manager := NewManager(maxConn, time.Second, time.Minute, 50*time.Second, testMaxMessageSize, logging.Discard())
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Run(ctx)

	upgrader := websocket.Upgrader{}
	var seq int64

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		conn, err := upgrader.Upgrade(w, r, nil)
		if err != nil {
			return
		}
		id := fmt.Sprintf("c%d", atomic.AddInt64(&seq, 1))
		client := NewClient(id, r.URL.Query().Get("user"), conn, manager)
		manager.Add(client)
		go client.WritePump()
		go client.ReadPump()
	}))

	t.Cleanup(func() {
		cancel()
		server.Close()
	})

	return &testHub{
		manager: manager,
		server:  server,
		url:     "ws" + strings.TrimPrefix(server.URL, "http"),
	}
}

func (h *testHub) dial(t *testing.T, user string) *websocket.Conn {
	t.Helper()
	conn, _, err := websocket.DefaultDialer.Dial(h.url+"?user="+user, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func (h *testHub) waitConnections(t *testing.T, user string, n int) {
	t.Helper()
	require.Eventually(t, func() bool {
		return h.manager.GetUserConnections(user) == n
	}, 2*time.Second, 10*time.Millisecond)
}

func readMessage(t *testing.T, conn *websocket.Conn) *Message {
	t.Helper()
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var msg Message
	require.NoError(t, conn.ReadJSON(&msg))
	return &msg
}

func TestManager_PublishNoteEvent(t *testing.T) {
	hub := newTestHub(t, 5)

	alice := hub.dial(t, "alice")
	bob := hub.dial(t, "bob")
	hub.waitConnections(t, "alice", 1)
	hub.waitConnections(t, "bob", 1)

	note := &domain.Note{ID: "n1", UserID: "alice", Title: "T", Content: "C", Tags: []string{}}
	hub.manager.PublishNoteEvent("alice", domain.NoteEvent{Type: domain.EventNoteCreated, NoteID: "n1", Note: note})

	msg := readMessage(t, alice)
	assert.Equal(t, TypeNoteCreated, msg.Type)

	event, err := msg.NoteEvent()
	require.NoError(t, err)
	assert.Equal(t, "n1", event.NoteID)
	require.NotNil(t, event.Note)
	assert.Equal(t, "T", event.Note.Title)

	bob.SetReadDeadline(time.Now().Add(100 * time.Millisecond))
	_, _, err = bob.ReadMessage()
	assert.Error(t, err, "events must not reach other users")
}

func TestManager_PingPong(t *testing.T) {
	hub := newTestHub(t, 5)
	conn := hub.dial(t, "alice")
	hub.waitConnections(t, "alice", 1)

	ping, err := NewMessage(TypePing, nil)
	require.NoError(t, err)
	require.NoError(t, conn.WriteJSON(ping))

	assert.Equal(t, TypePong, readMessage(t, conn).Type)
}

func TestManager_MaxConnectionsPerUser(t *testing.T) {
	hub := newTestHub(t, 1)

	hub.dial(t, "alice")
	hub.waitConnections(t, "alice", 1)

	second := hub.dial(t, "alice")
	second.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := second.ReadMessage()
	assert.Error(t, err, "connection over the limit is closed")
	assert.Equal(t, 1, hub.manager.GetUserConnections("alice"))
}

func TestManager_Unregister(t *testing.T) {
	hub := newTestHub(t, 5)
	conn := hub.dial(t, "alice")
	hub.waitConnections(t, "alice", 1)

	conn.Close()
	hub.waitConnections(t, "alice", 0)
}

func TestManager_OversizedMessageClosesConnection(t *testing.T) {
	hub := newTestHub(t, 5)
	conn := hub.dial(t, "alice")
	hub.waitConnections(t, "alice", 1)

	big := strings.Repeat("x", testMaxMessageSize+1)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(big)))

	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	_, _, err := conn.ReadMessage()
	assert.Error(t, err, "frame over the read limit closes the connection")
	hub.waitConnections(t, "alice", 0)
}
