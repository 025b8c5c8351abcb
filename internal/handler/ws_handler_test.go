package handler

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"noteapp-server/internal/domain"
	"noteapp-server/internal/repository"
	"noteapp-server/internal/service"
	"noteapp-server/internal/websocket"

	"github.com/gorilla/mux"
	ws "github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newFeedServer(t *testing.T) (*httptest.Server, *websocket.Manager) {
	return newFeedServerWithOrigins(t, "*")
}

func newFeedServerWithOrigins(t *testing.T, allowedOrigins string) (*httptest.Server, *websocket.Manager) {
	t.Helper()

	manager := websocket.NewManager(websocket.Options{
		MaxConnections: 10,
		MaxMessageSize: 4096,
		WriteWait:      time.Second,
		PongWait:       time.Minute,
		PingPeriod:     50 * time.Second,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go manager.Run(ctx)

	r := mux.NewRouter()
	NewNoteHandler(service.NewNoteService(repository.NewMemoryNoteRepository(), nil, manager)).Register(r)
	r.HandleFunc("/ws", NewWebSocketHandler(manager, allowedOrigins, 1024, 1024).HandleConnection)

	srv := httptest.NewServer(r)
	t.Cleanup(func() {
		srv.Close()
		cancel()
	})
	return srv, manager
}

func dial(t *testing.T, srv *httptest.Server, query string) *ws.Conn {
	t.Helper()
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws" + query
	conn, _, err := ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *ws.Conn) websocket.Message {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(2*time.Second)))
	var msg websocket.Message
	require.NoError(t, conn.ReadJSON(&msg))
	return msg
}

func postNote(t *testing.T, srv *httptest.Server, body string) {
	t.Helper()
	resp, err := http.Post(srv.URL+"/api/notes", "application/json", strings.NewReader(body))
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusCreated, resp.StatusCode)
}

func TestWebSocketHandler_StreamsMatchingChanges(t *testing.T) {
	srv, manager := newFeedServer(t)
	conn := dial(t, srv, "?tags=IMPORTANT")
	require.Eventually(t, func() bool { return manager.ConnectionCount() == 1 }, time.Second, 5*time.Millisecond)

	postNote(t, srv, `{"title":"skip","text":"x","tags":["BUSINESS"]}`)
	postNote(t, srv, `{"title":"keep","text":"x","tags":["IMPORTANT"]}`)

	msg := readMessage(t, conn)
	assert.Equal(t, websocket.TypeNoteCreated, msg.Type)

	var change domain.NoteChange
	require.NoError(t, json.Unmarshal(msg.Payload, &change))
	require.NotNil(t, change.Note)
	assert.Equal(t, "keep", change.Note.Title)
}

func TestWebSocketHandler_PingPong(t *testing.T) {
	srv, _ := newFeedServer(t)
	conn := dial(t, srv, "")

	require.NoError(t, conn.WriteJSON(map[string]string{"type": "ping"}))
	assert.Equal(t, websocket.TypePong, readMessage(t, conn).Type)
}

func TestWebSocketHandler_RejectsUnknownTag(t *testing.T) {
	srv, _ := newFeedServer(t)
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws?tags=NOPE"

	_, resp, err := ws.DefaultDialer.Dial(url, nil)
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusBadRequest, resp.StatusCode)
}

func TestWebSocketHandler_ChecksOrigin(t *testing.T) {
	srv, _ := newFeedServerWithOrigins(t, "https://app.example.com, https://admin.example.com")
	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/ws"

	_, resp, err := ws.DefaultDialer.Dial(url, http.Header{"Origin": {"https://evil.example.com"}})
	require.Error(t, err)
	require.NotNil(t, resp)
	assert.Equal(t, http.StatusForbidden, resp.StatusCode)

	conn, _, err := ws.DefaultDialer.Dial(url, http.Header{"Origin": {"https://admin.example.com"}})
	require.NoError(t, err)
	conn.Close()

	conn, _, err = ws.DefaultDialer.Dial(url, nil)
	require.NoError(t, err, "non-browser clients send no Origin")
	conn.Close()
}
