package websocket

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"noteapp-server/internal/domain"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func startManager(t *testing.T, maxConnections int) *Manager {
	t.Helper()
	m := NewManager(Options{
		MaxConnections: maxConnections,
		MaxMessageSize: 4096,
		WriteWait:      time.Second,
		PongWait:       time.Minute,
		PingPeriod:     50 * time.Second,
	})
	ctx, cancel := context.WithCancel(context.Background())
	go m.Run(ctx)
	t.Cleanup(cancel)
	return m
}

func connect(t *testing.T, m *Manager, id string, filter domain.TagFilter) *Client {
	t.Helper()
	client := NewClient(id, filter, nil, m)
	require.True(t, m.Connect(client))
	return client
}

func waitForConnections(t *testing.T, m *Manager, n int) {
	t.Helper()
	require.Eventually(t, func() bool { return m.ConnectionCount() == n }, time.Second, 5*time.Millisecond)
}

func receive(t *testing.T, c *Client) *Message {
	t.Helper()
	select {
	case raw, ok := <-c.Send:
		require.True(t, ok, "send channel closed")
		var msg Message
		require.NoError(t, json.Unmarshal(raw, &msg))
		return &msg
	case <-time.After(time.Second):
		t.Fatalf("client %s received nothing", c.ID)
		return nil
	}
}

func assertNothingReceived(t *testing.T, c *Client) {
	t.Helper()
	select {
	case raw := <-c.Send:
		t.Fatalf("client %s unexpectedly received %s", c.ID, raw)
	default:
	}
}

func TestManager_NotifyNoteChange_FiltersByTag(t *testing.T) {
	m := startManager(t, 10)
	everything := connect(t, m, "all", nil)
	business := connect(t, m, "business", domain.TagFilter{domain.TagBusiness})
	personal := connect(t, m, "personal", domain.TagFilter{domain.TagPersonal})
	waitForConnections(t, m, 3)

	m.NotifyNoteChange(&domain.NoteChange{
		Operation: domain.ChangeCreated,
		NoteID:    "n1",
		Tags:      []domain.Tag{domain.TagBusiness, domain.TagImportant},
		Note:      &domain.NoteResponse{ID: "n1", Title: "Plan"},
	})

	msg := receive(t, everything)
	assert.Equal(t, TypeNoteCreated, msg.Type)

	msg = receive(t, business)
	assert.Equal(t, TypeNoteCreated, msg.Type)
	var change domain.NoteChange
	require.NoError(t, msg.UnmarshalPayload(&change))
	assert.Equal(t, "n1", change.NoteID)
	assert.Equal(t, "Plan", change.Note.Title)

	assertNothingReceived(t, personal)
}

func TestManager_MessageTypes(t *testing.T) {
	m := startManager(t, 10)
	client := connect(t, m, "c", nil)
	waitForConnections(t, m, 1)

	m.NotifyNoteChange(&domain.NoteChange{Operation: domain.ChangeUpdated, NoteID: "n"})
	assert.Equal(t, TypeNoteUpdated, receive(t, client).Type)

	m.NotifyNoteChange(&domain.NoteChange{Operation: domain.ChangeDeleted, NoteID: "n"})
	assert.Equal(t, TypeNoteDeleted, receive(t, client).Type)
}

func TestManager_PingPong(t *testing.T) {
	m := startManager(t, 10)
	client := connect(t, m, "c", nil)
	waitForConnections(t, m, 1)

	m.HandleMessage <- &ClientMessage{Client: client, Message: []byte(`{"type":"ping"}`)}
	assert.Equal(t, TypePong, receive(t, client).Type)

	m.HandleMessage <- &ClientMessage{Client: client, Message: []byte(`not json`)}
	assert.Equal(t, TypeError, receive(t, client).Type)
}

func TestManager_ConnectionLimit(t *testing.T) {
	m := startManager(t, 1)
	connect(t, m, "first", nil)
	second := connect(t, m, "second", nil)

	_, ok := <-second.Send
	assert.False(t, ok, "client over the limit is closed")
	assert.Equal(t, 1, m.ConnectionCount())
}

func TestManager_DropsStalledClient(t *testing.T) {
	m := startManager(t, 10)
	slow := connect(t, m, "slow", nil)
	waitForConnections(t, m, 1)

	for i := 0; i < sendBufferSize; i++ {
		slow.Send <- []byte("{}")
	}
	m.NotifyNoteChange(&domain.NoteChange{Operation: domain.ChangeCreated, NoteID: "n"})

	assert.Equal(t, 0, m.ConnectionCount())
}

func TestManager_Unregister(t *testing.T) {
	m := startManager(t, 10)
	client := connect(t, m, "c", nil)
	waitForConnections(t, m, 1)

	m.unregister(client)
	waitForConnections(t, m, 0)

	_, ok := <-client.Send
	assert.False(t, ok)
}

func TestManager_StopsWithContext(t *testing.T) {
	m := NewManager(Options{MaxConnections: 1})
	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		m.Run(ctx)
		close(stopped)
	}()

	client := NewClient("c", nil, nil, m)
	require.True(t, m.Connect(client))
	cancel()
	<-stopped

	assert.False(t, m.Connect(NewClient("late", nil, nil, m)))
	assert.Equal(t, 0, m.ConnectionCount())
}
