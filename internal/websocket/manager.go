// Package websocket fans committed note changes out to connected clients.
package websocket

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"noteapp-server/internal/domain"
)

type ClientMessage struct {
	Client  *Client
	Message []byte
}

type Options struct {
	MaxConnections int
	MaxMessageSize int64
	WriteWait      time.Duration
	PongWait       time.Duration
	PingPeriod     time.Duration
}

type Manager struct {
	clients        map[string]*Client
	clientsMutex   sync.RWMutex
	Register       chan *Client
	Unregister     chan *Client
	HandleMessage  chan *ClientMessage
	done           chan struct{}
	maxConnections int
	maxMessageSize int64
	writeWait      time.Duration
	pongWait       time.Duration
	pingPeriod     time.Duration
}

func NewManager(opts Options) *Manager {
	return &Manager{
		clients:        make(map[string]*Client),
		Register:       make(chan *Client),
		Unregister:     make(chan *Client),
		HandleMessage:  make(chan *ClientMessage),
		done:           make(chan struct{}),
		maxConnections: opts.MaxConnections,
		maxMessageSize: opts.MaxMessageSize,
		writeWait:      opts.WriteWait,
		pongWait:       opts.PongWait,
		pingPeriod:     opts.PingPeriod,
	}
}

// Run serves registrations and inbound messages until ctx is done, then
// disconnects every client.
func (m *Manager) Run(ctx context.Context) {
	defer m.shutdown()

	for {
		select {
		case client := <-m.Register:
			m.registerClient(client)

		case client := <-m.Unregister:
			m.unregisterClient(client)

		case clientMsg := <-m.HandleMessage:
			m.processMessage(clientMsg)

		case <-ctx.Done():
			return
		}
	}
}

// Connect hands a new client to the Run loop. It reports false once the
// manager has stopped.
func (m *Manager) Connect(client *Client) bool {
	select {
	case m.Register <- client:
		return true
	case <-m.done:
		return false
	}
}

func (m *Manager) unregister(client *Client) {
	select {
	case m.Unregister <- client:
	case <-m.done:
	}
}

func (m *Manager) shutdown() {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	close(m.done)
	for id, client := range m.clients {
		delete(m.clients, id)
		close(client.Send)
	}
}

func (m *Manager) registerClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if m.maxConnections > 0 && len(m.clients) >= m.maxConnections {
		slog.Warn("websocket connection limit reached", "client", client.ID, "limit", m.maxConnections)
		close(client.Send)
		return
	}

	m.clients[client.ID] = client
	slog.Info("websocket client registered", "client", client.ID, "tags", client.Filter)
}

func (m *Manager) unregisterClient(client *Client) {
	m.clientsMutex.Lock()
	defer m.clientsMutex.Unlock()

	if _, ok := m.clients[client.ID]; ok {
		delete(m.clients, client.ID)
		close(client.Send)
		slog.Info("websocket client unregistered", "client", client.ID)
	}
}

func (m *Manager) processMessage(clientMsg *ClientMessage) {
	var msg Message
	if err := json.Unmarshal(clientMsg.Message, &msg); err != nil {
		m.reply(clientMsg.Client, TypeError, &ErrorPayload{Error: "invalid message"})
		return
	}

	switch msg.Type {
	case TypePing:
		m.reply(clientMsg.Client, TypePong, nil)
	default:
		m.reply(clientMsg.Client, TypeError, &ErrorPayload{Error: "unsupported message type"})
	}
}

func (m *Manager) reply(client *Client, msgType MessageType, payload interface{}) {
	message, err := NewMessage(msgType, payload)
	if err != nil {
		slog.Error("failed to build websocket message", "type", msgType, "error", err)
		return
	}
	m.SendToClient(client.ID, message)
}

// NotifyNoteChange broadcasts change to every client whose filter matches the
// note's tags. It never blocks on a slow client.
func (m *Manager) NotifyNoteChange(change *domain.NoteChange) {
	message, err := NewMessage(messageTypeFor(change.Operation), change)
	if err != nil {
		slog.Error("failed to build note change message", "note", change.NoteID, "error", err)
		return
	}

	if err := m.Broadcast(message, change.Tags); err != nil {
		slog.Error("failed to broadcast note change", "note", change.NoteID, "error", err)
	}
}

func (m *Manager) Broadcast(message *Message, tags []domain.Tag) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	var stalled []*Client

	m.clientsMutex.RLock()
	for _, client := range m.clients {
		if !client.Filter.Matches(tags) {
			continue
		}
		select {
		case client.Send <- messageBytes:
		default:
			stalled = append(stalled, client)
		}
	}
	m.clientsMutex.RUnlock()

	for _, client := range stalled {
		slog.Warn("websocket send buffer full, dropping client", "client", client.ID)
		m.unregisterClient(client)
	}

	return nil
}

func (m *Manager) SendToClient(clientID string, message *Message) error {
	messageBytes, err := json.Marshal(message)
	if err != nil {
		return err
	}

	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()

	client, exists := m.clients[clientID]
	if !exists {
		return nil
	}

	select {
	case client.Send <- messageBytes:
	default:
		slog.Warn("websocket send buffer full", "client", clientID)
	}

	return nil
}

func (m *Manager) ConnectionCount() int {
	m.clientsMutex.RLock()
	defer m.clientsMutex.RUnlock()
	return len(m.clients)
}
