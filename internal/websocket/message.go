package websocket

import (
	"encoding/json"
	"time"

	"noteapp-server/internal/domain"
)

type MessageType string

const (
	TypeNoteCreated MessageType = "note_created"
	TypeNoteUpdated MessageType = "note_updated"
	TypeNoteDeleted MessageType = "note_deleted"
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
	TypeError       MessageType = "error"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
}

type ErrorPayload struct {
	Error string `json:"error"`
}

func NewMessage(msgType MessageType, payload interface{}) (*Message, error) {
	var payloadBytes json.RawMessage
	if payload != nil {
		bytes, err := json.Marshal(payload)
		if err != nil {
			return nil, err
		}
		payloadBytes = bytes
	}

	return &Message{
		Type:      msgType,
		Timestamp: time.Now().UTC(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

func messageTypeFor(op domain.ChangeOperation) MessageType {
	switch op {
	case domain.ChangeCreated:
		return TypeNoteCreated
	case domain.ChangeDeleted:
		return TypeNoteDeleted
	default:
		return TypeNoteUpdated
	}
}
