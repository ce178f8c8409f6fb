package websocket

import (
	"encoding/json"
	"time"

	"notes-server/internal/domain"
)

type MessageType string

const (
	TypeNoteCreated MessageType = domain.EventNoteCreated
	TypeNoteUpdated MessageType = domain.EventNoteUpdated
	TypeNoteDeleted MessageType = domain.EventNoteDeleted
	TypePing        MessageType = "ping"
	TypePong        MessageType = "pong"
)

type Message struct {
	Type      MessageType     `json:"type"`
	Timestamp time.Time       `json:"timestamp"`
	Payload   json.RawMessage `json:"payload,omitempty"`
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
		Timestamp: time.Now(),
		Payload:   payloadBytes,
	}, nil
}

func (m *Message) UnmarshalPayload(v interface{}) error {
	if m.Payload == nil {
		return nil
	}
	return json.Unmarshal(m.Payload, v)
}

// NoteEvent decodes the payload of a note_* message.
func (m *Message) NoteEvent() (domain.NoteEvent, error) {
	var event domain.NoteEvent
	err := m.UnmarshalPayload(&event)
	return event, err
}
