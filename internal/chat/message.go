package chat

import (
	"encoding/json"
	"time"

	"github.com/google/uuid"
)

// Message is one chat message. Addressing is mutually exclusive: a message
// names either a direct receiver, a room, or neither (broadcast to every
// room the sender belongs to). The Change* methods keep that invariant; do
// not assign Receiver or RoomID directly.
type Message struct {
	ID                uuid.UUID       `json:"id"`
	Sender            *User           `json:"sender"`
	Receiver          *User           `json:"receiver,omitempty"`
	RoomID            *uuid.UUID      `json:"chatRoomId,omitempty"`
	Timestamp         time.Time       `json:"timestamp"`
	OriginalContent   string          `json:"originalContent,omitempty"`
	OriginalLanguage  string          `json:"originalLanguage"`
	TranslatedContent string          `json:"translatedContent,omitempty"`
	Content           json.RawMessage `json:"messageContent,omitempty"`
}

// NewDirectMessage creates a message addressed to a single receiver. A nil
// receiver yields a broadcast message.
func NewDirectMessage(sender *User, receiver *User, content, language string) *Message {
	return &Message{
		ID:               uuid.New(),
		Sender:           sender,
		Receiver:         receiver,
		Timestamp:        time.Now().UTC(),
		OriginalContent:  content,
		OriginalLanguage: language,
	}
}

// NewRoomMessage creates a message addressed to a room.
func NewRoomMessage(sender *User, roomID uuid.UUID, content, language string) *Message {
	return &Message{
		ID:               uuid.New(),
		Sender:           sender,
		RoomID:           &roomID,
		Timestamp:        time.Now().UTC(),
		OriginalContent:  content,
		OriginalLanguage: language,
	}
}

// Clone returns a shallow copy. The per-recipient fan-out path clones before
// setting TranslatedContent so recipients never share a message value.
func (m *Message) Clone() *Message {
	c := *m
	return &c
}

// ChangeReceiver re-addresses the message to a direct receiver and clears
// any room addressing.
func (m *Message) ChangeReceiver(receiver *User) {
	m.Receiver = receiver
	m.RoomID = nil
}

// ChangeRoom re-addresses the message to a room and clears any direct
// receiver.
func (m *Message) ChangeRoom(roomID uuid.UUID) {
	m.Receiver = nil
	m.RoomID = &roomID
}

// ChangeOriginalContent replaces the text. An empty language keeps the
// current one.
func (m *Message) ChangeOriginalContent(content, language string) {
	m.OriginalContent = content
	if language != "" {
		m.OriginalLanguage = language
	}
}

// ChangeContent replaces the opaque attachment payload.
func (m *Message) ChangeContent(content json.RawMessage) {
	m.Content = content
}

// SetTranslatedContent stores the recipient-specific translation.
func (m *Message) SetTranslatedContent(translated string) {
	m.TranslatedContent = translated
}
