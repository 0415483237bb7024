package protocol

import (
	"encoding/json"

	"github.com/google/uuid"

	"github.com/Lairnan/LairnanChat/internal/chat"
)

// Request is the envelope a client sends to the server.
type Request struct {
	Kind        RequestKind     `json:"kind"`
	PayloadType PayloadType     `json:"payloadType,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// Result is the envelope the server sends to a client.
type Result struct {
	Kind        ResultKind      `json:"kind"`
	PayloadType PayloadType     `json:"payloadType,omitempty"`
	Payload     json.RawMessage `json:"payload,omitempty"`
}

// NewRequest builds a payload-free request.
func NewRequest(kind RequestKind) *Request {
	return &Request{Kind: kind}
}

// NewRequestWith builds a request carrying one of the known payload types.
// Unknown payload types are rejected.
func NewRequestWith(kind RequestKind, payload any) (*Request, error) {
	tag, raw, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &Request{Kind: kind, PayloadType: tag, Payload: raw}, nil
}

// NewResult builds a payload-free result.
func NewResult(kind ResultKind) *Result {
	return &Result{Kind: kind}
}

// NewResultWith builds a result carrying one of the known payload types.
func NewResultWith(kind ResultKind, payload any) (*Result, error) {
	tag, raw, err := encodePayload(payload)
	if err != nil {
		return nil, err
	}
	return &Result{Kind: kind, PayloadType: tag, Payload: raw}, nil
}

// ErrorResult wraps a human-readable explanation in an Error result. The
// text is the only payload a failure carries.
func ErrorResult(text string) *Result {
	r, err := NewResultWith(ResultError, text)
	if err != nil {
		return NewResult(ResultError)
	}
	return r
}

// Request payload accessors. Each checks the tag before decoding.

func (r *Request) AuthUser() (*chat.AuthUser, error) {
	var out chat.AuthUser
	if err := decodePayload(r.PayloadType, PayloadAuthUser, r.Payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Request) Message() (*chat.Message, error) {
	var out chat.Message
	if err := decodePayload(r.PayloadType, PayloadMessage, r.Payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Request) ChatRoom() (*chat.ChatRoom, error) {
	var out chat.ChatRoom
	if err := decodePayload(r.PayloadType, PayloadRoom, r.Payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Request) RoomID() (uuid.UUID, error) {
	var out uuid.UUID
	if err := decodePayload(r.PayloadType, PayloadRoomID, r.Payload, &out); err != nil {
		return uuid.Nil, err
	}
	return out, nil
}

func (r *Request) Text() (string, error) {
	var out string
	if err := decodePayload(r.PayloadType, PayloadText, r.Payload, &out); err != nil {
		return "", err
	}
	return out, nil
}

// Result payload accessors.

func (r *Result) User() (*chat.User, error) {
	var out chat.User
	if err := decodePayload(r.PayloadType, PayloadUser, r.Payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Result) Message() (*chat.Message, error) {
	var out chat.Message
	if err := decodePayload(r.PayloadType, PayloadMessage, r.Payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Result) ChatRoom() (*chat.ChatRoom, error) {
	var out chat.ChatRoom
	if err := decodePayload(r.PayloadType, PayloadRoom, r.Payload, &out); err != nil {
		return nil, err
	}
	return &out, nil
}

func (r *Result) ChatRooms() ([]*chat.ChatRoom, error) {
	var out []*chat.ChatRoom
	if err := decodePayload(r.PayloadType, PayloadRoomList, r.Payload, &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (r *Result) Text() (string, error) {
	var out string
	if err := decodePayload(r.PayloadType, PayloadText, r.Payload, &out); err != nil {
		return "", err
	}
	return out, nil
}
