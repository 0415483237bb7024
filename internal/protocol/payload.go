package protocol

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Lairnan/LairnanChat/internal/chat"
)

// PayloadType tags the concrete payload carried by an envelope. The set is
// closed: decoding trusts nothing outside these constants.
type PayloadType string

const (
	PayloadNone     PayloadType = ""
	PayloadText     PayloadType = "text"
	PayloadUser     PayloadType = "user"
	PayloadAuthUser PayloadType = "authUser"
	PayloadMessage  PayloadType = "message"
	PayloadRoom     PayloadType = "chatRoom"
	PayloadRoomList PayloadType = "chatRoomList"
	PayloadRoomID   PayloadType = "roomId"
)

var (
	// ErrNoPayload is returned when an envelope carries no payload.
	ErrNoPayload = errors.New("envelope has no payload")

	// ErrUnknownPayloadType is returned when the payload tag is outside the
	// enumerated set.
	ErrUnknownPayloadType = errors.New("unknown payload type")

	// ErrPayloadMismatch is returned when the payload tag does not match the
	// type the caller asked for.
	ErrPayloadMismatch = errors.New("payload type mismatch")
)

// encodePayload maps a known payload value to its tag and JSON bytes. The
// type switch is the whole universe of encodable payloads.
func encodePayload(payload any) (PayloadType, json.RawMessage, error) {
	if payload == nil {
		return PayloadNone, nil, nil
	}

	var tag PayloadType
	switch payload.(type) {
	case string:
		tag = PayloadText
	case *chat.User:
		tag = PayloadUser
	case *chat.AuthUser:
		tag = PayloadAuthUser
	case *chat.Message:
		tag = PayloadMessage
	case *chat.ChatRoom:
		tag = PayloadRoom
	case []*chat.ChatRoom:
		tag = PayloadRoomList
	case uuid.UUID:
		tag = PayloadRoomID
	default:
		return PayloadNone, nil, fmt.Errorf("%w: %T", ErrUnknownPayloadType, payload)
	}

	raw, err := json.Marshal(payload)
	if err != nil {
		return PayloadNone, nil, fmt.Errorf("encoding %s payload: %w", tag, err)
	}
	return tag, raw, nil
}

// decodePayload unmarshals raw into out after checking the tag. got is the
// tag found on the envelope, want the tag implied by out's type.
func decodePayload(got, want PayloadType, raw json.RawMessage, out any) error {
	if len(raw) == 0 {
		return ErrNoPayload
	}
	switch got {
	case PayloadText, PayloadUser, PayloadAuthUser, PayloadMessage, PayloadRoom, PayloadRoomList, PayloadRoomID:
	default:
		return fmt.Errorf("%w: %q", ErrUnknownPayloadType, got)
	}
	if got != want {
		return fmt.Errorf("%w: have %q, want %q", ErrPayloadMismatch, got, want)
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return fmt.Errorf("decoding %s payload: %w", want, err)
	}
	return nil
}
