package server

import (
	"errors"
	"fmt"

	"github.com/google/uuid"

	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/protocol"
)

// broadcastResult routes one dispatch result to its audience. Message-style
// results fan out to room members or the direct receiver; room creation
// goes to the room's participants; everything else returns to the
// originating connection only.
func (s *Server) broadcastResult(origin *connectedClient, res *protocol.Result) {
	switch res.Kind {
	case protocol.ResultSendMessage, protocol.ResultDisconnect:
		msg, err := res.Message()
		if err != nil {
			s.log.Error("broadcast payload", "kind", res.Kind, "error", err)
			return
		}
		s.fanOutMessage(origin, msg)
	case protocol.ResultCreateChat:
		room, err := res.ChatRoom()
		if err != nil {
			s.log.Error("broadcast payload", "kind", res.Kind, "error", err)
			return
		}
		s.fanOutRoomCreated(origin, room)
	default:
		s.sendToClient(origin, res)
	}
}

// fanOutMessage resolves the recipient set for msg and delivers a
// per-recipient translated copy. Every delivered copy is wrapped as a
// sendMessage result; the sender receives their own copy except for
// disconnect notices.
func (s *Server) fanOutMessage(origin *connectedClient, msg *chat.Message) {
	recipients := s.messageRecipients(origin, msg)
	for _, id := range recipients {
		client, ok := s.clients.get(id)
		if !ok {
			continue
		}
		delivery := msg.Clone()
		translated, err := s.translator.Translate(s.ctx, delivery.OriginalContent, delivery.OriginalLanguage, client.user.Language)
		if err != nil {
			s.log.Debug("translation failed, delivering original", "error", err)
			translated = delivery.OriginalContent
		}
		delivery.SetTranslatedContent(translated)

		res, err := protocol.NewResultWith(protocol.ResultSendMessage, delivery)
		if err != nil {
			s.log.Error("encoding message result", "error", err)
			return
		}
		s.sendToClient(client, res)
	}
}

// messageRecipients computes who gets msg. A room message reaches the
// room's current participants; if the sender is not a member (or the room
// is gone) the message is rewritten into a refusal addressed back to
// them. A direct message reaches the receiver and echoes to the sender.
func (s *Server) messageRecipients(origin *connectedClient, msg *chat.Message) []uuid.UUID {
	senderID := origin.user.ID

	if msg.RoomID != nil {
		room, err := s.registry.RoomByID(*msg.RoomID)
		if err != nil || !room.ContainsUser(senderID) {
			if err != nil && !errors.Is(err, chat.ErrRoomNotFound) {
				s.log.Error("resolving room", "error", err)
			}
			msg.ChangeOriginalContent("You are not in this chat", "en-US")
			msg.ChangeReceiver(origin.user)
			return []uuid.UUID{senderID}
		}
		var out []uuid.UUID
		for _, p := range room.Participants() {
			if p.ID == senderID && s.excludeSender(msg) {
				continue
			}
			out = append(out, p.ID)
		}
		return out
	}

	if msg.Receiver != nil {
		out := []uuid.UUID{msg.Receiver.ID}
		if msg.Receiver.ID != senderID && !s.excludeSender(msg) {
			out = append(out, senderID)
		}
		return out
	}

	// No explicit address: everyone sharing a room with the sender.
	seen := make(map[uuid.UUID]bool)
	var out []uuid.UUID
	for _, room := range s.registry.RoomsForParticipant(origin.user) {
		for _, p := range room.Participants() {
			if seen[p.ID] {
				continue
			}
			if p.ID == senderID && s.excludeSender(msg) {
				continue
			}
			seen[p.ID] = true
			out = append(out, p.ID)
		}
	}
	return out
}

// excludeSender keeps disconnect notices from echoing to a socket that is
// already gone.
func (s *Server) excludeSender(msg *chat.Message) bool {
	_, stillHere := s.clients.get(msg.Sender.ID)
	return !stillHere
}

// fanOutRoomCreated tells every connected participant about the new room
// with a synthesized system message, and echoes the room itself back to
// the creator so their side can track it.
func (s *Server) fanOutRoomCreated(origin *connectedClient, room *chat.ChatRoom) {
	res, err := protocol.NewResultWith(protocol.ResultCreateChat, room)
	if err != nil {
		s.log.Error("encoding room result", "error", err)
		return
	}
	s.sendToClient(origin, res)

	msg := chat.NewRoomMessage(origin.user, room.ID(),
		fmt.Sprintf("User %s created chat %s", origin.user.UserName, room.Name()),
		origin.user.Language)
	s.fanOutMessage(origin, msg)
}

// sendToClient delivers one result, logging instead of failing the whole
// fan-out when a single socket is broken.
func (s *Server) sendToClient(client *connectedClient, res *protocol.Result) {
	if err := client.peer.sendResult(res); err != nil {
		s.log.Debug("delivery failed", "user", client.user.UserName, "error", err)
	}
}
