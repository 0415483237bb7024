package server

import (
	"errors"
	"fmt"

	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/protocol"
)

// dispatch applies one request against the room registry and produces the
// result to broadcast, or nil when nothing goes out. Protocol-level
// refusals (NoPermission, Error) are returned as results, not errors;
// a non-nil error means the backend failed.
func (s *Server) dispatch(client *connectedClient, req *protocol.Request) (*protocol.Result, error) {
	switch req.Kind {
	case protocol.RequestSendMessage:
		return s.handleSendMessage(req)
	case protocol.RequestConnectToChat:
		return s.handleConnectToChat(client, req)
	case protocol.RequestCreateChat:
		return s.handleCreateChat(client, req)
	default:
		// Kinds without server-side behavior are ignored.
		return nil, nil
	}
}

func (s *Server) handleSendMessage(req *protocol.Request) (*protocol.Result, error) {
	msg, err := req.Message()
	if err != nil {
		return protocol.ErrorResult("Invalid message payload"), nil
	}
	return protocol.NewResultWith(protocol.ResultSendMessage, msg)
}

func (s *Server) handleConnectToChat(client *connectedClient, req *protocol.Request) (*protocol.Result, error) {
	roomID, err := req.RoomID()
	if err != nil {
		return protocol.ErrorResult("Invalid room payload"), nil
	}

	room, err := s.registry.RoomByID(roomID)
	if err != nil {
		if errors.Is(err, chat.ErrRoomNotFound) {
			return protocol.ErrorResult("Chat not exists"), nil
		}
		return nil, err
	}
	if room.ContainsUser(client.user.ID) {
		return protocol.NewResult(protocol.ResultNoPermission), nil
	}

	room.AddParticipant(client.user)

	msg := chat.NewRoomMessage(client.user, room.ID(),
		fmt.Sprintf("User %s connected to chat", client.user.UserName), client.user.Language)
	return protocol.NewResultWith(protocol.ResultSendMessage, msg)
}

func (s *Server) handleCreateChat(client *connectedClient, req *protocol.Request) (*protocol.Result, error) {
	room, err := req.ChatRoom()
	if err != nil {
		return protocol.ErrorResult("Invalid room payload"), nil
	}

	room.AddParticipant(client.user)
	if err := s.registry.AddRoom(room); err != nil {
		if errors.Is(err, chat.ErrRoomExists) {
			return protocol.ErrorResult("Chat already exists"), nil
		}
		return nil, err
	}
	return protocol.NewResultWith(protocol.ResultCreateChat, room)
}
