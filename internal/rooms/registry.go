// Package rooms holds the in-memory room registry. Rooms live for the
// process lifetime; the general room is created once at startup.
package rooms

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Lairnan/LairnanChat/internal/chat"
)

// Registry stores every known room and answers membership queries. All
// methods are safe for concurrent use.
type Registry struct {
	mu        sync.RWMutex
	rooms     []*chat.ChatRoom
	generalID uuid.UUID
}

// NewRegistry creates a registry bootstrapped with the general room.
// An empty name falls back to "General".
func NewRegistry(generalRoomName string) *Registry {
	if generalRoomName == "" {
		generalRoomName = "General"
	}
	general := chat.NewChatRoom(generalRoomName)
	return &Registry{
		rooms:     []*chat.ChatRoom{general},
		generalID: general.ID(),
	}
}

// GeneralRoom returns the bootstrap room.
func (r *Registry) GeneralRoom() *chat.ChatRoom {
	room, _ := r.RoomByID(r.generalID)
	return room
}

// AddRoom registers a room. Adding a room whose id already exists returns
// chat.ErrRoomExists.
func (r *Registry) AddRoom(room *chat.ChatRoom) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.rooms {
		if existing.ID() == room.ID() {
			return chat.ErrRoomExists
		}
	}
	r.rooms = append(r.rooms, room)
	return nil
}

// RoomByID returns the room with the given id, or chat.ErrRoomNotFound.
func (r *Registry) RoomByID(id uuid.UUID) (*chat.ChatRoom, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, room := range r.rooms {
		if room.ID() == id {
			return room, nil
		}
	}
	return nil, chat.ErrRoomNotFound
}

// RoomsByName returns every room carrying the given display name. Room
// names are not unique.
func (r *Registry) RoomsByName(name string) []*chat.ChatRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*chat.ChatRoom
	for _, room := range r.rooms {
		if room.Name() == name {
			out = append(out, room)
		}
	}
	return out
}

// Rooms returns a snapshot of every known room.
func (r *Registry) Rooms() []*chat.ChatRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*chat.ChatRoom, len(r.rooms))
	copy(out, r.rooms)
	return out
}

// RoomsForParticipant returns the rooms the user currently belongs to.
func (r *Registry) RoomsForParticipant(user *chat.User) []*chat.ChatRoom {
	r.mu.RLock()
	defer r.mu.RUnlock()
	var out []*chat.ChatRoom
	for _, room := range r.rooms {
		if room.ContainsUser(user.ID) {
			out = append(out, room)
		}
	}
	return out
}

// CanJoin reports whether the room exists and the user is not yet a
// participant.
func (r *Registry) CanJoin(roomID uuid.UUID, user *chat.User) bool {
	room, err := r.RoomByID(roomID)
	if err != nil {
		return false
	}
	return !room.ContainsUser(user.ID)
}
