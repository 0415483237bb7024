package chat

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
)

// ChatRoom is a named set of participants. Membership is mutated by many
// sessions concurrently, so the participant list is guarded by a mutex;
// Participants returns a snapshot.
type ChatRoom struct {
	id   uuid.UUID
	name string

	mu           sync.RWMutex
	participants []*User
}

// NewChatRoom creates an empty room with a random id.
func NewChatRoom(name string) *ChatRoom {
	return &ChatRoom{id: uuid.New(), name: name}
}

// NewChatRoomWithID creates an empty room with the given id.
func NewChatRoomWithID(id uuid.UUID, name string) *ChatRoom {
	return &ChatRoom{id: id, name: name}
}

// ID returns the room id.
func (r *ChatRoom) ID() uuid.UUID { return r.id }

// Name returns the room display name.
func (r *ChatRoom) Name() string { return r.name }

// Participants returns a snapshot of the current membership.
func (r *ChatRoom) Participants() []*User {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*User, len(r.participants))
	copy(out, r.participants)
	return out
}

// AddParticipant adds the user to the room. Adding a user whose id is
// already present is a no-op, so membership never contains duplicates.
func (r *ChatRoom) AddParticipant(user *User) {
	if user == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, p := range r.participants {
		if p.ID == user.ID {
			return
		}
	}
	r.participants = append(r.participants, user)
}

// RemoveParticipant removes the user by id. Removing an absent user is a
// no-op.
func (r *ChatRoom) RemoveParticipant(user *User) {
	if user == nil {
		return
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	for i, p := range r.participants {
		if p.ID == user.ID {
			r.participants = append(r.participants[:i], r.participants[i+1:]...)
			return
		}
	}
}

// ContainsUser reports whether a participant with the given id is present.
func (r *ChatRoom) ContainsUser(id uuid.UUID) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, p := range r.participants {
		if p.ID == id {
			return true
		}
	}
	return false
}

type roomJSON struct {
	ID           uuid.UUID `json:"id"`
	RoomName     string    `json:"roomName"`
	Participants []*User   `json:"participants"`
}

// MarshalJSON serializes the room with a membership snapshot.
func (r *ChatRoom) MarshalJSON() ([]byte, error) {
	return json.Marshal(roomJSON{ID: r.id, RoomName: r.name, Participants: r.Participants()})
}

// UnmarshalJSON restores a room received over the wire.
func (r *ChatRoom) UnmarshalJSON(data []byte) error {
	var raw roomJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	r.id = raw.ID
	r.name = raw.RoomName
	r.mu.Lock()
	r.participants = raw.Participants
	r.mu.Unlock()
	return nil
}
