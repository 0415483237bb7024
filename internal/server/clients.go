package server

import (
	"sync"

	"github.com/google/uuid"

	"github.com/Lairnan/LairnanChat/internal/chat"
)

// connectedClient binds an admitted user to their socket for the lifetime
// of one session.
type connectedClient struct {
	user *chat.User
	peer *peer
}

// clientTable is the set of currently admitted users keyed by user id.
type clientTable struct {
	mu      sync.RWMutex
	clients map[uuid.UUID]*connectedClient
}

func newClientTable() *clientTable {
	return &clientTable{clients: make(map[uuid.UUID]*connectedClient)}
}

// add admits the client unless a session with the same user id is already
// present; returns false on collision.
func (t *clientTable) add(c *connectedClient) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	if _, ok := t.clients[c.user.ID]; ok {
		return false
	}
	t.clients[c.user.ID] = c
	return true
}

// remove drops the session for id and returns its user, or nil if absent.
func (t *clientTable) remove(id uuid.UUID) *chat.User {
	t.mu.Lock()
	defer t.mu.Unlock()
	c, ok := t.clients[id]
	if !ok {
		return nil
	}
	delete(t.clients, id)
	return c.user
}

func (t *clientTable) get(id uuid.UUID) (*connectedClient, bool) {
	t.mu.RLock()
	defer t.mu.RUnlock()
	c, ok := t.clients[id]
	return c, ok
}

// snapshot returns the current clients; safe to iterate without the lock.
func (t *clientTable) snapshot() []*connectedClient {
	t.mu.RLock()
	defer t.mu.RUnlock()
	out := make([]*connectedClient, 0, len(t.clients))
	for _, c := range t.clients {
		out = append(out, c)
	}
	return out
}

func (t *clientTable) len() int {
	t.mu.RLock()
	defer t.mu.RUnlock()
	return len(t.clients)
}

// clear empties the table and returns the removed clients.
func (t *clientTable) clear() []*connectedClient {
	t.mu.Lock()
	defer t.mu.Unlock()
	out := make([]*connectedClient, 0, len(t.clients))
	for _, c := range t.clients {
		out = append(out, c)
	}
	t.clients = make(map[uuid.UUID]*connectedClient)
	return out
}
