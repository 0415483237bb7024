package client

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"sync"

	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/config"
	"github.com/Lairnan/LairnanChat/internal/protocol"
)

var (
	// ErrServerNotFound is returned for URLs the pool does not know.
	ErrServerNotFound = errors.New("server not found")
	// ErrServerConnected refuses removal of a live server.
	ErrServerConnected = errors.New("server is connected")
)

// Manager keeps the pool of known servers and tracks which one is active.
// Pool bookkeeping is locked; network calls run with the lock released so
// a slow handshake never blocks pool reads.
type Manager struct {
	log *slog.Logger

	// AutoRedirectOnDisconnect moves the active selection to the most
	// recently added remaining server when the active one disconnects.
	AutoRedirectOnDisconnect bool

	mu      sync.Mutex
	pool    []*Client
	active  *Client
	subs    map[int]func(*Client)
	nextSub int
}

func NewManager(log *slog.Logger) *Manager {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Manager{log: log, subs: make(map[int]func(*Client))}
}

// NewManagerWithServers builds a manager pre-populated with the configured
// server descriptors, in order.
func NewManagerWithServers(log *slog.Logger, servers []config.ServerEntry) *Manager {
	m := NewManager(log)
	for _, entry := range servers {
		m.GetOrAddServer(entry.Name, entry.URL)
	}
	return m
}

// Subscribe registers an observer for active-server changes; the returned
// function removes it. Observers get the new active client, nil when the
// selection is cleared.
func (m *Manager) Subscribe(fn func(*Client)) func() {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	return func() {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.subs, id)
	}
}

// GetOrAddServer returns the pool client for the URL, creating one when
// the URL is new. The pool is keyed by URL; the name only labels a newly
// created entry.
func (m *Manager) GetOrAddServer(name, rawURL string) *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	if c := m.findLocked(rawURL); c != nil {
		return c
	}
	c := NewClient(m.log, NewServerInfo(name, rawURL))
	m.pool = append(m.pool, c)
	return c
}

// Servers returns a snapshot of the pool's descriptors in addition order.
func (m *Manager) Servers() []*ServerInfo {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]*ServerInfo, 0, len(m.pool))
	for _, c := range m.pool {
		out = append(out, c.Info())
	}
	return out
}

// ActiveClient returns the currently selected client, nil when none.
func (m *Manager) ActiveClient() *Client {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active
}

// SetActiveServer selects a server without connecting to it. A nil URL
// pointer clears the selection. Re-selecting the current active server is
// a no-op and does not re-notify.
func (m *Manager) SetActiveServer(rawURL *string) {
	m.mu.Lock()
	if rawURL == nil {
		if m.active == nil {
			m.mu.Unlock()
			return
		}
		m.active = nil
		subs := m.subsLocked()
		m.mu.Unlock()
		notify(subs, nil)
		return
	}

	if m.active != nil && m.active.Info().URL == *rawURL {
		m.mu.Unlock()
		return
	}
	c := m.findLocked(*rawURL)
	if c == nil {
		c = NewClient(m.log, NewServerInfo("", *rawURL))
		m.pool = append(m.pool, c)
	}
	m.active = c
	subs := m.subsLocked()
	m.mu.Unlock()
	notify(subs, c)
}

// Connect runs the handshake against the active server, falling back to
// the most recently added one when nothing is selected.
func (m *Manager) Connect(ctx context.Context, authUser *chat.AuthUser, registerAsNew bool) (*protocol.Result, error) {
	m.mu.Lock()
	c := m.active
	if c == nil && len(m.pool) > 0 {
		c = m.pool[len(m.pool)-1]
	}
	m.mu.Unlock()
	if c == nil {
		return nil, ErrServerNotFound
	}
	return m.ConnectClient(ctx, c, authUser, registerAsNew)
}

// ConnectURL connects to the given URL, adding it to the pool if needed.
func (m *Manager) ConnectURL(ctx context.Context, rawURL string, authUser *chat.AuthUser, registerAsNew bool) (*protocol.Result, error) {
	return m.ConnectClient(ctx, m.GetOrAddServer("", rawURL), authUser, registerAsNew)
}

// ConnectClient runs the handshake on c and, on success, makes it the
// active server.
func (m *Manager) ConnectClient(ctx context.Context, c *Client, authUser *chat.AuthUser, registerAsNew bool) (*protocol.Result, error) {
	res, err := c.ConnectAs(ctx, authUser, registerAsNew)
	if err != nil {
		return nil, err
	}
	if connectSucceeded(res) {
		m.mu.Lock()
		changed := m.active != c
		m.active = c
		subs := m.subsLocked()
		m.mu.Unlock()
		if changed {
			notify(subs, c)
		}
	}
	return res, nil
}

// connectSucceeded reports whether the handshake's final result admits the
// client: a connect acknowledgement or either authentication success.
func connectSucceeded(res *protocol.Result) bool {
	switch res.Kind {
	case protocol.ResultConnect, protocol.ResultSuccessAuthorized, protocol.ResultSuccessRegistered:
		return true
	default:
		return false
	}
}

// Disconnect closes the connection to the given URL.
func (m *Manager) Disconnect(rawURL string) error {
	m.mu.Lock()
	c := m.findLocked(rawURL)
	m.mu.Unlock()
	if c == nil {
		return ErrServerNotFound
	}
	c.Disconnect()
	m.afterDisconnect(c)
	return nil
}

// DisconnectActive closes the active connection, if any.
func (m *Manager) DisconnectActive() {
	m.mu.Lock()
	c := m.active
	m.mu.Unlock()
	if c == nil {
		return
	}
	c.Disconnect()
	m.afterDisconnect(c)
}

// afterDisconnect clears the selection when the dropped client was active
// and optionally redirects to the most recently added remaining server.
func (m *Manager) afterDisconnect(c *Client) {
	m.mu.Lock()
	if m.active != c {
		m.mu.Unlock()
		return
	}
	m.active = nil
	if m.AutoRedirectOnDisconnect {
		for i := len(m.pool) - 1; i >= 0; i-- {
			if m.pool[i] != c {
				m.active = m.pool[i]
				break
			}
		}
	}
	next := m.active
	subs := m.subsLocked()
	m.mu.Unlock()
	notify(subs, next)
}

// RemoveServer drops a server from the pool. Connected servers must be
// disconnected first.
func (m *Manager) RemoveServer(rawURL string) error {
	m.mu.Lock()
	for i, c := range m.pool {
		if c.Info().URL != rawURL {
			continue
		}
		if c.IsConnected() {
			m.mu.Unlock()
			return ErrServerConnected
		}
		m.pool = append(m.pool[:i], m.pool[i+1:]...)
		if m.active != c {
			m.mu.Unlock()
			return nil
		}
		// Removing the selection reassigns it to the most recently
		// added remaining server, observers included.
		m.active = nil
		if len(m.pool) > 0 {
			m.active = m.pool[len(m.pool)-1]
		}
		next := m.active
		subs := m.subsLocked()
		m.mu.Unlock()
		notify(subs, next)
		return nil
	}
	m.mu.Unlock()
	return ErrServerNotFound
}

func (m *Manager) findLocked(rawURL string) *Client {
	for _, c := range m.pool {
		if c.Info().URL == rawURL {
			return c
		}
	}
	return nil
}

func (m *Manager) subsLocked() []func(*Client) {
	out := make([]func(*Client), 0, len(m.subs))
	for _, fn := range m.subs {
		out = append(out, fn)
	}
	return out
}

func notify(subs []func(*Client), c *Client) {
	for _, fn := range subs {
		fn(c)
	}
}
