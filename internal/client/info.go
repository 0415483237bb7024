// Package client implements the connecting side of the chat protocol: a
// single-server Client driving the connect/authentication handshake and a
// Manager holding a pool of known servers.
package client

import (
	"net/url"
	"strings"
	"sync/atomic"
)

// ServerInfo describes one known server. Connection state is tracked on
// the descriptor so a pool snapshot can be rendered without touching the
// client behind it.
type ServerInfo struct {
	Name string
	URL  string

	connected atomic.Bool
}

func NewServerInfo(name, rawURL string) *ServerInfo {
	return &ServerInfo{Name: name, URL: rawURL}
}

func (si *ServerInfo) IsConnected() bool { return si.connected.Load() }

func (si *ServerInfo) setConnected(v bool) { si.connected.Store(v) }

// DisplayName is the label shown for this server: the configured name, or
// the host:port derived from the URL when no name is set.
func (si *ServerInfo) DisplayName() string {
	if si.Name != "" {
		return si.Name
	}
	u, err := url.Parse(si.URL)
	if err == nil && u.Host != "" {
		return u.Host
	}
	addr := si.URL
	for _, scheme := range []string{"ws://", "wss://"} {
		addr = strings.TrimPrefix(addr, scheme)
	}
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		addr = addr[:i]
	}
	return addr
}
