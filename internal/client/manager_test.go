package client

import (
	"context"

	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lairnan/LairnanChat/internal/config"
	"github.com/Lairnan/LairnanChat/internal/protocol"
)

func TestGetOrAddServer_KeyedByURL(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	a := m.GetOrAddServer("first", "ws://one:8080/ws")
	b := m.GetOrAddServer("ignored", "ws://one:8080/ws")
	c := m.GetOrAddServer("second", "ws://two:8080/ws")

	assert.Same(t, a, b)
	assert.NotSame(t, a, c)
	assert.Equal(t, "first", a.Info().Name, "the name only labels a new entry")
	assert.Len(t, m.Servers(), 2)
}

func TestSetActiveServer_NotifiesOnChange(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	var got []*Client
	unsubscribe := m.Subscribe(func(c *Client) { got = append(got, c) })
	defer unsubscribe()

	url := "ws://one:8080/ws"
	m.SetActiveServer(&url)
	require.Len(t, got, 1)
	assert.Equal(t, url, got[0].Info().URL)
	assert.Same(t, got[0], m.ActiveClient())

	// Re-selecting the active server does not re-notify.
	m.SetActiveServer(&url)
	assert.Len(t, got, 1)

	m.SetActiveServer(nil)
	require.Len(t, got, 2)
	assert.Nil(t, got[1])
	assert.Nil(t, m.ActiveClient())

	// Clearing an empty selection is a no-op.
	m.SetActiveServer(nil)
	assert.Len(t, got, 2)
}

func TestSetActiveServer_DoesNotConnect(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	url := "ws://nowhere:1/ws"
	m.SetActiveServer(&url)

	active := m.ActiveClient()
	require.NotNil(t, active)
	assert.False(t, active.IsConnected())
	assert.Equal(t, StatusDisconnected, active.Status())
}

func TestRemoveServer(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.GetOrAddServer("one", "ws://one:8080/ws")

	require.NoError(t, m.RemoveServer("ws://one:8080/ws"))
	assert.Empty(t, m.Servers())

	require.ErrorIs(t, m.RemoveServer("ws://one:8080/ws"), ErrServerNotFound)
}

func TestRemoveServer_ClearsActiveSelection(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	url := "ws://one:8080/ws"
	m.SetActiveServer(&url)

	var got []*Client
	unsubscribe := m.Subscribe(func(c *Client) { got = append(got, c) })
	defer unsubscribe()

	require.NoError(t, m.RemoveServer(url))
	assert.Nil(t, m.ActiveClient())
	require.Len(t, got, 1, "observers learn the selection is gone")
	assert.Nil(t, got[0])
}

func TestRemoveServer_ReassignsActiveSelection(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.GetOrAddServer("one", "ws://one:8080/ws")
	two := m.GetOrAddServer("two", "ws://two:8080/ws")
	url := "ws://three:8080/ws"
	m.SetActiveServer(&url)

	var got []*Client
	unsubscribe := m.Subscribe(func(c *Client) { got = append(got, c) })
	defer unsubscribe()

	require.NoError(t, m.RemoveServer(url))
	assert.Same(t, two, m.ActiveClient(), "falls back to the most recently added remaining server")
	require.Len(t, got, 1)
	assert.Same(t, two, got[0])

	require.NoError(t, m.RemoveServer("ws://one:8080/ws"))
	assert.Len(t, got, 1, "removing a non-active server stays quiet")
}

func TestDisconnect_UnknownURL(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	require.ErrorIs(t, m.Disconnect("ws://ghost:1/ws"), ErrServerNotFound)
}

func TestAutoRedirectOnDisconnect(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	m.AutoRedirectOnDisconnect = true

	m.GetOrAddServer("one", "ws://one:8080/ws")
	m.GetOrAddServer("two", "ws://two:8080/ws")
	url := "ws://three:8080/ws"
	m.SetActiveServer(&url)

	m.DisconnectActive()

	active := m.ActiveClient()
	require.NotNil(t, active)
	assert.Equal(t, "ws://two:8080/ws", active.Info().URL, "falls back to the most recently added other server")
}

func TestServerInfo_DisplayName(t *testing.T) {
	t.Parallel()

	named := NewServerInfo("Main", "ws://chat.example.com:8080/ws")
	assert.Equal(t, "Main", named.DisplayName())

	unnamed := NewServerInfo("", "ws://chat.example.com:8080/ws")
	assert.Equal(t, "chat.example.com:8080", unnamed.DisplayName())
}

func TestSetServerURL_RefusedWhileBusy(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, NewServerInfo("", "ws://one:8080/ws"))
	require.NoError(t, c.SetServerURL("ws://two:8080/ws"))
	assert.Equal(t, "ws://two:8080/ws", c.Info().URL)
}

func TestConnect_WithoutCredentials(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, NewServerInfo("", "ws://one:8080/ws"))
	_, err := c.Connect(context.Background())
	require.ErrorIs(t, err, ErrNoCredentials)
}

func TestDisconnect_DropsObservers(t *testing.T) {
	t.Parallel()

	c := NewClient(nil, NewServerInfo("", "ws://one:8080/ws"))
	var calls int
	c.Subscribe(func(*protocol.Result) { calls++ })

	c.deliver(protocol.NewResult(protocol.ResultSendChats))
	assert.Equal(t, 1, calls)

	c.Disconnect()
	c.deliver(protocol.NewResult(protocol.ResultSendChats))
	assert.Equal(t, 1, calls, "a disconnected client starts with a clean observer list")
}

func TestManagerConnect_EmptyPool(t *testing.T) {
	t.Parallel()

	m := NewManager(nil)
	_, err := m.Connect(context.Background(), nil, false)
	require.ErrorIs(t, err, ErrServerNotFound)
}

func TestNewManagerWithServers(t *testing.T) {
	t.Parallel()

	m := NewManagerWithServers(nil, []config.ServerEntry{
		{Name: "one", URL: "ws://one:8080/ws"},
		{Name: "two", URL: "ws://two:8080/ws"},
	})

	servers := m.Servers()
	require.Len(t, servers, 2)
	assert.Equal(t, "one", servers[0].Name)
	assert.Equal(t, "two", servers[1].Name)
	assert.Nil(t, m.ActiveClient(), "seeding selects nothing")
}
