package server_test

import (
	"context"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Lairnan/LairnanChat/internal/auth"
	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/client"
	"github.com/Lairnan/LairnanChat/internal/config"
	"github.com/Lairnan/LairnanChat/internal/protocol"
	"github.com/Lairnan/LairnanChat/internal/server"
	"github.com/Lairnan/LairnanChat/internal/translate"
)

func testConfig() config.Config {
	var cfg config.Config
	cfg.LoadDefaults()
	cfg.GeneralRoomName = "general"
	return cfg
}

func startServer(t *testing.T, authSvc auth.Service, enableAuth bool) *server.Server {
	t.Helper()
	srv := server.New(slog.New(slog.NewTextHandler(io.Discard, nil)), testConfig(), authSvc, translate.NewIdentity())
	require.NoError(t, srv.Start("127.0.0.1:0", enableAuth))
	t.Cleanup(func() {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_ = srv.Stop(ctx)
	})
	return srv
}

func newTestClient(t *testing.T, srv *server.Server) *client.Client {
	t.Helper()
	c := client.NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), client.NewServerInfo("", srv.URL()))
	t.Cleanup(c.Disconnect)
	return c
}

func connect(t *testing.T, srv *server.Server, name string, register bool) *client.Client {
	t.Helper()
	c := newTestClient(t, srv)
	res, err := c.ConnectAs(context.Background(), chat.NewAuthUser(name, "hunter2", "en-US"), register)
	require.NoError(t, err)
	require.True(t, c.IsConnected(), "handshake ended with %s", res.Kind)
	return c
}

// waitFor polls cond until it holds or the deadline passes.
func waitFor(t *testing.T, cond func() bool, msg string) {
	t.Helper()
	deadline := time.Now().Add(5 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(10 * time.Millisecond)
	}
	t.Fatalf("timed out waiting for %s", msg)
}

// receivedMessage scans the inbox for a delivered chat message whose
// translated text contains want.
func receivedMessage(c *client.Client, want string) func() bool {
	return func() bool {
		for _, res := range c.Inbox() {
			if res.Kind != protocol.ResultSendMessage {
				continue
			}
			msg, err := res.Message()
			if err != nil {
				continue
			}
			if strings.Contains(msg.TranslatedContent, want) {
				return true
			}
		}
		return false
	}
}

// generalRoomID extracts the bootstrap room id from the admission room
// list.
func generalRoomID(t *testing.T, c *client.Client) uuid.UUID {
	t.Helper()
	var id uuid.UUID
	waitFor(t, func() bool {
		for _, res := range c.Inbox() {
			if res.Kind != protocol.ResultSendChats {
				continue
			}
			rooms, err := res.ChatRooms()
			if err != nil || len(rooms) == 0 {
				continue
			}
			id = rooms[0].ID()
			return true
		}
		return false
	}, "room list after admission")
	return id
}

func TestOpenConnect_AdmitsClient(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	c := newTestClient(t, srv)
	res, err := c.ConnectAs(context.Background(), chat.NewAuthUser("alice", "", "en-US"), false)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultConnect, res.Kind)

	u, err := res.User()
	require.NoError(t, err)
	assert.Equal(t, "alice", u.UserName)
	assert.True(t, c.IsConnected())

	waitFor(t, func() bool { return srv.ClientCount() == 1 }, "admission")
	generalRoomID(t, c)
}

func TestAuthHandshake_RegisterThenLogin(t *testing.T) {
	srv := startServer(t, auth.NewStoreService(auth.NewMemoryStore()), true)

	first := newTestClient(t, srv)
	res, err := first.ConnectAs(context.Background(), chat.NewAuthUser("alice", "hunter2", "en-US"), true)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultSuccessRegistered, res.Kind)
	first.Disconnect()

	second := newTestClient(t, srv)
	res, err = second.ConnectAs(context.Background(), chat.NewAuthUser("alice", "hunter2", "en-US"), false)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultSuccessAuthorized, res.Kind)
	assert.True(t, second.IsConnected())
}

func TestAuthHandshake_WrongPassword(t *testing.T) {
	srv := startServer(t, auth.NewStoreService(auth.NewMemoryStore()), true)

	connect(t, srv, "alice", true).Disconnect()

	c := newTestClient(t, srv)
	res, err := c.ConnectAs(context.Background(), chat.NewAuthUser("alice", "wrong", "en-US"), false)
	require.NoError(t, err)
	assert.Equal(t, protocol.ResultError, res.Kind)
	assert.False(t, c.IsConnected())
	assert.Equal(t, 0, srv.ClientCount())
}

func TestRoomMessage_FanOut(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	alice := connect(t, srv, "alice", false)
	bob := connect(t, srv, "bob", false)
	roomID := generalRoomID(t, alice)

	require.NoError(t, alice.SendMessage(chat.NewRoomMessage(alice.User(), roomID, "hello room", "en-US")))

	waitFor(t, receivedMessage(bob, "hello room"), "bob's copy")
	waitFor(t, receivedMessage(alice, "hello room"), "alice's echo")
}

func TestRoomMessage_SkipsNonMembers(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	alice := connect(t, srv, "alice", false)
	bob := connect(t, srv, "bob", false)
	carol := connect(t, srv, "carol", false)
	generalRoomID(t, alice)

	den := chat.NewChatRoom("den")
	create, err := protocol.NewRequestWith(protocol.RequestCreateChat, den)
	require.NoError(t, err)
	require.NoError(t, alice.Send(create))
	waitFor(t, func() bool {
		for _, res := range alice.Inbox() {
			if res.Kind == protocol.ResultCreateChat {
				return true
			}
		}
		return false
	}, "creation confirmation")

	join, err := protocol.NewRequestWith(protocol.RequestConnectToChat, den.ID())
	require.NoError(t, err)
	require.NoError(t, bob.Send(join))
	waitFor(t, receivedMessage(bob, "bob connected to chat"), "join notice")

	require.NoError(t, alice.SendMessage(chat.NewRoomMessage(alice.User(), den.ID(), "members only", "en-US")))

	waitFor(t, receivedMessage(bob, "members only"), "bob's copy")
	waitFor(t, receivedMessage(alice, "members only"), "alice's echo")
	assert.False(t, receivedMessage(carol, "members only")(), "carol is not in the room")
}

func TestRoomMessage_NotAMember(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	alice := connect(t, srv, "alice", false)
	bob := connect(t, srv, "bob", false)
	generalRoomID(t, alice)

	require.NoError(t, alice.SendMessage(chat.NewRoomMessage(alice.User(), uuid.New(), "into the void", "en-US")))

	waitFor(t, receivedMessage(alice, "You are not in this chat"), "refusal notice")
	assert.False(t, receivedMessage(bob, "into the void")(), "nobody else hears it")
	assert.False(t, receivedMessage(alice, "into the void")(), "the original text is not delivered")
}

func TestDirectMessage(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	alice := connect(t, srv, "alice", false)
	bob := connect(t, srv, "bob", false)

	require.NoError(t, alice.SendMessage(chat.NewDirectMessage(alice.User(), bob.User(), "psst", "en-US")))

	waitFor(t, receivedMessage(bob, "psst"), "bob's copy")
	waitFor(t, receivedMessage(alice, "psst"), "alice's echo")
}

func TestCreateChatAndJoin(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	alice := connect(t, srv, "alice", false)
	bob := connect(t, srv, "bob", false)
	generalRoomID(t, alice)

	team := chat.NewChatRoom("team")
	req, err := protocol.NewRequestWith(protocol.RequestCreateChat, team)
	require.NoError(t, err)
	require.NoError(t, alice.Send(req))

	waitFor(t, func() bool {
		for _, res := range alice.Inbox() {
			if res.Kind == protocol.ResultCreateChat {
				return true
			}
		}
		return false
	}, "creation confirmation")

	join, err := protocol.NewRequestWith(protocol.RequestConnectToChat, team.ID())
	require.NoError(t, err)
	require.NoError(t, bob.Send(join))

	waitFor(t, receivedMessage(bob, "bob connected to chat"), "join notice to bob")
	waitFor(t, receivedMessage(alice, "bob connected to chat"), "join notice to alice")

	// A second join attempt is refused.
	require.NoError(t, bob.Send(join))
	waitFor(t, func() bool {
		for _, res := range bob.Inbox() {
			if res.Kind == protocol.ResultNoPermission {
				return true
			}
		}
		return false
	}, "noPermission for a repeat join")
}

func TestConnectToChat_UnknownRoom(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	alice := connect(t, srv, "alice", false)

	join, err := protocol.NewRequestWith(protocol.RequestConnectToChat, uuid.New())
	require.NoError(t, err)
	require.NoError(t, alice.Send(join))

	waitFor(t, func() bool {
		for _, res := range alice.Inbox() {
			if res.Kind != protocol.ResultError {
				continue
			}
			text, err := res.Text()
			if err == nil && text == "Chat not exists" {
				return true
			}
		}
		return false
	}, "error for an unknown room")
}

func TestDisconnect_NotifiesOthers(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	alice := connect(t, srv, "alice", false)
	bob := connect(t, srv, "bob", false)
	generalRoomID(t, bob)

	alice.Disconnect()

	waitFor(t, receivedMessage(bob, "alice disconnected"), "departure notice")
	waitFor(t, func() bool { return srv.ClientCount() == 1 }, "session removal")
}

func TestStop_NotifiesClients(t *testing.T) {
	srv := server.New(slog.New(slog.NewTextHandler(io.Discard, nil)), testConfig(), auth.NewAllowAll(), nil)
	require.NoError(t, srv.Start("127.0.0.1:0", false))

	c := client.NewClient(slog.New(slog.NewTextHandler(io.Discard, nil)), client.NewServerInfo("", srv.URL()))
	_, err := c.ConnectAs(context.Background(), chat.NewAuthUser("alice", "", "en-US"), false)
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, srv.Stop(ctx))
	assert.False(t, srv.IsStarted())

	waitFor(t, func() bool { return !c.IsConnected() }, "client noticed the shutdown")
}

func TestManager_ConnectedServerGuards(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)

	m := client.NewManager(slog.New(slog.NewTextHandler(io.Discard, nil)))
	res, err := m.ConnectURL(context.Background(), srv.URL(), chat.NewAuthUser("alice", "", "en-US"), false)
	require.NoError(t, err)
	require.Equal(t, protocol.ResultConnect, res.Kind)

	active := m.ActiveClient()
	require.NotNil(t, active)
	assert.True(t, active.IsConnected())

	assert.ErrorIs(t, active.SetServerURL("ws://elsewhere:1/ws"), client.ErrConnectionBusy)
	assert.ErrorIs(t, m.RemoveServer(srv.URL()), client.ErrServerConnected)

	m.DisconnectActive()
	waitFor(t, func() bool { return srv.ClientCount() == 0 }, "session removal")
	assert.Nil(t, m.ActiveClient())
	require.NoError(t, m.RemoveServer(srv.URL()))
}

func TestStart_Twice(t *testing.T) {
	srv := startServer(t, auth.NewAllowAll(), false)
	require.Error(t, srv.Start("127.0.0.1:0", false))
}
