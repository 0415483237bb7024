package client

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/protocol"
)

// handshakeTimeout bounds every wait during the connect exchange so a
// silent server cannot hang the caller.
const handshakeTimeout = 15 * time.Second

var (
	// ErrAlreadyConnected is returned by Connect on an open client.
	ErrAlreadyConnected = errors.New("client already connected")
	// ErrConnectionBusy is returned when the URL is changed mid-connect.
	ErrConnectionBusy = errors.New("connection is open or in progress")
	// ErrNoCredentials is returned by Connect when no auth user is set.
	ErrNoCredentials = errors.New("no credentials set")
)

// Status is the client's connection lifecycle state.
type Status int

const (
	StatusDisconnected Status = iota
	StatusConnecting
	StatusConnected
)

// Client drives one server connection: the admission handshake, the
// receive loop and the outgoing request path.
type Client struct {
	log  *slog.Logger
	info *ServerInfo

	mu       sync.Mutex
	writeMu  sync.Mutex
	conn     *websocket.Conn
	status   Status
	user     *chat.User
	authUser *chat.AuthUser
	inbox    []*protocol.Result
	subs     map[int]func(*protocol.Result)
	nextSub  int
}

// NewClient creates a disconnected client for the given server.
func NewClient(log *slog.Logger, info *ServerInfo) *Client {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	return &Client{
		log:  log,
		info: info,
		subs: make(map[int]func(*protocol.Result)),
	}
}

func (c *Client) Info() *ServerInfo { return c.info }

func (c *Client) Status() Status {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.status
}

func (c *Client) IsConnected() bool { return c.Status() == StatusConnected }

// User returns the identity the server admitted, nil when disconnected.
func (c *Client) User() *chat.User {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.user
}

// SetServerURL changes the server address. Refused while a connection is
// open or being established.
func (c *Client) SetServerURL(rawURL string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.status != StatusDisconnected {
		return ErrConnectionBusy
	}
	c.info.URL = rawURL
	return nil
}

// SetCredentials stores the identity later zero-argument Connect calls use.
func (c *Client) SetCredentials(authUser *chat.AuthUser) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.authUser = authUser
}

// Connect dials using previously stored credentials.
func (c *Client) Connect(ctx context.Context) (*protocol.Result, error) {
	c.mu.Lock()
	authUser := c.authUser
	c.mu.Unlock()
	if authUser == nil {
		return nil, ErrNoCredentials
	}
	return c.ConnectAs(ctx, authUser, false)
}

// ConnectAs dials the server and runs the admission handshake with the
// given identity. registerAsNew picks registration over authorization when
// the server demands credentials. The returned result is the server's
// final answer; the caller inspects its kind for success.
func (c *Client) ConnectAs(ctx context.Context, authUser *chat.AuthUser, registerAsNew bool) (*protocol.Result, error) {
	c.mu.Lock()
	if c.status != StatusDisconnected {
		c.mu.Unlock()
		return nil, ErrAlreadyConnected
	}
	c.status = StatusConnecting
	c.authUser = authUser
	rawURL := c.info.URL
	c.mu.Unlock()

	dialer := websocket.Dialer{HandshakeTimeout: handshakeTimeout}
	conn, resp, err := dialer.DialContext(ctx, rawURL, nil)
	if resp != nil && resp.Body != nil {
		resp.Body.Close()
	}
	if err != nil {
		c.setDisconnected()
		return nil, fmt.Errorf("dialing %s: %w", rawURL, err)
	}

	c.mu.Lock()
	c.conn = conn
	c.mu.Unlock()

	res, err := c.handshake(conn, authUser, registerAsNew)
	if err != nil {
		c.closeConn(conn)
		c.setDisconnected()
		return nil, err
	}

	user, admitted := admittedUser(res)
	if !admitted {
		c.closeConn(conn)
		c.setDisconnected()
		return res, nil
	}

	c.mu.Lock()
	c.status = StatusConnected
	c.user = user
	c.mu.Unlock()
	c.info.setConnected(true)

	go c.receiveLoop(conn)

	c.log.Info("connected", "server", c.info.DisplayName(), "user", user.UserName)
	return res, nil
}

// handshake performs the connect exchange on a freshly dialed socket.
func (c *Client) handshake(conn *websocket.Conn, authUser *chat.AuthUser, registerAsNew bool) (*protocol.Result, error) {
	if err := c.write(conn, protocol.NewRequest(protocol.RequestConnect)); err != nil {
		return nil, err
	}

	res, err := c.awaitResponse(conn)
	if err != nil {
		return nil, err
	}

	switch res.Kind {
	case protocol.ResultConnect:
		// Open server: identify with a second connect carrying the user.
		req, err := protocol.NewRequestWith(protocol.RequestConnect, authUser)
		if err != nil {
			return nil, err
		}
		if err := c.write(conn, req); err != nil {
			return nil, err
		}
		return c.awaitResponse(conn)

	case protocol.ResultNeedAuthentication:
		kind := protocol.RequestAuthorization
		if registerAsNew {
			kind = protocol.RequestRegistration
		}
		req, err := protocol.NewRequestWith(kind, authUser)
		if err != nil {
			return nil, err
		}
		if err := c.write(conn, req); err != nil {
			return nil, err
		}
		return c.awaitResponse(conn)

	default:
		return res, nil
	}
}

// admittedUser extracts the admitted identity from a final handshake
// result; ok is false for refusals.
func admittedUser(res *protocol.Result) (*chat.User, bool) {
	switch res.Kind {
	case protocol.ResultConnect, protocol.ResultSuccessAuthorized, protocol.ResultSuccessRegistered:
		u, err := res.User()
		if err != nil {
			return nil, false
		}
		return u, true
	default:
		return nil, false
	}
}

// awaitResponse reads one result within the handshake deadline. A close
// frame from the server is surfaced as a disconnect result rather than a
// raw error.
func (c *Client) awaitResponse(conn *websocket.Conn) (*protocol.Result, error) {
	if err := conn.SetReadDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return nil, err
	}
	defer conn.SetReadDeadline(time.Time{})

	_, data, err := conn.ReadMessage()
	if err != nil {
		var closeErr *websocket.CloseError
		if errors.As(err, &closeErr) {
			return protocol.NewResult(protocol.ResultDisconnect), nil
		}
		return nil, fmt.Errorf("awaiting server response: %w", err)
	}
	var res protocol.Result
	if err := json.Unmarshal(data, &res); err != nil {
		return nil, fmt.Errorf("decoding server response: %w", err)
	}
	return &res, nil
}

// receiveLoop reads results until the socket dies, recording each and
// notifying subscribers in order.
func (c *Client) receiveLoop(conn *websocket.Conn) {
	for {
		_, data, err := conn.ReadMessage()
		if err != nil {
			c.handleConnectionLost(conn, err)
			return
		}
		var res protocol.Result
		if err := json.Unmarshal(data, &res); err != nil {
			c.log.Debug("dropping undecodable result", "error", err)
			continue
		}
		c.deliver(&res)
	}
}

// handleConnectionLost synthesizes a disconnect notice when the server
// drops the socket, then resets local state.
func (c *Client) handleConnectionLost(conn *websocket.Conn, err error) {
	c.mu.Lock()
	current := c.conn == conn && c.status == StatusConnected
	c.mu.Unlock()
	if !current {
		return
	}
	if !websocket.IsCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
		c.log.Debug("connection lost", "server", c.info.DisplayName(), "error", err)
	}
	c.deliver(protocol.NewResult(protocol.ResultDisconnect))
	c.teardown(conn)
}

// deliver appends the result to the inbox and fans it out to subscribers.
func (c *Client) deliver(res *protocol.Result) {
	c.mu.Lock()
	c.inbox = append(c.inbox, res)
	subs := make([]func(*protocol.Result), 0, len(c.subs))
	for _, fn := range c.subs {
		subs = append(subs, fn)
	}
	c.mu.Unlock()
	for _, fn := range subs {
		fn(res)
	}
}

// Subscribe registers an observer for every received result; the returned
// function removes it.
func (c *Client) Subscribe(fn func(*protocol.Result)) func() {
	c.mu.Lock()
	defer c.mu.Unlock()
	id := c.nextSub
	c.nextSub++
	c.subs[id] = fn
	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.subs, id)
	}
}

// Inbox returns a snapshot of every result received on this connection.
func (c *Client) Inbox() []*protocol.Result {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*protocol.Result, len(c.inbox))
	copy(out, c.inbox)
	return out
}

// Send writes one request. A closed client drops the request silently.
func (c *Client) Send(req *protocol.Request) error {
	c.mu.Lock()
	conn := c.conn
	connected := c.status == StatusConnected
	c.mu.Unlock()
	if !connected || conn == nil {
		return nil
	}
	return c.write(conn, req)
}

// SendMessage is a convenience wrapper for the common request.
func (c *Client) SendMessage(msg *chat.Message) error {
	req, err := protocol.NewRequestWith(protocol.RequestSendMessage, msg)
	if err != nil {
		return err
	}
	return c.Send(req)
}

// Disconnect announces departure, closes the socket and drops every
// registered observer. Calling it on a disconnected client only drops the
// observers.
func (c *Client) Disconnect() {
	c.mu.Lock()
	conn := c.conn
	disconnected := c.status == StatusDisconnected
	c.subs = make(map[int]func(*protocol.Result))
	c.mu.Unlock()
	if disconnected || conn == nil {
		return
	}

	_ = c.write(conn, protocol.NewRequest(protocol.RequestDisconnect))
	c.teardown(conn)
}

// teardown closes the socket and resets client state exactly once per
// connection.
func (c *Client) teardown(conn *websocket.Conn) {
	c.mu.Lock()
	if c.conn != conn {
		c.mu.Unlock()
		return
	}
	c.conn = nil
	c.status = StatusDisconnected
	c.user = nil
	c.inbox = nil
	c.mu.Unlock()

	c.info.setConnected(false)
	c.closeConn(conn)
	c.log.Info("disconnected", "server", c.info.DisplayName())
}

func (c *Client) setDisconnected() {
	c.mu.Lock()
	c.conn = nil
	c.status = StatusDisconnected
	c.mu.Unlock()
	c.info.setConnected(false)
}

func (c *Client) write(conn *websocket.Conn, req *protocol.Request) error {
	data, err := json.Marshal(req)
	if err != nil {
		return fmt.Errorf("encoding request: %w", err)
	}
	c.writeMu.Lock()
	defer c.writeMu.Unlock()
	if err := conn.SetWriteDeadline(time.Now().Add(handshakeTimeout)); err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, data)
}

func (c *Client) closeConn(conn *websocket.Conn) {
	c.writeMu.Lock()
	deadline := time.Now().Add(time.Second)
	_ = conn.WriteControl(websocket.CloseMessage,
		websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""), deadline)
	c.writeMu.Unlock()
	_ = conn.Close()
}
