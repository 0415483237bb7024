package server

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"github.com/Lairnan/LairnanChat/internal/auth"
	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/config"
	"github.com/Lairnan/LairnanChat/internal/protocol"
	"github.com/Lairnan/LairnanChat/internal/rooms"
	"github.com/Lairnan/LairnanChat/internal/translate"
)

// Server owns the listener, the admitted-client table and the room
// registry. One goroutine per session; all cross-session fan-out goes
// through the client table.
type Server struct {
	log        *slog.Logger
	authSvc    auth.Service
	translator translate.Translator
	registry   *rooms.Registry
	tokens     *auth.TokenIssuer
	bufferSize int

	upgrader websocket.Upgrader

	clients  *clientTable
	sessions sync.WaitGroup

	// every accepted socket, admitted or still in handshake; Stop closes
	// them all so no session outlives the listener.
	connsMu sync.Mutex
	conns   map[*peer]struct{}

	mu         sync.Mutex
	listener   net.Listener
	httpSrv    *http.Server
	ctx        context.Context
	cancel     context.CancelFunc
	started    bool
	enableAuth bool
}

// New wires a server from its collaborators. A nil translator falls back
// to the identity translator; a nil logger discards.
func New(log *slog.Logger, cfg config.Config, authSvc auth.Service, translator translate.Translator) *Server {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if translator == nil {
		translator = translate.NewIdentity()
	}
	if authSvc == nil {
		authSvc = auth.NewAllowAll()
	}
	bufferSize := cfg.BufferSize
	if bufferSize <= 0 {
		bufferSize = 4096
	}
	return &Server{
		log:        log,
		authSvc:    authSvc,
		translator: translator,
		registry:   rooms.NewRegistry(cfg.GeneralRoomName),
		tokens:     auth.NewTokenIssuer(cfg.JWTSecret, 0),
		bufferSize: bufferSize,
		upgrader: websocket.Upgrader{
			ReadBufferSize:  bufferSize,
			WriteBufferSize: bufferSize,
			CheckOrigin:     func(r *http.Request) bool { return true },
		},
		clients: newClientTable(),
		conns:   make(map[*peer]struct{}),
	}
}

func (s *Server) trackPeer(p *peer) {
	s.connsMu.Lock()
	s.conns[p] = struct{}{}
	s.connsMu.Unlock()
}

func (s *Server) untrackPeer(p *peer) {
	s.connsMu.Lock()
	delete(s.conns, p)
	s.connsMu.Unlock()
}

// Start binds the listener and begins serving. listenURL accepts a bare
// host:port or a ws:// / http:// URL; port 0 picks a free port. Starting
// an already started server is an error.
func (s *Server) Start(listenURL string, enableAuth bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.started {
		return errors.New("server already started")
	}

	addr := normalizeListenAddr(listenURL)
	ln, err := net.Listen("tcp", addr)
	if err != nil {
		return fmt.Errorf("listening on %s: %w", addr, err)
	}

	s.ctx, s.cancel = context.WithCancel(context.Background())
	s.listener = ln
	s.enableAuth = enableAuth
	s.started = true

	s.httpSrv = &http.Server{
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}

	s.sessions.Add(1)
	go func() {
		defer s.sessions.Done()
		if err := s.httpSrv.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("serve loop ended", "error", err)
		}
	}()

	s.log.Info("server started", "addr", ln.Addr().String(), "auth", enableAuth)
	return nil
}

// normalizeListenAddr strips an optional scheme and path so callers may
// pass the same ws:// URL clients dial with.
func normalizeListenAddr(listenURL string) string {
	addr := listenURL
	for _, scheme := range []string{"ws://", "wss://", "http://", "https://"} {
		if strings.HasPrefix(addr, scheme) {
			addr = strings.TrimPrefix(addr, scheme)
			break
		}
	}
	if i := strings.IndexByte(addr, '/'); i >= 0 {
		addr = addr[:i]
	}
	if addr == "" {
		addr = ":0"
	}
	return addr
}

// URL reports the websocket endpoint of a started server.
func (s *Server) URL() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.listener == nil {
		return ""
	}
	return "ws://" + s.listener.Addr().String() + "/ws"
}

// IsStarted reports whether Start succeeded and Stop has not run yet.
func (s *Server) IsStarted() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.started
}

// ClientCount reports the number of admitted sessions.
func (s *Server) ClientCount() int {
	return s.clients.len()
}

// Registry exposes the room registry, mainly for the HTTP surface and
// tests.
func (s *Server) Registry() *rooms.Registry {
	return s.registry
}

// Wait blocks until all sessions and the accept loop have finished.
func (s *Server) Wait() {
	s.sessions.Wait()
}

// Stop notifies every connected client, closes their sockets and shuts the
// listener down. Safe to call on a stopped server.
func (s *Server) Stop(ctx context.Context) error {
	s.mu.Lock()
	if !s.started {
		s.mu.Unlock()
		return nil
	}
	s.started = false
	cancel := s.cancel
	httpSrv := s.httpSrv
	s.mu.Unlock()

	cancel()

	notice := protocol.NewResult(protocol.ResultDisconnect)
	for _, c := range s.clients.clear() {
		if err := c.peer.sendResult(notice); err != nil {
			s.log.Debug("shutdown notice not delivered", "user", c.user.UserName, "error", err)
		}
	}

	s.connsMu.Lock()
	open := make([]*peer, 0, len(s.conns))
	for p := range s.conns {
		open = append(open, p)
	}
	s.connsMu.Unlock()
	for _, p := range open {
		p.close()
	}

	var err error
	if httpSrv != nil {
		err = httpSrv.Shutdown(ctx)
	}
	s.sessions.Wait()
	s.log.Info("server stopped")
	return err
}

// removeUserEverywhere drops the user from every room they are in.
func (s *Server) removeUserEverywhere(user *chat.User) {
	for _, room := range s.registry.RoomsForParticipant(user) {
		room.RemoveParticipant(user)
	}
}
