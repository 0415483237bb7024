package server

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/gorilla/websocket"

	"github.com/Lairnan/LairnanChat/internal/chat"
	"github.com/Lairnan/LairnanChat/internal/protocol"
)

// handleWS upgrades the request and runs the session to completion on the
// handler goroutine.
func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	started := s.started
	s.mu.Unlock()
	if !started {
		http.Error(w, "server is shutting down", http.StatusServiceUnavailable)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.log.Error("websocket upgrade failed", "remote", r.RemoteAddr, "error", err)
		return
	}

	p := newPeer(conn)
	s.trackPeer(p)
	defer s.untrackPeer(p)

	s.sessions.Add(1)
	defer s.sessions.Done()
	s.runSession(p)
}

// runSession drives one connection through handshake, admission and the
// request loop. It owns the socket until teardown.
func (s *Server) runSession(p *peer) {
	log := s.log.With("remote", p.conn.RemoteAddr().String())

	user, err := s.handshake(p, log)
	if err != nil {
		if !isExpectedClose(err) {
			log.Debug("handshake failed", "error", err)
		}
		p.close()
		return
	}

	client := &connectedClient{user: user, peer: p}
	if !s.clients.add(client) {
		_ = p.sendResult(protocol.ErrorResult("User already connected"))
		p.close()
		return
	}
	log = log.With("user", user.UserName, "userId", user.ID)
	log.Info("client connected")

	defer s.teardown(client, log)

	general := s.registry.GeneralRoom()
	general.AddParticipant(user)

	if all := s.registry.RoomsForParticipant(user); len(all) > 0 {
		res, err := protocol.NewResultWith(protocol.ResultSendChats, all)
		if err != nil {
			log.Error("encoding room list", "error", err)
		} else if err := p.sendResult(res); err != nil {
			log.Debug("sending room list", "error", err)
			return
		}
	}

	s.serve(client, log)
}

// handshake runs the admission exchange and returns the admitted user.
func (s *Server) handshake(p *peer, log *slog.Logger) (*chat.User, error) {
	req, err := p.readRequest()
	if err != nil {
		return nil, err
	}
	if req.Kind != protocol.RequestConnect {
		_ = p.sendResult(protocol.ErrorResult("Expected connect request"))
		return nil, errors.New("first request was not connect")
	}

	if s.enableAuth {
		return s.authenticate(p, log)
	}
	return s.openConnect(p)
}

// authenticate answers the initial connect with NeedAuthentication and
// waits for credentials.
func (s *Server) authenticate(p *peer, log *slog.Logger) (*chat.User, error) {
	if err := p.sendResult(protocol.NewResult(protocol.ResultNeedAuthentication)); err != nil {
		return nil, err
	}

	req, err := p.readRequest()
	if err != nil {
		return nil, err
	}

	var successKind protocol.ResultKind
	switch req.Kind {
	case protocol.RequestAuthorization:
		successKind = protocol.ResultSuccessAuthorized
	case protocol.RequestRegistration:
		successKind = protocol.ResultSuccessRegistered
	default:
		_ = p.sendResult(protocol.ErrorResult("Expected authorization or registration"))
		return nil, errors.New("unexpected request during authentication")
	}

	authUser, err := req.AuthUser()
	if err != nil {
		_ = p.sendResult(protocol.ErrorResult("Invalid credentials payload"))
		return nil, err
	}

	var user *chat.User
	if req.Kind == protocol.RequestAuthorization {
		user, err = s.authSvc.Login(s.ctx, authUser)
	} else {
		user, err = s.authSvc.Register(s.ctx, authUser)
	}
	if err != nil {
		switch {
		case errors.Is(err, chat.ErrInvalidCredentials):
			_ = p.sendResult(protocol.ErrorResult("Invalid login or password"))
		case errors.Is(err, chat.ErrLoginTaken):
			_ = p.sendResult(protocol.ErrorResult("Login already taken"))
		default:
			log.Error("authentication backend", "error", err)
			_ = p.sendResult(protocol.ErrorResult("Authentication failed"))
		}
		return nil, err
	}

	res, err := protocol.NewResultWith(successKind, user)
	if err != nil {
		return nil, err
	}
	if err := p.sendResult(res); err != nil {
		return nil, err
	}
	return user, nil
}

// openConnect handles no-auth admission: acknowledge the bare connect,
// then take the user identity from a second connect request.
func (s *Server) openConnect(p *peer) (*chat.User, error) {
	if err := p.sendResult(protocol.NewResult(protocol.ResultConnect)); err != nil {
		return nil, err
	}

	req, err := p.readRequest()
	if err != nil {
		return nil, err
	}
	if req.Kind != protocol.RequestConnect {
		_ = p.sendResult(protocol.ErrorResult("Expected connect request"))
		return nil, errors.New("second request was not connect")
	}

	authUser, err := req.AuthUser()
	if err != nil {
		_ = p.sendResult(protocol.ErrorResult("Invalid user payload"))
		return nil, err
	}

	user := chat.NewUser(authUser.Login, authUser.Language)
	res, err := protocol.NewResultWith(protocol.ResultConnect, user)
	if err != nil {
		return nil, err
	}
	if err := p.sendResult(res); err != nil {
		return nil, err
	}
	return user, nil
}

// serve is the per-session request loop. Requests from one connection are
// handled strictly in order.
func (s *Server) serve(client *connectedClient, log *slog.Logger) {
	for {
		req, err := client.peer.readRequest()
		if err != nil {
			if errors.Is(err, errMalformedRequest) {
				_ = client.peer.sendResult(protocol.ErrorResult("Malformed request"))
				log.Debug("malformed request, closing", "error", err)
			} else if !isExpectedClose(err) {
				log.Debug("read failed", "error", err)
			}
			return
		}
		if req.Kind == protocol.RequestDisconnect {
			log.Info("client requested disconnect")
			return
		}

		res, err := s.dispatch(client, req)
		if err != nil {
			log.Error("dispatch", "kind", req.Kind, "error", err)
			_ = client.peer.sendResult(protocol.ErrorResult("Internal server error"))
			continue
		}
		if res == nil {
			continue
		}
		s.broadcastResult(client, res)
	}
}

// teardown removes the session, closes its socket, tells the other clients
// and only then forgets room membership so the notice still reaches
// everyone who shared a room with the user.
func (s *Server) teardown(client *connectedClient, log *slog.Logger) {
	user := s.clients.remove(client.user.ID)
	client.peer.close()
	if user == nil {
		return
	}

	// No explicit address: the notice reaches every room the user was in,
	// which still lists them at this point.
	msg := chat.NewDirectMessage(user, nil, user.UserName+" disconnected", user.Language)
	res, err := protocol.NewResultWith(protocol.ResultDisconnect, msg)
	if err == nil {
		s.broadcastResult(client, res)
	}

	s.removeUserEverywhere(user)
	log.Info("client disconnected")
}

func isExpectedClose(err error) bool {
	var closeErr *websocket.CloseError
	return errors.As(err, &closeErr)
}
