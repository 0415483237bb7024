package user

import (
	"context"

	"github.com/google/uuid"

	"github.com/Lairnan/LairnanChat/internal/auth"
	"github.com/Lairnan/LairnanChat/internal/chat"
)

// Service is the REST-facing account service. It reuses the same
// auth.Service the websocket handshake authenticates against, so a login
// minted here and a login performed in-band see the same credential store.
type Service struct {
	auth   auth.Service
	tokens *auth.TokenIssuer
}

func NewService(authSvc auth.Service, tokens *auth.TokenIssuer) *Service {
	return &Service{auth: authSvc, tokens: tokens}
}

func (s *Service) Register(ctx context.Context, req *CredentialsRequest) (*TokenResponse, error) {
	u, err := s.auth.Register(ctx, chat.NewAuthUser(req.Login, req.Password, req.Language))
	if err != nil {
		return nil, err
	}
	return s.respond(u)
}

func (s *Service) Login(ctx context.Context, req *CredentialsRequest) (*TokenResponse, error) {
	u, err := s.auth.Login(ctx, chat.NewAuthUser(req.Login, req.Password, req.Language))
	if err != nil {
		return nil, err
	}
	return s.respond(u)
}

func (s *Service) respond(u *chat.User) (*TokenResponse, error) {
	token, err := s.tokens.Generate(u)
	if err != nil {
		return nil, err
	}
	return &TokenResponse{AccessToken: token, User: u}, nil
}

// ValidateToken satisfies the middleware's TokenValidator.
func (s *Service) ValidateToken(tokenString string) (*chat.User, error) {
	claims, err := s.tokens.Validate(tokenString)
	if err != nil {
		return nil, err
	}
	id, err := uuid.Parse(claims.UserID)
	if err != nil {
		return nil, auth.ErrInvalidToken
	}
	return &chat.User{ID: id, UserName: claims.UserName, Language: claims.Language}, nil
}
