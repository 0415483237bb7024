// Package auth implements the credential-verification capability consumed
// by the session engine: an allow-all mode for open servers and a
// store-backed mode (in-memory or PostgreSQL) for authenticated ones, plus
// JWT access tokens for the HTTP API.
package auth

import (
	"context"
	"errors"
	"fmt"

	"github.com/Lairnan/LairnanChat/internal/chat"
)

// Service authenticates handshake credentials and synthesizes the session
// user on success.
type Service interface {
	// Login verifies the credentials and returns the session user.
	Login(ctx context.Context, authUser *chat.AuthUser) (*chat.User, error)

	// Register creates an account for the credentials and returns the
	// session user.
	Register(ctx context.Context, authUser *chat.AuthUser) (*chat.User, error)
}

// AllowAll accepts any credentials without verification. Used when the
// server runs with authentication disabled.
type AllowAll struct{}

// NewAllowAll returns the no-verification service.
func NewAllowAll() *AllowAll { return &AllowAll{} }

func (*AllowAll) Login(_ context.Context, authUser *chat.AuthUser) (*chat.User, error) {
	return chat.NewUser(authUser.Login, authUser.Language), nil
}

func (*AllowAll) Register(_ context.Context, authUser *chat.AuthUser) (*chat.User, error) {
	return chat.NewUser(authUser.Login, authUser.Language), nil
}

// CredentialStore persists derived credentials keyed by login. The raw
// password never reaches a store.
type CredentialStore interface {
	// Create stores the credential. Returns chat.ErrLoginTaken if the login
	// already exists.
	Create(ctx context.Context, cred *chat.AuthUser) error

	// ByLogin fetches the stored credential, or chat.ErrInvalidCredentials
	// if the login is unknown.
	ByLogin(ctx context.Context, login string) (*chat.AuthUser, error)
}

// StoreService verifies credentials against a CredentialStore.
type StoreService struct {
	store CredentialStore
}

// NewStoreService wraps a credential store in the Service interface.
func NewStoreService(store CredentialStore) *StoreService {
	return &StoreService{store: store}
}

func (s *StoreService) Login(ctx context.Context, authUser *chat.AuthUser) (*chat.User, error) {
	stored, err := s.store.ByLogin(ctx, authUser.Login)
	if err != nil {
		if errors.Is(err, chat.ErrInvalidCredentials) {
			return nil, chat.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("loading credential: %w", err)
	}
	if !stored.VerifyCredential(authUser.Password) {
		return nil, chat.ErrInvalidCredentials
	}
	language := authUser.Language
	if language == "" {
		language = stored.Language
	}
	return chat.NewUser(authUser.Login, language), nil
}

func (s *StoreService) Register(ctx context.Context, authUser *chat.AuthUser) (*chat.User, error) {
	cred := chat.NewAuthUser(authUser.Login, "", authUser.Language)
	if err := cred.SetCredential(authUser.Password); err != nil {
		return nil, fmt.Errorf("deriving credential: %w", err)
	}
	if err := s.store.Create(ctx, cred); err != nil {
		return nil, err
	}
	return chat.NewUser(authUser.Login, authUser.Language), nil
}
