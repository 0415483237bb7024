package auth

import (
	"context"
	"sync"

	"github.com/Lairnan/LairnanChat/internal/chat"
)

// MemoryStore keeps credentials in a process-local map. Suitable for
// development and tests; accounts do not survive a restart.
type MemoryStore struct {
	mu    sync.RWMutex
	creds map[string]*chat.AuthUser
}

// NewMemoryStore returns an empty in-memory credential store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{creds: make(map[string]*chat.AuthUser)}
}

func (s *MemoryStore) Create(_ context.Context, cred *chat.AuthUser) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.creds[cred.Login]; ok {
		return chat.ErrLoginTaken
	}
	s.creds[cred.Login] = cred
	return nil
}

func (s *MemoryStore) ByLogin(_ context.Context, login string) (*chat.AuthUser, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	cred, ok := s.creds[login]
	if !ok {
		return nil, chat.ErrInvalidCredentials
	}
	return cred, nil
}
