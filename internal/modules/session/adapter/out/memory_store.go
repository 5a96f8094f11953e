package out

import (
	"context"
	"sync"

	"odysseus/internal/modules/session/domain"
	apperrors "odysseus/internal/platform/errors"
)

// MemoryStore satisfies SessionStore and NavigationStore without touching disk.
type MemoryStore struct {
	mu      sync.RWMutex
	session *domain.Session
	nav     domain.Navigation
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{}
}

func (s *MemoryStore) Save(_ context.Context, session domain.Session) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = &session
	return nil
}

func (s *MemoryStore) Load(_ context.Context) (domain.Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if s.session == nil || !s.session.Valid() {
		return domain.Session{}, apperrors.ErrNoSession
	}
	return *s.session, nil
}

func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.session = nil
	return nil
}

func (s *MemoryStore) SaveNavigation(_ context.Context, nav domain.Navigation) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nav = nav
	return nil
}

func (s *MemoryStore) LoadNavigation(_ context.Context) (domain.Navigation, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.nav, nil
}
