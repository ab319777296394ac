package memory

import (
	"sync"

	"trivia-arcade/internal/domain"
	"trivia-arcade/internal/game"
)

// SessionStore keeps one live game session per connected player.
type SessionStore struct {
	deps game.Deps

	mu       sync.RWMutex
	sessions map[string]*game.Session
}

func NewSessionStore(deps game.Deps) *SessionStore {
	return &SessionStore{
		deps:     deps,
		sessions: make(map[string]*game.Session),
	}
}

func (s *SessionStore) GetOrCreate(ownerID string, user *domain.User) *game.Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[ownerID]; ok {
		return session
	}
	session := game.NewSession(ownerID, user, s.deps)
	s.sessions[ownerID] = session
	return session
}

func (s *SessionStore) Get(ownerID string) (*game.Session, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	session, ok := s.sessions[ownerID]
	return session, ok
}

// Delete closes and removes the player's session.
func (s *SessionStore) Delete(ownerID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if session, ok := s.sessions[ownerID]; ok {
		session.Close()
		delete(s.sessions, ownerID)
	}
}
