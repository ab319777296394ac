package app

import (
	"context"
	"fmt"
	"time"

	"trivia-arcade/internal/domain"
	"trivia-arcade/internal/game"
)

// SessionRepository tracks live game sessions per connected player.
type SessionRepository interface {
	GetOrCreate(ownerID string, user *domain.User) *game.Session
	Get(ownerID string) (*game.Session, bool)
	Delete(ownerID string)
}

// LeaderboardReader serves the stored top-10 boards.
type LeaderboardReader interface {
	GetLeaderboard(ctx context.Context, mode domain.Mode, date string) ([]domain.LeaderboardEntry, error)
}

// GameService ties connections to their session state machine and exposes the
// read-side use cases that live outside a session.
type GameService struct {
	sessions SessionRepository
	boards   LeaderboardReader
	now      func() time.Time
}

func NewGameService(sessions SessionRepository, boards LeaderboardReader) *GameService {
	return &GameService{sessions: sessions, boards: boards, now: time.Now}
}

// Attach returns the player's session, creating one on first contact.
func (s *GameService) Attach(ownerID string, user *domain.User) *game.Session {
	return s.sessions.GetOrCreate(ownerID, user)
}

// Detach tears the player's session down.
func (s *GameService) Detach(ownerID string) {
	s.sessions.Delete(ownerID)
}

// Session looks up a live session without creating one.
func (s *GameService) Session(ownerID string) (*game.Session, error) {
	session, ok := s.sessions.Get(ownerID)
	if !ok {
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

// Leaderboard returns the top 10 for a mode; daily boards cover today only.
func (s *GameService) Leaderboard(ctx context.Context, mode domain.Mode) ([]domain.LeaderboardEntry, error) {
	if mode != domain.ModeEndless && mode != domain.ModeDaily {
		return nil, fmt.Errorf("no leaderboard for mode %q", mode)
	}
	return s.boards.GetLeaderboard(ctx, mode, s.now().Format("2006-01-02"))
}
