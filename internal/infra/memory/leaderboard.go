package memory

import (
	"context"
	"sort"
	"sync"

	"trivia-arcade/internal/domain"
)

// Leaderboard keeps endless and daily scores in memory. Endless entries are
// write-if-greater per user; daily entries always overwrite per
// (user, date, category).
type Leaderboard struct {
	mu      sync.RWMutex
	endless map[string]domain.LeaderboardEntry
	daily   map[string]domain.LeaderboardEntry
}

func NewLeaderboard() *Leaderboard {
	return &Leaderboard{
		endless: make(map[string]domain.LeaderboardEntry),
		daily:   make(map[string]domain.LeaderboardEntry),
	}
}

func (l *Leaderboard) SubmitScore(_ context.Context, mode domain.Mode, entry domain.LeaderboardEntry) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if mode == domain.ModeDaily {
		l.daily[entry.UserID+"|"+entry.Date+"|"+entry.Category] = entry
		return nil
	}
	if existing, ok := l.endless[entry.UserID]; ok && existing.Score >= entry.Score {
		return nil
	}
	l.endless[entry.UserID] = entry
	return nil
}

// GetLeaderboard returns the top 10 by score descending; daily results are
// filtered to the given date.
func (l *Leaderboard) GetLeaderboard(_ context.Context, mode domain.Mode, date string) ([]domain.LeaderboardEntry, error) {
	l.mu.RLock()
	defer l.mu.RUnlock()

	var entries []domain.LeaderboardEntry
	if mode == domain.ModeDaily {
		for _, entry := range l.daily {
			if entry.Date == date {
				entries = append(entries, entry)
			}
		}
	} else {
		for _, entry := range l.endless {
			entries = append(entries, entry)
		}
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].Score != entries[j].Score {
			return entries[i].Score > entries[j].Score
		}
		return entries[i].Name < entries[j].Name
	})
	if len(entries) > 10 {
		entries = entries[:10]
	}
	return entries, nil
}
