package memory

import (
	"context"
	"sync"

	"golang.org/x/sync/singleflight"

	"trivia-arcade/internal/domain"
	"trivia-arcade/internal/game"
)

// DailyStore is the in-memory mirror of the Redis daily-set repository:
// generate once per (date, category), then replay.
type DailyStore struct {
	gen game.Generator
	sf  singleflight.Group

	mu   sync.RWMutex
	sets map[string][]domain.TriviaQuestion
}

func NewDailyStore(gen game.Generator) *DailyStore {
	return &DailyStore{
		gen:  gen,
		sets: make(map[string][]domain.TriviaQuestion),
	}
}

func (s *DailyStore) GetOrGenerate(ctx context.Context, date, category string) ([]domain.TriviaQuestion, error) {
	key := date + "|" + category

	s.mu.RLock()
	if set, ok := s.sets[key]; ok {
		s.mu.RUnlock()
		return set, nil
	}
	s.mu.RUnlock()

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		s.mu.RLock()
		if set, ok := s.sets[key]; ok {
			s.mu.RUnlock()
			return set, nil
		}
		s.mu.RUnlock()

		set, err := s.gen.GenerateDailySet(ctx, category)
		if err != nil {
			return nil, err
		}
		s.mu.Lock()
		s.sets[key] = set
		s.mu.Unlock()
		return set, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.TriviaQuestion), nil
}

// FlagStore is the in-memory daily-completion flag map.
type FlagStore struct {
	mu    sync.RWMutex
	flags map[string]string
}

func NewFlagStore() *FlagStore {
	return &FlagStore{flags: make(map[string]string)}
}

func (s *FlagStore) DailyDone(_ context.Context, ownerID, category string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.flags[ownerID+"|"+category], nil
}

func (s *FlagStore) MarkDailyDone(_ context.Context, ownerID, category, date string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.flags[ownerID+"|"+category] = date
	return nil
}
