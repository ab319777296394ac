package redis

import (
	"context"
	"encoding/json"
	"fmt"
	"regexp"

	"github.com/redis/go-redis/v9"
	"golang.org/x/sync/singleflight"

	"trivia-arcade/internal/domain"
	"trivia-arcade/internal/game"
)

var categorySlug = regexp.MustCompile(`[^a-zA-Z0-9]+`)

func slug(category string) string {
	return categorySlug.ReplaceAllString(category, "_")
}

// DailyStore resolves the fixed per-date per-category question set, generating
// it through the question source on first access and persisting it so every
// player sees the same daily quiz. First writer wins: a SETNX loser discards
// its batch and replays the stored one.
type DailyStore struct {
	client *redis.Client
	gen    game.Generator
	sf     singleflight.Group
}

func NewDailyStore(client *redis.Client, gen game.Generator) *DailyStore {
	return &DailyStore{client: client, gen: gen}
}

func (s *DailyStore) GetOrGenerate(ctx context.Context, date, category string) ([]domain.TriviaQuestion, error) {
	key := s.key(date, category)

	if questions, ok, err := s.lookup(ctx, key); err == nil && ok {
		return questions, nil
	}

	result, err, _ := s.sf.Do(key, func() (interface{}, error) {
		// Re-check in case another goroutine generated while we waited.
		if questions, ok, err := s.lookup(ctx, key); err == nil && ok {
			return questions, nil
		}

		questions, err := s.gen.GenerateDailySet(ctx, category)
		if err != nil {
			return nil, err
		}

		data, err := json.Marshal(questions)
		if err != nil {
			return nil, fmt.Errorf("marshal daily set: %w", err)
		}
		stored, err := s.client.SetNX(ctx, key, data, 0).Result()
		if err != nil {
			// Storage trouble is survivable; this player still gets a quiz.
			return questions, nil
		}
		if !stored {
			if winner, ok, err := s.lookup(ctx, key); err == nil && ok {
				return winner, nil
			}
		}
		return questions, nil
	})
	if err != nil {
		return nil, err
	}
	return result.([]domain.TriviaQuestion), nil
}

// GetDailySet returns the stored set without generating.
func (s *DailyStore) GetDailySet(ctx context.Context, date, category string) ([]domain.TriviaQuestion, bool, error) {
	return s.lookup(ctx, s.key(date, category))
}

// PutDailySet stores a set unconditionally.
func (s *DailyStore) PutDailySet(ctx context.Context, date, category string, questions []domain.TriviaQuestion) error {
	data, err := json.Marshal(questions)
	if err != nil {
		return fmt.Errorf("marshal daily set: %w", err)
	}
	return s.client.Set(ctx, s.key(date, category), data, 0).Err()
}

func (s *DailyStore) lookup(ctx context.Context, key string) ([]domain.TriviaQuestion, bool, error) {
	data, err := s.client.Get(ctx, key).Bytes()
	if err == redis.Nil {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("read daily set: %w", err)
	}
	var questions []domain.TriviaQuestion
	if err := json.Unmarshal(data, &questions); err != nil {
		return nil, false, fmt.Errorf("unmarshal daily set: %w", err)
	}
	return questions, true, nil
}

func (s *DailyStore) key(date, category string) string {
	return "daily:" + date + ":" + slug(category)
}
