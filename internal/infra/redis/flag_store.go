package redis

import (
	"context"
	"time"

	"github.com/redis/go-redis/v9"
)

// FlagStore records the date a player last completed a daily challenge per
// category. Only today's value matters, so entries expire after two days.
type FlagStore struct {
	client *redis.Client
}

func NewFlagStore(client *redis.Client) *FlagStore {
	return &FlagStore{client: client}
}

func (s *FlagStore) DailyDone(ctx context.Context, ownerID, category string) (string, error) {
	date, err := s.client.Get(ctx, s.key(ownerID, category)).Result()
	if err == redis.Nil {
		return "", nil
	}
	return date, err
}

func (s *FlagStore) MarkDailyDone(ctx context.Context, ownerID, category, date string) error {
	return s.client.Set(ctx, s.key(ownerID, category), date, 48*time.Hour).Err()
}

func (s *FlagStore) key(ownerID, category string) string {
	return "dailydone:" + ownerID + ":" + slug(category)
}
