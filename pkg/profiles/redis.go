package profiles

import (
	"context"
	"fmt"

	"github.com/redis/go-redis/v9"
)

const keyPrefix = "cpwidget:profile:"

type redisStore struct {
	rdb *redis.Client
}

func NewRedisStore(rdb *redis.Client) Store {
	return &redisStore{rdb: rdb}
}

func profileKey(userID string) string { return keyPrefix + userID }

func (s *redisStore) Get(ctx context.Context, userID string) (map[string]string, error) {
	m, err := s.rdb.HGetAll(ctx, profileKey(userID)).Result()
	if err != nil {
		return nil, fmt.Errorf("profiles: redis get: %w", err)
	}
	if len(m) == 0 {
		return nil, ErrNotFound
	}
	return m, nil
}

// Set issues a single HSET so every field lands together.
func (s *redisStore) Set(ctx context.Context, userID string, fields map[string]string) error {
	key := profileKey(userID)
	n, err := s.rdb.Exists(ctx, key).Result()
	if err != nil {
		return fmt.Errorf("profiles: redis exists: %w", err)
	}
	if n == 0 {
		return ErrNotFound
	}
	if len(fields) == 0 {
		return nil
	}
	if err := s.rdb.HSet(ctx, key, fields).Err(); err != nil {
		return fmt.Errorf("profiles: redis set: %w", err)
	}
	return nil
}

// SeedRedis creates profiles for the given users (id -> email).
func SeedRedis(ctx context.Context, rdb *redis.Client, emails map[string]string) error {
	for id, email := range emails {
		if err := rdb.HSet(ctx, profileKey(id), EmailField, email).Err(); err != nil {
			return err
		}
	}
	return nil
}
