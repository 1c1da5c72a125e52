package keys

import (
	"context"
	"errors"
	"fmt"

	"github.com/redis/go-redis/v9"

	"tallyman/pkg/platform/sentinel"
)

// DefaultRedisHash is the hash holding party -> key text.
const DefaultRedisHash = "tallyman:public-keys"

// RedisStore persists the registry in a single Redis hash so every ledger
// process reads the same keys.
type RedisStore struct {
	client redis.Cmdable
	hash   string
}

func NewRedis(client redis.Cmdable) *RedisStore {
	return &RedisStore{client: client, hash: DefaultRedisHash}
}

func (s *RedisStore) Save(ctx context.Context, party, publicKey string) error {
	if err := s.client.HSet(ctx, s.hash, party, publicKey).Err(); err != nil {
		return fmt.Errorf("save public key: %w", err)
	}
	return nil
}

func (s *RedisStore) Find(ctx context.Context, party string) (string, error) {
	key, err := s.client.HGet(ctx, s.hash, party).Result()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return "", sentinel.ErrNotFound
		}
		return "", fmt.Errorf("find public key: %w", err)
	}
	return key, nil
}

func (s *RedisStore) All(ctx context.Context) (map[string]string, error) {
	keys, err := s.client.HGetAll(ctx, s.hash).Result()
	if err != nil {
		return nil, fmt.Errorf("list public keys: %w", err)
	}
	return keys, nil
}
