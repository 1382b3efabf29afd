package dedup

import (
	"context"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/redis/go-redis/v9"

	"github.com/XavierBriggs/Augur/pkg/contracts"
)

const redisKeyPrefix = "augur:dedup:"

// RedisStore keeps identities in Redis so a restarted process does not
// re-announce candidates. Keys expire after ttl; zero keeps them forever.
type RedisStore struct {
	client *redis.Client
	ttl    time.Duration
}

var _ Store = (*RedisStore)(nil)

// NewRedisStore creates a Redis-backed store
func NewRedisStore(client *redis.Client, ttl time.Duration) *RedisStore {
	return &RedisStore{client: client, ttl: ttl}
}

// Contains checks whether the identity key exists
func (s *RedisStore) Contains(ctx context.Context, id string) (bool, error) {
	exists, err := s.client.Exists(ctx, buildKey(id)).Result()
	if err != nil {
		return false, errors.Mark(errors.Wrap(err, "check dedup key"), contracts.ErrTransport)
	}
	return exists > 0, nil
}

// Add stores the identity key with the configured TTL
func (s *RedisStore) Add(ctx context.Context, id string) error {
	if err := s.client.Set(ctx, buildKey(id), "1", s.ttl).Err(); err != nil {
		return errors.Mark(errors.Wrap(err, "set dedup key"), contracts.ErrTransport)
	}
	return nil
}

// Clear removes an identity (for testing)
func (s *RedisStore) Clear(ctx context.Context, id string) error {
	return s.client.Del(ctx, buildKey(id)).Err()
}

// buildKey creates the Redis key for an identity
// Format: augur:dedup:candidate:{sport}:{home}:{away}:{market}:{outcome}
func buildKey(id string) string {
	return redisKeyPrefix + id
}
