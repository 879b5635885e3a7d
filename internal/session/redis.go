// internal/session/redis.go
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"loanflow/internal/common/database"
	commonerrors "loanflow/internal/common/errors"
	"loanflow/internal/models"
)

const redisKeyPrefix = "loanflow:session:"

// RedisStore keeps sessions as JSON values with a TTL. Turn serialization is
// per process: a single server instance owns its sessions, so local mutexes
// are sufficient.
type RedisStore struct {
	client *database.RedisClient
	ttl    time.Duration
	locks  *keyedMutex
}

func NewRedisStore(client *database.RedisClient, ttl time.Duration) *RedisStore {
	return &RedisStore{
		client: client,
		ttl:    ttl,
		locks:  newKeyedMutex(),
	}
}

func redisKey(userID string) string {
	return redisKeyPrefix + userID
}

func (r *RedisStore) Get(ctx context.Context, userID string) (*models.Session, error) {
	raw, err := r.client.Get(ctx, redisKey(userID))
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, commonerrors.NewSessionNotFoundError(userID)
		}
		return nil, commonerrors.NewUpstreamUnavailableError("redis", err)
	}

	var sess models.Session
	if err := json.Unmarshal([]byte(raw), &sess); err != nil {
		return nil, fmt.Errorf("decode session %s: %w", userID, err)
	}
	return &sess, nil
}

func (r *RedisStore) Put(ctx context.Context, sess *models.Session) error {
	raw, err := json.Marshal(sess)
	if err != nil {
		return fmt.Errorf("encode session %s: %w", sess.UserID, err)
	}
	if err := r.client.Set(ctx, redisKey(sess.UserID), raw, r.ttl); err != nil {
		return commonerrors.NewUpstreamUnavailableError("redis", err)
	}
	return nil
}

func (r *RedisStore) Delete(ctx context.Context, userID string) error {
	if err := r.client.Del(ctx, redisKey(userID)); err != nil {
		return commonerrors.NewUpstreamUnavailableError("redis", err)
	}
	return nil
}

func (r *RedisStore) Count(ctx context.Context) (int, error) {
	var cursor uint64
	count := 0
	for {
		keys, next, err := r.client.GetClient().Scan(ctx, cursor, redisKeyPrefix+"*", 100).Result()
		if err != nil {
			return 0, commonerrors.NewUpstreamUnavailableError("redis", err)
		}
		count += len(keys)
		cursor = next
		if cursor == 0 {
			return count, nil
		}
	}
}

func (r *RedisStore) Lock(userID string) func() {
	return r.locks.Lock(userID)
}
