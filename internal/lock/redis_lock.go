package lock

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"claims-service/internal/apperrors"
)

const lockKeyPrefix = "claims:lock:"

// releaseScript deletes the lock key only when it still holds our token, so
// an expired lock re-acquired by another instance is never released by us.
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

// RedisLocker implements Locker with a Redis SET NX lease so the
// one-processor-per-claim guarantee holds across service instances.
type RedisLocker struct {
	client *redis.Client
	ttl    time.Duration
}

func NewRedisLocker(client *redis.Client, ttl time.Duration) *RedisLocker {
	if ttl <= 0 {
		ttl = 5 * time.Minute
	}
	return &RedisLocker{client: client, ttl: ttl}
}

func (l *RedisLocker) Acquire(ctx context.Context, claimID string) (func(), error) {
	key := lockKeyPrefix + claimID
	token := uuid.NewString()

	ok, err := l.client.SetNX(ctx, key, token, l.ttl).Result()
	if err != nil {
		return nil, apperrors.Operational("failed to acquire claim lock", err)
	}
	if !ok {
		return nil, apperrors.Conflict(fmt.Sprintf("claim %s is already being processed", claimID))
	}

	var once sync.Once
	return func() {
		once.Do(func() {
			releaseCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := releaseScript.Run(releaseCtx, l.client, []string{key}, token).Err(); err != nil {
				slog.Warn("Failed to release claim lock", "claim_id", claimID, "error", err)
			}
		})
	}, nil
}
