package utils

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"booking-engine/internal/status"

	"github.com/redis/go-redis/v9"
)

// releaseScript deletes the key only while it still holds our token, so a
// lock that expired and was taken by another worker is left alone.
const releaseScript = `
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`

// RedisLocker hands out short-lived SET NX locks.
type RedisLocker struct {
	redis *redis.Client
	token func() (string, error)
}

func NewRedisLocker(client *redis.Client) *RedisLocker {
	return &RedisLocker{
		redis: client,
		token: func() (string, error) { return GenerateCode(8) },
	}
}

// Acquire takes key for ttl. It returns status.ErrLockNotAcquired while
// another holder owns the key. The returned release func is safe to call
// more than once.
func (l *RedisLocker) Acquire(ctx context.Context, key string, ttl time.Duration) (func(), error) {
	token, err := l.token()
	if err != nil {
		return nil, fmt.Errorf("lock token: %w", err)
	}

	ok, err := l.redis.SetNX(ctx, key, token, ttl).Result()
	if err != nil {
		return nil, fmt.Errorf("acquire %s: %w", key, err)
	}
	if !ok {
		return nil, status.ErrLockNotAcquired
	}

	released := false
	return func() {
		if released {
			return
		}
		released = true
		// the caller's ctx may already be cancelled
		releaseCtx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
		defer cancel()
		if err := l.redis.Eval(releaseCtx, releaseScript, []string{key}, token).Err(); err != nil {
			slog.Warn("Failed to release lock", "key", key, "error", err)
		}
	}, nil
}
