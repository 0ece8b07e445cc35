package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/go-redis/redis/v8"
	"github.com/google/uuid"

	"ai-coach-chat/internal/domain"
)

// ErrLockLost is returned by Unlock when the lease expired or was taken over
// before release.
var ErrLockLost = errors.New("lock lease lost before release")

// compare-and-delete: only the token holder frees the key
var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// RedisLocker hands out single-holder leases keyed by name.
type RedisLocker struct {
	cli *redis.Client
}

func NewLocker(c *Client) *RedisLocker {
	return &RedisLocker{cli: c.cli}
}

// TryLock makes a single SET NX attempt and returns the lease token.
func (l *RedisLocker) TryLock(ctx context.Context, key string, ttl time.Duration) (string, error) {
	if ttl <= 0 {
		return "", fmt.Errorf("lock %s: ttl must be positive", key)
	}
	token := uuid.NewString()
	acquired, err := l.cli.SetNX(ctx, key, token, ttl).Result()
	switch {
	case err != nil:
		return "", fmt.Errorf("lock %s: %w", key, err)
	case !acquired:
		return "", domain.ErrLockNotAcquired
	}
	return token, nil
}

func (l *RedisLocker) Unlock(ctx context.Context, key, token string) error {
	n, err := releaseScript.Run(ctx, l.cli, []string{key}, token).Int()
	if err != nil {
		return fmt.Errorf("unlock %s: %w", key, err)
	}
	if n == 0 {
		return ErrLockLost
	}
	return nil
}
