// README: Redis lease keeping a single sweep running across processes.
package completion

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
)

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0
`)

type RedisLease struct {
	redis *redis.Client
	key   string
	ttl   time.Duration
}

func NewRedisLease(client *redis.Client, key string, ttl time.Duration) *RedisLease {
	return &RedisLease{redis: client, key: key, ttl: ttl}
}

// Acquire returns a token when the lease was free. An empty token with a nil
// error means someone else holds it.
func (l *RedisLease) Acquire(ctx context.Context) (string, error) {
	token := uuid.NewString()
	ok, err := l.redis.SetNX(ctx, l.key, token, l.ttl).Result()
	if err != nil {
		return "", fmt.Errorf("acquire lease %s: %w", l.key, err)
	}
	if !ok {
		return "", nil
	}
	return token, nil
}

// Release drops the lease only if token still owns it.
func (l *RedisLease) Release(ctx context.Context, token string) error {
	if err := releaseScript.Run(ctx, l.redis, []string{l.key}, token).Err(); err != nil && err != redis.Nil {
		return fmt.Errorf("release lease %s: %w", l.key, err)
	}
	return nil
}
