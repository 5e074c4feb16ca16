package quota

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisCounter persists daily usage so quota survives restarts and is
// shared across instances.
type RedisCounter struct {
	client *redis.Client
}

func NewRedisCounter(client *redis.Client) *RedisCounter {
	return &RedisCounter{client: client}
}

func (c *RedisCounter) Add(ctx context.Context, day string, n int, expireAt time.Time) (int, error) {
	key := c.key(day)
	total, err := c.client.IncrBy(ctx, key, int64(n)).Result()
	if err != nil {
		return 0, err
	}
	// Expiry keeps stale day keys from accumulating. Setting it on every
	// increment is idempotent.
	if err := c.client.ExpireAt(ctx, key, expireAt).Err(); err != nil {
		return int(total), err
	}
	return int(total), nil
}

func (c *RedisCounter) Get(ctx context.Context, day string) (int, error) {
	val, err := c.client.Get(ctx, c.key(day)).Int()
	if errors.Is(err, redis.Nil) {
		return 0, nil
	}
	return val, err
}

func (c *RedisCounter) key(day string) string {
	return "quota:" + day
}
