package redisStore

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/ymatsuda/cardforge/internal/config"
	"github.com/ymatsuda/cardforge/pkg/logger"
)

// Store wraps one redis logical database. Each concern (jobs, quota)
// gets its own Store so keys never collide.
type Store struct {
	client *redis.Client
	Type   int
	logger *logger.Logger
}

// New connects to the configured redis instance and pings it. A nil
// error guarantees the store is usable; callers fall back to in-memory
// stores otherwise.
func New(ctx context.Context, dbType int) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:                  config.RedisAddress(),
		Password:              config.RedisPassword(),
		DB:                    dbType,
		ContextTimeoutEnabled: true,
		ReadTimeout:           30 * time.Second,
		WriteTimeout:          30 * time.Second,
	})

	pingCtx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := client.Ping(pingCtx).Err(); err != nil {
		return nil, fmt.Errorf("redis db %d offline: %w", dbType, err)
	}

	return &Store{
		client: client,
		Type:   dbType,
		logger: logger.New(fmt.Sprintf("redis-store-%d", dbType)),
	}, nil
}

func (s *Store) Close() error {
	return s.client.Close()
}

// Client exposes the underlying connection for callers that need
// redis-native operations (the quota counter's atomic increments).
func (s *Store) Client() *redis.Client {
	return s.client
}

// NewTestStore wires a Store over an existing client, for miniredis.
func NewTestStore(client *redis.Client) *Store {
	return &Store{
		client: client,
		logger: logger.New("redis-store-test"),
	}
}
