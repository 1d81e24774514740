package database

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"eflyt-phone-lookup/internal/common/config"
)

// RedisClient wraps the Redis client
type RedisClient struct {
	Client *redis.Client
}

// NewRedis creates a new Redis client
func NewRedis(cfg config.RedisConfig) *RedisClient {
	rdb := redis.NewClient(&redis.Options{
		Addr:         cfg.Address,
		Password:     cfg.Password,
		DB:           cfg.DB,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
		PoolSize:     4,
	})
	return &RedisClient{Client: rdb}
}

// Ping tests the Redis connection
func (c *RedisClient) Ping(ctx context.Context) error {
	if err := c.Client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the Redis connection
func (c *RedisClient) Close() error {
	if c.Client != nil {
		return c.Client.Close()
	}
	return nil
}

// Deletes the key only while it still holds our owner token.
var releaseScript = redis.NewScript(`
if redis.call("get", KEYS[1]) == ARGV[1] then
	return redis.call("del", KEYS[1])
end
return 0
`)

// RunLock keeps two robot runs from working the same mailbox at once.
type RunLock struct {
	client redis.Cmdable
	key    string
	ttl    time.Duration
	owner  string
}

// NewRunLock creates a lock on key held by owner. The lock expires after
// ttl so a crashed run cannot block later ones forever.
func NewRunLock(client redis.Cmdable, key string, ttl time.Duration, owner string) *RunLock {
	return &RunLock{client: client, key: key, ttl: ttl, owner: owner}
}

func (l *RunLock) Key() string { return l.key }

// Acquire reports false when another owner holds the lock.
func (l *RunLock) Acquire(ctx context.Context) (bool, error) {
	ok, err := l.client.SetNX(ctx, l.key, l.owner, l.ttl).Result()
	if err != nil {
		return false, fmt.Errorf("acquire run lock %s: %w", l.key, err)
	}
	return ok, nil
}

// Release is a no-op if the lock expired and was taken by someone else.
func (l *RunLock) Release(ctx context.Context) error {
	if err := releaseScript.Run(ctx, l.client, []string{l.key}, l.owner).Err(); err != nil {
		return fmt.Errorf("release run lock %s: %w", l.key, err)
	}
	return nil
}
