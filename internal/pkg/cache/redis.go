package cache

import (
	"context"
	"crypto/md5"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const scanBatchSize = 100

type Config struct {
	Addr     string
	Password string
	DB       int
}

// RedisClient backs the catalog caches and locks. A nil *RedisClient is a
// disabled cache: reads miss and writes are no-ops.
type RedisClient struct {
	Client *redis.Client
}

func NewRedisClient(cfg *Config) (*RedisClient, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return &RedisClient{Client: client}, nil
}

func (c *RedisClient) Close() error {
	if c == nil {
		return nil
	}
	return c.Client.Close()
}

// GetJSON decodes the value stored at key into dest. It reports false on a
// cache miss.
func (c *RedisClient) GetJSON(ctx context.Context, key string, dest any) (bool, error) {
	if c == nil {
		return false, nil
	}
	data, err := c.Client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := json.Unmarshal(data, dest); err != nil {
		return false, err
	}
	return true, nil
}

func (c *RedisClient) SetJSON(ctx context.Context, key string, value any, ttl time.Duration) error {
	if c == nil {
		return nil
	}
	data, err := json.Marshal(value)
	if err != nil {
		return err
	}
	return c.Client.Set(ctx, key, data, ttl).Err()
}

// DeleteByPrefix removes every key starting with prefix using SCAN.
func (c *RedisClient) DeleteByPrefix(ctx context.Context, prefix string) error {
	if c == nil {
		return nil
	}
	var cursor uint64
	for {
		keys, next, err := c.Client.Scan(ctx, cursor, prefix+"*", scanBatchSize).Result()
		if err != nil {
			return err
		}
		if len(keys) > 0 {
			if err := c.Client.Del(ctx, keys...).Err(); err != nil {
				return err
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}

// Invalidate deletes every key under each prefix and returns the first error.
func (c *RedisClient) Invalidate(ctx context.Context, prefixes ...string) error {
	var firstErr error
	for _, p := range prefixes {
		if err := c.DeleteByPrefix(ctx, p); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}

// AcquireLock sets key to value if absent. The lock expires after ttl.
// Without redis every caller gets the lock.
func (c *RedisClient) AcquireLock(ctx context.Context, key, value string, ttl time.Duration) (bool, error) {
	if c == nil {
		return true, nil
	}
	return c.Client.SetNX(ctx, key, value, ttl).Result()
}

var releaseScript = redis.NewScript(`
if redis.call("GET", KEYS[1]) == ARGV[1] then
	return redis.call("DEL", KEYS[1])
end
return 0`)

// ReleaseLock deletes key only if it still holds value.
func (c *RedisClient) ReleaseLock(ctx context.Context, key, value string) error {
	if c == nil {
		return nil
	}
	return releaseScript.Run(ctx, c.Client, []string{key}, value).Err()
}

// HashKey builds "<prefix>:<md5 of params as JSON>".
func HashKey(prefix string, params any) (string, error) {
	data, err := json.Marshal(params)
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%s:%x", prefix, md5.Sum(data)), nil
}
