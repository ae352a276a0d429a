package storage

import (
	"context"
	"errors"
	"fmt"

	"memoria_chatbot/pkg"

	"github.com/redis/go-redis/v9"
)

const memoryPrefix = "memoria:"

// RedisBackend stores each category document under memoria:<category>, so
// several replicas can share one memory.
type RedisBackend struct {
	client *redis.Client
}

// NewRedisBackend connects to redisURL and checks the connection
func NewRedisBackend(ctx context.Context, redisURL string) (*RedisBackend, error) {
	if redisURL == "" {
		return nil, fmt.Errorf("REDIS_URL is required for the redis memory backend")
	}

	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse REDIS_URL: %w", err)
	}

	client := redis.NewClient(opts)

	// Test connection
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &RedisBackend{client: client}, nil
}

// NewRedisBackendFromClient wraps an existing client
func NewRedisBackendFromClient(client *redis.Client) *RedisBackend {
	return &RedisBackend{client: client}
}

func (r *RedisBackend) key(category pkg.Category) string {
	return memoryPrefix + string(category)
}

func (r *RedisBackend) Name() string { return "redis" }

func (r *RedisBackend) Read(ctx context.Context, category pkg.Category) ([]byte, error) {
	data, err := r.client.Get(ctx, r.key(category)).Bytes()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to get memory %s: %w", category, err)
	}
	return data, nil
}

func (r *RedisBackend) Write(ctx context.Context, category pkg.Category, data []byte) error {
	if err := r.client.Set(ctx, r.key(category), data, 0).Err(); err != nil {
		return fmt.Errorf("failed to set memory %s: %w", category, err)
	}
	return nil
}

// Ping tests the Redis connection
func (r *RedisBackend) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close closes the Redis connection
func (r *RedisBackend) Close() error {
	return r.client.Close()
}
