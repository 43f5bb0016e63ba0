package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/isow/backend/internal/application/session"
	"github.com/isow/backend/internal/infrastructure/config"
	"github.com/redis/go-redis/v9"
)

// NewRedisClient connects to Redis and checks the connection
func NewRedisClient(cfg config.RedisConfig) (*redis.Client, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
		Password:     cfg.Password,
		DB:           cfg.DB,
		PoolSize:     10,
		MinIdleConns: 2,
		MaxRetries:   3,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}
	return client, nil
}

// RedisSessionStorage implements session.Storage using Redis.
// Sessions survive restarts and are shared between instances.
type RedisSessionStorage struct {
	client    *redis.Client
	keyPrefix string
}

// NewRedisSessionStorage creates a storage over an existing client
func NewRedisSessionStorage(client *redis.Client, keyPrefix string) *RedisSessionStorage {
	if keyPrefix == "" {
		keyPrefix = "isow:session:"
	}
	return &RedisSessionStorage{
		client:    client,
		keyPrefix: keyPrefix,
	}
}

// Get returns the value stored under key
func (s *RedisSessionStorage) Get(ctx context.Context, key string) (string, bool, error) {
	value, err := s.client.Get(ctx, s.keyPrefix+key).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		return "", false, fmt.Errorf("failed to read session key: %w", err)
	}
	return value, true, nil
}

// Set stores value under key. A zero ttl keeps the key until deleted.
func (s *RedisSessionStorage) Set(ctx context.Context, key, value string, ttl time.Duration) error {
	if err := s.client.Set(ctx, s.keyPrefix+key, value, ttl).Err(); err != nil {
		return fmt.Errorf("failed to write session key: %w", err)
	}
	return nil
}

// Delete removes key
func (s *RedisSessionStorage) Delete(ctx context.Context, key string) error {
	if err := s.client.Del(ctx, s.keyPrefix+key).Err(); err != nil {
		return fmt.Errorf("failed to delete session key: %w", err)
	}
	return nil
}

// Ping checks the Redis connection
func (s *RedisSessionStorage) Ping(ctx context.Context) error {
	return s.client.Ping(ctx).Err()
}

// Close closes the Redis client
func (s *RedisSessionStorage) Close() error {
	return s.client.Close()
}

var _ session.Storage = (*RedisSessionStorage)(nil)
