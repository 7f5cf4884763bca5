package kv

import (
	"context"
	"errors"
	"log/slog"

	"github.com/redis/go-redis/v9"
)

// Redis backs the Store contract onto a Redis server. Values are stored
// without expiry; the conversion cache manages its own TTL semantics.
type Redis struct {
	client *redis.Client
	prefix string
	logger *slog.Logger
}

// NewRedis creates a store from a redis URL such as
// redis://localhost:6379/0.
func NewRedis(url, prefix string, logger *slog.Logger) (*Redis, error) {
	opt, err := redis.ParseURL(url)
	if err != nil {
		return nil, err
	}
	return NewRedisWithClient(redis.NewClient(opt), prefix, logger), nil
}

// NewRedisWithClient wraps an existing client; used by tests with redismock.
func NewRedisWithClient(client *redis.Client, prefix string, logger *slog.Logger) *Redis {
	if logger == nil {
		logger = slog.Default()
	}
	return &Redis{client: client, prefix: prefix, logger: logger}
}

func (r *Redis) key(key string) string {
	return r.prefix + key
}

func (r *Redis) Get(ctx context.Context, key string) (string, bool, error) {
	val, err := r.client.Get(ctx, r.key(key)).Result()
	if errors.Is(err, redis.Nil) {
		return "", false, nil
	}
	if err != nil {
		r.logger.Error("redis get failed", "key", key, "error", err)
		return "", false, err
	}
	return val, true, nil
}

func (r *Redis) Set(ctx context.Context, key, value string) error {
	if err := r.client.Set(ctx, r.key(key), value, 0).Err(); err != nil {
		r.logger.Error("redis set failed", "key", key, "error", err)
		return err
	}
	return nil
}

func (r *Redis) Remove(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		r.logger.Error("redis del failed", "key", key, "error", err)
		return err
	}
	return nil
}
