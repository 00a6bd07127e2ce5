package cacheinfra

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"time"

	redis "github.com/redis/go-redis/v9"
)

// RedisService is the shared cache backend. Entries expire after Config.TTL.
type RedisService struct {
	client  *redis.Client
	prefix  string
	ttl     time.Duration
	timeout time.Duration
	log     *slog.Logger
}

// NewRedisService connects to Redis and verifies the connection with PING.
func NewRedisService(cfg Config, log *slog.Logger) (*RedisService, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if cfg.Backend != BackendRedis {
		return nil, &ConfigError{Field: "Backend", Message: "redis adapter requires the redis backend"}
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Redis.Addr,
		Password: cfg.Redis.Password,
		DB:       cfg.Redis.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, err
	}

	return newRedisService(client, cfg, log), nil
}

func newRedisService(client *redis.Client, cfg Config, log *slog.Logger) *RedisService {
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	timeout := cfg.Redis.Timeout
	if timeout <= 0 {
		timeout = 250 * time.Millisecond
	}
	return &RedisService{
		client:  client,
		prefix:  cfg.Redis.KeyPrefix,
		ttl:     cfg.TTL,
		timeout: timeout,
		log:     log,
	}
}

// Get returns the stored bytes. redis.Nil is reported as a miss.
func (s *RedisService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	value, err := s.client.Get(ctx, s.prefix+key).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return value, true, nil
}

// Set stores value with the configured TTL.
func (s *RedisService) Set(ctx context.Context, key string, value []byte) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Set(ctx, s.prefix+key, value, s.ttl).Err()
}

// Delete removes key. Deleting a missing key is not an error.
func (s *RedisService) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()
	return s.client.Del(ctx, s.prefix+key).Err()
}

// GetOrFetch reads key and falls back to fetchFn on a miss. A failed read is
// treated as a miss and a failed write is logged; neither fails the call.
func (s *RedisService) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) ([]byte, error)) ([]byte, error) {
	if fetchFn == nil {
		return nil, &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	value, ok, err := s.Get(ctx, key)
	if err != nil {
		s.logRedisError(ctx, "get", key, err)
	}
	if ok {
		return value, nil
	}

	value, err = fetchFn(ctx)
	if err != nil {
		return nil, err
	}

	if err := s.Set(ctx, key, value); err != nil {
		s.logRedisError(ctx, "set", key, err)
	}
	return value, nil
}

// Close releases the underlying connection pool.
func (s *RedisService) Close() error {
	return s.client.Close()
}

func (s *RedisService) logRedisError(ctx context.Context, op, key string, err error) {
	s.log.WarnContext(ctx, "redis cache operation failed", "op", op, "key", key, "error", err)
}
