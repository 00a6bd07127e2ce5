package cacheinfra

import (
	"context"

	"github.com/viccon/sturdyc"
)

// SturdycService is the in-process cache backend built on a sturdyc client.
// Concurrent misses for the same key share a single fetch.
type SturdycService struct {
	client *sturdyc.Client[[]byte]
}

// NewSturdycService creates a new sturdyc cache service adapter.
// Capacity, NumShards, TTL and EvictionPercentage are passed to sturdyc.New();
// the remaining options are applied via ToSturdycOptions().
func NewSturdycService(cfg Config) (*SturdycService, error) {
	if cfg.Backend == "" {
		cfg.Backend = BackendMemory
	}
	if cfg.Backend != BackendMemory {
		return nil, &ConfigError{Field: "Backend", Message: "sturdyc adapter requires the memory backend"}
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	client := sturdyc.New[[]byte](
		cfg.Capacity,
		cfg.NumShards,
		cfg.TTL,
		cfg.EvictionPercentage,
		cfg.ToSturdycOptions()...,
	)

	return &SturdycService{client: client}, nil
}

// Get returns the cached bytes for key.
func (s *SturdycService) Get(ctx context.Context, key string) ([]byte, bool, error) {
	value, ok := s.client.Get(key)
	if !ok {
		return nil, false, nil
	}
	return value, true, nil
}

// Set stores a private copy of value under key.
func (s *SturdycService) Set(ctx context.Context, key string, value []byte) error {
	s.client.Set(key, append([]byte(nil), value...))
	return nil
}

// Delete removes a single entry from the cache.
func (s *SturdycService) Delete(ctx context.Context, key string) error {
	s.client.Delete(key)
	return nil
}

// GetOrFetch delegates to sturdyc, which stores fetchFn's result on success
// and returns its error unchanged otherwise.
func (s *SturdycService) GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) ([]byte, error)) ([]byte, error) {
	if fetchFn == nil {
		return nil, &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}
	return s.client.GetOrFetch(ctx, key, fetchFn)
}

// Size returns the number of entries currently held.
func (s *SturdycService) Size() int {
	return s.client.Size()
}
