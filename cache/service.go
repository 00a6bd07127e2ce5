package cache

import (
	"context"
	"fmt"
)

// KeySerializer builds a cache key from a namespace and arbitrary args.
// It is responsible for producing stable keys across calls.
type KeySerializer interface {
	SerializeKey(namespace string, args ...any) string
}

// FetchFn is the function signature used to load a value from the source of truth.
type FetchFn[T any] func(ctx context.Context) (T, error)

// CacheService is the byte level backend behind Cache. Implementations must
// tolerate concurrent Get/Set/Delete on the same key.
type CacheService interface {
	// Get returns the stored bytes and true, or false on a miss.
	Get(ctx context.Context, key string) ([]byte, bool, error)
	Set(ctx context.Context, key string, value []byte) error
	Delete(ctx context.Context, key string) error
	// GetOrFetch returns the stored value or calls fetchFn on a miss and stores
	// its result. Errors from fetchFn are returned unchanged and nothing is stored.
	GetOrFetch(ctx context.Context, key string, fetchFn func(context.Context) ([]byte, error)) ([]byte, error)
}

// Option configures a Cache.
type Option func(*settings)

type settings struct {
	codec     Codec
	keys      KeySerializer
	namespace string
}

// WithCodec replaces the default msgpack codec.
func WithCodec(codec Codec) Option {
	return func(s *settings) {
		if codec != nil {
			s.codec = codec
		}
	}
}

// WithKeySerializer replaces the default key serializer.
func WithKeySerializer(keys KeySerializer) Option {
	return func(s *settings) {
		if keys != nil {
			s.keys = keys
		}
	}
}

// WithNamespace sets the key prefix. Defaults to Namespace[V]().
func WithNamespace(namespace string) Option {
	return func(s *settings) {
		if namespace != "" {
			s.namespace = namespace
		}
	}
}

// Cache is a typed view over a CacheService. Values are encoded on write and
// decoded on read, so callers never share memory with a cached entry.
type Cache[V any] struct {
	service   CacheService
	codec     Codec
	keys      KeySerializer
	namespace string
}

// New wraps service in a typed cache for values of type V.
func New[V any](service CacheService, opts ...Option) *Cache[V] {
	s := settings{
		codec:     MsgpackCodec(),
		keys:      NewDefaultKeySerializer(),
		namespace: Namespace[V](),
	}
	for _, opt := range opts {
		opt(&s)
	}
	return &Cache[V]{
		service:   service,
		codec:     s.codec,
		keys:      s.keys,
		namespace: s.namespace,
	}
}

// Key returns the backend key used for id.
func (c *Cache[V]) Key(id any) string {
	return c.keys.SerializeKey(c.namespace, id)
}

// Get returns the cached value for id. A miss returns the zero value and false.
func (c *Cache[V]) Get(ctx context.Context, id any) (V, bool, error) {
	var zero V
	raw, ok, err := c.service.Get(ctx, c.Key(id))
	if err != nil || !ok {
		return zero, false, err
	}
	v, err := c.decode(raw)
	if err != nil {
		return zero, false, err
	}
	return v, true, nil
}

// Put stores value under id, replacing any existing entry.
func (c *Cache[V]) Put(ctx context.Context, id any, value V) error {
	raw, err := c.codec.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache: encode %s: %w", c.namespace, err)
	}
	return c.service.Set(ctx, c.Key(id), raw)
}

// Evict removes the entry for id. Evicting a missing key is not an error.
func (c *Cache[V]) Evict(ctx context.Context, id any) error {
	return c.service.Delete(ctx, c.Key(id))
}

// GetOrFetch is the read-through path: the cached value on a hit, otherwise
// fetchFn's value, which is stored before returning.
func (c *Cache[V]) GetOrFetch(ctx context.Context, id any, fetchFn FetchFn[V]) (V, error) {
	var zero V
	raw, err := c.service.GetOrFetch(ctx, c.Key(id), func(ctx context.Context) ([]byte, error) {
		v, err := fetchFn(ctx)
		if err != nil {
			return nil, err
		}
		b, err := c.codec.Marshal(v)
		if err != nil {
			return nil, fmt.Errorf("cache: encode %s: %w", c.namespace, err)
		}
		return b, nil
	})
	if err != nil {
		return zero, err
	}
	return c.decode(raw)
}

func (c *Cache[V]) decode(raw []byte) (V, error) {
	var v V
	if err := c.codec.Unmarshal(raw, &v); err != nil {
		var zero V
		return zero, fmt.Errorf("cache: decode %s: %w", c.namespace, err)
	}
	return v, nil
}
