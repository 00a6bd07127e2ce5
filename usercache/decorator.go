package usercache

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-user-cache/cache"
	"github.com/goliatone/go-user-cache/internal/logger"
	"github.com/goliatone/go-user-cache/users"
)

// Interface assertion to ensure CachedService implements users.Service
var _ users.Service = (*CachedService)(nil)

// Option configures a CachedService.
type Option func(*CachedService)

// WithLogger sets the logger used for cache events.
func WithLogger(log *slog.Logger) Option {
	return func(c *CachedService) {
		if log != nil {
			c.log = log
		}
	}
}

// WithMetrics records hits, misses, writes and backend failures.
func WithMetrics(m *Metrics) Option {
	return func(c *CachedService) {
		c.metrics = m
	}
}

// CachedService decorates a users.Service with a cache keyed by user id.
//
// Single user reads are read-through. Updates write the committed result to
// the cache and deletes evict it, in both cases only after the base service
// returned without error. Creates and list reads are not cached.
type CachedService struct {
	base    users.Service
	cache   *cache.Cache[users.Response]
	log     *slog.Logger
	metrics *Metrics
}

// New creates a CachedService that wraps base.
func New(base users.Service, c *cache.Cache[users.Response], opts ...Option) *CachedService {
	s := &CachedService{
		base:  base,
		cache: c,
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// GetUserByID returns the cached user or loads it from the base service
// through the cache's read-through path, so concurrent misses for one id can
// share a single load. A not found result is never cached. A failing cache
// backend is treated as a miss.
func (c *CachedService) GetUserByID(ctx context.Context, id int64) (users.Response, error) {
	var (
		fetched bool
		loaded  users.Response
		baseErr error
	)
	resp, err := c.cache.GetOrFetch(ctx, id, func(ctx context.Context) (users.Response, error) {
		fetched = true
		loaded, baseErr = c.base.GetUserByID(ctx, id)
		return loaded, baseErr
	})

	switch {
	case baseErr != nil:
		return users.Response{}, baseErr
	case err != nil && users.IsNotFound(err):
		// another caller's shared load came back empty
		return users.Response{}, err
	case err != nil:
		c.metrics.failure("get")
		c.log.WarnContext(ctx, "cache read failed", "user_id", id, "error", err)
		if fetched {
			return loaded, nil
		}
		return c.load(ctx, id)
	case fetched:
		c.metrics.miss()
		c.metrics.write("put")
		c.log.DebugContext(ctx, "cache miss", "user_id", id)
		return resp, nil
	default:
		c.metrics.hit()
		c.log.DebugContext(ctx, "cache hit", "user_id", id)
		return resp, nil
	}
}

// load bypasses the read-through path after a cache failure.
func (c *CachedService) load(ctx context.Context, id int64) (users.Response, error) {
	c.metrics.miss()
	resp, err := c.base.GetUserByID(ctx, id)
	if err != nil {
		return users.Response{}, err
	}
	c.put(ctx, id, resp)
	return resp, nil
}

// GetAllUsers passes through to the base service.
func (c *CachedService) GetAllUsers(ctx context.Context) ([]users.Response, error) {
	return c.base.GetAllUsers(ctx)
}

// CreateUser passes through to the base service. The new user is cached on
// its first read.
func (c *CachedService) CreateUser(ctx context.Context, req users.Request) (users.Response, error) {
	return c.base.CreateUser(ctx, req)
}

// UpdateUser updates the user and stores the committed result in the cache.
// Nothing is written to the cache when the update fails.
func (c *CachedService) UpdateUser(ctx context.Context, id int64, req users.Request) (users.Response, error) {
	resp, err := c.base.UpdateUser(ctx, id, req)
	if err != nil {
		return users.Response{}, err
	}

	c.put(ctx, id, resp)
	return resp, nil
}

// DeleteUser deletes the user and evicts its cache entry. The entry is left
// in place when the delete fails.
func (c *CachedService) DeleteUser(ctx context.Context, id int64) error {
	if err := c.base.DeleteUser(ctx, id); err != nil {
		return err
	}

	c.evict(ctx, id)
	return nil
}

// put stores resp under id. If the write fails the entry is evicted so a
// stale value cannot outlive the committed change.
func (c *CachedService) put(ctx context.Context, id int64, resp users.Response) {
	if err := c.cache.Put(ctx, id, resp); err != nil {
		c.metrics.failure("put")
		c.log.WarnContext(ctx, "cache put failed, evicting", "user_id", id, "error", err)
		c.evict(ctx, id)
		return
	}
	c.metrics.write("put")
}

func (c *CachedService) evict(ctx context.Context, id int64) {
	if err := c.cache.Evict(ctx, id); err != nil {
		c.metrics.failure("evict")
		c.log.ErrorContext(ctx, "cache evict failed", "user_id", id, "error", err)
		return
	}
	c.metrics.write("evict")
}
