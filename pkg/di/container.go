package di

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"

	"github.com/goliatone/go-user-cache/cache"
	"github.com/goliatone/go-user-cache/internal/config"
	"github.com/goliatone/go-user-cache/internal/httpapi"
	"github.com/goliatone/go-user-cache/internal/logger"
	"github.com/goliatone/go-user-cache/internal/store"
	"github.com/goliatone/go-user-cache/usercache"
	"github.com/goliatone/go-user-cache/users"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Container wires the user service from a config.Config.
// It owns the database handle and the cache backend and releases both on Close.
type Container struct {
	config        config.Config
	log           *slog.Logger
	db            *store.DB
	cacheService  cache.CacheService
	closeCache    func() error
	keySerializer cache.KeySerializer
	registry      *prometheus.Registry
	metrics       *usercache.Metrics
	base          users.Service
	users         users.Service
	handler       *httpapi.Router
}

// NewContainer opens the database, applies migrations when DBAutoMigrate is
// set, creates the configured cache backend and assembles the cached service
// and its HTTP handler.
func NewContainer(ctx context.Context, cfg config.Config, log *slog.Logger) (*Container, error) {
	if log == nil {
		log = logger.Discard()
	}
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("di: invalid config: %w", err)
	}

	db, err := store.Open(ctx, cfg.Store(), log.With("component", "store"))
	if err != nil {
		return nil, err
	}

	if cfg.DBAutoMigrate {
		if err := migrate(ctx, db, log); err != nil {
			_ = db.Close()
			return nil, err
		}
	}

	cacheService, closeCache, err := cache.NewCacheService(cfg.Cache(), log.With("component", "cache"))
	if err != nil {
		_ = db.Close()
		return nil, err
	}

	c := &Container{
		config:        cfg,
		log:           log,
		db:            db,
		cacheService:  cacheService,
		closeCache:    closeCache,
		keySerializer: cache.NewDefaultKeySerializer(),
		registry:      prometheus.NewRegistry(),
	}
	c.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		collectors.NewDBStatsCollector(db.DB.DB, "users"),
	)
	c.metrics = usercache.NewMetrics(c.registry)

	c.base = users.NewService(store.NewUserStore(db.DB), users.WithLogger(log.With("component", "users")))
	c.users = usercache.New(c.base, NewCache[users.Response](c),
		usercache.WithLogger(log.With("component", "usercache")),
		usercache.WithMetrics(c.metrics),
	)

	c.handler = httpapi.New(log.With("component", "http"), c.users,
		httpapi.WithHealthCheck("database", db.PingContext),
		httpapi.WithHealthCheck("cache", c.checkCache),
		httpapi.WithMetricsHandler(promhttp.HandlerFor(c.registry, promhttp.HandlerOpts{})),
	)

	return c, nil
}

func migrate(ctx context.Context, db *store.DB, log *slog.Logger) error {
	m, err := store.NewMigrator(db.DB.DB, db.MigrationDialect(), log.With("component", "migrate"))
	if err != nil {
		return err
	}
	return m.Up(ctx)
}

// checkCache round trips a marker entry through the cache backend.
func (c *Container) checkCache(ctx context.Context) error {
	key := c.keySerializer.SerializeKey("health", "check")
	if err := c.cacheService.Set(ctx, key, []byte("ok")); err != nil {
		return err
	}
	return c.cacheService.Delete(ctx, key)
}

// Config returns a copy of the configuration used by this container.
func (c *Container) Config() config.Config {
	return c.config
}

// DB returns the database handle.
func (c *Container) DB() *store.DB {
	return c.db
}

// CacheService returns the singleton cache backend.
func (c *Container) CacheService() cache.CacheService {
	return c.cacheService
}

// KeySerializer returns the key serializer shared by every typed cache.
func (c *Container) KeySerializer() cache.KeySerializer {
	return c.keySerializer
}

// Registry returns the Prometheus registry served on /metrics.
func (c *Container) Registry() *prometheus.Registry {
	return c.registry
}

// Users returns the cached user service.
func (c *Container) Users() users.Service {
	return c.users
}

// BaseUsers returns the service without the cache in front of it.
func (c *Container) BaseUsers() users.Service {
	return c.base
}

// Handler returns the HTTP handler exposing Users.
func (c *Container) Handler() http.Handler {
	return c.handler
}

// Close releases the cache backend and the database.
func (c *Container) Close() error {
	var errs []error
	if c.closeCache != nil {
		errs = append(errs, c.closeCache())
	}
	if c.db != nil {
		errs = append(errs, c.db.Close())
	}
	return errors.Join(errs...)
}

// NewCache returns a typed cache over the container's backend, namespaced by
// Config.CacheNamespace.
//
// Since Go methods cannot have type parameters, this is provided as a package-level function.
// Example: NewCache[users.Response](container)
func NewCache[V any](c *Container) *cache.Cache[V] {
	opts := []cache.Option{cache.WithKeySerializer(c.keySerializer)}
	if c.config.CacheNamespace != "" {
		opts = append(opts, cache.WithNamespace(c.config.CacheNamespace))
	}
	return cache.New[V](c.cacheService, opts...)
}
