package config

import (
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-user-cache/cache"
	"github.com/goliatone/go-user-cache/internal/store"
)

// Config holds runtime configuration for the user service.
type Config struct {
	Environment string
	Addr        string
	LogLevel    string

	DBDriver       string
	DBDSN          string
	DBMaxOpenConns int
	DBAutoMigrate  bool
	DBSlowQuery    time.Duration

	CacheBackend          string
	CacheNamespace        string
	CacheCapacity         int
	CacheShards           int
	CacheTTL              time.Duration
	CacheEvictionPercent  int
	CacheEvictionInterval time.Duration

	RedisAddr     string
	RedisPassword string
	RedisDB       int

	ShutdownTimeout time.Duration
}

// Load constructs a Config from environment variables.
func Load() Config {
	defaults := cache.DefaultConfig()

	return Config{
		Environment: GetString("APP_ENV", "development"),
		Addr:        GetString("HTTP_ADDR", ":8080"),
		LogLevel:    GetString("LOG_LEVEL", "info"),

		DBDriver:       GetString("DB_DRIVER", store.DriverSQLite),
		DBDSN:          GetString("DB_DSN", "file:users.db?_busy_timeout=5000"),
		DBMaxOpenConns: GetInt("DB_MAX_OPEN_CONNS", 10),
		DBAutoMigrate:  GetBool("DB_AUTO_MIGRATE", true),
		DBSlowQuery:    GetDuration("DB_SLOW_QUERY", 200*time.Millisecond),

		CacheBackend:          GetString("CACHE_BACKEND", cache.BackendMemory),
		CacheNamespace:        GetString("CACHE_NAMESPACE", "users"),
		CacheCapacity:         GetInt("CACHE_CAPACITY", defaults.Capacity),
		CacheShards:           GetInt("CACHE_SHARDS", defaults.NumShards),
		CacheTTL:              GetDuration("CACHE_TTL", defaults.TTL),
		CacheEvictionPercent:  GetInt("CACHE_EVICTION_PERCENT", defaults.EvictionPercentage),
		CacheEvictionInterval: GetDuration("CACHE_EVICTION_INTERVAL", 0),

		RedisAddr:     GetString("REDIS_ADDR", ""),
		RedisPassword: GetString("REDIS_PASSWORD", ""),
		RedisDB:       GetInt("REDIS_DB", 0),

		ShutdownTimeout: GetDuration("SHUTDOWN_TIMEOUT", 10*time.Second),
	}
}

// Validate checks the service level settings. Cache sizing is validated by
// cache.Config.
func (c Config) Validate() error {
	return validation.ValidateStruct(&c,
		validation.Field(&c.Addr, validation.Required),
		validation.Field(&c.DBDriver, validation.Required,
			validation.In(store.DriverSQLite, store.DriverPostgres, store.DriverPgx, store.DriverMySQL)),
		validation.Field(&c.DBDSN, validation.Required),
		validation.Field(&c.DBMaxOpenConns, validation.Min(0)),
		validation.Field(&c.CacheBackend, validation.Required,
			validation.In(cache.BackendMemory, cache.BackendRedis)),
		validation.Field(&c.RedisAddr,
			validation.When(c.CacheBackend == cache.BackendRedis, validation.Required)),
		validation.Field(&c.ShutdownTimeout, validation.Min(time.Duration(0))),
	)
}

// Store returns the database settings.
func (c Config) Store() store.Config {
	return store.Config{
		Driver:       c.DBDriver,
		DSN:          c.DBDSN,
		MaxOpenConns: c.DBMaxOpenConns,
		SlowQuery:    c.DBSlowQuery,
	}
}

// Cache returns the cache backend settings.
func (c Config) Cache() cache.Config {
	cfg := cache.DefaultConfig()
	cfg.Backend = c.CacheBackend
	cfg.Capacity = c.CacheCapacity
	cfg.NumShards = c.CacheShards
	cfg.TTL = c.CacheTTL
	cfg.EvictionPercentage = c.CacheEvictionPercent
	cfg.EvictionInterval = c.CacheEvictionInterval
	cfg.Redis.Addr = c.RedisAddr
	cfg.Redis.Password = c.RedisPassword
	cfg.Redis.DB = c.RedisDB
	return cfg
}
