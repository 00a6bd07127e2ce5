// Package cache provides a typed cache over byte level backends.
//
// # Overview
//
// The package exports two interfaces and a typed wrapper:
//
//   - CacheService: the byte level backend (in-process sturdyc or Redis)
//   - KeySerializer: builds stable keys from a namespace and arguments
//   - Cache[V]: encodes values with a Codec and addresses them by id
//
// Every value read from a Cache is decoded from stored bytes, so callers
// never hold a reference into the cache and mutating a returned value has no
// effect on later reads.
//
// # Basic Usage
//
//	svc, closeFn, err := cache.NewCacheService(cache.DefaultConfig(), logger)
//	if err != nil {
//		return err
//	}
//	defer closeFn()
//
//	respCache := cache.New[users.Response](svc)
//	resp, err := respCache.GetOrFetch(ctx, id, func(ctx context.Context) (users.Response, error) {
//		return base.GetUserByID(ctx, id)
//	})
//
// # Keys
//
// Keys have the form namespace::id. The namespace defaults to the snake cased
// qualified type name of V (users.Response becomes users_response) and can be
// replaced with WithNamespace. Integer ids of any width produce the same key.
//
// # Backends
//
// Config.Backend selects "memory" (sturdyc, the default) or "redis". The
// memory backend keeps early refresh and missing record storage off unless
// configured, so a hit never calls back into the fetch function.
package cache
