// Package usercache provides a caching decorator for users.Service.
//
// # Overview
//
// CachedService wraps a base users.Service and keeps a cache of
// users.Response values keyed by user id. The base service owns the store
// transactions; the decorator only touches the cache once the base call has
// returned, so the cache never observes an uncommitted write.
//
// # Basic Usage
//
//	svc, closeFn, err := cache.NewCacheService(cache.DefaultConfig(), logger)
//	if err != nil {
//		return err
//	}
//	defer closeFn()
//
//	base := users.NewService(store)
//	cached := usercache.New(base, cache.New[users.Response](svc),
//		usercache.WithLogger(logger),
//		usercache.WithMetrics(usercache.NewMetrics(prometheus.DefaultRegisterer)),
//	)
//
// # Cache Behavior
//
//   - GetUserByID: read-through. A hit is returned without calling the base
//     service. A miss loads from the base service through the cache's
//     GetOrFetch and stores the result. On the memory backend concurrent
//     misses for one id share a single load. Not found results are never
//     cached.
//   - UpdateUser: write-through. The committed response replaces the entry.
//   - DeleteUser: the entry is evicted after a successful delete.
//   - CreateUser, GetAllUsers: pass-through.
//
// # Error Handling
//
// Errors from the base service are returned unchanged and leave the cache
// untouched. Cache backend failures never fail an operation: a failed read
// counts as a miss, and a failed write-through falls back to an eviction so a
// stale entry is not served.
//
// # Consistency
//
// Two concurrent updates of the same id may reach the cache in a different
// order than they committed, in which case the entry holds the earlier
// result until the next write for that id.
package usercache
