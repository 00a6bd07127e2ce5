// Package users holds the User entity, its caller facing projection and the
// service that runs each operation inside one store transaction.
//
// Persistence is reached through the Gateway interface, which is only valid
// inside the callback passed to Store.ReadOnly or Store.ReadWrite. The
// service itself never caches; wrap it with usercache.New for that.
//
// Lookups of a missing id fail with an error matching ErrNotFound:
//
//	resp, err := svc.GetUserByID(ctx, 42)
//	if users.IsNotFound(err) {
//		// 404
//	}
package users
