package users

import "context"

// Gateway is the persistence contract for User records. Implementations are
// scoped to a single transaction and are only valid inside the callback that
// received them.
type Gateway interface {
	// FindByID returns the user and true, or a zero User and false when absent.
	FindByID(ctx context.Context, id int64) (User, bool, error)
	// FindAll returns every user ordered by id.
	FindAll(ctx context.Context) ([]User, error)
	// Save inserts u when u.ID is zero and updates it otherwise. The returned
	// User carries the store assigned id and timestamps.
	Save(ctx context.Context, u User) (User, error)
	ExistsByID(ctx context.Context, id int64) (bool, error)
	DeleteByID(ctx context.Context, id int64) error
}

// TxFunc runs against a transaction scoped gateway.
type TxFunc func(ctx context.Context, gw Gateway) error

// Store opens transaction scopes over a Gateway. The transaction commits when
// fn returns nil and rolls back on any error or panic.
type Store interface {
	ReadOnly(ctx context.Context, fn TxFunc) error
	ReadWrite(ctx context.Context, fn TxFunc) error
}
