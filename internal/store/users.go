package store

import (
	"context"
	"database/sql"
	"time"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/goliatone/go-user-cache/users"
	"github.com/uptrace/bun"
)

var (
	_ users.Store   = (*UserStore)(nil)
	_ users.Gateway = (*userGateway)(nil)
)

// UserStore runs users.TxFunc callbacks inside bun transactions. Reads,
// inserts and deletes go through a repository.Repository bound to the
// transaction.
type UserStore struct {
	db   *bun.DB
	repo repository.Repository[*users.User]
	now  func() time.Time
}

// UserStoreOption configures a UserStore.
type UserStoreOption func(*UserStore)

// WithClock replaces time.Now as the source of created_at and updated_at.
func WithClock(now func() time.Time) UserStoreOption {
	return func(s *UserStore) {
		if now != nil {
			s.now = now
		}
	}
}

// NewUserStore returns a users.Store over db.
func NewUserStore(db *bun.DB, opts ...UserStoreOption) *UserStore {
	s := &UserStore{
		db:   db,
		repo: repository.NewRepository[*users.User](db, userHandlers()),
		now:  time.Now,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// ReadOnly runs fn in a read-only transaction.
func (s *UserStore) ReadOnly(ctx context.Context, fn users.TxFunc) error {
	return s.run(ctx, &sql.TxOptions{ReadOnly: true}, fn)
}

// ReadWrite runs fn in a read-write transaction. It commits when fn returns
// nil and rolls back otherwise, including when fn panics.
func (s *UserStore) ReadWrite(ctx context.Context, fn users.TxFunc) error {
	return s.run(ctx, nil, fn)
}

func (s *UserStore) run(ctx context.Context, opts *sql.TxOptions, fn users.TxFunc) error {
	return s.db.RunInTx(ctx, opts, func(ctx context.Context, tx bun.Tx) error {
		return fn(ctx, &userGateway{tx: tx, repo: s.repo, now: s.now})
	})
}

func userHandlers() repository.ModelHandlers[*users.User] {
	return repository.ModelHandlers[*users.User]{
		NewRecord: func() *users.User {
			return &users.User{}
		},
		GetIdentifier: func() string {
			return "email"
		},
	}
}

// userGateway is bound to a single transaction.
type userGateway struct {
	tx   bun.Tx
	repo repository.Repository[*users.User]
	now  func() time.Time
}

func byID(id int64) repository.SelectCriteria {
	return func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Where("u.id = ?", id)
	}
}

func (g *userGateway) FindByID(ctx context.Context, id int64) (users.User, bool, error) {
	found, _, err := g.repo.ListTx(ctx, g.tx, byID(id), func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Limit(1)
	})
	if err != nil {
		return users.User{}, false, err
	}
	if len(found) == 0 || found[0] == nil {
		return users.User{}, false, nil
	}
	u := *found[0]
	normalize(&u)
	return u, true, nil
}

func (g *userGateway) FindAll(ctx context.Context) ([]users.User, error) {
	found, _, err := g.repo.ListTx(ctx, g.tx, func(q *bun.SelectQuery) *bun.SelectQuery {
		return q.Order("u.id ASC")
	})
	if err != nil {
		return nil, err
	}
	all := make([]users.User, 0, len(found))
	for _, u := range found {
		if u == nil {
			continue
		}
		record := *u
		normalize(&record)
		all = append(all, record)
	}
	return all, nil
}

// Save inserts u when it has no id and updates email, name, age and
// updated_at otherwise. updated_at always moves forward.
func (g *userGateway) Save(ctx context.Context, u users.User) (users.User, error) {
	now := g.timestamp()

	if u.ID == 0 {
		u.CreatedAt = now
		u.UpdatedAt = now

		created, err := g.repo.CreateTx(ctx, g.tx, &u)
		if err != nil {
			return users.User{}, err
		}
		out := *created
		normalize(&out)
		return out, nil
	}

	if !now.After(u.UpdatedAt) {
		now = u.UpdatedAt.Add(time.Microsecond)
	}
	u.UpdatedAt = now

	// explicit columns so a cleared age is written as NULL
	res, err := g.tx.NewUpdate().
		Model(&u).
		Column("email", "name", "age", "updated_at").
		WherePK().
		Exec(ctx)
	if err != nil {
		return users.User{}, err
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return users.User{}, &users.NotFoundError{ID: u.ID}
	}
	return u, nil
}

func (g *userGateway) ExistsByID(ctx context.Context, id int64) (bool, error) {
	n, err := g.repo.CountTx(ctx, g.tx, byID(id))
	if err != nil {
		return false, err
	}
	return n > 0, nil
}

func (g *userGateway) DeleteByID(ctx context.Context, id int64) error {
	return g.repo.DeleteWhereTx(ctx, g.tx, func(q *bun.DeleteQuery) *bun.DeleteQuery {
		return q.Where("id = ?", id)
	})
}

// timestamp returns the clock in UTC at the precision every dialect keeps.
func (g *userGateway) timestamp() time.Time {
	return g.now().UTC().Truncate(time.Microsecond)
}

func normalize(u *users.User) {
	u.CreatedAt = u.CreatedAt.UTC()
	u.UpdatedAt = u.UpdatedAt.UTC()
}
