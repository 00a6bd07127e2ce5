package store

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	"github.com/goliatone/go-user-cache/users"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

// openTestDB returns a migrated in-memory SQLite database.
func openTestDB(t *testing.T) *DB {
	t.Helper()
	ctx := context.Background()

	db, err := Open(ctx, Config{Driver: DriverSQLite, DSN: ":memory:"}, discardLogger())
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { db.Close() })

	m, err := NewMigrator(db.DB.DB, db.MigrationDialect(), discardLogger())
	if err != nil {
		t.Fatalf("NewMigrator() failed: %v", err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("Up() failed: %v", err)
	}
	return db
}

type fixedClock struct {
	now time.Time
}

func (c *fixedClock) Now() time.Time { return c.now }

func intPtr(v int) *int { return &v }

func save(t *testing.T, s *UserStore, u users.User) users.User {
	t.Helper()
	var saved users.User
	err := s.ReadWrite(context.Background(), func(ctx context.Context, gw users.Gateway) error {
		var err error
		saved, err = gw.Save(ctx, u)
		return err
	})
	if err != nil {
		t.Fatalf("Save() failed: %v", err)
	}
	return saved
}

func find(t *testing.T, s *UserStore, id int64) (users.User, bool) {
	t.Helper()
	var (
		u  users.User
		ok bool
	)
	err := s.ReadOnly(context.Background(), func(ctx context.Context, gw users.Gateway) error {
		var err error
		u, ok, err = gw.FindByID(ctx, id)
		return err
	})
	if err != nil {
		t.Fatalf("FindByID() failed: %v", err)
	}
	return u, ok
}

func TestOpen(t *testing.T) {
	ctx := context.Background()

	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "empty dsn", cfg: Config{Driver: DriverSQLite}, wantErr: "DSN must not be empty"},
		{name: "unknown driver", cfg: Config{Driver: "oracle", DSN: "x"}, wantErr: "unsupported driver"},
		{name: "bad mysql dsn", cfg: Config{Driver: DriverMySQL, DSN: "not a dsn"}, wantErr: "parse mysql dsn"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(ctx, tt.cfg, nil)
			if err == nil || !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("expected error containing %q, got %v", tt.wantErr, err)
			}
		})
	}

	t.Run("sqlite defaults", func(t *testing.T) {
		db, err := Open(ctx, Config{DSN: ":memory:"}, nil)
		if err != nil {
			t.Fatalf("Open() failed: %v", err)
		}
		defer db.Close()

		if db.MigrationDialect() != "sqlite3" {
			t.Errorf("expected sqlite3 dialect, got %q", db.MigrationDialect())
		}
		if got := db.DB.DB.Stats().MaxOpenConnections; got != 1 {
			t.Errorf("expected a single sqlite connection, got %d", got)
		}
	})
}

func TestMySQLDSN(t *testing.T) {
	dsn, err := mysqlDSN("app:secret@tcp(localhost:3306)/users")
	if err != nil {
		t.Fatalf("mysqlDSN() failed: %v", err)
	}
	if !strings.Contains(dsn, "parseTime=true") {
		t.Errorf("expected parseTime in %q", dsn)
	}
	if !strings.HasPrefix(dsn, "app:secret@tcp(localhost:3306)/users") {
		t.Errorf("unexpected dsn %q", dsn)
	}
}

func TestMigrator(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)

	m, err := NewMigrator(db.DB.DB, db.MigrationDialect(), discardLogger())
	if err != nil {
		t.Fatal(err)
	}

	if v, err := m.Version(ctx); err != nil || v != 1 {
		t.Fatalf("Version() = %d, %v; want 1", v, err)
	}
	if err := m.Up(ctx); err != nil {
		t.Errorf("Up() should be idempotent: %v", err)
	}
	if err := m.Status(ctx); err != nil {
		t.Errorf("Status() failed: %v", err)
	}

	if err := m.Down(ctx); err != nil {
		t.Fatalf("Down() failed: %v", err)
	}
	if v, err := m.Version(ctx); err != nil || v != 0 {
		t.Errorf("Version() after Down = %d, %v; want 0", v, err)
	}
	if err := m.Up(ctx); err != nil {
		t.Fatalf("Up() after Down failed: %v", err)
	}

	if _, err := NewMigrator(db.DB.DB, "oracle", nil); err == nil {
		t.Error("expected error for unknown dialect")
	}
}

func TestUserStore_Insert(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 123456789, time.FixedZone("X", 3600))}
	s := NewUserStore(openTestDB(t).DB, WithClock(clock.Now))

	first := save(t, s, users.User{Email: "ann@x.com", Name: "Ann", Age: intPtr(30)})
	second := save(t, s, users.User{Email: "bob@x.com", Name: "Bob"})

	if first.ID != 1 || second.ID != 2 {
		t.Fatalf("expected ids 1 and 2, got %d and %d", first.ID, second.ID)
	}

	want := clock.now.UTC().Truncate(time.Microsecond)
	if !first.CreatedAt.Equal(want) || !first.UpdatedAt.Equal(first.CreatedAt) {
		t.Errorf("unexpected timestamps: created %v updated %v", first.CreatedAt, first.UpdatedAt)
	}
	if first.CreatedAt.Location() != time.UTC {
		t.Errorf("expected UTC timestamps, got %v", first.CreatedAt.Location())
	}

	got, ok := find(t, s, 1)
	if !ok {
		t.Fatal("expected user 1 to exist")
	}
	if got.Email != "ann@x.com" || got.Name != "Ann" || got.Age == nil || *got.Age != 30 {
		t.Errorf("unexpected row %+v", got)
	}
	if !got.CreatedAt.Equal(want) {
		t.Errorf("created_at did not round trip: %v != %v", got.CreatedAt, want)
	}

	bob, _ := find(t, s, 2)
	if bob.Age != nil {
		t.Errorf("expected nil age, got %d", *bob.Age)
	}
}

func TestUserStore_UpdateAdvancesUpdatedAt(t *testing.T) {
	clock := &fixedClock{now: time.Date(2024, 3, 1, 12, 0, 0, 0, time.UTC)}
	s := NewUserStore(openTestDB(t).DB, WithClock(clock.Now))

	created := save(t, s, users.User{Email: "ann@x.com", Name: "Ann", Age: intPtr(30)})

	// the clock has not moved, the gateway must still advance updated_at
	created.Email = "a2@x.com"
	created.Age = nil
	updated := save(t, s, created)

	if !updated.UpdatedAt.After(created.UpdatedAt) {
		t.Errorf("updated_at did not advance: %v -> %v", created.UpdatedAt, updated.UpdatedAt)
	}
	if !updated.CreatedAt.Equal(created.CreatedAt) {
		t.Errorf("created_at changed: %v -> %v", created.CreatedAt, updated.CreatedAt)
	}

	got, _ := find(t, s, created.ID)
	if got.Email != "a2@x.com" || got.Age != nil {
		t.Errorf("update not persisted: %+v", got)
	}
	if !got.UpdatedAt.Equal(updated.UpdatedAt) {
		t.Errorf("stored updated_at %v, want %v", got.UpdatedAt, updated.UpdatedAt)
	}

	clock.now = clock.now.Add(time.Hour)
	again := save(t, s, got)
	if !again.UpdatedAt.Equal(clock.now) {
		t.Errorf("expected clock time %v, got %v", clock.now, again.UpdatedAt)
	}
}

func TestUserStore_UpdateMissingRow(t *testing.T) {
	s := NewUserStore(openTestDB(t).DB)

	err := s.ReadWrite(context.Background(), func(ctx context.Context, gw users.Gateway) error {
		_, err := gw.Save(ctx, users.User{ID: 42, Email: "x@x.com", Name: "X"})
		return err
	})
	if !users.IsNotFound(err) {
		t.Errorf("expected not found, got %v", err)
	}
}

func TestUserStore_FindAllExistsDelete(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(openTestDB(t).DB)

	err := s.ReadOnly(ctx, func(ctx context.Context, gw users.Gateway) error {
		all, err := gw.FindAll(ctx)
		if err != nil {
			return err
		}
		if len(all) != 0 {
			t.Errorf("expected empty table, got %d rows", len(all))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	for _, name := range []string{"a", "b", "c"} {
		save(t, s, users.User{Email: name + "@x.com", Name: name})
	}

	err = s.ReadWrite(ctx, func(ctx context.Context, gw users.Gateway) error {
		exists, err := gw.ExistsByID(ctx, 2)
		if err != nil || !exists {
			t.Errorf("ExistsByID(2) = %v, %v", exists, err)
		}
		return gw.DeleteByID(ctx, 2)
	})
	if err != nil {
		t.Fatalf("delete failed: %v", err)
	}

	err = s.ReadOnly(ctx, func(ctx context.Context, gw users.Gateway) error {
		exists, err := gw.ExistsByID(ctx, 2)
		if err != nil || exists {
			t.Errorf("ExistsByID(2) after delete = %v, %v", exists, err)
		}

		all, err := gw.FindAll(ctx)
		if err != nil {
			return err
		}
		if len(all) != 2 || all[0].ID != 1 || all[1].ID != 3 {
			t.Errorf("unexpected rows after delete: %+v", all)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUserStore_Repository(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(openTestDB(t).DB)

	h := s.repo.Handlers()
	if h.NewRecord == nil || h.NewRecord() == nil {
		t.Fatal("expected a record constructor")
	}
	if h.GetIdentifier == nil || h.GetIdentifier() != "email" {
		t.Error("expected email as the natural identifier")
	}

	created := save(t, s, users.User{Email: "ann@x.com", Name: "Ann", Age: intPtr(30)})

	err := s.ReadOnly(ctx, func(ctx context.Context, gw users.Gateway) error {
		records, total, err := s.repo.ListTx(ctx, gw.(*userGateway).tx)
		if err != nil {
			return err
		}
		if total != 1 || len(records) != 1 || records[0].Email != "ann@x.com" {
			t.Errorf("unexpected repository listing %d %+v", total, records)
		}

		if _, ok, err := gw.FindByID(ctx, created.ID+1); err != nil || ok {
			t.Errorf("FindByID(missing) = %v, %v", ok, err)
		}
		exists, err := gw.ExistsByID(ctx, created.ID+1)
		if err != nil || exists {
			t.Errorf("ExistsByID(missing) = %v, %v", exists, err)
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}

	// deleting a missing row is not an error at this layer
	err = s.ReadWrite(ctx, func(ctx context.Context, gw users.Gateway) error {
		return gw.DeleteByID(ctx, created.ID+1)
	})
	if err != nil {
		t.Errorf("DeleteByID(missing) failed: %v", err)
	}
	if _, ok := find(t, s, created.ID); !ok {
		t.Error("unrelated row was deleted")
	}
}

func TestUserStore_RollsBack(t *testing.T) {
	ctx := context.Background()
	s := NewUserStore(openTestDB(t).DB)
	boom := errors.New("boom")

	err := s.ReadWrite(ctx, func(ctx context.Context, gw users.Gateway) error {
		if _, err := gw.Save(ctx, users.User{Email: "a@x.com", Name: "A"}); err != nil {
			return err
		}
		return boom
	})
	if !errors.Is(err, boom) {
		t.Fatalf("expected %v, got %v", boom, err)
	}
	if _, ok := find(t, s, 1); ok {
		t.Error("insert survived a failed transaction")
	}

	func() {
		defer func() {
			if recover() == nil {
				t.Error("expected panic to propagate")
			}
		}()
		_ = s.ReadWrite(ctx, func(ctx context.Context, gw users.Gateway) error {
			if _, err := gw.Save(ctx, users.User{Email: "b@x.com", Name: "B"}); err != nil {
				return err
			}
			panic("callback panic")
		})
	}()

	err = s.ReadOnly(ctx, func(ctx context.Context, gw users.Gateway) error {
		all, err := gw.FindAll(ctx)
		if err != nil {
			return err
		}
		if len(all) != 0 {
			t.Errorf("expected no rows after rollback, got %d", len(all))
		}
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
