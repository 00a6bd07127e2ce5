package store

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"log/slog"
	"os"
	"path"
	"strings"
	"sync"

	"github.com/pressly/goose/v3"
)

//go:embed migrations
var migrationsFS embed.FS

// goose keeps its dialect, base FS and logger in package state.
var gooseMu sync.Mutex

// Migrator applies the embedded schema migrations for one dialect.
type Migrator struct {
	db      *sql.DB
	dialect string
	log     *slog.Logger
}

// NewMigrator returns a Migrator for db. dialect is sqlite3, postgres or mysql.
func NewMigrator(db *sql.DB, dialect string, log *slog.Logger) (*Migrator, error) {
	if db == nil {
		return nil, fmt.Errorf("store: nil database")
	}
	if _, err := migrationsFS.ReadDir(path.Join("migrations", dialect)); err != nil {
		return nil, fmt.Errorf("store: no migrations for dialect %q", dialect)
	}
	if log == nil {
		log = slog.Default()
	}
	return &Migrator{db: db, dialect: dialect, log: log}, nil
}

// Up applies all pending migrations.
func (m *Migrator) Up(ctx context.Context) error {
	return m.with(func(dir string) error {
		m.log.InfoContext(ctx, "applying migrations", "dialect", m.dialect)
		if err := goose.UpContext(ctx, m.db, dir); err != nil {
			return fmt.Errorf("apply migrations: %w", err)
		}
		m.log.InfoContext(ctx, "migrations applied")
		return nil
	})
}

// Down rolls back the latest migration.
func (m *Migrator) Down(ctx context.Context) error {
	return m.with(func(dir string) error {
		m.log.InfoContext(ctx, "rolling back latest migration", "dialect", m.dialect)
		if err := goose.DownContext(ctx, m.db, dir); err != nil {
			return fmt.Errorf("rollback latest migration: %w", err)
		}
		return nil
	})
}

// Status logs applied and pending migrations.
func (m *Migrator) Status(ctx context.Context) error {
	return m.with(func(dir string) error {
		if err := goose.StatusContext(ctx, m.db, dir); err != nil {
			return fmt.Errorf("migration status: %w", err)
		}
		return nil
	})
}

// Version returns the current schema version.
func (m *Migrator) Version(ctx context.Context) (int64, error) {
	var version int64
	err := m.with(func(string) error {
		v, err := goose.GetDBVersionContext(ctx, m.db)
		if err != nil {
			return fmt.Errorf("schema version: %w", err)
		}
		version = v
		return nil
	})
	return version, err
}

func (m *Migrator) with(fn func(dir string) error) error {
	gooseMu.Lock()
	defer gooseMu.Unlock()

	goose.SetBaseFS(migrationsFS)
	goose.SetLogger(gooseLogger{log: m.log})
	if err := goose.SetDialect(m.dialect); err != nil {
		return fmt.Errorf("configure goose: %w", err)
	}
	return fn(path.Join("migrations", m.dialect))
}

// gooseLogger routes goose output through slog.
type gooseLogger struct {
	log *slog.Logger
}

func (l gooseLogger) Printf(format string, v ...any) {
	l.log.Info(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
}

func (l gooseLogger) Fatalf(format string, v ...any) {
	l.log.Error(strings.TrimSpace(fmt.Sprintf(format, v...)), "component", "goose")
	os.Exit(1)
}
