package store

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-sql-driver/mysql"
	_ "github.com/jackc/pgx/v5/stdlib"
	_ "github.com/lib/pq"
	_ "github.com/mattn/go-sqlite3"
	"github.com/uptrace/bun"
	"github.com/uptrace/bun/dialect/mysqldialect"
	"github.com/uptrace/bun/dialect/pgdialect"
	"github.com/uptrace/bun/dialect/sqlitedialect"
	"github.com/uptrace/bun/schema"
)

// Supported database/sql driver names.
const (
	DriverSQLite   = "sqlite3"
	DriverPostgres = "postgres"
	DriverPgx      = "pgx"
	DriverMySQL    = "mysql"
)

// Config describes the database connection.
type Config struct {
	// Driver is one of sqlite3, postgres (lib/pq), pgx or mysql.
	Driver string
	DSN    string
	// MaxOpenConns is ignored for sqlite3, which always uses one connection.
	MaxOpenConns int
	// SlowQuery logs queries slower than this at Warn. Zero disables it.
	SlowQuery time.Duration
}

// DB pairs the bun handle with the migration dialect of its driver.
type DB struct {
	*bun.DB
	dialect string
}

// MigrationDialect returns the goose dialect name: sqlite3, postgres or mysql.
func (d *DB) MigrationDialect() string {
	return d.dialect
}

// Open connects to the configured database and verifies it with a ping.
func Open(ctx context.Context, cfg Config, log *slog.Logger) (*DB, error) {
	if cfg.DSN == "" {
		return nil, fmt.Errorf("store: DSN must not be empty")
	}

	dsn := cfg.DSN
	var (
		dialect    schema.Dialect
		migrations string
	)
	switch cfg.Driver {
	case DriverSQLite, "":
		cfg.Driver = DriverSQLite
		dialect = sqlitedialect.New()
		migrations = "sqlite3"
	case DriverPostgres, DriverPgx:
		dialect = pgdialect.New()
		migrations = "postgres"
	case DriverMySQL:
		normalized, err := mysqlDSN(dsn)
		if err != nil {
			return nil, err
		}
		dsn = normalized
		dialect = mysqldialect.New()
		migrations = "mysql"
	default:
		return nil, fmt.Errorf("store: unsupported driver %q", cfg.Driver)
	}

	sqldb, err := sql.Open(cfg.Driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("store: open: %w", err)
	}

	if cfg.Driver == DriverSQLite {
		// an in-memory database lives and dies with its connection
		sqldb.SetMaxOpenConns(1)
	} else if cfg.MaxOpenConns > 0 {
		sqldb.SetMaxOpenConns(cfg.MaxOpenConns)
	}

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := sqldb.PingContext(pingCtx); err != nil {
		_ = sqldb.Close()
		return nil, fmt.Errorf("store: ping: %w", err)
	}

	db := bun.NewDB(sqldb, dialect)
	if log != nil {
		db.AddQueryHook(&queryLogger{log: log, slow: cfg.SlowQuery})
	}

	return &DB{DB: db, dialect: migrations}, nil
}

// mysqlDSN forces time parsing in UTC so DATETIME columns scan into time.Time.
func mysqlDSN(dsn string) (string, error) {
	mcfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("store: parse mysql dsn: %w", err)
	}
	mcfg.ParseTime = true
	mcfg.Loc = time.UTC
	return mcfg.FormatDSN(), nil
}
