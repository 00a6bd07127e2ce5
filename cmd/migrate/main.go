package main

import (
	"context"
	"flag"
	"fmt"
	"log/slog"
	"os"
	"time"

	"github.com/goliatone/go-user-cache/internal/config"
	"github.com/goliatone/go-user-cache/internal/logger"
	"github.com/goliatone/go-user-cache/internal/store"
)

func main() {
	command := flag.String("command", "up", "migrate command (up|down|status|version)")
	timeout := flag.Duration("timeout", time.Minute, "command timeout")
	flag.Parse()

	cfg := config.Load()
	log := logger.New("migrate", slog.LevelInfo)

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	db, err := store.Open(ctx, cfg.Store(), nil)
	if err != nil {
		log.Error("failed to connect to database", "error", err)
		os.Exit(1)
	}
	defer db.Close()

	m, err := store.NewMigrator(db.DB.DB, db.MigrationDialect(), log)
	if err != nil {
		log.Error("failed to configure migrator", "error", err)
		os.Exit(1)
	}

	switch *command {
	case "up":
		err = m.Up(ctx)
	case "down":
		err = m.Down(ctx)
	case "status":
		err = m.Status(ctx)
	case "version":
		var v int64
		if v, err = m.Version(ctx); err == nil {
			fmt.Printf("version: %d\n", v)
		}
	default:
		log.Error("unsupported command", "command", *command)
		os.Exit(1)
	}
	if err != nil {
		log.Error("migration command failed", "command", *command, "error", err)
		db.Close()
		os.Exit(1)
	}

	log.Info("migration command completed", "command", *command, "driver", cfg.DBDriver)
}
