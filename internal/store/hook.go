package store

import (
	"context"
	"database/sql"
	"errors"
	"log/slog"
	"time"

	"github.com/uptrace/bun"
)

var _ bun.QueryHook = (*queryLogger)(nil)

// queryLogger emits one slog record per statement.
type queryLogger struct {
	log  *slog.Logger
	slow time.Duration
}

func (h *queryLogger) BeforeQuery(ctx context.Context, _ *bun.QueryEvent) context.Context {
	return ctx
}

func (h *queryLogger) AfterQuery(ctx context.Context, event *bun.QueryEvent) {
	d := time.Since(event.StartTime)
	attrs := []any{
		slog.String("query", trimQuery(event.Query)),
		slog.Duration("duration", d),
	}

	if event.Err != nil && !errors.Is(event.Err, sql.ErrNoRows) {
		h.log.ErrorContext(ctx, "store: query error", append(attrs, slog.Any("error", event.Err))...)
		return
	}

	if h.slow > 0 && d > h.slow {
		h.log.WarnContext(ctx, "store: slow query", attrs...)
		return
	}

	h.log.DebugContext(ctx, "store: query", attrs...)
}

func trimQuery(q string) string {
	if len(q) > 500 {
		return q[:500] + "..."
	}
	return q
}
