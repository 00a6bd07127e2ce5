package httpapi

import (
	"context"
	"log/slog"
	"net/http"
	"time"

	"github.com/goliatone/go-user-cache/internal/logger"
	"github.com/goliatone/go-user-cache/users"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const healthCheckTimeout = 2 * time.Second

// HealthFunc reports whether a dependency is reachable.
type HealthFunc func(ctx context.Context) error

// Router exposes the user endpoints over HTTP.
type Router struct {
	mux     *http.ServeMux
	handler http.Handler
	logger  *slog.Logger
	users   users.Service
	health  map[string]HealthFunc
	metrics http.Handler
}

// Option configures a Router.
type Option func(*Router)

// WithHealthCheck adds a named component to /healthz.
func WithHealthCheck(name string, fn HealthFunc) Option {
	return func(r *Router) {
		if fn != nil {
			r.health[name] = fn
		}
	}
}

// WithMetricsHandler replaces the default promhttp handler on /metrics.
func WithMetricsHandler(h http.Handler) Option {
	return func(r *Router) {
		if h != nil {
			r.metrics = h
		}
	}
}

// New creates and registers handlers. A nil log discards request logs.
func New(log *slog.Logger, svc users.Service, opts ...Option) *Router {
	if log == nil {
		log = logger.Discard()
	}
	r := &Router{
		mux:     http.NewServeMux(),
		logger:  log,
		users:   svc,
		health:  map[string]HealthFunc{},
		metrics: promhttp.Handler(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.routes()
	r.handler = r.requestID(r.accessLog(r.mux))
	return r
}

// ServeHTTP satisfies http.Handler.
func (r *Router) ServeHTTP(w http.ResponseWriter, req *http.Request) {
	r.handler.ServeHTTP(w, req)
}

func (r *Router) routes() {
	r.mux.Handle("GET /metrics", r.metrics)
	r.mux.HandleFunc("GET /healthz", r.handleHealth)

	r.mux.HandleFunc("POST /users", r.handleCreateUser)
	r.mux.HandleFunc("GET /users", r.handleListUsers)
	r.mux.HandleFunc("GET /users/{id}", r.handleGetUser)
	r.mux.HandleFunc("PUT /users/{id}", r.handleUpdateUser)
	r.mux.HandleFunc("DELETE /users/{id}", r.handleDeleteUser)
}

func (r *Router) handleHealth(w http.ResponseWriter, req *http.Request) {
	ctx, cancel := context.WithTimeout(req.Context(), healthCheckTimeout)
	defer cancel()

	status := "ok"
	components := map[string]any{}
	for name, check := range r.health {
		if err := check(ctx); err != nil {
			status = "degraded"
			components[name] = map[string]any{
				"status": "down",
				"error":  err.Error(),
			}
			continue
		}
		components[name] = map[string]any{"status": "up"}
	}

	payload := map[string]any{
		"status":     status,
		"components": components,
		"timestamp":  time.Now().UTC().Format(time.RFC3339Nano),
	}
	code := http.StatusOK
	if status != "ok" {
		code = http.StatusServiceUnavailable
	}
	r.writeJSON(w, code, payload)
}
