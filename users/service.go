package users

import (
	"context"
	"log/slog"

	"github.com/goliatone/go-user-cache/internal/logger"
)

// Service exposes the user operations consumed by the transport layer.
// The cache decorator in package usercache implements the same interface.
type Service interface {
	GetUserByID(ctx context.Context, id int64) (Response, error)
	GetAllUsers(ctx context.Context) ([]Response, error)
	CreateUser(ctx context.Context, req Request) (Response, error)
	UpdateUser(ctx context.Context, id int64, req Request) (Response, error)
	DeleteUser(ctx context.Context, id int64) error
}

var _ Service = (*service)(nil)

// Option configures the service.
type Option func(*service)

// WithLogger sets the logger used for operation events.
func WithLogger(log *slog.Logger) Option {
	return func(s *service) {
		if log != nil {
			s.log = log
		}
	}
}

// service runs every operation inside a single store transaction and does
// not cache anything itself.
type service struct {
	store Store
	log   *slog.Logger
}

// NewService returns a Service backed by store.
func NewService(store Store, opts ...Option) Service {
	s := &service{
		store: store,
		log:   logger.Discard(),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

func (s *service) GetUserByID(ctx context.Context, id int64) (Response, error) {
	var resp Response
	err := s.store.ReadOnly(ctx, func(ctx context.Context, gw Gateway) error {
		u, ok, err := gw.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(id)
		}
		resp = NewResponse(u)
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	s.log.DebugContext(ctx, "loaded user from store", "user_id", id)
	return resp, nil
}

func (s *service) GetAllUsers(ctx context.Context) ([]Response, error) {
	var out []Response
	err := s.store.ReadOnly(ctx, func(ctx context.Context, gw Gateway) error {
		all, err := gw.FindAll(ctx)
		if err != nil {
			return err
		}
		out = make([]Response, 0, len(all))
		for _, u := range all {
			out = append(out, NewResponse(u))
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (s *service) CreateUser(ctx context.Context, req Request) (Response, error) {
	var resp Response
	err := s.store.ReadWrite(ctx, func(ctx context.Context, gw Gateway) error {
		var u User
		req.apply(&u)
		saved, err := gw.Save(ctx, u)
		if err != nil {
			return err
		}
		resp = NewResponse(saved)
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	s.log.InfoContext(ctx, "user created", "user_id", resp.ID)
	return resp, nil
}

func (s *service) UpdateUser(ctx context.Context, id int64, req Request) (Response, error) {
	var resp Response
	err := s.store.ReadWrite(ctx, func(ctx context.Context, gw Gateway) error {
		u, ok, err := gw.FindByID(ctx, id)
		if err != nil {
			return err
		}
		if !ok {
			return notFound(id)
		}
		req.apply(&u)
		updated, err := gw.Save(ctx, u)
		if err != nil {
			return err
		}
		resp = NewResponse(updated)
		return nil
	})
	if err != nil {
		return Response{}, err
	}
	s.log.InfoContext(ctx, "user updated", "user_id", id)
	return resp, nil
}

func (s *service) DeleteUser(ctx context.Context, id int64) error {
	err := s.store.ReadWrite(ctx, func(ctx context.Context, gw Gateway) error {
		exists, err := gw.ExistsByID(ctx, id)
		if err != nil {
			return err
		}
		if !exists {
			return notFound(id)
		}
		return gw.DeleteByID(ctx, id)
	})
	if err != nil {
		return err
	}
	s.log.InfoContext(ctx, "user deleted", "user_id", id)
	return nil
}
