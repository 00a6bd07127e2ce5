package users

import (
	"errors"
	"strconv"
)

// ErrNotFound is returned when an operation targets an id that is not in the store.
var ErrNotFound = errors.New("users: user not found")

// NotFoundError reports the id that could not be located.
// It matches ErrNotFound with errors.Is.
type NotFoundError struct {
	ID int64
}

func (e *NotFoundError) Error() string {
	return ErrNotFound.Error() + ": " + strconv.FormatInt(e.ID, 10)
}

func (e *NotFoundError) Is(target error) bool { return target == ErrNotFound }

// IsNotFound reports whether err is, or wraps, ErrNotFound.
func IsNotFound(err error) bool { return errors.Is(err, ErrNotFound) }

func notFound(id int64) error { return &NotFoundError{ID: id} }
