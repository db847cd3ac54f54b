package users

import (
	"errors"
	"fmt"
)

// Domain error classes translated at the HTTP boundary. Wrap with
// fmt.Errorf("...: %w", ...) and test with errors.Is.
var (
	// ErrNotFound covers absent records, records of a different kind, and
	// soft-deleted records on public paths: all indistinguishable to callers.
	ErrNotFound = errors.New("users: not found")

	// ErrConflict marks an illegal lifecycle transition, e.g. deleting an
	// already deleted user.
	ErrConflict = errors.New("users: conflict")

	// ErrUnauthorized covers missing, malformed and rejected credentials as
	// well as policy misses. The message never says which check failed.
	ErrUnauthorized = errors.New("users: unauthorized")

	// ErrValidation marks a structurally invalid request payload.
	ErrValidation = errors.New("users: validation failed")
)

// NotFoundError reports a specific kind and id while matching ErrNotFound.
type NotFoundError struct {
	Kind string
	UID  string
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("%s %q not found", e.Kind, e.UID)
}

func (e *NotFoundError) Unwrap() error { return ErrNotFound }

// NewNotFound builds a kind-scoped not-found error.
func NewNotFound(kind, uid string) error {
	return &NotFoundError{Kind: kind, UID: uid}
}
