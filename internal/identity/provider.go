// Package identity wraps the external identity provider: credentials,
// profile photo URL and the custom-claims map carrying role and status.
package identity

import (
	"context"
	"errors"
	"time"
)

var (
	// ErrUserNotFound is the definitive error class: the uid does not exist.
	ErrUserNotFound = errors.New("identity: user not found")
	// ErrInvalidToken covers malformed, unsigned and expired bearer tokens.
	ErrInvalidToken = errors.New("identity: invalid token")
	// ErrEmailExists is returned by CreateUser when the email is taken.
	ErrEmailExists = errors.New("identity: email already in use")
)

// Claims is the custom-claims map attached to an identity record. The map is
// replaced wholesale on write; the provider API has no per-key patch.
type Claims map[string]any

// Role returns the role claim string, empty when absent.
func (c Claims) Role() string { return c.str("role") }

// Status returns the status claim string, empty when absent.
func (c Claims) Status() string { return c.str("status") }

func (c Claims) str(key string) string {
	if c == nil {
		return ""
	}
	if v, ok := c[key].(string); ok {
		return v
	}
	return ""
}

// Clone returns a shallow copy so callers can mutate claim maps safely.
func (c Claims) Clone() Claims {
	if c == nil {
		return nil
	}
	out := make(Claims, len(c))
	for k, v := range c {
		out[k] = v
	}
	return out
}

// Record is the provider-owned view of one user.
type Record struct {
	UID           string
	Email         string
	EmailVerified bool
	PhoneNumber   string
	DisplayName   string
	PhotoURL      string
	Claims        Claims
	CreatedAt     time.Time
}

// CreateRequest carries the fields needed to provision a new user.
type CreateRequest struct {
	Email         string
	Password      string
	DisplayName   string
	PhoneNumber   string
	EmailVerified bool
}

// Update is a diff carrier: nil pointer means "leave unchanged". Claims,
// when non-nil, replace the whole map.
type Update struct {
	DisplayName   *string
	Email         *string
	EmailVerified *bool
	Password      *string
	PhoneNumber   *string
	PhotoURL      *string
	Claims        Claims
}

// Empty reports whether applying the update would be a no-op.
func (u Update) Empty() bool {
	return u.DisplayName == nil && u.Email == nil && u.EmailVerified == nil &&
		u.Password == nil && u.PhoneNumber == nil && u.PhotoURL == nil && u.Claims == nil
}

// Token is a verified bearer token: the subject plus its claims at
// verification time.
type Token struct {
	UID    string
	Claims Claims
}

// Provider is the capability surface this service needs from the identity
// backend. All calls are remote; implementations distinguish the definitive
// errors above from transient failures, which pass through unwrapped.
type Provider interface {
	GetUser(ctx context.Context, uid string) (*Record, error)
	CreateUser(ctx context.Context, req CreateRequest) (*Record, error)
	UpdateUser(ctx context.Context, uid string, update Update) error
	SetClaims(ctx context.Context, uid string, claims Claims) error
	DeleteUser(ctx context.Context, uid string) error
	VerifyToken(ctx context.Context, token string) (*Token, error)
}

// Ptr is a small helper for building Update diffs.
func Ptr[T any](v T) *T { return &v }
