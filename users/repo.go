package users

import (
	"context"

	"github.com/pkg/errors"
)

// ErrNotFound is returned by every Repo implementation when no account
// matches the given key.
var ErrNotFound = errors.New("user not found")

// Repo is the persistent account collaborator. Implementations must make
// SetRefreshToken a plain replace of the slot value; the core performs the
// read-then-compare and accepts the narrow race between two concurrent
// refreshes for the same account.
type Repo interface {
	Create(ctx context.Context, user *User) error
	Upsert(ctx context.Context, user *User) error
	GetByEmail(ctx context.Context, email string) (*User, error)

	// SetRefreshToken replaces the account's single refresh-token slot.
	// An empty value clears the slot.
	SetRefreshToken(ctx context.Context, email, refreshToken string) error

	// FindFederated looks up an account by name, email, or provider ID,
	// first match winning in that priority order.
	FindFederated(ctx context.Context, name, email, googleID string) (*User, error)
}
