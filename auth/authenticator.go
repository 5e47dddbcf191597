package auth

import (
	"context"

	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hvella/go-session-server/token"
	"github.com/hvella/go-session-server/users"
)

// Result is the outcome of a successful per-request authentication.
// RenewedAccessToken is set only when the access token was silently renewed;
// the boundary layer decides how to surface it (header, body, cookie).
type Result struct {
	Identity           token.Identity
	RenewedAccessToken string
}

// Authenticator runs the per-request session check: verify the bearer access
// token, and when it has expired, transparently mint a new one against a
// valid, matching refresh token. The refresh token itself is never rotated
// here — a client may still be using it concurrently from the same flow;
// rotation belongs to the explicit refresh operation.
type Authenticator struct {
	users users.Repo
	codec *token.Codec
	log   zerolog.Logger
}

func NewAuthenticator(repo users.Repo, codec *token.Codec) (*Authenticator, error) {
	if repo == nil {
		return nil, errors.New("[auth.NewAuthenticator] users repo is required")
	}
	if codec == nil {
		return nil, errors.New("[auth.NewAuthenticator] token codec is required")
	}
	return &Authenticator{
		users: repo,
		codec: codec,
		log:   log.With().Str("component", "authenticator").Logger(),
	}, nil
}

// Authenticate produces an authenticated identity or a rejection, given the
// request's bearer token and refresh cookie value (either may be empty).
// Every rejection is one of the sentinel errors in this package; unexpected
// faults map to ErrSessionInvalid so authentication fails closed.
func (a *Authenticator) Authenticate(ctx context.Context, bearer, refreshCookie string) (Result, error) {
	if bearer == "" {
		return Result{}, ErrNoToken
	}

	if identity, err := a.codec.VerifyAccess(bearer); err == nil {
		return Result{Identity: identity}, nil
	}

	// Access token invalid or expired: try silent renewal.
	if refreshCookie == "" {
		return Result{}, ErrExpiredNoRefresh
	}

	id, err := a.codec.VerifyRefresh(refreshCookie)
	if err != nil {
		return Result{}, ErrInvalidRefreshToken
	}

	user, err := a.users.GetByEmail(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return Result{}, ErrInvalidRefreshToken
		}
		a.log.Error().Err(err).Msg("account lookup failed during silent renewal")
		return Result{}, ErrSessionInvalid
	}

	// The replay defense: a refresh token that was rotated away still has a
	// valid signature until natural expiry, but no longer equals the slot.
	if user.RefreshToken == "" || user.RefreshToken != refreshCookie {
		return Result{}, ErrInvalidRefreshToken
	}

	// Role and name come from the store, not from the stale access token,
	// so a role change since issuance takes effect on renewal.
	access, err := a.codec.IssueAccess(user.Email, string(user.Role), user.Name)
	if err != nil {
		a.log.Error().Err(err).Msg("token issue failed during silent renewal")
		return Result{}, ErrSessionInvalid
	}

	return Result{
		Identity:           token.Identity{ID: user.Email, Role: string(user.Role), Name: user.Name},
		RenewedAccessToken: access,
	}, nil
}
