package auth

import (
	stderrors "errors"

	"github.com/pkg/errors"

	"github.com/hvella/go-session-server/auth/google"
)

// Each named authentication outcome is a sentinel error so callers handle
// cases with errors.Is rather than comparing loose strings. ReasonCode maps
// a sentinel to the machine-readable code the wire contract uses.
var (
	// Session authenticator outcomes
	ErrNoToken             = errors.New("no token provided")
	ErrExpiredNoRefresh    = errors.New("access token expired and no refresh token present")
	ErrInvalidRefreshToken = errors.New("invalid refresh token")
	ErrSessionInvalid      = errors.New("session not valid")

	// Rotation service outcomes
	ErrAlreadyRegistered    = errors.New("user already registered")
	ErrUserNotFound         = errors.New("user not found")
	ErrIncorrectPassword    = errors.New("incorrect password")
	ErrRefreshUserNotFound  = errors.New("no user for refresh token")
	ErrRefreshTokenMismatch = errors.New("refresh token does not match stored value")

	// Federated linking outcome
	ErrFederatedAuthFailed = errors.New("federated authentication failed")
)

// ReasonCode returns the wire reason string for a terminal authentication
// error. Anything unrecognised collapses to SESSION_NO_VALID: internal
// faults must fail closed without leaking detail.
func ReasonCode(err error) string {
	switch {
	case stderrors.Is(err, ErrNoToken):
		return "NO_TOKEN_PROVIDED"
	case stderrors.Is(err, ErrExpiredNoRefresh):
		return "TOKEN_EXPIRED_NO_REFRESH"
	case stderrors.Is(err, ErrInvalidRefreshToken):
		return "INVALID_REFRESH_TOKEN"
	case stderrors.Is(err, ErrAlreadyRegistered):
		return "ALREADY_USER"
	case stderrors.Is(err, ErrUserNotFound):
		return "NOT_FOUND_USER"
	case stderrors.Is(err, ErrIncorrectPassword):
		return "INCORRECT_PASSWORD"
	case stderrors.Is(err, ErrRefreshUserNotFound):
		return "USER_NOT_FOUND"
	case stderrors.Is(err, ErrRefreshTokenMismatch):
		return "REFRESH_TOKEN_MISMATCH"
	case stderrors.Is(err, ErrFederatedAuthFailed):
		return "FEDERATED_AUTH_FAILED"
	case stderrors.Is(err, google.ErrMissingConfiguration):
		return "MISSING_CONFIGURATION"
	default:
		return "SESSION_NO_VALID"
	}
}
