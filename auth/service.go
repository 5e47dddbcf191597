// Package auth holds the session authentication core: the token rotation
// service (login, explicit refresh, logout, federated linking), the
// per-request session authenticator with silent renewal, and the role gate.
package auth

import (
	"context"

	"github.com/google/uuid"
	"github.com/pkg/errors"

	"github.com/hvella/go-session-server/auth/google"
	"github.com/hvella/go-session-server/token"
	"github.com/hvella/go-session-server/users"
)

// Service mints, persists, and rotates token pairs as first-class
// operations. Exactly one refresh token is valid per account at any time:
// the value in the account's slot.
type Service struct {
	users users.Repo
	codec *token.Codec
}

func NewService(repo users.Repo, codec *token.Codec) (*Service, error) {
	if repo == nil {
		return nil, errors.New("[auth.NewService] users repo is required")
	}
	if codec == nil {
		return nil, errors.New("[auth.NewService] token codec is required")
	}
	return &Service{users: repo, codec: codec}, nil
}

// RegisterParams are the inputs for creating an account.
type RegisterParams struct {
	Name     string
	Email    string
	Password string
	Age      int
}

// Session is the outcome of a successful login, refresh, or federated link:
// a fresh token pair plus the account's public fields.
type Session struct {
	AccessToken  string
	RefreshToken string
	User         users.User
}

// Register creates a new account with the lowest-privilege role. Returns
// ErrAlreadyRegistered when the email is taken.
func (s *Service) Register(ctx context.Context, p RegisterParams) (*users.User, error) {
	_, err := s.users.GetByEmail(ctx, p.Email)
	if err == nil {
		return nil, ErrAlreadyRegistered
	}
	if !errors.Is(err, users.ErrNotFound) {
		return nil, errors.Wrap(err, "[Service.Register] GetByEmail")
	}

	hash, err := users.HashPassword(p.Password)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.Register] HashPassword")
	}

	user := &users.User{
		Email:        p.Email,
		Name:         p.Name,
		Age:          p.Age,
		PasswordHash: hash,
		Role:         users.DefaultRole,
	}
	if err := s.users.Create(ctx, user); err != nil {
		return nil, errors.Wrap(err, "[Service.Register] Create")
	}
	return user, nil
}

// Login verifies the password and issues a fresh token pair. The new refresh
// token overwrites the slot, which unilaterally invalidates any prior
// session's refresh token.
func (s *Service) Login(ctx context.Context, email, password string) (*Session, error) {
	user, err := s.users.GetByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrUserNotFound
		}
		return nil, errors.Wrap(err, "[Service.Login] GetByEmail")
	}

	if !users.CheckPasswordHash(password, user.PasswordHash) {
		return nil, ErrIncorrectPassword
	}

	return s.issueSession(ctx, user)
}

// Refresh is the explicit, client-initiated renewal. Unlike the implicit
// middleware path it rotates both tokens, so the presented refresh token is
// single-use: presenting it again yields ErrRefreshTokenMismatch.
func (s *Service) Refresh(ctx context.Context, presented string) (*Session, error) {
	id, err := s.codec.VerifyRefresh(presented)
	if err != nil {
		return nil, ErrInvalidRefreshToken
	}

	user, err := s.users.GetByEmail(ctx, id)
	if err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil, ErrRefreshUserNotFound
		}
		return nil, errors.Wrap(err, "[Service.Refresh] GetByEmail")
	}

	// Signature validity is necessary but not sufficient: a rotated-away
	// token no longer equals the stored slot value.
	if user.RefreshToken != presented {
		return nil, ErrRefreshTokenMismatch
	}

	return s.issueSession(ctx, user)
}

// Logout clears the account's refresh-token slot. Logging out an account
// that is already logged out (or gone) is a no-op success.
func (s *Service) Logout(ctx context.Context, accountID string) error {
	if err := s.users.SetRefreshToken(ctx, accountID, ""); err != nil {
		if errors.Is(err, users.ErrNotFound) {
			return nil
		}
		return errors.Wrap(err, "[Service.Logout] SetRefreshToken")
	}
	return nil
}

// LinkIdentity maps an externally verified profile onto a local account,
// creating one if absent, then issues tokens exactly like a password login.
// Created accounts get a random placeholder password hash that is never
// communicated: they are provider-authenticated only.
func (s *Service) LinkIdentity(ctx context.Context, profile google.Profile) (*Session, error) {
	user, err := s.users.FindFederated(ctx, profile.Name, profile.Email, profile.ProviderID)
	if err != nil {
		if !errors.Is(err, users.ErrNotFound) {
			return nil, errors.Wrap(err, "[Service.LinkIdentity] FindFederated")
		}

		hash, err := users.HashPassword(uuid.New().String())
		if err != nil {
			return nil, errors.Wrap(err, "[Service.LinkIdentity] HashPassword")
		}
		user = &users.User{
			Email:        profile.Email,
			Name:         profile.Name,
			GoogleID:     profile.ProviderID,
			PasswordHash: hash,
			Role:         users.DefaultRole,
		}
		if err := s.users.Create(ctx, user); err != nil {
			return nil, errors.Wrap(err, "[Service.LinkIdentity] Create")
		}
	}

	return s.issueSession(ctx, user)
}

func (s *Service) issueSession(ctx context.Context, user *users.User) (*Session, error) {
	access, err := s.codec.IssueAccess(user.Email, string(user.Role), user.Name)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issueSession] IssueAccess")
	}
	refresh, err := s.codec.IssueRefresh(user.Email)
	if err != nil {
		return nil, errors.Wrap(err, "[Service.issueSession] IssueRefresh")
	}

	if err := s.users.SetRefreshToken(ctx, user.Email, refresh); err != nil {
		return nil, errors.Wrap(err, "[Service.issueSession] SetRefreshToken")
	}

	public := *user
	public.RefreshToken = ""
	public.PasswordHash = ""
	return &Session{
		AccessToken:  access,
		RefreshToken: refresh,
		User:         public,
	}, nil
}
