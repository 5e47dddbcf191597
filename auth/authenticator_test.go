package auth_test

import (
	"context"
	"testing"
	"time"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"

	"github.com/hvella/go-session-server/auth"
	"github.com/hvella/go-session-server/token"
	"github.com/hvella/go-session-server/users"
)

// issueExpiredAccess mints an access token that is already past its lifetime.
func issueExpiredAccess(t *testing.T, codec *token.Codec, id, role, name string) string {
	t.Helper()
	token.NowTimeFunc = func() time.Time { return time.Now().Add(-20 * time.Minute) }
	defer func() { token.NowTimeFunc = time.Now }()

	raw, err := codec.IssueAccess(id, role, name)
	require.NoError(t, err)
	return raw
}

func TestAuthenticateNoBearer(t *testing.T) {
	f := setupTestFixture(t)

	_, err := f.authn.Authenticate(context.Background(), "", "")
	require.ErrorIs(t, err, auth.ErrNoToken)
	require.Equal(t, "NO_TOKEN_PROVIDED", auth.ReasonCode(err))
}

func TestAuthenticateValidAccessToken(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAlice(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	result, err := f.authn.Authenticate(ctx, session.AccessToken, "")
	require.NoError(t, err)
	require.Equal(t, testEmail, result.Identity.ID)
	require.Equal(t, testName, result.Identity.Name)
	require.Empty(t, result.RenewedAccessToken) // no mutation on the happy path
}

func TestAuthenticateExpiredWithoutRefresh(t *testing.T) {
	f := setupTestFixture(t)

	expired := issueExpiredAccess(t, f.codec, testEmail, "user", testName)
	_, err := f.authn.Authenticate(context.Background(), expired, "")
	require.ErrorIs(t, err, auth.ErrExpiredNoRefresh)
	require.Equal(t, "TOKEN_EXPIRED_NO_REFRESH", auth.ReasonCode(err))
}

func TestAuthenticateExpiredWithGarbageRefresh(t *testing.T) {
	f := setupTestFixture(t)

	expired := issueExpiredAccess(t, f.codec, testEmail, "user", testName)
	_, err := f.authn.Authenticate(context.Background(), expired, "not-a-token")
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestAuthenticateSilentRenewal(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAlice(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	expired := issueExpiredAccess(t, f.codec, testEmail, "user", testName)
	result, err := f.authn.Authenticate(ctx, expired, session.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, testEmail, result.Identity.ID)
	require.NotEmpty(t, result.RenewedAccessToken)
	require.NotEqual(t, expired, result.RenewedAccessToken)

	// The renewed token is a normal access token.
	identity, err := f.codec.VerifyAccess(result.RenewedAccessToken)
	require.NoError(t, err)
	require.Equal(t, testEmail, identity.ID)

	// The implicit path renews access only: the stored refresh token is
	// untouched and still redeemable.
	require.Equal(t, session.RefreshToken, f.storedRefreshToken(t, testEmail))
	again, err := f.authn.Authenticate(ctx, expired, session.RefreshToken)
	require.NoError(t, err)
	require.NotEmpty(t, again.RenewedAccessToken)
}

func TestSilentRenewalReadsRoleFromStore(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAlice(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	// Promote the account after the tokens were issued.
	user, err := f.repo.GetByEmail(ctx, testEmail)
	require.NoError(t, err)
	user.Role = users.RoleAdmin
	require.NoError(t, f.repo.Upsert(ctx, user))

	expired := issueExpiredAccess(t, f.codec, testEmail, "user", testName)
	result, err := f.authn.Authenticate(ctx, expired, session.RefreshToken)
	require.NoError(t, err)
	require.Equal(t, string(users.RoleAdmin), result.Identity.Role)

	identity, err := f.codec.VerifyAccess(result.RenewedAccessToken)
	require.NoError(t, err)
	require.Equal(t, string(users.RoleAdmin), identity.Role)
}

func TestAuthenticateRejectsRotatedAwayRefreshToken(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAlice(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)

	// Explicit refresh rotates the slot; the old cookie value is now stale
	// even though its signature still verifies.
	_, err = f.service.Refresh(ctx, session.RefreshToken)
	require.NoError(t, err)

	expired := issueExpiredAccess(t, f.codec, testEmail, "user", testName)
	_, err = f.authn.Authenticate(ctx, expired, session.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestAuthenticateAfterLogout(t *testing.T) {
	f := setupTestFixture(t)
	f.registerAlice(t)
	ctx := context.Background()

	session, err := f.service.Login(ctx, testEmail, testPassword)
	require.NoError(t, err)
	require.NoError(t, f.service.Logout(ctx, testEmail))

	expired := issueExpiredAccess(t, f.codec, testEmail, "user", testName)
	_, err = f.authn.Authenticate(ctx, expired, session.RefreshToken)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

func TestAuthenticateUnknownAccount(t *testing.T) {
	f := setupTestFixture(t)

	refresh, err := f.codec.IssueRefresh("ghost@example.com")
	require.NoError(t, err)

	expired := issueExpiredAccess(t, f.codec, "ghost@example.com", "user", "Ghost")
	_, err = f.authn.Authenticate(context.Background(), expired, refresh)
	require.ErrorIs(t, err, auth.ErrInvalidRefreshToken)
}

// failingRepo simulates a collaborator I/O fault on lookup.
type failingRepo struct {
	users.Repo
}

func (failingRepo) GetByEmail(context.Context, string) (*users.User, error) {
	return nil, errors.New("connection reset")
}

func TestAuthenticateFailsClosedOnStoreFault(t *testing.T) {
	f := setupTestFixture(t)

	authn, err := auth.NewAuthenticator(failingRepo{Repo: f.repo}, f.codec)
	require.NoError(t, err)

	refresh, err := f.codec.IssueRefresh(testEmail)
	require.NoError(t, err)

	expired := issueExpiredAccess(t, f.codec, testEmail, "user", testName)
	_, err = authn.Authenticate(context.Background(), expired, refresh)
	require.ErrorIs(t, err, auth.ErrSessionInvalid)
	require.Equal(t, "SESSION_NO_VALID", auth.ReasonCode(err))
}
