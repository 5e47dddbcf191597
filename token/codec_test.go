package token_test

import (
	"strings"
	"testing"
	"time"

	"github.com/hvella/go-session-server/token"
	"github.com/stretchr/testify/require"
)

const (
	accessSecret  = "access-secret-1234"
	refreshSecret = "refresh-secret-5678"
	testEmail     = "john.doe@example.com"
	testRole      = "user"
	testName      = "John Doe"
)

func newTestCodec(t *testing.T) *token.Codec {
	t.Helper()
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  accessSecret,
		RefreshSecret: refreshSecret,
	})
	require.NoError(t, err)
	return codec
}

func TestNewCodecRequiresDistinctSecrets(t *testing.T) {
	_, err := token.NewCodec(token.Config{AccessSecret: "same", RefreshSecret: "same"})
	require.Error(t, err)

	_, err = token.NewCodec(token.Config{AccessSecret: "", RefreshSecret: "x"})
	require.Error(t, err)
}

func TestAccessTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.IssueAccess(testEmail, testRole, testName)
	require.NoError(t, err)

	identity, err := codec.VerifyAccess(raw)
	require.NoError(t, err)
	require.Equal(t, testEmail, identity.ID)
	require.Equal(t, testRole, identity.Role)
	require.Equal(t, testName, identity.Name)
}

func TestRefreshTokenRoundTrip(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.IssueRefresh(testEmail)
	require.NoError(t, err)

	id, err := codec.VerifyRefresh(raw)
	require.NoError(t, err)
	require.Equal(t, testEmail, id)
}

func TestTokenKindsAreNotInterchangeable(t *testing.T) {
	codec := newTestCodec(t)

	access, err := codec.IssueAccess(testEmail, testRole, testName)
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(testEmail)
	require.NoError(t, err)

	_, err = codec.VerifyAccess(refresh)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = codec.VerifyRefresh(access)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestWrongSecretIsInvalid(t *testing.T) {
	codec := newTestCodec(t)
	other, err := token.NewCodec(token.Config{
		AccessSecret:  "another-access-secret",
		RefreshSecret: "another-refresh-secret",
	})
	require.NoError(t, err)

	raw, err := codec.IssueAccess(testEmail, testRole, testName)
	require.NoError(t, err)

	_, err = other.VerifyAccess(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestTamperedTokenIsInvalid(t *testing.T) {
	codec := newTestCodec(t)

	raw, err := codec.IssueRefresh(testEmail)
	require.NoError(t, err)

	// Flip a character in the signature segment.
	tampered := raw[:len(raw)-2] + flip(raw[len(raw)-2:])
	_, err = codec.VerifyRefresh(tampered)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	_, err = codec.VerifyRefresh("not-a-jwt")
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestExpiredAccessTokenIsInvalid(t *testing.T) {
	codec := newTestCodec(t)

	token.NowTimeFunc = func() time.Time { return time.Now().Add(-20 * time.Minute) }
	defer func() { token.NowTimeFunc = time.Now }()

	raw, err := codec.IssueAccess(testEmail, testRole, testName)
	require.NoError(t, err)

	// Issued 20 minutes ago with a 15 minute lifetime: expired by now.
	token.NowTimeFunc = time.Now
	_, err = codec.VerifyAccess(raw)
	require.ErrorIs(t, err, token.ErrInvalidToken)
}

func TestRefreshTokenOutlivesAccessToken(t *testing.T) {
	codec := newTestCodec(t)

	token.NowTimeFunc = func() time.Time { return time.Now().Add(-time.Hour) }
	defer func() { token.NowTimeFunc = time.Now }()

	access, err := codec.IssueAccess(testEmail, testRole, testName)
	require.NoError(t, err)
	refresh, err := codec.IssueRefresh(testEmail)
	require.NoError(t, err)

	token.NowTimeFunc = time.Now
	_, err = codec.VerifyAccess(access)
	require.ErrorIs(t, err, token.ErrInvalidToken)

	id, err := codec.VerifyRefresh(refresh)
	require.NoError(t, err)
	require.Equal(t, testEmail, id)
}

func flip(s string) string {
	if strings.HasSuffix(s, "A") {
		return strings.TrimSuffix(s, "A") + "B"
	}
	return s[:len(s)-1] + "A"
}
