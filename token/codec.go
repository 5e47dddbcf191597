// Package token issues and verifies the two signed token kinds used by the
// session layer: short-lived access tokens and long-lived refresh tokens.
// Each kind is signed with its own secret so a token of one kind can never
// be replayed as the other, even with a forged kind claim.
package token

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/pkg/errors"
)

// NowTimeFunc returns the current time. It can be overridden in tests.
var NowTimeFunc = time.Now

// ErrInvalidToken covers every verification failure: bad signature, malformed
// token, wrong kind, or natural expiry. Absence of a valid token is an
// expected condition, so callers get a single sentinel rather than a
// breakdown of what went wrong.
var ErrInvalidToken = errors.New("invalid token")

// Token kind claims embedded in the payload.
const (
	KindAccess  = "access"
	KindRefresh = "refresh"
)

const (
	defaultAccessExpiry  = 15 * time.Minute
	defaultRefreshExpiry = 7 * 24 * time.Hour
)

// Identity is the authenticated subject carried by a verified access token.
// It holds enough data that no store lookup is needed to authorize a request.
type Identity struct {
	ID   string `json:"id"` // the account's unique email
	Role string `json:"role"`
	Name string `json:"name"`
}

// AccessClaims is the payload of an access token.
type AccessClaims struct {
	Role string `json:"role"`
	Name string `json:"name"`
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// RefreshClaims is the payload of a refresh token. Deliberately minimal: the
// identity fields are re-read from the store when the token is redeemed.
type RefreshClaims struct {
	Kind string `json:"kind"`
	jwt.RegisteredClaims
}

// Config carries the two signing secrets and token lifetimes. It is built
// once at startup and read-only afterwards.
type Config struct {
	AccessSecret  string
	RefreshSecret string
	AccessExpiry  time.Duration // defaults to 15m
	RefreshExpiry time.Duration // defaults to 7d
}

// Codec creates and cryptographically verifies both token kinds.
type Codec struct {
	accessSigner  Signer
	refreshSigner Signer
	accessExpiry  time.Duration
	refreshExpiry time.Duration
}

// NewCodec initialises a Codec from the given configuration.
func NewCodec(cfg Config) (*Codec, error) {
	if cfg.AccessSecret == "" || cfg.RefreshSecret == "" {
		return nil, errors.New("[token.NewCodec] both signing secrets are required")
	}
	if cfg.AccessSecret == cfg.RefreshSecret {
		return nil, errors.New("[token.NewCodec] access and refresh secrets must differ")
	}

	c := &Codec{
		accessSigner:  NewHMACSigner(cfg.AccessSecret),
		refreshSigner: NewHMACSigner(cfg.RefreshSecret),
		accessExpiry:  cfg.AccessExpiry,
		refreshExpiry: cfg.RefreshExpiry,
	}
	if c.accessExpiry == 0 {
		c.accessExpiry = defaultAccessExpiry
	}
	if c.refreshExpiry == 0 {
		c.refreshExpiry = defaultRefreshExpiry
	}
	return c, nil
}

// IssueAccess signs a new access token for the given identity fields.
func (c *Codec) IssueAccess(id, role, name string) (string, error) {
	now := NowTimeFunc()
	claims := AccessClaims{
		Role: role,
		Name: name,
		Kind: KindAccess,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.accessExpiry)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := c.accessSigner.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.IssueAccess] sign")
	}
	return signed, nil
}

// IssueRefresh signs a new refresh token for the given account ID.
func (c *Codec) IssueRefresh(id string) (string, error) {
	now := NowTimeFunc()
	claims := RefreshClaims{
		Kind: KindRefresh,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(c.refreshExpiry)),
			ID:        uuid.New().String(),
		},
	}

	signed, err := c.refreshSigner.Sign(claims)
	if err != nil {
		return "", errors.Wrap(err, "[Codec.IssueRefresh] sign")
	}
	return signed, nil
}

// VerifyAccess checks signature and expiry against the access secret and
// returns the embedded identity. Any failure is ErrInvalidToken.
func (c *Codec) VerifyAccess(raw string) (Identity, error) {
	claims := &AccessClaims{}
	if err := c.parse(raw, claims, c.accessSigner); err != nil {
		return Identity{}, err
	}
	if claims.Kind != KindAccess {
		return Identity{}, ErrInvalidToken
	}
	return Identity{ID: claims.Subject, Role: claims.Role, Name: claims.Name}, nil
}

// VerifyRefresh checks signature and expiry against the refresh secret and
// returns the account ID the token was issued for.
func (c *Codec) VerifyRefresh(raw string) (string, error) {
	claims := &RefreshClaims{}
	if err := c.parse(raw, claims, c.refreshSigner); err != nil {
		return "", err
	}
	if claims.Kind != KindRefresh {
		return "", ErrInvalidToken
	}
	return claims.Subject, nil
}

func (c *Codec) parse(raw string, claims jwt.Claims, signer Signer) error {
	parsed, err := jwt.ParseWithClaims(raw, claims, signer.GetVerificationKey,
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithTimeFunc(func() time.Time { return NowTimeFunc() }),
	)
	if err != nil || !parsed.Valid {
		return ErrInvalidToken
	}
	return nil
}
