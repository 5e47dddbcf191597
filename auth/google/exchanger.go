// Package google exchanges a Google authorization code for a verified
// identity profile. The session core only sees the Exchanger interface and
// the resulting Profile; all upstream HTTP lives here.
package google

import (
	"context"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	oauth2google "golang.org/x/oauth2/google"
)

// ErrMissingConfiguration is returned when the Google client credentials or
// redirect URL are absent. Surfaced before any account state is touched.
var ErrMissingConfiguration = errors.New("google oauth configuration missing")

// ErrExchangeFailed covers every upstream failure: bad code, unreachable
// provider, unverifiable ID token. Callers get one opaque outcome so no
// upstream detail leaks to clients.
var ErrExchangeFailed = errors.New("google token exchange failed")

const issuerURL = "https://accounts.google.com"

// Profile is the externally verified identity returned by the provider.
type Profile struct {
	Name       string
	Email      string
	ProviderID string
}

// Exchanger turns a provider authorization code into a verified profile.
type Exchanger interface {
	// ConsentURL builds the provider consent URL with the requested scopes.
	ConsentURL(state string) (string, error)

	// Exchange redeems the authorization code and verifies the returned
	// ID token before extracting the profile.
	Exchange(ctx context.Context, code string) (Profile, error)
}

// OIDCExchanger implements Exchanger against Google's OAuth2 + OIDC endpoints.
type OIDCExchanger struct {
	oauth oauth2.Config

	lock     sync.Mutex
	provider *oidc.Provider // lazily resolved, discovery needs network
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURL  string
}

func NewOIDCExchanger(cfg Config) *OIDCExchanger {
	return &OIDCExchanger{
		oauth: oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURL,
			Endpoint:     oauth2google.Endpoint,
			Scopes: []string{
				oidc.ScopeOpenID,
				"https://www.googleapis.com/auth/userinfo.profile",
				"https://www.googleapis.com/auth/userinfo.email",
			},
		},
	}
}

func (e *OIDCExchanger) configured() bool {
	return e.oauth.ClientID != "" && e.oauth.ClientSecret != "" && e.oauth.RedirectURL != ""
}

func (e *OIDCExchanger) ConsentURL(state string) (string, error) {
	if !e.configured() {
		return "", ErrMissingConfiguration
	}
	return e.oauth.AuthCodeURL(state,
		oauth2.AccessTypeOffline,
		oauth2.SetAuthURLParam("prompt", "consent"),
	), nil
}

func (e *OIDCExchanger) Exchange(ctx context.Context, code string) (Profile, error) {
	if !e.configured() {
		return Profile{}, ErrMissingConfiguration
	}

	oauth2Token, err := e.oauth.Exchange(ctx, code)
	if err != nil {
		return Profile{}, errors.Wrap(ErrExchangeFailed, err.Error())
	}

	rawIDToken, ok := oauth2Token.Extra("id_token").(string)
	if !ok {
		return Profile{}, errors.Wrap(ErrExchangeFailed, "no ID token in response")
	}

	provider, err := e.oidcProvider(ctx)
	if err != nil {
		return Profile{}, errors.Wrap(ErrExchangeFailed, err.Error())
	}

	idToken, err := provider.Verifier(&oidc.Config{ClientID: e.oauth.ClientID}).Verify(ctx, rawIDToken)
	if err != nil {
		return Profile{}, errors.Wrap(ErrExchangeFailed, err.Error())
	}

	var claims struct {
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := idToken.Claims(&claims); err != nil {
		return Profile{}, errors.Wrap(ErrExchangeFailed, err.Error())
	}

	return Profile{
		Name:       claims.Name,
		Email:      claims.Email,
		ProviderID: idToken.Subject,
	}, nil
}

func (e *OIDCExchanger) oidcProvider(ctx context.Context) (*oidc.Provider, error) {
	e.lock.Lock()
	defer e.lock.Unlock()

	if e.provider != nil {
		return e.provider, nil
	}
	provider, err := oidc.NewProvider(ctx, issuerURL)
	if err != nil {
		return nil, err
	}
	e.provider = provider
	return provider, nil
}
