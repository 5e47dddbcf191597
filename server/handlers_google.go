package server

import (
	"crypto/rand"
	"encoding/hex"
	"net/http"
	"net/url"

	"github.com/pkg/errors"

	"github.com/hvella/go-session-server/auth"
	"github.com/hvella/go-session-server/auth/google"
)

// GoogleConsentHandler starts the federated flow: mint a random state,
// stash it in a short-lived cookie, and redirect to Google's consent page.
func (s *Server) GoogleConsentHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		state, err := randomState()
		if err != nil {
			s.log.Error().Err(err).Msg("could not generate oauth state")
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
			return
		}

		consentURL, err := s.exchanger.ConsentURL(state)
		if err != nil {
			if errors.Is(err, google.ErrMissingConfiguration) {
				writeError(w, http.StatusInternalServerError, auth.ReasonCode(err))
				return
			}
			s.log.Error().Err(err).Msg("could not build consent url")
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
			return
		}

		http.SetCookie(w, &http.Cookie{
			Name:     oauthStateCookie,
			Value:    state,
			Path:     "/",
			MaxAge:   600,
			HttpOnly: true,
			Secure:   s.env == "production",
			SameSite: http.SameSiteLaxMode,
		})
		http.Redirect(w, r, consentURL, http.StatusFound)
	}
}

// GoogleCallbackHandler completes the federated flow. Failures redirect to
// the frontend's login page rather than rendering an API error, because the
// user agent arrives here from Google, not from a fetch call.
func (s *Server) GoogleCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		code := r.URL.Query().Get("code")
		if code == "" {
			writeError(w, http.StatusBadRequest, "MISSING_AUTH_CODE")
			return
		}

		if !s.validState(r) {
			s.log.Warn().Msg("oauth state mismatch")
			s.redirectToLogin(w, r, "authentication_failed")
			return
		}

		profile, err := s.exchanger.Exchange(r.Context(), code)
		if err != nil {
			s.log.Warn().Err(err).Msg("google exchange failed")
			s.redirectToLogin(w, r, "authentication_failed")
			return
		}

		session, err := s.service.LinkIdentity(r.Context(), profile)
		if err != nil {
			s.log.Error().Err(err).Msg("could not link federated identity")
			s.redirectToLogin(w, r, "server_error")
			return
		}

		redirect, err := url.Parse(s.config.GetClientRedirectURL())
		if err != nil {
			s.log.Error().Err(err).Msg("bad client redirect url")
			s.redirectToLogin(w, r, "server_error")
			return
		}
		query := url.Values{}
		query.Set("token", session.AccessToken)
		query.Set("refreshToken", session.RefreshToken)
		redirect.RawQuery = query.Encode()

		http.Redirect(w, r, redirect.String(), http.StatusFound)
	}
}

func (s *Server) validState(r *http.Request) bool {
	state := r.URL.Query().Get("state")
	cookie, err := r.Cookie(oauthStateCookie)
	if err != nil || state == "" {
		return false
	}
	return cookie.Value == state
}

func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request, reason string) {
	http.Redirect(w, r, "/login?error="+url.QueryEscape(reason), http.StatusFound)
}

func randomState() (string, error) {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		return "", err
	}
	return hex.EncodeToString(buf), nil
}
