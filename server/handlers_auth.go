package server

import (
	"encoding/json"
	"net/http"

	"github.com/pkg/errors"

	"github.com/hvella/go-session-server/auth"
)

type registerRequest struct {
	Name     string `json:"name" validate:"required"`
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
	Age      int    `json:"age" validate:"gte=0"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

type refreshRequest struct {
	RefreshToken string `json:"refreshToken"`
}

// RegisterHandler creates an account. Duplicate emails come back as a 409
// with the ALREADY_USER code.
func (s *Server) RegisterHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req registerRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED")
			return
		}

		user, err := s.service.Register(r.Context(), auth.RegisterParams{
			Name:     req.Name,
			Email:    req.Email,
			Password: req.Password,
			Age:      req.Age,
		})
		if err != nil {
			if errors.Is(err, auth.ErrAlreadyRegistered) {
				writeError(w, http.StatusConflict, auth.ReasonCode(err))
				return
			}
			s.log.Error().Err(err).Msg("register failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
			return
		}

		writeJSON(w, http.StatusCreated, user)
	}
}

// LoginHandler verifies credentials and returns the token pair in the
// response body. The refresh cookie is only set by the explicit refresh
// endpoint; a fresh login hands both tokens to the client directly.
func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			writeError(w, http.StatusBadRequest, "INVALID_REQUEST_BODY")
			return
		}
		if err := s.validate.Struct(req); err != nil {
			writeError(w, http.StatusBadRequest, "VALIDATION_FAILED")
			return
		}

		session, err := s.service.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrUserNotFound):
				writeError(w, http.StatusNotFound, auth.ReasonCode(err))
			case errors.Is(err, auth.ErrIncorrectPassword):
				writeError(w, http.StatusForbidden, auth.ReasonCode(err))
			default:
				s.log.Error().Err(err).Msg("login failed")
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
			}
			return
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"token":        session.AccessToken,
			"refreshToken": session.RefreshToken,
			"user":         session.User,
		})
	}
}

// RefreshHandler is the explicit rotation endpoint: both tokens are
// replaced and the presented refresh token becomes unusable. The rotated
// refresh token travels back in the refreshToken cookie, the access token in
// the body.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		presented := ""
		if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
			presented = cookie.Value
		}
		if presented == "" {
			var req refreshRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err == nil {
				presented = req.RefreshToken
			}
		}
		if presented == "" {
			writeError(w, http.StatusUnauthorized, "REFRESH_TOKEN_NOT_PROVIDED")
			return
		}

		session, err := s.service.Refresh(r.Context(), presented)
		if err != nil {
			switch {
			case errors.Is(err, auth.ErrInvalidRefreshToken):
				writeError(w, http.StatusUnauthorized, auth.ReasonCode(err))
			case errors.Is(err, auth.ErrRefreshUserNotFound):
				writeError(w, http.StatusNotFound, auth.ReasonCode(err))
			case errors.Is(err, auth.ErrRefreshTokenMismatch):
				writeError(w, http.StatusUnauthorized, auth.ReasonCode(err))
			default:
				s.log.Error().Err(err).Msg("refresh failed")
				writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
			}
			return
		}

		s.setRefreshCookie(w, session.RefreshToken)
		writeJSON(w, http.StatusOK, map[string]string{"token": session.AccessToken})
	}
}

// LogoutHandler clears the account's refresh slot and expires the cookie.
// Runs behind SessionAuth, so the identity is always present.
func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "NO_TOKEN_PROVIDED")
			return
		}

		if err := s.service.Logout(r.Context(), identity.ID); err != nil {
			s.log.Error().Err(err).Msg("logout failed")
			writeError(w, http.StatusInternalServerError, "INTERNAL_ERROR")
			return
		}

		s.clearRefreshCookie(w)
		writeJSON(w, http.StatusOK, map[string]string{"message": "Logged out successfully"})
	}
}

// MeHandler echoes the authenticated identity from the access token.
func (s *Server) MeHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		identity, ok := IdentityFromContext(r.Context())
		if !ok {
			writeError(w, http.StatusUnauthorized, "NO_TOKEN_PROVIDED")
			return
		}
		writeJSON(w, http.StatusOK, identity)
	}
}

func (s *Server) setRefreshCookie(w http.ResponseWriter, value string) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    value,
		Path:     "/",
		MaxAge:   int(s.config.GetRefreshTokenExpiry().Seconds()),
		HttpOnly: true,
		Secure:   s.env == "production",
		SameSite: http.SameSiteStrictMode,
	})
}

func (s *Server) clearRefreshCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     RefreshTokenCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   s.env == "production",
		SameSite: http.SameSiteStrictMode,
	})
}
