package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/hvella/go-session-server/auth"
	"github.com/hvella/go-session-server/token"
	"github.com/hvella/go-session-server/users"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

// ContextKeyIdentity stores the authenticated identity
const ContextKeyIdentity ContextKey = "identity"

// IdentityFromContext returns the identity placed by SessionAuth.
func IdentityFromContext(ctx context.Context) (token.Identity, bool) {
	identity, ok := ctx.Value(ContextKeyIdentity).(token.Identity)
	return identity, ok
}

// SessionAuth is middleware that authenticates a request from its bearer
// access token and refreshToken cookie. When the session authenticator
// silently renews the access token, the new token is emitted on the
// Authorization response header so the caller can adopt it without another
// round trip. Every rejection terminates the request with a 401 and the
// machine-readable reason code.
func (s *Server) SessionAuth() func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			bearer := bearerToken(r)
			refresh := ""
			if cookie, err := r.Cookie(RefreshTokenCookie); err == nil {
				refresh = cookie.Value
			}

			result, err := s.authn.Authenticate(r.Context(), bearer, refresh)
			if err != nil {
				writeError(w, http.StatusUnauthorized, auth.ReasonCode(err))
				return
			}

			if result.RenewedAccessToken != "" {
				w.Header().Set("Authorization", "Bearer "+result.RenewedAccessToken)
			}

			ctx := context.WithValue(r.Context(), ContextKeyIdentity, result.Identity)
			next(w, r.WithContext(ctx))
		}
	}
}

// RequireRole is middleware that denies the request unless the
// authenticated identity's role is in the allow set. Must be chained after
// SessionAuth. The response never reveals which roles were required.
func (s *Server) RequireRole(roles ...users.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			identity, ok := IdentityFromContext(r.Context())
			if !ok || !auth.Authorized(identity, roles...) {
				writeJSON(w, http.StatusForbidden, map[string]string{
					"message": "You do not have permission to access this resource",
				})
				return
			}
			next(w, r)
		}
	}
}

func bearerToken(r *http.Request) string {
	authHeader := r.Header.Get("Authorization")
	if authHeader == "" {
		return ""
	}
	parts := strings.SplitN(authHeader, " ", 2)
	if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") {
		return ""
	}
	return parts[1]
}
