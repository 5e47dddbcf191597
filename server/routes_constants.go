package server

const (
	RouteAuthRegister       = "/api/auth/register"
	RouteAuthLogin          = "/api/auth/login"
	RouteAuthRefresh        = "/api/auth/refresh"
	RouteAuthLogout         = "/api/auth/logout"
	RouteAuthMe             = "/api/auth/me"
	RouteAuthGoogle         = "/api/auth/google"
	RouteAuthGoogleCallback = "/api/auth/google/callback"
)

const (
	// RefreshTokenCookie carries the refresh token on the implicit renewal
	// path and is re-set by the explicit refresh endpoint.
	RefreshTokenCookie = "refreshToken"

	oauthStateCookie = "oauthState"
)
