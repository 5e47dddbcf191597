// Package server is the HTTP boundary: routes, handlers, and the session
// middleware that drives silent token renewal.
package server

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hvella/go-session-server/auth"
	"github.com/hvella/go-session-server/auth/google"
	"github.com/hvella/go-session-server/internal/config"
)

type Server struct {
	env       string // Environment (e.g., "development", "production")
	mux       *http.ServeMux
	config    config.Config
	service   *auth.Service
	authn     *auth.Authenticator
	exchanger google.Exchanger
	validate  *validator.Validate
	log       zerolog.Logger
}

func New(cfg config.Config, service *auth.Service, authn *auth.Authenticator, exchanger google.Exchanger) (*Server, error) {
	if service == nil {
		return nil, errors.New("[server.New] auth service is required")
	}
	if authn == nil {
		return nil, errors.New("[server.New] authenticator is required")
	}
	if exchanger == nil {
		return nil, errors.New("[server.New] google exchanger is required")
	}

	s := &Server{
		env:       cfg.GetEnv(),
		mux:       http.NewServeMux(),
		config:    cfg,
		service:   service,
		authn:     authn,
		exchanger: exchanger,
		validate:  validator.New(),
		log:       log.With().Str("component", "server").Logger(),
	}
	s.initRoutes()
	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) initRoutes() {
	s.mux.HandleFunc("POST "+RouteAuthRegister, ChainMiddleware(s.RegisterHandler(), s.APIMiddleware()...))
	s.mux.HandleFunc("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.APIMiddleware()...))
	s.mux.HandleFunc("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.APIMiddleware()...))
	s.mux.HandleFunc("POST "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), append(s.APIMiddleware(), s.SessionAuth())...))
	s.mux.HandleFunc("GET "+RouteAuthMe, ChainMiddleware(s.MeHandler(), append(s.APIMiddleware(), s.SessionAuth())...))

	s.mux.HandleFunc("GET "+RouteAuthGoogle, ChainMiddleware(s.GoogleConsentHandler(), s.APIMiddleware()...))
	s.mux.HandleFunc("GET "+RouteAuthGoogleCallback, ChainMiddleware(s.GoogleCallbackHandler(), s.APIMiddleware()...))
}
