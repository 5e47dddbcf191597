package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"runtime/debug"
	"syscall"
	"time"

	"github.com/common-nighthawk/go-figure"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/hvella/go-session-server/auth"
	"github.com/hvella/go-session-server/auth/google"
	"github.com/hvella/go-session-server/internal/config"
	"github.com/hvella/go-session-server/server"
	"github.com/hvella/go-session-server/token"
	"github.com/hvella/go-session-server/users"
	"github.com/hvella/go-session-server/users/redisrepo"
	fakeuserrepo "github.com/hvella/go-session-server/users/repofake"
)

func main() {
	_ = godotenv.Load()
	initLogging()

	for {
		if err := run(); err != nil {
			log.Fatal().Err(err).Msg("error running server")
			time.Sleep(1 * time.Second)
		} else {
			break
		}
	}
	log.Info().Msg("server stopped")
}

func run() (returnError error) {
	defer func() {
		if r := recover(); r != nil {
			log.Error().Interface("panic", r).Msg("recovered from panic")
			debug.PrintStack()
			returnError = errors.New("panic recovered")
		}
	}()

	c := config.New()
	displayAppname(c.GetAppName())

	handler, err := buildServer(c)
	if err != nil {
		return errors.Wrap(err, "buildServer")
	}

	httpServer := &http.Server{Addr: c.GetPort(), Handler: handler}
	go listenAndServe(httpServer)
	waitForStopSignal()
	returnError = shutdown(httpServer)
	return returnError
}

func buildServer(c config.Config) (*server.Server, error) {
	codec, err := token.NewCodec(token.Config{
		AccessSecret:  c.GetAccessSecret(),
		RefreshSecret: c.GetRefreshSecret(),
		AccessExpiry:  c.GetAccessTokenExpiry(),
		RefreshExpiry: c.GetRefreshTokenExpiry(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "token.NewCodec")
	}

	repo, err := buildUserRepo(c)
	if err != nil {
		return nil, errors.Wrap(err, "buildUserRepo")
	}

	service, err := auth.NewService(repo, codec)
	if err != nil {
		return nil, errors.Wrap(err, "auth.NewService")
	}
	authn, err := auth.NewAuthenticator(repo, codec)
	if err != nil {
		return nil, errors.Wrap(err, "auth.NewAuthenticator")
	}

	exchanger := google.NewOIDCExchanger(google.Config{
		ClientID:     c.GetGoogleClientID(),
		ClientSecret: c.GetGoogleClientSecret(),
		RedirectURL:  c.GetGoogleRedirectURL(),
	})

	return server.New(c, service, authn, exchanger)
}

// buildUserRepo wires Redis when an address is configured, otherwise falls
// back to the in-memory store so the service stays runnable in development.
func buildUserRepo(c config.Config) (users.Repo, error) {
	addr := c.GetRedisAddr()
	if addr == "" {
		log.Warn().Msg("REDIS_ADDR not set, using in-memory user store")
		return fakeuserrepo.NewFakeUserRepo(), nil
	}

	client := redis.NewClient(&redis.Options{Addr: addr})
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := client.Ping(ctx).Err(); err != nil {
		return nil, errors.Wrapf(err, "redis ping %s", addr)
	}

	log.Info().Str("addr", addr).Msg("connected to redis user store")
	return redisrepo.New(client), nil
}

func initLogging() {
	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	if os.Getenv("ENV") == "development" {
		log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})
	}
}

func listenAndServe(httpServer *http.Server) {
	log.Info().Str("addr", httpServer.Addr).Msg("server listening")
	if err := httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
		log.Error().Err(err).Msg("listen and serve")
	}
}

func waitForStopSignal() {
	stop := make(chan os.Signal, 1)
	signal.Notify(stop, os.Interrupt, syscall.SIGTERM)
	<-stop
}

func shutdown(httpServer *http.Server) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(ctx); err != nil {
		return errors.Wrap(err, "server.Shutdown")
	}
	return nil
}

func displayAppname(appname string) {
	myFigure := figure.NewFigure(appname, "cybermedium", true)
	myFigure.Print()
	fmt.Println()
}
