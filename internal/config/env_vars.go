package config

import (
	"fmt"
	"os"
)

const (
	portEnvVar      = "PORT"
	appNameVar      = "APP_NAME"
	redisAddrVar    = "REDIS_ADDR"
	clientURLEnvVar = "CLIENT_REDIRECT_URL"
)

type EnvVars struct{}

var _ EnvConfig = EnvVars{}

func (EnvVars) GetPort() string {
	port := GetEnv(portEnvVar, "8080")
	if port[0] != ':' {
		port = fmt.Sprintf(":%s", port)
	}
	return port
}

func (EnvVars) GetAppName() string {
	return GetEnv(appNameVar, "Go Session Server")
}

func (EnvVars) GetEnv() string {
	env := os.Getenv("ENV")
	if env == "" {
		return "development"
	}
	return env
}

func (EnvVars) GetRedisAddr() string {
	return GetEnv(redisAddrVar, "")
}

// GetClientRedirectURL returns the frontend application URL that federated
// logins redirect back to with the issued tokens.
func (EnvVars) GetClientRedirectURL() string {
	return GetEnv(clientURLEnvVar, "http://localhost:4200")
}

func GetEnv(envVar, defaultValue string) string {
	value := os.Getenv(envVar)
	if value == "" {
		return defaultValue
	}
	return value
}
