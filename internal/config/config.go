package config

type Config interface {
	EnvConfig
	AuthConfig
	GoogleConfig
}

type EnvConfig interface {
	GetPort() string
	GetAppName() string
	GetEnv() string
	GetRedisAddr() string
	GetClientRedirectURL() string
}

type mainConfig struct {
	EnvVars
	Auth
	Google
}

func New() Config {
	return mainConfig{}
}
