package config

import "time"

type AuthConfig interface {
	GetAccessSecret() string
	GetRefreshSecret() string
	GetAccessTokenExpiry() time.Duration
	GetRefreshTokenExpiry() time.Duration
}

type Auth struct{}

var _ AuthConfig = Auth{}

func (Auth) GetAccessSecret() string {
	return GetEnv("JWT_SECRET", "")
}

func (Auth) GetRefreshSecret() string {
	return GetEnv("REFRESH_SECRET", "")
}

func (Auth) GetAccessTokenExpiry() time.Duration {
	return 15 * time.Minute
}

func (Auth) GetRefreshTokenExpiry() time.Duration {
	return 7 * 24 * time.Hour // 7 days
}
