package config

import "time"

type SessionConfig interface {
	GetSecureCookies() bool
	GetCookieMaxAge() time.Duration
}

type Session struct{}

var _ SessionConfig = Session{}

// GetSecureCookies marks auth cookies Secure outside DEV so they only travel
// over TLS.
func (Session) GetSecureCookies() bool {
	return EnvVars{}.GetEnv() != "DEV"
}

func (Session) GetCookieMaxAge() time.Duration {
	return 400 * 24 * time.Hour
}
