package config

import "time"

type AuthConfig interface {
	GetDefaultSessionExpiry() time.Duration
	GetRoleCookieMaxAge() int
	GetAuthStateTimeout() time.Duration
	GetGoogleIssuer() string
	GetGoogleClientID() string
	GetGoogleClientSecret() string
	GetAppleIssuer() string
	GetAppleClientID() string
	GetAppleClientSecret() string
}

type Auth struct{}

var _ AuthConfig = Auth{}

// GetDefaultSessionExpiry is the session lifetime used when the backend
// access token carries no parseable exp claim.
func (Auth) GetDefaultSessionExpiry() time.Duration {
	return getDuration("SESSION_EXPIRY", time.Hour)
}

// GetRoleCookieMaxAge is the lifetime (seconds) of the intended-role cookie
// set just before redirecting to a social provider. Long enough for the
// redirect round trip, no longer.
func (Auth) GetRoleCookieMaxAge() int {
	return 300
}

func (Auth) GetAuthStateTimeout() time.Duration {
	return 10 * time.Minute
}

func (Auth) GetGoogleIssuer() string {
	return GetEnv("GOOGLE_ISSUER", "https://accounts.google.com")
}

func (Auth) GetGoogleClientID() string {
	return GetEnv("GOOGLE_CLIENT_ID", "")
}

func (Auth) GetGoogleClientSecret() string {
	return GetEnv("GOOGLE_CLIENT_SECRET", "")
}

func (Auth) GetAppleIssuer() string {
	return GetEnv("APPLE_ISSUER", "https://appleid.apple.com")
}

func (Auth) GetAppleClientID() string {
	return GetEnv("APPLE_CLIENT_ID", "")
}

func (Auth) GetAppleClientSecret() string {
	return GetEnv("APPLE_CLIENT_SECRET", "")
}
