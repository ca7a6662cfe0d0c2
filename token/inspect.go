// Package token inspects backend-issued access tokens. The gateway is a
// relying party, not the issuer: it holds no key material, so tokens are
// parsed without signature verification purely to derive expiry and role.
// The backend re-verifies every token on every call.
package token

import (
	"errors"
	"strings"
	"time"

	jwtlib "github.com/golang-jwt/jwt/v5"
)

// Introspection carries the claims the gateway cares about.
type Introspection struct {
	Subject   string
	Role      string
	ExpiresAt time.Time
}

var EmptyTokenErr = errors.New("empty token")

// Inspect extracts claims from a raw access token. An unparseable token is
// not an authentication failure here - opaque tokens are legal, the caller
// falls back to a configured default expiry.
func Inspect(rawToken string) (*Introspection, error) {
	if strings.TrimSpace(rawToken) == "" {
		return nil, EmptyTokenErr
	}

	parsed, _, err := jwtlib.NewParser().ParseUnverified(rawToken, jwtlib.MapClaims{})
	if err != nil {
		return nil, err
	}

	claims, ok := parsed.Claims.(jwtlib.MapClaims)
	if !ok {
		return nil, errors.New("error extracting claims")
	}

	in := &Introspection{}
	if sub, err := claims.GetSubject(); err == nil {
		in.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		in.ExpiresAt = exp.Time
	}
	if role, ok := claims["signed_up_as"].(string); ok {
		in.Role = role
	} else if role, ok := claims["role"].(string); ok {
		in.Role = role
	}
	return in, nil
}
