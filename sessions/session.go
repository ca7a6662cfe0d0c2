// Package sessions holds the authenticated session for each browser
// context: the backend token pair plus the minimum user identity needed for
// routing. Token presence is the sole authenticated/anonymous signal used
// by the rest of the gateway.
package sessions

import (
	"time"

	"github.com/nichelink/gateway/identity"
)

// Session is created on successful login/signup/social callback, mutated
// only by an explicit refresh, and destroyed on logout or expiry.
type Session struct {
	ID           string        // Unique session identifier (UUID)
	ContextID    string        // Anonymous browser-context this session belongs to
	UserID       string        // Backend user ID
	Email        string        // User email
	Role         identity.Role // Side of the marketplace the user signed up on
	AccessToken  string        // Backend-issued access token
	RefreshToken string        // Backend-issued refresh token
	TokenExpiry  time.Time     // Derived from the access token's exp claim
	CreatedAt    time.Time     // When the session was established
}

func (s *Session) Expired(now time.Time) bool {
	return !s.TokenExpiry.IsZero() && s.TokenExpiry.Before(now)
}
