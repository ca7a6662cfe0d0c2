package server

import (
	"crypto/rand"
	"encoding/base64"
	"net/http"
	"net/url"
	"time"

	"github.com/google/uuid"
	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/sessions"
)

const (
	// contextCookieName identifies an anonymous browser context; it keys the
	// session and the onboarding drafts.
	contextCookieName = "nl_ctx"
	// sessionCookieName carries the authenticated session ID.
	sessionCookieName = "nl_session"
	// roleCookieName is the short-lived intended-role cookie set just before
	// redirecting to a social provider and read back in the callback.
	roleCookieName = "nl_signup_role"
)

// generateRandomString creates a random base64url string
func generateRandomString(length int) string {
	b := make([]byte, length)
	rand.Read(b)
	return base64.RawURLEncoding.EncodeToString(b)
}

// browserContextID returns the anonymous context ID for this browser,
// minting the cookie on first touch.
func (s *Server) browserContextID(w http.ResponseWriter, r *http.Request) string {
	if cookie, err := r.Cookie(contextCookieName); err == nil && cookie.Value != "" {
		return cookie.Value
	}

	contextID := uuid.New().String()
	http.SetCookie(w, &http.Cookie{
		Name:     contextCookieName,
		Value:    contextID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   60 * 60 * 24 * 365,
	})
	return contextID
}

func (s *Server) setSessionCookie(w http.ResponseWriter, r *http.Request, sessionID string, maxAge int) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    sessionID,
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   maxAge,
	})
}

func (s *Server) clearSessionCookie(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   -1,
	})
}

// setRoleCookie records the intended signup role for the duration of a
// social-provider redirect round trip.
func (s *Server) setRoleCookie(w http.ResponseWriter, r *http.Request, role identity.Role) {
	http.SetCookie(w, &http.Cookie{
		Name:     roleCookieName,
		Value:    string(role),
		Path:     "/",
		HttpOnly: true,
		Secure:   getScheme(r) == "https",
		SameSite: http.SameSiteLaxMode,
		MaxAge:   s.config.GetRoleCookieMaxAge(),
	})
}

// readRoleCookie reads the intended role back and expires the cookie. A
// missing or invalid cookie falls back to the influencer flow.
func (s *Server) readRoleCookie(w http.ResponseWriter, r *http.Request) identity.Role {
	role := identity.RoleInfluencer
	if cookie, err := r.Cookie(roleCookieName); err == nil {
		if candidate := identity.Role(cookie.Value); candidate.Valid() {
			role = candidate
		}
	}
	http.SetCookie(w, &http.Cookie{
		Name:   roleCookieName,
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})
	return role
}

// sessionCookieMaxAge aligns the session cookie lifetime with the access
// token expiry held in the session.
func sessionCookieMaxAge(session *sessions.Session) int {
	return int(time.Until(session.TokenExpiry).Seconds())
}

// safeReturnPath accepts a post-auth redirect target only when it is a
// same-origin relative path. Absolute URLs and protocol-relative forms
// ("//host", "/\host") come back empty so the caller falls through to the
// role dashboard.
func safeReturnPath(p string) string {
	if len(p) < 1 || p[0] != '/' {
		return ""
	}
	if len(p) > 1 && (p[1] == '/' || p[1] == '\\') {
		return ""
	}
	return p
}

// loginRedirectPath builds the login redirect preserving the originally
// requested path.
func loginRedirectPath(returnTo string) string {
	if returnTo == "" {
		return RouteAuthLogin
	}
	return RouteAuthLogin + "?" + QueryReturnTo + "=" + url.QueryEscape(returnTo)
}
