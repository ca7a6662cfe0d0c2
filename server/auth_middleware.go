package server

import (
	"context"
	"net/http"
	"strings"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/sessions"
	"github.com/rs/zerolog/log"
)

// ContextKey is a custom type for context keys to avoid collisions
type ContextKey string

const (
	// ContextKeySession stores the authenticated session
	ContextKeySession ContextKey = "session"
	// ContextKeyUser stores the fetched user profile
	ContextKeyUser ContextKey = "user"
)

// RequireDashboard is the auth gate in front of a dashboard area. Three
// phases per request: no session → redirect to login with returnTo; session
// present → fetch the profile and check the requested area against the
// user's canonical dashboard; only then render. A profile-fetch failure is
// terminal for the request - no automatic retry.
func (s *Server) RequireDashboard(area identity.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			// unauthenticated
			cookie, err := r.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				s.redirectToLogin(w, r)
				return
			}

			session, err := s.store.Get(cookie.Value)
			if err != nil {
				s.clearSessionCookie(w, r)
				s.redirectToLogin(w, r)
				return
			}

			// checking: the profile decides the canonical dashboard
			user, err := s.backend.GetUserInfo(r.Context(), session.AccessToken)
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("profile fetch failed during auth gate")
				writeError(w, http.StatusBadGateway, "Could not load your profile. Please sign in again at "+RouteAuthLogin)
				return
			}

			if canonical := user.DashboardRole(); canonical != area {
				http.Redirect(w, r, DashboardRoute(canonical), http.StatusSeeOther)
				return
			}

			// authorized
			ctx := context.WithValue(r.Context(), ContextKeySession, session)
			ctx = context.WithValue(ctx, ContextKeyUser, user)
			next(w, r.WithContext(ctx))
		}
	}
}

// redirectToLogin turns an unauthenticated request away. Browser
// navigations get a 303 to the login page with returnTo; clients asking for
// JSON get a 401 carrying the same path.
func (s *Server) redirectToLogin(w http.ResponseWriter, r *http.Request) {
	target := loginRedirectPath(r.URL.Path)
	if strings.Contains(r.Header.Get("Accept"), "application/json") {
		writeError(w, http.StatusUnauthorized, "sign in at "+target)
		return
	}
	http.Redirect(w, r, target, http.StatusSeeOther)
}

// RequireSubscription checks plan entitlement for a dashboard area and
// redirects to the subscription-required page with the applicable reason.
// Chain it after RequireDashboard so the session is present.
func (s *Server) RequireSubscription(area identity.Role) func(http.HandlerFunc) http.HandlerFunc {
	return func(next http.HandlerFunc) http.HandlerFunc {
		return func(w http.ResponseWriter, r *http.Request) {
			session, ok := r.Context().Value(ContextKeySession).(*sessions.Session)
			if !ok {
				s.redirectToLogin(w, r)
				return
			}

			reason, err := s.subGate.Check(r.Context(), session.AccessToken, area)
			if err != nil {
				log.Error().Err(err).Str("path", r.URL.Path).Msg("subscription check failed")
				writeError(w, http.StatusBadGateway, "Could not verify your subscription. Please try again.")
				return
			}
			if reason != "" {
				http.Redirect(w, r, RouteSubscriptionRequired+"?"+QueryReason+"="+string(reason)+"&"+QueryArea+"="+string(area), http.StatusSeeOther)
				return
			}

			next(w, r)
		}
	}
}
