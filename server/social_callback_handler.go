package server

import (
	"net/http"
	"strings"
	"time"

	"github.com/nichelink/gateway/identity"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

// SocialCallbackHandler completes a social sign-in. It accepts GET (query
// params) and POST (Apple's form_post response mode), verifies the ID token,
// and exchanges the verified assertion with the identity backend. A provider
// identity with no usable access token from the backend is an error, not a
// session.
func (s *Server) SocialCallbackHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		// r.FormValue reads query params on GET and form fields on POST
		state := r.FormValue("state")
		code := r.FormValue("code")
		errorParam := r.FormValue("error")

		if errorParam != "" {
			log.Warn().Str("error", errorParam).Str("description", r.FormValue("error_description")).Msg("provider returned an authorization error")
			http.Redirect(w, r, loginRedirectPath(""), http.StatusSeeOther)
			return
		}
		if code == "" || state == "" {
			writeError(w, http.StatusBadRequest, "missing code or state parameter")
			return
		}

		authState, err := s.authState.Get(state)
		if err != nil || authState == nil {
			writeError(w, http.StatusBadRequest, "invalid state parameter")
			return
		}
		// State is single use
		if err := s.authState.Delete(state); err != nil {
			writeError(w, http.StatusInternalServerError, "invalid state parameter")
			return
		}
		if time.Since(authState.CreatedAt) > s.config.GetAuthStateTimeout() {
			writeError(w, http.StatusBadRequest, "sign-in took too long, please start again")
			return
		}

		oidcConfig, err := s.getOidcConfigForProvider(r.Context(), authState.Provider)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "sign-in provider unavailable")
			return
		}

		oauth2Token, err := oidcConfig.OAuth2Config.Exchange(
			r.Context(),
			code,
			oauth2.VerifierOption(authState.CodeVerifier),
		)
		if err != nil {
			log.Error().Err(err).Str("provider", authState.Provider).Msg("token exchange failed")
			writeError(w, http.StatusBadGateway, "sign-in could not be completed")
			return
		}

		rawIDToken, ok := oauth2Token.Extra("id_token").(string)
		if !ok {
			writeError(w, http.StatusBadGateway, "no ID token in provider response")
			return
		}

		idToken, err := oidcConfig.OidcVerifier.Verify(r.Context(), rawIDToken)
		if err != nil {
			log.Error().Err(err).Str("provider", authState.Provider).Msg("ID token verification failed")
			writeError(w, http.StatusUnauthorized, "sign-in could not be verified")
			return
		}

		var claims struct {
			Nonce      string `json:"nonce"`
			Email      string `json:"email"`
			GivenName  string `json:"given_name"`
			FamilyName string `json:"family_name"`
			Name       string `json:"name"`
		}
		if err := idToken.Claims(&claims); err != nil {
			writeError(w, http.StatusBadGateway, "could not read provider claims")
			return
		}
		if claims.Nonce != authState.Nonce {
			writeError(w, http.StatusUnauthorized, "invalid nonce")
			return
		}

		firstName, lastName := splitClaimNames(claims.GivenName, claims.FamilyName, claims.Name)

		assertion := identity.SocialAssertion{
			Provider:  authState.Provider,
			Email:     claims.Email,
			FirstName: firstName,
			LastName:  lastName,
			Role:      s.readRoleCookie(w, r),
		}

		creds, err := s.backend.SocialSignIn(r.Context(), assertion)
		if err != nil {
			log.Error().Err(err).Str("provider", authState.Provider).Msg("social exchange with backend failed")
			http.Redirect(w, r, loginRedirectPath(""), http.StatusSeeOther)
			return
		}

		contextID := s.browserContextID(w, r)
		session, err := s.store.SetSession(contextID, creds)
		if err != nil {
			log.Error().Err(err).Msg("failed to persist session after social sign-in")
			writeError(w, http.StatusInternalServerError, "could not establish session")
			return
		}
		s.setSessionCookie(w, r, session.ID, sessionCookieMaxAge(session))

		if err := s.wizard.ResumePending(r.Context(), contextID, session.AccessToken); err != nil {
			log.Error().Err(err).Msg("failed to resume pending onboarding submission")
		}

		returnURL := safeReturnPath(authState.ReturnURL)
		if returnURL == "" || returnURL == "/" {
			returnURL = DashboardRoute(session.Role)
		}
		http.Redirect(w, r, returnURL, http.StatusSeeOther)
	}
}

// splitClaimNames resolves a usable first/last name from whichever claims
// the provider sent. Apple only sends names on the first authorization, so
// everything may legitimately be empty.
func splitClaimNames(given, family, full string) (string, string) {
	if given != "" || family != "" {
		return given, family
	}
	if full == "" {
		return "", ""
	}
	parts := strings.SplitN(full, " ", 2)
	if len(parts) == 1 {
		return parts[0], ""
	}
	return parts[0], parts[1]
}
