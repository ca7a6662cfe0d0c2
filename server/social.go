package server

import (
	"context"
	"net/http"
	"time"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/server/authflowrepo"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

const (
	providerGoogle = "google"
	providerApple  = "apple"
)

// getOidcConfigForProvider lazily builds and caches the OIDC configuration
// for a social provider. Discovery hits the network, so it happens at most
// once per provider.
func (s *Server) getOidcConfigForProvider(ctx context.Context, providerName string) (OidcConfig, error) {
	s.providerOidcLock.RLock()
	cached, exists := s.providerOidc[providerName]
	s.providerOidcLock.RUnlock()
	if exists {
		return cached, nil
	}

	var issuer, clientID, clientSecret string
	switch providerName {
	case providerGoogle:
		issuer = s.config.GetGoogleIssuer()
		clientID = s.config.GetGoogleClientID()
		clientSecret = s.config.GetGoogleClientSecret()
	case providerApple:
		issuer = s.config.GetAppleIssuer()
		clientID = s.config.GetAppleClientID()
		clientSecret = s.config.GetAppleClientSecret()
	default:
		return OidcConfig{}, errors.Errorf("[getOidcConfigForProvider] unsupported provider %q", providerName)
	}
	if clientID == "" {
		return OidcConfig{}, errors.Errorf("[getOidcConfigForProvider] provider %q is not configured", providerName)
	}

	provider, err := oidc.NewProvider(ctx, issuer)
	if err != nil {
		return OidcConfig{}, errors.Wrap(err, "[getOidcConfigForProvider] oidc.NewProvider")
	}

	oidcConfig := OidcConfig{
		OidcProvider: provider,
		OAuth2Config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			Endpoint:     provider.Endpoint(),
			RedirectURL:  s.config.GetBaseURL() + RouteAuthSocialCallback,
			Scopes:       []string{oidc.ScopeOpenID, "profile", "email"},
		},
		OidcVerifier: provider.Verifier(&oidc.Config{
			ClientID: clientID,
		}),
	}

	s.providerOidcLock.Lock()
	s.providerOidc[providerName] = oidcConfig
	s.providerOidcLock.Unlock()

	return oidcConfig, nil
}

// SocialStartHandler begins a social sign-in: it records the intended signup
// role in a short-lived cookie, stashes the flow state, and redirects the
// browser to the provider's authorization endpoint.
func (s *Server) SocialStartHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		providerName := r.PathValue("provider")

		oidcConfig, err := s.getOidcConfigForProvider(r.Context(), providerName)
		if err != nil {
			writeError(w, http.StatusBadRequest, "unknown sign-in provider")
			return
		}

		// The role the user picked on the signup screen rides along in a
		// cookie because the provider round trip drops our query params.
		if role := identity.Role(r.URL.Query().Get("role")); role.Valid() {
			s.setRoleCookie(w, r, role)
		}

		// Reclaim states from sign-ins that never came back
		if err := s.authState.DeleteExpired(time.Now().Add(-s.config.GetAuthStateTimeout())); err != nil {
			log.Warn().Err(err).Msg("could not sweep expired sign-in states")
		}

		contextID := s.browserContextID(w, r)
		state := generateRandomString(32)
		nonce := generateRandomString(32)
		verifier := oauth2.GenerateVerifier()

		if err := s.authState.Upsert(state, &authflowrepo.AuthFlowState{
			Provider:     providerName,
			CodeVerifier: verifier,
			Nonce:        nonce,
			ReturnURL:    r.URL.Query().Get(QueryReturnTo),
			ContextID:    contextID,
			CreatedAt:    time.Now(),
		}); err != nil {
			writeError(w, http.StatusInternalServerError, "could not start sign-in")
			return
		}

		authURL := oidcConfig.OAuth2Config.AuthCodeURL(
			state,
			oauth2.S256ChallengeOption(verifier),
			oidc.Nonce(nonce),
		)
		http.Redirect(w, r, authURL, http.StatusSeeOther)
	}
}
