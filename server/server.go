// Package server is the HTTP surface of the gateway: credential and social
// sign-in endpoints, the auth and subscription gates in front of the
// dashboards, and the onboarding wizard API.
package server

import (
	"net/http"
	"strings"
	"sync"

	"github.com/coreos/go-oidc/v3/oidc"
	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/config"
	"github.com/nichelink/gateway/onboarding"
	"github.com/nichelink/gateway/server/authflowrepo"
	"github.com/nichelink/gateway/sessions"
	"github.com/nichelink/gateway/subscription"
	"github.com/pkg/errors"
	"github.com/rs/cors"
	"github.com/rs/zerolog/log"
	"golang.org/x/oauth2"
)

type OidcConfig struct {
	OidcProvider *oidc.Provider
	OAuth2Config *oauth2.Config
	OidcVerifier *oidc.IDTokenVerifier
}

type Server struct {
	env       string // Environment (e.g., "DEV", "PROD")
	mux       *http.ServeMux
	routes    []string
	config    config.Config
	backend   *identity.Client
	store     *sessions.Store
	wizard    *onboarding.Orchestrator
	subGate   *subscription.Gate
	authState authflowrepo.Repo
	cors      *cors.Cors
	limiter   *rateLimiter

	providerOidc     map[string]OidcConfig
	providerOidcLock sync.RWMutex
}

func New(
	cfg config.Config,
	backend *identity.Client,
	store *sessions.Store,
	wizard *onboarding.Orchestrator,
	subGate *subscription.Gate,
	authStateRepo authflowrepo.Repo,
) (*Server, error) {
	if backend == nil {
		return nil, errors.New("[server.New] backend is required")
	}
	if store == nil {
		return nil, errors.New("[server.New] session store is required")
	}
	if wizard == nil {
		return nil, errors.New("[server.New] onboarding orchestrator is required")
	}
	if subGate == nil {
		return nil, errors.New("[server.New] subscription gate is required")
	}
	if authStateRepo == nil {
		return nil, errors.New("[server.New] auth state repo is required")
	}

	s := &Server{
		mux:       http.NewServeMux(),
		config:    cfg,
		backend:   backend,
		store:     store,
		wizard:    wizard,
		subGate:   subGate,
		authState: authStateRepo,
		cors: cors.New(cors.Options{
			AllowedOrigins:   cfg.GetAllowedOrigins(),
			AllowedMethods:   []string{http.MethodGet, http.MethodPost, http.MethodPatch, http.MethodDelete, http.MethodOptions},
			AllowedHeaders:   []string{"Authorization", "Content-Type"},
			AllowCredentials: true,
			MaxAge:           3600,
		}),
		limiter:      newRateLimiter(cfg.GetAuthRateLimitRPM(), cfg.GetGeneralRateLimitRPM()),
		providerOidc: make(map[string]OidcConfig),
	}
	s.env = cfg.GetEnv()

	s.initRoutes()
	s.logRoutes()

	return s, nil
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) {
	s.mux.ServeHTTP(w, r)
}

func (s *Server) RegisterRouteHandler(pattern string, handler http.Handler) {
	s.routes = append(s.routes, pattern)
	s.mux.Handle(pattern, handler)
}

func (s *Server) RegisterRouteFunc(pattern string, handler func(http.ResponseWriter, *http.Request)) {
	s.routes = append(s.routes, pattern)
	s.mux.HandleFunc(pattern, handler)
}

func (s *Server) logRoutes() {
	if s.env != "DEV" {
		return // Skip logging in non-development environments
	}
	for _, route := range s.routes {
		parts := strings.SplitN(route, " ", 2)
		if len(parts) > 1 {
			log.Info().Str("method", parts[0]).Str("path", parts[1]).Msg("route")
		} else {
			log.Info().Str("path", parts[0]).Msg("route")
		}
	}
}

// Helper function to determine the scheme (http/https)
func getScheme(r *http.Request) string {
	if r.TLS != nil {
		return "https"
	}
	if scheme := r.Header.Get("X-Forwarded-Proto"); scheme != "" {
		return scheme
	}
	return "http"
}
