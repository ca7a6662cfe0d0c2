package server

import (
	"net/http"

	"github.com/nichelink/gateway/identity"
)

func (s *Server) initRoutes() {
	// Credentials auth (rate limited)
	s.RegisterRouteHandler("POST "+RouteAuthLogin, ChainMiddleware(s.LoginHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthSignup, ChainMiddleware(s.SignupHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthLogout, ChainMiddleware(s.LogoutHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthRefresh, ChainMiddleware(s.RefreshHandler(), s.AuthMiddleware()...))

	// Social sign-in
	s.RegisterRouteHandler("GET "+RouteAuthSocialStart, ChainMiddleware(s.SocialStartHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAuthSocialCallback, ChainMiddleware(s.SocialCallbackHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthSocialCallback, ChainMiddleware(s.SocialCallbackHandler(), s.APIMiddleware()...)) // form_post response mode

	// Email verification & password reset (rate limited)
	s.RegisterRouteHandler("POST "+RouteAuthSendOTP, ChainMiddleware(s.SendOTPHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthVerifyEmail, ChainMiddleware(s.VerifyEmailHandler(), s.AuthMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteAuthResetPassword, ChainMiddleware(s.ResetPasswordHandler(), s.AuthMiddleware()...))

	// Session & subscription state
	s.RegisterRouteHandler("GET "+RouteAPISession, ChainMiddleware(s.SessionHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("GET "+RouteAPISubscription, ChainMiddleware(s.SubscriptionHandler(), s.APIMiddleware()...))

	// Onboarding wizard
	s.RegisterRouteHandler("GET "+RouteOnboarding, ChainMiddleware(s.OnboardingDraftHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("PATCH "+RouteOnboarding, ChainMiddleware(s.OnboardingUpdateHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOnboardingStep, ChainMiddleware(s.OnboardingStepHandler(), s.APIMiddleware()...))
	s.RegisterRouteHandler("POST "+RouteOnboardingComplete, ChainMiddleware(s.OnboardingCompleteHandler(), s.APIMiddleware()...))

	// Dashboards: auth gate first, then the subscription gate
	s.RegisterRouteHandler("GET "+RouteBrandDashboard,
		ChainMiddleware(s.DashboardHandler(identity.RoleBrand),
			append(s.APIMiddleware(), s.RequireDashboard(identity.RoleBrand), s.RequireSubscription(identity.RoleBrand))...))
	s.RegisterRouteHandler("GET "+RouteInfluencerDashboard,
		ChainMiddleware(s.DashboardHandler(identity.RoleInfluencer),
			append(s.APIMiddleware(), s.RequireDashboard(identity.RoleInfluencer), s.RequireSubscription(identity.RoleInfluencer))...))

	// Subscription-required explanation page data
	s.RegisterRouteHandler("GET "+RouteSubscriptionRequired, ChainMiddleware(s.SubscriptionRequiredHandler(), s.APIMiddleware()...))

	s.RegisterRouteFunc("GET "+RouteHealthz, s.HealthzHandler())
}

func (s *Server) HealthzHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}
}
