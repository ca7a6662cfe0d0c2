package server

import "github.com/nichelink/gateway/identity"

// Route path constants
// All application routes are defined here to ensure consistency and prevent typos
const (
	// Auth Routes - Credentials
	RouteAuthLogin   = "/auth/login"
	RouteAuthSignup  = "/auth/signup"
	RouteAuthLogout  = "/auth/logout"
	RouteAuthRefresh = "/auth/refresh"

	// Auth Routes - Social sign-in
	RouteAuthSocialStart    = "/auth/social/{provider}"
	RouteAuthSocialCallback = "/auth/social/callback"

	// Auth Routes - Email verification & password reset
	RouteAuthSendOTP       = "/auth/send-otp"
	RouteAuthVerifyEmail   = "/auth/verify-email"
	RouteAuthResetPassword = "/auth/reset-password"

	// API Routes
	RouteAPISession      = "/api/session"
	RouteAPISubscription = "/api/subscription"

	// Onboarding Routes
	RouteOnboarding         = "/onboarding/{role}"
	RouteOnboardingStep     = "/onboarding/{role}/step"
	RouteOnboardingComplete = "/onboarding/{role}/complete"

	// Dashboard Routes (gated)
	RouteBrandDashboard      = "/brand-dashboard"
	RouteInfluencerDashboard = "/influencer-dashboard"

	// Subscription Routes
	RouteSubscriptionRequired = "/subscription-required"

	// Health
	RouteHealthz = "/healthz"
)

// Query parameter contract shared with the web frontend
const (
	QueryReturnTo = "returnTo"
	QueryReason   = "reason"
	QueryStep     = "step"
	QueryStatus   = "status"
	QueryArea     = "area"
)

// DashboardRoute maps a role to its canonical dashboard path.
func DashboardRoute(role identity.Role) string {
	if role == identity.RoleBrand {
		return RouteBrandDashboard
	}
	return RouteInfluencerDashboard
}
