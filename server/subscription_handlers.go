package server

import (
	"net/http"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/subscription"
)

// SubscriptionHandler reports the current user's subscription state. The
// state is fetched from the backend on every call.
func (s *Server) SubscriptionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contextID := s.browserContextID(w, r)
		accessToken := s.store.Token(contextID)
		if accessToken == "" {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}

		sub, err := s.backend.GetSubscription(r.Context(), accessToken)
		if err != nil {
			writeError(w, http.StatusBadGateway, "could not load subscription")
			return
		}
		writeJSON(w, http.StatusOK, sub)
	}
}

// SubscriptionRequiredHandler serves the content of the page users land on
// when a gate turned them away, selected by the reason code in the query.
func (s *Server) SubscriptionRequiredHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		reason := subscription.Reason(r.URL.Query().Get(QueryReason))
		area := identity.Role(r.URL.Query().Get(QueryArea))
		if !area.Valid() {
			area = identity.RoleInfluencer
		}
		writeJSON(w, http.StatusOK, subscription.Explain(reason, area))
	}
}

type dashboardResponse struct {
	Area             identity.Role  `json:"area"`
	User             *identity.User `json:"user"`
	CheckoutComplete bool           `json:"checkout_complete,omitempty"`
}

// DashboardHandler renders the dashboard payload for an area. It runs behind
// RequireDashboard and RequireSubscription, so the user in the request
// context has already been vetted for this area. A ?status=success query
// marks arrival from a completed checkout.
func (s *Server) DashboardHandler(area identity.Role) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, ok := r.Context().Value(ContextKeyUser).(*identity.User)
		if !ok {
			http.Redirect(w, r, loginRedirectPath(r.URL.Path), http.StatusSeeOther)
			return
		}

		writeJSON(w, http.StatusOK, dashboardResponse{
			Area:             area,
			User:             user,
			CheckoutComplete: r.URL.Query().Get(QueryStatus) == "success",
		})
	}
}
