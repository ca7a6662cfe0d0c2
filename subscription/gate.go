// Package subscription decides whether a user's plan entitles them to the
// dashboard area they are navigating to, and explains why when it doesn't.
// This is display routing, not enforcement - the backend still rejects
// dashboard API calls for unentitled users.
package subscription

import (
	"context"

	"github.com/nichelink/gateway/identity"
	"github.com/pkg/errors"
)

// Reason selects which "subscription required" variant the user lands on.
type Reason string

const (
	ReasonNone      Reason = ""
	ReasonInactive  Reason = "subscription_inactive"
	ReasonWrongPlan Reason = "wrong_plan_type"
)

// Plan types the backend issues.
const (
	PlanBrand      = "brand"
	PlanInfluencer = "influencer"
	PlanFullAccess = "brand_influencer" // Brand or Influencer Access bundle
)

// Backend is the slice of the identity client the gate reads plan state
// through. Subscription state is fetched per gated navigation and never
// cached.
type Backend interface {
	GetSubscription(ctx context.Context, accessToken string) (*identity.Subscription, error)
}

type Gate struct {
	backend Backend
}

func NewGate(backend Backend) (*Gate, error) {
	if backend == nil {
		return nil, errors.New("[NewGate] backend is required")
	}
	return &Gate{backend: backend}, nil
}

// Check fetches the user's subscription and returns the redirect reason,
// or ReasonNone when the area is allowed.
func (g *Gate) Check(ctx context.Context, accessToken string, area identity.Role) (Reason, error) {
	sub, err := g.backend.GetSubscription(ctx, accessToken)
	if err != nil {
		return ReasonNone, errors.Wrap(err, "[Gate.Check] GetSubscription")
	}

	if !sub.Active() {
		return ReasonInactive, nil
	}
	if !planEntitles(sub.PlanType, area) {
		return ReasonWrongPlan, nil
	}
	return ReasonNone, nil
}

func planEntitles(planType string, area identity.Role) bool {
	switch planType {
	case PlanFullAccess:
		return true
	case PlanBrand:
		return area == identity.RoleBrand
	case PlanInfluencer:
		return area == identity.RoleInfluencer
	}
	return false
}

// Explanation is the human-readable content of a subscription-required
// page variant, plus its remediation links.
type Explanation struct {
	Title   string `json:"title"`
	Message string `json:"message"`
	Links   []Link `json:"links"`
}

type Link struct {
	Label string `json:"label"`
	Path  string `json:"path"`
}

// Explain maps a reason code to its explanation. The wrong-plan variant on
// the brand area references the Brand or Influencer Access upgrade,
// distinct from the default message.
func Explain(reason Reason, area identity.Role) Explanation {
	switch reason {
	case ReasonInactive:
		return Explanation{
			Title:   "Subscription inactive",
			Message: "Your subscription is inactive or has been canceled. Reactivate it to get back into your dashboard.",
			Links: []Link{
				{Label: "View plans", Path: "/plans"},
				{Label: "Return to dashboard", Path: dashboardPath(area)},
			},
		}
	case ReasonWrongPlan:
		msg := "Your current plan does not cover this area."
		if area == identity.RoleBrand {
			msg = "Your current plan does not include brand tools. Upgrade to Brand or Influencer Access to manage campaigns."
		}
		return Explanation{
			Title:   "Plan upgrade needed",
			Message: msg,
			Links: []Link{
				{Label: "View plans", Path: "/plans"},
				{Label: "Return to dashboard", Path: dashboardPath(area)},
			},
		}
	}
	return Explanation{
		Title:   "Subscription required",
		Message: "A subscription is required to access this dashboard.",
		Links: []Link{
			{Label: "View plans", Path: "/plans"},
		},
	}
}

func dashboardPath(area identity.Role) string {
	if area == identity.RoleBrand {
		return "/brand-dashboard"
	}
	return "/influencer-dashboard"
}
