package subscription_test

import (
	"context"
	"testing"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/subscription"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

type fakeSubBackend struct {
	sub *identity.Subscription
	err error
}

func (f *fakeSubBackend) GetSubscription(context.Context, string) (*identity.Subscription, error) {
	return f.sub, f.err
}

func checkReason(t *testing.T, sub identity.Subscription, area identity.Role) subscription.Reason {
	t.Helper()

	gate, err := subscription.NewGate(&fakeSubBackend{sub: &sub})
	require.NoError(t, err)

	reason, err := gate.Check(context.Background(), "T1", area)
	require.NoError(t, err)
	return reason
}

func TestCheckActivePlanEntitlements(t *testing.T) {
	tests := []struct {
		name   string
		plan   string
		area   identity.Role
		reason subscription.Reason
	}{
		{"brand plan on brand area", subscription.PlanBrand, identity.RoleBrand, subscription.ReasonNone},
		{"brand plan on influencer area", subscription.PlanBrand, identity.RoleInfluencer, subscription.ReasonWrongPlan},
		{"influencer plan on influencer area", subscription.PlanInfluencer, identity.RoleInfluencer, subscription.ReasonNone},
		{"influencer plan on brand area", subscription.PlanInfluencer, identity.RoleBrand, subscription.ReasonWrongPlan},
		{"bundle covers brand area", subscription.PlanFullAccess, identity.RoleBrand, subscription.ReasonNone},
		{"bundle covers influencer area", subscription.PlanFullAccess, identity.RoleInfluencer, subscription.ReasonNone},
		{"unknown plan", "legacy", identity.RoleBrand, subscription.ReasonWrongPlan},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got := checkReason(t, identity.Subscription{PlanType: tc.plan, Status: identity.SubscriptionActive}, tc.area)
			require.Equal(t, tc.reason, got)
		})
	}
}

func TestCheckInactiveBeatsPlanType(t *testing.T) {
	// An inactive subscription reports inactive even when the plan would match
	got := checkReason(t, identity.Subscription{PlanType: subscription.PlanBrand, Status: identity.SubscriptionCanceled}, identity.RoleBrand)
	require.Equal(t, subscription.ReasonInactive, got)

	got = checkReason(t, identity.Subscription{PlanType: subscription.PlanBrand, Status: identity.SubscriptionInactive}, identity.RoleBrand)
	require.Equal(t, subscription.ReasonInactive, got)
}

func TestCheckPropagatesBackendFailure(t *testing.T) {
	gate, err := subscription.NewGate(&fakeSubBackend{err: errors.New("backend down")})
	require.NoError(t, err)

	_, err = gate.Check(context.Background(), "T1", identity.RoleBrand)
	require.Error(t, err)
}

func TestExplainWrongPlanOnBrandArea(t *testing.T) {
	got := subscription.Explain(subscription.ReasonWrongPlan, identity.RoleBrand)
	require.Equal(t, "Plan upgrade needed", got.Title)
	require.Contains(t, got.Message, "Brand or Influencer Access")
	require.NotEmpty(t, got.Links)
}

func TestExplainWrongPlanOnInfluencerArea(t *testing.T) {
	got := subscription.Explain(subscription.ReasonWrongPlan, identity.RoleInfluencer)
	require.NotContains(t, got.Message, "Brand or Influencer Access")
}

func TestExplainInactive(t *testing.T) {
	got := subscription.Explain(subscription.ReasonInactive, identity.RoleInfluencer)
	require.Equal(t, "Subscription inactive", got.Title)
	require.Contains(t, got.Message, "Reactivate")
}

func TestExplainUnknownReason(t *testing.T) {
	got := subscription.Explain(subscription.Reason("weird"), identity.RoleBrand)
	require.Equal(t, "Subscription required", got.Title)
}
