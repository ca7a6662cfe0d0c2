package onboarding_test

import (
	"context"
	"testing"
	"time"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/gateerrors"
	"github.com/nichelink/gateway/onboarding"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/require"
)

const (
	testContextID = "ctx-1"
	testToken     = "T1"
)

// fakeBackend records submission calls and can be scripted to fail.
type fakeBackend struct {
	profilePatches []map[string]string
	campaigns      []identity.Campaign
	profileErr     error
	campaignErr    error
}

func (f *fakeBackend) UpdateProfile(_ context.Context, _ string, patch map[string]string) error {
	if f.profileErr != nil {
		return f.profileErr
	}
	f.profilePatches = append(f.profilePatches, patch)
	return nil
}

func (f *fakeBackend) CreateCampaign(_ context.Context, _ string, campaign identity.Campaign) error {
	if f.campaignErr != nil {
		return f.campaignErr
	}
	f.campaigns = append(f.campaigns, campaign)
	return nil
}

type wizardFixture struct {
	repo    *onboarding.InMemoryRepo
	backend *fakeBackend
	wizard  *onboarding.Orchestrator
	now     time.Time
}

func setupWizardFixture(t *testing.T) *wizardFixture {
	t.Helper()

	f := &wizardFixture{
		repo:    onboarding.NewInMemoryRepo(),
		backend: &fakeBackend{},
		now:     time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC),
	}

	wizard, err := onboarding.NewOrchestrator(f.repo, f.backend,
		onboarding.WithNowTime(func() time.Time { return f.now }))
	require.NoError(t, err)
	f.wizard = wizard
	return f
}

func TestDraftCreatedAtStepOne(t *testing.T) {
	f := setupWizardFixture(t)

	draft, err := f.wizard.Draft(testContextID, identity.RoleBrand)
	require.NoError(t, err)
	require.Equal(t, 1, draft.Step)
	require.NotEmpty(t, draft.ID)
	require.Empty(t, draft.Fields)

	// Second call returns the same draft, not a new one
	again, err := f.wizard.Draft(testContextID, identity.RoleBrand)
	require.NoError(t, err)
	require.Equal(t, draft.ID, again.ID)
}

func TestFlowsAreNamespacedByRole(t *testing.T) {
	f := setupWizardFixture(t)

	brand, err := f.wizard.Draft(testContextID, identity.RoleBrand)
	require.NoError(t, err)
	influencer, err := f.wizard.Draft(testContextID, identity.RoleInfluencer)
	require.NoError(t, err)
	require.NotEqual(t, brand.ID, influencer.ID)
}

func TestStepNavigationClamps(t *testing.T) {
	f := setupWizardFixture(t)

	draft, err := f.wizard.Back(testContextID, identity.RoleBrand)
	require.NoError(t, err)
	require.Equal(t, 1, draft.Step)

	for i := 0; i < onboarding.BrandSteps+3; i++ {
		draft, err = f.wizard.Next(testContextID, identity.RoleBrand)
		require.NoError(t, err)
	}
	require.Equal(t, onboarding.BrandSteps, draft.Step)

	draft, err = f.wizard.Resume(testContextID, identity.RoleBrand, 99)
	require.NoError(t, err)
	require.Equal(t, onboarding.BrandSteps, draft.Step)

	draft, err = f.wizard.Resume(testContextID, identity.RoleBrand, -4)
	require.NoError(t, err)
	require.Equal(t, 1, draft.Step)
}

func TestUpdateDraftMergesLastWriteWins(t *testing.T) {
	f := setupWizardFixture(t)

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleBrand, map[string]string{
		"business_name": "Acme",
		"industry":      "beauty",
	})
	require.NoError(t, err)

	draft, err := f.wizard.UpdateDraft(testContextID, identity.RoleBrand, map[string]string{
		"business_name": "Acme Cosmetics",
	})
	require.NoError(t, err)
	require.Equal(t, "Acme Cosmetics", draft.Fields["business_name"])
	require.Equal(t, "beauty", draft.Fields["industry"])
}

func TestUpdateDraftNoOpIsNotPersisted(t *testing.T) {
	f := setupWizardFixture(t)

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleBrand, map[string]string{"business_name": "Acme"})
	require.NoError(t, err)

	stored, err := f.repo.Get(testContextID, identity.RoleBrand)
	require.NoError(t, err)
	firstWrite := stored.UpdatedAt

	f.now = f.now.Add(time.Minute)
	_, err = f.wizard.UpdateDraft(testContextID, identity.RoleBrand, map[string]string{"business_name": "Acme"})
	require.NoError(t, err)

	stored, err = f.repo.Get(testContextID, identity.RoleBrand)
	require.NoError(t, err)
	require.Equal(t, firstWrite, stored.UpdatedAt)
}

func TestCompleteWithoutTokenDefers(t *testing.T) {
	f := setupWizardFixture(t)

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleInfluencer, map[string]string{"display_name": "creator"})
	require.NoError(t, err)

	result, err := f.wizard.Complete(context.Background(), testContextID, identity.RoleInfluencer, "")
	require.NoError(t, err)
	require.True(t, result.Deferred)
	require.False(t, result.Submitted)

	// Nothing reached the backend; the draft survives with the pending flag
	require.Empty(t, f.backend.profilePatches)
	stored, err := f.repo.Get(testContextID, identity.RoleInfluencer)
	require.NoError(t, err)
	require.True(t, stored.PendingComplete)
}

func TestCompleteWithoutDraft(t *testing.T) {
	f := setupWizardFixture(t)

	_, err := f.wizard.Complete(context.Background(), testContextID, identity.RoleBrand, testToken)
	require.ErrorIs(t, err, gateerrors.ErrDraftNotFound)
}

func TestCompleteSubmitsAndClearsDraft(t *testing.T) {
	f := setupWizardFixture(t)

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleInfluencer, map[string]string{
		"display_name": "creator",
		"niche":        "fitness",
	})
	require.NoError(t, err)

	result, err := f.wizard.Complete(context.Background(), testContextID, identity.RoleInfluencer, testToken)
	require.NoError(t, err)
	require.True(t, result.Submitted)
	require.NoError(t, result.CampaignErr)

	require.Len(t, f.backend.profilePatches, 1)
	require.Equal(t, "creator", f.backend.profilePatches[0]["display_name"])
	require.Empty(t, f.backend.campaigns) // influencer flow has no campaign step

	_, err = f.repo.Get(testContextID, identity.RoleInfluencer)
	require.ErrorIs(t, err, gateerrors.ErrDraftNotFound)
}

func TestBrandCompleteSplitsCampaignFields(t *testing.T) {
	f := setupWizardFixture(t)

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleBrand, map[string]string{
		"business_name":        "Acme",
		"campaign_title":       "Spring launch",
		"campaign_budget":      "5000",
		"campaign_description": "Product seeding",
	})
	require.NoError(t, err)

	result, err := f.wizard.Complete(context.Background(), testContextID, identity.RoleBrand, testToken)
	require.NoError(t, err)
	require.True(t, result.Submitted)

	require.Len(t, f.backend.profilePatches, 1)
	patch := f.backend.profilePatches[0]
	require.Equal(t, "Acme", patch["business_name"])
	require.NotContains(t, patch, "campaign_title")

	require.Len(t, f.backend.campaigns, 1)
	require.Equal(t, "Spring launch", f.backend.campaigns[0].Title)
	require.Equal(t, "5000", f.backend.campaigns[0].Budget)
}

func TestProfileFailureKeepsDraft(t *testing.T) {
	f := setupWizardFixture(t)
	f.backend.profileErr = errors.New("backend down")

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleBrand, map[string]string{"business_name": "Acme"})
	require.NoError(t, err)

	_, err = f.wizard.Complete(context.Background(), testContextID, identity.RoleBrand, testToken)
	require.Error(t, err)

	// Profile PATCH failed, so the draft is still there for a retry
	_, err = f.repo.Get(testContextID, identity.RoleBrand)
	require.NoError(t, err)
}

func TestCampaignFailureStillClearsDraft(t *testing.T) {
	f := setupWizardFixture(t)
	f.backend.campaignErr = errors.New("campaign service down")

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleBrand, map[string]string{
		"business_name":  "Acme",
		"campaign_title": "Spring launch",
	})
	require.NoError(t, err)

	result, err := f.wizard.Complete(context.Background(), testContextID, identity.RoleBrand, testToken)
	require.NoError(t, err)
	require.True(t, result.Submitted)
	require.Error(t, result.CampaignErr)

	// Profile update landed but the draft is gone: the campaign data is lost
	require.Len(t, f.backend.profilePatches, 1)
	_, err = f.repo.Get(testContextID, identity.RoleBrand)
	require.ErrorIs(t, err, gateerrors.ErrDraftNotFound)
}

func TestResumePendingFiresExactlyOnce(t *testing.T) {
	f := setupWizardFixture(t)

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleInfluencer, map[string]string{"display_name": "creator"})
	require.NoError(t, err)
	result, err := f.wizard.Complete(context.Background(), testContextID, identity.RoleInfluencer, "")
	require.NoError(t, err)
	require.True(t, result.Deferred)

	require.NoError(t, f.wizard.ResumePending(context.Background(), testContextID, testToken))
	require.Len(t, f.backend.profilePatches, 1)

	// A second token arrival finds nothing pending
	require.NoError(t, f.wizard.ResumePending(context.Background(), testContextID, testToken))
	require.Len(t, f.backend.profilePatches, 1)
}

func TestResumePendingRequiresToken(t *testing.T) {
	f := setupWizardFixture(t)

	err := f.wizard.ResumePending(context.Background(), testContextID, "")
	require.ErrorIs(t, err, gateerrors.ErrNoSessionToken)
}

func TestResumePendingIgnoresNonPendingDrafts(t *testing.T) {
	f := setupWizardFixture(t)

	_, err := f.wizard.UpdateDraft(testContextID, identity.RoleBrand, map[string]string{"business_name": "Acme"})
	require.NoError(t, err)

	require.NoError(t, f.wizard.ResumePending(context.Background(), testContextID, testToken))
	require.Empty(t, f.backend.profilePatches)

	// The in-progress draft is untouched
	_, err = f.repo.Get(testContextID, identity.RoleBrand)
	require.NoError(t, err)
}
