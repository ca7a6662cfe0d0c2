package onboarding

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/gateerrors"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// campaignFieldPrefix namespaces the brand flow's initial-campaign fields
// inside the draft; they are stripped from the profile PATCH and become the
// campaign POST instead.
const campaignFieldPrefix = "campaign_"

// Backend is the slice of the identity client the orchestrator submits
// through.
type Backend interface {
	UpdateProfile(ctx context.Context, accessToken string, patch map[string]string) error
	CreateCampaign(ctx context.Context, accessToken string, campaign identity.Campaign) error
}

// Orchestrator is the wizard controller: step navigation, write-through
// draft mutation, and the final all-or-nothing submission once a session
// token exists.
type Orchestrator struct {
	repo    Repo
	backend Backend
	mu      sync.Mutex // serializes Complete/ResumePending so a pending draft fires once
	nowTime func() time.Time
}

type OrchestratorOption func(*Orchestrator)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) OrchestratorOption {
	return func(o *Orchestrator) {
		o.nowTime = nowFunc
	}
}

func NewOrchestrator(repo Repo, backend Backend, options ...OrchestratorOption) (*Orchestrator, error) {
	if repo == nil {
		return nil, errors.New("[NewOrchestrator] repo is required")
	}
	if backend == nil {
		return nil, errors.New("[NewOrchestrator] backend is required")
	}

	o := &Orchestrator{
		repo:    repo,
		backend: backend,
		nowTime: time.Now,
	}
	for _, opt := range options {
		opt(o)
	}
	return o, nil
}

// Draft returns the current draft for a context and flow, creating one at
// step 1 on first interaction.
func (o *Orchestrator) Draft(contextID string, role identity.Role) (*Draft, error) {
	if !role.Valid() {
		return nil, errors.Wrap(identity.InvalidRoleErr, "[Orchestrator.Draft]")
	}

	draft, err := o.repo.Get(contextID, role)
	if err == nil {
		return draft, nil
	}
	if !errors.Is(err, gateerrors.ErrDraftNotFound) {
		return nil, errors.Wrap(err, "[Orchestrator.Draft] repo.Get")
	}

	draft = &Draft{
		ID:        uuid.New().String(),
		ContextID: contextID,
		Role:      role,
		Step:      1,
		Fields:    map[string]string{},
		UpdatedAt: o.nowTime(),
	}
	if err := o.repo.Upsert(draft); err != nil {
		return nil, errors.Wrap(err, "[Orchestrator.Draft] repo.Upsert")
	}
	return draft, nil
}

// Resume moves the draft to a deep-linked step, clamped to the flow's
// range.
func (o *Orchestrator) Resume(contextID string, role identity.Role, step int) (*Draft, error) {
	draft, err := o.Draft(contextID, role)
	if err != nil {
		return nil, err
	}
	return o.setStep(draft, ClampStep(role, step))
}

// Next advances the wizard one step.
func (o *Orchestrator) Next(contextID string, role identity.Role) (*Draft, error) {
	draft, err := o.Draft(contextID, role)
	if err != nil {
		return nil, err
	}
	return o.setStep(draft, ClampStep(role, draft.Step+1))
}

// Back moves the wizard one step back.
func (o *Orchestrator) Back(contextID string, role identity.Role) (*Draft, error) {
	draft, err := o.Draft(contextID, role)
	if err != nil {
		return nil, err
	}
	return o.setStep(draft, ClampStep(role, draft.Step-1))
}

func (o *Orchestrator) setStep(draft *Draft, step int) (*Draft, error) {
	if draft.Step == step {
		return draft, nil
	}
	draft.Step = step
	draft.UpdatedAt = o.nowTime()
	if err := o.repo.Upsert(draft); err != nil {
		return nil, errors.Wrap(err, "[Orchestrator.setStep] repo.Upsert")
	}
	return draft, nil
}

// UpdateDraft merges a partial field update into the draft, last-write-wins,
// and writes through to storage. A no-op merge is not persisted, so updating
// a field twice with the same value leaves storage byte-identical.
func (o *Orchestrator) UpdateDraft(contextID string, role identity.Role, partial map[string]string) (*Draft, error) {
	draft, err := o.Draft(contextID, role)
	if err != nil {
		return nil, err
	}

	changed := false
	for k, v := range partial {
		if draft.Fields[k] != v {
			draft.Fields[k] = v
			changed = true
		}
	}
	if !changed {
		return draft, nil
	}

	draft.UpdatedAt = o.nowTime()
	if err := o.repo.Upsert(draft); err != nil {
		return nil, errors.Wrap(err, "[Orchestrator.UpdateDraft] repo.Upsert")
	}
	return draft, nil
}

// CompleteResult reports how a completion attempt ended.
type CompleteResult struct {
	Submitted   bool  // Draft was submitted to the backend and cleared
	Deferred    bool  // No session token yet; submission will fire on login
	CampaignErr error // Campaign POST failed after the profile PATCH succeeded
}

// Complete finishes the wizard. With a session token it performs one
// profile PATCH then, for the brand flow, one campaign POST. The two calls
// are not transactional: once the PATCH succeeds the draft is cleared even
// if the POST fails - the failure is reported in CampaignErr and otherwise
// lost. Without a token the draft is marked pending and submission is
// deferred until ResumePending.
func (o *Orchestrator) Complete(ctx context.Context, contextID string, role identity.Role, accessToken string) (*CompleteResult, error) {
	o.mu.Lock()
	defer o.mu.Unlock()

	draft, err := o.repo.Get(contextID, role)
	if err != nil {
		return nil, errors.Wrap(err, "[Orchestrator.Complete]")
	}

	if accessToken == "" {
		if !draft.PendingComplete {
			draft.PendingComplete = true
			draft.UpdatedAt = o.nowTime()
			if err := o.repo.Upsert(draft); err != nil {
				return nil, errors.Wrap(err, "[Orchestrator.Complete] repo.Upsert")
			}
		}
		log.Info().Str("context_id", contextID).Str("role", string(role)).
			Msg("onboarding completion deferred until session token available")
		return &CompleteResult{Deferred: true}, nil
	}

	return o.submit(ctx, draft, accessToken)
}

// ResumePending fires any deferred completion for the context, exactly
// once per draft: the pending flag is cleared and persisted before the
// submission runs, so a second token arrival finds nothing to do.
func (o *Orchestrator) ResumePending(ctx context.Context, contextID, accessToken string) error {
	if accessToken == "" {
		return errors.Wrap(gateerrors.ErrNoSessionToken, "[Orchestrator.ResumePending]")
	}

	o.mu.Lock()
	defer o.mu.Unlock()

	for _, role := range []identity.Role{identity.RoleBrand, identity.RoleInfluencer} {
		draft, err := o.repo.Get(contextID, role)
		if err != nil {
			if errors.Is(err, gateerrors.ErrDraftNotFound) {
				continue
			}
			return errors.Wrap(err, "[Orchestrator.ResumePending] repo.Get")
		}
		if !draft.PendingComplete {
			continue
		}

		// Claim before submitting: the deferred completion fires once
		draft.PendingComplete = false
		draft.UpdatedAt = o.nowTime()
		if err := o.repo.Upsert(draft); err != nil {
			return errors.Wrap(err, "[Orchestrator.ResumePending] repo.Upsert")
		}

		result, err := o.submit(ctx, draft, accessToken)
		if err != nil {
			log.Error().Err(err).Str("context_id", contextID).Str("role", string(role)).
				Msg("deferred onboarding submission failed")
			continue
		}
		if result.CampaignErr != nil {
			log.Error().Err(result.CampaignErr).Str("context_id", contextID).
				Msg("deferred campaign creation failed after profile update")
		}
	}
	return nil
}

// submit performs the two sequential backend calls. Caller holds o.mu.
func (o *Orchestrator) submit(ctx context.Context, draft *Draft, accessToken string) (*CompleteResult, error) {
	patch := make(map[string]string, len(draft.Fields))
	for k, v := range draft.Fields {
		if strings.HasPrefix(k, campaignFieldPrefix) {
			continue
		}
		patch[k] = v
	}

	if err := o.backend.UpdateProfile(ctx, accessToken, patch); err != nil {
		// Profile update failed: nothing was submitted, the draft survives
		return nil, errors.Wrap(err, "[Orchestrator.submit] UpdateProfile")
	}

	result := &CompleteResult{Submitted: true}
	if draft.Role == identity.RoleBrand {
		if err := o.backend.CreateCampaign(ctx, accessToken, campaignFromDraft(draft)); err != nil {
			result.CampaignErr = errors.Wrap(err, "[Orchestrator.submit] CreateCampaign")
		}
	}

	// Cleared regardless of the campaign call's outcome. The profile is
	// already submitted at this point; a failed campaign POST surfaces in
	// CampaignErr and there is no retry queue for it.
	if err := o.repo.Delete(draft.ContextID, draft.Role); err != nil {
		return result, errors.Wrap(err, "[Orchestrator.submit] repo.Delete")
	}
	return result, nil
}

func campaignFromDraft(draft *Draft) identity.Campaign {
	return identity.Campaign{
		Title:       draft.Fields["campaign_title"],
		Description: draft.Fields["campaign_description"],
		Budget:      draft.Fields["campaign_budget"],
		Category:    draft.Fields["campaign_category"],
	}
}
