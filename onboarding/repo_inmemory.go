package onboarding

import (
	"sync"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/gateerrors"
)

type draftKey struct {
	contextID string
	role      identity.Role
}

// InMemoryRepo is an in-memory implementation of Repo.
type InMemoryRepo struct {
	mu     sync.RWMutex
	drafts map[draftKey]Draft
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{drafts: make(map[draftKey]Draft)}
}

func (r *InMemoryRepo) Upsert(draft *Draft) error {
	if draft == nil || draft.ContextID == "" || !draft.Role.Valid() {
		return gateerrors.ErrInternal
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	stored := *draft
	stored.Fields = make(map[string]string, len(draft.Fields))
	for k, v := range draft.Fields {
		stored.Fields[k] = v
	}
	r.drafts[draftKey{draft.ContextID, draft.Role}] = stored
	return nil
}

func (r *InMemoryRepo) Get(contextID string, role identity.Role) (*Draft, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	stored, ok := r.drafts[draftKey{contextID, role}]
	if !ok {
		return nil, gateerrors.ErrDraftNotFound
	}
	draft := stored
	draft.Fields = make(map[string]string, len(stored.Fields))
	for k, v := range stored.Fields {
		draft.Fields[k] = v
	}
	return &draft, nil
}

func (r *InMemoryRepo) Delete(contextID string, role identity.Role) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	delete(r.drafts, draftKey{contextID, role})
	return nil
}
