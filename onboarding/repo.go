package onboarding

import "github.com/nichelink/gateway/identity"

// Repo defines the interface for draft storage. Drafts are keyed by
// (browser context, role) - the brand and influencer flows are namespaced
// separately.
type Repo interface {
	// Upsert creates or updates a draft
	Upsert(draft *Draft) error

	// Get retrieves the draft for a context and flow
	Get(contextID string, role identity.Role) (*Draft, error)

	// Delete removes the draft for a context and flow
	Delete(contextID string, role identity.Role) error
}
