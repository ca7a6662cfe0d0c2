package authflowrepo

import "time"

// AuthFlowState tracks one in-flight social sign-in between the redirect to
// the provider and the callback.
type AuthFlowState struct {
	Provider     string
	CodeVerifier string
	Nonce        string
	ReturnURL    string
	ContextID    string
	CreatedAt    time.Time
}

type Repo interface {
	Upsert(state string, authState *AuthFlowState) error
	Get(state string) (*AuthFlowState, error)
	Delete(state string) error
	DeleteExpired(cutoff time.Time) error
}
