// Package onboarding drives the multi-step profile wizards: a linear state
// machine per browser context and role, with every field change written
// through to durable storage so a reload resumes exactly where the user
// left off.
package onboarding

import (
	"time"

	"github.com/nichelink/gateway/identity"
)

const (
	BrandSteps      = 6
	InfluencerSteps = 8
)

// StepCount returns the number of wizard steps for a flow.
func StepCount(role identity.Role) int {
	if role == identity.RoleBrand {
		return BrandSteps
	}
	return InfluencerSteps
}

// Draft accumulates wizard state between steps. Created on first
// interaction, mutated on every field change, destroyed only after final
// submission to the backend.
type Draft struct {
	ID              string            // Unique draft identifier (UUID)
	ContextID       string            // Browser context the draft belongs to
	Role            identity.Role     // Which flow: brand or influencer
	Step            int               // Current step, 1-based
	Fields          map[string]string // Accumulated form fields, last-write-wins
	PendingComplete bool              // Completion reached before a session token existed
	UpdatedAt       time.Time         // Last persisted change
}

// ClampStep bounds a requested step (e.g. from a deep link) to the flow's
// valid range.
func ClampStep(role identity.Role, step int) int {
	if step < 1 {
		return 1
	}
	if max := StepCount(role); step > max {
		return max
	}
	return step
}
