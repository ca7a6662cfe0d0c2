package sessions

import "time"

// Repo defines the interface for session storage. Implementations must keep
// at most one session per browser context.
type Repo interface {
	// Upsert creates or updates a session
	Upsert(session *Session) error

	// Get retrieves a session by ID
	Get(sessionID string) (*Session, error)

	// GetByContext retrieves the session for a browser context
	GetByContext(contextID string) (*Session, error)

	// Delete removes a session by ID
	Delete(sessionID string) error

	// DeleteByContext removes the session for a browser context
	DeleteByContext(contextID string) error

	// DeleteExpired removes sessions whose token expiry is before cutoff
	DeleteExpired(cutoff time.Time) error
}
