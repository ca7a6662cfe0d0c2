package sessions

import (
	"sync"
	"time"

	"github.com/nichelink/gateway/internal/gateerrors"
)

// InMemoryRepo is an in-memory implementation of Repo. Suitable for tests
// and single-instance deployments that accept losing sessions on restart.
type InMemoryRepo struct {
	mu         sync.RWMutex
	sessions   map[string]Session // sessionID -> session
	contextIdx map[string]string  // contextID -> sessionID
}

var _ Repo = (*InMemoryRepo)(nil)

func NewInMemoryRepo() *InMemoryRepo {
	return &InMemoryRepo{
		sessions:   make(map[string]Session),
		contextIdx: make(map[string]string),
	}
}

func (r *InMemoryRepo) Upsert(session *Session) error {
	if session == nil || session.ID == "" {
		return gateerrors.ErrInternal
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	// One session per browser context: evict any session already bound to it
	if existingID, ok := r.contextIdx[session.ContextID]; ok && existingID != session.ID {
		delete(r.sessions, existingID)
	}

	// Store a copy to avoid external modifications
	r.sessions[session.ID] = *session
	if session.ContextID != "" {
		r.contextIdx[session.ContextID] = session.ID
	}
	return nil
}

func (r *InMemoryRepo) Get(sessionID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, gateerrors.ErrSessionNotFound
	}
	return &session, nil
}

func (r *InMemoryRepo) GetByContext(contextID string) (*Session, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sessionID, ok := r.contextIdx[contextID]
	if !ok {
		return nil, gateerrors.ErrSessionNotFound
	}
	session, ok := r.sessions[sessionID]
	if !ok {
		return nil, gateerrors.ErrSessionNotFound
	}
	return &session, nil
}

func (r *InMemoryRepo) Delete(sessionID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if session, ok := r.sessions[sessionID]; ok {
		delete(r.contextIdx, session.ContextID)
	}
	delete(r.sessions, sessionID)
	return nil
}

func (r *InMemoryRepo) DeleteByContext(contextID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if sessionID, ok := r.contextIdx[contextID]; ok {
		delete(r.sessions, sessionID)
		delete(r.contextIdx, contextID)
	}
	return nil
}

func (r *InMemoryRepo) DeleteExpired(cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for id, session := range r.sessions {
		if session.Expired(cutoff) {
			delete(r.sessions, id)
			delete(r.contextIdx, session.ContextID)
		}
	}
	return nil
}
