package sessions

import (
	"time"

	"github.com/google/uuid"
	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/gateerrors"
	"github.com/nichelink/gateway/token"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// Store wraps a Repo with the session lifecycle: set on successful
// exchange, read by every authenticated request, cleared on logout. There
// is no refresh coordination here - a request made with an expired token
// gets a session-expired error and the caller must re-authenticate or
// explicitly refresh.
type Store struct {
	repo          Repo
	defaultExpiry time.Duration
	nowTime       func() time.Time // injectable for testing
}

type StoreOption func(*Store)

// WithNowTime sets the now time function (primarily for testing)
func WithNowTime(nowFunc func() time.Time) StoreOption {
	return func(st *Store) {
		st.nowTime = nowFunc
	}
}

func NewStore(repo Repo, defaultExpiry time.Duration, options ...StoreOption) (*Store, error) {
	if repo == nil {
		return nil, errors.New("[NewStore] repo is required")
	}

	st := &Store{
		repo:          repo,
		defaultExpiry: defaultExpiry,
		nowTime:       time.Now,
	}
	for _, opt := range options {
		opt(st)
	}
	return st, nil
}

// StartSweeper periodically deletes sessions whose token expiry has
// passed. Reads already evict lazily; the sweeper reclaims sessions that
// are never read again. The returned function stops the sweeper.
func (st *Store) StartSweeper(interval time.Duration) (stop func()) {
	ticker := time.NewTicker(interval)
	done := make(chan struct{})
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ticker.C:
				if err := st.repo.DeleteExpired(st.nowTime()); err != nil {
					log.Error().Err(err).Msg("session sweep failed")
				}
			case <-done:
				return
			}
		}
	}()
	return func() { close(done) }
}

// SetSession establishes a session for a browser context from a completed
// credential exchange, replacing any session the context already had.
// Expiry comes from the access token's exp claim; opaque tokens fall back
// to the configured default.
func (st *Store) SetSession(contextID string, creds *identity.Credentials) (*Session, error) {
	if contextID == "" {
		return nil, errors.New("[Store.SetSession] contextID is required")
	}
	if creds == nil || creds.AccessToken == "" {
		return nil, errors.New("[Store.SetSession] refusing to store a partial credential")
	}

	now := st.nowTime()
	expiry := now.Add(st.defaultExpiry)
	role := creds.User.SignedUpAs

	if in, err := token.Inspect(creds.AccessToken); err == nil {
		if !in.ExpiresAt.IsZero() {
			expiry = in.ExpiresAt
		}
		if !role.Valid() && identity.Role(in.Role).Valid() {
			role = identity.Role(in.Role)
		}
	}

	session := &Session{
		ID:           uuid.New().String(),
		ContextID:    contextID,
		UserID:       creds.User.ID,
		Email:        creds.User.Email,
		Role:         role,
		AccessToken:  creds.AccessToken,
		RefreshToken: creds.RefreshToken,
		TokenExpiry:  expiry,
		CreatedAt:    now,
	}
	if err := st.repo.Upsert(session); err != nil {
		return nil, errors.Wrap(err, "[Store.SetSession] repo.Upsert")
	}
	return session, nil
}

// Get retrieves a live session by ID. Expired sessions are deleted and
// reported as expired.
func (st *Store) Get(sessionID string) (*Session, error) {
	session, err := st.repo.Get(sessionID)
	if err != nil {
		return nil, err
	}
	if session.Expired(st.nowTime()) {
		_ = st.repo.Delete(session.ID)
		return nil, errors.Wrap(gateerrors.ErrSessionExpired, "[Store.Get]")
	}
	return session, nil
}

// Token returns the access token for a browser context, or "" when the
// context is logged out. Absence of a token is the logged-out state for
// every dependent component.
func (st *Store) Token(contextID string) string {
	session, err := st.repo.GetByContext(contextID)
	if err != nil || session.Expired(st.nowTime()) {
		return ""
	}
	return session.AccessToken
}

// GetByContext returns the live session for a browser context.
func (st *Store) GetByContext(contextID string) (*Session, error) {
	session, err := st.repo.GetByContext(contextID)
	if err != nil {
		return nil, err
	}
	if session.Expired(st.nowTime()) {
		_ = st.repo.Delete(session.ID)
		return nil, errors.Wrap(gateerrors.ErrSessionExpired, "[Store.GetByContext]")
	}
	return session, nil
}

// Clear logs a browser context out.
func (st *Store) Clear(contextID string) error {
	return st.repo.DeleteByContext(contextID)
}
