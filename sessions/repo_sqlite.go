package sessions

import (
	"database/sql"
	"time"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/gateerrors"

	_ "modernc.org/sqlite"
)

const sessionSchema = `
CREATE TABLE IF NOT EXISTS sessions (
	id            TEXT PRIMARY KEY,
	context_id    TEXT NOT NULL,
	user_id       TEXT,
	email         TEXT,
	role          TEXT,
	access_token  TEXT NOT NULL,
	refresh_token TEXT,
	token_expiry  INTEGER NOT NULL,
	created_at    INTEGER NOT NULL
);
CREATE UNIQUE INDEX IF NOT EXISTS idx_sessions_context ON sessions(context_id);
`

// SQLiteRepo persists sessions to a local sqlite database so they survive
// gateway restarts, mirroring the durable client storage the web app relied
// on.
type SQLiteRepo struct {
	db *sql.DB
}

var _ Repo = (*SQLiteRepo)(nil)

func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, gateerrors.Wrapf(err, "open session db %q", path)
	}
	if _, err := db.Exec(sessionSchema); err != nil {
		db.Close()
		return nil, gateerrors.Wrapf(err, "create session schema")
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) Upsert(session *Session) error {
	if session == nil || session.ID == "" {
		return gateerrors.ErrInternal
	}

	// One session per browser context
	if _, err := r.db.Exec(`DELETE FROM sessions WHERE context_id = ? AND id != ?`,
		session.ContextID, session.ID); err != nil {
		return gateerrors.Wrapf(err, "evict context session")
	}

	_, err := r.db.Exec(`
		INSERT INTO sessions (id, context_id, user_id, email, role, access_token, refresh_token, token_expiry, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			context_id = excluded.context_id,
			user_id = excluded.user_id,
			email = excluded.email,
			role = excluded.role,
			access_token = excluded.access_token,
			refresh_token = excluded.refresh_token,
			token_expiry = excluded.token_expiry`,
		session.ID, session.ContextID, session.UserID, session.Email, string(session.Role),
		session.AccessToken, session.RefreshToken, session.TokenExpiry.Unix(), session.CreatedAt.Unix())
	return gateerrors.Wrapf(err, "upsert session")
}

func (r *SQLiteRepo) Get(sessionID string) (*Session, error) {
	return r.scanOne(`SELECT id, context_id, user_id, email, role, access_token, refresh_token, token_expiry, created_at
		FROM sessions WHERE id = ?`, sessionID)
}

func (r *SQLiteRepo) GetByContext(contextID string) (*Session, error) {
	return r.scanOne(`SELECT id, context_id, user_id, email, role, access_token, refresh_token, token_expiry, created_at
		FROM sessions WHERE context_id = ?`, contextID)
}

func (r *SQLiteRepo) scanOne(query, arg string) (*Session, error) {
	var (
		session           Session
		role              string
		expiry, createdAt int64
	)
	err := r.db.QueryRow(query, arg).Scan(
		&session.ID, &session.ContextID, &session.UserID, &session.Email, &role,
		&session.AccessToken, &session.RefreshToken, &expiry, &createdAt)
	if err == sql.ErrNoRows {
		return nil, gateerrors.ErrSessionNotFound
	}
	if err != nil {
		return nil, gateerrors.Wrapf(err, "query session")
	}
	session.Role = identity.Role(role)
	session.TokenExpiry = time.Unix(expiry, 0)
	session.CreatedAt = time.Unix(createdAt, 0)
	return &session, nil
}

func (r *SQLiteRepo) Delete(sessionID string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE id = ?`, sessionID)
	return gateerrors.Wrapf(err, "delete session")
}

func (r *SQLiteRepo) DeleteByContext(contextID string) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE context_id = ?`, contextID)
	return gateerrors.Wrapf(err, "delete context session")
}

func (r *SQLiteRepo) DeleteExpired(cutoff time.Time) error {
	_, err := r.db.Exec(`DELETE FROM sessions WHERE token_expiry > 0 AND token_expiry < ?`, cutoff.Unix())
	return gateerrors.Wrapf(err, "delete expired sessions")
}
