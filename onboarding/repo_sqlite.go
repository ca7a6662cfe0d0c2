package onboarding

import (
	"database/sql"
	"encoding/json"
	"time"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/gateerrors"

	_ "modernc.org/sqlite"
)

const draftSchema = `
CREATE TABLE IF NOT EXISTS drafts (
	context_id       TEXT NOT NULL,
	role             TEXT NOT NULL,
	id               TEXT NOT NULL,
	step             INTEGER NOT NULL,
	fields           TEXT NOT NULL,
	pending_complete INTEGER NOT NULL DEFAULT 0,
	updated_at       INTEGER NOT NULL,
	PRIMARY KEY (context_id, role)
);
`

// SQLiteRepo persists drafts to a local sqlite database. Fields are stored
// as a JSON object; encoding/json emits map keys in sorted order, so
// writing an unchanged draft produces byte-identical rows.
type SQLiteRepo struct {
	db *sql.DB
}

var _ Repo = (*SQLiteRepo)(nil)

func NewSQLiteRepo(path string) (*SQLiteRepo, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, gateerrors.Wrapf(err, "open draft db %q", path)
	}
	if _, err := db.Exec(draftSchema); err != nil {
		db.Close()
		return nil, gateerrors.Wrapf(err, "create draft schema")
	}
	return &SQLiteRepo{db: db}, nil
}

func (r *SQLiteRepo) Close() error {
	return r.db.Close()
}

func (r *SQLiteRepo) Upsert(draft *Draft) error {
	if draft == nil || draft.ContextID == "" || !draft.Role.Valid() {
		return gateerrors.ErrInternal
	}

	fields, err := json.Marshal(draft.Fields)
	if err != nil {
		return gateerrors.Wrapf(err, "marshal draft fields")
	}

	pending := 0
	if draft.PendingComplete {
		pending = 1
	}

	_, err = r.db.Exec(`
		INSERT INTO drafts (context_id, role, id, step, fields, pending_complete, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(context_id, role) DO UPDATE SET
			step = excluded.step,
			fields = excluded.fields,
			pending_complete = excluded.pending_complete,
			updated_at = excluded.updated_at`,
		draft.ContextID, string(draft.Role), draft.ID, draft.Step, string(fields), pending, draft.UpdatedAt.Unix())
	return gateerrors.Wrapf(err, "upsert draft")
}

func (r *SQLiteRepo) Get(contextID string, role identity.Role) (*Draft, error) {
	var (
		draft     Draft
		roleStr   string
		fields    string
		pending   int
		updatedAt int64
	)
	err := r.db.QueryRow(`SELECT context_id, role, id, step, fields, pending_complete, updated_at
		FROM drafts WHERE context_id = ? AND role = ?`, contextID, string(role)).
		Scan(&draft.ContextID, &roleStr, &draft.ID, &draft.Step, &fields, &pending, &updatedAt)
	if err == sql.ErrNoRows {
		return nil, gateerrors.ErrDraftNotFound
	}
	if err != nil {
		return nil, gateerrors.Wrapf(err, "query draft")
	}

	draft.Role = identity.Role(roleStr)
	draft.PendingComplete = pending != 0
	draft.UpdatedAt = time.Unix(updatedAt, 0)
	if err := json.Unmarshal([]byte(fields), &draft.Fields); err != nil {
		return nil, gateerrors.Wrapf(err, "unmarshal draft fields")
	}
	return &draft, nil
}

func (r *SQLiteRepo) Delete(contextID string, role identity.Role) error {
	_, err := r.db.Exec(`DELETE FROM drafts WHERE context_id = ? AND role = ?`, contextID, string(role))
	return gateerrors.Wrapf(err, "delete draft")
}
