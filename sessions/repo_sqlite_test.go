package sessions_test

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/gateerrors"
	"github.com/nichelink/gateway/sessions"
	"github.com/stretchr/testify/require"
)

func setupSQLiteRepo(t *testing.T) (*sessions.SQLiteRepo, string) {
	t.Helper()

	path := filepath.Join(t.TempDir(), "sessions.db")
	repo, err := sessions.NewSQLiteRepo(path)
	require.NoError(t, err)
	t.Cleanup(func() { repo.Close() })
	return repo, path
}

func testSession(id, contextID string) *sessions.Session {
	now := time.Now().Truncate(time.Second)
	return &sessions.Session{
		ID:           id,
		ContextID:    contextID,
		UserID:       testUserID,
		Email:        testUserEmail,
		Role:         identity.RoleBrand,
		AccessToken:  "access-" + id,
		RefreshToken: "refresh-" + id,
		TokenExpiry:  now.Add(time.Hour),
		CreatedAt:    now,
	}
}

func TestSQLiteUpsertAndGet(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)

	want := testSession("s1", "ctx-a")
	require.NoError(t, repo.Upsert(want))

	got, err := repo.Get("s1")
	require.NoError(t, err)
	require.Equal(t, want.ContextID, got.ContextID)
	require.Equal(t, want.AccessToken, got.AccessToken)
	require.Equal(t, want.Role, got.Role)
	require.Equal(t, want.TokenExpiry.Unix(), got.TokenExpiry.Unix())

	byContext, err := repo.GetByContext("ctx-a")
	require.NoError(t, err)
	require.Equal(t, "s1", byContext.ID)
}

func TestSQLiteContextEviction(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)

	require.NoError(t, repo.Upsert(testSession("s1", "ctx-a")))
	require.NoError(t, repo.Upsert(testSession("s2", "ctx-a")))

	_, err := repo.Get("s1")
	require.ErrorIs(t, err, gateerrors.ErrSessionNotFound)

	current, err := repo.GetByContext("ctx-a")
	require.NoError(t, err)
	require.Equal(t, "s2", current.ID)
}

func TestSQLiteSurvivesReopen(t *testing.T) {
	repo, path := setupSQLiteRepo(t)

	require.NoError(t, repo.Upsert(testSession("s1", "ctx-a")))
	require.NoError(t, repo.Close())

	reopened, err := sessions.NewSQLiteRepo(path)
	require.NoError(t, err)
	defer reopened.Close()

	got, err := reopened.GetByContext("ctx-a")
	require.NoError(t, err)
	require.Equal(t, "s1", got.ID)
}

func TestSQLiteDeleteExpired(t *testing.T) {
	repo, _ := setupSQLiteRepo(t)

	stale := testSession("s1", "ctx-a")
	stale.TokenExpiry = time.Now().Add(-time.Hour)
	require.NoError(t, repo.Upsert(stale))
	require.NoError(t, repo.Upsert(testSession("s2", "ctx-b")))

	require.NoError(t, repo.DeleteExpired(time.Now()))

	_, err := repo.Get("s1")
	require.ErrorIs(t, err, gateerrors.ErrSessionNotFound)
	_, err = repo.Get("s2")
	require.NoError(t, err)
}
