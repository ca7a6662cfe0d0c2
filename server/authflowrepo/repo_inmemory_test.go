package authflowrepo_test

import (
	"testing"
	"time"

	"github.com/nichelink/gateway/server/authflowrepo"
	"github.com/stretchr/testify/require"
)

func TestUpsertGetDelete(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()

	state := &authflowrepo.AuthFlowState{
		Provider:     "google",
		CodeVerifier: "verifier",
		Nonce:        "nonce",
		ReturnURL:    "/brand-dashboard",
		ContextID:    "ctx-1",
		CreatedAt:    time.Now(),
	}
	require.NoError(t, repo.Upsert("state-1", state))

	got, err := repo.Get("state-1")
	require.NoError(t, err)
	require.Equal(t, "google", got.Provider)
	require.Equal(t, "verifier", got.CodeVerifier)

	// Returned state is a copy; mutating it does not affect storage
	got.Nonce = "tampered"
	again, err := repo.Get("state-1")
	require.NoError(t, err)
	require.Equal(t, "nonce", again.Nonce)

	require.NoError(t, repo.Delete("state-1"))
	_, err = repo.Get("state-1")
	require.Error(t, err)
}

func TestDeleteExpiredRemovesOnlyOldStates(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()

	require.NoError(t, repo.Upsert("state-old", &authflowrepo.AuthFlowState{
		Provider:  "google",
		CreatedAt: time.Now().Add(-15 * time.Minute),
	}))
	require.NoError(t, repo.Upsert("state-fresh", &authflowrepo.AuthFlowState{
		Provider:  "google",
		CreatedAt: time.Now(),
	}))

	require.NoError(t, repo.DeleteExpired(time.Now().Add(-10*time.Minute)))

	_, err := repo.Get("state-old")
	require.Error(t, err)
	_, err = repo.Get("state-fresh")
	require.NoError(t, err)
}

func TestUpsertValidation(t *testing.T) {
	repo := authflowrepo.NewInMemoryRepo()

	require.Error(t, repo.Upsert("", &authflowrepo.AuthFlowState{}))
	require.Error(t, repo.Upsert("state-1", nil))
	_, err := repo.Get("")
	require.Error(t, err)
}
