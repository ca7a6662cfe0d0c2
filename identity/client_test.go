package identity_test

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/nichelink/gateway/identity"
	"github.com/stretchr/testify/require"
)

const (
	testEmail       = "a@b.com"
	testPassword    = "x"
	testAccessToken = "T1"
	testUserID      = "user-1"
)

// fakeBackend is a scripted identity API: each registered route returns its
// canned envelope.
type fakeBackend struct {
	t        *testing.T
	mux      *http.ServeMux
	server   *httptest.Server
	requests []string
}

func newFakeBackend(t *testing.T) *fakeBackend {
	t.Helper()

	f := &fakeBackend{t: t, mux: http.NewServeMux()}
	f.server = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		f.requests = append(f.requests, r.Method+" "+r.URL.Path)
		f.mux.ServeHTTP(w, r)
	}))
	t.Cleanup(f.server.Close)
	return f
}

func (f *fakeBackend) respond(pattern string, code int, status string, data any) {
	f.mux.HandleFunc(pattern, func(w http.ResponseWriter, r *http.Request) {
		payload := map[string]any{"status": status}
		if data != nil {
			payload["data"] = data
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		_ = json.NewEncoder(w).Encode(payload)
	})
}

func (f *fakeBackend) client() *identity.Client {
	return identity.NewClient(f.server.URL, 5*time.Second)
}

func TestLoginReturnsCredentials(t *testing.T) {
	backend := newFakeBackend(t)
	backend.respond("POST /auth/login", http.StatusOK, "success", identity.Credentials{
		AccessToken:  testAccessToken,
		RefreshToken: "R1",
		User:         identity.User{ID: testUserID, Email: testEmail, SignedUpAs: identity.RoleBrand},
	})

	creds, err := backend.client().Login(context.Background(), testEmail, testPassword)
	require.NoError(t, err)
	require.Equal(t, testAccessToken, creds.AccessToken)
	require.Equal(t, "R1", creds.RefreshToken)
	require.Equal(t, testUserID, creds.User.ID)
	require.Equal(t, identity.RoleBrand, creds.User.SignedUpAs)
}

func TestLoginMissingFields(t *testing.T) {
	backend := newFakeBackend(t)

	_, err := backend.client().Login(context.Background(), "", testPassword)
	require.ErrorIs(t, err, identity.MissingCredentialsErr)

	_, err = backend.client().Login(context.Background(), testEmail, "")
	require.ErrorIs(t, err, identity.MissingCredentialsErr)

	// Validation failures never reach the backend
	require.Empty(t, backend.requests)
}

func TestLoginBackendRejection(t *testing.T) {
	backend := newFakeBackend(t)
	backend.respond("POST /auth/login", http.StatusUnauthorized, "error", nil)

	_, err := backend.client().Login(context.Background(), testEmail, "wrong")
	require.ErrorIs(t, err, identity.BackendRejectedErr)
}

func TestLoginNetworkFailure(t *testing.T) {
	backend := newFakeBackend(t)
	backend.server.Close()

	_, err := backend.client().Login(context.Background(), testEmail, testPassword)
	require.ErrorIs(t, err, identity.NetworkErr)
}

func TestSignupInvalidRole(t *testing.T) {
	backend := newFakeBackend(t)

	_, err := backend.client().Signup(context.Background(), testEmail, testPassword, identity.Role("admin"))
	require.ErrorIs(t, err, identity.InvalidRoleErr)
	require.Empty(t, backend.requests)
}

func TestSocialSignInMissingAccessTokenFailsHard(t *testing.T) {
	backend := newFakeBackend(t)
	// Backend acknowledges the assertion but issues no token
	backend.respond("POST /auth/social", http.StatusOK, "success", identity.Credentials{
		User: identity.User{ID: testUserID, Email: testEmail},
	})

	_, err := backend.client().SocialSignIn(context.Background(), identity.SocialAssertion{
		Provider: "google",
		Email:    testEmail,
		Role:     identity.RoleInfluencer,
	})
	require.ErrorIs(t, err, identity.IncompleteCredentialErr)
}

func TestSocialSignInAcceptsEmptyNames(t *testing.T) {
	backend := newFakeBackend(t)
	backend.respond("POST /auth/social", http.StatusOK, "success", identity.Credentials{
		AccessToken: testAccessToken,
		User:        identity.User{ID: testUserID, Email: testEmail},
	})

	// Apple repeat sign-in: no name parts on the assertion
	creds, err := backend.client().SocialSignIn(context.Background(), identity.SocialAssertion{
		Provider: "apple",
		Email:    testEmail,
		Role:     identity.RoleInfluencer,
	})
	require.NoError(t, err)
	require.Equal(t, testAccessToken, creds.AccessToken)
}

func TestGetUserInfoSendsBearerToken(t *testing.T) {
	backend := newFakeBackend(t)
	var gotAuth string
	backend.mux.HandleFunc("GET /users/me", func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		w.Header().Set("Content-Type", "application/json")
		_ = json.NewEncoder(w).Encode(map[string]any{
			"status": "success",
			"data":   identity.User{ID: testUserID, Email: testEmail},
		})
	})

	user, err := backend.client().GetUserInfo(context.Background(), testAccessToken)
	require.NoError(t, err)
	require.Equal(t, testUserID, user.ID)
	require.Equal(t, "Bearer "+testAccessToken, gotAuth)
}

func TestGetBrand(t *testing.T) {
	backend := newFakeBackend(t)
	backend.respond("GET /brands/b1", http.StatusOK, "success", identity.Brand{
		ID:           "b1",
		BusinessName: "Acme",
	})

	brand, err := backend.client().GetBrand(context.Background(), testAccessToken, "b1")
	require.NoError(t, err)
	require.Equal(t, "Acme", brand.BusinessName)
}

func TestDashboardRoleDefaultsToInfluencer(t *testing.T) {
	user := identity.User{}
	require.Equal(t, identity.RoleInfluencer, user.DashboardRole())

	user.BrandProfile = &identity.BrandProfile{BusinessName: "Acme"}
	require.Equal(t, identity.RoleBrand, user.DashboardRole())

	user.BrandProfile = nil
	user.InfluencerProfile = &identity.InfluencerProfile{DisplayName: "creator"}
	require.Equal(t, identity.RoleInfluencer, user.DashboardRole())
}
