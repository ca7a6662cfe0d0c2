// Package identity is the typed client for the marketplace identity API.
// It owns the credential/token exchange: email+password login, social
// sign-in assertions, and every authenticated profile and campaign call the
// gateway makes on a user's behalf.
package identity

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

const statusSuccess = "success"

// envelope is the response wrapper used by every identity API endpoint.
type envelope struct {
	Status  string          `json:"status"`
	Message string          `json:"message,omitempty"`
	Data    json.RawMessage `json:"data,omitempty"`
}

// Client calls the identity backend. All methods are synchronous and never
// retry: a rejected or failed exchange is surfaced to the caller, which
// decides whether to re-prompt the user.
type Client struct {
	baseURL    string
	httpClient *http.Client
}

type ClientOption func(*Client)

// WithHTTPClient overrides the underlying HTTP client (primarily for testing).
func WithHTTPClient(hc *http.Client) ClientOption {
	return func(c *Client) {
		c.httpClient = hc
	}
}

func NewClient(baseURL string, timeout time.Duration, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
	}
	for _, opt := range options {
		opt(c)
	}
	return c
}

// Login exchanges an email and password for a token pair. Validation
// failures, backend rejections and network failures are logged distinctly
// but all collapse to a single generic message at the HTTP surface.
func (c *Client) Login(ctx context.Context, email, password string) (*Credentials, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		log.Warn().Str("event", "credential_validation").Msg("login attempted with missing fields")
		return nil, errors.Wrap(MissingCredentialsErr, "[identity.Login]")
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/login", "", map[string]string{
		"email":    email,
		"password": password,
	}, &creds); err != nil {
		return nil, errors.Wrap(err, "[identity.Login]")
	}

	if creds.AccessToken == "" {
		log.Warn().Str("event", "backend_rejected").Msg("login response missing access token")
		return nil, errors.Wrap(BackendRejectedErr, "[identity.Login] no access token in response")
	}
	return &creds, nil
}

// Signup registers a new credentials-based account for the given role.
func (c *Client) Signup(ctx context.Context, email, password string, role Role) (*Credentials, error) {
	if strings.TrimSpace(email) == "" || password == "" {
		log.Warn().Str("event", "credential_validation").Msg("signup attempted with missing fields")
		return nil, errors.Wrap(MissingCredentialsErr, "[identity.Signup]")
	}
	if !role.Valid() {
		return nil, errors.Wrap(InvalidRoleErr, "[identity.Signup]")
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/signup", "", map[string]string{
		"email":        email,
		"password":     password,
		"signed_up_as": string(role),
	}, &creds); err != nil {
		return nil, errors.Wrap(err, "[identity.Signup]")
	}

	if creds.AccessToken == "" {
		log.Warn().Str("event", "backend_rejected").Msg("signup response missing access token")
		return nil, errors.Wrap(BackendRejectedErr, "[identity.Signup] no access token in response")
	}
	return &creds, nil
}

// SocialSignIn posts a verified provider assertion to the social
// signup/signin endpoint. Apple supplies a name only on first login, so
// empty name parts are accepted. A response without an access token fails
// hard: the session step must never proceed with a partial credential.
func (c *Client) SocialSignIn(ctx context.Context, assertion SocialAssertion) (*Credentials, error) {
	if assertion.Email == "" || assertion.Provider == "" {
		log.Warn().Str("event", "credential_validation").Str("provider", assertion.Provider).
			Msg("social assertion missing email or provider")
		return nil, errors.Wrap(MissingCredentialsErr, "[identity.SocialSignIn]")
	}
	if !assertion.Role.Valid() {
		return nil, errors.Wrap(InvalidRoleErr, "[identity.SocialSignIn]")
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/social", "", assertion, &creds); err != nil {
		return nil, errors.Wrap(err, "[identity.SocialSignIn]")
	}

	if creds.AccessToken == "" {
		log.Error().Str("event", "incomplete_credential").Str("provider", assertion.Provider).
			Msg("social response missing access token")
		return nil, errors.Wrap(IncompleteCredentialErr, "[identity.SocialSignIn]")
	}
	return &creds, nil
}

// Refresh exchanges a refresh token for a new pair. Never called
// implicitly; an expired access token surfaces as a 401 to the caller.
func (c *Client) Refresh(ctx context.Context, refreshToken string) (*Credentials, error) {
	if refreshToken == "" {
		return nil, errors.Wrap(MissingCredentialsErr, "[identity.Refresh]")
	}

	var creds Credentials
	if err := c.do(ctx, http.MethodPost, "/auth/refresh", "", map[string]string{
		"refresh_token": refreshToken,
	}, &creds); err != nil {
		return nil, errors.Wrap(err, "[identity.Refresh]")
	}
	if creds.AccessToken == "" {
		return nil, errors.Wrap(BackendRejectedErr, "[identity.Refresh] no access token in response")
	}
	return &creds, nil
}

func (c *Client) SendOTP(ctx context.Context, email string) error {
	if strings.TrimSpace(email) == "" {
		return errors.Wrap(MissingCredentialsErr, "[identity.SendOTP]")
	}
	return errors.Wrap(c.do(ctx, http.MethodPost, "/auth/send-otp", "", map[string]string{"email": email}, nil), "[identity.SendOTP]")
}

func (c *Client) VerifyEmail(ctx context.Context, email, otp string) error {
	if strings.TrimSpace(email) == "" || otp == "" {
		return errors.Wrap(MissingCredentialsErr, "[identity.VerifyEmail]")
	}
	return errors.Wrap(c.do(ctx, http.MethodPost, "/auth/verify-email", "", map[string]string{
		"email": email,
		"otp":   otp,
	}, nil), "[identity.VerifyEmail]")
}

func (c *Client) ResetPassword(ctx context.Context, email, otp, newPassword string) error {
	if strings.TrimSpace(email) == "" || otp == "" || newPassword == "" {
		return errors.Wrap(MissingCredentialsErr, "[identity.ResetPassword]")
	}
	return errors.Wrap(c.do(ctx, http.MethodPost, "/auth/reset-password", "", map[string]string{
		"email":        email,
		"otp":          otp,
		"new_password": newPassword,
	}, nil), "[identity.ResetPassword]")
}

// GetUserInfo fetches the current user's profile with the given access
// token. Profiles are not cached by the gateway; callers re-fetch per
// navigation.
func (c *Client) GetUserInfo(ctx context.Context, accessToken string) (*User, error) {
	var user User
	if err := c.do(ctx, http.MethodGet, "/users/me", accessToken, nil, &user); err != nil {
		return nil, errors.Wrap(err, "[identity.GetUserInfo]")
	}
	return &user, nil
}

// UpdateProfile applies a partial profile update (single PATCH).
func (c *Client) UpdateProfile(ctx context.Context, accessToken string, patch map[string]string) error {
	if len(patch) == 0 {
		return nil
	}
	return errors.Wrap(c.do(ctx, http.MethodPatch, "/users/me/profile", accessToken, patch, nil), "[identity.UpdateProfile]")
}

// CreateCampaign creates the initial campaign at the end of the brand
// onboarding flow (single POST).
func (c *Client) CreateCampaign(ctx context.Context, accessToken string, campaign Campaign) error {
	return errors.Wrap(c.do(ctx, http.MethodPost, "/campaigns", accessToken, campaign, nil), "[identity.CreateCampaign]")
}

func (c *Client) GetBrand(ctx context.Context, accessToken, brandID string) (*Brand, error) {
	var brand Brand
	if err := c.do(ctx, http.MethodGet, "/brands/"+brandID, accessToken, nil, &brand); err != nil {
		return nil, errors.Wrap(err, "[identity.GetBrand]")
	}
	return &brand, nil
}

// GetSubscription fetches the user's current plan and status. Fetched per
// gated navigation, never persisted by the gateway.
func (c *Client) GetSubscription(ctx context.Context, accessToken string) (*Subscription, error) {
	var sub Subscription
	if err := c.do(ctx, http.MethodGet, "/subscriptions/me", accessToken, nil, &sub); err != nil {
		return nil, errors.Wrap(err, "[identity.GetSubscription]")
	}
	return &sub, nil
}

// do performs a single JSON request against the backend. A bearer header is
// attached exactly when accessToken is non-empty.
func (c *Client) do(ctx context.Context, method, path, accessToken string, body, out any) error {
	var reqBody io.Reader
	if body != nil {
		payload, err := json.Marshal(body)
		if err != nil {
			return errors.Wrap(err, "marshal request body")
		}
		reqBody = bytes.NewReader(payload)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reqBody)
	if err != nil {
		return errors.Wrap(err, "build request")
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	if accessToken != "" {
		req.Header.Set("Authorization", "Bearer "+accessToken)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		log.Error().Str("event", "network_failure").Str("path", path).Err(err).
			Msg("identity backend request failed")
		return errors.Wrap(NetworkErr, path)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		log.Error().Str("event", "network_failure").Str("path", path).Err(err).
			Msg("identity backend response unreadable")
		return errors.Wrap(NetworkErr, path)
	}

	var env envelope
	if err := json.Unmarshal(respBody, &env); err != nil {
		log.Warn().Str("event", "backend_rejected").Str("path", path).Int("code", resp.StatusCode).
			Msg("identity backend returned unparseable payload")
		return errors.Wrap(BackendRejectedErr, fmt.Sprintf("%s: status %d", path, resp.StatusCode))
	}

	if resp.StatusCode >= http.StatusMultipleChoices || env.Status != statusSuccess {
		log.Warn().Str("event", "backend_rejected").Str("path", path).Int("code", resp.StatusCode).
			Str("message", env.Message).Msg("identity backend rejected request")
		return errors.Wrap(BackendRejectedErr, fmt.Sprintf("%s: status %d", path, resp.StatusCode))
	}

	if out != nil && len(env.Data) > 0 {
		if err := json.Unmarshal(env.Data, out); err != nil {
			return errors.Wrap(BackendRejectedErr, path+": mismatched payload shape")
		}
	}
	return nil
}
