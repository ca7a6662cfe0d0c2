package server

import (
	"net/http"
	"time"

	"github.com/nichelink/gateway/identity"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// invalidCredentialsMsg is the single user-visible message for every
// credential failure class; the classes are distinguished in the logs only.
const invalidCredentialsMsg = "Invalid credentials"

type loginRequest struct {
	Email    string `json:"email"`
	Password string `json:"password"`
}

type signupRequest struct {
	Email    string        `json:"email"`
	Password string        `json:"password"`
	Role     identity.Role `json:"signed_up_as"`
}

type sessionResponse struct {
	Role      identity.Role `json:"role"`
	Email     string        `json:"email,omitempty"`
	UserID    string        `json:"user_id,omitempty"`
	ExpiresAt time.Time     `json:"expires_at"`
	Redirect  string        `json:"redirect,omitempty"`
}

func (s *Server) LoginHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req loginRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, invalidCredentialsMsg)
			return
		}

		creds, err := s.backend.Login(r.Context(), req.Email, req.Password)
		if err != nil {
			writeError(w, credentialErrorStatus(err), invalidCredentialsMsg)
			return
		}

		s.establishSession(w, r, creds)
	}
}

func (s *Server) SignupHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req signupRequest
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		creds, err := s.backend.Signup(r.Context(), req.Email, req.Password, req.Role)
		if err != nil {
			if errors.Is(err, identity.InvalidRoleErr) {
				writeError(w, http.StatusBadRequest, "signup role must be brand or influencer")
				return
			}
			writeError(w, credentialErrorStatus(err), invalidCredentialsMsg)
			return
		}

		s.establishSession(w, r, creds)
	}
}

func (s *Server) LogoutHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contextID := s.browserContextID(w, r)
		if err := s.store.Clear(contextID); err != nil {
			log.Error().Err(err).Msg("failed to clear session on logout")
		}
		s.clearSessionCookie(w, r)
		http.Redirect(w, r, RouteAuthLogin, http.StatusSeeOther)
	}
}

// RefreshHandler exchanges the session's refresh token for a new pair.
// Explicit only: nothing in the gateway calls this on a 401.
func (s *Server) RefreshHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contextID := s.browserContextID(w, r)
		session, err := s.store.GetByContext(contextID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}

		creds, err := s.backend.Refresh(r.Context(), session.RefreshToken)
		if err != nil {
			writeError(w, credentialErrorStatus(err), "session could not be refreshed")
			return
		}

		// The refresh response may omit the user object; keep the identity
		// already bound to the session.
		if creds.User.ID == "" {
			creds.User = identity.User{
				ID:         session.UserID,
				Email:      session.Email,
				SignedUpAs: session.Role,
			}
		}

		s.establishSession(w, r, creds)
	}
}

func (s *Server) SendOTPHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.backend.SendOTP(r.Context(), req.Email); err != nil {
			writeError(w, credentialErrorStatus(err), "could not send verification code")
			return
		}
		writeMessage(w, http.StatusOK, "verification code sent")
	}
}

func (s *Server) VerifyEmailHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email string `json:"email"`
			OTP   string `json:"otp"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.backend.VerifyEmail(r.Context(), req.Email, req.OTP); err != nil {
			writeError(w, credentialErrorStatus(err), "verification failed")
			return
		}
		writeMessage(w, http.StatusOK, "email verified")
	}
}

func (s *Server) ResetPasswordHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		var req struct {
			Email       string `json:"email"`
			OTP         string `json:"otp"`
			NewPassword string `json:"new_password"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}
		if err := s.backend.ResetPassword(r.Context(), req.Email, req.OTP, req.NewPassword); err != nil {
			writeError(w, credentialErrorStatus(err), "password reset failed")
			return
		}
		writeMessage(w, http.StatusOK, "password reset")
	}
}

// establishSession persists the exchanged credentials, binds the session
// cookie, and fires any onboarding completion that was deferred until a
// token existed.
func (s *Server) establishSession(w http.ResponseWriter, r *http.Request, creds *identity.Credentials) {
	contextID := s.browserContextID(w, r)

	session, err := s.store.SetSession(contextID, creds)
	if err != nil {
		log.Error().Err(err).Msg("failed to persist session")
		writeError(w, http.StatusInternalServerError, "could not establish session")
		return
	}

	s.setSessionCookie(w, r, session.ID, sessionCookieMaxAge(session))

	// The token just transitioned absent → present for this context
	if err := s.wizard.ResumePending(r.Context(), contextID, session.AccessToken); err != nil {
		log.Error().Err(err).Msg("failed to resume pending onboarding submission")
	}

	redirect := safeReturnPath(r.URL.Query().Get(QueryReturnTo))
	if redirect == "" {
		redirect = DashboardRoute(session.Role)
	}

	writeJSON(w, http.StatusOK, sessionResponse{
		Role:      session.Role,
		Email:     session.Email,
		UserID:    session.UserID,
		ExpiresAt: session.TokenExpiry,
		Redirect:  redirect,
	})
}

// credentialErrorStatus maps the failure taxonomy to HTTP statuses; the
// message stays generic regardless.
func credentialErrorStatus(err error) int {
	switch {
	case errors.Is(err, identity.MissingCredentialsErr):
		return http.StatusBadRequest
	case errors.Is(err, identity.NetworkErr):
		return http.StatusBadGateway
	default:
		return http.StatusUnauthorized
	}
}

// SessionHandler reports the current session for the browser context.
func (s *Server) SessionHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		contextID := s.browserContextID(w, r)
		session, err := s.store.GetByContext(contextID)
		if err != nil {
			writeError(w, http.StatusUnauthorized, "not signed in")
			return
		}
		writeJSON(w, http.StatusOK, sessionResponse{
			Role:      session.Role,
			Email:     session.Email,
			UserID:    session.UserID,
			ExpiresAt: session.TokenExpiry,
		})
	}
}
