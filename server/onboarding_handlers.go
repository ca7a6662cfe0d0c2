package server

import (
	"net/http"
	"strconv"

	"github.com/nichelink/gateway/identity"
	"github.com/nichelink/gateway/internal/gateerrors"
	"github.com/nichelink/gateway/onboarding"
	"github.com/pkg/errors"
	"github.com/rs/zerolog/log"
)

// roleFromPath validates the {role} path segment. Anything other than the
// two marketplace roles is a 404 rather than a 400, matching the route
// space the frontend knows about.
func roleFromPath(w http.ResponseWriter, r *http.Request) (identity.Role, bool) {
	role := identity.Role(r.PathValue("role"))
	if !role.Valid() {
		writeError(w, http.StatusNotFound, "not found")
		return "", false
	}
	return role, true
}

// OnboardingDraftHandler returns the wizard draft for the browser context,
// creating one at step 1 on first visit. A ?step= query is a deep link and
// gets clamped to the role's valid range.
func (s *Server) OnboardingDraftHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, ok := roleFromPath(w, r)
		if !ok {
			return
		}
		contextID := s.browserContextID(w, r)

		if raw := r.URL.Query().Get(QueryStep); raw != "" {
			step, err := strconv.Atoi(raw)
			if err != nil {
				writeError(w, http.StatusBadRequest, "step must be a number")
				return
			}
			draft, err := s.wizard.Resume(contextID, role, step)
			if err != nil {
				writeError(w, http.StatusInternalServerError, "could not load onboarding draft")
				return
			}
			writeJSON(w, http.StatusOK, draft)
			return
		}

		draft, err := s.wizard.Draft(contextID, role)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not load onboarding draft")
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}

// OnboardingUpdateHandler merges submitted fields into the draft.
func (s *Server) OnboardingUpdateHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, ok := roleFromPath(w, r)
		if !ok {
			return
		}
		var fields map[string]string
		if err := decodeJSON(r, &fields); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		contextID := s.browserContextID(w, r)
		draft, err := s.wizard.UpdateDraft(contextID, role, fields)
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not save onboarding draft")
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}

// OnboardingStepHandler moves the wizard one step forward or back.
func (s *Server) OnboardingStepHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, ok := roleFromPath(w, r)
		if !ok {
			return
		}
		var req struct {
			Direction string `json:"direction"`
		}
		if err := decodeJSON(r, &req); err != nil {
			writeError(w, http.StatusBadRequest, "invalid request body")
			return
		}

		contextID := s.browserContextID(w, r)
		var (
			draft *onboarding.Draft
			err   error
		)
		switch req.Direction {
		case "next":
			draft, err = s.wizard.Next(contextID, role)
		case "back":
			draft, err = s.wizard.Back(contextID, role)
		default:
			writeError(w, http.StatusBadRequest, "direction must be next or back")
			return
		}
		if err != nil {
			writeError(w, http.StatusInternalServerError, "could not advance onboarding")
			return
		}
		writeJSON(w, http.StatusOK, draft)
	}
}

// OnboardingCompleteHandler finishes the wizard. With a live session the
// draft is submitted to the backend immediately; without one it is marked
// for submission on the next sign-in and the user is sent to login.
func (s *Server) OnboardingCompleteHandler() http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		role, ok := roleFromPath(w, r)
		if !ok {
			return
		}
		contextID := s.browserContextID(w, r)

		accessToken := s.store.Token(contextID)
		result, err := s.wizard.Complete(r.Context(), contextID, role, accessToken)
		if err != nil {
			if errors.Is(err, gateerrors.ErrDraftNotFound) {
				writeError(w, http.StatusNotFound, "no onboarding draft to complete")
				return
			}
			writeError(w, http.StatusInternalServerError, "could not complete onboarding")
			return
		}

		if result.Deferred {
			writeJSON(w, http.StatusOK, map[string]any{
				"deferred": true,
				"redirect": loginRedirectPath(DashboardRoute(role)),
			})
			return
		}

		if result.CampaignErr != nil {
			log.Error().Err(result.CampaignErr).Msg("initial campaign creation failed after profile submission")
		}

		writeJSON(w, http.StatusOK, map[string]any{
			"submitted": result.Submitted,
			"redirect":  DashboardRoute(role),
		})
	}
}
