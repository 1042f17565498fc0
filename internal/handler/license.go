package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rosterhub/platform/internal/guard"
	"github.com/rosterhub/platform/internal/licensing"
	"github.com/rosterhub/platform/internal/service"
)

// LicenseHandler handles the member-facing license endpoints: activation by
// code, license status, and the request workflow.
type LicenseHandler struct {
	licenses *service.LicensingService
	teams    *service.TeamService
	accounts *service.AccountService

	// activation attempts are throttled per caller so license codes cannot
	// be brute-forced
	limiter *guard.RateLimiter
}

// NewLicenseHandler creates a new LicenseHandler.
func NewLicenseHandler(licenses *service.LicensingService, teams *service.TeamService, accounts *service.AccountService, limiter *guard.RateLimiter) *LicenseHandler {
	return &LicenseHandler{licenses: licenses, teams: teams, accounts: accounts, limiter: limiter}
}

// Activate handles POST /teams/{teamID}/license/activate.
func (h *LicenseHandler) Activate(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}
	teamID, err := pathUUID(chi.URLParam(r, "teamID"))
	if err != nil {
		RespondError(w, err)
		return
	}

	if res := h.limiter.Check(r.Context(), actor.ID.String()); !res.Allowed {
		RespondJSON(w, http.StatusTooManyRequests, map[string]string{
			"code":    "RATE_LIMITED",
			"message": res.Reason,
		})
		return
	}

	var input struct {
		Code string `json:"code"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	team, err := h.licenses.ActivateByCode(r.Context(), actor, teamID, input.Code)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// Status handles GET /teams/{teamID}/license.
func (h *LicenseHandler) Status(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}
	teamID, err := pathUUID(chi.URLParam(r, "teamID"))
	if err != nil {
		RespondError(w, err)
		return
	}

	// membership gate reuses the team read path
	if _, err := h.teams.Get(r.Context(), actor, teamID); err != nil {
		RespondError(w, err)
		return
	}

	status, err := h.licenses.TeamLicenseStatus(r.Context(), teamID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, status)
}

// SubmitRequest handles POST /teams/{teamID}/license/requests.
func (h *LicenseHandler) SubmitRequest(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}
	teamID, err := pathUUID(chi.URLParam(r, "teamID"))
	if err != nil {
		RespondError(w, err)
		return
	}

	var input licensing.SubmitRequestInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	req, err := h.licenses.SubmitRequest(r.Context(), actor, teamID, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, req)
}

// ListRequests handles GET /teams/{teamID}/license/requests.
func (h *LicenseHandler) ListRequests(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}
	teamID, err := pathUUID(chi.URLParam(r, "teamID"))
	if err != nil {
		RespondError(w, err)
		return
	}

	requests, err := h.licenses.ListTeamRequests(r.Context(), actor, teamID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}
