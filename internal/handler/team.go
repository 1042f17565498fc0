package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rosterhub/platform/internal/service"
)

// TeamHandler handles team lifecycle and membership endpoints.
type TeamHandler struct {
	teams    *service.TeamService
	accounts *service.AccountService
}

// NewTeamHandler creates a new TeamHandler.
func NewTeamHandler(teams *service.TeamService, accounts *service.AccountService) *TeamHandler {
	return &TeamHandler{teams: teams, accounts: accounts}
}

// Create handles POST /teams.
func (h *TeamHandler) Create(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input service.CreateTeamInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	team, err := h.teams.Create(r.Context(), actor, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, team)
}

// Get handles GET /teams/{teamID}.
func (h *TeamHandler) Get(w http.ResponseWriter, r *http.Request) {
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

	team, err := h.teams.Get(r.Context(), actor, teamID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// ListMine handles GET /teams.
func (h *TeamHandler) ListMine(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}

	teams, err := h.teams.ListMine(r.Context(), actor)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"teams": teams})
}

// Update handles PATCH /teams/{teamID}.
func (h *TeamHandler) Update(w http.ResponseWriter, r *http.Request) {
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

	var input service.UpdateTeamInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	team, err := h.teams.Update(r.Context(), actor, teamID, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// RotateJoinCode handles POST /teams/{teamID}/join-code.
func (h *TeamHandler) RotateJoinCode(w http.ResponseWriter, r *http.Request) {
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

	team, err := h.teams.RotateJoinCode(r.Context(), actor, teamID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// Join handles POST /teams/join.
func (h *TeamHandler) Join(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}

	var input struct {
		JoinCode string `json:"join_code"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	team, err := h.teams.JoinByCode(r.Context(), actor, input.JoinCode)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// AddAdmin handles POST /teams/{teamID}/admins.
func (h *TeamHandler) AddAdmin(w http.ResponseWriter, r *http.Request) {
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

	var input struct {
		UserID string `json:"user_id"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}
	userID, err := pathUUID(input.UserID)
	if err != nil {
		RespondError(w, err)
		return
	}

	team, err := h.teams.AddAdmin(r.Context(), actor, teamID, userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// RemoveAdmin handles DELETE /teams/{teamID}/admins/{userID}.
func (h *TeamHandler) RemoveAdmin(w http.ResponseWriter, r *http.Request) {
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
	userID, err := pathUUID(chi.URLParam(r, "userID"))
	if err != nil {
		RespondError(w, err)
		return
	}

	team, err := h.teams.RemoveAdmin(r.Context(), actor, teamID, userID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, team)
}

// Delete handles DELETE /teams/{teamID}.
func (h *TeamHandler) Delete(w http.ResponseWriter, r *http.Request) {
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

	if err := h.teams.Delete(r.Context(), actor, teamID); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}
