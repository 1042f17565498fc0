package handler

import (
	"net/http"

	"github.com/rosterhub/platform/internal/service"
)

// AuthHandler handles registration, login and account endpoints.
type AuthHandler struct {
	accounts *service.AccountService
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(accounts *service.AccountService) *AuthHandler {
	return &AuthHandler{accounts: accounts}
}

// Register handles POST /auth/register.
func (h *AuthHandler) Register(w http.ResponseWriter, r *http.Request) {
	var input service.RegisterInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	result, err := h.accounts.Register(r.Context(), input)
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusCreated, result)
}

// Login handles POST /auth/login.
func (h *AuthHandler) Login(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Email    string `json:"email"`
		Password string `json:"password"`
	}
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	result, err := h.accounts.Login(r.Context(), input.Email, input.Password, clientIP(r))
	if err != nil {
		RespondError(w, err)
		return
	}

	RespondJSON(w, http.StatusOK, result)
}

// Me handles GET /me.
func (h *AuthHandler) Me(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, actor)
}

// DeleteAccount handles DELETE /me. Refused while the caller is the sole
// admin of any team.
func (h *AuthHandler) DeleteAccount(w http.ResponseWriter, r *http.Request) {
	actor, err := resolveActor(r, h.accounts)
	if err != nil {
		RespondError(w, err)
		return
	}
	if err := h.accounts.DeleteAccount(r.Context(), actor); err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusNoContent, nil)
}
