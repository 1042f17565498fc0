// Package admin holds the staff-realm HTTP handlers: license pool management
// and license request review.
package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/handler"
	"github.com/rosterhub/platform/internal/service"
)

// LicensesHandler handles the staff license pool endpoints.
type LicensesHandler struct {
	licenses *service.LicensingService
}

// NewLicensesHandler creates a new LicensesHandler.
func NewLicensesHandler(licenses *service.LicensingService) *LicensesHandler {
	return &LicensesHandler{licenses: licenses}
}

// Create handles POST /admin/licenses: mints a batch of unused licenses.
func (h *LicensesHandler) Create(w http.ResponseWriter, r *http.Request) {
	var input struct {
		Type  domain.LicenseType `json:"type"`
		Count int                `json:"count"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondBadBody(w)
		return
	}

	licenses, err := h.licenses.CreateLicenses(r.Context(), input.Type, input.Count)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusCreated, map[string]interface{}{"licenses": licenses})
}

// List handles GET /admin/licenses. ?unused=true filters to the free pool.
func (h *LicensesHandler) List(w http.ResponseWriter, r *http.Request) {
	onlyUnused := r.URL.Query().Get("unused") == "true"

	licenses, err := h.licenses.ListLicenses(r.Context(), onlyUnused)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"licenses": licenses})
}

// Delete handles DELETE /admin/licenses/{licenseID}. Deleting a consumed
// license also resets its team back to unlicensed.
func (h *LicensesHandler) Delete(w http.ResponseWriter, r *http.Request) {
	licenseID, err := uuid.Parse(chi.URLParam(r, "licenseID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid license id"))
		return
	}

	if err := h.licenses.DeleteLicense(r.Context(), licenseID); err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusNoContent, nil)
}

// Assign handles POST /admin/teams/{teamID}/license: binds the first free
// pool license to the team.
func (h *LicensesHandler) Assign(w http.ResponseWriter, r *http.Request) {
	teamID, err := uuid.Parse(chi.URLParam(r, "teamID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid team id"))
		return
	}

	team, err := h.licenses.AssignFromPool(r.Context(), teamID)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, team)
}
