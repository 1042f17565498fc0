package admin

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rosterhub/platform/internal/auth"
	"github.com/rosterhub/platform/internal/domain"
	"github.com/rosterhub/platform/internal/handler"
	"github.com/rosterhub/platform/internal/licensing"
	"github.com/rosterhub/platform/internal/service"
)

// RequestsHandler handles the staff license request review endpoints.
type RequestsHandler struct {
	licenses *service.LicensingService
}

// NewRequestsHandler creates a new RequestsHandler.
func NewRequestsHandler(licenses *service.LicensingService) *RequestsHandler {
	return &RequestsHandler{licenses: licenses}
}

// List handles GET /admin/license-requests. ?status= filters; defaults to pending.
func (h *RequestsHandler) List(w http.ResponseWriter, r *http.Request) {
	status := domain.RequestStatus(r.URL.Query().Get("status"))
	if status == "" {
		status = domain.RequestPending
	}
	switch status {
	case domain.RequestPending, domain.RequestApproved, domain.RequestRejected:
	default:
		handler.RespondError(w, domain.ErrValidation("unknown request status"))
		return
	}

	requests, err := h.licenses.ListRequests(r.Context(), status)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, map[string]interface{}{"requests": requests})
}

// Review handles POST /admin/license-requests/{requestID}/review.
func (h *RequestsHandler) Review(w http.ResponseWriter, r *http.Request) {
	requestID, err := uuid.Parse(chi.URLParam(r, "requestID"))
	if err != nil {
		handler.RespondError(w, domain.ErrValidation("invalid request id"))
		return
	}

	reviewerID, err := uuid.Parse(auth.SubjectFromContext(r.Context()))
	if err != nil {
		handler.RespondError(w, domain.ErrUnauthorized("invalid token subject"))
		return
	}

	var input struct {
		Decision licensing.Decision `json:"decision"`
	}
	if err := handler.DecodeJSON(r, &input); err != nil {
		handler.RespondBadBody(w)
		return
	}

	req, err := h.licenses.ReviewRequest(r.Context(), requestID, input.Decision, reviewerID)
	if err != nil {
		handler.RespondError(w, err)
		return
	}
	handler.RespondJSON(w, http.StatusOK, req)
}
