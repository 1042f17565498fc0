package handler

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rosterhub/platform/internal/service"
)

// EventHandler handles practice session endpoints.
type EventHandler struct {
	events   *service.EventService
	accounts *service.AccountService
}

// NewEventHandler creates a new EventHandler.
func NewEventHandler(events *service.EventService, accounts *service.AccountService) *EventHandler {
	return &EventHandler{events: events, accounts: accounts}
}

// Create handles POST /teams/{teamID}/events.
func (h *EventHandler) Create(w http.ResponseWriter, r *http.Request) {
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

	var input service.CreateEventInput
	if err := DecodeJSON(r, &input); err != nil {
		RespondBadBody(w)
		return
	}

	event, err := h.events.Create(r.Context(), actor, teamID, input)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusCreated, event)
}

// List handles GET /teams/{teamID}/events.
func (h *EventHandler) List(w http.ResponseWriter, r *http.Request) {
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

	events, err := h.events.ListByTeam(r.Context(), actor, teamID)
	if err != nil {
		RespondError(w, err)
		return
	}
	RespondJSON(w, http.StatusOK, map[string]interface{}{"events": events})
}
