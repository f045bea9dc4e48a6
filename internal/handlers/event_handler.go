package handlers

import (
	"net/http"

	"osld-portal/internal/service"
)

// EventHandler manages governance events
type EventHandler struct {
	deadlineService *service.DeadlineService
	eventService    *service.EventService
}

// NewEventHandler creates a new event handler
func NewEventHandler(deadlineService *service.DeadlineService, eventService *service.EventService) *EventHandler {
	return &EventHandler{
		deadlineService: deadlineService,
		eventService:    eventService,
	}
}

// ListEvents lists the events visible to the organization
// @Summary List events
// @Tags Events
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.Event
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /events [get]
func (h *EventHandler) ListEvents(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	events, err := h.eventService.List(r.Context(), viewer)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, events)
}

// CreateEvent creates an event
// @Summary Create event
// @Description Create an event targeted at an organization, ALL or AO (reviewing office only)
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.EventInput true "Event"
// @Success 201 {object} models.Event
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Reviewing office only"
// @Router /events/create [post]
func (h *EventHandler) CreateEvent(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	var input service.EventInput
	if !decodeJSON(w, r, &input) {
		return
	}

	event, err := h.eventService.Create(r.Context(), viewer, input, requestMeta(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, event)
}

// UpdateEventRequest changes the given fields of an event
type UpdateEventRequest struct {
	ID uint `json:"id"`
	service.EventPatch
}

// UpdateEvent updates an event
// @Summary Update event
// @Description Change the given fields of an event; deadline overrides are kept (reviewing office only)
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body UpdateEventRequest true "Event changes"
// @Success 200 {object} models.Event
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Reviewing office only"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/update [post]
func (h *EventHandler) UpdateEvent(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	var req UpdateEventRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.ID == 0 {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidEventID)
		return
	}

	event, err := h.eventService.Update(r.Context(), viewer, req.ID, req.EventPatch, requestMeta(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, event)
}

// IDRequest identifies a single resource
type IDRequest struct {
	ID uint `json:"id"`
}

// DeleteEvent deletes an event
// @Summary Delete event
// @Tags Events
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IDRequest true "Event ID"
// @Success 200 {object} map[string]string
// @Failure 403 {object} map[string]string "Reviewing office only"
// @Failure 404 {object} map[string]string "Event not found"
// @Router /events/delete [post]
func (h *EventHandler) DeleteEvent(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	var req IDRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.eventService.Delete(r.Context(), viewer, req.ID, requestMeta(r)); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Event deleted"})
}
