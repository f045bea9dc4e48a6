package handlers

import (
	"fmt"
	"net/http"
	"time"

	"osld-portal/internal/ics"
	"osld-portal/internal/models"
	"osld-portal/internal/service"
)

// DeadlineHandler serves projected report deadlines and reminders
type DeadlineHandler struct {
	deadlineService *service.DeadlineService
	notifierService *service.NotifierService
	now             func() time.Time
}

// NewDeadlineHandler creates a new deadline handler
func NewDeadlineHandler(deadlineService *service.DeadlineService, notifierService *service.NotifierService) *DeadlineHandler {
	return &DeadlineHandler{
		deadlineService: deadlineService,
		notifierService: notifierService,
		now:             time.Now,
	}
}

// ListDeadlines lists the viewer's deadlines with their resolved state
// @Summary List deadlines
// @Description Project every report deadline visible to the organization and resolve its appeal state
// @Tags Deadlines
// @Produce json
// @Security BearerAuth
// @Param from query string false "Earliest due date (YYYY-MM-DD)"
// @Param to query string false "Latest due date (YYYY-MM-DD)"
// @Success 200 {array} appeal.Resolution
// @Failure 400 {object} map[string]string "Invalid date"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /deadlines [get]
func (h *DeadlineHandler) ListDeadlines(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	from, okFrom := parseDate(r.URL.Query().Get("from"))
	to, okTo := parseDate(r.URL.Query().Get("to"))
	if !okFrom || !okTo {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDate)
		return
	}

	resolutions, err := h.deadlineService.ListDeadlines(r.Context(), viewer, from, to)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, resolutions)
}

// GetState resolves the state of one deadline
// @Summary Get deadline state
// @Description Resolve the appeal state of one (event, report kind) deadline for the organization
// @Tags Deadlines
// @Produce json
// @Security BearerAuth
// @Param event_id query int true "Event ID"
// @Param report_kind query string true "accomplishment or liquidation"
// @Success 200 {object} appeal.Resolution
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Failure 404 {object} map[string]string "Deadline not found"
// @Router /deadlines/state [get]
func (h *DeadlineHandler) GetState(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	eventID, ok := parseID(r.URL.Query().Get("event_id"))
	if !ok {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidEventID)
		return
	}

	res, err := h.deadlineService.State(r.Context(), viewer, eventID, models.ReportKind(r.URL.Query().Get("report_kind")))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, res)
}

// ExportCalendar serves the viewer's deadlines as an iCalendar feed
// @Summary Export deadlines calendar
// @Description Download every visible deadline as all-day iCalendar events
// @Tags Deadlines
// @Produce text/calendar
// @Security BearerAuth
// @Success 200 {string} string "iCalendar document"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /deadlines/calendar.ics [get]
func (h *DeadlineHandler) ExportCalendar(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	occurrences, _, err := h.deadlineService.Occurrences(r.Context(), viewer, nil, nil)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	body := ics.Export(fmt.Sprintf("%s report deadlines", viewer.Code()), occurrences, h.now())

	w.Header().Set("Content-Type", "text/calendar; charset=utf-8")
	w.Header().Set("Content-Disposition", fmt.Sprintf(`attachment; filename="%s-deadlines.ics"`, viewer.Code()))
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(body))
}

// NotifyRequest asks for a due-today reminder to be sent
type NotifyRequest struct {
	EventID    uint              `json:"event_id"`
	ReportKind models.ReportKind `json:"report_kind"`
	Recipient  string            `json:"recipient,omitempty"`
}

// Notify sends a deadline reminder to the event's target organization
// @Summary Notify organization
// @Description Send a due-today reminder on behalf of the reviewing office or an overseeing council. Every call creates a new notification.
// @Tags Deadlines
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body NotifyRequest true "Deadline to remind"
// @Success 201 {object} models.Notification
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Not allowed to notify"
// @Failure 404 {object} map[string]string "Deadline not found"
// @Router /deadlines/notify [post]
func (h *DeadlineHandler) Notify(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	var req NotifyRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	notification, err := h.notifierService.NotifyOrganization(r.Context(), viewer, req.EventID, req.ReportKind, req.Recipient)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, notification)
}
