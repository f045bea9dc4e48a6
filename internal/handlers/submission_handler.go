package handlers

import (
	"net/http"

	"osld-portal/internal/models"
	"osld-portal/internal/service"
)

// SubmissionHandler handles report filing and review
type SubmissionHandler struct {
	deadlineService   *service.DeadlineService
	submissionService *service.SubmissionService
}

// NewSubmissionHandler creates a new submission handler
func NewSubmissionHandler(deadlineService *service.DeadlineService, submissionService *service.SubmissionService) *SubmissionHandler {
	return &SubmissionHandler{
		deadlineService:   deadlineService,
		submissionService: submissionService,
	}
}

// ListSubmissions lists submissions visible to the organization
// @Summary List submissions
// @Description The reviewing office sees every submission; councils also see appeals addressed to them
// @Tags Submissions
// @Produce json
// @Security BearerAuth
// @Param type query string false "Submission type"
// @Param event_id query int false "Event ID"
// @Success 200 {array} models.Submission
// @Failure 400 {object} map[string]string "Invalid parameters"
// @Router /submissions [get]
func (h *SubmissionHandler) ListSubmissions(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	filter := models.SubmissionFilter{Type: models.SubmissionType(r.URL.Query().Get("type"))}
	if raw := r.URL.Query().Get("event_id"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, ErrMsgInvalidEventID)
			return
		}
		filter.EventID = &id
	}

	submissions, err := h.submissionService.List(r.Context(), viewer, filter)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, submissions)
}

// SubmitReport uploads an accomplishment or liquidation report
// @Summary Submit report
// @Tags Submissions
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param event_id formData int true "Event ID"
// @Param report_kind formData string true "accomplishment or liquidation"
// @Param activity_venue formData string false "Venue"
// @Param file formData file true "Report document"
// @Success 201 {object} models.Submission
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Not the event's target"
// @Failure 503 {object} map[string]string "Document storage unavailable"
// @Router /submissions [post]
func (h *SubmissionHandler) SubmitReport(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	upload, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer upload.Close()

	submission, err := h.submissionService.SubmitReport(r.Context(), viewer, service.ReportInput{
		EventID:  upload.eventID,
		Kind:     upload.kind,
		Venue:    upload.venue,
		FileName: upload.fileName,
		File:     upload.file,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, submission)
}

// ReviewSubmission sets the status of a submission
// @Summary Review submission
// @Description Mark a report Submitted, Approved or For Revision (reviewing office only)
// @Tags Submissions
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body service.ReviewInput true "Decision"
// @Success 200 {object} models.Submission
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Reviewing office only"
// @Failure 404 {object} map[string]string "Submission not found"
// @Router /submissions/status [post]
func (h *SubmissionHandler) ReviewSubmission(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	var input service.ReviewInput
	if !decodeJSON(w, r, &input) {
		return
	}

	submission, err := h.submissionService.ReviewSubmission(r.Context(), viewer, input, requestMeta(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, submission)
}
