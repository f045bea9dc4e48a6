package handlers

import (
	"mime/multipart"
	"net/http"
	"time"

	"osld-portal/internal/models"
	"osld-portal/internal/service"
)

// AppealHandler handles letters of appeal
type AppealHandler struct {
	deadlineService *service.DeadlineService
	notifierService *service.NotifierService
	overrideService *service.OverrideService
}

// NewAppealHandler creates a new appeal handler
func NewAppealHandler(deadlineService *service.DeadlineService, notifierService *service.NotifierService, overrideService *service.OverrideService) *AppealHandler {
	return &AppealHandler{
		deadlineService: deadlineService,
		notifierService: notifierService,
		overrideService: overrideService,
	}
}

// SubmitAppeal uploads a letter of appeal
// @Summary Submit letter of appeal
// @Description Upload a letter of appeal for one of the organization's own report deadlines
// @Tags Appeals
// @Accept multipart/form-data
// @Produce json
// @Security BearerAuth
// @Param event_id formData int true "Event ID"
// @Param report_kind formData string true "accomplishment or liquidation"
// @Param file formData file true "Appeal letter"
// @Success 201 {object} models.Submission
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Not the event's target"
// @Failure 409 {object} map[string]string "Appeal already filed"
// @Failure 503 {object} map[string]string "Document storage unavailable"
// @Router /appeals [post]
func (h *AppealHandler) SubmitAppeal(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	upload, ok := readUpload(w, r)
	if !ok {
		return
	}
	defer upload.Close()

	submission, err := h.notifierService.SubmitAppeal(r.Context(), viewer, service.AppealInput{
		EventID:  upload.eventID,
		Kind:     upload.kind,
		FileName: upload.fileName,
		File:     upload.file,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusCreated, submission)
}

// ApproveAppealRequest is the reviewing office's approval of an appeal
type ApproveAppealRequest struct {
	SubmissionID uint   `json:"submission_id"`
	NewDeadline  string `json:"new_deadline"` // YYYY-MM-DD
}

// ApproveAppeal approves an appeal and overrides its deadline
// @Summary Approve appeal
// @Description Approve a letter of appeal and set the new deadline of its report kind (reviewing office only)
// @Tags Appeals
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body ApproveAppealRequest true "Approval"
// @Success 200 {object} service.ApprovalResult
// @Failure 400 {object} map[string]string "Invalid request"
// @Failure 403 {object} map[string]string "Reviewing office only"
// @Failure 404 {object} map[string]string "Appeal not found"
// @Router /appeals/approve [post]
func (h *AppealHandler) ApproveAppeal(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	var req ApproveAppealRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	newDeadline, err := time.Parse(dateLayout, req.NewDeadline)
	if err != nil {
		respondWithError(w, http.StatusBadRequest, ErrMsgInvalidDate)
		return
	}

	result, err := h.overrideService.ApproveAppealAndOverride(r.Context(), viewer, service.ApproveAppealInput{
		SubmissionID: req.SubmissionID,
		NewDeadline:  newDeadline,
	}, requestMeta(r))
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, result)
}

// upload is a multipart document upload for one deadline
type upload struct {
	eventID  uint
	kind     models.ReportKind
	fileName string
	venue    string
	file     multipart.File
}

func (u *upload) Close() {
	if u.file != nil {
		_ = u.file.Close()
	}
}

// readUpload parses event_id, report_kind and file from a multipart form.
// Missing values are left empty so the service reports them as field errors.
func readUpload(w http.ResponseWriter, r *http.Request) (*upload, bool) {
	r.Body = http.MaxBytesReader(w, r.Body, maxUploadBytes+1<<20)
	if err := r.ParseMultipartForm(maxUploadBytes); err != nil {
		respondWithError(w, http.StatusBadRequest, "Invalid multipart form")
		return nil, false
	}

	u := &upload{
		kind:  models.ReportKind(r.FormValue("report_kind")),
		venue: r.FormValue("activity_venue"),
	}

	if raw := r.FormValue("event_id"); raw != "" {
		id, ok := parseID(raw)
		if !ok {
			respondWithError(w, http.StatusBadRequest, ErrMsgInvalidEventID)
			return nil, false
		}
		u.eventID = id
	}

	if file, header, err := r.FormFile("file"); err == nil {
		u.file = file
		u.fileName = header.Filename
	}
	return u, true
}
