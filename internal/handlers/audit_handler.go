package handlers

import (
	"net/http"
	"strconv"

	"osld-portal/internal/models"
	"osld-portal/internal/service"
)

// AuditHandler handles audit log requests
type AuditHandler struct {
	auditService *service.AuditService
}

// NewAuditHandler creates a new audit handler
func NewAuditHandler(auditService *service.AuditService) *AuditHandler {
	return &AuditHandler{
		auditService: auditService,
	}
}

// ListAuditLogs lists audit logs with pagination (reviewing office only)
// @Summary List audit logs
// @Description Get a paginated list of audit logs, newest first (reviewing office only)
// @Tags Audit
// @Produce json
// @Security BearerAuth
// @Param page query int false "Page number" default(1)
// @Param limit query int false "Items per page" default(50)
// @Param action query string false "Action, e.g. appeal.approve"
// @Param organization query string false "Acting organization code"
// @Success 200 {array} models.AuditLog "List of audit logs"
// @Failure 401 {object} map[string]string "Unauthorized"
// @Failure 403 {object} map[string]string "Reviewing office only"
// @Router /audit-logs [get]
func (h *AuditHandler) ListAuditLogs(w http.ResponseWriter, r *http.Request) {
	page := 1
	limit := 50

	if pageStr := r.URL.Query().Get("page"); pageStr != "" {
		if p, err := strconv.Atoi(pageStr); err == nil && p > 0 {
			page = p
		}
	}

	if limitStr := r.URL.Query().Get("limit"); limitStr != "" {
		if l, err := strconv.Atoi(limitStr); err == nil && l > 0 && l <= 100 {
			limit = l
		}
	}

	logs, err := h.auditService.List(r.Context(), models.AuditLogFilter{
		OrganizationCode: r.URL.Query().Get("organization"),
		Action:           r.URL.Query().Get("action"),
		Limit:            limit,
		Offset:           (page - 1) * limit,
	})
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, logs)
}
