package handlers

import (
	"net/http"

	"osld-portal/internal/deadline"
	"osld-portal/internal/models"
	"osld-portal/internal/service"
)

// OrganizationHandler describes the acting organization
type OrganizationHandler struct {
	deadlineService *service.DeadlineService
}

// NewOrganizationHandler creates a new organization handler
func NewOrganizationHandler(deadlineService *service.DeadlineService) *OrganizationHandler {
	return &OrganizationHandler{deadlineService: deadlineService}
}

// ViewerResponse is the acting organization and its role
type ViewerResponse struct {
	Organization    models.Organization `json:"organization"`
	Role            deadline.Role       `json:"role"`
	Overseen        []string            `json:"overseen"`
	ReviewingOffice string              `json:"reviewing_office"`
}

// Me returns the organization behind the token
// @Summary Current organization
// @Tags Organizations
// @Produce json
// @Security BearerAuth
// @Success 200 {object} ViewerResponse
// @Failure 401 {object} map[string]string "Unauthorized"
// @Router /me [get]
func (h *OrganizationHandler) Me(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	respondWithJSON(w, http.StatusOK, ViewerResponse{
		Organization:    viewer.Organization,
		Role:            viewer.Role,
		Overseen:        viewer.Overseen,
		ReviewingOffice: h.deadlineService.ReviewingOffice(),
	})
}
