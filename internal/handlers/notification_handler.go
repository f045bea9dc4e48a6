package handlers

import (
	"net/http"

	"osld-portal/internal/service"
)

// NotificationHandler serves the organization's inbox
type NotificationHandler struct {
	deadlineService     *service.DeadlineService
	notificationService *service.NotificationService
}

// NewNotificationHandler creates a new notification handler
func NewNotificationHandler(deadlineService *service.DeadlineService, notificationService *service.NotificationService) *NotificationHandler {
	return &NotificationHandler{
		deadlineService:     deadlineService,
		notificationService: notificationService,
	}
}

// ListNotifications lists notifications addressed to the organization
// @Summary List notifications
// @Tags Notifications
// @Produce json
// @Security BearerAuth
// @Success 200 {array} models.NotificationWithReadStatus
// @Router /notifications [get]
func (h *NotificationHandler) ListNotifications(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	notifications, err := h.notificationService.List(r.Context(), viewer)
	if err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, notifications)
}

// MarkRead marks a notification as read for the organization
// @Summary Mark notification read
// @Tags Notifications
// @Accept json
// @Produce json
// @Security BearerAuth
// @Param request body IDRequest true "Notification ID"
// @Success 200 {object} map[string]string
// @Failure 404 {object} map[string]string "Notification not found"
// @Router /notifications/read [post]
func (h *NotificationHandler) MarkRead(w http.ResponseWriter, r *http.Request) {
	viewer, ok := currentViewer(w, r, h.deadlineService)
	if !ok {
		return
	}

	var req IDRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := h.notificationService.MarkRead(r.Context(), viewer, req.ID); err != nil {
		respondWithServiceError(w, r, err)
		return
	}

	respondWithJSON(w, http.StatusOK, map[string]string{"message": "Notification marked as read"})
}
