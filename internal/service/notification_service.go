package service

import (
	"context"
	"fmt"
	"slices"

	"osld-portal/internal/deadline"
	"osld-portal/internal/models"
)

// NotificationService lists notifications and records read receipts
type NotificationService struct {
	notificationRepo NotificationStore
}

// NewNotificationService creates a new notification service
func NewNotificationService(notificationRepo NotificationStore) *NotificationService {
	return &NotificationService{notificationRepo: notificationRepo}
}

// List returns notifications addressed to the viewer, newest first
func (s *NotificationService) List(ctx context.Context, viewer deadline.Viewer) ([]models.NotificationWithReadStatus, error) {
	notifications, err := s.notificationRepo.ListForOrganization(ctx, viewer.Code(), deadline.NotificationTargets(viewer.Organization))
	if err != nil {
		return nil, fmt.Errorf("failed to list notifications: %w", err)
	}
	return notifications, nil
}

// MarkRead records that the viewer has read a notification. Marking an
// already read notification is a no-op.
func (s *NotificationService) MarkRead(ctx context.Context, viewer deadline.Viewer, id uint) error {
	n, err := s.notificationRepo.GetByID(ctx, id)
	if err != nil {
		return fmt.Errorf("failed to get notification: %w", err)
	}
	if n == nil || !slices.Contains(deadline.NotificationTargets(viewer.Organization), n.TargetOrg) {
		return ErrNotFound
	}

	if err := s.notificationRepo.MarkRead(ctx, id, viewer.Code()); err != nil {
		return fmt.Errorf("failed to mark notification as read: %w", err)
	}
	return nil
}
