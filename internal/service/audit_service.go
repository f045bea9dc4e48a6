package service

import (
	"context"
	"log/slog"

	"osld-portal/internal/models"
)

// AuditService handles audit logging
type AuditService struct {
	auditRepo AuditStore
}

// NewAuditService creates a new audit service
func NewAuditService(auditRepo AuditStore) *AuditService {
	return &AuditService{
		auditRepo: auditRepo,
	}
}

// Log creates an audit log entry. A failed write is logged and otherwise
// ignored so it never fails the main operation.
func (s *AuditService) Log(ctx context.Context, entry *models.AuditLog) {
	if s == nil {
		return
	}
	if err := s.auditRepo.Create(ctx, entry); err != nil {
		slog.Error("Failed to write audit log", "action", entry.Action, "resource", entry.Resource, "error", err)
	}
}

// List returns audit entries for the reviewing office
func (s *AuditService) List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error) {
	return s.auditRepo.List(ctx, filter)
}
