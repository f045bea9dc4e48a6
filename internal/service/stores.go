package service

import (
	"context"
	"io"
	"time"

	"osld-portal/internal/email"
	"osld-portal/internal/models"
	"osld-portal/internal/storage"
)

// The interfaces below are satisfied by the repository package, the
// Cloudinary document store and the SMTP email service.

type EventStore interface {
	Create(ctx context.Context, e *models.Event) error
	GetByID(ctx context.Context, id uint) (*models.Event, error)
	List(ctx context.Context, filter models.EventFilter) ([]models.Event, error)
	Update(ctx context.Context, e *models.Event) error
	SetDeadlineOverride(ctx context.Context, id uint, kind models.ReportKind, date time.Time) error
	Delete(ctx context.Context, id uint) error
}

type SubmissionStore interface {
	Create(ctx context.Context, s *models.Submission) error
	GetByID(ctx context.Context, id uint) (*models.Submission, error)
	List(ctx context.Context, filter models.SubmissionFilter) ([]models.Submission, error)
	UpdateStatus(ctx context.Context, id uint, status models.SubmissionStatus, reason *string) error
}

type NotificationStore interface {
	Create(ctx context.Context, n *models.Notification) error
	ListForOrganization(ctx context.Context, reader string, targets []string) ([]models.NotificationWithReadStatus, error)
	GetByID(ctx context.Context, id uint) (*models.Notification, error)
	MarkRead(ctx context.Context, notificationID uint, reader string) error
	ExistsSince(ctx context.Context, eventID uint, kind models.ReportKind, targetOrg string, since time.Time) (bool, error)
}

type OrganizationStore interface {
	GetByCode(ctx context.Context, code string) (*models.Organization, error)
	List(ctx context.Context) ([]models.Organization, error)
	ListChildren(ctx context.Context, parent string) ([]models.Organization, error)
}

type AccountStore interface {
	GetByEmail(ctx context.Context, email string) (*models.Account, error)
	UpdateLastLogin(ctx context.Context, id uint) error
}

type AuditStore interface {
	Create(ctx context.Context, log *models.AuditLog) error
	List(ctx context.Context, filter models.AuditLogFilter) ([]models.AuditLog, error)
}

// DocumentStore keeps uploaded files
type DocumentStore interface {
	Upload(ctx context.Context, r io.Reader, name string) (*storage.StoredFile, error)
	Delete(ctx context.Context, objectID string) error
}

// Mailer sends the portal's deadline emails
type Mailer interface {
	Enabled() bool
	SendDeadlineReminder(to string, m email.DeadlineMail) error
	SendAppealSubmitted(to string, m email.DeadlineMail) error
	SendAppealApproved(to string, m email.DeadlineMail) error
}
