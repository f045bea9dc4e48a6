package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"osld-portal/internal/calendar"
	"osld-portal/internal/deadline"
	"osld-portal/internal/email"
	"osld-portal/internal/models"
)

// OverrideService approves letters of appeal and writes deadline overrides
type OverrideService struct {
	eventRepo        EventStore
	submissionRepo   SubmissionStore
	notificationRepo NotificationStore
	orgRepo          OrganizationStore
	auditSvc         *AuditService
	mailer           Mailer
}

// NewOverrideService creates a new override service
func NewOverrideService(
	eventRepo EventStore,
	submissionRepo SubmissionStore,
	notificationRepo NotificationStore,
	orgRepo OrganizationStore,
	auditSvc *AuditService,
	mailer Mailer,
) *OverrideService {
	return &OverrideService{
		eventRepo:        eventRepo,
		submissionRepo:   submissionRepo,
		notificationRepo: notificationRepo,
		orgRepo:          orgRepo,
		auditSvc:         auditSvc,
		mailer:           mailer,
	}
}

// RequestMeta identifies who triggered a change, for the audit log
type RequestMeta struct {
	AccountID uint
	IPAddress string
	UserAgent string
}

// ApplyOverride replaces the deadline of one report kind of an event. The
// date is stored as given and used for every viewer from then on.
func (s *OverrideService) ApplyOverride(ctx context.Context, actor deadline.Viewer, eventID uint, kind models.ReportKind, date time.Time) (*models.Event, error) {
	if actor.Role != deadline.RoleReviewingOffice {
		return nil, ErrPermissionDenied
	}
	if !kind.Valid() {
		return nil, invalid("report_kind", "report_kind must be accomplishment or liquidation")
	}
	if date.IsZero() {
		return nil, invalid("new_deadline", "new_deadline is required")
	}

	event, err := s.eventRepo.GetByID(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("failed to get event: %w", err)
	}
	if event == nil {
		return nil, ErrNotFound
	}

	day := calendar.DateOf(date)
	if err := s.eventRepo.SetDeadlineOverride(ctx, event.ID, kind, day); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to set deadline override: %w", err)
	}

	switch kind {
	case models.ReportAccomplishment:
		event.AccomplishmentDeadlineOverride = &day
	case models.ReportLiquidation:
		event.LiquidationDeadlineOverride = &day
	}
	return event, nil
}

// ApproveAppealInput is the reviewing office's decision on an appeal
type ApproveAppealInput struct {
	SubmissionID uint      `json:"submission_id" validate:"required"`
	NewDeadline  time.Time `json:"new_deadline" validate:"required"`
}

// ApprovalResult is the approved appeal and its event after the override
type ApprovalResult struct {
	Submission *models.Submission `json:"submission"`
	Event      *models.Event      `json:"event"`
}

// ApproveAppealAndOverride approves a letter of appeal and sets the override
// for its (event, report kind). The override is written exactly once per call.
func (s *OverrideService) ApproveAppealAndOverride(ctx context.Context, actor deadline.Viewer, input ApproveAppealInput, meta RequestMeta) (*ApprovalResult, error) {
	if actor.Role != deadline.RoleReviewingOffice {
		return nil, ErrPermissionDenied
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	submission, err := s.submissionRepo.GetByID(ctx, input.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return nil, ErrNotFound
	}
	if submission.Type != models.SubmissionLetterOfAppeal || submission.EventID == nil {
		return nil, invalid("submission_id", "submission is not a letter of appeal for an event")
	}

	kind, ok := appealKind(submission)
	if !ok {
		return nil, invalid("submission_id", "the appeal does not name a report kind")
	}

	event, err := s.ApplyOverride(ctx, actor, *submission.EventID, kind, input.NewDeadline)
	if err != nil {
		return nil, err
	}

	if err := s.submissionRepo.UpdateStatus(ctx, submission.ID, models.StatusApproved, nil); err != nil {
		return nil, fmt.Errorf("failed to approve appeal: %w", err)
	}
	submission.Status = models.StatusApproved
	submission.RevisionReason = nil

	due := *event.Override(kind)
	orgCode := actor.Code()
	s.auditSvc.Log(ctx, &models.AuditLog{
		AccountID:        &meta.AccountID,
		OrganizationCode: &orgCode,
		Action:           "appeal.approve",
		Resource:         fmt.Sprintf("submission:%d", submission.ID),
		Details:          fmt.Sprintf("event=%d report_kind=%s deadline=%s", event.ID, kind, due.Format(time.DateOnly)),
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	})

	notification := &models.Notification{
		EventID:     &event.ID,
		Title:       "Letter of Appeal Approved",
		Description: fmt.Sprintf("Your appeal for the %s of %s was approved. The new deadline is %s.", kind.Label(), event.Title, due.Format("January 2, 2006")),
		CreatedBy:   orgCode,
		TargetOrg:   submission.Organization,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to notify appeal filer: %w", err)
	}

	slog.Info("Letter of appeal approved",
		"submission_id", submission.ID, "event_id", event.ID, "report_kind", kind, "deadline", due.Format(time.DateOnly))

	s.emailFiler(ctx, submission.Organization, email.DeadlineMail{
		Organization: submission.Organization,
		ReportLabel:  kind.Label(),
		EventTitle:   event.Title,
		DueDate:      due,
	})

	return &ApprovalResult{Submission: submission, Event: event}, nil
}

// appealKind reads the report kind of an appeal, falling back to the title
// keyword for rows filed before the kind was recorded
func appealKind(s *models.Submission) (models.ReportKind, bool) {
	if s.ReportKind != nil {
		return *s.ReportKind, s.ReportKind.Valid()
	}
	title := strings.ToLower(s.ActivityTitle)
	for _, kind := range models.ReportKinds {
		if strings.Contains(title, kind.Keyword()) {
			return kind, true
		}
	}
	return "", false
}

func (s *OverrideService) emailFiler(ctx context.Context, code string, m email.DeadlineMail) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return
	}
	org, err := s.orgRepo.GetByCode(ctx, code)
	if err != nil || org == nil || org.ContactEmail == "" {
		return
	}
	if err := s.mailer.SendAppealApproved(org.ContactEmail, m); err != nil {
		slog.Error("Failed to send approval email", "recipient", code, "error", err)
	}
}
