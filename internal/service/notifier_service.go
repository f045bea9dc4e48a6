package service

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"path"
	"time"

	"github.com/google/uuid"

	"osld-portal/internal/appeal"
	"osld-portal/internal/deadline"
	"osld-portal/internal/email"
	"osld-portal/internal/models"
)

// NotifierService sends deadline reminders and files letters of appeal
type NotifierService struct {
	deadlines        *DeadlineService
	submissionRepo   SubmissionStore
	notificationRepo NotificationStore
	orgRepo          OrganizationStore
	documents        DocumentStore
	mailer           Mailer
}

// NewNotifierService creates a new notifier service. documents may be nil
// when no object store is configured; appeals are then rejected.
func NewNotifierService(
	deadlines *DeadlineService,
	submissionRepo SubmissionStore,
	notificationRepo NotificationStore,
	orgRepo OrganizationStore,
	documents DocumentStore,
	mailer Mailer,
) *NotifierService {
	return &NotifierService{
		deadlines:        deadlines,
		submissionRepo:   submissionRepo,
		notificationRepo: notificationRepo,
		orgRepo:          orgRepo,
		documents:        documents,
		mailer:           mailer,
	}
}

// ReminderNotification builds the due-today reminder for an occurrence
func ReminderNotification(occ deadline.Occurrence, sender, recipient string) *models.Notification {
	eventID := occ.EventID
	kind := occ.Kind
	label := kind.Label()
	return &models.Notification{
		EventID:     &eventID,
		ReportKind:  &kind,
		Title:       fmt.Sprintf("%s Due Today", label),
		Description: fmt.Sprintf("The %s for %s is due today. Please submit it to avoid a hold on your organization.", label, occ.EventTitle),
		CreatedBy:   sender,
		TargetOrg:   recipient,
	}
}

// NotifyOrganization sends a due-today reminder for one occurrence. An empty
// recipient means the event target. Every call inserts a new notification;
// duplicates are only reported back through the resolver's AlreadyNotified.
func (s *NotifierService) NotifyOrganization(ctx context.Context, actor deadline.Viewer, eventID uint, kind models.ReportKind, recipient string) (*models.Notification, error) {
	_, occ, err := s.deadlines.find(ctx, actor, eventID, kind)
	if err != nil {
		return nil, err
	}

	if !actor.CanNotify(occ.Relation) {
		return nil, ErrPermissionDenied
	}

	if recipient == "" {
		recipient = occ.Target
	}
	if recipient != occ.Target {
		return nil, invalid("recipient", "recipient must be the event's target organization")
	}

	notification := ReminderNotification(occ, actor.Code(), recipient)
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to create notification: %w", err)
	}

	slog.Info("Deadline reminder sent",
		"event_id", occ.EventID, "report_kind", occ.Kind, "recipient", recipient, "sender", actor.Code())
	return notification, nil
}

// AppealInput is a letter of appeal upload
type AppealInput struct {
	EventID  uint              `json:"event_id" validate:"required"`
	Kind     models.ReportKind `json:"report_kind" validate:"required,oneof=accomplishment liquidation"`
	FileName string            `json:"file_name" validate:"notblank"`
	File     io.Reader         `json:"-"`
}

// SubmitAppeal uploads a letter of appeal for one of the actor's own
// deadlines and records it as a pending submission
func (s *NotifierService) SubmitAppeal(ctx context.Context, actor deadline.Viewer, input AppealInput) (*models.Submission, error) {
	if err := validate(input); err != nil {
		return nil, err
	}
	if input.File == nil {
		return nil, invalid("file", "file is required")
	}

	event, occ, err := s.deadlines.find(ctx, actor, input.EventID, input.Kind)
	if err != nil {
		return nil, err
	}
	if occ.Relation != deadline.RelationTarget {
		return nil, ErrPermissionDenied
	}

	existing, err := s.submissionRepo.List(ctx, models.SubmissionFilter{
		Organization: actor.Code(),
		Type:         models.SubmissionLetterOfAppeal,
		EventID:      &event.ID,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list appeals: %w", err)
	}
	for i := range existing {
		if existing[i].IsFor(event.ID, input.Kind) && !existing[i].Returned() {
			return nil, ErrAppealExists
		}
	}

	if s.documents == nil {
		return nil, ErrStorageUnavailable
	}

	objectName := path.Join("appeals", actor.Code(), fmt.Sprint(event.ID), uuid.NewString())
	stored, err := s.documents.Upload(ctx, input.File, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to upload appeal letter: %w", err)
	}

	kind := input.Kind
	submission := &models.Submission{
		Organization:  actor.Code(),
		Type:          models.SubmissionLetterOfAppeal,
		ActivityTitle: fmt.Sprintf("Letter of Appeal - %s: %s", kind.Label(), event.Title),
		ActivityDate:  event.EndDate,
		FileURL:       stored.URL,
		FileObjectID:  stored.ObjectID,
		Status:        models.StatusPending,
		SubmittedTo:   s.appealRecipient(actor),
		EventID:       &event.ID,
		ReportKind:    &kind,
	}

	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		// The record never existed, so the upload must not outlive it
		if delErr := s.documents.Delete(context.WithoutCancel(ctx), stored.ObjectID); delErr != nil {
			slog.Error("Failed to delete orphaned appeal letter", "object_id", stored.ObjectID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create appeal: %w", err)
	}

	notification := &models.Notification{
		EventID:     &event.ID,
		Title:       "Letter of Appeal Submitted",
		Description: fmt.Sprintf("%s submitted a letter of appeal for the %s of %s.", actor.Code(), kind.Label(), event.Title),
		CreatedBy:   actor.Code(),
		TargetOrg:   submission.SubmittedTo,
	}
	if err := s.notificationRepo.Create(ctx, notification); err != nil {
		return nil, fmt.Errorf("failed to notify appeal recipient: %w", err)
	}

	slog.Info("Letter of appeal submitted",
		"submission_id", submission.ID, "organization", actor.Code(), "event_id", event.ID, "report_kind", kind, "submitted_to", submission.SubmittedTo)

	s.emailRecipient(ctx, submission.SubmittedTo, email.DeadlineMail{
		Organization: actor.Code(),
		ReportLabel:  kind.Label(),
		EventTitle:   event.Title,
		DueDate:      occ.DueDate,
	})

	return submission, nil
}

// appealRecipient is the overseeing organization for councils under a
// student government and the reviewing office for everyone else
func (s *NotifierService) appealRecipient(actor deadline.Viewer) string {
	if parent := actor.Organization.ParentCode; parent != nil && *parent != "" {
		return *parent
	}
	return s.deadlines.ReviewingOffice()
}

func (s *NotifierService) emailRecipient(ctx context.Context, code string, m email.DeadlineMail) {
	if s.mailer == nil || !s.mailer.Enabled() {
		return
	}
	org, err := s.orgRepo.GetByCode(ctx, code)
	if err != nil || org == nil || org.ContactEmail == "" {
		return
	}
	if err := s.mailer.SendAppealSubmitted(org.ContactEmail, m); err != nil {
		slog.Error("Failed to send appeal email", "recipient", code, "error", err)
	}
}

// SendDueReminders reminds every target organization of the deadlines due on
// the calendar day of now. Filed reports, pending appeals and organizations
// already reminded that day are skipped. It returns the number of reminders
// created.
func (s *NotifierService) SendDueReminders(ctx context.Context, now time.Time) (int, error) {
	viewers, err := s.deadlines.Viewers(ctx)
	if err != nil {
		return 0, err
	}

	y, m, d := now.Date()
	since := time.Date(y, m, d, 0, 0, 0, 0, now.Location())
	office := s.deadlines.ReviewingOffice()

	sent := 0
	for _, viewer := range viewers {
		if viewer.Role == deadline.RoleReviewingOffice {
			continue
		}

		resolutions, err := s.deadlines.ListDeadlines(ctx, viewer, nil, nil)
		if err != nil {
			return sent, err
		}

		for _, res := range resolutions {
			occ := res.Occurrence
			if occ.Relation != deadline.RelationTarget || !occ.IsDueOn(now) {
				continue
			}
			if res.State == appeal.StateDeadlineMet || res.State == appeal.StateOwnAppealPending {
				continue
			}

			reminded, err := s.notificationRepo.ExistsSince(ctx, occ.EventID, occ.Kind, viewer.Code(), since)
			if err != nil {
				return sent, fmt.Errorf("failed to check reminders: %w", err)
			}
			if reminded {
				continue
			}

			if err := s.notificationRepo.Create(ctx, ReminderNotification(occ, office, viewer.Code())); err != nil {
				return sent, fmt.Errorf("failed to create notification: %w", err)
			}
			sent++

			if s.mailer != nil && s.mailer.Enabled() && viewer.Organization.ContactEmail != "" {
				if err := s.mailer.SendDeadlineReminder(viewer.Organization.ContactEmail, email.DeadlineMail{
					Organization: viewer.Code(),
					ReportLabel:  occ.Kind.Label(),
					EventTitle:   occ.EventTitle,
					DueDate:      occ.DueDate,
				}); err != nil {
					slog.Error("Failed to send reminder email", "organization", viewer.Code(), "error", err)
				}
			}
		}
	}

	return sent, nil
}
