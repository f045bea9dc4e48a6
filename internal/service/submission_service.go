package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"path"
	"sort"
	"strings"

	"github.com/google/uuid"

	"osld-portal/internal/deadline"
	"osld-portal/internal/models"
)

// SubmissionService files post-activity reports and handles their review
type SubmissionService struct {
	deadlines        *DeadlineService
	submissionRepo   SubmissionStore
	notificationRepo NotificationStore
	documents        DocumentStore
	auditSvc         *AuditService
}

// NewSubmissionService creates a new submission service
func NewSubmissionService(
	deadlines *DeadlineService,
	submissionRepo SubmissionStore,
	notificationRepo NotificationStore,
	documents DocumentStore,
	auditSvc *AuditService,
) *SubmissionService {
	return &SubmissionService{
		deadlines:        deadlines,
		submissionRepo:   submissionRepo,
		notificationRepo: notificationRepo,
		documents:        documents,
		auditSvc:         auditSvc,
	}
}

// List returns the submissions visible to the viewer: everything for the
// reviewing office, otherwise the viewer's own filings plus those sent to it.
func (s *SubmissionService) List(ctx context.Context, viewer deadline.Viewer, filter models.SubmissionFilter) ([]models.Submission, error) {
	if viewer.Role == deadline.RoleReviewingOffice {
		subs, err := s.submissionRepo.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions: %w", err)
		}
		return subs, nil
	}

	own := filter
	own.Organization = viewer.Code()
	own.SubmittedTo = ""
	subs, err := s.submissionRepo.List(ctx, own)
	if err != nil {
		return nil, fmt.Errorf("failed to list submissions: %w", err)
	}

	if viewer.Role == deadline.RoleIntermediary {
		received := filter
		received.Organization = ""
		received.SubmittedTo = viewer.Code()
		more, err := s.submissionRepo.List(ctx, received)
		if err != nil {
			return nil, fmt.Errorf("failed to list submissions: %w", err)
		}
		subs = mergeSubmissions(subs, more)
	}

	return subs, nil
}

// mergeSubmissions joins two oldest-first lists without duplicates
func mergeSubmissions(a, b []models.Submission) []models.Submission {
	seen := make(map[uint]bool, len(a))
	for _, sub := range a {
		seen[sub.ID] = true
	}
	for _, sub := range b {
		if !seen[sub.ID] {
			a = append(a, sub)
		}
	}
	sort.SliceStable(a, func(i, j int) bool {
		if !a[i].SubmittedAt.Equal(a[j].SubmittedAt) {
			return a[i].SubmittedAt.Before(a[j].SubmittedAt)
		}
		return a[i].ID < a[j].ID
	})
	return a
}

// ReportInput is an accomplishment or liquidation report upload
type ReportInput struct {
	EventID  uint              `json:"event_id" validate:"required"`
	Kind     models.ReportKind `json:"report_kind" validate:"required,oneof=accomplishment liquidation"`
	Venue    string            `json:"activity_venue" validate:"max=255"`
	FileName string            `json:"file_name" validate:"notblank"`
	File     io.Reader         `json:"-"`
}

// SubmitReport files a report for one of the viewer's own deadlines. Filing
// again after a revision request is allowed.
func (s *SubmissionService) SubmitReport(ctx context.Context, actor deadline.Viewer, input ReportInput) (*models.Submission, error) {
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
	if s.documents == nil {
		return nil, ErrStorageUnavailable
	}

	objectName := path.Join("reports", actor.Code(), fmt.Sprint(event.ID), uuid.NewString())
	stored, err := s.documents.Upload(ctx, input.File, objectName)
	if err != nil {
		return nil, fmt.Errorf("failed to upload report: %w", err)
	}

	kind := input.Kind
	submission := &models.Submission{
		Organization:  actor.Code(),
		Type:          kind.SubmissionType(),
		ActivityTitle: event.Title,
		ActivityDate:  event.EndDate,
		ActivityVenue: strings.TrimSpace(input.Venue),
		FileURL:       stored.URL,
		FileObjectID:  stored.ObjectID,
		Status:        models.StatusPending,
		SubmittedTo:   s.deadlines.ReviewingOffice(),
		EventID:       &event.ID,
		ReportKind:    &kind,
	}
	if err := s.submissionRepo.Create(ctx, submission); err != nil {
		if delErr := s.documents.Delete(context.WithoutCancel(ctx), stored.ObjectID); delErr != nil {
			slog.Error("Failed to delete orphaned report", "object_id", stored.ObjectID, "error", delErr)
		}
		return nil, fmt.Errorf("failed to create submission: %w", err)
	}

	slog.Info("Report submitted", "submission_id", submission.ID, "organization", actor.Code(), "event_id", event.ID, "report_kind", kind)
	return submission, nil
}

// ReviewInput is the reviewing office's status decision on a submission
type ReviewInput struct {
	SubmissionID uint                    `json:"submission_id" validate:"required"`
	Status       models.SubmissionStatus `json:"status" validate:"required,oneof=Submitted Approved 'For Revision'"`
	Reason       string                  `json:"reason" validate:"max=2000"`
}

// ReviewSubmission changes the status of a submission. Letters of appeal
// are approved through ApproveAppealAndOverride so the deadline is moved.
func (s *SubmissionService) ReviewSubmission(ctx context.Context, actor deadline.Viewer, input ReviewInput, meta RequestMeta) (*models.Submission, error) {
	if actor.Role != deadline.RoleReviewingOffice {
		return nil, ErrPermissionDenied
	}
	if err := validate(input); err != nil {
		return nil, err
	}

	reason := strings.TrimSpace(input.Reason)
	if input.Status == models.StatusForRevision && reason == "" {
		return nil, invalid("reason", "reason is required when requesting a revision")
	}

	submission, err := s.submissionRepo.GetByID(ctx, input.SubmissionID)
	if err != nil {
		return nil, fmt.Errorf("failed to get submission: %w", err)
	}
	if submission == nil {
		return nil, ErrNotFound
	}
	if submission.Type == models.SubmissionLetterOfAppeal && input.Status == models.StatusApproved {
		return nil, invalid("status", "approve letters of appeal with a new deadline")
	}

	var reasonPtr *string
	if input.Status == models.StatusForRevision {
		reasonPtr = &reason
	}
	if err := s.submissionRepo.UpdateStatus(ctx, submission.ID, input.Status, reasonPtr); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to update submission status: %w", err)
	}
	submission.Status = input.Status
	submission.RevisionReason = reasonPtr

	if input.Status == models.StatusForRevision {
		notification := &models.Notification{
			EventID:     submission.EventID,
			Title:       fmt.Sprintf("%s Needs Revision", submission.Type),
			Description: fmt.Sprintf("Your %s for %s was returned for revision: %s", submission.Type, submission.ActivityTitle, reason),
			CreatedBy:   actor.Code(),
			TargetOrg:   submission.Organization,
		}
		if err := s.notificationRepo.Create(ctx, notification); err != nil {
			return nil, fmt.Errorf("failed to notify organization: %w", err)
		}
	}

	orgCode := actor.Code()
	s.auditSvc.Log(ctx, &models.AuditLog{
		AccountID:        &meta.AccountID,
		OrganizationCode: &orgCode,
		Action:           "submission.review",
		Resource:         fmt.Sprintf("submission:%d", submission.ID),
		Details:          fmt.Sprintf("status=%s", input.Status),
		IPAddress:        meta.IPAddress,
		UserAgent:        meta.UserAgent,
	})

	return submission, nil
}
