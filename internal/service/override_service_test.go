package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"osld-portal/internal/models"
)

func fileAppeal(t *testing.T, h *harness, org string, event *models.Event, kind models.ReportKind) *models.Submission {
	t.Helper()
	sub, err := h.notifierSvc.SubmitAppeal(context.Background(), h.viewer(t, org), AppealInput{
		EventID: event.ID, Kind: kind, FileName: "appeal.pdf", File: letter(),
	})
	if err != nil {
		t.Fatalf("SubmitAppeal failed: %v", err)
	}
	return sub
}

func TestApproveAppealAndOverride(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	liq := models.ReportLiquidation
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, true)
	sub := fileAppeal(t, h, "CSC", event, liq)
	h.mailer.sent = nil

	result, err := h.overrideSvc.ApproveAppealAndOverride(ctx, h.viewer(t, "OSLD"),
		ApproveAppealInput{SubmissionID: sub.ID, NewDeadline: time.Date(2024, 6, 21, 15, 30, 0, 0, time.UTC)},
		RequestMeta{AccountID: 7, IPAddress: "10.0.0.1"})
	if err != nil {
		t.Fatalf("ApproveAppealAndOverride failed: %v", err)
	}

	if result.Submission.Status != models.StatusApproved {
		t.Errorf("expected the appeal to be approved, got %s", result.Submission.Status)
	}
	stored, _ := h.submissions.GetByID(ctx, sub.ID)
	if stored.Status != models.StatusApproved {
		t.Errorf("expected the stored appeal to be approved, got %s", stored.Status)
	}

	saved, _ := h.events.GetByID(ctx, event.ID)
	if saved.LiquidationDeadlineOverride == nil || !saved.LiquidationDeadlineOverride.Equal(day(2024, 6, 21)) {
		t.Errorf("expected liquidation override 2024-06-21, got %v", saved.LiquidationDeadlineOverride)
	}
	if saved.AccomplishmentDeadlineOverride != nil {
		t.Errorf("accomplishment deadline must stay untouched, got %v", saved.AccomplishmentDeadlineOverride)
	}
	if h.events.overrideWrites != 1 {
		t.Errorf("expected one override write, got %d", h.events.overrideWrites)
	}

	if len(h.audit.rows) != 1 || h.audit.rows[0].Action != "appeal.approve" || *h.audit.rows[0].AccountID != 7 {
		t.Errorf("expected one appeal.approve audit entry, got %+v", h.audit.rows)
	}

	last := h.notifications.rows[len(h.notifications.rows)-1]
	if last.TargetOrg != "CSC" || last.Title != "Letter of Appeal Approved" {
		t.Errorf("expected the filer to be notified, got %+v", last)
	}

	if len(h.mailer.sent) != 1 || h.mailer.sent[0].kind != "approved" || h.mailer.sent[0].to != "csc@school.edu" {
		t.Errorf("expected an approval email to csc@school.edu, got %+v", h.mailer.sent)
	}
}

func TestApproveAppealLastWriterWins(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, false)
	sub := fileAppeal(t, h, "CSC", event, models.ReportAccomplishment)
	office := h.viewer(t, "OSLD")

	for _, d := range []time.Time{day(2024, 6, 21), day(2024, 6, 5)} {
		if _, err := h.overrideSvc.ApproveAppealAndOverride(ctx, office, ApproveAppealInput{SubmissionID: sub.ID, NewDeadline: d}, RequestMeta{}); err != nil {
			t.Fatalf("ApproveAppealAndOverride failed: %v", err)
		}
	}

	if h.events.overrideWrites != 2 {
		t.Errorf("expected one override write per approval, got %d", h.events.overrideWrites)
	}
	res := h.state(t, "CSC", event.ID, models.ReportAccomplishment)
	if !res.Occurrence.DueDate.Equal(day(2024, 6, 5)) {
		t.Errorf("expected the later write to win even though it is in the past, got %s", res.Occurrence.DueDate.Format(time.DateOnly))
	}
}

func TestApproveLegacyAppealUsesTitleKeyword(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, true)
	h.submissions.rows = append(h.submissions.rows, models.Submission{
		ID: 9, Organization: "CSC", Type: models.SubmissionLetterOfAppeal,
		ActivityTitle: "Letter of Appeal (LIQUIDATION)", EventID: &event.ID, Status: models.StatusPending, SubmittedTo: "OSLD",
	})

	result, err := h.overrideSvc.ApproveAppealAndOverride(ctx, h.viewer(t, "OSLD"),
		ApproveAppealInput{SubmissionID: 9, NewDeadline: day(2024, 6, 28)}, RequestMeta{})
	if err != nil {
		t.Fatalf("ApproveAppealAndOverride failed: %v", err)
	}
	if result.Event.LiquidationDeadlineOverride == nil || result.Event.AccomplishmentDeadlineOverride != nil {
		t.Errorf("expected only the liquidation override to be set, got %+v", result.Event)
	}
}

func TestApproveAppealRejections(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 17, 9, 0, 0, 0, time.UTC))
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, true)
	appealSub := fileAppeal(t, h, "CSC", event, models.ReportAccomplishment)
	h.submissions.rows = append(h.submissions.rows,
		models.Submission{ID: 20, Organization: "CSC", Type: models.SubmissionAccomplishmentReport, EventID: &event.ID, Status: models.StatusPending},
		models.Submission{ID: 21, Organization: "CSC", Type: models.SubmissionLetterOfAppeal, ActivityTitle: "Please extend", EventID: &event.ID, Status: models.StatusPending},
	)

	tests := []struct {
		name    string
		actor   string
		input   ApproveAppealInput
		wantErr error
		invalid bool
	}{
		{name: "organization cannot approve", actor: "CSC", input: ApproveAppealInput{SubmissionID: appealSub.ID, NewDeadline: day(2024, 6, 21)}, wantErr: ErrPermissionDenied},
		{name: "intermediary cannot approve", actor: "USG", input: ApproveAppealInput{SubmissionID: appealSub.ID, NewDeadline: day(2024, 6, 21)}, wantErr: ErrPermissionDenied},
		{name: "missing deadline", actor: "OSLD", input: ApproveAppealInput{SubmissionID: appealSub.ID}, invalid: true},
		{name: "unknown submission", actor: "OSLD", input: ApproveAppealInput{SubmissionID: 404, NewDeadline: day(2024, 6, 21)}, wantErr: ErrNotFound},
		{name: "not an appeal", actor: "OSLD", input: ApproveAppealInput{SubmissionID: 20, NewDeadline: day(2024, 6, 21)}, invalid: true},
		{name: "appeal without report kind", actor: "OSLD", input: ApproveAppealInput{SubmissionID: 21, NewDeadline: day(2024, 6, 21)}, invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.overrideSvc.ApproveAppealAndOverride(context.Background(), h.viewer(t, tt.actor), tt.input, RequestMeta{})
			if tt.invalid && !isValidation(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if h.events.overrideWrites != 0 {
		t.Errorf("rejected approvals must not write overrides, got %d", h.events.overrideWrites)
	}
}

func TestApplyOverrideUnknownEvent(t *testing.T) {
	h := newHarness(t, time.Now())
	_, err := h.overrideSvc.ApplyOverride(context.Background(), h.viewer(t, "OSLD"), 77, models.ReportLiquidation, day(2024, 6, 21))
	if !errors.Is(err, ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
