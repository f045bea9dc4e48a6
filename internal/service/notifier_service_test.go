package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"osld-portal/internal/appeal"
	"osld-portal/internal/models"
)

// Sending twice inserts two rows. Duplicates are surfaced through
// AlreadyNotified, not prevented.
func TestNotifyOrganizationIsNotIdempotent(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC))
	ctx := context.Background()
	acc := models.ReportAccomplishment
	event := h.addEvent(t, "Hackathon", "CSC", day(2024, 6, 7), true, false)

	before := h.state(t, "OSLD", event.ID, acc)
	if before.State != appeal.StateNotifyOthersOnBehalf || before.Recipient != "CSC" || before.AlreadyNotified {
		t.Fatalf("unexpected state before notifying: %+v", before)
	}

	for i := 0; i < 2; i++ {
		n, err := h.notifierSvc.NotifyOrganization(ctx, h.viewer(t, "OSLD"), event.ID, acc, "")
		if err != nil {
			t.Fatalf("NotifyOrganization #%d failed: %v", i+1, err)
		}
		if n.TargetOrg != "CSC" || n.CreatedBy != "OSLD" {
			t.Errorf("unexpected notification %+v", n)
		}
		if !strings.Contains(n.Title, "Accomplishment Report") || !strings.Contains(n.Description, "today") {
			t.Errorf("unexpected reminder text %q / %q", n.Title, n.Description)
		}
	}

	if got := h.notifications.reminders(event.ID, acc, "CSC"); got != 2 {
		t.Errorf("expected two reminder rows, got %d", got)
	}

	after := h.state(t, "OSLD", event.ID, acc)
	if !after.AlreadyNotified || len(after.Actions) != 0 {
		t.Errorf("expected already notified with no actions, got %+v", after)
	}

	h.now = h.now.Add(24 * time.Hour)
	if h.state(t, "OSLD", event.ID, acc).AlreadyNotified {
		t.Error("a reminder from yesterday must not count as sent today")
	}
}

func TestNotifyOrganizationAccess(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 12, 8, 0, 0, 0, time.UTC))
	liq := models.ReportLiquidation
	cscEvent := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), false, true)
	lsgEvent := h.addEvent(t, "Assembly", "LSG", day(2024, 6, 7), false, true)

	tests := []struct {
		name      string
		actor     string
		eventID   uint
		kind      models.ReportKind
		recipient string
		wantErr   error
		invalid   bool
	}{
		{name: "office notifies target", actor: "OSLD", eventID: cscEvent.ID, kind: liq},
		{name: "intermediary notifies overseen council", actor: "USG", eventID: lsgEvent.ID, kind: liq, recipient: "LSG"},
		{name: "target cannot notify itself", actor: "CSC", eventID: cscEvent.ID, kind: liq, wantErr: ErrPermissionDenied},
		{name: "unrelated organization sees nothing", actor: "JPIA", eventID: cscEvent.ID, kind: liq, wantErr: ErrNotFound},
		{name: "recipient must be the target", actor: "OSLD", eventID: cscEvent.ID, kind: liq, recipient: "JPIA", invalid: true},
		{name: "unknown kind", actor: "OSLD", eventID: cscEvent.ID, kind: "budget", invalid: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.notifierSvc.NotifyOrganization(context.Background(), h.viewer(t, tt.actor), tt.eventID, tt.kind, tt.recipient)
			switch {
			case tt.invalid:
				if !isValidation(err) {
					t.Errorf("expected a validation error, got %v", err)
				}
			case tt.wantErr != nil:
				if !errors.Is(err, tt.wantErr) {
					t.Errorf("expected %v, got %v", tt.wantErr, err)
				}
			case err != nil:
				t.Errorf("unexpected error: %v", err)
			}
		})
	}
}

func TestSubmitAppealValidation(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, true)

	tests := []struct {
		name    string
		actor   string
		input   AppealInput
		wantErr error
		invalid bool
	}{
		{name: "missing file", actor: "CSC", input: AppealInput{EventID: event.ID, Kind: models.ReportLiquidation, FileName: "a.pdf"}, invalid: true},
		{name: "missing file name", actor: "CSC", input: AppealInput{EventID: event.ID, Kind: models.ReportLiquidation, File: letter()}, invalid: true},
		{name: "unknown kind", actor: "CSC", input: AppealInput{EventID: event.ID, Kind: "budget", FileName: "a.pdf", File: letter()}, invalid: true},
		{name: "office cannot appeal", actor: "OSLD", input: AppealInput{EventID: event.ID, Kind: models.ReportLiquidation, FileName: "a.pdf", File: letter()}, wantErr: ErrPermissionDenied},
		{name: "unknown event", actor: "CSC", input: AppealInput{EventID: 999, Kind: models.ReportLiquidation, FileName: "a.pdf", File: letter()}, wantErr: ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := h.notifierSvc.SubmitAppeal(context.Background(), h.viewer(t, tt.actor), tt.input)
			if tt.invalid && !isValidation(err) {
				t.Errorf("expected a validation error, got %v", err)
			}
			if tt.wantErr != nil && !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}

	if len(h.documents.files) != 0 {
		t.Errorf("rejected appeals must not upload anything, got %d files", len(h.documents.files))
	}
}

func TestSubmitAppealRejectsDuplicates(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, true)

	// filed before report kinds were recorded
	h.submissions.rows = append(h.submissions.rows, models.Submission{
		ID: 50, Organization: "CSC", Type: models.SubmissionLetterOfAppeal,
		ActivityTitle: "Appeal for Liquidation", EventID: &event.ID, Status: models.StatusPending, SubmittedTo: "OSLD",
	})
	h.submissions.lastIDSet = 50

	csc := h.viewer(t, "CSC")
	_, err := h.notifierSvc.SubmitAppeal(ctx, csc, AppealInput{EventID: event.ID, Kind: models.ReportLiquidation, FileName: "a.pdf", File: letter()})
	if !errors.Is(err, ErrAppealExists) {
		t.Errorf("expected ErrAppealExists for the legacy liquidation appeal, got %v", err)
	}

	if _, err := h.notifierSvc.SubmitAppeal(ctx, csc, AppealInput{EventID: event.ID, Kind: models.ReportAccomplishment, FileName: "a.pdf", File: letter()}); err != nil {
		t.Fatalf("expected the accomplishment appeal to be accepted, got %v", err)
	}
	_, err = h.notifierSvc.SubmitAppeal(ctx, csc, AppealInput{EventID: event.ID, Kind: models.ReportAccomplishment, FileName: "a.pdf", File: letter()})
	if !errors.Is(err, ErrAppealExists) {
		t.Errorf("expected ErrAppealExists on the second accomplishment appeal, got %v", err)
	}

	if len(h.documents.files) != 1 {
		t.Errorf("expected exactly one upload, got %d", len(h.documents.files))
	}
}

func TestRefileAppealAfterRevision(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 13, 9, 0, 0, 0, time.UTC))
	ctx := context.Background()
	acc := models.ReportAccomplishment
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, false)

	first := fileAppeal(t, h, "CSC", event, acc)
	if _, err := h.submissionSvc.ReviewSubmission(ctx, h.viewer(t, "OSLD"), ReviewInput{
		SubmissionID: first.ID, Status: models.StatusForRevision, Reason: "unsigned",
	}, RequestMeta{}); err != nil {
		t.Fatalf("ReviewSubmission failed: %v", err)
	}

	if got := h.state(t, "CSC", event.ID, acc).State; got != appeal.StateCanFileAppeal {
		t.Errorf("expected %s after the appeal was returned, got %s", appeal.StateCanFileAppeal, got)
	}
	if got := h.state(t, "OSLD", event.ID, acc).State; got != appeal.StateNotifyOthersOnBehalf {
		t.Errorf("expected the office to see no live appeal, got %s", got)
	}

	second, err := h.notifierSvc.SubmitAppeal(ctx, h.viewer(t, "CSC"), AppealInput{EventID: event.ID, Kind: acc, FileName: "signed.pdf", File: letter()})
	if err != nil {
		t.Fatalf("expected the appeal to be filed again, got %v", err)
	}

	res := h.state(t, "CSC", event.ID, acc)
	if res.State != appeal.StateOwnAppealPending {
		t.Errorf("expected %s, got %s", appeal.StateOwnAppealPending, res.State)
	}
	if res.Appeal == nil || res.Appeal.ID != second.ID {
		t.Errorf("expected the refiled appeal %d to be tracked, got %+v", second.ID, res.Appeal)
	}

	_, err = h.notifierSvc.SubmitAppeal(ctx, h.viewer(t, "CSC"), AppealInput{EventID: event.ID, Kind: acc, FileName: "again.pdf", File: letter()})
	if !errors.Is(err, ErrAppealExists) {
		t.Errorf("expected ErrAppealExists while the refiled appeal is pending, got %v", err)
	}
}

func TestSubmitAppealRecipient(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	event := h.addEvent(t, "Assembly", "LSG", day(2024, 6, 7), true, false)

	sub, err := h.notifierSvc.SubmitAppeal(context.Background(), h.viewer(t, "LSG"), AppealInput{
		EventID: event.ID, Kind: models.ReportAccomplishment, FileName: "a.pdf", File: letter(),
	})
	if err != nil {
		t.Fatalf("SubmitAppeal failed: %v", err)
	}
	if sub.SubmittedTo != "USG" {
		t.Errorf("expected the council's appeal to go to USG, got %s", sub.SubmittedTo)
	}
	if sub.ReportKind == nil || *sub.ReportKind != models.ReportAccomplishment {
		t.Errorf("expected the report kind to be recorded, got %v", sub.ReportKind)
	}
	if !strings.HasPrefix(sub.FileObjectID, "raw:appeals/LSG/") {
		t.Errorf("unexpected object id %q", sub.FileObjectID)
	}

	last := h.notifications.rows[len(h.notifications.rows)-1]
	if last.TargetOrg != "USG" || last.ReportKind != nil {
		t.Errorf("expected a companion notification to USG without report kind, got %+v", last)
	}

	if len(h.mailer.sent) != 1 || h.mailer.sent[0].to != "usg@school.edu" {
		t.Errorf("expected one email to usg@school.edu, got %+v", h.mailer.sent)
	}

	if got := h.state(t, "USG", event.ID, models.ReportAccomplishment).State; got != appeal.StateNoAction {
		t.Errorf("expected the intermediary to have no action once the council appealed, got %s", got)
	}
}

func TestSubmitAppealDeletesUploadWhenInsertFails(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, false)
	h.submissions.failWith = errors.New("connection reset")

	_, err := h.notifierSvc.SubmitAppeal(context.Background(), h.viewer(t, "CSC"), AppealInput{
		EventID: event.ID, Kind: models.ReportAccomplishment, FileName: "a.pdf", File: letter(),
	})
	if err == nil {
		t.Fatal("expected the insert failure to surface")
	}
	if len(h.documents.deleted) != 1 || !strings.HasPrefix(h.documents.deleted[0], "raw:appeals/CSC/") {
		t.Errorf("expected the uploaded letter to be deleted, got %v", h.documents.deleted)
	}
	if len(h.notifications.rows) != 0 {
		t.Errorf("expected no companion notification, got %d", len(h.notifications.rows))
	}
}

func TestSubmitAppealWithoutStorage(t *testing.T) {
	h := newHarness(t, time.Date(2024, 6, 10, 9, 0, 0, 0, time.UTC))
	event := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, false)
	notifier := NewNotifierService(h.deadlineSvc, h.submissions, h.notifications, h.orgs, nil, nil)

	_, err := notifier.SubmitAppeal(context.Background(), h.viewer(t, "CSC"), AppealInput{
		EventID: event.ID, Kind: models.ReportAccomplishment, FileName: "a.pdf", File: letter(),
	})
	if !errors.Is(err, ErrStorageUnavailable) {
		t.Errorf("expected ErrStorageUnavailable, got %v", err)
	}
}

func TestSendDueReminders(t *testing.T) {
	manila := time.FixedZone("PHT", 8*60*60)
	// 07:00 in Manila is still the previous day in UTC
	h := newHarness(t, time.Date(2024, 6, 12, 7, 0, 0, 0, manila))
	ctx := context.Background()
	acc := models.ReportAccomplishment

	seminar := h.addEvent(t, "Seminar", "CSC", day(2024, 6, 7), true, false)
	audit := h.addEvent(t, "Audit Week", "JPIA", day(2024, 6, 7), true, false)
	assembly := h.addEvent(t, "Assembly", "LSG", day(2024, 6, 7), true, false)
	h.addEvent(t, "Later", "CSC", day(2024, 6, 10), true, false)

	if _, err := h.submissionSvc.SubmitReport(ctx, h.viewer(t, "JPIA"), ReportInput{
		EventID: audit.ID, Kind: acc, FileName: "report.pdf", File: letter(),
	}); err != nil {
		t.Fatalf("SubmitReport failed: %v", err)
	}
	fileAppeal(t, h, "LSG", assembly, acc)
	h.mailer.sent = nil

	sent, err := h.notifierSvc.SendDueReminders(ctx, h.now)
	if err != nil {
		t.Fatalf("SendDueReminders failed: %v", err)
	}
	if sent != 1 {
		t.Fatalf("expected 1 reminder, got %d", sent)
	}
	if got := h.notifications.reminders(seminar.ID, acc, "CSC"); got != 1 {
		t.Errorf("expected a reminder row for CSC, got %d", got)
	}
	if got := h.notifications.reminders(audit.ID, acc, "JPIA"); got != 0 {
		t.Errorf("filed reports must not be reminded, got %d", got)
	}
	if got := h.notifications.reminders(assembly.ID, acc, "LSG"); got != 0 {
		t.Errorf("pending appeals must not be reminded, got %d", got)
	}
	if len(h.mailer.sent) != 1 || h.mailer.sent[0].kind != "reminder" || h.mailer.sent[0].to != "csc@school.edu" {
		t.Errorf("expected one reminder email to CSC, got %+v", h.mailer.sent)
	}

	sent, err = h.notifierSvc.SendDueReminders(ctx, h.now.Add(2*time.Hour))
	if err != nil {
		t.Fatalf("second SendDueReminders failed: %v", err)
	}
	if sent != 0 {
		t.Errorf("expected the second sweep of the day to send nothing, got %d", sent)
	}

	if got := h.state(t, "OSLD", seminar.ID, acc); !got.AlreadyNotified {
		t.Errorf("expected the office to see the scheduled reminder as already sent")
	}
}
