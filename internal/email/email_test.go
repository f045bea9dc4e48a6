package email

import (
	"strings"
	"testing"
	"time"

	"osld-portal/internal/config"
)

func TestRenderDeadlineReminder(t *testing.T) {
	subject, body, err := RenderDeadlineReminder(DeadlineMail{
		Organization: "Computer Science Circle",
		ReportLabel:  "Liquidation Report",
		EventTitle:   "Hackathon <2024>",
		DueDate:      time.Date(2024, 6, 14, 0, 0, 0, 0, time.UTC),
		PortalURL:    "https://portal.example",
	})
	if err != nil {
		t.Fatalf("RenderDeadlineReminder failed: %v", err)
	}

	if subject != "Reminder: Liquidation Report due today" {
		t.Errorf("unexpected subject %q", subject)
	}
	for _, want := range []string{"Computer Science Circle", "June 14, 2024", "https://portal.example", "Hackathon &lt;2024&gt;"} {
		if !strings.Contains(body, want) {
			t.Errorf("body does not contain %q", want)
		}
	}
}

func TestRenderAppealMails(t *testing.T) {
	m := DeadlineMail{
		Organization: "LSG",
		ReportLabel:  "Accomplishment Report",
		EventTitle:   "General Assembly",
		DueDate:      time.Date(2024, 6, 21, 0, 0, 0, 0, time.UTC),
	}

	subject, body, err := RenderAppealSubmitted(m)
	if err != nil {
		t.Fatalf("RenderAppealSubmitted failed: %v", err)
	}
	if !strings.Contains(subject, "LSG") || !strings.Contains(body, "General Assembly") {
		t.Errorf("unexpected appeal submitted mail: %q", subject)
	}

	_, body, err = RenderAppealApproved(m)
	if err != nil {
		t.Fatalf("RenderAppealApproved failed: %v", err)
	}
	if !strings.Contains(body, "June 21, 2024") {
		t.Error("approved mail should carry the new deadline")
	}
}

func TestEnabled(t *testing.T) {
	var nilService *Service
	if nilService.Enabled() {
		t.Error("nil service must be disabled")
	}
	if NewService(&config.EmailConfig{}).Enabled() {
		t.Error("service without host must be disabled")
	}
	if !NewService(&config.EmailConfig{SMTPHost: "localhost"}).Enabled() {
		t.Error("service with host must be enabled")
	}
}
